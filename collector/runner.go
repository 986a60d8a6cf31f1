package collector

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/X-Olivia/bilibili-content-analyzer/bilibili"
	"github.com/X-Olivia/bilibili-content-analyzer/config"
	"github.com/X-Olivia/bilibili-content-analyzer/internal/retry"
)

// UnitSummary records a unit's outcome for run reporting, without the videos.
type UnitSummary struct {
	Keyword     string    `json:"keyword"`
	WindowStart time.Time `json:"window_start"`
	WindowEnd   time.Time `json:"window_end"`
	Status      string    `json:"status"`
	Pages       int       `json:"pages"`
	Videos      int       `json:"videos"`
	Error       string    `json:"error,omitempty"`
}

// RunResult is the outcome of a full collection run: the merged dataset plus
// per-unit bookkeeping for the report summary.
type RunResult struct {
	// Videos is the merged, deduplicated dataset.
	Videos []MergedVideo
	// Units summarizes each planned unit's outcome in processing order.
	Units []UnitSummary
	// FailedUnits counts units that ended failed or partial.
	FailedUnits int
	// FailedKeywords lists the distinct keywords with a failed or partial unit.
	FailedKeywords []string
	// StartedAt and FinishedAt bound the run.
	StartedAt  time.Time
	FinishedAt time.Time
	// Canceled is true when the run stopped on a cancellation signal;
	// Videos then holds everything committed before the stop.
	Canceled bool
}

// Runner executes a collection run: it plans units, drives them sequentially
// through one shared rate-limited client, and merges the results. Units are
// processed one at a time in planner order; together with the single rate
// limiter inside the HTTP client this bounds the aggregate request rate.
type Runner struct {
	cfg       *config.Config
	client    *bilibili.Client
	collector *PageCollector
}

// NewRunner creates a runner for the given configuration and API client.
func NewRunner(cfg *config.Config, client *bilibili.Client) *Runner {
	retryCfg := retry.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxBackoff:     cfg.MaxBackoff,
		Multiplier:     cfg.BackoffMultiplier,
		JitterFraction: 0.2,
	}
	return &Runner{
		cfg:       cfg,
		client:    client,
		collector: NewPageCollector(client, retryCfg, cfg.MaxResultsPerKeyword, cfg.MaxPages),
	}
}

// Run executes the full collection: plan, collect each unit, merge, and
// optionally enhance records with detail fetches. A single unit's failure
// never aborts the run; cancellation returns everything collected so far.
// Run errors only when the configuration yields no units to collect.
func (r *Runner) Run(ctx context.Context) (*RunResult, error) {
	window := bilibili.Window{Start: r.cfg.WindowStart, End: r.cfg.WindowEnd}
	units := Plan(r.cfg.Keywords, window, r.cfg.MaxResultsPerKeyword, r.cfg.PageSize, r.cfg.MaxPages)
	if len(units) == 0 {
		return nil, fmt.Errorf("collector: no collection units planned (empty keyword list?)")
	}

	result := &RunResult{StartedAt: time.Now()}
	failedKeywords := make(map[string]bool)

	// The result cap is a per-keyword budget. Split units share their
	// keyword's budget, so a keyword never yields more than the cap even
	// when planned as several sub-windows.
	budgets := make(map[string]int)
	for _, unit := range units {
		if _, ok := budgets[unit.Keyword]; !ok {
			budgets[unit.Keyword] = r.cfg.MaxResultsPerKeyword
		}
	}

	var unitResults []*UnitResult
	for _, unit := range units {
		if err := ctx.Err(); err != nil {
			log.Printf("collector: run canceled after %d of %d units", len(unitResults), len(units))
			result.Canceled = true
			break
		}

		unitCap := 0
		if r.cfg.MaxResultsPerKeyword > 0 {
			unitCap = budgets[unit.Keyword]
			if unitCap <= 0 {
				log.Printf("collector: keyword %q budget exhausted, skipping window %s..%s",
					unit.Keyword, unit.Window.Start.Format("2006-01-02"), unit.Window.End.Format("2006-01-02"))
				result.Units = append(result.Units, UnitSummary{
					Keyword:     unit.Keyword,
					WindowStart: unit.Window.Start,
					WindowEnd:   unit.Window.End,
					Status:      UnitComplete.String(),
				})
				continue
			}
		}

		log.Printf("collector: collecting keyword %q window %s..%s",
			unit.Keyword, unit.Window.Start.Format("2006-01-02"), unit.Window.End.Format("2006-01-02"))

		unitRes := r.collector.CollectUnitCapped(ctx, unit, unitCap)
		unitResults = append(unitResults, unitRes)
		if r.cfg.MaxResultsPerKeyword > 0 {
			budgets[unit.Keyword] = unitCap - len(unitRes.Videos)
		}

		summary := UnitSummary{
			Keyword:     unit.Keyword,
			WindowStart: unit.Window.Start,
			WindowEnd:   unit.Window.End,
			Status:      unitRes.Status.String(),
			Pages:       unitRes.Pages,
			Videos:      len(unitRes.Videos),
		}
		if unitRes.Err != nil {
			summary.Error = unitRes.Err.Error()
		}
		result.Units = append(result.Units, summary)

		if unitRes.Status != UnitComplete {
			result.FailedUnits++
			if !failedKeywords[unit.Keyword] {
				failedKeywords[unit.Keyword] = true
				result.FailedKeywords = append(result.FailedKeywords, unit.Keyword)
			}
		}

		log.Printf("collector: unit %q %s: %d videos over %d pages",
			unit.Keyword, unitRes.Status, len(unitRes.Videos), unitRes.Pages)
	}

	result.Videos = Merge(unitResults)
	log.Printf("collector: merged %d unique videos from %d units", len(result.Videos), len(unitResults))

	if r.cfg.EnhanceDetails && !result.Canceled {
		r.enhance(ctx, result)
	}

	result.FinishedAt = time.Now()
	return result, nil
}

// enhance refreshes each merged record's counters from the view endpoint.
// Enhancement is best effort: a record that cannot be enhanced keeps its
// search-result values, and cancellation stops the pass cleanly.
func (r *Runner) enhance(ctx context.Context, result *RunResult) {
	log.Printf("collector: enhancing %d videos with detail fetches", len(result.Videos))
	enhanced := 0
	for i := range result.Videos {
		if ctx.Err() != nil {
			result.Canceled = true
			break
		}
		detail, err := r.client.VideoDetail(ctx, result.Videos[i].BVID)
		if err != nil {
			log.Printf("collector: detail fetch for %s failed: %v", result.Videos[i].BVID, err)
			continue
		}
		ApplyDetail(&result.Videos[i], detail)
		enhanced++
	}
	log.Printf("collector: enhanced %d of %d videos", enhanced, len(result.Videos))
}
