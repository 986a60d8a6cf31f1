package analysis

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/X-Olivia/bilibili-content-analyzer/collector"
	"github.com/X-Olivia/bilibili-content-analyzer/config"
)

// ErrEmptyDataset indicates upstream collection produced no records, so no
// aggregate can be meaningfully computed. It is the pipeline's one hard stop.
var ErrEmptyDataset = errors.New("analysis: empty dataset")

// Pipeline scores sentiment over the merged dataset and runs the aggregators,
// assembling the report. Aggregators run isolated: one failing degrades its
// own table and never aborts the others.
type Pipeline struct {
	cfg         *config.Config
	scorer      *SentimentScorer
	aggregators []Aggregator
}

// NewPipeline creates a pipeline with the standard aggregator set.
func NewPipeline(cfg *config.Config) (*Pipeline, error) {
	keywords, err := NewKeywordFrequency(cfg.StopWords, cfg.TopKeywords)
	if err != nil {
		return nil, err
	}

	return &Pipeline{
		cfg:    cfg,
		scorer: NewSentimentScorer(cfg.PositiveThreshold, cfg.NegativeThreshold),
		aggregators: []Aggregator{
			NewTimeBucket(Yearly),
			NewTimeBucket(Quarterly),
			NewTimeBucket(Monthly),
			NewEngagement(),
			NewCreator(cfg.InfluenceCountWeight, cfg.InfluenceEngagementWeight),
			keywords,
		},
	}, nil
}

// Run scores all videos and computes every aggregate table. runInfo may be
// nil; when present, collection failures are carried into the report summary.
// Re-running on an identical dataset yields identical tables.
func (p *Pipeline) Run(videos []collector.MergedVideo, runInfo *collector.RunResult) (*Report, error) {
	if len(videos) == 0 {
		return nil, ErrEmptyDataset
	}

	scored := p.score(videos)

	report := &Report{
		RunID:       uuid.NewString(),
		GeneratedAt: time.Now().UTC(),
		Tables:      make(map[string]*Table, len(p.aggregators)),
		Videos:      scored,
	}

	for _, agg := range p.aggregators {
		table := p.runAggregator(agg, scored)
		report.Tables[table.Name] = table
	}

	report.Summary = p.summarize(scored, runInfo)
	if runInfo != nil {
		report.Units = runInfo.Units
	}

	return report, nil
}

// score derives each record's sentiment and engagement fields.
func (p *Pipeline) score(videos []collector.MergedVideo) []ScoredVideo {
	w := p.cfg.EngagementWeights
	scored := make([]ScoredVideo, 0, len(videos))

	for _, v := range videos {
		label, score := p.scorer.Score(v.Title + " " + v.Description)

		sv := ScoredVideo{
			MergedVideo:    v,
			Sentiment:      label,
			SentimentScore: score,
		}

		sv.EngagementScore = float64(v.Stats.Like)*w.Like +
			float64(v.Stats.Coin)*w.Coin +
			float64(v.Stats.Favorite)*w.Favorite +
			float64(v.Stats.Share)*w.Share +
			float64(v.Stats.Reply)*w.Reply

		if v.Stats.View > 0 {
			views := float64(v.Stats.View)
			sv.EngagementRate = sv.EngagementScore / views * 100
			sv.LikeRatio = ratio(v.Stats.Like, v.Stats.View)
			sv.CoinRatio = ratio(v.Stats.Coin, v.Stats.View)
			sv.FavoriteRatio = ratio(v.Stats.Favorite, v.Stats.View)
		} else {
			// Zero views: ratios are defined as 0 and the record is flagged
			// low-signal rather than excluded.
			sv.LowSignal = true
		}

		scored = append(scored, sv)
	}
	return scored
}

// ratio returns n/d clamped to [0, 1].
func ratio(n, d int64) float64 {
	if d <= 0 {
		return 0
	}
	r := float64(n) / float64(d)
	if r > 1 {
		return 1
	}
	if r < 0 {
		return 0
	}
	return r
}

// runAggregator executes one aggregator, converting an error or panic into a
// degraded (empty, annotated) table.
func (p *Pipeline) runAggregator(agg Aggregator, scored []ScoredVideo) (table *Table) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("analysis: aggregator %s panicked: %v", agg.Name(), r)
			table = newTable(agg.Name())
			table.Err = fmt.Sprintf("panic: %v", r)
		}
	}()

	table, err := agg.Aggregate(scored)
	if err != nil {
		log.Printf("analysis: aggregator %s failed: %v", agg.Name(), err)
		table = newTable(agg.Name())
		table.Err = err.Error()
	}
	return table
}

// summarize computes the report's scalar statistics.
func (p *Pipeline) summarize(scored []ScoredVideo, runInfo *collector.RunResult) Summary {
	s := Summary{TotalVideos: len(scored)}

	var totalRate float64
	for _, v := range scored {
		s.TotalViews += v.Stats.View
		totalRate += v.EngagementRate

		switch v.Sentiment {
		case Positive:
			s.SentimentCounts.Positive++
		case Negative:
			s.SentimentCounts.Negative++
		default:
			s.SentimentCounts.Neutral++
		}

		if v.Pubdate.IsZero() || v.Pubdate.Unix() <= 0 {
			continue
		}
		if s.CoveredStart.IsZero() || v.Pubdate.Before(s.CoveredStart) {
			s.CoveredStart = v.Pubdate
		}
		if v.Pubdate.After(s.CoveredEnd) {
			s.CoveredEnd = v.Pubdate
		}
	}

	if len(scored) > 0 {
		s.AvgViews = float64(s.TotalViews) / float64(len(scored))
		s.AvgEngagementRate = totalRate / float64(len(scored))
	}

	if runInfo != nil {
		s.FailedUnits = runInfo.FailedUnits
		s.FailedKeywords = runInfo.FailedKeywords
	}

	return s
}
