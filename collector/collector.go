// Package collector orchestrates keyword collection runs: query planning,
// rate-limited paginated fetching with retry, and cross-keyword merging.
package collector

import (
	"context"
	"errors"
	"log"

	"github.com/X-Olivia/bilibili-content-analyzer/bilibili"
	apihttp "github.com/X-Olivia/bilibili-content-analyzer/http"
	"github.com/X-Olivia/bilibili-content-analyzer/internal/retry"
)

// UnitStatus is the outcome of collecting one unit.
type UnitStatus int

const (
	// UnitComplete means the unit was paginated to its natural end.
	UnitComplete UnitStatus = iota
	// UnitPartial means retries were exhausted mid-unit; collected pages are kept.
	UnitPartial
	// UnitFailed means a permanent error abandoned the unit.
	UnitFailed
)

// String returns the string representation of a unit status.
func (s UnitStatus) String() string {
	switch s {
	case UnitComplete:
		return "complete"
	case UnitPartial:
		return "partial"
	case UnitFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// UnitResult is the outcome of driving one collection unit.
type UnitResult struct {
	// Unit identifies what was collected.
	Unit Unit
	// Videos are the in-window records fetched before completion or abandonment.
	Videos []bilibili.Video
	// Status reports how the unit ended.
	Status UnitStatus
	// Pages is the number of successfully fetched pages.
	Pages int
	// Err is the error that ended the unit early, nil for complete units.
	Err error
}

// PageCollector drives one collection unit to completion: it pages through
// results, retrying each page with exponential backoff on transient or
// throttle errors, and stops on exhaustion, the result cap, or — for
// publish-date ordering — once timestamps fall below the window start.
type PageCollector struct {
	client     *bilibili.Client
	retryCfg   retry.Config
	maxResults int
	maxPages   int
}

// NewPageCollector creates a page collector. maxResults and maxPages cap one
// unit's yield and depth (0 means uncapped).
func NewPageCollector(client *bilibili.Client, retryCfg retry.Config, maxResults, maxPages int) *PageCollector {
	return &PageCollector{
		client:     client,
		retryCfg:   retryCfg,
		maxResults: maxResults,
		maxPages:   maxPages,
	}
}

// isRetryablePageError classifies page-fetch errors: network failures, 5xx,
// throttling, and undecodable payloads are retried; API business errors and
// other 4xx responses are permanent.
func isRetryablePageError(err error) bool {
	if errors.Is(err, bilibili.ErrBadPayload) {
		return true
	}
	return apihttp.IsTransient(err)
}

// CollectUnit collects all in-window videos for one unit under the
// collector's configured result cap. It never returns an error: failures are
// recorded in the UnitResult so a single unit's failure cannot abort the run.
// Whatever was fetched before the failure is kept.
func (pc *PageCollector) CollectUnit(ctx context.Context, unit Unit) *UnitResult {
	return pc.CollectUnitCapped(ctx, unit, pc.maxResults)
}

// CollectUnitCapped behaves like CollectUnit with an explicit result cap
// (0 = uncapped). Callers spreading one keyword's budget across several
// units pass the remaining budget here.
func (pc *PageCollector) CollectUnitCapped(ctx context.Context, unit Unit, maxResults int) *UnitResult {
	res := &UnitResult{Unit: unit}

	// Pagination stops early on out-of-window timestamps only when results
	// are publish-date ordered. That ordering is an observed behavior of the
	// search API, not a documented contract; for any other ranking we page
	// to exhaustion instead.
	stopOnOldTimestamps := pc.client.Order() == "pubdate"

	page := 1
	for {
		if err := ctx.Err(); err != nil {
			res.Status = UnitPartial
			res.Err = err
			return res
		}
		if pc.maxPages > 0 && page > pc.maxPages {
			res.Status = UnitComplete
			return res
		}

		var pageResult *bilibili.PageResult
		err := retry.Do(ctx, pc.retryCfg, isRetryablePageError, func(ctx context.Context) error {
			pr, err := pc.client.SearchPage(ctx, unit.Keyword, unit.Window, page)
			if err != nil {
				return err
			}
			pageResult = pr
			return nil
		})
		if err != nil {
			var retryErr *retry.RetryableError
			if errors.As(err, &retryErr) {
				log.Printf("collector: unit %q page %d abandoned after retries: %v", unit.Keyword, page, err)
				res.Status = UnitPartial
			} else {
				log.Printf("collector: unit %q page %d failed permanently: %v", unit.Keyword, page, err)
				res.Status = UnitFailed
			}
			res.Err = err
			return res
		}

		res.Pages++

		sawOlder := false
		for _, v := range pageResult.Videos {
			if v.Pubdate.Before(unit.Window.Start) {
				sawOlder = true
				continue
			}
			if !unit.Window.Contains(v.Pubdate) {
				continue
			}
			res.Videos = append(res.Videos, v)
			if maxResults > 0 && len(res.Videos) >= maxResults {
				res.Status = UnitComplete
				return res
			}
		}

		if stopOnOldTimestamps && sawOlder {
			res.Status = UnitComplete
			return res
		}
		if !pageResult.HasMore {
			res.Status = UnitComplete
			return res
		}
		page = pageResult.NextPage
	}
}
