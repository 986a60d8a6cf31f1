package collector

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/X-Olivia/bilibili-content-analyzer/config"
)

func runnerConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Keywords = []string{"乡村", "农村"}
	cfg.WindowStart = time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	cfg.WindowEnd = time.Date(2023, 12, 31, 23, 59, 59, 0, time.UTC)
	cfg.MaxResultsPerKeyword = 10
	cfg.PageSize = 20
	cfg.MaxPages = 2
	cfg.RequestInterval = 0
	cfg.MaxRetries = 0 // no backoff sleeps in tests
	cfg.EnhanceDetails = false
	return cfg
}

func TestRunner_MergesAcrossKeywords(t *testing.T) {
	mid := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("keyword") {
		case "乡村":
			fmt.Fprint(w, searchBody(1, videoJSON("BV1a", mid), videoJSON("BV1b", mid)))
		case "农村":
			fmt.Fprint(w, searchBody(1, videoJSON("BV1b", mid), videoJSON("BV1c", mid)))
		default:
			t.Errorf("unexpected keyword %q", r.URL.Query().Get("keyword"))
		}
	}))
	defer server.Close()

	cfg := runnerConfig()
	runner := NewRunner(cfg, newCollectorClient(server.URL))

	res, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() returned error = %v", err)
	}

	if len(res.Videos) != 3 {
		t.Errorf("got %d merged videos, want 3", len(res.Videos))
	}
	if len(res.Units) != 2 {
		t.Fatalf("got %d unit summaries, want 2", len(res.Units))
	}
	for i, u := range res.Units {
		if u.Status != "complete" {
			t.Errorf("unit[%d].Status = %q, want complete", i, u.Status)
		}
	}
	if res.FailedUnits != 0 {
		t.Errorf("FailedUnits = %d, want 0", res.FailedUnits)
	}
	if res.Canceled {
		t.Error("Canceled = true, want false")
	}
	if res.FinishedAt.Before(res.StartedAt) {
		t.Error("FinishedAt before StartedAt")
	}
}

func TestRunner_UnitFailureDoesNotAbortRun(t *testing.T) {
	mid := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("keyword") == "乡村" {
			fmt.Fprint(w, `{"code":-400,"message":"请求错误"}`)
			return
		}
		fmt.Fprint(w, searchBody(1, videoJSON("BV1c", mid)))
	}))
	defer server.Close()

	cfg := runnerConfig()
	runner := NewRunner(cfg, newCollectorClient(server.URL))

	res, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() returned error = %v", err)
	}

	if res.FailedUnits != 1 {
		t.Errorf("FailedUnits = %d, want 1", res.FailedUnits)
	}
	if len(res.FailedKeywords) != 1 || res.FailedKeywords[0] != "乡村" {
		t.Errorf("FailedKeywords = %v, want [乡村]", res.FailedKeywords)
	}
	if res.Units[0].Status != "failed" || res.Units[0].Error == "" {
		t.Errorf("failed unit summary = %+v", res.Units[0])
	}
	if len(res.Videos) != 1 {
		t.Errorf("got %d videos, want the healthy keyword's 1", len(res.Videos))
	}
}

func TestRunner_NoKeywords(t *testing.T) {
	cfg := runnerConfig()
	cfg.Keywords = nil

	runner := NewRunner(cfg, newCollectorClient("http://unused.invalid"))
	if _, err := runner.Run(context.Background()); err == nil {
		t.Error("Run() with no keywords returned nil error")
	}
}

func TestRunner_CanceledBeforeStart(t *testing.T) {
	cfg := runnerConfig()
	runner := NewRunner(cfg, newCollectorClient("http://unused.invalid"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := runner.Run(ctx)
	if err != nil {
		t.Fatalf("Run() returned error = %v, cancellation is not an error", err)
	}
	if !res.Canceled {
		t.Error("Canceled = false, want true")
	}
	if len(res.Units) != 0 {
		t.Errorf("got %d unit summaries, want 0", len(res.Units))
	}
}

// splitUnitServer serves one page of two videos published just inside the
// requested sub-window, with distinct bvids per request.
func splitUnitServer(t *testing.T, calls *int) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*calls++
		begin, err := strconv.ParseInt(r.URL.Query().Get("pubtime_begin_s"), 10, 64)
		if err != nil {
			t.Errorf("missing pubtime_begin_s: %v", err)
		}
		pub := time.Unix(begin, 0).UTC().Add(24 * time.Hour)
		fmt.Fprint(w, searchBody(10,
			videoJSON(fmt.Sprintf("BV%da", *calls), pub),
			videoJSON(fmt.Sprintf("BV%db", *calls), pub),
		))
	}))
}

func TestRunner_KeywordCapSpansSplitUnits(t *testing.T) {
	calls := 0
	server := splitUnitServer(t, &calls)
	defer server.Close()

	cfg := runnerConfig()
	cfg.Keywords = []string{"k"}
	cfg.WindowStart = time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	cfg.WindowEnd = time.Date(2023, 12, 31, 23, 59, 59, 0, time.UTC)
	// Cap of 3 exceeds pageSize*maxPages = 2, so the keyword splits into
	// one unit per year; the cap must still bound the keyword's total.
	cfg.MaxResultsPerKeyword = 3
	cfg.PageSize = 2
	cfg.MaxPages = 1

	runner := NewRunner(cfg, newCollectorClient(server.URL))
	res, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() returned error = %v", err)
	}

	if len(res.Units) != 2 {
		t.Fatalf("got %d units, want 2 yearly units", len(res.Units))
	}
	if len(res.Videos) != 3 {
		t.Errorf("keyword collected %d videos, want cap of 3 across both units", len(res.Videos))
	}
}

func TestRunner_SkipsUnitsOnExhaustedBudget(t *testing.T) {
	calls := 0
	server := splitUnitServer(t, &calls)
	defer server.Close()

	cfg := runnerConfig()
	cfg.Keywords = []string{"k"}
	cfg.WindowStart = time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	cfg.WindowEnd = time.Date(2023, 12, 31, 23, 59, 59, 0, time.UTC)
	// The first yearly unit fills the whole budget.
	cfg.MaxResultsPerKeyword = 2
	cfg.PageSize = 1
	cfg.MaxPages = 1

	runner := NewRunner(cfg, newCollectorClient(server.URL))
	res, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() returned error = %v", err)
	}

	if calls != 1 {
		t.Errorf("server saw %d calls, want 1 (second unit skipped without requests)", calls)
	}
	if len(res.Videos) != 2 {
		t.Errorf("got %d videos, want 2", len(res.Videos))
	}
	if len(res.Units) != 2 {
		t.Fatalf("got %d unit summaries, want both units recorded", len(res.Units))
	}
	skipped := res.Units[1]
	if skipped.Status != "complete" || skipped.Pages != 0 || skipped.Videos != 0 {
		t.Errorf("skipped unit summary = %+v, want complete with no activity", skipped)
	}
	if res.FailedUnits != 0 {
		t.Errorf("FailedUnits = %d, want 0", res.FailedUnits)
	}
}

func TestRunner_EnhanceFillsDetailCounters(t *testing.T) {
	mid := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/x/web-interface/search/type":
			fmt.Fprint(w, searchBody(1, videoJSON("BV1a", mid)))
		case "/x/web-interface/view":
			fmt.Fprint(w, `{"code":0,"data":{"bvid":"BV1a","stat":{"view":120,"like":12,"coin":7,"share":3}}}`)
		default:
			t.Errorf("unexpected path %q", r.URL.Path)
		}
	}))
	defer server.Close()

	cfg := runnerConfig()
	cfg.Keywords = []string{"乡村"}
	cfg.EnhanceDetails = true

	runner := NewRunner(cfg, newCollectorClient(server.URL))
	res, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() returned error = %v", err)
	}

	if len(res.Videos) != 1 {
		t.Fatalf("got %d videos, want 1", len(res.Videos))
	}
	v := res.Videos[0]
	if v.Stats.Coin != 7 || v.Stats.Share != 3 {
		t.Errorf("Coin/Share = %d/%d, want detail values 7/3", v.Stats.Coin, v.Stats.Share)
	}
	if v.Stats.View != 120 {
		t.Errorf("View = %d, want refreshed 120", v.Stats.View)
	}
}

func TestRunner_EnhanceFailureKeepsSearchValues(t *testing.T) {
	mid := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/x/web-interface/search/type":
			fmt.Fprint(w, searchBody(1, videoJSON("BV1a", mid)))
		case "/x/web-interface/view":
			fmt.Fprint(w, `{"code":-404,"message":"啥都木有"}`)
		}
	}))
	defer server.Close()

	cfg := runnerConfig()
	cfg.Keywords = []string{"乡村"}
	cfg.EnhanceDetails = true

	runner := NewRunner(cfg, newCollectorClient(server.URL))
	res, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() returned error = %v", err)
	}
	if len(res.Videos) != 1 {
		t.Fatalf("got %d videos, want 1", len(res.Videos))
	}
	if res.Videos[0].Stats.View != 100 {
		t.Errorf("View = %d, want search value preserved", res.Videos[0].Stats.View)
	}
}
