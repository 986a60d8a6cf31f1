package collector

import (
	"reflect"
	"testing"
	"time"

	"github.com/X-Olivia/bilibili-content-analyzer/bilibili"
)

func spanWindow(startYear, endYear int) bilibili.Window {
	return bilibili.Window{
		Start: time.Date(startYear, 1, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(endYear, 12, 31, 23, 59, 59, 0, time.UTC),
	}
}

func TestPlan_NoSplitWhenCapReachable(t *testing.T) {
	window := spanWindow(2020, 2023)

	// Cap of 100 fits within pageSize*maxPages = 20*10 = 200.
	units := Plan([]string{"乡村", "农村"}, window, 100, 20, 10)

	if len(units) != 2 {
		t.Fatalf("got %d units, want 2", len(units))
	}
	for i, kw := range []string{"乡村", "农村"} {
		if units[i].Keyword != kw {
			t.Errorf("unit[%d].Keyword = %q, want %q", i, units[i].Keyword, kw)
		}
		if units[i].Window != window {
			t.Errorf("unit[%d].Window = %+v, want full range", i, units[i].Window)
		}
	}
}

func TestPlan_SplitsByYearWhenCapUnreachable(t *testing.T) {
	window := spanWindow(2021, 2023)

	// Cap of 1000 exceeds pageSize*maxPages = 200, so each keyword is
	// split into one unit per calendar year.
	units := Plan([]string{"乡村"}, window, 1000, 20, 10)

	if len(units) != 3 {
		t.Fatalf("got %d units, want 3", len(units))
	}
	for i, year := range []int{2021, 2022, 2023} {
		if got := units[i].Window.Start.Year(); got != year {
			t.Errorf("unit[%d] starts in %d, want %d", i, got, year)
		}
	}
	if !units[0].Window.Start.Equal(window.Start) {
		t.Errorf("first sub-window starts at %v, want original start", units[0].Window.Start)
	}
	if !units[2].Window.End.Equal(window.End) {
		t.Errorf("last sub-window ends at %v, want original end", units[2].Window.End)
	}
}

func TestPlan_UncappedAlwaysSplits(t *testing.T) {
	units := Plan([]string{"k"}, spanWindow(2022, 2023), 0, 20, 10)
	if len(units) != 2 {
		t.Fatalf("got %d units, want 2 yearly units for uncapped keyword", len(units))
	}
}

func TestPlan_PartialYearBoundsClamped(t *testing.T) {
	window := bilibili.Window{
		Start: time.Date(2022, 6, 15, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2023, 3, 1, 0, 0, 0, 0, time.UTC),
	}

	units := Plan([]string{"k"}, window, 0, 20, 10)
	if len(units) != 2 {
		t.Fatalf("got %d units, want 2", len(units))
	}
	if !units[0].Window.Start.Equal(window.Start) {
		t.Errorf("2022 unit starts at %v, want June 15", units[0].Window.Start)
	}
	if units[0].Window.End.Year() != 2022 {
		t.Errorf("2022 unit ends in %d", units[0].Window.End.Year())
	}
	if !units[1].Window.End.Equal(window.End) {
		t.Errorf("2023 unit ends at %v, want March 1", units[1].Window.End)
	}
}

func TestPlan_SkipsEmptyKeywords(t *testing.T) {
	units := Plan([]string{"", "k", ""}, spanWindow(2023, 2023), 100, 20, 10)
	if len(units) != 1 || units[0].Keyword != "k" {
		t.Errorf("got %+v, want single unit for %q", units, "k")
	}
}

func TestPlan_Deterministic(t *testing.T) {
	keywords := []string{"b", "a", "c"}
	window := spanWindow(2021, 2023)

	first := Plan(keywords, window, 0, 20, 10)
	second := Plan(keywords, window, 0, 20, 10)

	if !reflect.DeepEqual(first, second) {
		t.Error("identical inputs produced different plans")
	}
	// Keyword order is configuration order, not sorted.
	if first[0].Keyword != "b" {
		t.Errorf("first unit keyword = %q, want configured order preserved", first[0].Keyword)
	}
}

func TestSplitByYear_SingleYear(t *testing.T) {
	window := spanWindow(2023, 2023)
	got := splitByYear(window)
	if len(got) != 1 || got[0] != window {
		t.Errorf("splitByYear(single year) = %+v, want unchanged window", got)
	}
}
