package collector

import (
	"time"

	"github.com/X-Olivia/bilibili-content-analyzer/bilibili"
)

// Unit is one (keyword, publish-date window) collection unit. Units are
// immutable; the planner produces them and the collector consumes them.
type Unit struct {
	Keyword string
	Window  bilibili.Window
}

// Plan expands the configured keyword list and date range into the ordered
// sequence of collection units. Keywords keep their configured order and
// sub-windows are chronologically ascending, so planning is deterministic.
//
// A keyword's range is split into calendar-year sub-windows only when the
// requested cap exceeds what pagination can reach in a single query
// (pageSize × maxPages). This is a reachability heuristic, not a guarantee:
// the search API may cap total reachable results per query regardless.
func Plan(keywords []string, window bilibili.Window, perKeywordCap, pageSize, maxPages int) []Unit {
	reachable := pageSize * maxPages
	split := reachable > 0 && (perKeywordCap == 0 || perKeywordCap > reachable)

	var units []Unit
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		if !split {
			units = append(units, Unit{Keyword: kw, Window: window})
			continue
		}
		for _, w := range splitByYear(window) {
			units = append(units, Unit{Keyword: kw, Window: w})
		}
	}
	return units
}

// splitByYear cuts a window into calendar-year sub-windows, ascending.
// A window inside a single year is returned unchanged.
func splitByYear(window bilibili.Window) []bilibili.Window {
	startYear := window.Start.Year()
	endYear := window.End.Year()
	if startYear == endYear {
		return []bilibili.Window{window}
	}

	var windows []bilibili.Window
	for year := startYear; year <= endYear; year++ {
		w := bilibili.Window{
			Start: time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC),
			End:   time.Date(year, 12, 31, 23, 59, 59, 0, time.UTC),
		}
		if w.Start.Before(window.Start) {
			w.Start = window.Start
		}
		if w.End.After(window.End) {
			w.End = window.End
		}
		windows = append(windows, w)
	}
	return windows
}
