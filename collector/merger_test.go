package collector

import (
	"reflect"
	"testing"

	"github.com/X-Olivia/bilibili-content-analyzer/bilibili"
)

func video(bvid, keyword string, views int64) bilibili.Video {
	return bilibili.Video{
		BVID:          bvid,
		Title:         "title " + bvid,
		SourceKeyword: keyword,
		Stats:         bilibili.Stats{View: views},
	}
}

func TestMerge_DeduplicatesAcrossKeywords(t *testing.T) {
	results := []*UnitResult{
		{
			Unit:   Unit{Keyword: "A"},
			Status: UnitComplete,
			Videos: []bilibili.Video{video("BV1", "A", 100), video("BV2", "A", 200), video("BV3", "A", 300)},
		},
		{
			Unit:   Unit{Keyword: "B"},
			Status: UnitComplete,
			Videos: []bilibili.Video{video("BV2", "B", 250), video("BV4", "B", 400)},
		},
	}

	merged := Merge(results)

	if len(merged) != 4 {
		t.Fatalf("got %d videos, want 4", len(merged))
	}

	// First-seen order is preserved.
	wantOrder := []string{"BV1", "BV2", "BV3", "BV4"}
	for i, want := range wantOrder {
		if merged[i].BVID != want {
			t.Errorf("merged[%d].BVID = %q, want %q", i, merged[i].BVID, want)
		}
	}

	// The duplicate carries both keywords and the later counter values.
	dup := merged[1]
	if !reflect.DeepEqual(dup.Keywords, []string{"A", "B"}) {
		t.Errorf("duplicate Keywords = %v, want [A B]", dup.Keywords)
	}
	if dup.Stats.View != 250 {
		t.Errorf("duplicate View = %d, want later sighting's 250", dup.Stats.View)
	}

	if !reflect.DeepEqual(merged[0].Keywords, []string{"A"}) {
		t.Errorf("merged[0].Keywords = %v, want [A]", merged[0].Keywords)
	}
}

func TestMerge_KeywordsSorted(t *testing.T) {
	results := []*UnitResult{
		{Videos: []bilibili.Video{video("BV1", "z", 1)}},
		{Videos: []bilibili.Video{video("BV1", "a", 1)}},
		{Videos: []bilibili.Video{video("BV1", "m", 1)}},
	}

	merged := Merge(results)
	if len(merged) != 1 {
		t.Fatalf("got %d videos, want 1", len(merged))
	}
	if !reflect.DeepEqual(merged[0].Keywords, []string{"a", "m", "z"}) {
		t.Errorf("Keywords = %v, want sorted union", merged[0].Keywords)
	}
}

func TestMerge_IncludesPartialResults(t *testing.T) {
	results := []*UnitResult{
		{Status: UnitPartial, Videos: []bilibili.Video{video("BV1", "A", 1)}},
		{Status: UnitFailed},
		nil,
	}

	merged := Merge(results)
	if len(merged) != 1 {
		t.Errorf("got %d videos, want 1 (partial units contribute)", len(merged))
	}
}

func TestMerge_SameKeywordDuplicateNotRepeated(t *testing.T) {
	results := []*UnitResult{
		{Videos: []bilibili.Video{video("BV1", "A", 1), video("BV1", "A", 2)}},
	}

	merged := Merge(results)
	if len(merged) != 1 {
		t.Fatalf("got %d videos, want 1", len(merged))
	}
	if !reflect.DeepEqual(merged[0].Keywords, []string{"A"}) {
		t.Errorf("Keywords = %v, want [A] without repetition", merged[0].Keywords)
	}
	if merged[0].Stats.View != 2 {
		t.Errorf("View = %d, want last sighting", merged[0].Stats.View)
	}
}

func TestMerge_Empty(t *testing.T) {
	if got := Merge(nil); len(got) != 0 {
		t.Errorf("Merge(nil) = %v, want empty", got)
	}
}

func TestApplyDetail(t *testing.T) {
	m := &MergedVideo{
		Video: bilibili.Video{
			BVID:            "BV1",
			Author:          "search author",
			DurationSeconds: 100,
			Stats:           bilibili.Stats{View: 1000, Like: 50, Favorite: 20},
		},
		Keywords: []string{"A"},
	}

	detail := &bilibili.Video{
		BVID:        "BV1",
		Author:      "detail author",
		MID:         77,
		Description: "full description",
		Stats:       bilibili.Stats{View: 1100, Like: 55, Coin: 30, Share: 12},
	}

	ApplyDetail(m, detail)

	if m.Stats.View != 1100 || m.Stats.Like != 55 {
		t.Errorf("Stats = %+v, want refreshed counters", m.Stats)
	}
	if m.Stats.Coin != 30 || m.Stats.Share != 12 {
		t.Errorf("Coin/Share = %d/%d, want filled from detail", m.Stats.Coin, m.Stats.Share)
	}
	// Zero favorite in the detail record must not clobber the known value.
	if m.Stats.Favorite != 20 {
		t.Errorf("Favorite = %d, want 20 preserved", m.Stats.Favorite)
	}
	if m.Author != "detail author" || m.MID != 77 {
		t.Errorf("owner = %q/%d, want detail values", m.Author, m.MID)
	}
	if m.Description != "full description" {
		t.Errorf("Description = %q", m.Description)
	}
	if m.DurationSeconds != 100 {
		t.Errorf("DurationSeconds = %d, want preserved when detail has none", m.DurationSeconds)
	}
}

func TestApplyDetail_NilDetail(t *testing.T) {
	m := &MergedVideo{Video: bilibili.Video{BVID: "BV1", Stats: bilibili.Stats{View: 5}}}
	ApplyDetail(m, nil)
	if m.Stats.View != 5 {
		t.Errorf("View = %d, want untouched", m.Stats.View)
	}
}
