package storage

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/X-Olivia/bilibili-content-analyzer/bilibili"
	"github.com/X-Olivia/bilibili-content-analyzer/collector"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "data", "test.db"))
	if err != nil {
		t.Fatalf("Open() returned error = %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func sampleRun() *collector.RunResult {
	pub := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)
	return &collector.RunResult{
		Videos: []collector.MergedVideo{
			{
				Video: bilibili.Video{
					BVID:    "BV1a",
					Title:   "乡村生活",
					Author:  "up甲",
					MID:     11,
					Pubdate: pub,
					Stats:   bilibili.Stats{View: 1000, Like: 100},
				},
				Keywords: []string{"乡村"},
			},
			{
				Video: bilibili.Video{
					BVID:    "BV1b",
					Title:   "农村美食",
					Pubdate: pub,
				},
				Keywords: []string{"农村", "乡村"},
			},
		},
		Units: []collector.UnitSummary{
			{Keyword: "乡村", Status: "complete", Pages: 3, Videos: 2},
			{Keyword: "农村", Status: "partial", Pages: 1, Videos: 1, Error: "retries exhausted"},
		},
		FailedUnits: 1,
		StartedAt:   time.Date(2023, 9, 1, 10, 0, 0, 0, time.UTC),
		FinishedAt:  time.Date(2023, 9, 1, 10, 5, 0, 0, time.UTC),
	}
}

func TestSaveAndLoadRun(t *testing.T) {
	store := openTestStore(t)

	id, err := store.SaveRun(sampleRun())
	if err != nil {
		t.Fatalf("SaveRun() returned error = %v", err)
	}
	if id == "" {
		t.Fatal("SaveRun() returned empty id")
	}

	loaded, err := store.LoadRun(id)
	if err != nil {
		t.Fatalf("LoadRun() returned error = %v", err)
	}

	if len(loaded.Videos) != 2 {
		t.Fatalf("got %d videos, want 2", len(loaded.Videos))
	}
	// Videos come back ordered by bvid.
	if loaded.Videos[0].BVID != "BV1a" || loaded.Videos[1].BVID != "BV1b" {
		t.Errorf("video order = %s, %s", loaded.Videos[0].BVID, loaded.Videos[1].BVID)
	}

	v := loaded.Videos[0]
	if v.Title != "乡村生活" || v.MID != 11 || v.Stats.View != 1000 {
		t.Errorf("loaded video = %+v", v)
	}
	if len(v.Keywords) != 1 || v.Keywords[0] != "乡村" {
		t.Errorf("Keywords = %v", v.Keywords)
	}
	if !v.Pubdate.Equal(time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Pubdate = %v", v.Pubdate)
	}

	if len(loaded.Units) != 2 {
		t.Fatalf("got %d units, want 2", len(loaded.Units))
	}
	if loaded.Units[1].Status != "partial" || loaded.Units[1].Error == "" {
		t.Errorf("unit summary = %+v", loaded.Units[1])
	}
	if loaded.FailedUnits != 1 {
		t.Errorf("FailedUnits = %d, want 1", loaded.FailedUnits)
	}
	// FailedKeywords is recomputed from unit statuses.
	if len(loaded.FailedKeywords) != 1 || loaded.FailedKeywords[0] != "农村" {
		t.Errorf("FailedKeywords = %v, want [农村]", loaded.FailedKeywords)
	}
	if loaded.Canceled {
		t.Error("Canceled = true, want false")
	}
}

func TestLoadRun_NotFound(t *testing.T) {
	store := openTestStore(t)
	_, err := store.LoadRun("no-such-id")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("LoadRun() returned %v, want ErrNotFound", err)
	}
}

func TestSaveRun_Nil(t *testing.T) {
	store := openTestStore(t)
	if _, err := store.SaveRun(nil); err == nil {
		t.Error("SaveRun(nil) returned nil error")
	}
}

func TestSaveRun_Canceled(t *testing.T) {
	store := openTestStore(t)

	run := sampleRun()
	run.Canceled = true
	id, err := store.SaveRun(run)
	if err != nil {
		t.Fatalf("SaveRun() returned error = %v", err)
	}

	loaded, err := store.LoadRun(id)
	if err != nil {
		t.Fatalf("LoadRun() returned error = %v", err)
	}
	if !loaded.Canceled {
		t.Error("Canceled = false after round trip, want true")
	}
}

func TestLatestRunID(t *testing.T) {
	store := openTestStore(t)

	if _, err := store.LatestRunID(); !errors.Is(err, ErrNotFound) {
		t.Errorf("LatestRunID() on empty store returned %v, want ErrNotFound", err)
	}

	first, err := store.SaveRun(sampleRun())
	if err != nil {
		t.Fatalf("SaveRun() returned error = %v", err)
	}

	got, err := store.LatestRunID()
	if err != nil {
		t.Fatalf("LatestRunID() returned error = %v", err)
	}
	if got != first {
		t.Errorf("LatestRunID() = %q, want %q", got, first)
	}

	// A later save becomes the latest.
	time.Sleep(5 * time.Millisecond)
	second, err := store.SaveRun(sampleRun())
	if err != nil {
		t.Fatalf("SaveRun() returned error = %v", err)
	}
	got, err = store.LatestRunID()
	if err != nil {
		t.Fatalf("LatestRunID() returned error = %v", err)
	}
	if got != second {
		t.Errorf("LatestRunID() = %q, want %q", got, second)
	}
}

func TestSaveRun_IndependentRuns(t *testing.T) {
	store := openTestStore(t)

	id1, err := store.SaveRun(sampleRun())
	if err != nil {
		t.Fatalf("SaveRun() returned error = %v", err)
	}

	small := &collector.RunResult{
		Videos: []collector.MergedVideo{
			{Video: bilibili.Video{BVID: "BV9"}, Keywords: []string{"k"}},
		},
	}
	id2, err := store.SaveRun(small)
	if err != nil {
		t.Fatalf("SaveRun() returned error = %v", err)
	}

	run1, err := store.LoadRun(id1)
	if err != nil {
		t.Fatalf("LoadRun(id1) returned error = %v", err)
	}
	run2, err := store.LoadRun(id2)
	if err != nil {
		t.Fatalf("LoadRun(id2) returned error = %v", err)
	}
	if len(run1.Videos) != 2 || len(run2.Videos) != 1 {
		t.Errorf("video counts = %d/%d, want 2/1", len(run1.Videos), len(run2.Videos))
	}
}
