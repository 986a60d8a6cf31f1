package export

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/X-Olivia/bilibili-content-analyzer/analysis"
)

func TestJSONWriter_Write(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "analysis_report.json")
	w := NewJSONWriter(path)

	if err := w.Write(sampleReport()); err != nil {
		t.Fatalf("Write() returned error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("Close() returned error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}

	var loaded analysis.Report
	if err := json.Unmarshal(data, &loaded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}

	if loaded.RunID != "test-run" {
		t.Errorf("RunID = %q, want test-run", loaded.RunID)
	}
	if loaded.Summary.TotalVideos != 2 {
		t.Errorf("Summary.TotalVideos = %d, want 2", loaded.Summary.TotalVideos)
	}
	if len(loaded.Videos) != 2 {
		t.Errorf("got %d videos, want 2", len(loaded.Videos))
	}
	table := loaded.Tables["trend_yearly"]
	if table == nil || table.Buckets["2023"]["videos"] != 2 {
		t.Errorf("tables did not round-trip: %+v", loaded.Tables)
	}
	if loaded.Videos[0].Keywords[0] != "乡村" {
		t.Errorf("Keywords = %v", loaded.Videos[0].Keywords)
	}
}

func TestJSONWriter_IsIndented(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")
	if err := NewJSONWriter(path).Write(sampleReport()); err != nil {
		t.Fatalf("Write() returned error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(data) == 0 || data[0] != '{' {
		t.Fatalf("unexpected output start: %q", data[:min(len(data), 10)])
	}
	// Indented output puts the first key on its own line.
	if string(data[:4]) != "{\n  " {
		t.Errorf("output not indented: %q", data[:4])
	}
}
