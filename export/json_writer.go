package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/X-Olivia/bilibili-content-analyzer/analysis"
)

// JSONWriter writes the full nested report — summary, tables, units, and
// scored records — as indented JSON.
type JSONWriter struct {
	path string
}

// NewJSONWriter creates a writer targeting the given file path.
func NewJSONWriter(path string) *JSONWriter {
	return &JSONWriter{path: path}
}

// Write serializes the report, truncating any previous file.
func (w *JSONWriter) Write(report *analysis.Report) error {
	if err := os.MkdirAll(filepath.Dir(w.path), 0o755); err != nil {
		return fmt.Errorf("json: create output dir: %w", err)
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("json: marshal report: %w", err)
	}

	if err := os.WriteFile(w.path, data, 0o644); err != nil {
		return fmt.Errorf("json: write %q: %w", w.path, err)
	}
	return nil
}

// Close is a no-op; the file handle lives only inside Write.
func (w *JSONWriter) Close() error {
	return nil
}
