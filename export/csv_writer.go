package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/X-Olivia/bilibili-content-analyzer/analysis"
)

// CSVWriter writes the report's flat tabular form: one row per scored video
// with its derived fields.
type CSVWriter struct {
	path string
}

// NewCSVWriter creates a writer targeting the given file path. Intermediate
// directories are created on Write.
func NewCSVWriter(path string) *CSVWriter {
	return &CSVWriter{path: path}
}

var csvHeader = []string{
	"bvid", "title", "author", "mid", "pubdate", "duration_seconds",
	"view", "danmaku", "reply", "favorite", "coin", "like", "share",
	"keywords", "sentiment", "sentiment_score",
	"engagement_score", "engagement_rate",
	"like_ratio", "coin_ratio", "favorite_ratio", "low_signal",
}

// Write writes all scored videos, truncating any previous file.
func (w *CSVWriter) Write(report *analysis.Report) error {
	if err := os.MkdirAll(filepath.Dir(w.path), 0o755); err != nil {
		return fmt.Errorf("csv: create output dir: %w", err)
	}

	f, err := os.Create(w.path)
	if err != nil {
		return fmt.Errorf("csv: create file %q: %w", w.path, err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("csv: write header: %w", err)
	}

	for _, v := range report.Videos {
		pubdate := ""
		if !v.Pubdate.IsZero() && v.Pubdate.Unix() > 0 {
			pubdate = v.Pubdate.UTC().Format(time.RFC3339)
		}
		row := []string{
			v.BVID,
			v.Title,
			v.Author,
			strconv.FormatInt(v.MID, 10),
			pubdate,
			strconv.Itoa(v.DurationSeconds),
			strconv.FormatInt(v.Stats.View, 10),
			strconv.FormatInt(v.Stats.Danmaku, 10),
			strconv.FormatInt(v.Stats.Reply, 10),
			strconv.FormatInt(v.Stats.Favorite, 10),
			strconv.FormatInt(v.Stats.Coin, 10),
			strconv.FormatInt(v.Stats.Like, 10),
			strconv.FormatInt(v.Stats.Share, 10),
			strings.Join(v.Keywords, ";"),
			string(v.Sentiment),
			formatFloat(v.SentimentScore),
			formatFloat(v.EngagementScore),
			formatFloat(v.EngagementRate),
			formatFloat(v.LikeRatio),
			formatFloat(v.CoinRatio),
			formatFloat(v.FavoriteRatio),
			strconv.FormatBool(v.LowSignal),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("csv: write row for %s: %w", v.BVID, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// Close is a no-op; the file handle lives only inside Write.
func (w *CSVWriter) Close() error {
	return nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', 4, 64)
}
