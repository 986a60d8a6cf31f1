// Package analysis scores sentiment over the merged dataset and reduces it
// into aggregate tables assembled as a report.
package analysis

import (
	"time"

	"github.com/X-Olivia/bilibili-content-analyzer/collector"
)

// Label is a sentiment classification.
type Label string

// Sentiment labels. Every scored record carries exactly one.
const (
	Positive Label = "positive"
	Neutral  Label = "neutral"
	Negative Label = "negative"
)

// ScoredVideo is a merged video plus its sentiment and derived engagement
// fields. Created once by the pipeline and never mutated afterward; the flat
// per-record form consumed by tabular exporters.
type ScoredVideo struct {
	collector.MergedVideo

	// Sentiment is the record's label under the configured thresholds.
	Sentiment Label `json:"sentiment"`
	// SentimentScore is the lexicon polarity score in [-1, 1].
	SentimentScore float64 `json:"sentiment_score"`

	// EngagementScore is the weighted interaction sum.
	EngagementScore float64 `json:"engagement_score"`
	// EngagementRate is EngagementScore per 100 views (0 for zero views).
	EngagementRate float64 `json:"engagement_rate"`
	// LikeRatio, CoinRatio and FavoriteRatio are per-view ratios in [0, 1].
	LikeRatio     float64 `json:"like_ratio"`
	CoinRatio     float64 `json:"coin_ratio"`
	FavoriteRatio float64 `json:"favorite_ratio"`
	// LowSignal marks records with zero views, whose ratios are defined as 0.
	LowSignal bool `json:"low_signal"`
}

// Metrics holds a bucket's computed values.
type Metrics map[string]float64

// Table is one named aggregate: a mapping from bucket key to metrics,
// recomputed wholesale on every analysis run.
type Table struct {
	// Name identifies the aggregate.
	Name string `json:"name"`
	// Buckets maps bucket key to computed metrics.
	Buckets map[string]Metrics `json:"buckets"`
	// Order lists bucket keys in the aggregate's deterministic order.
	Order []string `json:"order"`
	// Excluded counts records that lacked the field this aggregate buckets on.
	Excluded int `json:"excluded"`
	// Err is set when the aggregator failed and the table is degraded (empty).
	Err string `json:"error,omitempty"`
}

// newTable creates an empty table with the given name.
func newTable(name string) *Table {
	return &Table{
		Name:    name,
		Buckets: make(map[string]Metrics),
	}
}

// bucket returns the metrics map for a key, creating and ordering it on first use.
func (t *Table) bucket(key string) Metrics {
	if m, ok := t.Buckets[key]; ok {
		return m
	}
	m := make(Metrics)
	t.Buckets[key] = m
	t.Order = append(t.Order, key)
	return m
}

// Aggregator is a pure reduction over the scored dataset into one table.
type Aggregator interface {
	// Name identifies the aggregate in the report.
	Name() string
	// Aggregate reduces the dataset. Implementations must not mutate videos.
	Aggregate(videos []ScoredVideo) (*Table, error)
}

// Summary holds scalar run statistics for the report.
type Summary struct {
	TotalVideos       int       `json:"total_videos"`
	TotalViews        int64     `json:"total_views"`
	AvgViews          float64   `json:"avg_views"`
	AvgEngagementRate float64   `json:"avg_engagement_rate"`
	SentimentCounts   SentimentCounts `json:"sentiment_counts"`
	// CoveredStart and CoveredEnd bound the publish dates actually observed.
	CoveredStart time.Time `json:"covered_start"`
	CoveredEnd   time.Time `json:"covered_end"`
	// FailedUnits and FailedKeywords carry collection-stage failures forward.
	FailedUnits    int      `json:"failed_units"`
	FailedKeywords []string `json:"failed_keywords,omitempty"`
}

// SentimentCounts is the label distribution over the dataset.
type SentimentCounts struct {
	Positive int `json:"positive"`
	Neutral  int `json:"neutral"`
	Negative int `json:"negative"`
}

// Report is the immutable snapshot handed to writers: all aggregate tables,
// the scored records in flat form, and the run summary.
type Report struct {
	// RunID uniquely identifies this analysis run.
	RunID string `json:"run_id"`
	// GeneratedAt is when the report was assembled.
	GeneratedAt time.Time `json:"generated_at"`
	// Summary holds the run's scalar statistics.
	Summary Summary `json:"summary"`
	// Tables maps aggregate name to its table.
	Tables map[string]*Table `json:"tables"`
	// Videos are the scored records, one row per merged video.
	Videos []ScoredVideo `json:"videos"`
	// Units summarizes the collection units behind this dataset, if known.
	Units []collector.UnitSummary `json:"units,omitempty"`
}
