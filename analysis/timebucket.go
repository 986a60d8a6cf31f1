package analysis

import (
	"fmt"
	"sort"
)

// Granularity selects how the time-trend aggregator buckets publish dates.
type Granularity int

const (
	// Yearly buckets by calendar year ("2023").
	Yearly Granularity = iota
	// Quarterly buckets by year and quarter ("2023-Q1").
	Quarterly
	// Monthly buckets by year and month ("2023-01").
	Monthly
)

// String returns the aggregate name suffix for a granularity.
func (g Granularity) String() string {
	switch g {
	case Yearly:
		return "yearly"
	case Quarterly:
		return "quarterly"
	case Monthly:
		return "monthly"
	default:
		return "unknown"
	}
}

// TimeBucket groups records by publish date at one granularity and computes
// publish count, view totals, and growth rate between consecutive buckets.
// Records without a parseable publish timestamp are excluded and counted.
type TimeBucket struct {
	granularity Granularity
}

// NewTimeBucket creates a time-trend aggregator at the given granularity.
func NewTimeBucket(g Granularity) *TimeBucket {
	return &TimeBucket{granularity: g}
}

// Name identifies the aggregate in the report.
func (tb *TimeBucket) Name() string {
	return "trend_" + tb.granularity.String()
}

// Aggregate reduces the dataset into time buckets.
func (tb *TimeBucket) Aggregate(videos []ScoredVideo) (*Table, error) {
	table := newTable(tb.Name())

	for _, v := range videos {
		if v.Pubdate.IsZero() || v.Pubdate.Unix() <= 0 {
			table.Excluded++
			continue
		}
		m := table.bucket(tb.key(v))
		m["videos"]++
		m["total_views"] += float64(v.Stats.View)
		m["total_engagement_rate"] += v.EngagementRate
	}

	sort.Strings(table.Order)

	// Second pass: averages and count growth relative to the previous bucket.
	var prevCount float64
	for i, key := range table.Order {
		m := table.Buckets[key]
		if m["videos"] > 0 {
			m["avg_views"] = m["total_views"] / m["videos"]
			m["avg_engagement_rate"] = m["total_engagement_rate"] / m["videos"]
		}
		delete(m, "total_engagement_rate")
		if i > 0 && prevCount > 0 {
			m["growth_rate"] = (m["videos"] - prevCount) / prevCount
		}
		prevCount = m["videos"]
	}

	return table, nil
}

// key formats a video's bucket key at this granularity. The three formats are
// distinct, so tables from different granularities never collide.
func (tb *TimeBucket) key(v ScoredVideo) string {
	t := v.Pubdate
	switch tb.granularity {
	case Quarterly:
		quarter := (int(t.Month())-1)/3 + 1
		return fmt.Sprintf("%04d-Q%d", t.Year(), quarter)
	case Monthly:
		return fmt.Sprintf("%04d-%02d", t.Year(), int(t.Month()))
	default:
		return fmt.Sprintf("%04d", t.Year())
	}
}
