package analysis

import (
	"fmt"
	"sort"
)

// Engagement aggregates per-view interaction ratios and the weighted
// engagement rate, overall and per publish year. Zero-view records are never
// excluded: their ratios are defined as 0 and they surface in the low_signal
// count instead.
type Engagement struct{}

// NewEngagement creates the engagement aggregator.
func NewEngagement() *Engagement {
	return &Engagement{}
}

// Name identifies the aggregate in the report.
func (e *Engagement) Name() string {
	return "engagement"
}

// Aggregate reduces the dataset into an "overall" bucket plus one bucket per
// publish year. Metrics include mean per-view ratios and mean/median/p90 of
// the engagement rate.
func (e *Engagement) Aggregate(videos []ScoredVideo) (*Table, error) {
	table := newTable(e.Name())

	groups := map[string][]ScoredVideo{"overall": videos}
	var years []string
	for _, v := range videos {
		if v.Pubdate.IsZero() || v.Pubdate.Unix() <= 0 {
			continue
		}
		year := fmt.Sprintf("%04d", v.Pubdate.Year())
		if _, seen := groups[year]; !seen {
			years = append(years, year)
		}
		groups[year] = append(groups[year], v)
	}
	sort.Strings(years)

	for _, key := range append([]string{"overall"}, years...) {
		group := groups[key]
		if len(group) == 0 {
			continue
		}
		m := table.bucket(key)

		rates := make([]float64, 0, len(group))
		for _, v := range group {
			m["videos"]++
			m["mean_like_ratio"] += v.LikeRatio
			m["mean_coin_ratio"] += v.CoinRatio
			m["mean_favorite_ratio"] += v.FavoriteRatio
			m["mean_engagement_rate"] += v.EngagementRate
			if v.LowSignal {
				m["low_signal"]++
			}
			rates = append(rates, v.EngagementRate)
		}

		n := float64(len(group))
		m["mean_like_ratio"] /= n
		m["mean_coin_ratio"] /= n
		m["mean_favorite_ratio"] /= n
		m["mean_engagement_rate"] /= n
		m["median_engagement_rate"] = percentile(rates, 0.5)
		m["p90_engagement_rate"] = percentile(rates, 0.9)
	}

	return table, nil
}

// percentile returns the p-quantile of values using nearest-rank on a sorted
// copy. An empty slice yields 0.
func percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	rank := int(p * float64(len(sorted)-1))
	if rank < 0 {
		rank = 0
	}
	if rank >= len(sorted) {
		rank = len(sorted) - 1
	}
	return sorted[rank]
}
