package analysis

import (
	"math"
	"sort"
	"strconv"
)

// Creator groups records by uploader and ranks creators by an influence score
// combining video volume and average engagement with configurable weights.
// Records without an uploader id are excluded and counted.
type Creator struct {
	countWeight      float64
	engagementWeight float64
}

// NewCreator creates the creator aggregator with the given influence weights.
func NewCreator(countWeight, engagementWeight float64) *Creator {
	return &Creator{countWeight: countWeight, engagementWeight: engagementWeight}
}

// Name identifies the aggregate in the report.
func (c *Creator) Name() string {
	return "creators"
}

type creatorStats struct {
	mid        int64
	name       string
	videos     float64
	totalViews float64
	totalRate  float64
}

// Aggregate reduces the dataset per uploader. Table order is the influence
// ranking, descending; ties break by total views, then by uploader id, so the
// ranking is deterministic.
func (c *Creator) Aggregate(videos []ScoredVideo) (*Table, error) {
	table := newTable(c.Name())

	byMID := make(map[int64]*creatorStats)
	var order []int64
	for _, v := range videos {
		if v.MID == 0 {
			table.Excluded++
			continue
		}
		cs, ok := byMID[v.MID]
		if !ok {
			cs = &creatorStats{mid: v.MID, name: v.Author}
			byMID[v.MID] = cs
			order = append(order, v.MID)
		}
		cs.videos++
		cs.totalViews += float64(v.Stats.View)
		cs.totalRate += v.EngagementRate
		if cs.name == "" {
			cs.name = v.Author
		}
	}

	stats := make([]*creatorStats, 0, len(order))
	for _, mid := range order {
		stats = append(stats, byMID[mid])
	}

	influence := func(cs *creatorStats) float64 {
		avgRate := cs.totalRate / cs.videos
		// log damping keeps prolific uploaders from drowning out engagement
		return c.countWeight*math.Log1p(cs.videos) + c.engagementWeight*avgRate
	}

	sort.Slice(stats, func(i, j int) bool {
		si, sj := influence(stats[i]), influence(stats[j])
		if si != sj {
			return si > sj
		}
		if stats[i].totalViews != stats[j].totalViews {
			return stats[i].totalViews > stats[j].totalViews
		}
		return stats[i].mid < stats[j].mid
	})

	for rank, cs := range stats {
		m := table.bucket(strconv.FormatInt(cs.mid, 10))
		m["rank"] = float64(rank + 1)
		m["videos"] = cs.videos
		m["total_views"] = cs.totalViews
		m["avg_engagement_rate"] = cs.totalRate / cs.videos
		m["influence"] = influence(cs)
	}

	return table, nil
}
