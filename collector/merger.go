package collector

import (
	"sort"

	"github.com/X-Olivia/bilibili-content-analyzer/bilibili"
)

// MergedVideo is a deduplicated video together with the set of keywords that
// surfaced it. A video matching several keywords appears exactly once.
type MergedVideo struct {
	bilibili.Video
	// Keywords is the sorted union of every keyword that returned this video.
	Keywords []string `json:"keywords"`
}

// Merge folds the results of all units — including partially failed ones —
// into one collection keyed by BVID. Later sightings overwrite field values
// (counters in particular use the latest fetch), while keyword provenance is
// always a union. Output preserves first-seen order, so the merge is
// deterministic for a fixed unit order.
func Merge(results []*UnitResult) []MergedVideo {
	byID := make(map[string]int)
	var merged []MergedVideo

	for _, res := range results {
		if res == nil {
			continue
		}
		for _, v := range res.Videos {
			if v.BVID == "" {
				continue
			}
			idx, seen := byID[v.BVID]
			if !seen {
				byID[v.BVID] = len(merged)
				merged = append(merged, MergedVideo{
					Video:    v,
					Keywords: []string{v.SourceKeyword},
				})
				continue
			}

			keywords := addKeyword(merged[idx].Keywords, v.SourceKeyword)
			merged[idx] = MergedVideo{Video: v, Keywords: keywords}
		}
	}

	for i := range merged {
		sort.Strings(merged[i].Keywords)
	}
	return merged
}

// ApplyDetail folds a view-endpoint record into a merged video, refreshing
// counters and filling fields the search API under-reports. Zero counters in
// the detail record never clobber known values.
func ApplyDetail(m *MergedVideo, detail *bilibili.Video) {
	if detail == nil {
		return
	}
	if detail.Stats.View > 0 {
		m.Stats.View = detail.Stats.View
	}
	if detail.Stats.Danmaku > 0 {
		m.Stats.Danmaku = detail.Stats.Danmaku
	}
	if detail.Stats.Reply > 0 {
		m.Stats.Reply = detail.Stats.Reply
	}
	if detail.Stats.Favorite > 0 {
		m.Stats.Favorite = detail.Stats.Favorite
	}
	m.Stats.Coin = detail.Stats.Coin
	m.Stats.Share = detail.Stats.Share
	if detail.Stats.Like > 0 {
		m.Stats.Like = detail.Stats.Like
	}
	if detail.DurationSeconds > 0 {
		m.DurationSeconds = detail.DurationSeconds
	}
	if detail.Description != "" {
		m.Description = detail.Description
	}
	if detail.Author != "" {
		m.Author = detail.Author
	}
	if detail.MID != 0 {
		m.MID = detail.MID
	}
	if detail.TypeName != "" {
		m.TypeName = detail.TypeName
	}
}

func addKeyword(keywords []string, kw string) []string {
	if kw == "" {
		return keywords
	}
	for _, existing := range keywords {
		if existing == kw {
			return keywords
		}
	}
	return append(keywords, kw)
}
