package bilibili

import (
	"strconv"
	"strings"
	"time"
)

// Video is one fetched video's metadata, normalized from the search API.
// It is immutable once fetched; merging across keywords happens downstream.
type Video struct {
	// BVID is the video's unique identifier (e.g. "BV1xx411c7mD").
	BVID string `json:"bvid"`
	// AID is the numeric video id.
	AID int64 `json:"aid"`
	// Title is the video title with search highlight markup removed.
	Title string `json:"title"`
	// Author is the uploader's display name.
	Author string `json:"author"`
	// MID is the uploader's numeric id.
	MID int64 `json:"mid"`
	// Description is the video description.
	Description string `json:"description"`
	// Tag is the comma-separated tag string from search results.
	Tag string `json:"tag"`
	// TypeName is the Bilibili category name.
	TypeName string `json:"typename"`
	// Pubdate is when the video was published.
	Pubdate time.Time `json:"pubdate"`
	// DurationSeconds is the video length in seconds (0 if unknown).
	DurationSeconds int `json:"duration_seconds"`
	// Stats holds the engagement counters.
	Stats Stats `json:"stats"`
	// SourceKeyword is the search keyword that surfaced this video.
	SourceKeyword string `json:"source_keyword"`
	// CollectedAt is when this record was fetched.
	CollectedAt time.Time `json:"collected_at"`
}

// Stats holds a video's engagement counters.
type Stats struct {
	View     int64 `json:"view"`
	Danmaku  int64 `json:"danmaku"`
	Reply    int64 `json:"reply"`
	Favorite int64 `json:"favorite"`
	Coin     int64 `json:"coin"`
	Like     int64 `json:"like"`
	Share    int64 `json:"share"`
}

// Window is an inclusive publish-date range.
type Window struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// PageResult is one page of search results.
type PageResult struct {
	// Videos are the records on this page, in API order.
	Videos []Video
	// Page is the page number that produced this result.
	Page int
	// NextPage is the cursor for the following page.
	NextPage int
	// NumPages is the total page count the API reports for this query.
	NumPages int
	// NumResults is the total result count the API reports for this query.
	NumResults int
	// HasMore is false once the API has no further pages to serve.
	HasMore bool
}

// searchResponse is the envelope of /x/web-interface/search/type.
type searchResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    struct {
		Page       int               `json:"page"`
		PageSize   int               `json:"pagesize"`
		NumResults int               `json:"numResults"`
		NumPages   int               `json:"numPages"`
		Result     []searchVideoItem `json:"result"`
	} `json:"data"`
}

// searchVideoItem is one raw search result entry.
type searchVideoItem struct {
	Type        string `json:"type"`
	BVID        string `json:"bvid"`
	AID         int64  `json:"aid"`
	Title       string `json:"title"`
	Author      string `json:"author"`
	MID         int64  `json:"mid"`
	Description string `json:"description"`
	Duration    string `json:"duration"`
	Pubdate     int64  `json:"pubdate"`
	Play        int64  `json:"play"`
	VideoReview int64  `json:"video_review"`
	Review      int64  `json:"review"`
	Favorites   int64  `json:"favorites"`
	Like        int64  `json:"like"`
	Tag         string `json:"tag"`
	TypeName    string `json:"typename"`
}

// viewResponse is the envelope of /x/web-interface/view.
type viewResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    struct {
		BVID     string `json:"bvid"`
		Duration int    `json:"duration"`
		Desc     string `json:"desc"`
		TName    string `json:"tname"`
		Owner    struct {
			MID  int64  `json:"mid"`
			Name string `json:"name"`
		} `json:"owner"`
		Stat struct {
			View     int64 `json:"view"`
			Danmaku  int64 `json:"danmaku"`
			Reply    int64 `json:"reply"`
			Favorite int64 `json:"favorite"`
			Coin     int64 `json:"coin"`
			Like     int64 `json:"like"`
			Share    int64 `json:"share"`
		} `json:"stat"`
	} `json:"data"`
}

// cleanTitle strips the search highlight markup Bilibili embeds in titles.
func cleanTitle(title string) string {
	title = strings.ReplaceAll(title, `<em class="keyword">`, "")
	return strings.ReplaceAll(title, "</em>", "")
}

// parseDuration converts the search API's "MM:SS" / "HH:MM:SS" duration
// string to seconds. Unparseable values yield 0.
func parseDuration(s string) int {
	if s == "" {
		return 0
	}
	parts := strings.Split(s, ":")
	if len(parts) > 3 {
		return 0
	}
	total := 0
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || n < 0 {
			return 0
		}
		total = total*60 + n
	}
	return total
}
