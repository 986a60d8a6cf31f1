// Package bilibili implements a client for the Bilibili web search and
// video-view APIs. The client issues single requests and classifies outcomes;
// pagination and retry policy live in the collector package.
package bilibili

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	apihttp "github.com/X-Olivia/bilibili-content-analyzer/http"
)

// Default API endpoints.
const (
	DefaultBaseURL   = "https://api.bilibili.com"
	searchTypePath   = "/x/web-interface/search/type"
	videoViewPath    = "/x/web-interface/view"
	searchTypeVideo  = "video"
	apiCodeBanned    = -412
	apiCodeRateLimit = -799
)

// Sentinel errors for API operations.
var (
	// ErrBadPayload indicates a response body that could not be decoded.
	// Truncated or garbled payloads are usually transient.
	ErrBadPayload = errors.New("bilibili: malformed response payload")

	// ErrVideoNotFound indicates the requested video does not exist.
	ErrVideoNotFound = errors.New("bilibili: video not found")
)

// APIError is a Bilibili business-level error (envelope code != 0).
// These are permanent for the request that produced them.
type APIError struct {
	Code    int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("bilibili: api error %d: %s", e.Code, e.Message)
}

// Client issues single paginated queries against the Bilibili API.
// It performs no retries; each call maps to exactly one HTTP request.
type Client struct {
	http    *apihttp.Client
	baseURL string
	order   string
	now     func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API base URL (used by tests).
func WithBaseURL(baseURL string) Option {
	return func(c *Client) { c.baseURL = baseURL }
}

// WithOrder sets the search ranking order ("pubdate", "totalrank", ...).
func WithOrder(order string) Option {
	return func(c *Client) {
		if order != "" {
			c.order = order
		}
	}
}

// WithClock overrides the clock used to stamp CollectedAt (used by tests).
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// NewClient creates a Bilibili API client on top of the given HTTP client.
func NewClient(hc *apihttp.Client, opts ...Option) *Client {
	c := &Client{
		http:    hc,
		baseURL: DefaultBaseURL,
		order:   "pubdate",
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Order returns the configured search ranking order.
func (c *Client) Order() string {
	return c.order
}

// SearchPage fetches one page of video search results for a keyword within a
// publish-date window. The initial cursor is page 1. Error classes:
// *apihttp.RateLimitError for throttle/ban responses, *APIError for permanent
// business errors, ErrBadPayload for undecodable bodies, and wrapped network
// errors for transport failures.
func (c *Client) SearchPage(ctx context.Context, keyword string, window Window, page int) (*PageResult, error) {
	if keyword == "" {
		return nil, fmt.Errorf("bilibili: empty keyword")
	}
	if page < 1 {
		page = 1
	}

	params := url.Values{}
	params.Set("keyword", keyword)
	params.Set("page", strconv.Itoa(page))
	params.Set("order", c.order)
	params.Set("search_type", searchTypeVideo)
	if !window.Start.IsZero() {
		params.Set("pubtime_begin_s", strconv.FormatInt(window.Start.Unix(), 10))
	}
	if !window.End.IsZero() {
		params.Set("pubtime_end_s", strconv.FormatInt(window.End.Unix(), 10))
	}

	resp, err := c.http.Get(ctx, c.baseURL+searchTypePath+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	var decoded searchResponse
	if err := json.Unmarshal(resp.Body, &decoded); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadPayload, err)
	}

	if decoded.Code != 0 {
		if decoded.Code == apiCodeBanned || decoded.Code == apiCodeRateLimit {
			return nil, &apihttp.RateLimitError{StatusCode: 412, IsBanned: true}
		}
		return nil, &APIError{Code: decoded.Code, Message: decoded.Message}
	}

	collectedAt := c.now()
	videos := make([]Video, 0, len(decoded.Data.Result))
	for _, item := range decoded.Data.Result {
		// The mixed search endpoint interleaves non-video entries; skip them.
		if item.Type != "" && item.Type != searchTypeVideo {
			continue
		}
		if item.BVID == "" {
			continue
		}
		videos = append(videos, Video{
			BVID:            item.BVID,
			AID:             item.AID,
			Title:           cleanTitle(item.Title),
			Author:          item.Author,
			MID:             item.MID,
			Description:     item.Description,
			Tag:             item.Tag,
			TypeName:        item.TypeName,
			Pubdate:         time.Unix(item.Pubdate, 0).UTC(),
			DurationSeconds: parseDuration(item.Duration),
			Stats: Stats{
				View:     item.Play,
				Danmaku:  item.VideoReview,
				Reply:    item.Review,
				Favorite: item.Favorites,
				Like:     item.Like,
			},
			SourceKeyword: keyword,
			CollectedAt:   collectedAt,
		})
	}

	numPages := decoded.Data.NumPages
	hasMore := len(decoded.Data.Result) > 0 && (numPages == 0 || page < numPages)

	return &PageResult{
		Videos:     videos,
		Page:       page,
		NextPage:   page + 1,
		NumPages:   numPages,
		NumResults: decoded.Data.NumResults,
		HasMore:    hasMore,
	}, nil
}

// VideoDetail fetches the view endpoint for one video and returns the video's
// refreshed counters and description. Search results under-report coin and
// share counts; this fills them in.
func (c *Client) VideoDetail(ctx context.Context, bvid string) (*Video, error) {
	if bvid == "" {
		return nil, fmt.Errorf("bilibili: empty bvid")
	}

	params := url.Values{}
	params.Set("bvid", bvid)

	resp, err := c.http.Get(ctx, c.baseURL+videoViewPath+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	var decoded viewResponse
	if err := json.Unmarshal(resp.Body, &decoded); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadPayload, err)
	}

	if decoded.Code != 0 {
		if decoded.Code == -404 {
			return nil, fmt.Errorf("%w: %s", ErrVideoNotFound, bvid)
		}
		if decoded.Code == apiCodeBanned || decoded.Code == apiCodeRateLimit {
			return nil, &apihttp.RateLimitError{StatusCode: 412, IsBanned: true}
		}
		return nil, &APIError{Code: decoded.Code, Message: decoded.Message}
	}

	d := decoded.Data
	return &Video{
		BVID:            d.BVID,
		Author:          d.Owner.Name,
		MID:             d.Owner.MID,
		Description:     d.Desc,
		TypeName:        d.TName,
		DurationSeconds: d.Duration,
		Stats: Stats{
			View:     d.Stat.View,
			Danmaku:  d.Stat.Danmaku,
			Reply:    d.Stat.Reply,
			Favorite: d.Stat.Favorite,
			Coin:     d.Stat.Coin,
			Like:     d.Stat.Like,
			Share:    d.Stat.Share,
		},
		CollectedAt: c.now(),
	}, nil
}
