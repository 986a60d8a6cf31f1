// Package config manages application configuration.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration for collection and analysis runs.
type Config struct {
	// Keywords is the ordered list of search keywords to collect.
	Keywords []string `json:"keywords"`
	// WindowStart is the inclusive start of the publish-date range.
	WindowStart time.Time `json:"window_start"`
	// WindowEnd is the inclusive end of the publish-date range.
	WindowEnd time.Time `json:"window_end"`

	// MaxResultsPerKeyword caps the number of videos collected per keyword (0 = no cap).
	MaxResultsPerKeyword int `json:"max_results_per_keyword"`
	// PageSize is the number of results per search page.
	PageSize int `json:"page_size"`
	// MaxPages is the deepest page the search API will serve per query.
	MaxPages int `json:"max_pages"`
	// SearchOrder is the search ranking ("pubdate", "totalrank", "click", "stow").
	// Early pagination stop on out-of-window timestamps is only applied for "pubdate".
	SearchOrder string `json:"search_order"`
	// EnhanceDetails enables the per-video detail fetch that refreshes stat counters.
	EnhanceDetails bool `json:"enhance_details"`

	// RequestInterval is the minimum interval between outbound API requests.
	RequestInterval time.Duration `json:"request_interval"`
	// RequestTimeout is the per-request HTTP timeout.
	RequestTimeout time.Duration `json:"request_timeout"`
	// Cookie is an optional Bilibili session cookie sent with every request.
	Cookie string `json:"cookie,omitempty"`

	// MaxRetries is the maximum number of retries for a failed page fetch.
	MaxRetries int `json:"max_retries"`
	// InitialBackoff is the initial backoff duration for retries.
	InitialBackoff time.Duration `json:"initial_backoff"`
	// MaxBackoff is the maximum backoff duration between retries.
	MaxBackoff time.Duration `json:"max_backoff"`
	// BackoffMultiplier is the multiplier for exponential backoff (must be > 1).
	BackoffMultiplier float64 `json:"backoff_multiplier"`

	// PositiveThreshold is the minimum sentiment score for a "positive" label.
	PositiveThreshold float64 `json:"positive_threshold"`
	// NegativeThreshold is the maximum sentiment score for a "negative" label.
	NegativeThreshold float64 `json:"negative_threshold"`

	// EngagementWeights weight each interaction type in the engagement score.
	EngagementWeights EngagementWeights `json:"engagement_weights"`
	// InfluenceCountWeight weights video volume in the creator influence score.
	InfluenceCountWeight float64 `json:"influence_count_weight"`
	// InfluenceEngagementWeight weights average engagement in the creator influence score.
	InfluenceEngagementWeight float64 `json:"influence_engagement_weight"`

	// StopWords are tokens excluded from keyword frequency analysis.
	StopWords []string `json:"stop_words"`
	// TopKeywords is the number of tokens reported by the keyword frequency aggregate.
	TopKeywords int `json:"top_keywords"`

	// DatabasePath is the sqlite file used to cache collected datasets.
	DatabasePath string `json:"database_path"`
	// OutputDir is where reports and exports are written.
	OutputDir string `json:"output_dir"`
	// PostgresDSN enables the optional Postgres exporter when non-empty.
	PostgresDSN string `json:"postgres_dsn,omitempty"`
}

// EngagementWeights holds per-interaction weights for the engagement score.
type EngagementWeights struct {
	Like     float64 `json:"like"`
	Coin     float64 `json:"coin"`
	Favorite float64 `json:"favorite"`
	Share    float64 `json:"share"`
	Reply    float64 `json:"reply"`
}

// DefaultConfig returns configuration with safe defaults.
func DefaultConfig() *Config {
	return &Config{
		WindowStart:          time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC),
		WindowEnd:            time.Date(2025, 12, 31, 23, 59, 59, 0, time.UTC),
		MaxResultsPerKeyword: 1000,
		PageSize:             20,
		MaxPages:             50,
		SearchOrder:          "pubdate",
		RequestInterval:      time.Second,
		RequestTimeout:       10 * time.Second,
		MaxRetries:           3,
		InitialBackoff:       time.Second,
		MaxBackoff:           30 * time.Second,
		BackoffMultiplier:    2.0,
		PositiveThreshold:    0.25,
		NegativeThreshold:    -0.25,
		EngagementWeights: EngagementWeights{
			Like:     3,
			Coin:     5,
			Favorite: 4,
			Share:    6,
			Reply:    2,
		},
		InfluenceCountWeight:      0.4,
		InfluenceEngagementWeight: 0.6,
		StopWords:                 DefaultStopWords(),
		TopKeywords:               50,
		DatabasePath:              "data/analyzer.db",
		OutputDir:                 "output",
	}
}

// DefaultStopWords returns the built-in Chinese stop-word list. It covers
// common particles plus platform vocabulary that would otherwise dominate
// every keyword frequency table.
func DefaultStopWords() []string {
	return []string{
		"的", "了", "是", "在", "我", "有", "和", "就", "不", "人", "都", "一", "个",
		"上", "也", "很", "到", "说", "要", "去", "你", "会", "着", "没有", "看",
		"好", "自己", "这", "哔哩", "bilibili", "B站", "视频", "观看", "点赞",
		"投币", "收藏", "分享", "弹幕", "评论", "关注", "UP主", "up主", "播放",
		"更新", "发布", "上传", "链接", "地址", "网站", "平台", "用户", "内容",
	}
}

// Load loads configuration from environment variables, config file, and applies defaults.
// Priority: env vars > config file > defaults. A .env file in the working
// directory, if present, is loaded before env vars are read.
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile behaves like Load but reads the config file at path when non-empty.
func LoadFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	// .env is optional
	_ = godotenv.Load()

	if err := cfg.loadFromFile(path); err != nil {
		if path != "" || !os.IsNotExist(err) {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	cfg.loadFromEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFromFile loads config from the given path, or from analyzer.json in the
// current directory or ~/.config/bilianalyzer when no path is given.
func (c *Config) loadFromFile(path string) error {
	paths := []string{path}
	if path == "" {
		paths = []string{
			"analyzer.json",
			filepath.Join(os.Getenv("HOME"), ".config", "bilianalyzer", "analyzer.json"),
		}
	}

	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			if path == "" && os.IsNotExist(err) {
				continue
			}
			return err
		}

		if err := json.Unmarshal(data, c); err != nil {
			return fmt.Errorf("parse %s: %w", p, err)
		}
		return nil
	}

	return os.ErrNotExist
}

// loadFromEnv overrides config with environment variables.
func (c *Config) loadFromEnv() {
	if v := os.Getenv("BILIANALYZER_KEYWORDS"); v != "" {
		var kws []string
		for _, kw := range strings.Split(v, ",") {
			if kw = strings.TrimSpace(kw); kw != "" {
				kws = append(kws, kw)
			}
		}
		c.Keywords = kws
	}
	if v := os.Getenv("BILIANALYZER_WINDOW_START"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			c.WindowStart = t
		}
	}
	if v := os.Getenv("BILIANALYZER_WINDOW_END"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			c.WindowEnd = t
		}
	}
	if v := os.Getenv("BILIANALYZER_MAX_RESULTS_PER_KEYWORD"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxResultsPerKeyword = n
		}
	}
	if v := os.Getenv("BILIANALYZER_REQUEST_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.RequestInterval = d
		}
	}
	if v := os.Getenv("BILIANALYZER_MAX_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxRetries = n
		}
	}
	if v := os.Getenv("BILIANALYZER_INITIAL_BACKOFF"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.InitialBackoff = d
		}
	}
	if v := os.Getenv("BILIANALYZER_MAX_BACKOFF"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.MaxBackoff = d
		}
	}
	if v := os.Getenv("BILIANALYZER_COOKIE"); v != "" {
		c.Cookie = v
	}
	if v := os.Getenv("BILIANALYZER_DATABASE_PATH"); v != "" {
		c.DatabasePath = v
	}
	if v := os.Getenv("BILIANALYZER_OUTPUT_DIR"); v != "" {
		c.OutputDir = v
	}
	if v := os.Getenv("BILIANALYZER_POSTGRES_DSN"); v != "" {
		c.PostgresDSN = v
	}
	if v := os.Getenv("BILIANALYZER_ENHANCE_DETAILS"); v != "" {
		c.EnhanceDetails = v == "true" || v == "1"
	}
}

// Validate checks that configuration values are valid and consistent.
// It returns an error if any configuration value is invalid.
func (c *Config) Validate() error {
	if c.WindowEnd.Before(c.WindowStart) {
		return fmt.Errorf("window_end must not be before window_start")
	}
	if c.MaxResultsPerKeyword < 0 {
		return fmt.Errorf("max_results_per_keyword must be non-negative")
	}
	if c.PageSize <= 0 {
		return fmt.Errorf("page_size must be positive")
	}
	if c.MaxPages <= 0 {
		return fmt.Errorf("max_pages must be positive")
	}
	if c.RequestInterval <= 0 {
		return fmt.Errorf("request_interval must be positive")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive")
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max_retries must be non-negative")
	}
	if c.InitialBackoff <= 0 {
		return fmt.Errorf("initial_backoff must be positive")
	}
	if c.MaxBackoff < c.InitialBackoff {
		return fmt.Errorf("max_backoff must be >= initial_backoff")
	}
	if c.BackoffMultiplier <= 1 {
		return fmt.Errorf("backoff_multiplier must be > 1")
	}
	if c.PositiveThreshold < c.NegativeThreshold {
		return fmt.Errorf("positive_threshold must be >= negative_threshold")
	}
	if c.TopKeywords <= 0 {
		return fmt.Errorf("top_keywords must be positive")
	}
	return nil
}
