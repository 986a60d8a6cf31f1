// Package bilianalyzer provides a library for collecting and analyzing
// Bilibili video metadata.
//
// It drives keyword searches against the Bilibili web API over a fixed
// date range, merges and deduplicates the results, and computes trend,
// sentiment, engagement, creator, and keyword aggregates.
//
// Overview
//
// The library is organized around two stages:
//
//   - Collection: plan (keyword, window) units, fetch pages with rate
//     limiting and retries, merge duplicates across keywords
//   - Analysis: score every video, run a set of aggregators, assemble
//     a report
//
// Quick Start
//
// Collect and analyze in one pass:
//
//	cfg, err := config.Load()
//	if err != nil {
//		log.Fatal(err)
//	}
//	client := bilibili.NewClient(apihttp.New(apihttp.DefaultConfig()))
//	runner := collector.NewRunner(cfg, client)
//	res, err := runner.Run(ctx)
//	if err != nil {
//		log.Fatal(err)
//	}
//	pipeline, err := analysis.NewPipeline(cfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//	report, err := pipeline.Run(res.Videos, res)
//
// Configuration
//
// bilianalyzer loads settings from multiple sources:
//
//   1. Environment variables (highest priority)
//   2. Config file (analyzer.json or ~/.config/bilianalyzer/analyzer.json)
//   3. Default values (lowest priority)
//
// Environment variables:
//
//   - BILIANALYZER_KEYWORDS: Comma-separated search keywords
//   - BILIANALYZER_WINDOW_START: Collection window start (YYYY-MM-DD)
//   - BILIANALYZER_WINDOW_END: Collection window end (YYYY-MM-DD)
//   - BILIANALYZER_MAX_RESULTS_PER_KEYWORD: Per-keyword result cap
//   - BILIANALYZER_REQUEST_INTERVAL: Minimum delay between API requests
//   - BILIANALYZER_MAX_RETRIES: Maximum retry attempts per page
//   - BILIANALYZER_COOKIE: Session cookie for authenticated requests
//   - BILIANALYZER_DATABASE_PATH: SQLite dataset location
//   - BILIANALYZER_POSTGRES_DSN: Optional Postgres export target
//
// Error Handling
//
// All operations return errors that implement standard Go error handling:
//
// Checking for sentinel errors:
//
//	if errors.Is(err, bilianalyzer.ErrVideoNotFound) {
//		fmt.Println("video was deleted or hidden")
//	}
//
// Extracting wrapped error details:
//
//	var rlErr *bilianalyzer.RateLimitError
//	if errors.As(err, &rlErr) {
//		fmt.Printf("rate limited, banned=%v\n", rlErr.IsBanned)
//	}
//
// Advanced Usage
//
// For more control, use the sub-packages directly:
//
//   - bilibili: Search and video detail API client
//   - collector: Query planning, page collection, merging
//   - analysis: Sentiment scoring and aggregation pipeline
//   - config: Configuration management
//   - storage: Persistent dataset storage
//   - export: Report writers (JSON, CSV, Postgres)
//
package bilianalyzer
