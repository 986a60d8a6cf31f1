// Package main provides the bilianalyzer CLI entry point.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/X-Olivia/bilibili-content-analyzer/analysis"
	"github.com/X-Olivia/bilibili-content-analyzer/bilibili"
	"github.com/X-Olivia/bilibili-content-analyzer/collector"
	"github.com/X-Olivia/bilibili-content-analyzer/config"
	"github.com/X-Olivia/bilibili-content-analyzer/export"
	apihttp "github.com/X-Olivia/bilibili-content-analyzer/http"
	"github.com/X-Olivia/bilibili-content-analyzer/storage"
)

var version = "0.1.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

type rootFlags struct {
	configPath string
	outputDir  string
}

// newRootCmd creates the root command for the bilianalyzer CLI.
func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	rootCmd := &cobra.Command{
		Use:     "bilianalyzer",
		Short:   "Collect and analyze Bilibili video metadata by keyword",
		Long:    "Bilianalyzer collects video metadata for configured keywords over a date range,\nmerges the results, and computes trend, sentiment, engagement, creator, and\nkeyword aggregates rendered into reports.",
		Version: version,
	}

	rootCmd.SetVersionTemplate("bilianalyzer version {{.Version}}\n")
	rootCmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "path to config file (default: analyzer.json)")
	rootCmd.PersistentFlags().StringVar(&flags.outputDir, "output-dir", "", "output directory for reports (overrides config)")

	rootCmd.AddCommand(newCollectCmd(flags))
	rootCmd.AddCommand(newAnalyzeCmd(flags))
	rootCmd.AddCommand(newRunCmd(flags))

	return rootCmd
}

// newCollectCmd creates the collect subcommand.
func newCollectCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "collect",
		Short: "Collect video metadata for the configured keywords",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			runID, res, err := collect(ctx, cfg)
			if err != nil {
				return fmt.Errorf("collection failed: %w", err)
			}
			printCollectionSummary(runID, res)
			return nil
		},
	}
}

// newAnalyzeCmd creates the analyze subcommand.
func newAnalyzeCmd(flags *rootFlags) *cobra.Command {
	var runID string

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze a previously collected dataset",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			return analyze(cfg, runID)
		},
	}
	cmd.Flags().StringVar(&runID, "run", "", "run id to analyze (default: latest)")
	return cmd
}

// newRunCmd creates the run subcommand (collect then analyze).
func newRunCmd(flags *rootFlags) *cobra.Command {
	var forceRecollect bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Collect (or reuse the cached dataset) and analyze",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}

			runID, err := cachedRunID(cfg)
			if err != nil {
				return err
			}

			if runID == "" || forceRecollect {
				ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
				defer stop()

				var res *collector.RunResult
				runID, res, err = collect(ctx, cfg)
				if err != nil {
					return fmt.Errorf("collection failed: %w", err)
				}
				printCollectionSummary(runID, res)
			} else {
				fmt.Printf("Reusing cached dataset %s (use --force-recollect to re-collect)\n", runID)
			}

			return analyze(cfg, runID)
		},
	}
	cmd.Flags().BoolVar(&forceRecollect, "force-recollect", false, "re-collect even if a cached dataset exists")
	return cmd
}

func loadConfig(flags *rootFlags) (*config.Config, error) {
	cfg, err := config.LoadFile(flags.configPath)
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	if flags.outputDir != "" {
		cfg.OutputDir = flags.outputDir
	}
	if len(cfg.Keywords) == 0 {
		return nil, fmt.Errorf("no keywords configured (set keywords in %s or BILIANALYZER_KEYWORDS)", "analyzer.json")
	}
	return cfg, nil
}

// cachedRunID returns the latest stored run ID, or "" when no dataset exists.
func cachedRunID(cfg *config.Config) (string, error) {
	store, err := storage.Open(cfg.DatabasePath)
	if err != nil {
		return "", err
	}
	defer store.Close()

	runID, err := store.LatestRunID()
	if errors.Is(err, storage.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return runID, nil
}

// collect runs a full collection and stores the merged dataset.
func collect(ctx context.Context, cfg *config.Config) (string, *collector.RunResult, error) {
	client := newAPIClient(cfg)

	runner := collector.NewRunner(cfg, client)
	res, err := runner.Run(ctx)
	if err != nil {
		return "", nil, err
	}

	store, err := storage.Open(cfg.DatabasePath)
	if err != nil {
		return "", nil, err
	}
	defer store.Close()

	runID, err := store.SaveRun(res)
	if err != nil {
		return "", nil, err
	}
	return runID, res, nil
}

// analyze loads the dataset, runs the pipeline, and writes all reports.
func analyze(cfg *config.Config, runID string) error {
	store, err := storage.Open(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}
	defer store.Close()

	if runID == "" {
		runID, err = store.LatestRunID()
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("analysis failed: no cached dataset; run 'bilianalyzer collect' first")
		}
		if err != nil {
			return fmt.Errorf("analysis failed: %w", err)
		}
	}

	res, err := store.LoadRun(runID)
	if err != nil {
		return fmt.Errorf("analysis failed: load run %s: %w", runID, err)
	}

	pipeline, err := analysis.NewPipeline(cfg)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	report, err := pipeline.Run(res.Videos, res)
	if err != nil {
		if errors.Is(err, analysis.ErrEmptyDataset) {
			return fmt.Errorf("analysis failed: dataset %s is empty (%d failed units)", runID, res.FailedUnits)
		}
		return fmt.Errorf("analysis failed: %w", err)
	}

	if err := writeReports(cfg, report); err != nil {
		return fmt.Errorf("export failed: %w", err)
	}

	printReportSummary(report)
	return nil
}

// newAPIClient builds the shared rate-limited API client.
func newAPIClient(cfg *config.Config) *bilibili.Client {
	httpCfg := apihttp.DefaultConfig()
	httpCfg.Timeout = cfg.RequestTimeout
	httpCfg.RequestInterval = cfg.RequestInterval
	httpCfg.Headers = map[string]string{
		"Referer": "https://www.bilibili.com/",
		"Origin":  "https://www.bilibili.com",
		"Accept":  "application/json, text/plain, */*",
	}
	if cfg.Cookie != "" {
		httpCfg.Headers["Cookie"] = cfg.Cookie
	}

	return bilibili.NewClient(apihttp.New(httpCfg), bilibili.WithOrder(cfg.SearchOrder))
}

// writeReports runs every configured writer against the report.
func writeReports(cfg *config.Config, report *analysis.Report) error {
	writers := []export.Writer{
		export.NewJSONWriter(filepath.Join(cfg.OutputDir, "analysis_report.json")),
		export.NewCSVWriter(filepath.Join(cfg.OutputDir, "analyzed_data.csv")),
	}

	if cfg.PostgresDSN != "" {
		pg, err := export.NewPostgresWriter(cfg.PostgresDSN)
		if err != nil {
			return err
		}
		writers = append(writers, pg)
	}

	for _, w := range writers {
		if err := w.Write(report); err != nil {
			w.Close()
			return err
		}
		if err := w.Close(); err != nil {
			return err
		}
	}
	return nil
}

func printCollectionSummary(runID string, res *collector.RunResult) {
	fmt.Printf("Collection complete: %d unique videos across %d units (run %s)\n",
		len(res.Videos), len(res.Units), runID)
	if res.FailedUnits > 0 {
		fmt.Printf("  %d units failed or were partial (keywords: %s)\n",
			res.FailedUnits, strings.Join(res.FailedKeywords, ", "))
	}
	if res.Canceled {
		fmt.Println("  run was canceled; dataset holds everything collected before the stop")
	}
}

func printReportSummary(report *analysis.Report) {
	s := report.Summary
	fmt.Printf("\nAnalysis report %s\n", report.RunID)
	fmt.Printf("  Videos:           %d\n", s.TotalVideos)
	fmt.Printf("  Total views:      %d\n", s.TotalViews)
	fmt.Printf("  Avg engagement:   %.3f%%\n", s.AvgEngagementRate)
	if !s.CoveredStart.IsZero() {
		fmt.Printf("  Covered range:    %s .. %s\n",
			s.CoveredStart.Format("2006-01-02"), s.CoveredEnd.Format("2006-01-02"))
	}
	fmt.Printf("  Sentiment:        %d positive / %d neutral / %d negative\n",
		s.SentimentCounts.Positive, s.SentimentCounts.Neutral, s.SentimentCounts.Negative)
	if s.FailedUnits > 0 {
		fmt.Printf("  Failed units:     %d (%s)\n", s.FailedUnits, strings.Join(s.FailedKeywords, ", "))
	}
	for _, name := range []string{"trend_yearly", "engagement", "creators", "keywords"} {
		if t, ok := report.Tables[name]; ok && t.Err != "" {
			fmt.Printf("  Degraded table:   %s (%s)\n", name, t.Err)
		}
	}
}
