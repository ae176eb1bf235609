package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/IshaanNene/InsightBot/internal/dataset"
	"github.com/IshaanNene/InsightBot/internal/fetcher"
	"github.com/IshaanNene/InsightBot/internal/nlp"
	"github.com/IshaanNene/InsightBot/internal/observability"
	"github.com/IshaanNene/InsightBot/internal/parser"
	"github.com/IshaanNene/InsightBot/internal/storage"
)

const preprocessedName = "articles_preprocessed.json"

// buildDatasetCmd creates the "build-dataset" subcommand.
func buildDatasetCmd() *cobra.Command {
	var (
		feedsFile string
		limit     int
		outDir    string
	)

	cmd := &cobra.Command{
		Use:   "build-dataset",
		Short: "Harvest articles from news feeds into a dated snapshot",
		Long: `Read every configured outlet's RSS feeds and sitemaps, extract each linked
article and write articles_YYYYMMDD.json and .csv to the output directory.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if feedsFile != "" {
				cfg.Dataset.FeedsFile = feedsFile
			}
			if limit > 0 {
				cfg.Dataset.PerFeedLimit = limit
			}
			if outDir != "" {
				cfg.Dataset.OutputDir = outDir
			}

			logger := setupLogger(cfg.Logging)
			ctx, stop := signalContext(logger)
			defer stop()

			feeds, err := dataset.LoadFeeds(cfg.Dataset.FeedsFile)
			if err != nil {
				return err
			}

			f, err := fetcher.New(cfg, logger)
			if err != nil {
				return fmt.Errorf("create fetcher: %w", err)
			}
			defer f.Close()

			metrics := observability.NewMetrics(logger)
			builder := dataset.NewBuilder(f, parser.NewArticleExtractor(logger), nlp.NewLanguageDetector(), cfg.Dataset, metrics, logger)

			articles, report, buildErr := builder.Build(ctx, feeds)
			if buildErr != nil && len(articles) == 0 {
				return buildErr
			}

			writer, err := storage.NewSnapshotWriter(cfg.Dataset.OutputDir, logger)
			if err != nil {
				return err
			}
			paths, err := writer.WriteDated("articles", articles, time.Now())
			if err != nil {
				return err
			}

			fmt.Printf("\n✅ Dataset built in %s\n", report.Duration.Round(time.Millisecond))
			fmt.Printf("   Outlets:  %d\n", report.Feeds)
			fmt.Printf("   Entries:  %d\n", report.Entries)
			fmt.Printf("   Articles: %d\n", report.Articles)
			fmt.Printf("   Failed:   %d\n", report.Failed)
			fmt.Printf("   JSON:     %s\n", paths.JSON)
			fmt.Printf("   CSV:      %s\n", paths.CSV)

			metrics.LogSummary()
			if buildErr != nil {
				return fmt.Errorf("build interrupted, partial snapshot written: %w", buildErr)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&feedsFile, "feeds", "", "YAML list of outlets (default: built-in list)")
	cmd.Flags().IntVar(&limit, "limit", 0, "max entries per feed")
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "output directory")
	return cmd
}

// preprocessCmd creates the "preprocess" subcommand.
func preprocessCmd() *cobra.Command {
	var (
		outDir  string
		workers int
	)

	cmd := &cobra.Command{
		Use:   "preprocess [snapshot.json]",
		Short: "Annotate a snapshot and print dataset statistics",
		Long: `Fill word counts and missing languages, rate every article's sentiment,
print the summary tables and write articles_preprocessed.json.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if outDir != "" {
				cfg.Dataset.PreprocessedDir = outDir
			}

			logger := setupLogger(cfg.Logging)
			ctx, stop := signalContext(logger)
			defer stop()

			articles, err := storage.ReadSnapshot(args[0])
			if err != nil {
				return err
			}
			classifier, err := newClassifier(cfg, logger)
			if err != nil {
				return err
			}

			if workers <= 0 {
				workers = cfg.Engine.Concurrency
			}
			stats, err := dataset.Preprocess(ctx, articles, classifier, nlp.NewLanguageDetector(), workers)
			if err != nil {
				return fmt.Errorf("preprocess: %w", err)
			}
			if err := stats.Render(os.Stdout); err != nil {
				return err
			}

			writer, err := storage.NewSnapshotWriter(cfg.Dataset.PreprocessedDir, logger)
			if err != nil {
				return err
			}
			path, err := writer.WriteNamed(preprocessedName, articles)
			if err != nil {
				return err
			}
			fmt.Printf("\n📁 Preprocessed data: %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outDir, "out", "o", "", "output directory")
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "concurrent sentiment ratings (default: engine.concurrency)")
	return cmd
}

// loadCmd creates the "load" subcommand.
func loadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "load [snapshot.json]",
		Short: "Replace the article store's contents with a snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			logger := setupLogger(cfg.Logging)
			ctx, stop := signalContext(logger)
			defer stop()

			articles, err := storage.ReadSnapshot(args[0])
			if err != nil {
				return err
			}

			store, err := storage.Open(ctx, cfg.Storage, logger)
			if err != nil {
				return fmt.Errorf("open %s store: %w", cfg.Storage.Type, err)
			}
			defer store.Close()

			n, err := dataset.Load(ctx, store, articles)
			if err != nil {
				return err
			}
			fmt.Printf("✅ Loaded %d articles into %s\n", n, store.Name())
			return nil
		},
	}
}
