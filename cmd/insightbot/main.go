package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/IshaanNene/InsightBot/internal/config"
)

var (
	cfgFile   string
	verbose   bool
	storeType string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "insightbot",
		Short: "Multilingual news scraper and explorer",
		Long: `InsightBot scrapes news sites, annotates every article with its language
and sentiment, stores it, and serves a browsable explorer.

It also builds offline datasets from RSS feeds and sitemaps, summarizes
them, and bulk-loads them into the article store.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&storeType, "store", "", "article store: mongodb, sqlite, memory (overrides config)")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(fetchCmd())
	rootCmd.AddCommand(buildDatasetCmd())
	rootCmd.AddCommand(preprocessCmd())
	rootCmd.AddCommand(loadCmd())
	rootCmd.AddCommand(versionCmd())
	rootCmd.AddCommand(configCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads the config file and environment, applies global flags
// and validates the result.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	applyCLIOverrides(cfg)

	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// applyCLIOverrides applies command-line flag values to the config.
func applyCLIOverrides(cfg *config.Config) {
	if storeType != "" {
		cfg.Storage.Type = strings.ToLower(storeType)
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}
}

// setupLogger creates the root structured logger.
func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}

// versionCmd creates the "version" subcommand.
func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("InsightBot %s\n", config.Version)
		},
	}
}

// configCmd creates the "config" subcommand for inspecting configuration.
func configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			fmt.Printf("Server:\n")
			fmt.Printf("  Address:            %s\n", cfg.Server.Addr)
			fmt.Printf("\nEngine:\n")
			fmt.Printf("  Concurrency:        %d\n", cfg.Engine.Concurrency)
			fmt.Printf("  Queue Size:         %d\n", cfg.Engine.QueueSize)
			fmt.Printf("  Request Timeout:    %s\n", cfg.Engine.RequestTimeout)
			fmt.Printf("  Job Timeout:        %s\n", cfg.Engine.JobTimeout)
			fmt.Printf("  Max Articles:       %d\n", cfg.Engine.MaxArticles)
			fmt.Printf("  Politeness Delay:   %s\n", cfg.Engine.PolitenessDelay)
			fmt.Printf("  Respect robots.txt: %v\n", cfg.Engine.RespectRobotsTxt)
			fmt.Printf("  User Agents:        %d configured\n", len(cfg.Engine.UserAgents))
			fmt.Printf("\nFetcher:\n")
			fmt.Printf("  Type:               %s\n", cfg.Fetcher.Type)
			fmt.Printf("  Follow Redirects:   %v\n", cfg.Fetcher.FollowRedirects)
			fmt.Printf("  Max Body Size:      %d bytes\n", cfg.Fetcher.MaxBodySize)
			fmt.Printf("\nProxy:\n")
			fmt.Printf("  Enabled:            %v\n", cfg.Proxy.Enabled)
			fmt.Printf("  Rotation:           %s\n", cfg.Proxy.Rotation)
			fmt.Printf("  Count:              %d\n", len(cfg.Proxy.URLs))
			fmt.Printf("\nStorage:\n")
			fmt.Printf("  Type:               %s\n", cfg.Storage.Type)
			switch cfg.Storage.Type {
			case "mongodb":
				fmt.Printf("  Collection:         %s.%s\n", cfg.Storage.Database, cfg.Storage.Collection)
			case "sqlite":
				fmt.Printf("  Path:               %s\n", cfg.Storage.SQLitePath)
			}
			fmt.Printf("\nSentiment:\n")
			fmt.Printf("  Provider:           %s\n", cfg.Sentiment.Provider)
			fmt.Printf("  Model:              %s\n", cfg.Sentiment.Model)
			fmt.Printf("  API Key:            %v\n", cfg.Sentiment.APIKey != "")
			fmt.Printf("\nDataset:\n")
			fmt.Printf("  Feeds File:         %s\n", valueOr(cfg.Dataset.FeedsFile, "(built-in list)"))
			fmt.Printf("  Per Feed Limit:     %d\n", cfg.Dataset.PerFeedLimit)
			fmt.Printf("  Output Dir:         %s\n", cfg.Dataset.OutputDir)
			fmt.Printf("\nMetrics:\n")
			fmt.Printf("  Enabled:            %v\n", cfg.Metrics.Enabled)
			fmt.Printf("  Path:               %s\n", cfg.Metrics.Path)
			return nil
		},
	}
}

func valueOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
