package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/IshaanNene/InsightBot/internal/api"
	"github.com/IshaanNene/InsightBot/internal/browse"
	"github.com/IshaanNene/InsightBot/internal/config"
	"github.com/IshaanNene/InsightBot/internal/engine"
)

// serveCmd creates the "serve" subcommand.
func serveCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the article explorer and job API",
		Long:  "Start the web explorer. Scrapes submitted from the page or the job API run on a bounded worker pool.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			return runServe(cfg)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	return cmd
}

func runServe(cfg *config.Config) error {
	logger := setupLogger(cfg.Logging)
	ctx, stop := signalContext(logger)
	defer stop()

	s, err := newScraper(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer s.Close()

	eng := engine.New(cfg.Engine, s.processor, s.metrics, logger)
	if err := eng.Start(ctx); err != nil {
		return fmt.Errorf("start engine: %w", err)
	}
	defer eng.Stop()

	server := api.NewServer(cfg, browse.NewService(s.store, logger), eng, s.metrics, logger)

	logger.Info("insightbot serving",
		"addr", cfg.Server.Addr,
		"store", s.store.Name(),
		"fetcher", s.fetcher.Type(),
		"workers", cfg.Engine.Concurrency,
	)
	if err := server.ListenAndServe(ctx); err != nil {
		return fmt.Errorf("serve: %w", err)
	}

	s.metrics.LogSummary()
	return nil
}

// fetchCmd creates the "fetch" subcommand.
func fetchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fetch [url]",
		Short: "Scrape one news site now",
		Long:  "Run the scrape pipeline for a site synchronously, then list every stored article for its domain.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := config.ValidateURL(args[0]); err != nil {
				return fmt.Errorf("invalid URL %q: %w", args[0], err)
			}
			return runFetch(cfg, args[0])
		},
	}
}

func runFetch(cfg *config.Config, siteURL string) error {
	logger := setupLogger(cfg.Logging)
	ctx, stop := signalContext(logger)
	defer stop()

	s, err := newScraper(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer s.Close()

	runCtx := ctx
	if cfg.Engine.JobTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, cfg.Engine.JobTimeout)
		defer cancel()
	}

	report, err := s.processor.ProcessWebsite(runCtx, siteURL)
	if err != nil {
		return fmt.Errorf("process %s: %w", siteURL, err)
	}

	fmt.Printf("\n✅ %s processed in %s\n", report.Domain, report.Duration.Round(time.Millisecond))
	fmt.Printf("   Candidates: %d\n", report.Candidates)
	fmt.Printf("   New:        %d\n", report.New)
	fmt.Printf("   Updated:    %d\n", report.Updated)
	fmt.Printf("   Unchanged:  %d\n", report.Unchanged)
	fmt.Printf("   Skipped:    %d\n", report.Skipped)

	list, err := browse.NewService(s.store, logger).BySource(ctx, report.Domain)
	if err != nil {
		return err
	}
	fmt.Printf("\nStored articles for %s (%d):\n", report.Domain, len(list))
	for _, a := range list {
		fmt.Printf("  [%s|%s] %s\n      %s\n", a.Language, a.Sentiment, a.Title, a.URL)
	}
	return nil
}
