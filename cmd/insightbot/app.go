package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/IshaanNene/InsightBot/internal/ai"
	"github.com/IshaanNene/InsightBot/internal/config"
	"github.com/IshaanNene/InsightBot/internal/fetcher"
	"github.com/IshaanNene/InsightBot/internal/nlp"
	"github.com/IshaanNene/InsightBot/internal/observability"
	"github.com/IshaanNene/InsightBot/internal/parser"
	"github.com/IshaanNene/InsightBot/internal/pipeline"
	"github.com/IshaanNene/InsightBot/internal/storage"
)

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext(logger *slog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigCh:
			logger.Info("received signal, shutting down...", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, func() {
		signal.Stop(sigCh)
		cancel()
	}
}

// newClassifier builds the sentiment classifier: VADER for English and the
// configured star rater for everything else.
func newClassifier(cfg *config.Config, logger *slog.Logger) (*nlp.Classifier, error) {
	rater, err := ai.NewStarRater(ai.ConfigFrom(cfg.Sentiment), logger)
	if err != nil {
		return nil, fmt.Errorf("create star rater: %w", err)
	}
	if rater == nil {
		logger.Warn("no star rater configured, non-English sentiment will be neutral")
		return nlp.NewClassifier(nil, cfg.Sentiment.MaxChars, logger), nil
	}
	return nlp.NewClassifier(rater, cfg.Sentiment.MaxChars, logger), nil
}

// robotsUserAgent is the token matched against robots.txt groups.
func robotsUserAgent(cfg *config.Config) string {
	if cfg.Dataset.UserAgent != "" {
		return cfg.Dataset.UserAgent
	}
	return "InsightBot"
}

// scraper bundles what the site pipeline needs.
type scraper struct {
	store     storage.ArticleStore
	fetcher   fetcher.Fetcher
	processor *pipeline.Processor
	metrics   *observability.Metrics
}

func newScraper(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*scraper, error) {
	metrics := observability.NewMetrics(logger)

	store, err := storage.Open(ctx, cfg.Storage, logger)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Storage.Type, err)
	}

	f, err := fetcher.New(cfg, logger)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("create fetcher: %w", err)
	}

	classifier, err := newClassifier(cfg, logger)
	if err != nil {
		f.Close()
		store.Close()
		return nil, err
	}

	robots := fetcher.NewRobotsChecker(cfg.Engine.RespectRobotsTxt, robotsUserAgent(cfg), logger)
	source := pipeline.NewSiteSource(f, parser.NewArticleExtractor(logger), robots, metrics, cfg.Engine, logger)
	processor := pipeline.NewProcessor(source, store, nlp.NewLanguageDetector(), classifier, metrics, logger)

	return &scraper{
		store:     store,
		fetcher:   f,
		processor: processor,
		metrics:   metrics,
	}, nil
}

func (s *scraper) Close() {
	s.fetcher.Close()
	s.store.Close()
}
