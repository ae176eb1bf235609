// Package dataset builds, summarizes and bulk-loads article snapshots
// harvested from news feeds.
package dataset

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/IshaanNene/InsightBot/internal/config"
	"github.com/IshaanNene/InsightBot/internal/fetcher"
	"github.com/IshaanNene/InsightBot/internal/nlp"
	"github.com/IshaanNene/InsightBot/internal/observability"
	"github.com/IshaanNene/InsightBot/internal/parser"
	"github.com/IshaanNene/InsightBot/internal/pipeline"
	"github.com/IshaanNene/InsightBot/internal/types"
)

// summarySentences is how many leading sentences make up an article summary.
const summarySentences = 2

// BuildReport counts what one Build run did.
type BuildReport struct {
	Feeds    int           `json:"feeds"`
	Entries  int           `json:"entries"`
	Articles int           `json:"articles"`
	Failed   int           `json:"failed"`
	Duration time.Duration `json:"duration"`
}

// Builder harvests articles from RSS feeds and sitemaps.
type Builder struct {
	fetcher   fetcher.Fetcher
	extractor parser.Extractor
	chain     *pipeline.Chain
	cfg       config.DatasetConfig
	metrics   *observability.Metrics
	logger    *slog.Logger
}

// NewBuilder creates a Builder. metrics may be nil.
func NewBuilder(
	f fetcher.Fetcher,
	extractor parser.Extractor,
	detector nlp.Detector,
	cfg config.DatasetConfig,
	metrics *observability.Metrics,
	logger *slog.Logger,
) *Builder {
	logger = logger.With("component", "dataset_builder")
	return &Builder{
		fetcher:   f,
		extractor: extractor,
		chain: pipeline.NewChain(logger,
			pipeline.NewSummaryStage(summarySentences),
			pipeline.CleanStage{},
			pipeline.WordCountStage{},
			pipeline.NewLanguageStage(detector),
			pipeline.NewDateNormalizeStage(time.RFC3339),
			pipeline.NewDedupStage(),
		),
		cfg:     cfg,
		metrics: metrics,
		logger:  logger,
	}
}

// Build harvests every feed in order. A feed that cannot be read contributes
// nothing; an article that cannot be fetched or extracted is skipped. Only
// cancellation of ctx fails the run, returning what was collected so far.
func (b *Builder) Build(ctx context.Context, feeds []Feed) ([]*types.Article, BuildReport, error) {
	start := time.Now()
	var report BuildReport
	var articles []*types.Article

	for _, feed := range feeds {
		for _, feedURL := range feed.URLs {
			if err := ctx.Err(); err != nil {
				report.Duration = time.Since(start)
				return articles, report, err
			}
			report.Feeds++

			entries := b.entries(ctx, feedURL)
			report.Entries += len(entries)
			b.logger.Info("feed read", "source", feed.Name, "feed", feedURL, "entries", len(entries))

			for _, entry := range entries {
				a, err := b.article(ctx, feed.Name, entry)
				if err != nil {
					if ctx.Err() != nil {
						report.Duration = time.Since(start)
						return articles, report, ctx.Err()
					}
					report.Failed++
					b.logger.Warn("article failed", "source", feed.Name, "url", entry.URL, "error", err)
					continue
				}
				if a == nil {
					continue
				}
				articles = append(articles, a)
				b.logger.Debug("article extracted", "source", feed.Name, "title", nlp.Truncate(a.Title, 70))
			}
		}
	}

	report.Articles = len(articles)
	report.Duration = time.Since(start)
	b.logger.Info("dataset built",
		"feeds", report.Feeds,
		"entries", report.Entries,
		"articles", report.Articles,
		"failed", report.Failed,
		"duration", report.Duration,
	)
	return articles, report, nil
}

// entries lists up to dataset.per_feed_limit article links of a feed. Any
// failure is logged and yields an empty list.
func (b *Builder) entries(ctx context.Context, feedURL string) []parser.FeedEntry {
	resp, err := b.fetch(ctx, feedURL, b.cfg.FeedTimeout)
	if err != nil {
		b.logger.Warn("feed fetch failed", "feed", feedURL, "error", err)
		return nil
	}

	var entries []parser.FeedEntry
	if parser.IsSitemap(feedURL) {
		entries, err = parser.ParseSitemap(resp.Body, b.cfg.PerFeedLimit)
	} else {
		entries, err = parser.ParseFeed(resp.Body, b.cfg.PerFeedLimit)
	}
	if err != nil {
		b.logger.Warn("feed parse failed", "feed", feedURL, "error", err)
		return nil
	}
	return entries
}

// article fetches and extracts one entry. Summary is taken from the raw
// text, before cleaning flattens sentence boundaries. A nil article with a
// nil error means the chain dropped it as a duplicate.
func (b *Builder) article(ctx context.Context, source string, entry parser.FeedEntry) (*types.Article, error) {
	resp, err := b.fetch(ctx, entry.URL, b.cfg.ArticleTimeout)
	if err != nil {
		return nil, err
	}

	a, err := b.extractor.Extract(resp)
	if err != nil {
		return nil, err
	}
	if doc, err := resp.Document(); err == nil {
		parser.Enrich(doc, a)
	}

	a.Source = source
	if a.Title == "" {
		a.Title = entry.Title
	}
	if a.Date == nil && entry.Published != nil {
		a.Date = entry.Published.UTC().Format(time.RFC3339)
	}

	return b.chain.Process(ctx, a)
}

func (b *Builder) fetch(ctx context.Context, rawURL string, timeout time.Duration) (*types.Response, error) {
	req, err := types.NewRequest(rawURL)
	if err != nil {
		return nil, err
	}
	req.Timeout = timeout
	if b.cfg.UserAgent != "" {
		req.Headers.Set("User-Agent", b.cfg.UserAgent)
	}

	resp, err := b.fetcher.Fetch(ctx, req)
	if b.metrics != nil {
		b.metrics.RecordFetch(resp, err)
	}
	if err != nil {
		return nil, err
	}
	if !resp.IsSuccess() {
		return nil, &types.FetchError{URL: rawURL, StatusCode: resp.StatusCode, Err: fmt.Errorf("HTTP %d", resp.StatusCode)}
	}
	return resp, nil
}
