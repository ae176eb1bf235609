package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/IshaanNene/InsightBot/internal/config"
	"github.com/IshaanNene/InsightBot/internal/fetcher"
	"github.com/IshaanNene/InsightBot/internal/observability"
	"github.com/IshaanNene/InsightBot/internal/parser"
	"github.com/IshaanNene/InsightBot/internal/types"
)

// Source enumerates article URLs for a site and extracts single articles.
type Source interface {
	// Enumerate returns candidate article URLs for the site. An error
	// aborts the whole run.
	Enumerate(ctx context.Context, siteURL string) ([]string, error)

	// Article fetches and extracts one article. The body is raw text.
	Article(ctx context.Context, articleURL string) (*types.Article, error)
}

// SiteSource is the Source backed by a Fetcher: it crawls the landing page
// for article links and extracts each article page.
type SiteSource struct {
	fetcher     fetcher.Fetcher
	extractor   parser.Extractor
	robots      *fetcher.RobotsChecker
	metrics     *observability.Metrics
	maxArticles int
	delay       time.Duration
	timeout     time.Duration
	logger      *slog.Logger

	mu        sync.Mutex
	lastFetch map[string]time.Time
}

// NewSiteSource creates a SiteSource. robots and metrics may be nil.
func NewSiteSource(
	f fetcher.Fetcher,
	extractor parser.Extractor,
	robots *fetcher.RobotsChecker,
	metrics *observability.Metrics,
	cfg config.EngineConfig,
	logger *slog.Logger,
) *SiteSource {
	return &SiteSource{
		fetcher:     f,
		extractor:   extractor,
		robots:      robots,
		metrics:     metrics,
		maxArticles: cfg.MaxArticles,
		delay:       cfg.PolitenessDelay,
		timeout:     cfg.RequestTimeout,
		logger:      logger.With("component", "site_source"),
		lastFetch:   make(map[string]time.Time),
	}
}

// Enumerate fetches the landing page and returns the article links on it,
// minus any disallowed by robots.txt, capped at engine.max_articles.
func (s *SiteSource) Enumerate(ctx context.Context, siteURL string) ([]string, error) {
	resp, err := s.fetch(ctx, siteURL)
	if err != nil {
		return nil, fmt.Errorf("fetch landing page: %w", err)
	}

	links, err := parser.DiscoverLinks(resp, 0)
	if err != nil {
		return nil, fmt.Errorf("discover links: %w", err)
	}

	var candidates []string
	for _, link := range links {
		if s.robots != nil && !s.robots.Allowed(ctx, link) {
			s.logger.Debug("disallowed by robots.txt", "url", link)
			continue
		}
		candidates = append(candidates, link)
		if s.maxArticles > 0 && len(candidates) >= s.maxArticles {
			break
		}
	}

	s.logger.Info("candidates discovered",
		"site", siteURL,
		"links", len(links),
		"candidates", len(candidates),
	)
	return candidates, nil
}

// Article fetches articleURL and extracts it.
func (s *SiteSource) Article(ctx context.Context, articleURL string) (*types.Article, error) {
	resp, err := s.fetch(ctx, articleURL)
	if err != nil {
		return nil, err
	}

	a, err := s.extractor.Extract(resp)
	if err != nil {
		return nil, err
	}
	// Keep the candidate URL as the key even when the page redirected.
	a.URL = articleURL
	a.Source = types.SourceFromURL(articleURL)
	return a, nil
}

func (s *SiteSource) fetch(ctx context.Context, rawURL string) (*types.Response, error) {
	req, err := types.NewRequest(rawURL)
	if err != nil {
		return nil, err
	}
	req.Timeout = s.timeout

	if err := s.wait(ctx, req); err != nil {
		return nil, err
	}

	resp, err := s.fetcher.Fetch(ctx, req)
	if s.metrics != nil {
		s.metrics.RecordFetch(resp, err)
	}
	return resp, err
}

// wait enforces the politeness delay, or the robots.txt crawl delay when it
// is longer, between requests to the same host.
func (s *SiteSource) wait(ctx context.Context, req *types.Request) error {
	host := req.Domain()
	delay := s.delay
	if s.robots != nil {
		if cd := s.robots.CrawlDelay(ctx, req.URLString()); cd > delay {
			delay = cd
		}
	}
	if delay <= 0 {
		return nil
	}

	s.mu.Lock()
	next := s.lastFetch[host].Add(delay)
	now := time.Now()
	if next.Before(now) {
		next = now
	}
	s.lastFetch[host] = next
	s.mu.Unlock()

	d := time.Until(next)
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
