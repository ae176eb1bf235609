package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/IshaanNene/InsightBot/internal/nlp"
	"github.com/IshaanNene/InsightBot/internal/observability"
	"github.com/IshaanNene/InsightBot/internal/storage"
	"github.com/IshaanNene/InsightBot/internal/types"
)

// Report summarizes one ProcessWebsite run.
type Report struct {
	Site       string        `json:"site"`
	Domain     string        `json:"domain"`
	Candidates int           `json:"candidates"`
	New        int           `json:"new"`
	Updated    int           `json:"updated"`
	Unchanged  int           `json:"unchanged"`
	Skipped    int           `json:"skipped"`
	Duration   time.Duration `json:"duration"`
}

// Processor scrapes a news site and persists its new articles.
type Processor struct {
	source     Source
	store      storage.ArticleStore
	detector   nlp.Detector
	classifier nlp.SentimentClassifier
	annotate   *Chain
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewProcessor creates a Processor. metrics may be nil.
func NewProcessor(
	source Source,
	store storage.ArticleStore,
	detector nlp.Detector,
	classifier nlp.SentimentClassifier,
	metrics *observability.Metrics,
	logger *slog.Logger,
) *Processor {
	logger = logger.With("component", "processor")
	return &Processor{
		source:     source,
		store:      store,
		detector:   detector,
		classifier: classifier,
		annotate: NewChain(logger,
			NewLanguageStage(detector),
			NewSentimentStage(classifier),
		),
		metrics: metrics,
		logger:  logger,
	}
}

// ProcessWebsite enumerates the site's articles and handles each one:
// unknown URLs are cleaned, annotated and inserted in a single batch at the
// end; stored URLs only get a sentiment when theirs is missing. Per-article
// failures are counted as skipped. Enumeration and the final insert are the
// only failures that fail the run.
func (p *Processor) ProcessWebsite(ctx context.Context, siteURL string) (Report, error) {
	start := time.Now()
	report := Report{Site: siteURL, Domain: types.SourceFromURL(siteURL)}
	if report.Domain == "" {
		return report, fmt.Errorf("%w: %q", types.ErrInvalidURL, siteURL)
	}

	p.logger.Info("processing website", "site", siteURL, "domain", report.Domain)

	candidates, err := p.source.Enumerate(ctx, siteURL)
	if err != nil {
		return report, fmt.Errorf("enumerate %s: %w", siteURL, err)
	}
	report.Candidates = len(candidates)

	var staged []*types.Article
	stagedURLs := make(map[string]bool)

	for _, candidate := range candidates {
		if err := ctx.Err(); err != nil {
			report.Duration = time.Since(start)
			return report, err
		}

		a, err := p.source.Article(ctx, candidate)
		if err != nil {
			p.skip(&report, candidate, "extract", err)
			continue
		}
		if a, err = (CleanStage{}).Process(ctx, a); err != nil {
			p.skip(&report, candidate, "clean", err)
			continue
		}
		// Subdomain links belong to the site that was asked for.
		a.Source = report.Domain

		existing, err := p.store.Get(ctx, a.URL)
		switch {
		case err == nil:
			if err := p.backfill(ctx, existing, a.Body); err != nil {
				p.skip(&report, candidate, "backfill", err)
				continue
			}
			if existing.NeedsSentiment() {
				report.Updated++
			} else {
				report.Unchanged++
			}
			continue
		case !errors.Is(err, types.ErrNotFound):
			p.skip(&report, candidate, "lookup", err)
			continue
		}

		if stagedURLs[a.URL] {
			p.logger.Debug("already staged in this run", "url", a.URL)
			report.Unchanged++
			continue
		}

		a, err = p.annotate.Process(ctx, a)
		if err != nil || a == nil {
			p.skip(&report, candidate, "annotate", err)
			continue
		}
		stagedURLs[a.URL] = true
		staged = append(staged, a)
	}

	if len(staged) > 0 {
		inserted, err := p.store.InsertMany(ctx, staged)
		report.New = inserted
		if err != nil {
			report.Duration = time.Since(start)
			return report, fmt.Errorf("insert articles: %w", err)
		}
	}

	report.Duration = time.Since(start)
	if p.metrics != nil {
		p.metrics.RecordArticles(report.New, report.Updated, report.Unchanged, report.Skipped)
	}

	p.logger.Info("website processed",
		"site", report.Site,
		"domain", report.Domain,
		"candidates", report.Candidates,
		"new", report.New,
		"updated", report.Updated,
		"unchanged", report.Unchanged,
		"skipped", report.Skipped,
		"duration", report.Duration,
	)
	return report, nil
}

// backfill sets the sentiment of a stored article that lacks one, using its
// stored language when present. Nothing else on the record changes. The
// caller's copy is left untouched so it can still report what it found.
func (p *Processor) backfill(ctx context.Context, existing *types.Article, body string) error {
	if !existing.NeedsSentiment() {
		return nil
	}

	lang := existing.Language
	if lang == "" {
		lang = p.detector.Detect(body).String()
	}
	label := p.classifier.Classify(ctx, body, lang).Label

	if err := p.store.UpdateFields(ctx, existing.URL, map[string]any{"sentiment": string(label)}); err != nil {
		return err
	}
	p.logger.Debug("sentiment backfilled", "url", existing.URL, "sentiment", label)
	return nil
}

func (p *Processor) skip(r *Report, url, step string, err error) {
	r.Skipped++
	p.logger.Warn("skipped article", "url", url, "step", step, "error", err)
}
