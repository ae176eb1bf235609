// Package browse is the read-only query surface over stored articles.
package browse

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/IshaanNene/InsightBot/internal/pipeline"
	"github.com/IshaanNene/InsightBot/internal/storage"
	"github.com/IshaanNene/InsightBot/internal/types"
)

const (
	// PageSize is the number of articles on the landing page and per "show more".
	PageSize = 10

	// LatestLimit caps the polling list for a domain.
	LatestLimit = 30

	dateLayout = "2006-01-02 15:04"
)

// Summary is the list projection of an article.
type Summary struct {
	Title     string `json:"title"`
	URL       string `json:"url"`
	Language  string `json:"language"`
	Sentiment string `json:"sentiment"`
	Source    string `json:"source"`
}

// Detail is the full view of one article.
type Detail struct {
	Title     string   `json:"title"`
	Body      string   `json:"body"`
	Source    string   `json:"source"`
	Language  string   `json:"language"`
	Sentiment string   `json:"sentiment"`
	Date      string   `json:"date"`
	URL       string   `json:"url"`
	Author    string   `json:"author,omitempty"`
	Category  string   `json:"category,omitempty"`
	Tags      []string `json:"tags,omitempty"`
	Summary   string   `json:"summary,omitempty"`
}

// Page is one "show more" batch.
type Page struct {
	Articles []Summary `json:"articles"`
	Count    int       `json:"count"`
	HasMore  bool      `json:"has_more"`
}

// Service answers browse queries.
type Service struct {
	store  storage.ArticleStore
	logger *slog.Logger
}

// NewService creates a Service over store.
func NewService(store storage.ArticleStore, logger *slog.Logger) *Service {
	return &Service{
		store:  store,
		logger: logger.With("component", "browse"),
	}
}

// Sources returns the sorted distinct sources.
func (s *Service) Sources(ctx context.Context) ([]string, error) {
	sources, err := s.store.Distinct(ctx, "source")
	if err != nil {
		return nil, fmt.Errorf("list sources: %w", err)
	}
	if sources == nil {
		sources = []string{}
	}
	return sources, nil
}

// BySource returns every article of source in insertion order.
func (s *Service) BySource(ctx context.Context, source string) ([]Summary, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return []Summary{}, nil
	}
	articles, err := s.store.FindBySource(ctx, source, 0)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", source, err)
	}
	return summarize(articles), nil
}

// Landing returns a random sample for the front page.
func (s *Service) Landing(ctx context.Context) ([]Summary, error) {
	articles, err := s.store.Sample(ctx, PageSize)
	if err != nil {
		return nil, fmt.Errorf("sample articles: %w", err)
	}
	return summarize(articles), nil
}

// More returns another random batch. HasMore is computed from offset and the
// collection size, so a client paging past the end stops asking. Negative
// offsets count as zero.
func (s *Service) More(ctx context.Context, offset int) (Page, error) {
	if offset < 0 {
		offset = 0
	}
	total, err := s.store.Count(ctx)
	if err != nil {
		return Page{Articles: []Summary{}}, fmt.Errorf("count articles: %w", err)
	}
	articles, err := s.store.Sample(ctx, PageSize)
	if err != nil {
		return Page{Articles: []Summary{}}, fmt.Errorf("sample articles: %w", err)
	}

	list := summarize(articles)
	return Page{
		Articles: list,
		Count:    len(list),
		HasMore:  int64(offset+PageSize) < total,
	}, nil
}

// Latest returns the most recently stored articles of domain, newest first.
func (s *Service) Latest(ctx context.Context, domain string) ([]Summary, error) {
	domain = strings.TrimSpace(domain)
	if domain == "" {
		return []Summary{}, nil
	}
	articles, err := s.store.Latest(ctx, domain, LatestLimit)
	if err != nil {
		return nil, fmt.Errorf("latest %s: %w", domain, err)
	}
	return summarize(articles), nil
}

// Details returns the article stored under url, or types.ErrNotFound.
func (s *Service) Details(ctx context.Context, url string) (Detail, error) {
	if strings.TrimSpace(url) == "" {
		return Detail{}, types.ErrNotFound
	}
	a, err := s.store.Get(ctx, url)
	if err != nil {
		return Detail{}, err
	}
	return Detail{
		Title:     a.Title,
		Body:      a.Body,
		Source:    a.Source,
		Language:  a.Language,
		Sentiment: string(a.Sentiment),
		Date:      FormatDate(a.Date),
		URL:       a.URL,
		Author:    a.Author,
		Category:  a.Category,
		Tags:      a.Tags,
		Summary:   a.Summary,
	}, nil
}

// FormatDate renders a stored date for display. Epoch milliseconds and
// datetimes become "YYYY-MM-DD HH:MM" in UTC, strings are returned as stored,
// anything else is "".
func FormatDate(v any) string {
	switch d := v.(type) {
	case nil:
		return ""
	case string:
		return d
	}
	if t, ok := pipeline.ParseDate(v); ok {
		return t.Format(dateLayout)
	}
	return ""
}

func summarize(articles []*types.Article) []Summary {
	out := make([]Summary, 0, len(articles))
	for _, a := range articles {
		out = append(out, Summary{
			Title:     a.Title,
			URL:       a.URL,
			Language:  a.Language,
			Sentiment: string(a.Sentiment),
			Source:    a.Source,
		})
	}
	return out
}
