package pipeline

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/IshaanNene/InsightBot/internal/nlp"
	"github.com/IshaanNene/InsightBot/internal/types"
)

// CleanStage normalizes the body with nlp.CleanText and collapses
// whitespace in the title. An empty body fails with types.ErrEmptyBody.
type CleanStage struct{}

func (CleanStage) Name() string { return "clean" }

func (CleanStage) Process(_ context.Context, a *types.Article) (*types.Article, error) {
	a.Body = nlp.CleanText(a.Body)
	if a.Body == "" {
		return nil, types.ErrEmptyBody
	}
	a.Title = strings.Join(strings.Fields(a.Title), " ")
	return a, nil
}

// LanguageStage detects the body language when none is set.
type LanguageStage struct {
	detector nlp.Detector
}

func NewLanguageStage(d nlp.Detector) *LanguageStage {
	return &LanguageStage{detector: d}
}

func (s *LanguageStage) Name() string { return "language" }

func (s *LanguageStage) Process(_ context.Context, a *types.Article) (*types.Article, error) {
	if a.Language == "" {
		a.Language = s.detector.Detect(a.Body).String()
	}
	return a, nil
}

// SentimentStage labels articles whose sentiment is missing or invalid.
type SentimentStage struct {
	classifier nlp.SentimentClassifier
}

func NewSentimentStage(c nlp.SentimentClassifier) *SentimentStage {
	return &SentimentStage{classifier: c}
}

func (s *SentimentStage) Name() string { return "sentiment" }

func (s *SentimentStage) Process(ctx context.Context, a *types.Article) (*types.Article, error) {
	if a.NeedsSentiment() {
		a.Sentiment = s.classifier.Classify(ctx, a.Body, a.Language).Label
	}
	return a, nil
}

// SummaryStage fills an empty summary with the leading sentences of the
// body. It must run before CleanStage, which strips sentence punctuation.
type SummaryStage struct {
	sentences int
}

func NewSummaryStage(sentences int) *SummaryStage {
	if sentences <= 0 {
		sentences = 2
	}
	return &SummaryStage{sentences: sentences}
}

func (s *SummaryStage) Name() string { return "summary" }

func (s *SummaryStage) Process(_ context.Context, a *types.Article) (*types.Article, error) {
	if a.Summary == "" {
		a.Summary = nlp.Summarize(strings.TrimSpace(a.Body), s.sentences)
	}
	return a, nil
}

// WordCountStage records the number of words in the body.
type WordCountStage struct{}

func (WordCountStage) Name() string { return "word_count" }

func (WordCountStage) Process(_ context.Context, a *types.Article) (*types.Article, error) {
	a.WordCount = nlp.WordCount(a.Body)
	return a, nil
}

// dateFormats are the layouts accepted for string dates.
var dateFormats = []string{
	time.RFC3339,
	time.RFC1123,
	time.RFC1123Z,
	time.RFC822,
	time.RFC822Z,
	"2006-01-02",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05.000Z",
	"01/02/2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
	"2 Jan 2006",
	"Mon, 02 Jan 2006",
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"02-Jan-2006",
	"2006/01/02",
	"Mon Jan 2 15:04:05 2006",
}

// ParseDate interprets a stored date: epoch milliseconds as a number or
// digit string, or a string in one of the known layouts. Results are UTC.
func ParseDate(v any) (time.Time, bool) {
	switch d := v.(type) {
	case int:
		return time.UnixMilli(int64(d)).UTC(), true
	case int32:
		return time.UnixMilli(int64(d)).UTC(), true
	case int64:
		return time.UnixMilli(d).UTC(), true
	case float64:
		return time.UnixMilli(int64(d)).UTC(), true
	case json.Number:
		if ms, err := d.Int64(); err == nil {
			return time.UnixMilli(ms).UTC(), true
		}
		if f, err := d.Float64(); err == nil {
			return time.UnixMilli(int64(f)).UTC(), true
		}
	case string:
		s := strings.TrimSpace(d)
		if s == "" {
			return time.Time{}, false
		}
		if ms, err := strconv.ParseInt(s, 10, 64); err == nil && len(s) >= 12 {
			return time.UnixMilli(ms).UTC(), true
		}
		for _, format := range dateFormats {
			if t, err := time.Parse(format, s); err == nil {
				return t.UTC(), true
			}
		}
	case time.Time:
		return d.UTC(), true
	case interface{ Time() time.Time }:
		// BSON datetimes decoded into an interface field.
		return d.Time().UTC(), true
	}
	return time.Time{}, false
}

// DateNormalizeStage rewrites parseable string dates as RFC 3339 in UTC.
// Numeric dates and unparseable strings are left as they are.
type DateNormalizeStage struct {
	outFormat string
}

func NewDateNormalizeStage(outFormat string) *DateNormalizeStage {
	if outFormat == "" {
		outFormat = time.RFC3339
	}
	return &DateNormalizeStage{outFormat: outFormat}
}

func (s *DateNormalizeStage) Name() string { return "date_normalize" }

func (s *DateNormalizeStage) Process(_ context.Context, a *types.Article) (*types.Article, error) {
	str, ok := a.Date.(string)
	if !ok {
		return a, nil
	}
	if t, ok := ParseDate(str); ok {
		a.Date = t.Format(s.outFormat)
	}
	return a, nil
}

// DedupStage drops articles whose URL was already seen by this stage.
type DedupStage struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

func NewDedupStage() *DedupStage {
	return &DedupStage{seen: make(map[string]struct{})}
}

func (s *DedupStage) Name() string { return "dedup" }

func (s *DedupStage) Process(_ context.Context, a *types.Article) (*types.Article, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.seen[a.URL]; ok {
		return nil, nil
	}
	s.seen[a.URL] = struct{}{}
	return a, nil
}
