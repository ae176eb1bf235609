package dataset

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"unicode"

	"github.com/mattn/go-runewidth"
	"golang.org/x/sync/errgroup"

	"github.com/IshaanNene/InsightBot/internal/nlp"
	"github.com/IshaanNene/InsightBot/internal/pipeline"
	"github.com/IshaanNene/InsightBot/internal/types"
)

// TopWords is how many English words Stats reports.
const TopWords = 20

// lengthBuckets are the upper bounds (exclusive) of the word-count histogram.
var lengthBuckets = []int{100, 250, 500, 1000, 2000}

// StarClassifier rates text on the multilingual star scale.
// *nlp.Classifier satisfies it.
type StarClassifier interface {
	Stars(ctx context.Context, text string) nlp.SentimentResult
}

// Count is one row of a frequency table.
type Count struct {
	Key string `json:"key"`
	N   int    `json:"n"`
}

// Stats summarizes a dataset.
type Stats struct {
	Total           int     `json:"total"`
	BySource        []Count `json:"by_source"`
	ByLanguage      []Count `json:"by_language"`
	BySentiment     []Count `json:"by_sentiment"`
	LengthHistogram []Count `json:"length_histogram"`
	TopWordsEN      []Count `json:"top_words_en"`
	// ByDay is ordered by date. Articles whose date cannot be parsed are
	// counted in Undated only.
	ByDay   []Count `json:"by_day"`
	Undated int     `json:"undated"`
}

// Preprocess fills word count and missing language on every article, rates
// every body with the star classifier, and returns the dataset statistics.
// Articles are modified in place. Ratings run on up to workers goroutines.
func Preprocess(ctx context.Context, articles []*types.Article, classifier StarClassifier, detector nlp.Detector, workers int) (Stats, error) {
	if workers <= 0 {
		workers = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, a := range articles {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			a.WordCount = nlp.WordCount(a.Body)
			if a.Language == "" {
				a.Language = detector.Detect(a.Body).String()
			}
			a.Sentiment = classifier.Stars(gctx, a.Body).Label
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Stats{}, fmt.Errorf("preprocess: %w", err)
	}

	return ComputeStats(articles), nil
}

// ComputeStats builds the frequency tables for articles.
func ComputeStats(articles []*types.Article) Stats {
	sources := map[string]int{}
	languages := map[string]int{}
	sentiments := map[string]int{}
	words := map[string]int{}
	days := map[string]int{}
	lengths := make([]int, len(lengthBuckets)+1)

	s := Stats{Total: len(articles)}
	for _, a := range articles {
		sources[a.Source]++
		languages[a.Language]++
		sentiments[string(a.Sentiment)]++

		n := a.WordCount
		if n == 0 {
			n = nlp.WordCount(a.Body)
		}
		lengths[bucketOf(n)]++

		if a.Language == "en" {
			for _, w := range strings.Fields(a.Body) {
				if w = normalizeWord(w); w != "" {
					words[w]++
				}
			}
		}

		if t, ok := pipeline.ParseDate(a.Date); ok {
			days[t.Format("2006-01-02")]++
		} else {
			s.Undated++
		}
	}

	s.BySource = ranked(sources, 0)
	s.ByLanguage = ranked(languages, 0)
	s.BySentiment = ranked(sentiments, 0)
	s.TopWordsEN = ranked(words, TopWords)

	for i, n := range lengths {
		s.LengthHistogram = append(s.LengthHistogram, Count{Key: bucketLabel(i), N: n})
	}

	for day, n := range days {
		s.ByDay = append(s.ByDay, Count{Key: day, N: n})
	}
	sort.Slice(s.ByDay, func(i, j int) bool { return s.ByDay[i].Key < s.ByDay[j].Key })

	return s
}

// Render writes the statistics as aligned text tables.
func (s Stats) Render(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "Articles: %d\n", s.Total); err != nil {
		return err
	}
	sections := []struct {
		title string
		rows  []Count
	}{
		{"Articles per source", s.BySource},
		{"Articles per language", s.ByLanguage},
		{"Sentiment distribution", s.BySentiment},
		{"Article length (words)", s.LengthHistogram},
		{fmt.Sprintf("Top %d words (en)", TopWords), s.TopWordsEN},
		{"Articles per day", s.ByDay},
	}
	for _, sec := range sections {
		if err := renderTable(w, sec.title, sec.rows); err != nil {
			return err
		}
	}
	if s.Undated > 0 {
		if _, err := fmt.Fprintf(w, "\n%d articles without a usable date\n", s.Undated); err != nil {
			return err
		}
	}
	return nil
}

func renderTable(w io.Writer, title string, rows []Count) error {
	if _, err := fmt.Fprintf(w, "\n%s\n%s\n", title, strings.Repeat("-", runewidth.StringWidth(title))); err != nil {
		return err
	}
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, "  (none)")
		return err
	}

	width := 0
	for _, r := range rows {
		if rw := runewidth.StringWidth(displayKey(r.Key)); rw > width {
			width = rw
		}
	}
	for _, r := range rows {
		key := runewidth.FillRight(displayKey(r.Key), width)
		if _, err := fmt.Fprintf(w, "  %s  %6d\n", key, r.N); err != nil {
			return err
		}
	}
	return nil
}

func displayKey(k string) string {
	if k == "" {
		return "(empty)"
	}
	return runewidth.Truncate(k, 40, "…")
}

// ranked orders counts by frequency, then key. limit <= 0 keeps all.
func ranked(m map[string]int, limit int) []Count {
	out := make([]Count, 0, len(m))
	for k, n := range m {
		out = append(out, Count{Key: k, N: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].N != out[j].N {
			return out[i].N > out[j].N
		}
		return out[i].Key < out[j].Key
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func bucketOf(n int) int {
	for i, upper := range lengthBuckets {
		if n < upper {
			return i
		}
	}
	return len(lengthBuckets)
}

func bucketLabel(i int) string {
	switch {
	case i == 0:
		return fmt.Sprintf("<%d", lengthBuckets[0])
	case i == len(lengthBuckets):
		return fmt.Sprintf("%d+", lengthBuckets[i-1])
	default:
		return fmt.Sprintf("%d-%d", lengthBuckets[i-1], lengthBuckets[i]-1)
	}
}

func normalizeWord(w string) string {
	return strings.ToLower(strings.TrimFunc(w, func(r rune) bool {
		return unicode.IsPunct(r) || unicode.IsSymbol(r)
	}))
}
