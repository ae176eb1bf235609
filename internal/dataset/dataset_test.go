package dataset

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/IshaanNene/InsightBot/internal/config"
	"github.com/IshaanNene/InsightBot/internal/nlp"
	"github.com/IshaanNene/InsightBot/internal/parser"
	"github.com/IshaanNene/InsightBot/internal/storage"
	"github.com/IshaanNene/InsightBot/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

type pageFetcher struct {
	pages map[string]string

	mu  sync.Mutex
	uas []string
}

func (f *pageFetcher) Fetch(_ context.Context, req *types.Request) (*types.Response, error) {
	f.mu.Lock()
	f.uas = append(f.uas, req.Headers.Get("User-Agent"))
	f.mu.Unlock()

	body, ok := f.pages[req.URLString()]
	if !ok {
		return nil, &types.FetchError{URL: req.URLString(), StatusCode: 404, Err: errors.New("HTTP 404")}
	}
	return types.NewStaticResponse(req.URLString(), []byte(body)), nil
}

func (f *pageFetcher) Close() error { return nil }
func (f *pageFetcher) Type() string { return "pages" }

type fixedDetector struct{ code string }

func (d fixedDetector) Detect(string) nlp.LanguageResult {
	return nlp.LanguageResult{Code: d.code, Confidence: 1, Reliable: true}
}

type fixedStars struct {
	mu    sync.Mutex
	calls int
	label types.Sentiment
}

func (s *fixedStars) Stars(context.Context, string) nlp.SentimentResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return nlp.SentimentResult{Label: s.label, Method: nlp.MethodStars, Available: true}
}

func storyPage(title, meta string) string {
	return `<html><head><title>` + title + `</title>` + meta + `</head><body><article><h1>` + title + `</h1>` +
		`<p>` + strings.Repeat("Officials confirmed the plan on Monday. Markets reacted calmly to the news. ", 4) + `</p>` +
		`</article></body></html>`
}

const rssFeed = `<?xml version="1.0"?>
<rss version="2.0"><channel><title>Example</title>
<item><title>One</title><link>https://news.example.com/world/one</link><pubDate>Mon, 02 Jan 2006 15:04:05 GMT</pubDate></item>
<item><title>Two</title><link>https://news.example.com/world/two</link></item>
<item><title>Three</title><link>https://news.example.com/news/three</link></item>
</channel></rss>`

const sitemap = `<?xml version="1.0" encoding="UTF-8"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
<url><loc>https://news.example.com/news/three</loc></url>
<url><loc>https://news.example.com/about</loc></url>
</urlset>`

func TestBuild(t *testing.T) {
	f := &pageFetcher{pages: map[string]string{
		"https://news.example.com/rss":         rssFeed,
		"https://news.example.com/sitemap.xml": sitemap,
		"https://news.example.com/world/one":   storyPage("One", `<meta name="author" content="Jane Doe"><meta name="keywords" content="a, b">`),
		"https://news.example.com/news/three":  storyPage("Three", `<meta property="article:published_time" content="2024-05-01T10:00:00+02:00">`),
	}}
	cfg := config.DefaultConfig().Dataset

	b := NewBuilder(f, parser.NewArticleExtractor(testLogger), fixedDetector{code: "en"}, cfg, nil, testLogger)
	feeds := []Feed{
		{Name: "Example News", URLs: []string{"https://news.example.com/rss", "https://news.example.com/sitemap.xml"}},
		{Name: "Broken", URLs: []string{"https://broken.example.org/rss"}},
		{Name: "Empty"},
	}

	articles, report, err := b.Build(context.Background(), feeds)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(articles) != 2 {
		t.Fatalf("expected 2 articles, got %d", len(articles))
	}
	if report.Feeds != 3 || report.Entries != 4 || report.Failed != 1 || report.Articles != 2 {
		t.Errorf("unexpected report %+v", report)
	}

	one, three := articles[0], articles[1]
	if one.URL != "https://news.example.com/world/one" || one.Source != "Example News" {
		t.Errorf("unexpected first article %+v", one)
	}
	if one.Author != "Jane Doe" || len(one.Tags) != 2 {
		t.Errorf("expected enrichment, got author=%q tags=%v", one.Author, one.Tags)
	}
	if one.Date != "2006-01-02T15:04:05Z" {
		t.Errorf("expected feed date fallback, got %v", one.Date)
	}
	if !strings.Contains(one.Summary, "Officials confirmed the plan on Monday.") || !strings.HasSuffix(one.Summary, ".") {
		t.Errorf("expected summary from the raw body, got %q", one.Summary)
	}
	if one.Language != "en" || one.WordCount == 0 {
		t.Errorf("expected language and word count, got %q %d", one.Language, one.WordCount)
	}
	if three.Date != "2024-05-01T08:00:00Z" {
		t.Errorf("expected page date normalized to UTC, got %v", three.Date)
	}

	for _, ua := range f.uas {
		if ua != "InsightBot/1.0" {
			t.Errorf("expected dataset user agent, got %q", ua)
		}
	}
}

func TestBuildCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	b := NewBuilder(&pageFetcher{}, parser.NewArticleExtractor(testLogger), fixedDetector{code: "en"}, config.DefaultConfig().Dataset, nil, testLogger)
	_, _, err := b.Build(ctx, []Feed{{Name: "X", URLs: []string{"https://x.example.org/rss"}}})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestLoadFeeds(t *testing.T) {
	defaults, err := LoadFeeds("")
	if err != nil {
		t.Fatalf("defaults: %v", err)
	}
	if len(defaults) != 40 {
		t.Errorf("expected 40 default outlets, got %d", len(defaults))
	}

	path := filepath.Join(t.TempDir(), "feeds.yaml")
	content := `
- name: BBC
  urls:
    - http://feeds.bbci.co.uk/news/rss.xml
    - "  "
- name: Masaar
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	feeds, err := LoadFeeds(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(feeds) != 2 || feeds[0].Name != "BBC" || len(feeds[0].URLs) != 1 || len(feeds[1].URLs) != 0 {
		t.Errorf("unexpected feeds %+v", feeds)
	}

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	os.WriteFile(bad, []byte("- urls: [http://x]\n"), 0o644)
	if _, err := LoadFeeds(bad); err == nil {
		t.Error("expected error for unnamed feed")
	}
	if _, err := LoadFeeds(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestPreprocess(t *testing.T) {
	articles := []*types.Article{
		{URL: "https://a/1", Source: "BBC", Language: "en", Body: "The cat. The dog, the bird!", Date: "2024-05-01T10:00:00Z"},
		{URL: "https://a/2", Source: "BBC", Language: "", Body: "Другой текст", Date: int64(1714557600000)},
		{URL: "https://a/3", Source: "RT", Language: "ru", Body: "Текст", Date: "not a date"},
	}
	stars := &fixedStars{label: types.SentimentNegative}

	stats, err := Preprocess(context.Background(), articles, stars, fixedDetector{code: "ru"}, 2)
	if err != nil {
		t.Fatalf("preprocess: %v", err)
	}
	if stars.calls != 3 {
		t.Errorf("expected every body rated, got %d", stars.calls)
	}
	for _, a := range articles {
		if a.Sentiment != types.SentimentNegative || a.WordCount == 0 {
			t.Errorf("article %s not annotated: %+v", a.URL, a)
		}
	}
	if articles[0].Language != "en" || articles[1].Language != "ru" {
		t.Error("expected only the missing language to be detected")
	}

	if stats.Total != 3 {
		t.Errorf("expected total 3, got %d", stats.Total)
	}
	if stats.BySource[0] != (Count{Key: "BBC", N: 2}) {
		t.Errorf("unexpected by_source %v", stats.BySource)
	}
	if stats.ByLanguage[0] != (Count{Key: "ru", N: 2}) {
		t.Errorf("unexpected by_language %v", stats.ByLanguage)
	}
	if stats.TopWordsEN[0] != (Count{Key: "the", N: 3}) {
		t.Errorf("unexpected top words %v", stats.TopWordsEN)
	}
	if len(stats.ByDay) != 1 || stats.ByDay[0] != (Count{Key: "2024-05-01", N: 2}) || stats.Undated != 1 {
		t.Errorf("unexpected by_day %v undated %d", stats.ByDay, stats.Undated)
	}
	if stats.LengthHistogram[0].Key != "<100" || stats.LengthHistogram[0].N != 3 {
		t.Errorf("unexpected histogram %v", stats.LengthHistogram)
	}
}

func TestPreprocessCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	articles := []*types.Article{{URL: "https://a/1", Body: "x"}}
	if _, err := Preprocess(ctx, articles, &fixedStars{}, fixedDetector{code: "en"}, 1); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestStatsRender(t *testing.T) {
	stats := ComputeStats([]*types.Article{
		{Source: "سكاي نيوز عربية", Language: "ar", Sentiment: types.SentimentNeutral, Body: "نص"},
		{Source: "BBC", Language: "en", Sentiment: types.SentimentPositive, Body: "Good news"},
	})

	var buf bytes.Buffer
	if err := stats.Render(&buf); err != nil {
		t.Fatalf("render: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Articles: 2", "Articles per source", "سكاي نيوز عربية", "Top 20 words (en)", "good", "2 articles without a usable date"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestLoad(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	store.InsertMany(ctx, []*types.Article{{URL: "https://old/1"}})

	n, err := Load(ctx, store, []*types.Article{
		{URL: "https://new/1", Source: "BBC"},
		{URL: "https://new/2", Source: "BBC"},
		{URL: "https://new/1", Source: "BBC"},
	})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 inserted, got %d", n)
	}
	if ok, _ := store.Exists(ctx, "https://old/1"); ok {
		t.Error("expected previous contents dropped")
	}
	if count, _ := store.Count(ctx); count != 2 {
		t.Errorf("expected 2 stored, got %d", count)
	}
}
