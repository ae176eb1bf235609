package storage

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/IshaanNene/InsightBot/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

func article(url, title string) *types.Article {
	a := types.NewArticle(url)
	a.Title = title
	a.Body = title + " body"
	a.Language = "en"
	return a
}

// backends returns every store that can run without external services.
func backends(t *testing.T) map[string]ArticleStore {
	t.Helper()
	sqlite, err := NewSQLiteStore(context.Background(), filepath.Join(t.TempDir(), "articles.db"), testLogger)
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { sqlite.Close() })
	return map[string]ArticleStore{
		"memory": NewMemoryStore(),
		"sqlite": sqlite,
	}
}

func TestInsertManySkipsDuplicates(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			n, err := s.InsertMany(ctx, []*types.Article{
				article("https://example.com/a", "A"),
				article("https://example.com/b", "B"),
				article("https://example.com/a", "A again"),
			})
			if err != nil {
				t.Fatalf("InsertMany: %v", err)
			}
			if n != 2 {
				t.Errorf("inserted = %d, want 2", n)
			}
			n, err = s.InsertMany(ctx, []*types.Article{article("https://example.com/b", "B2")})
			if err != nil || n != 0 {
				t.Errorf("second insert = %d, %v; want 0", n, err)
			}
			count, _ := s.Count(ctx)
			if count != 2 {
				t.Errorf("count = %d, want 2", count)
			}
			got, err := s.Get(ctx, "https://example.com/a")
			if err != nil || got.Title != "A" {
				t.Errorf("Get = %+v, %v", got, err)
			}
		})
	}
}

func TestGetMissing(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.Get(context.Background(), "https://nowhere.test/x")
			if !errors.Is(err, types.ErrNotFound) {
				t.Errorf("err = %v, want ErrNotFound", err)
			}
			ok, err := s.Exists(context.Background(), "https://nowhere.test/x")
			if err != nil || ok {
				t.Errorf("Exists = %v, %v", ok, err)
			}
		})
	}
}

func TestUpdateFieldsOnlyTouchesSentiment(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			a := article("https://example.com/a", "A")
			a.Date = "2024-05-01"
			if _, err := s.InsertMany(ctx, []*types.Article{a}); err != nil {
				t.Fatal(err)
			}
			err := s.UpdateFields(ctx, a.URL, map[string]any{"sentiment": types.SentimentPositive})
			if err != nil {
				t.Fatalf("UpdateFields: %v", err)
			}
			got, err := s.Get(ctx, a.URL)
			if err != nil {
				t.Fatal(err)
			}
			if got.Sentiment != types.SentimentPositive {
				t.Errorf("sentiment = %q", got.Sentiment)
			}
			if got.Title != a.Title || got.Body != a.Body || got.Language != a.Language || got.Date != "2024-05-01" {
				t.Errorf("other fields changed: %+v", got)
			}

			if err := s.UpdateFields(ctx, "https://example.com/missing", map[string]any{"sentiment": "neutral"}); !errors.Is(err, types.ErrNotFound) {
				t.Errorf("update missing: %v", err)
			}
			if err := s.UpdateFields(ctx, a.URL, map[string]any{"url": "x"}); err == nil {
				t.Error("expected error updating url")
			}
		})
	}
}

func TestQueries(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			var batch []*types.Article
			for _, u := range []string{
				"https://www.example.com/1", "https://news.other.org/1",
				"https://www.example.com/2", "https://www.example.com/3",
			} {
				batch = append(batch, article(u, u))
			}
			batch[1].Language = "ar"
			if _, err := s.InsertMany(ctx, batch); err != nil {
				t.Fatal(err)
			}

			bySource, err := s.FindBySource(ctx, "example.com", 0)
			if err != nil || len(bySource) != 3 {
				t.Fatalf("FindBySource = %d, %v", len(bySource), err)
			}
			if bySource[0].URL != "https://www.example.com/1" {
				t.Errorf("FindBySource not in insertion order: %s", bySource[0].URL)
			}

			latest, err := s.Latest(ctx, "example.com", 2)
			if err != nil || len(latest) != 2 {
				t.Fatalf("Latest = %d, %v", len(latest), err)
			}
			if latest[0].URL != "https://www.example.com/3" || latest[1].URL != "https://www.example.com/2" {
				t.Errorf("Latest order: %s, %s", latest[0].URL, latest[1].URL)
			}

			sample, err := s.Sample(ctx, 10)
			if err != nil || len(sample) != 4 {
				t.Errorf("Sample = %d, %v", len(sample), err)
			}

			sources, err := s.Distinct(ctx, "source")
			if err != nil {
				t.Fatal(err)
			}
			if len(sources) != 2 || sources[0] != "example.com" || sources[1] != "news.other.org" {
				t.Errorf("Distinct(source) = %v", sources)
			}
			if _, err := s.Distinct(ctx, "body"); err == nil {
				t.Error("expected error for distinct on body")
			}

			if err := s.Drop(ctx); err != nil {
				t.Fatal(err)
			}
			if n, _ := s.Count(ctx); n != 0 {
				t.Errorf("count after drop = %d", n)
			}
			empty, err := s.Sample(ctx, 10)
			if err != nil || len(empty) != 0 {
				t.Errorf("Sample after drop = %v, %v", empty, err)
			}
		})
	}
}

func TestSQLiteDateRoundTrip(t *testing.T) {
	s, err := NewSQLiteStore(context.Background(), filepath.Join(t.TempDir(), "a.db"), testLogger)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	ctx := context.Background()
	num := article("https://example.com/num", "n")
	num.Date = int64(1700000000000)
	num.Tags = []string{"politics", "economy"}
	str := article("https://example.com/str", "s")
	str.Date = "Mon, 02 Jan 2006"
	if _, err := s.InsertMany(ctx, []*types.Article{num, str}); err != nil {
		t.Fatal(err)
	}

	got, _ := s.Get(ctx, num.URL)
	if f, ok := got.Date.(float64); !ok || f != 1700000000000 {
		t.Errorf("numeric date = %#v", got.Date)
	}
	if len(got.Tags) != 2 || got.Tags[1] != "economy" {
		t.Errorf("tags = %v", got.Tags)
	}
	got, _ = s.Get(ctx, str.URL)
	if got.Date != "Mon, 02 Jan 2006" {
		t.Errorf("string date = %#v", got.Date)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	dir := t.TempDir()
	w, err := NewSnapshotWriter(dir, testLogger)
	if err != nil {
		t.Fatal(err)
	}

	a := article("https://www.example.com/a", "Title, with comma")
	a.Date = float64(1700000000000)
	a.Tags = []string{"x", "y"}
	b := article("https://example.org/b", "B")
	b.Date = "2024-01-01"

	now := time.Date(2025, 9, 14, 10, 0, 0, 0, time.UTC)
	paths, err := w.WriteDated("articles", []*types.Article{a, b}, now)
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(paths.JSON) != "articles_20250914.json" {
		t.Errorf("json path = %s", paths.JSON)
	}

	got, err := ReadSnapshot(paths.JSON)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].Title != "Title, with comma" || got[1].Date != "2024-01-01" {
		t.Errorf("unexpected snapshot: %+v", got)
	}
	if got[0].Date.(float64) != 1700000000000 {
		t.Errorf("numeric date = %v", got[0].Date)
	}

	f, err := os.Open(paths.CSV)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 || rows[1][2] != "Title, with comma" || rows[1][9] != "x, y" {
		t.Errorf("csv rows = %v", rows)
	}
}

func TestReadSnapshotFillsSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "in.json")
	data := `[{"url":"https://www.bbc.com/news/1","title":"t","body":"b","date":1700000000000},{"title":"no url"}]`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := ReadSnapshot(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Source != "bbc.com" {
		t.Errorf("ReadSnapshot = %+v", got)
	}
}

func TestIsDuplicateKey(t *testing.T) {
	dup := mongo.CommandError{Code: 11000, Name: "DuplicateKey", Message: "E11000 duplicate key error collection: insightbot.articles index: url_unique"}

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"duplicate key", dup, true},
		{"wrapped duplicate key", fmt.Errorf("create index: %w", dup), true},
		{"unauthorized", mongo.CommandError{Code: 13, Name: "Unauthorized", Message: "not authorized"}, false},
		{"plain error", errors.New("connection refused"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isDuplicateKey(tt.err); got != tt.want {
				t.Errorf("isDuplicateKey(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
