package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/IshaanNene/InsightBot/internal/types"
)

var csvHeaders = []string{
	"url", "source", "title", "body", "language", "sentiment",
	"date", "author", "category", "tags", "summary", "word_count",
}

// SnapshotPaths are the files written for one dataset snapshot.
type SnapshotPaths struct {
	JSON string
	CSV  string
}

// SnapshotWriter writes article datasets as JSON and CSV files.
type SnapshotWriter struct {
	dir    string
	logger *slog.Logger
}

// NewSnapshotWriter creates a writer rooted at dir.
func NewSnapshotWriter(dir string, logger *slog.Logger) (*SnapshotWriter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	return &SnapshotWriter{
		dir:    dir,
		logger: logger.With("component", "snapshot_writer"),
	}, nil
}

// WriteDated writes <prefix>_YYYYMMDD.json and .csv for the day of now.
func (w *SnapshotWriter) WriteDated(prefix string, articles []*types.Article, now time.Time) (SnapshotPaths, error) {
	base := filepath.Join(w.dir, fmt.Sprintf("%s_%s", prefix, now.Format("20060102")))
	paths := SnapshotPaths{JSON: base + ".json", CSV: base + ".csv"}

	if err := WriteJSON(paths.JSON, articles); err != nil {
		return SnapshotPaths{}, err
	}
	if err := WriteCSV(paths.CSV, articles); err != nil {
		return SnapshotPaths{}, err
	}
	w.logger.Info("snapshot written", "json", paths.JSON, "csv", paths.CSV, "articles", len(articles))
	return paths, nil
}

// WriteNamed writes a single JSON file called name inside the writer's dir.
func (w *SnapshotWriter) WriteNamed(name string, articles []*types.Article) (string, error) {
	path := filepath.Join(w.dir, name)
	if err := WriteJSON(path, articles); err != nil {
		return "", err
	}
	w.logger.Info("JSON written", "path", path, "articles", len(articles))
	return path, nil
}

// WriteJSON writes articles as an indented JSON array.
func WriteJSON(path string, articles []*types.Article) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	defer f.Close()

	if articles == nil {
		articles = []*types.Article{}
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(articles); err != nil {
		return fmt.Errorf("encode JSON: %w", err)
	}
	return nil
}

// WriteCSV writes one row per article with a fixed header.
func WriteCSV(path string, articles []*types.Article) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeaders); err != nil {
		return fmt.Errorf("write CSV header: %w", err)
	}
	for _, a := range articles {
		row := []string{
			a.URL, a.Source, a.Title, a.Body, a.Language, string(a.Sentiment),
			dateString(a.Date), a.Author, a.Category, strings.Join(a.Tags, ", "),
			a.Summary, strconv.Itoa(a.WordCount),
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write CSV row: %w", err)
		}
	}
	w.Flush()
	return w.Error()
}

// ReadSnapshot reads a JSON array of articles. Dates may be strings or
// epoch-millisecond numbers and are kept as decoded.
func ReadSnapshot(path string) ([]*types.Article, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	var articles []*types.Article
	if err := json.Unmarshal(data, &articles); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", path, err)
	}
	out := articles[:0]
	for _, a := range articles {
		if a == nil || a.URL == "" {
			continue
		}
		if a.Source == "" {
			a.Source = types.SourceFromURL(a.URL)
		}
		out = append(out, a)
	}
	return out, nil
}

func dateString(v any) string {
	switch d := v.(type) {
	case nil:
		return ""
	case string:
		return d
	case float64:
		return strconv.FormatFloat(d, 'f', -1, 64)
	default:
		return fmt.Sprint(d)
	}
}
