package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"

	"github.com/IshaanNene/InsightBot/internal/types"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS articles (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	url TEXT UNIQUE NOT NULL,
	source TEXT NOT NULL DEFAULT '',
	title TEXT NOT NULL DEFAULT '',
	body TEXT NOT NULL DEFAULT '',
	language TEXT NOT NULL DEFAULT '',
	sentiment TEXT NOT NULL DEFAULT '',
	date TEXT,
	author TEXT NOT NULL DEFAULT '',
	category TEXT NOT NULL DEFAULT '',
	tags TEXT,
	summary TEXT NOT NULL DEFAULT '',
	word_count INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_articles_source ON articles(source, id);
`

var articleColumns = []string{
	"url", "source", "title", "body", "language", "sentiment",
	"date", "author", "category", "tags", "summary", "word_count",
}

// SQLiteStore keeps articles in a single SQLite table. Dates and tags are
// stored as JSON text so heterogeneous date values survive a round trip.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore opens path with WAL enabled and creates the schema.
func NewSQLiteStore(ctx context.Context, path string, logger *slog.Logger) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." && path != ":memory:" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}
	// A single writer connection avoids SQLITE_BUSY under concurrent jobs.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA busy_timeout=5000"} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("sqlite %s: %w", pragma, err)
		}
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}

	return &SQLiteStore{
		db:     db,
		logger: logger.With("component", "sqlite_store"),
	}, nil
}

func (s *SQLiteStore) Name() string { return "sqlite" }

func (s *SQLiteStore) Exists(ctx context.Context, url string) (bool, error) {
	query, args, err := sq.Select("1").From("articles").Where(sq.Eq{"url": url}).Limit(1).ToSql()
	if err != nil {
		return false, err
	}
	var one int
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, &types.StorageError{Backend: s.Name(), Op: "exists", Err: err}
	}
	return true, nil
}

func (s *SQLiteStore) Get(ctx context.Context, url string) (*types.Article, error) {
	articles, err := s.query(ctx, "get", sq.Select(articleColumns...).From("articles").Where(sq.Eq{"url": url}).Limit(1))
	if err != nil {
		return nil, err
	}
	if len(articles) == 0 {
		return nil, types.ErrNotFound
	}
	return articles[0], nil
}

func (s *SQLiteStore) InsertMany(ctx context.Context, articles []*types.Article) (int, error) {
	if len(articles) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, &types.StorageError{Backend: s.Name(), Op: "insert", Err: err}
	}
	defer tx.Rollback()

	inserted := 0
	for _, a := range articles {
		date, err := encodeJSON(a.Date)
		if err != nil {
			return 0, &types.StorageError{Backend: s.Name(), Op: "insert", Err: fmt.Errorf("encode date for %s: %w", a.URL, err)}
		}
		var tags any
		if len(a.Tags) > 0 {
			tags, _ = encodeJSON(a.Tags)
		}

		query, args, err := sq.Insert("articles").
			Options("OR IGNORE").
			Columns(articleColumns...).
			Values(a.URL, a.Source, a.Title, a.Body, a.Language, string(a.Sentiment),
				date, a.Author, a.Category, tags, a.Summary, a.WordCount).
			ToSql()
		if err != nil {
			return 0, err
		}
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return 0, &types.StorageError{Backend: s.Name(), Op: "insert", Err: err}
		}
		if n, _ := res.RowsAffected(); n > 0 {
			inserted++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, &types.StorageError{Backend: s.Name(), Op: "insert", Err: err}
	}
	if skipped := len(articles) - inserted; skipped > 0 {
		s.logger.Warn("skipped duplicate urls during insert", "duplicates", skipped)
	}
	return inserted, nil
}

func (s *SQLiteStore) UpdateFields(ctx context.Context, url string, fields map[string]any) error {
	if err := checkUpdate(s.Name(), url, fields); err != nil {
		return err
	}
	set := make(map[string]any, len(fields))
	for k, v := range fields {
		if label, ok := v.(types.Sentiment); ok {
			v = string(label)
		}
		set[k] = v
	}
	query, args, err := sq.Update("articles").SetMap(set).Where(sq.Eq{"url": url}).ToSql()
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return &types.StorageError{Backend: s.Name(), Op: "update", Err: err}
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return types.ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) FindBySource(ctx context.Context, source string, limit int) ([]*types.Article, error) {
	b := sq.Select(articleColumns...).From("articles").Where(sq.Eq{"source": source}).OrderBy("id ASC")
	if limit > 0 {
		b = b.Limit(uint64(limit))
	}
	return s.query(ctx, "find", b)
}

func (s *SQLiteStore) Latest(ctx context.Context, source string, n int) ([]*types.Article, error) {
	if n <= 0 {
		return []*types.Article{}, nil
	}
	b := sq.Select(articleColumns...).From("articles").Where(sq.Eq{"source": source}).
		OrderBy("id DESC").Limit(uint64(n))
	return s.query(ctx, "latest", b)
}

func (s *SQLiteStore) Sample(ctx context.Context, n int) ([]*types.Article, error) {
	if n <= 0 {
		return []*types.Article{}, nil
	}
	b := sq.Select(articleColumns...).From("articles").OrderBy("RANDOM()").Limit(uint64(n))
	return s.query(ctx, "sample", b)
}

func (s *SQLiteStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM articles").Scan(&n); err != nil {
		return 0, &types.StorageError{Backend: s.Name(), Op: "count", Err: err}
	}
	return n, nil
}

func (s *SQLiteStore) Distinct(ctx context.Context, field string) ([]string, error) {
	if err := checkDistinct(s.Name(), field); err != nil {
		return nil, err
	}
	query, args, err := sq.Select("DISTINCT " + field).From("articles").
		Where(sq.NotEq{field: ""}).OrderBy(field).ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &types.StorageError{Backend: s.Name(), Op: "distinct", Err: err}
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, &types.StorageError{Backend: s.Name(), Op: "distinct", Err: err}
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Drop(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM articles"); err != nil {
		return &types.StorageError{Backend: s.Name(), Op: "drop", Err: err}
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) query(ctx context.Context, op string, b sq.SelectBuilder) ([]*types.Article, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &types.StorageError{Backend: s.Name(), Op: op, Err: err}
	}
	defer rows.Close()

	out := []*types.Article{}
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, &types.StorageError{Backend: s.Name(), Op: op, Err: err}
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, &types.StorageError{Backend: s.Name(), Op: op, Err: err}
	}
	return out, nil
}

func scanArticle(rows *sql.Rows) (*types.Article, error) {
	var (
		a         types.Article
		sentiment string
		date      sql.NullString
		tags      sql.NullString
	)
	err := rows.Scan(&a.URL, &a.Source, &a.Title, &a.Body, &a.Language, &sentiment,
		&date, &a.Author, &a.Category, &tags, &a.Summary, &a.WordCount)
	if err != nil {
		return nil, err
	}
	a.Sentiment = types.Sentiment(sentiment)
	if date.Valid && date.String != "" {
		var v any
		if err := json.Unmarshal([]byte(date.String), &v); err == nil {
			a.Date = v
		}
	}
	if tags.Valid && tags.String != "" {
		_ = json.Unmarshal([]byte(tags.String), &a.Tags)
	}
	return &a, nil
}

func encodeJSON(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}
