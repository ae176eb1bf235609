package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/IshaanNene/InsightBot/internal/config"
	"github.com/IshaanNene/InsightBot/internal/types"
)

// ArticleStore is the interface for all article backends. Records are keyed
// by URL and kept in insertion order.
type ArticleStore interface {
	// Exists reports whether an article with url is stored.
	Exists(ctx context.Context, url string) (bool, error)

	// Get returns the stored article or types.ErrNotFound.
	Get(ctx context.Context, url string) (*types.Article, error)

	// InsertMany appends articles and returns how many were written.
	// URLs that are already stored are skipped, not overwritten.
	InsertMany(ctx context.Context, articles []*types.Article) (int, error)

	// UpdateFields sets the given fields on the article with url.
	UpdateFields(ctx context.Context, url string, fields map[string]any) error

	// FindBySource returns articles for source in insertion order. limit <= 0 means all.
	FindBySource(ctx context.Context, source string, limit int) ([]*types.Article, error)

	// Latest returns the n most recently inserted articles for source, newest first.
	Latest(ctx context.Context, source string, n int) ([]*types.Article, error)

	// Sample returns up to n pseudo-randomly chosen articles.
	Sample(ctx context.Context, n int) ([]*types.Article, error)

	Count(ctx context.Context) (int64, error)

	// Distinct returns the sorted distinct values of a string field.
	Distinct(ctx context.Context, field string) ([]string, error)

	// Drop removes every article.
	Drop(ctx context.Context) error

	Close() error

	// Name returns the storage backend identifier.
	Name() string
}

// Fields that may be passed to UpdateFields and Distinct.
var updatableFields = map[string]bool{
	"title":      true,
	"body":       true,
	"language":   true,
	"sentiment":  true,
	"author":     true,
	"category":   true,
	"summary":    true,
	"word_count": true,
}

var distinctFields = map[string]bool{
	"source":    true,
	"language":  true,
	"sentiment": true,
	"author":    true,
	"category":  true,
}

func checkUpdate(backend, url string, fields map[string]any) error {
	if url == "" {
		return &types.StorageError{Backend: backend, Op: "update", Err: types.ErrInvalidURL}
	}
	for k := range fields {
		if !updatableFields[k] {
			return &types.StorageError{Backend: backend, Op: "update", Err: fmt.Errorf("field %q cannot be updated", k)}
		}
	}
	return nil
}

func checkDistinct(backend, field string) error {
	if !distinctFields[field] {
		return &types.StorageError{Backend: backend, Op: "distinct", Err: fmt.Errorf("field %q is not supported", field)}
	}
	return nil
}

// Open creates the backend selected by cfg.Type.
func Open(ctx context.Context, cfg config.StorageConfig, logger *slog.Logger) (ArticleStore, error) {
	switch cfg.Type {
	case "mongodb":
		s, err := NewMongoStore(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "sqlite":
		s, err := NewSQLiteStore(ctx, cfg.SQLitePath, logger)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
}
