package dataset

import (
	"context"
	"fmt"

	"github.com/IshaanNene/InsightBot/internal/storage"
	"github.com/IshaanNene/InsightBot/internal/types"
)

// Load replaces the store's contents with articles and returns how many were
// inserted. Repeated URLs within articles are stored once.
func Load(ctx context.Context, store storage.ArticleStore, articles []*types.Article) (int, error) {
	if err := store.Drop(ctx); err != nil {
		return 0, fmt.Errorf("drop %s: %w", store.Name(), err)
	}
	if len(articles) == 0 {
		return 0, nil
	}

	n, err := store.InsertMany(ctx, articles)
	if err != nil {
		return n, fmt.Errorf("insert into %s: %w", store.Name(), err)
	}
	return n, nil
}
