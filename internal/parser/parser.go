// Package parser turns fetched pages into article candidates, article text
// and page metadata, and reads RSS feeds and sitemaps.
package parser

import (
	"github.com/IshaanNene/InsightBot/internal/types"
)

// Extractor extracts a single article from a fetched page.
type Extractor interface {
	// Extract returns the article with title and raw body text set.
	Extract(resp *types.Response) (*types.Article, error)
}

var _ Extractor = (*ArticleExtractor)(nil)
