// Package pipeline runs scraped articles through the clean, annotate and
// persist steps shared by the web scraper and the batch dataset builder.
package pipeline

import (
	"context"
	"log/slog"

	"github.com/IshaanNene/InsightBot/internal/types"
)

// Stage processes an article and returns the (possibly modified) article.
// Return nil to drop the article.
type Stage interface {
	// Name returns the stage's identifier.
	Name() string

	// Process transforms an article. Return nil to drop it.
	Process(ctx context.Context, a *types.Article) (*types.Article, error)
}

// Chain runs stages in the order they were added.
type Chain struct {
	stages []Stage
	logger *slog.Logger
}

// NewChain creates a Chain with the given stages.
func NewChain(logger *slog.Logger, stages ...Stage) *Chain {
	c := &Chain{logger: logger.With("component", "chain")}
	for _, s := range stages {
		c.Use(s)
	}
	return c
}

// Use appends a stage to the chain.
func (c *Chain) Use(s Stage) {
	c.stages = append(c.stages, s)
	c.logger.Debug("stage added", "name", s.Name(), "position", len(c.stages))
}

// Process runs the article through every stage. A nil article with a nil
// error means a stage dropped it.
func (c *Chain) Process(ctx context.Context, a *types.Article) (*types.Article, error) {
	current := a

	for _, s := range c.stages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		result, err := s.Process(ctx, current)
		if err != nil {
			return nil, &types.PipelineError{
				Stage: s.Name(),
				URL:   current.URL,
				Err:   err,
			}
		}
		if result == nil {
			c.logger.Debug("article dropped", "stage", s.Name(), "url", a.URL)
			return nil, nil
		}
		current = result
	}

	return current, nil
}

// Len returns the number of stages in the chain.
func (c *Chain) Len() int {
	return len(c.stages)
}
