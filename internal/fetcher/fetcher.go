package fetcher

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/IshaanNene/InsightBot/internal/config"
	"github.com/IshaanNene/InsightBot/internal/types"
)

// Fetcher is the interface for all page fetcher implementations.
type Fetcher interface {
	// Fetch retrieves the content at the given request's URL.
	Fetch(ctx context.Context, req *types.Request) (*types.Response, error)

	// Close releases any resources held by the fetcher.
	Close() error

	// Type returns the fetcher type identifier.
	Type() string
}

// New creates the fetcher selected by cfg.Fetcher.Type.
func New(cfg *config.Config, logger *slog.Logger) (Fetcher, error) {
	switch cfg.Fetcher.Type {
	case "http", "":
		f, err := NewHTTPFetcher(cfg, logger)
		if err != nil {
			return nil, err
		}
		return f, nil
	case "browser":
		var opts []BrowserOption
		if cfg.Fetcher.Stealth {
			opts = append(opts, WithStealth())
		}
		if cfg.Proxy.Enabled && len(cfg.Proxy.URLs) > 0 {
			opts = append(opts, WithBrowserProxy(NewProxyManager(&cfg.Proxy, logger)))
		}
		f, err := NewBrowserFetcher(cfg, logger, opts...)
		if err != nil {
			return nil, err
		}
		return f, nil
	default:
		return nil, fmt.Errorf("unsupported fetcher type: %s", cfg.Fetcher.Type)
	}
}
