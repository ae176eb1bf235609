package config

import (
	"fmt"
	"net/url"
)

// Validate checks the configuration for invalid values.
func Validate(cfg *Config) error {
	if cfg.Engine.Concurrency < 1 {
		return fmt.Errorf("engine.concurrency must be >= 1, got %d", cfg.Engine.Concurrency)
	}
	if cfg.Engine.Concurrency > 256 {
		return fmt.Errorf("engine.concurrency must be <= 256, got %d", cfg.Engine.Concurrency)
	}
	if cfg.Engine.QueueSize < 1 {
		return fmt.Errorf("engine.queue_size must be >= 1, got %d", cfg.Engine.QueueSize)
	}
	if cfg.Engine.RequestTimeout <= 0 {
		return fmt.Errorf("engine.request_timeout must be > 0")
	}
	if cfg.Engine.MaxArticles < 0 {
		return fmt.Errorf("engine.max_articles must be >= 0, got %d", cfg.Engine.MaxArticles)
	}
	if cfg.Engine.PolitenessDelay < 0 {
		return fmt.Errorf("engine.politeness_delay must be >= 0")
	}

	if cfg.Fetcher.MaxBodySize <= 0 {
		return fmt.Errorf("fetcher.max_body_size must be > 0")
	}
	if cfg.Fetcher.MaxRedirects < 0 {
		return fmt.Errorf("fetcher.max_redirects must be >= 0")
	}
	if cfg.Fetcher.Type != "http" && cfg.Fetcher.Type != "browser" {
		return fmt.Errorf("fetcher.type must be 'http' or 'browser', got %q", cfg.Fetcher.Type)
	}

	if cfg.Proxy.Enabled {
		if cfg.Proxy.Rotation != "round_robin" && cfg.Proxy.Rotation != "random" {
			return fmt.Errorf("proxy.rotation must be 'round_robin' or 'random', got %q", cfg.Proxy.Rotation)
		}
		for _, proxyURL := range cfg.Proxy.URLs {
			if _, err := url.Parse(proxyURL); err != nil {
				return fmt.Errorf("invalid proxy URL %q: %w", proxyURL, err)
			}
		}
	}

	switch cfg.Storage.Type {
	case "mongodb":
		if cfg.Storage.MongoURI == "" {
			return fmt.Errorf("storage.mongo_uri is required for mongodb storage")
		}
		if cfg.Storage.Database == "" || cfg.Storage.Collection == "" {
			return fmt.Errorf("storage.database and storage.collection are required for mongodb storage")
		}
	case "sqlite":
		if cfg.Storage.SQLitePath == "" {
			return fmt.Errorf("storage.sqlite_path is required for sqlite storage")
		}
	case "memory":
	default:
		return fmt.Errorf("storage.type %q is not supported (valid: mongodb, sqlite, memory)", cfg.Storage.Type)
	}

	switch cfg.Sentiment.Provider {
	case "huggingface", "ollama":
		if cfg.Sentiment.Endpoint == "" {
			return fmt.Errorf("sentiment.endpoint is required for provider %q", cfg.Sentiment.Provider)
		}
	case "none":
	default:
		return fmt.Errorf("sentiment.provider must be huggingface/ollama/none, got %q", cfg.Sentiment.Provider)
	}
	if cfg.Sentiment.MaxChars < 1 {
		return fmt.Errorf("sentiment.max_chars must be >= 1, got %d", cfg.Sentiment.MaxChars)
	}

	if cfg.Dataset.PerFeedLimit < 1 {
		return fmt.Errorf("dataset.per_feed_limit must be >= 1, got %d", cfg.Dataset.PerFeedLimit)
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[cfg.Logging.Level] {
		return fmt.Errorf("logging.level must be debug/info/warn/error, got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" && cfg.Logging.Format != "json" {
		return fmt.Errorf("logging.format must be 'text' or 'json', got %q", cfg.Logging.Format)
	}

	return nil
}

// ValidateURL checks if a URL string is usable as a site to scrape.
func ValidateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("URL must have a host")
	}
	return nil
}
