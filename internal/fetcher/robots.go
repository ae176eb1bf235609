package fetcher

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// RobotsChecker fetches, caches and enforces robots.txt per host.
type RobotsChecker struct {
	enabled   bool
	userAgent string
	token     string
	client    *http.Client
	logger    *slog.Logger

	mu    sync.RWMutex
	cache map[string]*robotsRules
}

type robotsRules struct {
	disallowed []string
	allowed    []string
	crawlDelay time.Duration
	sitemaps   []string
}

// NewRobotsChecker creates a checker. When enabled is false every URL is allowed.
func NewRobotsChecker(enabled bool, userAgent string, logger *slog.Logger) *RobotsChecker {
	token := strings.ToLower(userAgent)
	if i := strings.IndexAny(token, "/ "); i > 0 {
		token = token[:i]
	}
	if token == "" {
		token = "insightbot"
	}
	return &RobotsChecker{
		enabled:   enabled,
		userAgent: userAgent,
		token:     token,
		client:    &http.Client{Timeout: 10 * time.Second},
		logger:    logger.With("component", "robots"),
		cache:     make(map[string]*robotsRules),
	}
}

// Allowed reports whether rawURL may be fetched. Hosts whose robots.txt
// cannot be retrieved are allowed.
func (rc *RobotsChecker) Allowed(ctx context.Context, rawURL string) bool {
	if !rc.enabled {
		return true
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return true
	}
	rules := rc.rulesFor(ctx, u.Scheme+"://"+u.Host)
	if rules == nil {
		return true
	}
	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	return rules.allows(path)
}

// CrawlDelay returns the Crawl-delay declared for the host of rawURL.
func (rc *RobotsChecker) CrawlDelay(ctx context.Context, rawURL string) time.Duration {
	u, err := url.Parse(rawURL)
	if err != nil || !rc.enabled {
		return 0
	}
	if rules := rc.rulesFor(ctx, u.Scheme+"://"+u.Host); rules != nil {
		return rules.crawlDelay
	}
	return 0
}

// Sitemaps returns the sitemap URLs listed in the host's robots.txt.
func (rc *RobotsChecker) Sitemaps(ctx context.Context, rawURL string) []string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil
	}
	if rules := rc.rulesFor(ctx, u.Scheme+"://"+u.Host); rules != nil {
		return rules.sitemaps
	}
	return nil
}

func (rc *RobotsChecker) rulesFor(ctx context.Context, origin string) *robotsRules {
	rc.mu.RLock()
	rules, ok := rc.cache[origin]
	rc.mu.RUnlock()
	if ok {
		return rules
	}

	rules = rc.fetch(ctx, origin)

	rc.mu.Lock()
	rc.cache[origin] = rules
	rc.mu.Unlock()
	return rules
}

func (rc *RobotsChecker) fetch(ctx context.Context, origin string) *robotsRules {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, origin+"/robots.txt", nil)
	if err != nil {
		return nil
	}
	if rc.userAgent != "" {
		req.Header.Set("User-Agent", rc.userAgent)
	}
	resp, err := rc.client.Do(req)
	if err != nil {
		rc.logger.Debug("robots.txt unavailable", "origin", origin, "error", err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 512*1024))
	if err != nil {
		return nil
	}
	return parseRobotsTxtFor(string(body), rc.token)
}

func parseRobotsTxt(content string) *robotsRules {
	return parseRobotsTxtFor(content, "insightbot")
}

// parseRobotsTxtFor collects the rules of groups addressed to "*" or token.
func parseRobotsTxtFor(content, token string) *robotsRules {
	rules := &robotsRules{}
	inGroup := false

	for _, line := range strings.Split(content, "\n") {
		if idx := strings.Index(line, "#"); idx >= 0 {
			line = line[:idx]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)

		switch key {
		case "user-agent":
			agent := strings.ToLower(value)
			inGroup = agent == "*" || strings.Contains(agent, token)
		case "disallow":
			if inGroup && value != "" {
				rules.disallowed = append(rules.disallowed, value)
			}
		case "allow":
			if inGroup && value != "" {
				rules.allowed = append(rules.allowed, value)
			}
		case "crawl-delay":
			if inGroup {
				var delay float64
				if _, err := fmt.Sscanf(value, "%f", &delay); err == nil {
					rules.crawlDelay = time.Duration(delay * float64(time.Second))
				}
			}
		case "sitemap":
			rules.sitemaps = append(rules.sitemaps, value)
		}
	}
	return rules
}

// allows applies Allow rules before Disallow rules.
func (r *robotsRules) allows(path string) bool {
	for _, pattern := range r.allowed {
		if matchRobotsPattern(pattern, path) {
			return true
		}
	}
	for _, pattern := range r.disallowed {
		if matchRobotsPattern(pattern, path) {
			return false
		}
	}
	return true
}

// matchRobotsPattern supports the * and trailing $ wildcards.
func matchRobotsPattern(pattern, path string) bool {
	if pattern == "" {
		return false
	}
	anchored := strings.HasSuffix(pattern, "$")
	pattern = strings.TrimSuffix(pattern, "$")

	if !strings.Contains(pattern, "*") {
		if anchored {
			return path == pattern
		}
		return strings.HasPrefix(path, pattern)
	}

	parts := strings.Split(pattern, "*")
	pos := 0
	for i, part := range parts {
		if part == "" {
			continue
		}
		idx := strings.Index(path[pos:], part)
		if idx < 0 || (i == 0 && idx != 0) {
			return false
		}
		pos += idx + len(part)
	}
	if anchored {
		return pos == len(path) || strings.HasSuffix(path, parts[len(parts)-1])
	}
	return true
}
