package fetcher

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/andybalholm/brotli"

	"github.com/IshaanNene/InsightBot/internal/config"
	"github.com/IshaanNene/InsightBot/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

func newTestFetcher(t *testing.T) *HTTPFetcher {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Engine.RequestTimeout = 5 * time.Second
	f, err := NewHTTPFetcher(cfg, testLogger)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { f.Close() })
	return f
}

func fetch(t *testing.T, f Fetcher, url string) (*types.Response, error) {
	t.Helper()
	req, err := types.NewRequest(url)
	if err != nil {
		t.Fatal(err)
	}
	return f.Fetch(context.Background(), req)
}

func TestHTTPFetcherDecodes(t *testing.T) {
	const page = "<html><body><p>hello</p></body></html>"

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var buf bytes.Buffer
		switch r.URL.Path {
		case "/gzip":
			zw := gzip.NewWriter(&buf)
			zw.Write([]byte(page))
			zw.Close()
			w.Header().Set("Content-Encoding", "gzip")
		case "/br":
			bw := brotli.NewWriter(&buf)
			bw.Write([]byte(page))
			bw.Close()
			w.Header().Set("Content-Encoding", "br")
		default:
			buf.WriteString(page)
		}
		w.Header().Set("Content-Type", "text/html")
		w.Write(buf.Bytes())
	}))
	defer srv.Close()

	f := newTestFetcher(t)
	for _, path := range []string{"/plain", "/gzip", "/br"} {
		resp, err := fetch(t, f, srv.URL+path)
		if err != nil {
			t.Fatalf("%s: %v", path, err)
		}
		if string(resp.Body) != page {
			t.Errorf("%s: body = %q", path, resp.Body)
		}
		doc, err := resp.Document()
		if err != nil || doc.Find("p").Text() != "hello" {
			t.Errorf("%s: document parse failed: %v", path, err)
		}
	}
}

func TestHTTPFetcherErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/missing":
			http.NotFound(w, r)
		case "/busy":
			w.Header().Set("Retry-After", "7")
			w.WriteHeader(http.StatusTooManyRequests)
		case "/broken":
			w.WriteHeader(http.StatusBadGateway)
		}
	}))
	defer srv.Close()

	f := newTestFetcher(t)
	tests := []struct {
		path      string
		status    int
		retryable bool
	}{
		{"/missing", 404, false},
		{"/busy", 429, true},
		{"/broken", 502, true},
	}
	for _, tt := range tests {
		_, err := fetch(t, f, srv.URL+tt.path)
		var fe *types.FetchError
		if !errors.As(err, &fe) {
			t.Fatalf("%s: expected FetchError, got %v", tt.path, err)
		}
		if fe.StatusCode != tt.status || fe.Retryable != tt.retryable {
			t.Errorf("%s: got status %d retryable %v", tt.path, fe.StatusCode, fe.Retryable)
		}
		if tt.path == "/busy" && fe.RetryAfter != 7*time.Second {
			t.Errorf("retry after = %v", fe.RetryAfter)
		}
	}
}

func TestHTTPFetcherUserAgentOverride(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("User-Agent")
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	f := newTestFetcher(t)
	req, _ := types.NewRequest(srv.URL)
	req.Headers.Set("User-Agent", "InsightBot/1.0")
	if _, err := f.Fetch(context.Background(), req); err != nil {
		t.Fatal(err)
	}
	if got != "InsightBot/1.0" {
		t.Errorf("User-Agent = %q", got)
	}
}

func TestParseRetryAfter(t *testing.T) {
	if d := parseRetryAfter(""); d != 5*time.Second {
		t.Errorf("empty = %v", d)
	}
	if d := parseRetryAfter("600"); d != 120*time.Second {
		t.Errorf("capped = %v", d)
	}
	if d := parseRetryAfter("garbage"); d != 5*time.Second {
		t.Errorf("garbage = %v", d)
	}
}

func TestProxyManagerRotation(t *testing.T) {
	pm := NewProxyManager(&config.ProxyConfig{
		Enabled:  true,
		Rotation: "round_robin",
		URLs:     []string{"http://p1:8080", "http://p2:8080", "::bad::"},
	}, testLogger)
	if pm.Count() != 2 {
		t.Fatalf("count = %d, want 2", pm.Count())
	}
	seen := map[string]bool{}
	for i := 0; i < 4; i++ {
		seen[pm.Next().Host] = true
	}
	if !seen["p1:8080"] || !seen["p2:8080"] {
		t.Errorf("round robin did not visit both proxies: %v", seen)
	}
}

func TestRobotsRules(t *testing.T) {
	rules := parseRobotsTxt(`
User-agent: *
Disallow: /private/
Allow: /private/open
Disallow: /*.pdf$
Crawl-delay: 2
Sitemap: https://example.com/sitemap.xml

User-agent: otherbot
Disallow: /
`)
	tests := []struct {
		path string
		want bool
	}{
		{"/news/2024/01/01/story", true},
		{"/private/x", false},
		{"/private/open/page", true},
		{"/files/report.pdf", false},
		{"/files/report.pdf.html", true},
	}
	for _, tt := range tests {
		if got := rules.allows(tt.path); got != tt.want {
			t.Errorf("allows(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
	if rules.crawlDelay != 2*time.Second {
		t.Errorf("crawl delay = %v", rules.crawlDelay)
	}
	if len(rules.sitemaps) != 1 {
		t.Errorf("sitemaps = %v", rules.sitemaps)
	}
}

func TestRobotsCheckerFetches(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			hits++
			w.Write([]byte("User-agent: *\nDisallow: /admin\n"))
			return
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	rc := NewRobotsChecker(true, "InsightBot/1.0", testLogger)
	ctx := context.Background()
	if rc.Allowed(ctx, srv.URL+"/admin/panel") {
		t.Error("/admin should be disallowed")
	}
	if !rc.Allowed(ctx, srv.URL+"/news/1") {
		t.Error("/news should be allowed")
	}
	if hits != 1 {
		t.Errorf("robots.txt fetched %d times, want 1", hits)
	}

	disabled := NewRobotsChecker(false, "", testLogger)
	if !disabled.Allowed(ctx, srv.URL+"/admin") {
		t.Error("disabled checker must allow everything")
	}
}
