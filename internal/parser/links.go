package parser

import (
	"net/url"
	"path"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/IshaanNene/InsightBot/internal/types"
)

var skippedExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true, ".svg": true, ".ico": true,
	".css": true, ".js": true, ".json": true, ".xml": true, ".rss": true,
	".pdf": true, ".zip": true, ".mp3": true, ".mp4": true, ".webm": true,
}

// Path segments that mark listing or account pages rather than stories.
var skippedSegments = map[string]bool{
	"tag": true, "tags": true, "topic": true, "topics": true,
	"author": true, "authors": true, "profile": true,
	"login": true, "signin": true, "sign-in": true, "register": true, "signup": true,
	"account": true, "subscribe": true, "newsletter": true, "search": true,
	"privacy": true, "terms": true, "contact": true, "feed": true, "rss": true,
}

// DiscoverLinks returns the article-looking links on a landing page in
// document order. Links are resolved against the page URL, canonicalized and
// restricted to the page's own site. limit <= 0 means no limit.
func DiscoverLinks(resp *types.Response, limit int) ([]string, error) {
	base := resp.BaseURL()
	if base == nil || base.Host == "" {
		return nil, &types.ParseError{URL: resp.FinalURL, Err: types.ErrInvalidURL}
	}

	doc, err := resp.Document()
	if err != nil {
		return nil, &types.ParseError{URL: base.String(), Err: err}
	}

	seen := make(map[string]bool)
	var links []string

	doc.Find("a[href]").EachWithBreak(func(i int, sel *goquery.Selection) bool {
		href, _ := sel.Attr("href")
		u := resolveLink(base, href)
		if u == nil || !SameSite(u.Hostname(), base.Hostname()) || !LooksLikeArticle(u) {
			return true
		}

		canonical := CanonicalizeURL(u.String())
		if seen[canonical] {
			return true
		}
		seen[canonical] = true
		links = append(links, canonical)

		return limit <= 0 || len(links) < limit
	})

	return links, nil
}

// resolveLink turns an href into an absolute http(s) URL without fragment.
func resolveLink(base *url.URL, href string) *url.URL {
	href = strings.TrimSpace(href)
	if href == "" ||
		strings.HasPrefix(href, "#") ||
		strings.HasPrefix(href, "javascript:") ||
		strings.HasPrefix(href, "mailto:") ||
		strings.HasPrefix(href, "tel:") ||
		strings.HasPrefix(href, "data:") {
		return nil
	}

	parsed, err := url.Parse(href)
	if err != nil {
		return nil
	}
	resolved := base.ResolveReference(parsed)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return nil
	}
	resolved.Fragment = ""
	return resolved
}

// SameSite reports whether host belongs to the site served at base: equal
// after dropping a leading "www.", or a subdomain of it.
func SameSite(host, base string) bool {
	host = strings.TrimPrefix(strings.ToLower(host), "www.")
	base = strings.TrimPrefix(strings.ToLower(base), "www.")
	if host == "" || base == "" {
		return false
	}
	return host == base || strings.HasSuffix(host, "."+base)
}

// LooksLikeArticle applies path heuristics to decide whether u is a story
// page: paths with at least two segments or a single hyphenated slug.
// Static assets and tag, author or login pages never qualify.
func LooksLikeArticle(u *url.URL) bool {
	p := strings.ToLower(u.Path)
	if skippedExtensions[path.Ext(p)] {
		return false
	}

	var segments []string
	for _, s := range strings.Split(p, "/") {
		if s != "" {
			segments = append(segments, s)
		}
	}
	if len(segments) == 0 {
		return false
	}
	for _, s := range segments {
		if skippedSegments[s] {
			return false
		}
	}

	if len(segments) >= 2 {
		return true
	}
	return strings.Count(segments[0], "-") >= 2
}

// CanonicalizeURL normalizes a URL so the same story is stored once:
//   - lowercases scheme and host
//   - removes fragment, default ports and utm_* tracking parameters
//   - sorts query parameters
//   - removes trailing slash (except root)
func CanonicalizeURL(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Host == "" {
		return rawURL
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""

	host := u.Hostname()
	port := u.Port()
	if (u.Scheme == "http" && port == "80") || (u.Scheme == "https" && port == "443") {
		u.Host = host
	}

	if u.RawQuery != "" {
		params := u.Query()
		keys := make([]string, 0, len(params))
		for k := range params {
			if strings.HasPrefix(strings.ToLower(k), "utm_") {
				continue
			}
			keys = append(keys, k)
		}
		sort.Strings(keys)

		var sorted []string
		for _, k := range keys {
			vals := params[k]
			sort.Strings(vals)
			for _, v := range vals {
				sorted = append(sorted, url.QueryEscape(k)+"="+url.QueryEscape(v))
			}
		}
		u.RawQuery = strings.Join(sorted, "&")
	}

	if u.Path != "/" && strings.HasSuffix(u.Path, "/") {
		u.Path = strings.TrimRight(u.Path, "/")
	}
	if u.Path == "" {
		u.Path = "/"
	}
	// The raw path may still hold the trailing slash.
	u.RawPath = ""

	return u.String()
}
