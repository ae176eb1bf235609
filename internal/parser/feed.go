package parser

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
)

// sitemapArticlePattern keeps only sitemap entries shaped like stories.
var sitemapArticlePattern = regexp.MustCompile(`/\d{4}/\d{2}/\d{2}/|/news/|/article/`)

// FeedEntry is one article URL announced by a feed or sitemap.
type FeedEntry struct {
	URL       string
	Title     string
	Published *time.Time
}

// IsSitemap reports whether a feed URL points at an XML sitemap rather than
// an RSS or Atom feed.
func IsSitemap(feedURL string) bool {
	return strings.HasSuffix(feedURL, ".xml") && !strings.Contains(feedURL, "rss")
}

// ParseFeed returns up to limit item links from an RSS or Atom document.
// Items without a link are skipped. limit <= 0 means no limit.
func ParseFeed(body []byte, limit int) ([]FeedEntry, error) {
	feed, err := gofeed.NewParser().Parse(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	var entries []FeedEntry
	for _, item := range feed.Items {
		link := strings.TrimSpace(item.Link)
		if link == "" && len(item.Links) > 0 {
			link = strings.TrimSpace(item.Links[0])
		}
		if link == "" {
			continue
		}
		entries = append(entries, FeedEntry{
			URL:       link,
			Title:     strings.TrimSpace(item.Title),
			Published: item.PublishedParsed,
		})
		if limit > 0 && len(entries) >= limit {
			break
		}
	}
	return entries, nil
}

// ParseSitemap returns up to limit <loc> entries of a sitemap or sitemap
// index whose path looks like an article.
func ParseSitemap(body []byte, limit int) ([]FeedEntry, error) {
	dec := xml.NewDecoder(bytes.NewReader(body))
	dec.Strict = false

	var entries []FeedEntry
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if len(entries) > 0 {
				break
			}
			return nil, err
		}

		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "loc" {
			continue
		}
		var loc string
		if err := dec.DecodeElement(&loc, &start); err != nil {
			continue
		}
		loc = strings.TrimSpace(loc)
		if loc == "" || !sitemapArticlePattern.MatchString(loc) {
			continue
		}

		entries = append(entries, FeedEntry{URL: loc})
		if limit > 0 && len(entries) >= limit {
			break
		}
	}
	return entries, nil
}
