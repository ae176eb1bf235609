package parser

import (
	"bytes"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"

	"github.com/IshaanNene/InsightBot/internal/types"
)

// minReadableChars is the shortest readability text accepted before the
// selector fallbacks are tried.
const minReadableChars = 80

// ArticleExtractor pulls the title and plain body text out of an article
// page. Readability runs first; paragraphs under <article> or <main> are the
// fallback, via goquery and then XPath.
type ArticleExtractor struct {
	logger *slog.Logger
}

// NewArticleExtractor creates a new ArticleExtractor.
func NewArticleExtractor(logger *slog.Logger) *ArticleExtractor {
	return &ArticleExtractor{
		logger: logger.With("component", "article_extractor"),
	}
}

// Extract returns an article with URL, source, title and raw body text set.
// The body is not cleaned. A page without text yields types.ErrEmptyBody.
func (e *ArticleExtractor) Extract(resp *types.Response) (*types.Article, error) {
	pageURL := resp.BaseURL()
	rawURL := resp.FinalURL
	if resp.Request != nil && resp.Request.URL != nil {
		rawURL = resp.Request.URLString()
	}

	a := types.NewArticle(CanonicalizeURL(rawURL))

	parsed, err := readability.FromReader(bytes.NewReader(resp.Body), pageURL)
	if err != nil {
		e.logger.Debug("readability failed", "url", rawURL, "error", err)
	} else {
		a.Title = strings.TrimSpace(parsed.Title)
		a.Body = strings.TrimSpace(parsed.TextContent)
		a.Author = strings.TrimSpace(parsed.Byline)
	}

	if len(a.Body) < minReadableChars {
		doc, err := resp.Document()
		if err != nil {
			return nil, &types.ParseError{URL: rawURL, Err: err}
		}
		if a.Title == "" {
			a.Title = documentTitle(doc)
		}
		if body := selectorParagraphs(doc); len(body) > len(a.Body) {
			a.Body = body
		}
	}

	if len(a.Body) < minReadableChars {
		body, err := xpathParagraphs(resp.Body)
		if err != nil {
			e.logger.Debug("xpath fallback failed", "url", rawURL, "error", err)
		} else if len(body) > len(a.Body) {
			a.Body = body
		}
	}

	if strings.TrimSpace(a.Body) == "" {
		return nil, &types.ParseError{URL: rawURL, Err: types.ErrEmptyBody}
	}
	return a, nil
}

// documentTitle prefers the first <h1> over the <title> element.
func documentTitle(doc *goquery.Document) string {
	if h1 := strings.TrimSpace(doc.Find("h1").First().Text()); h1 != "" {
		return h1
	}
	return strings.TrimSpace(doc.Find("title").First().Text())
}

func selectorParagraphs(doc *goquery.Document) string {
	var parts []string
	doc.Find("article p, main p").Each(func(i int, sel *goquery.Selection) {
		if t := strings.TrimSpace(sel.Text()); t != "" {
			parts = append(parts, t)
		}
	})
	return strings.Join(parts, "\n")
}
