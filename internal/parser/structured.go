package parser

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/IshaanNene/InsightBot/internal/types"
)

var bylineClass = regexp.MustCompile(`(?i)byline|author`)

// PageMeta is the metadata a news page declares about itself through meta
// tags, OpenGraph properties and JSON-LD.
type PageMeta struct {
	Title       string
	Description string
	SiteName    string
	Author      string
	Category    string
	Keywords    []string
	Published   string
	Canonical   string
}

// ExtractMeta reads the page metadata from doc.
func ExtractMeta(doc *goquery.Document) PageMeta {
	var m PageMeta

	m.Title = firstNonEmpty(
		metaContent(doc, "property", "og:title"),
		strings.TrimSpace(doc.Find("title").First().Text()),
	)
	m.Description = firstNonEmpty(
		metaContent(doc, "name", "description"),
		metaContent(doc, "property", "og:description"),
	)
	m.SiteName = metaContent(doc, "property", "og:site_name")
	m.Author = firstNonEmpty(
		metaContent(doc, "name", "author"),
		metaContent(doc, "name", "dc.creator"),
		metaContent(doc, "name", "DC.creator"),
	)

	for _, key := range []string{"article:section", "section", "category"} {
		if c := firstNonEmpty(metaContent(doc, "name", key), metaContent(doc, "property", key)); c != "" {
			m.Category = c
			break
		}
	}

	if kw := metaContent(doc, "name", "keywords"); kw != "" {
		m.Keywords = splitKeywords(kw)
	} else {
		doc.Find(`meta[property="article:tag"]`).Each(func(i int, sel *goquery.Selection) {
			if v, _ := sel.Attr("content"); strings.TrimSpace(v) != "" {
				m.Keywords = append(m.Keywords, strings.TrimSpace(v))
			}
		})
	}

	m.Published = metaContent(doc, "property", "article:published_time")
	if href, ok := doc.Find(`link[rel="canonical"]`).Attr("href"); ok {
		m.Canonical = strings.TrimSpace(href)
	}

	for _, obj := range jsonLDObjects(doc) {
		if m.Published == "" {
			m.Published = stringField(obj["datePublished"])
		}
		if m.Author == "" {
			m.Author = authorName(obj["author"])
		}
		if m.Category == "" {
			m.Category = stringField(obj["articleSection"])
		}
	}

	if m.Published == "" {
		if dt, ok := doc.Find("time[datetime]").First().Attr("datetime"); ok {
			m.Published = strings.TrimSpace(dt)
		}
	}
	return m
}

// Enrich fills the batch-only fields of a: author, category, tags and,
// when still unset, date. Author falls back to the text of the first
// element whose class mentions a byline or author.
func Enrich(doc *goquery.Document, a *types.Article) {
	m := ExtractMeta(doc)

	if m.Author != "" {
		a.Author = m.Author
	}
	if a.Author == "" {
		doc.Find("[class]").EachWithBreak(func(i int, sel *goquery.Selection) bool {
			class, _ := sel.Attr("class")
			if !bylineClass.MatchString(class) {
				return true
			}
			a.Author = strings.Join(strings.Fields(sel.Text()), " ")
			return false
		})
	}

	a.Category = m.Category
	a.Tags = m.Keywords

	if a.Date == nil && m.Published != "" {
		a.Date = m.Published
	}
	if a.Title == "" {
		a.Title = m.Title
	}
}

func metaContent(doc *goquery.Document, attr, key string) string {
	v, _ := doc.Find(`meta[` + attr + `="` + key + `"]`).First().Attr("content")
	return strings.TrimSpace(v)
}

func splitKeywords(s string) []string {
	var tags []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// jsonLDObjects parses every <script type="application/ld+json"> block,
// flattening top-level arrays and @graph lists.
func jsonLDObjects(doc *goquery.Document) []map[string]any {
	var objects []map[string]any

	doc.Find(`script[type="application/ld+json"]`).Each(func(i int, sel *goquery.Selection) {
		raw := strings.TrimSpace(sel.Text())
		if raw == "" {
			return
		}

		var data map[string]any
		if err := json.Unmarshal([]byte(raw), &data); err == nil {
			objects = append(objects, data)
			if graph, ok := data["@graph"].([]any); ok {
				for _, g := range graph {
					if obj, ok := g.(map[string]any); ok {
						objects = append(objects, obj)
					}
				}
			}
			return
		}

		var dataArr []map[string]any
		if err := json.Unmarshal([]byte(raw), &dataArr); err == nil {
			objects = append(objects, dataArr...)
		}
	})

	return objects
}

func stringField(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case []any:
		if len(val) > 0 {
			return stringField(val[0])
		}
	}
	return ""
}

// authorName handles the string, object and list forms of schema.org author.
func authorName(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case map[string]any:
		return stringField(val["name"])
	case []any:
		var names []string
		for _, item := range val {
			if n := authorName(item); n != "" {
				names = append(names, n)
			}
		}
		return strings.Join(names, ", ")
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
