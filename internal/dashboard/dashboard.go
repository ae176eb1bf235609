// Package dashboard renders the article explorer page.
package dashboard

import (
	"html/template"
	"io"
	"strings"

	"github.com/IshaanNene/InsightBot/internal/browse"
)

// PageData is everything the explorer page shows.
type PageData struct {
	// Articles is the site or source listing; AllArticles the random landing sample.
	Articles    []browse.Summary
	AllArticles []browse.Summary

	Domain         string
	SiteURL        string
	Sources        []string
	SelectedSource string

	// Loading shows the wait banner and starts polling /latest_articles for Domain.
	Loading bool

	// JobID is the scrape job started by this request, if any.
	JobID string

	// Notice is a one-line message shown above the listing, e.g. a rejected submission.
	Notice string

	InitialCount int
	Version      string
}

var funcs = template.FuncMap{
	"upper":      strings.ToUpper,
	"capitalize": capitalize,
}

var page = template.Must(template.New("explorer").Funcs(funcs).Parse(explorerHTML))

// Render writes the explorer page for data to w.
func Render(w io.Writer, data PageData) error {
	if data.InitialCount == 0 {
		data.InitialCount = browse.PageSize
	}
	return page.Execute(w, data)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}
