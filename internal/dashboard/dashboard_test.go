package dashboard

import (
	"bytes"
	"regexp"
	"strings"
	"testing"

	"github.com/IshaanNene/InsightBot/internal/browse"
)

var offsetPattern = regexp.MustCompile(`var offset =\s*10\s*;`)

func render(t *testing.T, data PageData) string {
	t.Helper()
	var buf bytes.Buffer
	if err := Render(&buf, data); err != nil {
		t.Fatalf("render: %v", err)
	}
	return buf.String()
}

func TestRenderLanding(t *testing.T) {
	out := render(t, PageData{
		AllArticles: []browse.Summary{
			{Title: "Rates <rise>", URL: "https://example.com/news/rates", Language: "en", Sentiment: "negative", Source: "example.com"},
		},
		Sources: []string{"example.com", "other.org"},
	})

	for _, want := range []string{
		"<h2>All Articles</h2>",
		"Rates &lt;rise&gt;",
		"example.com | EN | Negative",
		"show-more-btn",
		`<option value="other.org">other.org</option>`,
		"stopPolling",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in landing page", want)
		}
	}
	if !offsetPattern.MatchString(out) {
		t.Error("expected show-more offset to start at the page size")
	}
	if strings.Contains(out, "pollForArticles(\"") {
		t.Error("landing page must not poll")
	}
}

func TestRenderLoadingPolls(t *testing.T) {
	out := render(t, PageData{
		Domain:  "example.com",
		SiteURL: "https://www.example.com/",
		Loading: true,
		JobID:   "01HXYZ",
	})

	for _, want := range []string{
		"Articles from example.com",
		`pollForArticles("example.com", "01HXYZ")`,
		"display:block;",
		"/api/jobs/",
		`value="https://www.example.com/"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in loading page", want)
		}
	}
}

func TestRenderLoadingWithoutJob(t *testing.T) {
	out := render(t, PageData{Domain: "example.com", Loading: true})
	if !strings.Contains(out, `pollForArticles("example.com", "")`) {
		t.Error("expected polling without a job to follow")
	}
}

func TestRenderFilteredSource(t *testing.T) {
	out := render(t, PageData{
		Domain:         "example.com",
		SelectedSource: "example.com",
		Sources:        []string{"example.com"},
		Articles: []browse.Summary{
			{Title: "One", URL: "https://example.com/news/one", Language: "ar", Sentiment: "positive"},
		},
	})

	if !strings.Contains(out, `<option value="example.com" selected>`) {
		t.Error("expected selected source in dropdown")
	}
	if !strings.Contains(out, "AR | Positive") {
		t.Error("expected language and sentiment line")
	}
	if strings.Contains(out, `pollForArticles("`) {
		t.Error("stored-only listing must not poll")
	}
}

func TestRenderNoArticles(t *testing.T) {
	out := render(t, PageData{Domain: "empty.example.org", Notice: "queue is full"})
	if !strings.Contains(out, "No articles found for this site.") {
		t.Error("expected empty-site message")
	}
	if !strings.Contains(out, "queue is full") {
		t.Error("expected notice")
	}
}

func TestCapitalize(t *testing.T) {
	tests := map[string]string{"": "", "positive": "Positive", "NEUTRAL": "Neutral", "n": "N"}
	for in, want := range tests {
		if got := capitalize(in); got != want {
			t.Errorf("capitalize(%q) = %q, want %q", in, got, want)
		}
	}
}
