package types

import (
	"net/url"
	"strings"
	"time"
)

// Sentiment is the polarity label attached to an article.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

// Valid reports whether s is one of the three labels.
func (s Sentiment) Valid() bool {
	switch s {
	case SentimentPositive, SentimentNeutral, SentimentNegative:
		return true
	}
	return false
}

// Article is a single news article, keyed by URL.
type Article struct {
	URL       string    `bson:"url" json:"url"`
	Source    string    `bson:"source" json:"source"`
	Title     string    `bson:"title" json:"title"`
	Body      string    `bson:"body" json:"body"`
	Language  string    `bson:"language" json:"language"`
	Sentiment Sentiment `bson:"sentiment,omitempty" json:"sentiment,omitempty"`

	// Date is either a string or epoch milliseconds, depending on who wrote the record.
	Date any `bson:"date,omitempty" json:"date,omitempty"`

	Author    string   `bson:"author,omitempty" json:"author,omitempty"`
	Category  string   `bson:"category,omitempty" json:"category,omitempty"`
	Tags      []string `bson:"tags,omitempty" json:"tags,omitempty"`
	Summary   string   `bson:"summary,omitempty" json:"summary,omitempty"`
	WordCount int      `bson:"word_count,omitempty" json:"word_count,omitempty"`
}

// NewArticle creates an Article for rawURL with its source already derived.
func NewArticle(rawURL string) *Article {
	return &Article{
		URL:    rawURL,
		Source: SourceFromURL(rawURL),
	}
}

// NeedsSentiment reports whether the stored sentiment is missing or unusable.
func (a *Article) NeedsSentiment() bool {
	return !a.Sentiment.Valid()
}

// Clone returns a copy that shares no slices with a.
func (a *Article) Clone() *Article {
	c := *a
	c.Tags = append([]string(nil), a.Tags...)
	return &c
}

// SourceFromURL returns the lower-cased host of rawURL with a single leading
// "www." removed. Unparseable input yields "".
func SourceFromURL(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Host == "" {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	return strings.TrimPrefix(host, "www.")
}

// DateMillis converts t to the epoch-millisecond form used for stored dates.
func DateMillis(t time.Time) int64 {
	return t.UnixMilli()
}
