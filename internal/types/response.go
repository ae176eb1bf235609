package types

import (
	"bytes"
	"net/http"
	"net/url"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// Response is the result of fetching a Request.
type Response struct {
	StatusCode  int
	Headers     http.Header
	Body        []byte
	Request     *Request
	ContentType string

	// FinalURL is the URL after any redirects.
	FinalURL string

	// Doc is the parsed goquery document, loaded on first use.
	Doc *goquery.Document

	FetchDuration time.Duration
	FetchedAt     time.Time
}

// NewResponse creates a Response from an http.Response.
func NewResponse(req *Request, httpResp *http.Response, body []byte, duration time.Duration) *Response {
	return &Response{
		StatusCode:    httpResp.StatusCode,
		Headers:       httpResp.Header,
		Body:          body,
		Request:       req,
		ContentType:   httpResp.Header.Get("Content-Type"),
		FinalURL:      httpResp.Request.URL.String(),
		FetchDuration: duration,
		FetchedAt:     time.Now(),
	}
}

// NewBrowserResponse creates a Response from headless browser output.
func NewBrowserResponse(req *Request, statusCode int, body []byte, finalURL string, duration time.Duration) *Response {
	return &Response{
		StatusCode:    statusCode,
		Headers:       make(http.Header),
		Body:          body,
		Request:       req,
		ContentType:   "text/html",
		FinalURL:      finalURL,
		FetchDuration: duration,
		FetchedAt:     time.Now(),
	}
}

// NewStaticResponse wraps an HTML body that did not come from the network.
func NewStaticResponse(rawURL string, body []byte) *Response {
	req, err := NewRequest(rawURL)
	if err != nil {
		req = &Request{Headers: make(http.Header), Meta: make(map[string]any)}
	}
	return &Response{
		StatusCode:  http.StatusOK,
		Headers:     make(http.Header),
		Body:        body,
		Request:     req,
		ContentType: "text/html",
		FinalURL:    rawURL,
		FetchedAt:   time.Now(),
	}
}

// Document returns a parsed goquery document, lazily initializing it.
func (r *Response) Document() (*goquery.Document, error) {
	if r.Doc != nil {
		return r.Doc, nil
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(r.Body))
	if err != nil {
		return nil, err
	}
	r.Doc = doc
	return doc, nil
}

// BaseURL returns the URL relative links on the page resolve against.
func (r *Response) BaseURL() *url.URL {
	if r.FinalURL != "" {
		if u, err := url.Parse(r.FinalURL); err == nil {
			return u
		}
	}
	if r.Request != nil {
		return r.Request.URL
	}
	return nil
}

// IsSuccess returns true if the response status is 2xx.
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}
