package observability

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"

	"github.com/IshaanNene/InsightBot/internal/types"
)

// Metrics tracks operational metrics for InsightBot.
type Metrics struct {
	// Job metrics
	JobsSubmitted atomic.Int64
	JobsCoalesced atomic.Int64
	JobsRejected  atomic.Int64
	JobsCompleted atomic.Int64
	JobsFailed    atomic.Int64

	// Fetch metrics
	RequestsTotal   atomic.Int64
	RequestsFailed  atomic.Int64
	Responses2xx    atomic.Int64
	Responses4xx    atomic.Int64
	Responses5xx    atomic.Int64
	BytesDownloaded atomic.Int64

	// Article metrics
	ArticlesInserted  atomic.Int64
	ArticlesUpdated   atomic.Int64
	ArticlesUnchanged atomic.Int64
	ArticlesSkipped   atomic.Int64

	// Engine metrics
	ActiveWorkers atomic.Int32
	QueueDepth    atomic.Int64

	logger *slog.Logger
}

// NewMetrics creates a new Metrics instance.
func NewMetrics(logger *slog.Logger) *Metrics {
	return &Metrics{
		logger: logger.With("component", "metrics"),
	}
}

// RecordFetch counts one fetch attempt and its outcome.
func (m *Metrics) RecordFetch(resp *types.Response, err error) {
	m.RequestsTotal.Add(1)

	status := 0
	if resp != nil {
		status = resp.StatusCode
		m.BytesDownloaded.Add(int64(len(resp.Body)))
	}
	var fe *types.FetchError
	if errors.As(err, &fe) && fe.StatusCode > 0 {
		status = fe.StatusCode
	}

	switch {
	case status >= 500:
		m.Responses5xx.Add(1)
	case status >= 400:
		m.Responses4xx.Add(1)
	case status >= 200 && status < 300:
		m.Responses2xx.Add(1)
	}
	if err != nil {
		m.RequestsFailed.Add(1)
	}
}

// RecordArticles adds the per-article outcome counts of one scrape run.
func (m *Metrics) RecordArticles(inserted, updated, unchanged, skipped int) {
	m.ArticlesInserted.Add(int64(inserted))
	m.ArticlesUpdated.Add(int64(updated))
	m.ArticlesUnchanged.Add(int64(unchanged))
	m.ArticlesSkipped.Add(int64(skipped))
}

type metricLine struct {
	name  string
	help  string
	kind  string
	value int64
}

func (m *Metrics) lines() []metricLine {
	return []metricLine{
		{"insightbot_jobs_submitted_total", "Total scrape jobs accepted", "counter", m.JobsSubmitted.Load()},
		{"insightbot_jobs_coalesced_total", "Total submissions folded into an existing job", "counter", m.JobsCoalesced.Load()},
		{"insightbot_jobs_rejected_total", "Total submissions rejected by a full queue", "counter", m.JobsRejected.Load()},
		{"insightbot_jobs_completed_total", "Total scrape jobs completed", "counter", m.JobsCompleted.Load()},
		{"insightbot_jobs_failed_total", "Total scrape jobs failed", "counter", m.JobsFailed.Load()},
		{"insightbot_requests_total", "Total page fetches", "counter", m.RequestsTotal.Load()},
		{"insightbot_requests_failed_total", "Total failed page fetches", "counter", m.RequestsFailed.Load()},
		{"insightbot_responses_2xx_total", "Total 2xx responses", "counter", m.Responses2xx.Load()},
		{"insightbot_responses_4xx_total", "Total 4xx responses", "counter", m.Responses4xx.Load()},
		{"insightbot_responses_5xx_total", "Total 5xx responses", "counter", m.Responses5xx.Load()},
		{"insightbot_bytes_downloaded_total", "Total bytes downloaded", "counter", m.BytesDownloaded.Load()},
		{"insightbot_articles_inserted_total", "Total new articles stored", "counter", m.ArticlesInserted.Load()},
		{"insightbot_articles_updated_total", "Total stored articles given a sentiment", "counter", m.ArticlesUpdated.Load()},
		{"insightbot_articles_unchanged_total", "Total stored articles seen again", "counter", m.ArticlesUnchanged.Load()},
		{"insightbot_articles_skipped_total", "Total article candidates skipped", "counter", m.ArticlesSkipped.Load()},
		{"insightbot_active_workers", "Currently active workers", "gauge", int64(m.ActiveWorkers.Load())},
		{"insightbot_queue_depth", "Jobs waiting in the queue", "gauge", m.QueueDepth.Load()},
	}
}

// ServeHTTP serves metrics in Prometheus text exposition format.
func (m *Metrics) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")

	for _, metric := range m.lines() {
		fmt.Fprintf(w, "# HELP %s %s\n", metric.name, metric.help)
		fmt.Fprintf(w, "# TYPE %s %s\n", metric.name, metric.kind)
		fmt.Fprintf(w, "%s %d\n", metric.name, metric.value)
	}
}

// Snapshot returns all metrics as a map.
func (m *Metrics) Snapshot() map[string]int64 {
	return map[string]int64{
		"jobs_submitted":     m.JobsSubmitted.Load(),
		"jobs_coalesced":     m.JobsCoalesced.Load(),
		"jobs_rejected":      m.JobsRejected.Load(),
		"jobs_completed":     m.JobsCompleted.Load(),
		"jobs_failed":        m.JobsFailed.Load(),
		"requests_total":     m.RequestsTotal.Load(),
		"requests_failed":    m.RequestsFailed.Load(),
		"bytes_downloaded":   m.BytesDownloaded.Load(),
		"articles_inserted":  m.ArticlesInserted.Load(),
		"articles_updated":   m.ArticlesUpdated.Load(),
		"articles_unchanged": m.ArticlesUnchanged.Load(),
		"articles_skipped":   m.ArticlesSkipped.Load(),
		"active_workers":     int64(m.ActiveWorkers.Load()),
		"queue_depth":        m.QueueDepth.Load(),
	}
}

// LogSummary writes the current counters at info level.
func (m *Metrics) LogSummary() {
	args := make([]any, 0, 2*len(m.lines()))
	for k, v := range m.Snapshot() {
		args = append(args, k, v)
	}
	m.logger.Info("metrics summary", args...)
}
