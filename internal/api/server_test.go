package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/IshaanNene/InsightBot/internal/browse"
	"github.com/IshaanNene/InsightBot/internal/config"
	"github.com/IshaanNene/InsightBot/internal/engine"
	"github.com/IshaanNene/InsightBot/internal/observability"
	"github.com/IshaanNene/InsightBot/internal/pipeline"
	"github.com/IshaanNene/InsightBot/internal/storage"
	"github.com/IshaanNene/InsightBot/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

type stubProcessor struct {
	gate chan struct{}
}

func (p *stubProcessor) ProcessWebsite(ctx context.Context, siteURL string) (pipeline.Report, error) {
	select {
	case <-p.gate:
	case <-ctx.Done():
		return pipeline.Report{}, ctx.Err()
	}
	return pipeline.Report{Site: siteURL, Domain: types.SourceFromURL(siteURL)}, nil
}

type fixture struct {
	store   *storage.MemoryStore
	engine  *engine.Engine
	handler http.Handler
}

func newFixture(t *testing.T, queueSize int) *fixture {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Engine.Concurrency = 1
	cfg.Engine.QueueSize = queueSize

	store := storage.NewMemoryStore()
	metrics := observability.NewMetrics(testLogger)
	proc := &stubProcessor{gate: make(chan struct{})}
	eng := engine.New(cfg.Engine, proc, metrics, testLogger)
	t.Cleanup(func() {
		close(proc.gate)
		eng.Stop()
	})

	srv := NewServer(cfg, browse.NewService(store, testLogger), eng, metrics, testLogger)
	return &fixture{store: store, engine: eng, handler: srv.Handler()}
}

func (f *fixture) seed(t *testing.T, source string, n int) {
	t.Helper()
	var batch []*types.Article
	for i := 0; i < n; i++ {
		a := types.NewArticle(fmt.Sprintf("https://%s/news/item-%d", source, i))
		a.Title = fmt.Sprintf("Item %d", i)
		a.Body = "Body of item"
		a.Language = "en"
		a.Sentiment = types.SentimentPositive
		a.Date = int64(1714557600000)
		batch = append(batch, a)
	}
	if _, err := f.store.InsertMany(context.Background(), batch); err != nil {
		t.Fatalf("seed: %v", err)
	}
}

func (f *fixture) do(method, target string, body string, contentType string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", contentType)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

func TestMoreArticlesEmptyCollection(t *testing.T) {
	f := newFixture(t, 4)
	rec := f.do(http.MethodGet, "/more_articles?offset=0", "", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != `{"articles":[],"count":0,"has_more":false}` {
		t.Errorf("unexpected body %s", got)
	}
}

func TestMoreArticlesMalformedOffset(t *testing.T) {
	f := newFixture(t, 4)
	f.seed(t, "example.com", 12)

	for _, q := range []string{"offset=abc", "offset=-3", "", "offset=99999999999999999999"} {
		rec := f.do(http.MethodGet, "/more_articles?"+q, "", "")
		if rec.Code != http.StatusOK {
			t.Errorf("%q: expected 200, got %d", q, rec.Code)
			continue
		}
		var page browse.Page
		decode(t, rec, &page)
		if page.Count != 10 || !page.HasMore {
			t.Errorf("%q: expected offset treated as 0, got %+v", q, page)
		}
	}
}

func TestLatestArticles(t *testing.T) {
	f := newFixture(t, 4)
	f.seed(t, "example.com", 35)

	var out struct {
		Articles []browse.Summary `json:"articles"`
	}
	decode(t, f.do(http.MethodGet, "/latest_articles?domain=example.com", "", ""), &out)
	if len(out.Articles) != 30 || out.Articles[0].Title != "Item 34" {
		t.Errorf("expected 30 newest-first articles, got %d", len(out.Articles))
	}

	rec := f.do(http.MethodGet, "/latest_articles", "", "")
	if strings.TrimSpace(rec.Body.String()) != `{"articles":[]}` {
		t.Errorf("expected empty list without domain, got %s", rec.Body.String())
	}
}

func TestArticleDetails(t *testing.T) {
	f := newFixture(t, 4)
	f.seed(t, "example.com", 1)

	target := "/article_details?url=" + url.QueryEscape("https://example.com/news/item-0")
	rec := f.do(http.MethodGet, target, "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var d browse.Detail
	decode(t, rec, &d)
	if d.Title != "Item 0" || d.Date != "2024-05-01 10:00" || d.Sentiment != "positive" {
		t.Errorf("unexpected detail %+v", d)
	}

	for _, q := range []string{"?url=" + url.QueryEscape("https://example.com/missing"), "", "?url=%zz"} {
		rec := f.do(http.MethodGet, "/article_details"+q, "", "")
		if rec.Code != http.StatusNotFound {
			t.Errorf("%q: expected 404, got %d", q, rec.Code)
		}
		if strings.TrimSpace(rec.Body.String()) != `{"error":"Not found"}` {
			t.Errorf("%q: unexpected body %s", q, rec.Body.String())
		}
	}
}

func TestIndexGet(t *testing.T) {
	f := newFixture(t, 4)
	f.seed(t, "example.com", 3)

	rec := f.do(http.MethodGet, "/", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "All Articles") || !strings.Contains(body, "Item 2") {
		t.Error("expected landing sample on GET")
	}
	if !strings.Contains(body, `<option value="example.com">`) {
		t.Error("expected source in filter dropdown")
	}

	if rec := f.do(http.MethodGet, "/nope", "", ""); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown path, got %d", rec.Code)
	}
}

func TestIndexPostFetchSubmitsJob(t *testing.T) {
	f := newFixture(t, 4)
	f.seed(t, "example.com", 2)

	form := url.Values{"site_url": {"https://www.example.com/"}, "action": {"fetch"}}
	rec := f.do(http.MethodPost, "/", form.Encode(), "application/x-www-form-urlencoded")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Articles from example.com") || !strings.Contains(body, "Item 1") {
		t.Error("expected stored articles for the domain")
	}

	jobs := f.engine.List()
	if len(jobs) != 1 || jobs[0].Domain != "example.com" {
		t.Fatalf("expected one job for example.com, got %+v", jobs)
	}
	if want := `pollForArticles("example.com", "` + jobs[0].ID + `")`; !strings.Contains(body, want) {
		t.Errorf("expected polling script to follow the job, want %s", want)
	}
}

func TestIndexPostShowAndFilter(t *testing.T) {
	f := newFixture(t, 4)
	f.seed(t, "example.com", 1)
	f.seed(t, "other.org", 1)

	form := url.Values{"site_url": {"https://example.com/"}, "action": {"show"}}
	body := f.do(http.MethodPost, "/", form.Encode(), "application/x-www-form-urlencoded").Body.String()
	if strings.Contains(body, `pollForArticles("`) {
		t.Error("show must not poll")
	}
	if len(f.engine.List()) != 0 {
		t.Error("show must not submit a job")
	}

	form = url.Values{"site_url": {"https://example.com/"}, "filter_source": {"other.org"}}
	body = f.do(http.MethodPost, "/", form.Encode(), "application/x-www-form-urlencoded").Body.String()
	if !strings.Contains(body, "Articles from other.org") {
		t.Error("filter must take precedence over site URL")
	}

	form = url.Values{"site_url": {"not a url"}, "action": {"fetch"}}
	rec := f.do(http.MethodPost, "/", form.Encode(), "application/x-www-form-urlencoded")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Enter a full website URL") {
		t.Errorf("expected notice for bad URL, got %d", rec.Code)
	}
}

func TestJobsAPI(t *testing.T) {
	f := newFixture(t, 1)

	rec := f.do(http.MethodPost, "/api/jobs", `{"url":"https://example.com/"}`, "application/json")
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}
	var view engine.JobView
	decode(t, rec, &view)
	if view.ID == "" || view.Domain != "example.com" || view.Status != engine.JobPending {
		t.Errorf("unexpected job view %+v", view)
	}

	// Same domain coalesces even with the queue full.
	rec = f.do(http.MethodPost, "/api/jobs", `{"url":"https://www.example.com/world"}`, "application/json")
	var again engine.JobView
	decode(t, rec, &again)
	if rec.Code != http.StatusAccepted || again.ID != view.ID {
		t.Errorf("expected coalesced job %s, got %d %+v", view.ID, rec.Code, again)
	}

	rec = f.do(http.MethodPost, "/api/jobs", `{"url":"https://other.org/"}`, "application/json")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 on full queue, got %d", rec.Code)
	}

	for _, bad := range []string{`{"url":"example.com"}`, `{not json`} {
		if rec := f.do(http.MethodPost, "/api/jobs", bad, "application/json"); rec.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", bad, rec.Code)
		}
	}

	rec = f.do(http.MethodGet, "/api/jobs/"+view.ID, "", "")
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 for job lookup, got %d", rec.Code)
	}
	if rec := f.do(http.MethodGet, "/api/jobs/unknown", "", ""); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown job, got %d", rec.Code)
	}

	var list []engine.JobView
	decode(t, f.do(http.MethodGet, "/api/jobs", "", ""), &list)
	if len(list) != 1 {
		t.Errorf("expected 1 job, got %d", len(list))
	}
}

func TestJobRunsToCompletion(t *testing.T) {
	cfg := config.DefaultConfig()
	store := storage.NewMemoryStore()
	proc := &stubProcessor{gate: make(chan struct{})}
	close(proc.gate)
	eng := engine.New(cfg.Engine, proc, nil, testLogger)
	if err := eng.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer eng.Stop()

	handler := NewServer(cfg, browse.NewService(store, testLogger), eng, nil, testLogger).Handler()
	req := httptest.NewRequest(http.MethodPost, "/api/jobs", strings.NewReader(`{"url":"https://example.com/"}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	var view engine.JobView
	decode(t, rec, &view)
	job, ok := eng.Get(view.ID)
	if !ok {
		t.Fatalf("job %s not found", view.ID)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := job.Wait(ctx); err != nil {
		t.Fatalf("job failed: %v", err)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/jobs/"+view.ID, nil))
	decode(t, rec, &view)
	if view.Status != engine.JobDone || view.Report == nil {
		t.Errorf("expected finished job with report, got %+v", view)
	}

	// No metrics instance, no /metrics route.
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 without metrics, got %d", rec.Code)
	}
}

func TestHealthStatsMetrics(t *testing.T) {
	f := newFixture(t, 4)

	var health map[string]string
	decode(t, f.do(http.MethodGet, "/api/health", "", ""), &health)
	if health["status"] != "ok" {
		t.Errorf("unexpected health %v", health)
	}

	var stats struct {
		Engine  engine.Stats     `json:"engine"`
		Metrics map[string]int64 `json:"metrics"`
	}
	decode(t, f.do(http.MethodGet, "/api/stats", "", ""), &stats)
	if stats.Engine.Workers != 1 || stats.Metrics == nil {
		t.Errorf("unexpected stats %+v", stats)
	}

	rec := f.do(http.MethodGet, "/metrics", "", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "insightbot_jobs_submitted_total") {
		t.Errorf("expected prometheus output, got %d", rec.Code)
	}
}
