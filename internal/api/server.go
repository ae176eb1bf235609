package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/IshaanNene/InsightBot/internal/browse"
	"github.com/IshaanNene/InsightBot/internal/config"
	"github.com/IshaanNene/InsightBot/internal/dashboard"
	"github.com/IshaanNene/InsightBot/internal/engine"
	"github.com/IshaanNene/InsightBot/internal/observability"
	"github.com/IshaanNene/InsightBot/internal/types"
)

// Server serves the article explorer page, its JSON endpoints and the job API.
type Server struct {
	mux     *http.ServeMux
	cfg     *config.Config
	browse  *browse.Service
	jobs    JobQueue
	metrics *observability.Metrics
	logger  *slog.Logger
}

// JobQueue is the part of the job engine the API drives. *engine.Engine satisfies it.
type JobQueue interface {
	Submit(siteURL string) (*engine.Job, error)
	Get(id string) (*engine.Job, bool)
	List() []engine.JobView
	Stats() engine.Stats
}

// NewServer creates a new API server. metrics may be nil.
func NewServer(cfg *config.Config, browser *browse.Service, jobs JobQueue, metrics *observability.Metrics, logger *slog.Logger) *Server {
	s := &Server{
		mux:     http.NewServeMux(),
		cfg:     cfg,
		browse:  browser,
		jobs:    jobs,
		metrics: metrics,
		logger:  logger.With("component", "api_server"),
	}

	s.registerRoutes()
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.logRequests(s.mux)
}

// ListenAndServe serves on server.addr until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Server.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       s.cfg.Server.ReadTimeout,
		WriteTimeout:      s.cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("API server starting", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.logger.Info("API server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) registerRoutes() {
	// Explorer page
	s.mux.HandleFunc("GET /{$}", s.handleIndex)
	s.mux.HandleFunc("POST /{$}", s.handleIndex)
	s.mux.HandleFunc("GET /more_articles", s.handleMoreArticles)
	s.mux.HandleFunc("GET /latest_articles", s.handleLatestArticles)
	s.mux.HandleFunc("GET /article_details", s.handleArticleDetails)

	// Health
	s.mux.HandleFunc("GET /api/health", s.handleHealth)

	// Jobs
	s.mux.HandleFunc("POST /api/jobs", s.handleCreateJob)
	s.mux.HandleFunc("GET /api/jobs", s.handleListJobs)
	s.mux.HandleFunc("GET /api/jobs/{id}", s.handleGetJob)

	// Stats
	s.mux.HandleFunc("GET /api/stats", s.handleStats)

	if s.metrics != nil && s.cfg.Metrics.Enabled {
		path := s.cfg.Metrics.Path
		if path == "" {
			path = "/metrics"
		}
		s.mux.Handle("GET "+path, s.metrics)
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	data := dashboard.PageData{
		InitialCount: browse.PageSize,
		Version:      config.Version,
	}

	sources, err := s.browse.Sources(ctx)
	if err != nil {
		s.logger.Error("listing sources failed", "error", err)
	}
	data.Sources = sources

	if r.Method == http.MethodPost {
		if err := r.ParseForm(); err != nil {
			s.jsonResponse(w, http.StatusBadRequest, map[string]string{"error": "invalid form"})
			return
		}
		data.SiteURL = strings.TrimSpace(r.PostFormValue("site_url"))
		data.SelectedSource = strings.TrimSpace(r.PostFormValue("filter_source"))
		action := r.PostFormValue("action")

		switch {
		case data.SelectedSource != "":
			data.Domain = data.SelectedSource
			data.Articles = s.articlesFor(ctx, data.Domain)
		case data.SiteURL != "":
			data.Domain = types.SourceFromURL(data.SiteURL)
			if data.Domain == "" {
				data.Notice = "Enter a full website URL, e.g. https://www.example.com/"
				break
			}
			data.Articles = s.articlesFor(ctx, data.Domain)
			if action == "fetch" {
				s.startFetch(&data)
			}
		}
	}

	if data.Domain == "" {
		landing, err := s.browse.Landing(ctx)
		if err != nil {
			s.logger.Error("sampling articles failed", "error", err)
		}
		data.AllArticles = landing
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := dashboard.Render(w, data); err != nil {
		s.logger.Error("rendering page failed", "error", err)
	}
}

func (s *Server) articlesFor(ctx context.Context, domain string) []browse.Summary {
	list, err := s.browse.BySource(ctx, domain)
	if err != nil {
		s.logger.Error("listing articles failed", "source", domain, "error", err)
		return nil
	}
	return list
}

func (s *Server) startFetch(data *dashboard.PageData) {
	job, err := s.jobs.Submit(data.SiteURL)
	switch {
	case err == nil:
		data.Loading = true
		data.JobID = job.ID
	case errors.Is(err, types.ErrQueueFull):
		data.Notice = "Too many scrapes are queued right now, please try again shortly."
	case errors.Is(err, types.ErrStopped):
		data.Notice = "The server is shutting down."
	default:
		data.Notice = "Could not start a scrape for that URL."
		s.logger.Warn("job submission rejected", "site", data.SiteURL, "error", err)
	}
}

func (s *Server) handleMoreArticles(w http.ResponseWriter, r *http.Request) {
	offset, err := strconv.Atoi(r.URL.Query().Get("offset"))
	if err != nil {
		offset = 0
	}

	page, err := s.browse.More(r.Context(), offset)
	if err != nil {
		s.logger.Error("loading more articles failed", "offset", offset, "error", err)
		page = browse.Page{Articles: []browse.Summary{}}
	}
	s.jsonResponse(w, http.StatusOK, page)
}

func (s *Server) handleLatestArticles(w http.ResponseWriter, r *http.Request) {
	domain := r.URL.Query().Get("domain")
	list, err := s.browse.Latest(r.Context(), domain)
	if err != nil {
		s.logger.Error("loading latest articles failed", "domain", domain, "error", err)
		list = []browse.Summary{}
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"articles": list})
}

func (s *Server) handleArticleDetails(w http.ResponseWriter, r *http.Request) {
	url := r.URL.Query().Get("url")
	detail, err := s.browse.Details(r.Context(), url)
	if err != nil {
		if !errors.Is(err, types.ErrNotFound) {
			s.logger.Error("loading article failed", "url", url, "error", err)
		}
		s.jsonResponse(w, http.StatusNotFound, map[string]string{"error": "Not found"})
		return
	}
	s.jsonResponse(w, http.StatusOK, detail)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": config.Version,
	})
}

func (s *Server) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	var body struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.jsonResponse(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	job, err := s.jobs.Submit(strings.TrimSpace(body.URL))
	switch {
	case err == nil:
		s.jsonResponse(w, http.StatusAccepted, job.View())
	case errors.Is(err, types.ErrQueueFull):
		w.Header().Set("Retry-After", "30")
		s.jsonResponse(w, http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
	case errors.Is(err, types.ErrStopped):
		s.jsonResponse(w, http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
	default:
		s.jsonResponse(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, http.StatusOK, s.jobs.List())
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	job, ok := s.jobs.Get(r.PathValue("id"))
	if !ok {
		s.jsonResponse(w, http.StatusNotFound, map[string]string{"error": "job not found"})
		return
	}
	s.jsonResponse(w, http.StatusOK, job.View())
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats := map[string]any{
		"timestamp": time.Now().Format(time.RFC3339),
		"engine":    s.jobs.Stats(),
	}
	if s.metrics != nil {
		stats["metrics"] = s.metrics.Snapshot()
	}
	s.jsonResponse(w, http.StatusOK, stats)
}

func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Debug("writing response failed", "error", err)
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("request", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}
