// Package engine runs scrape jobs on a bounded worker pool.
package engine

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/IshaanNene/InsightBot/internal/config"
	"github.com/IshaanNene/InsightBot/internal/observability"
	"github.com/IshaanNene/InsightBot/internal/pipeline"
	"github.com/IshaanNene/InsightBot/internal/types"
)

// historyLimit caps how many finished jobs are kept for inspection.
const historyLimit = 500

// State represents the engine's current lifecycle state.
type State int32

const (
	StateIdle     State = 0
	StateRunning  State = 1
	StateStopping State = 2
	StateStopped  State = 3
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Processor scrapes one site. *pipeline.Processor satisfies it.
type Processor interface {
	ProcessWebsite(ctx context.Context, siteURL string) (pipeline.Report, error)
}

// Stats is a point-in-time view of the engine.
type Stats struct {
	State   string `json:"state"`
	Workers int    `json:"workers"`
	Queued  int    `json:"queued"`
	Pending int    `json:"pending"`
	Running int    `json:"running"`
	Done    int    `json:"done"`
	Failed  int    `json:"failed"`
	Total   int    `json:"total"`
}

// Engine accepts scrape jobs and runs them on engine.concurrency workers.
// At most one job per domain is pending or running at a time; submitting a
// site whose domain already has one returns that job.
type Engine struct {
	cfg       config.EngineConfig
	processor Processor
	metrics   *observability.Metrics
	logger    *slog.Logger

	queue chan *Job
	state atomic.Int32

	mu      sync.RWMutex
	jobs    map[string]*Job
	order   []string
	active  map[string]*Job
	entropy *ulid.MonotonicEntropy

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates an Engine. A nil metrics gets a private instance.
func New(cfg config.EngineConfig, processor Processor, metrics *observability.Metrics, logger *slog.Logger) *Engine {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = cfg.Concurrency
	}
	if metrics == nil {
		metrics = observability.NewMetrics(logger)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Engine{
		cfg:       cfg,
		processor: processor,
		metrics:   metrics,
		logger:    logger.With("component", "engine"),
		queue:     make(chan *Job, cfg.QueueSize),
		jobs:      make(map[string]*Job),
		active:    make(map[string]*Job),
		entropy:   ulid.Monotonic(rand.Reader, 0),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Start launches the worker pool. Jobs submitted before Start wait in the
// queue. Cancelling ctx has the same effect as Stop on running jobs.
func (e *Engine) Start(ctx context.Context) error {
	if !e.state.CompareAndSwap(int32(StateIdle), int32(StateRunning)) {
		return fmt.Errorf("engine is in state %s, cannot start", State(e.state.Load()))
	}

	e.logger.Info("starting worker pool",
		"workers", e.cfg.Concurrency,
		"queue_size", e.cfg.QueueSize,
		"job_timeout", e.cfg.JobTimeout,
	)

	go func() {
		select {
		case <-ctx.Done():
			e.cancel()
		case <-e.ctx.Done():
		}
	}()

	for i := 0; i < e.cfg.Concurrency; i++ {
		e.wg.Add(1)
		go e.worker(i)
	}
	return nil
}

// Submit queues a scrape of siteURL. If a job for the same domain is
// already pending or running, that job is returned instead. A full queue
// yields types.ErrQueueFull; a stopped engine yields types.ErrStopped.
func (e *Engine) Submit(siteURL string) (*Job, error) {
	req, err := types.NewRequest(siteURL)
	if err != nil {
		return nil, err
	}
	domain := types.SourceFromURL(req.URLString())
	if domain == "" {
		return nil, fmt.Errorf("%w: %q", types.ErrInvalidURL, siteURL)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if s := State(e.state.Load()); s == StateStopping || s == StateStopped {
		return nil, types.ErrStopped
	}

	if existing, ok := e.active[domain]; ok {
		e.metrics.JobsCoalesced.Add(1)
		e.logger.Debug("coalesced into existing job", "job_id", existing.ID, "domain", domain)
		return existing, nil
	}

	job := newJob(ulid.MustNew(ulid.Now(), e.entropy).String(), siteURL, domain)

	select {
	case e.queue <- job:
	default:
		e.metrics.JobsRejected.Add(1)
		return nil, types.ErrQueueFull
	}

	e.jobs[job.ID] = job
	e.order = append(e.order, job.ID)
	e.active[domain] = job
	e.prune()

	e.metrics.JobsSubmitted.Add(1)
	e.metrics.QueueDepth.Add(1)
	e.logger.Info("job submitted", "job_id", job.ID, "site", siteURL, "domain", domain)
	return job, nil
}

// Get returns the job with id.
func (e *Engine) Get(id string) (*Job, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	j, ok := e.jobs[id]
	return j, ok
}

// List returns every retained job, newest first.
func (e *Engine) List() []JobView {
	e.mu.RLock()
	jobs := make([]*Job, 0, len(e.order))
	for _, id := range e.order {
		jobs = append(jobs, e.jobs[id])
	}
	e.mu.RUnlock()

	views := make([]JobView, 0, len(jobs))
	for _, j := range jobs {
		views = append(views, j.View())
	}
	sort.SliceStable(views, func(a, b int) bool {
		return views[a].ID > views[b].ID
	})
	return views
}

// Stats returns counts of jobs by status.
func (e *Engine) Stats() Stats {
	e.mu.RLock()
	defer e.mu.RUnlock()

	s := Stats{
		State:   e.GetState().String(),
		Workers: e.cfg.Concurrency,
		Queued:  len(e.queue),
		Total:   len(e.jobs),
	}
	for _, j := range e.jobs {
		switch j.Status() {
		case JobPending:
			s.Pending++
		case JobRunning:
			s.Running++
		case JobDone:
			s.Done++
		case JobFailed:
			s.Failed++
		}
	}
	return s
}

// GetState returns the current engine state.
func (e *Engine) GetState() State {
	return State(e.state.Load())
}

// Stop stops accepting jobs, cancels running ones and waits for the
// workers to exit. Jobs still queued fail with types.ErrStopped.
func (e *Engine) Stop() {
	e.mu.Lock()
	prev := State(e.state.Swap(int32(StateStopping)))
	if prev == StateStopping || prev == StateStopped {
		e.state.Store(int32(prev))
		e.mu.Unlock()
		return
	}
	close(e.queue)
	e.mu.Unlock()

	e.logger.Info("engine stopping")
	e.cancel()

	if prev == StateIdle {
		// No workers were started; fail what was queued.
		for job := range e.queue {
			e.metrics.QueueDepth.Add(-1)
			e.complete(job, pipeline.Report{Site: job.Site, Domain: job.Domain}, types.ErrStopped)
		}
	}
	e.wg.Wait()

	e.state.Store(int32(StateStopped))
	e.logger.Info("engine stopped", "stats", e.Stats())
}

func (e *Engine) worker(id int) {
	defer e.wg.Done()
	logger := e.logger.With("worker_id", id)

	for job := range e.queue {
		e.metrics.QueueDepth.Add(-1)

		if e.ctx.Err() != nil {
			e.complete(job, pipeline.Report{Site: job.Site, Domain: job.Domain}, types.ErrStopped)
			continue
		}
		e.run(logger, job)
	}
}

func (e *Engine) run(logger *slog.Logger, job *Job) {
	job.start()
	e.metrics.ActiveWorkers.Add(1)
	defer e.metrics.ActiveWorkers.Add(-1)

	logger.Info("job started", "job_id", job.ID, "site", job.Site)

	ctx := e.ctx
	if e.cfg.JobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.JobTimeout)
		defer cancel()
	}

	start := time.Now()
	report, err := e.processor.ProcessWebsite(ctx, job.Site)
	e.complete(job, report, err)

	if err != nil {
		logger.Error("job failed", "job_id", job.ID, "site", job.Site, "error", err, "duration", time.Since(start))
		return
	}
	logger.Info("job finished", "job_id", job.ID, "site", job.Site, "new", report.New, "updated", report.Updated, "duration", time.Since(start))
}

func (e *Engine) complete(job *Job, report pipeline.Report, err error) {
	job.finish(report, err)
	if err != nil {
		e.metrics.JobsFailed.Add(1)
	} else {
		e.metrics.JobsCompleted.Add(1)
	}

	e.mu.Lock()
	if e.active[job.Domain] == job {
		delete(e.active, job.Domain)
	}
	e.mu.Unlock()
}

// prune drops the oldest finished jobs beyond historyLimit. Callers hold e.mu.
func (e *Engine) prune() {
	excess := len(e.order) - historyLimit
	if excess <= 0 {
		return
	}
	kept := e.order[:0]
	for _, id := range e.order {
		if excess > 0 {
			if j := e.jobs[id]; j.isFinished() {
				delete(e.jobs, id)
				excess--
				continue
			}
		}
		kept = append(kept, id)
	}
	e.order = kept
}
