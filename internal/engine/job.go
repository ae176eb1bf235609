package engine

import (
	"context"
	"sync"
	"time"

	"github.com/IshaanNene/InsightBot/internal/pipeline"
)

// JobStatus is the lifecycle state of a scrape job.
type JobStatus string

const (
	JobPending JobStatus = "pending"
	JobRunning JobStatus = "running"
	JobDone    JobStatus = "done"
	JobFailed  JobStatus = "failed"
)

// Job is one asynchronous ProcessWebsite run.
type Job struct {
	ID        string
	Site      string
	Domain    string
	CreatedAt time.Time

	mu         sync.RWMutex
	status     JobStatus
	report     pipeline.Report
	err        error
	startedAt  time.Time
	finishedAt time.Time
	done       chan struct{}
}

// JobView is a read-only copy of a job's state.
type JobView struct {
	ID         string           `json:"id"`
	Site       string           `json:"site"`
	Domain     string           `json:"domain"`
	Status     JobStatus        `json:"status"`
	Report     *pipeline.Report `json:"report,omitempty"`
	Error      string           `json:"error,omitempty"`
	CreatedAt  time.Time        `json:"created_at"`
	StartedAt  *time.Time       `json:"started_at,omitempty"`
	FinishedAt *time.Time       `json:"finished_at,omitempty"`
}

func newJob(id, site, domain string) *Job {
	return &Job{
		ID:        id,
		Site:      site,
		Domain:    domain,
		CreatedAt: time.Now(),
		status:    JobPending,
		done:      make(chan struct{}),
	}
}

// Done is closed when the job finishes, successfully or not.
func (j *Job) Done() <-chan struct{} {
	return j.done
}

// Status returns the current status.
func (j *Job) Status() JobStatus {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.status
}

// Result returns the report and error of a finished job.
func (j *Job) Result() (pipeline.Report, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.report, j.err
}

// Wait blocks until the job finishes or ctx is done.
func (j *Job) Wait(ctx context.Context) (pipeline.Report, error) {
	select {
	case <-j.done:
		return j.Result()
	case <-ctx.Done():
		return pipeline.Report{}, ctx.Err()
	}
}

// View returns a snapshot of the job.
func (j *Job) View() JobView {
	j.mu.RLock()
	defer j.mu.RUnlock()

	v := JobView{
		ID:        j.ID,
		Site:      j.Site,
		Domain:    j.Domain,
		Status:    j.status,
		CreatedAt: j.CreatedAt,
	}
	if !j.startedAt.IsZero() {
		t := j.startedAt
		v.StartedAt = &t
	}
	if j.finished() {
		t := j.finishedAt
		v.FinishedAt = &t
		r := j.report
		v.Report = &r
	}
	if j.err != nil {
		v.Error = j.err.Error()
	}
	return v
}

func (j *Job) isFinished() bool {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.finished()
}

func (j *Job) finished() bool {
	return j.status == JobDone || j.status == JobFailed
}

func (j *Job) start() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.status = JobRunning
	j.startedAt = time.Now()
}

func (j *Job) finish(report pipeline.Report, err error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.finished() {
		return
	}
	j.report = report
	j.err = err
	j.finishedAt = time.Now()
	if err != nil {
		j.status = JobFailed
	} else {
		j.status = JobDone
	}
	close(j.done)
}
