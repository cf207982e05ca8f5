package job

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hupe1980/agentpipe/core"
	"github.com/hupe1980/agentpipe/logging"
	"github.com/hupe1980/agentpipe/pipeline"
)

// Options holds configuration overrides passed to NewTracker.
type Options struct {
	// Workers sets the size of the bounded worker pool.
	Workers int
	// QueueSize sets the submission queue capacity. Submit fails once the
	// queue is full rather than blocking the caller.
	QueueSize int
	// Logger receives lifecycle diagnostics.
	Logger logging.Logger
}

type submission struct {
	jobID string
	req   pipeline.Request
}

// Tracker owns the job table and the worker pool executing submitted
// pipelines. The table requires synchronized read/write per job id but no
// cross-job locking; reads return clones so tracker state never escapes.
type Tracker struct {
	runner *pipeline.Runner
	logger logging.Logger

	mu    sync.RWMutex
	jobs  map[string]*core.PipelineJob
	order []string // submission order, oldest first

	queue  chan submission
	wg     sync.WaitGroup
	closed bool
}

// NewTracker constructs a Tracker and starts its worker pool.
func NewTracker(runner *pipeline.Runner, optFns ...func(o *Options)) *Tracker {
	opts := Options{
		Workers:   4,
		QueueSize: 64,
		Logger:    logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.QueueSize < 1 {
		opts.QueueSize = 1
	}

	t := &Tracker{
		runner: runner,
		logger: opts.Logger,
		jobs:   make(map[string]*core.PipelineJob),
		queue:  make(chan submission, opts.QueueSize),
	}

	for i := 0; i < opts.Workers; i++ {
		t.wg.Add(1)
		go t.worker()
	}

	return t
}

// Submit validates the request, records a QUEUED job and enqueues it for
// execution. It never blocks: the job identifier returns immediately, and a
// full queue is reported as an error instead of backpressure on the caller.
func (t *Tracker) Submit(req pipeline.Request) (string, error) {
	set, err := t.runner.Validate(req)
	if err != nil {
		return "", err
	}

	job := &core.PipelineJob{
		ID:              core.NewID(),
		Title:           req.Title,
		AgentSetID:      set.ID,
		AgentSetName:    set.Name,
		Status:          core.JobQueued,
		ProgressMessage: "Queued",
		Created:         time.Now(),
	}

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return "", fmt.Errorf("%w: tracker is closed", core.ErrPipeline)
	}
	t.jobs[job.ID] = job
	t.order = append(t.order, job.ID)
	t.mu.Unlock()

	select {
	case t.queue <- submission{jobID: job.ID, req: req}:
	default:
		t.fail(job.ID, "submission queue full")
		return "", fmt.Errorf("%w: submission queue full", core.ErrPipeline)
	}

	t.logger.Info("pipeline job submitted", "pipeline_id", job.ID, "agent_set", set.Name)
	return job.ID, nil
}

// Status returns a snapshot of the job or ErrNotFound for unknown ids.
// Snapshots of terminal jobs are identical across repeated calls.
func (t *Tracker) Status(jobID string) (*core.PipelineJob, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	job, ok := t.jobs[jobID]
	if !ok {
		return nil, fmt.Errorf("%w: pipeline %s", core.ErrNotFound, jobID)
	}
	return job.Clone(), nil
}

// Result returns the full pipeline result. It fails with ErrNotReady unless
// the job has reached COMPLETED.
func (t *Tracker) Result(jobID string) (*core.PipelineResult, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	job, ok := t.jobs[jobID]
	if !ok {
		return nil, fmt.Errorf("%w: pipeline %s", core.ErrNotFound, jobID)
	}
	if job.Status != core.JobCompleted {
		return nil, fmt.Errorf("%w: pipeline %s is %s", core.ErrNotReady, jobID, job.Status)
	}
	return job.Clone().Result, nil
}

// List returns job summaries, most recent first, bounded by limit
// (limit <= 0 returns all).
func (t *Tracker) List(limit int) []core.JobSummary {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]core.JobSummary, 0, len(t.order))
	for i := len(t.order) - 1; i >= 0; i-- {
		if limit > 0 && len(out) >= limit {
			break
		}
		out = append(out, t.jobs[t.order[i]].Summary())
	}
	return out
}

// Close stops accepting submissions and waits for all queued and running
// jobs to complete. Job state remains queryable afterwards.
func (t *Tracker) Close() {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	t.closed = true
	t.mu.Unlock()

	close(t.queue)
	t.wg.Wait()
}

func (t *Tracker) worker() {
	defer t.wg.Done()
	for sub := range t.queue {
		t.execute(sub)
	}
}

func (t *Tracker) execute(sub submission) {
	t.transition(sub.jobID, core.JobProcessing, "Processing")

	result, err := t.runner.ExecuteWithProgress(context.Background(), sub.req, func(progress int, message string) {
		t.updateProgress(sub.jobID, progress, message)
	})
	if err != nil {
		t.logger.Error("pipeline job failed", "pipeline_id", sub.jobID, "error", err)
		t.fail(sub.jobID, err.Error())
		return
	}

	t.complete(sub.jobID, result)
	t.logger.Info("pipeline job completed", "pipeline_id", sub.jobID)
}

func (t *Tracker) transition(jobID string, status core.JobStatus, message string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	job, ok := t.jobs[jobID]
	if !ok || job.Status.Terminal() {
		return
	}
	job.Status = status
	job.ProgressMessage = message
}

// updateProgress keeps progress monotonically non-decreasing and never
// touches terminal jobs.
func (t *Tracker) updateProgress(jobID string, progress int, message string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	job, ok := t.jobs[jobID]
	if !ok || job.Status.Terminal() {
		return
	}
	if progress > job.Progress {
		job.Progress = progress
	}
	job.ProgressMessage = message
}

// complete is the single COMPLETED transition: it carries the full result.
func (t *Tracker) complete(jobID string, result *core.PipelineResult) {
	t.mu.Lock()
	defer t.mu.Unlock()
	job, ok := t.jobs[jobID]
	if !ok || job.Status.Terminal() {
		return
	}
	job.Status = core.JobCompleted
	job.Progress = 100
	job.ProgressMessage = "Completed"
	job.Result = result
}

// fail is the single FAILED transition: it carries the error detail and
// discards any partial results already computed.
func (t *Tracker) fail(jobID string, detail string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	job, ok := t.jobs[jobID]
	if !ok || job.Status.Terminal() {
		return
	}
	job.Status = core.JobFailed
	job.ProgressMessage = "Failed"
	job.Error = detail
	job.Result = nil
}
