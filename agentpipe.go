// Package agentpipe provides a high-level façade over the pipeline runner,
// job tracker and service abstractions (catalog, retrieval & logging)
// enabling rapid construction of agent-set pipeline systems. Most
// applications interact with this package by:
//  1. Creating an AgentPipe via New() (optionally overriding default in-memory services)
//  2. Registering agents and agent sets through the catalog
//  3. Running pipelines synchronously (RunSync) or asynchronously
//     (RunAsync + Status/Result polling)
//
// The façade delegates execution to pipeline.Runner and lifecycle tracking
// to job.Tracker while keeping setup and usage ergonomics concise. All
// defaults are safe for local development and testing; production
// deployments typically supply a real model invoker, a durable catalog and
// a structured logger.
package agentpipe

import (
	"context"
	"time"

	"github.com/hupe1980/agentpipe/catalog"
	"github.com/hupe1980/agentpipe/core"
	"github.com/hupe1980/agentpipe/job"
	"github.com/hupe1980/agentpipe/logging"
	"github.com/hupe1980/agentpipe/model"
	"github.com/hupe1980/agentpipe/pipeline"
	"github.com/hupe1980/agentpipe/retrieval"
)

// Options configures the AgentPipe instance.
type Options struct {
	// Catalog stores agent and agent-set definitions
	// (defaults to an in-memory implementation if not provided).
	Catalog core.Catalog

	// Retriever supplies per-section context for RAG-enabled runs
	// (defaults to an in-memory document store).
	Retriever core.Retriever

	// Invoker performs model invocations
	// (defaults to a MockInvoker; supply a real provider for production).
	Invoker model.Invoker

	// Workers sets the async worker pool size.
	Workers int

	// QueueSize sets the async submission queue capacity.
	QueueSize int

	// SectionConcurrency bounds concurrently processed sections per run.
	SectionConcurrency int

	// BatchSize is the default group size for batched stages.
	BatchSize int

	// CallTimeout bounds each individual model invocation.
	CallTimeout time.Duration

	// Logger (defaults to NoOp logger if nil).
	Logger logging.Logger
}

// AgentPipe is the high-level façade aggregating the runner, tracker and services.
type AgentPipe struct {
	opts    Options
	catalog core.Catalog
	runner  *pipeline.Runner
	tracker *job.Tracker
}

// New creates a new AgentPipe instance with optional overrides. Any unset
// service is initialized with an in-memory implementation.
func New(optFns ...func(o *Options)) *AgentPipe {
	opts := Options{
		Catalog:            catalog.NewInMemoryStore(),
		Retriever:          retrieval.NewDocStore(),
		Invoker:            model.NewMockInvoker(),
		Workers:            4,
		QueueSize:          64,
		SectionConcurrency: 1,
		BatchSize:          3,
		CallTimeout:        2 * time.Minute,
		Logger:             logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	runner := pipeline.NewRunner(opts.Catalog, opts.Invoker, func(o *pipeline.Options) {
		o.Retriever = opts.Retriever
		o.SectionConcurrency = opts.SectionConcurrency
		o.CallTimeout = opts.CallTimeout
		o.DefaultBatchSize = opts.BatchSize
		o.Logger = opts.Logger
	})

	tracker := job.NewTracker(runner, func(o *job.Options) {
		o.Workers = opts.Workers
		o.QueueSize = opts.QueueSize
		o.Logger = opts.Logger
	})

	return &AgentPipe{opts: opts, catalog: opts.Catalog, runner: runner, tracker: tracker}
}

// Catalog exposes the agent/agent-set store for registration and listing.
func (p *AgentPipe) Catalog() core.Catalog { return p.catalog }

// Runner exposes the underlying pipeline runner.
func (p *AgentPipe) Runner() *pipeline.Runner { return p.runner }

// Tracker exposes the underlying job tracker.
func (p *AgentPipe) Tracker() *job.Tracker { return p.tracker }

// RunSync executes a pipeline synchronously, blocking until the full result
// is available or ctx expires.
func (p *AgentPipe) RunSync(ctx context.Context, req pipeline.Request) (*core.PipelineResult, error) {
	return p.runner.Execute(ctx, req)
}

// RunAsync submits a pipeline for background execution and returns its
// job identifier immediately.
func (p *AgentPipe) RunAsync(req pipeline.Request) (string, error) {
	return p.tracker.Submit(req)
}

// Status returns the current snapshot of an async job.
func (p *AgentPipe) Status(pipelineID string) (*core.PipelineJob, error) {
	return p.tracker.Status(pipelineID)
}

// Result returns the full result of a COMPLETED async job.
func (p *AgentPipe) Result(pipelineID string) (*core.PipelineResult, error) {
	return p.tracker.Result(pipelineID)
}

// List returns job summaries, most recent first.
func (p *AgentPipe) List(limit int) []core.JobSummary {
	return p.tracker.List(limit)
}

// Close stops accepting submissions and drains in-flight jobs.
func (p *AgentPipe) Close() { p.tracker.Close() }
