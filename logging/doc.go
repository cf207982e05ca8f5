// Package logging provides a minimal logging interface and adapters for AgentPipe.
//
// The Logger interface defines the standard logging methods (Debug, Info, Warn, Error)
// that the pipeline runner, job tracker and server use for observability. This
// package includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter wrapping Go's structured logging
//   - NoOpLogger for silent operation (testing, minimal setups)
//   - PipeLogger with contextual helpers (component, job) and domain
//     specific helpers for model calls and stage executions
//
// Usage:
//
//	logger := logging.NewSlogLogger(logging.LogLevelInfo, "json", false)
//	tracker := job.NewTracker(runner, func(o *job.Options) { o.Logger = logger })
//
// The design intentionally keeps the interface minimal to avoid vendor lock-in
// while supporting structured logging where available.
package logging
