// Package job owns the asynchronous pipeline job lifecycle: submission,
// status and progress updates, result storage, listing and resumable lookup
// by identifier.
//
// A bounded worker pool executes submitted jobs; submission only enqueues
// work and returns a job identifier. Job state lives independent of any
// caller's connection: a second client can resume polling by id after the
// submitting client disconnects, and terminal jobs are never mutated.
package job
