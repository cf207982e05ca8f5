// Package pipeline drives the section x stage execution matrix for one run.
//
// The Executor runs one stage (a set of agent instances sharing an execution
// mode) against one section's accumulated placeholder bindings. The Runner
// sequences stages strictly in declared order within a section, threads each
// stage's consolidated output into later stages' bindings, processes
// sections independently, and consolidates everything into a single
// PipelineResult.
//
// Failure policy: an individual agent invocation failure is captured as data
// (success=false) and never aborts sibling invocations, the stage, or the
// pipeline. Only systemic failures (catalog unavailable, context canceled,
// invariant violations) abort a run.
package pipeline
