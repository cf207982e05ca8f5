package core

import "errors"

var (
	// ErrInvalidInput marks requests rejected before any job is created:
	// empty input text, unknown agent-set ids, malformed section modes.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound is returned for status/result queries on unknown job ids
	// and for catalog lookups of unknown agents or sets.
	ErrNotFound = errors.New("not found")

	// ErrNotReady is returned when a job's result is requested before the
	// job has reached COMPLETED.
	ErrNotReady = errors.New("result not ready")

	// ErrRetrieval marks a degraded retrieval: the pipeline logs it and
	// continues without context for the affected section.
	ErrRetrieval = errors.New("retrieval failed")

	// ErrPipeline is reserved for systemic failures outside individual
	// agent control; it marks the whole job FAILED.
	ErrPipeline = errors.New("pipeline failure")
)
