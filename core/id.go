package core

import "github.com/google/uuid"

// NewID generates a new unique identifier for jobs, agents and agent sets.
func NewID() string { return uuid.NewString() }
