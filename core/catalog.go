package core

// Catalog is the agent/agent-set definition store consumed by the pipeline
// runner. It is read-mostly during a run; only the usage counter mutates.
type Catalog interface {
	// GetAgent returns the definition for the given agent id or ErrNotFound.
	GetAgent(id string) (AgentDefinition, error)

	// GetAgentSet returns the set for the given id or ErrNotFound.
	GetAgentSet(id string) (AgentSet, error)

	// ListAgentSets returns all known sets; activeOnly filters inactive ones.
	ListAgentSets(activeOnly bool) ([]AgentSet, error)

	// IncrementUsage atomically bumps a set's usage counter. The runner
	// calls it exactly once per successfully completed run.
	IncrementUsage(setID string) error
}
