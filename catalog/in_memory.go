package catalog

import (
	"fmt"
	"sync"
	"time"

	"github.com/hupe1980/agentpipe/core"
	"github.com/hupe1980/agentpipe/internal/util"
)

// InMemoryStore is a volatile core.Catalog implementation storing agent and
// agent-set definitions in process local maps. It is safe for concurrent
// access and best suited for tests, demos and single-node deployments.
// Returned definitions are copies to prevent external mutation of internal
// state; only IncrementUsage mutates a set during a run.
type InMemoryStore struct {
	mu     sync.RWMutex
	agents map[string]core.AgentDefinition
	sets   map[string]core.AgentSet
}

// NewInMemoryStore constructs an empty in-memory catalog.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		agents: make(map[string]core.AgentDefinition),
		sets:   make(map[string]core.AgentSet),
	}
}

// PutAgent validates and stores an agent definition, assigning an id and
// created timestamp when absent. The prompt template must parse here; its
// placeholder vocabulary is checked later, when the agent joins a set.
func (s *InMemoryStore) PutAgent(def core.AgentDefinition) (core.AgentDefinition, error) {
	if err := def.Validate(); err != nil {
		return core.AgentDefinition{}, err
	}
	if _, err := util.TemplatePlaceholders(def.UserPromptTemplate); err != nil {
		return core.AgentDefinition{}, fmt.Errorf("%w: agent %s: malformed prompt template: %v", core.ErrInvalidInput, def.Name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if def.ID == "" {
		def.ID = core.NewID()
	}
	if def.Created.IsZero() {
		def.Created = time.Now()
	}
	s.agents[def.ID] = def
	return def, nil
}

// GetAgent implements core.Catalog.
func (s *InMemoryStore) GetAgent(id string) (core.AgentDefinition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	def, ok := s.agents[id]
	if !ok {
		return core.AgentDefinition{}, fmt.Errorf("%w: agent %s", core.ErrNotFound, id)
	}
	return def, nil
}

// ListAgents returns all definitions; activeOnly filters inactive ones.
func (s *InMemoryStore) ListAgents(activeOnly bool) ([]core.AgentDefinition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.AgentDefinition, 0, len(s.agents))
	for _, def := range s.agents {
		if activeOnly && !def.Active {
			continue
		}
		out = append(out, def)
	}
	return out, nil
}

// SetAgentActive toggles an agent's active flag (soft delete / restore).
func (s *InMemoryStore) SetAgentActive(id string, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	def, ok := s.agents[id]
	if !ok {
		return fmt.Errorf("%w: agent %s", core.ErrNotFound, id)
	}
	def.Active = active
	s.agents[id] = def
	return nil
}

// DeleteAgent permanently removes an inactive agent. Active agents must be
// deactivated first; this mirrors the dashboard's two-step delete workflow.
func (s *InMemoryStore) DeleteAgent(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	def, ok := s.agents[id]
	if !ok {
		return fmt.Errorf("%w: agent %s", core.ErrNotFound, id)
	}
	if def.Active {
		return fmt.Errorf("%w: agent %s is active; deactivate before deleting", core.ErrInvalidInput, id)
	}
	delete(s.agents, id)
	return nil
}

// PutAgentSet validates and stores an agent set. Every referenced agent
// must exist, every stage needs a name, at least one instance and a valid
// execution mode, and every referenced agent's prompt template may only use
// the base placeholder vocabulary plus outputs of earlier stages.
func (s *InMemoryStore) PutAgentSet(set core.AgentSet) (core.AgentSet, error) {
	if set.Name == "" {
		return core.AgentSet{}, fmt.Errorf("%w: agent set name is required", core.ErrInvalidInput)
	}
	if len(set.Stages) == 0 {
		return core.AgentSet{}, fmt.Errorf("%w: agent set %s has no stages", core.ErrInvalidInput, set.Name)
	}
	if set.SetType == "" {
		set.SetType = core.SetTypeCustom
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.validateStagesLocked(set); err != nil {
		return core.AgentSet{}, err
	}

	if set.ID == "" {
		set.ID = core.NewID()
	}
	if set.Created.IsZero() {
		set.Created = time.Now()
	}
	s.sets[set.ID] = set.Clone()
	return set, nil
}

func (s *InMemoryStore) validateStagesLocked(set core.AgentSet) error {
	allowed := map[string]struct{}{
		core.PlaceholderSectionTitle:   {},
		core.PlaceholderSectionContent: {},
		core.PlaceholderRAGContext:     {},
		core.PlaceholderDataSample:     {},
		core.PlaceholderPreviousOutput: {},
	}
	seen := map[string]struct{}{}

	for i, stage := range set.Stages {
		if stage.Name == "" {
			return fmt.Errorf("%w: agent set %s: stage %d has no name", core.ErrInvalidInput, set.Name, i+1)
		}
		if _, dup := seen[stage.Name]; dup {
			return fmt.Errorf("%w: agent set %s: duplicate stage name %q", core.ErrInvalidInput, set.Name, stage.Name)
		}
		seen[stage.Name] = struct{}{}
		if len(stage.AgentIDs) == 0 {
			return fmt.Errorf("%w: agent set %s: stage %s has no agents", core.ErrInvalidInput, set.Name, stage.Name)
		}
		if !stage.ExecutionMode.Valid() {
			return fmt.Errorf("%w: agent set %s: stage %s: unknown execution mode %q", core.ErrInvalidInput, set.Name, stage.Name, stage.ExecutionMode)
		}
		if stage.BatchSize < 0 {
			return fmt.Errorf("%w: agent set %s: stage %s: negative batch size", core.ErrInvalidInput, set.Name, stage.Name)
		}

		for _, agentID := range stage.AgentIDs {
			def, ok := s.agents[agentID]
			if !ok {
				return fmt.Errorf("%w: agent set %s: stage %s references unknown agent %s", core.ErrInvalidInput, set.Name, stage.Name, agentID)
			}
			names, err := util.TemplatePlaceholders(def.UserPromptTemplate)
			if err != nil {
				return fmt.Errorf("%w: agent %s: malformed prompt template: %v", core.ErrInvalidInput, def.Name, err)
			}
			for _, name := range names {
				if _, ok := allowed[name]; !ok {
					return fmt.Errorf("%w: agent set %s: stage %s: agent %s references placeholder %q not produced by any prior stage", core.ErrInvalidInput, set.Name, stage.Name, def.Name, name)
				}
			}
		}

		// This stage's output becomes available to all later stages.
		allowed[core.StageOutputKey(stage.Name)] = struct{}{}
	}
	return nil
}

// GetAgentSet implements core.Catalog.
func (s *InMemoryStore) GetAgentSet(id string) (core.AgentSet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	set, ok := s.sets[id]
	if !ok {
		return core.AgentSet{}, fmt.Errorf("%w: agent set %s", core.ErrNotFound, id)
	}
	return set.Clone(), nil
}

// ListAgentSets implements core.Catalog.
func (s *InMemoryStore) ListAgentSets(activeOnly bool) ([]core.AgentSet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.AgentSet, 0, len(s.sets))
	for _, set := range s.sets {
		if activeOnly && !set.Active {
			continue
		}
		out = append(out, set.Clone())
	}
	return out, nil
}

// IncrementUsage implements core.Catalog. The runner calls it exactly once
// per successfully completed run.
func (s *InMemoryStore) IncrementUsage(setID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.sets[setID]
	if !ok {
		return fmt.Errorf("%w: agent set %s", core.ErrNotFound, setID)
	}
	set.UsageCount++
	s.sets[setID] = set
	return nil
}

// SetAgentSetActive toggles a set's active flag (soft delete / restore).
func (s *InMemoryStore) SetAgentSetActive(id string, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.sets[id]
	if !ok {
		return fmt.Errorf("%w: agent set %s", core.ErrNotFound, id)
	}
	set.Active = active
	s.sets[id] = set
	return nil
}

// DeleteAgentSet permanently removes an inactive agent set.
func (s *InMemoryStore) DeleteAgentSet(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.sets[id]
	if !ok {
		return fmt.Errorf("%w: agent set %s", core.ErrNotFound, id)
	}
	if set.Active {
		return fmt.Errorf("%w: agent set %s is active; deactivate before deleting", core.ErrInvalidInput, id)
	}
	delete(s.sets, id)
	return nil
}
