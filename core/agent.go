package core

import (
	"fmt"
	"time"
)

// AgentRole categorizes the function an agent plays inside a pipeline.
// The enumeration is closed; catalogs reject definitions outside it.
type AgentRole string

const (
	// RoleActor extracts or produces primary analysis from a section.
	RoleActor AgentRole = "actor"
	// RoleCritic synthesizes and deduplicates outputs from prior agents.
	RoleCritic AgentRole = "critic"
	// RoleContradiction detects conflicts in upstream outputs.
	RoleContradiction AgentRole = "contradiction"
	// RoleGapAnalysis identifies missing coverage in upstream outputs.
	RoleGapAnalysis AgentRole = "gap_analysis"
	// RoleCompliance evaluates content against requirements and standards.
	RoleCompliance AgentRole = "compliance"
	// RoleGeneral is an unconstrained single-purpose agent.
	RoleGeneral AgentRole = "general"
	// RoleRuleDevelopment specializes in document analysis and rule creation.
	RoleRuleDevelopment AgentRole = "rule_development"
	// RoleCustom marks a user-defined role outside the built-in taxonomy.
	RoleCustom AgentRole = "custom"
)

// Valid reports whether the role is a member of the closed enumeration.
func (r AgentRole) Valid() bool {
	switch r {
	case RoleActor, RoleCritic, RoleContradiction, RoleGapAnalysis,
		RoleCompliance, RoleGeneral, RoleRuleDevelopment, RoleCustom:
		return true
	}
	return false
}

// AgentDefinition is a configured prompt + model unit performing one model
// invocation per stage execution. Definitions are owned by the catalog and
// treated as immutable for the duration of a run.
type AgentDefinition struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Role         AgentRole `json:"role"`
	ModelName    string    `json:"model_name"`
	Temperature  float64   `json:"temperature"`
	MaxTokens    int64     `json:"max_tokens"`
	SystemPrompt string    `json:"system_prompt"`
	// UserPromptTemplate may reference the recognized placeholder
	// vocabulary (see Bindings); unresolved placeholders render empty.
	UserPromptTemplate string    `json:"user_prompt_template"`
	Active             bool      `json:"is_active"`
	Default            bool      `json:"is_default"`
	Description        string    `json:"description,omitempty"`
	Created            time.Time `json:"created_at,omitempty"`
}

// Validate checks a definition against catalog admission rules.
func (d AgentDefinition) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("%w: agent name is required", ErrInvalidInput)
	}
	if !d.Role.Valid() {
		return fmt.Errorf("%w: unknown agent role %q", ErrInvalidInput, d.Role)
	}
	if d.ModelName == "" {
		return fmt.Errorf("%w: agent %s: model name is required", ErrInvalidInput, d.Name)
	}
	if d.Temperature < 0 || d.Temperature > 1 {
		return fmt.Errorf("%w: agent %s: temperature %.2f outside [0,1]", ErrInvalidInput, d.Name, d.Temperature)
	}
	if d.MaxTokens <= 0 {
		return fmt.Errorf("%w: agent %s: max tokens must be positive", ErrInvalidInput, d.Name)
	}
	if d.UserPromptTemplate == "" {
		return fmt.Errorf("%w: agent %s: user prompt template is required", ErrInvalidInput, d.Name)
	}
	return nil
}

// ExecutionMode selects how the agent instances of a stage are scheduled.
type ExecutionMode string

const (
	// ModeParallel invokes every instance concurrently.
	ModeParallel ExecutionMode = "parallel"
	// ModeSequential invokes instances one at a time in list order,
	// threading each output into the next via the previous_output binding.
	ModeSequential ExecutionMode = "sequential"
	// ModeBatched invokes fixed-size concurrent groups, group after group.
	ModeBatched ExecutionMode = "batched"
)

// Valid reports whether the mode is recognized.
func (m ExecutionMode) Valid() bool {
	switch m {
	case ModeParallel, ModeSequential, ModeBatched:
		return true
	}
	return false
}

// Stage is one pipeline step: an ordered list of agent-instance references
// sharing an execution mode. An agent id may repeat; "N parallel actors" is
// expressed as N entries referencing the same definition.
type Stage struct {
	Name          string        `json:"stage_name"`
	AgentIDs      []string      `json:"agent_ids"`
	ExecutionMode ExecutionMode `json:"execution_mode"`
	Description   string        `json:"description,omitempty"`
	// BatchSize bounds in-flight invocations for ModeBatched; zero falls
	// back to the executor default.
	BatchSize int `json:"batch_size,omitempty"`
}

// SetType is advisory metadata describing an agent set's overall shape.
// Per-stage ExecutionMode remains the sole execution authority.
type SetType string

const (
	// SetTypeSequence describes sets whose stages form a linear refinement chain.
	SetTypeSequence SetType = "sequence"
	// SetTypeParallel describes sets dominated by fan-out stages.
	SetTypeParallel SetType = "parallel"
	// SetTypeCustom describes any other arrangement.
	SetTypeCustom SetType = "custom"
)

// AgentSet is a named pipeline of ordered stages. Stage order is dependency
// order: stage i's aggregated output is visible to stage i+1's prompt
// placeholders.
type AgentSet struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	SetType     SetType   `json:"set_type"`
	Stages      []Stage   `json:"stages"`
	Active      bool      `json:"is_active"`
	Default     bool      `json:"is_default"`
	UsageCount  int64     `json:"usage_count"`
	Created     time.Time `json:"created_at,omitempty"`
}

// AgentInstanceCount returns the total number of agent-instance references
// across all stages.
func (s AgentSet) AgentInstanceCount() int {
	n := 0
	for _, st := range s.Stages {
		n += len(st.AgentIDs)
	}
	return n
}

// Clone returns a deep copy safe for divergence from catalog state.
func (s AgentSet) Clone() AgentSet {
	out := s
	out.Stages = make([]Stage, len(s.Stages))
	for i, st := range s.Stages {
		cp := st
		cp.AgentIDs = append([]string(nil), st.AgentIDs...)
		out.Stages[i] = cp
	}
	return out
}
