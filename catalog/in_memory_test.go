package catalog

import (
	"testing"

	"github.com/hupe1980/agentpipe/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validAgent() core.AgentDefinition {
	return core.AgentDefinition{
		Name:               "Requirement Extractor",
		Role:               core.RoleActor,
		ModelName:          "test-model",
		Temperature:        0.3,
		MaxTokens:          1024,
		SystemPrompt:       "You extract requirements.",
		UserPromptTemplate: "Analyze {{.section_title}}:\n{{.section_content}}",
		Active:             true,
	}
}

func TestInMemoryStore_PutAndGetAgent(t *testing.T) {
	store := NewInMemoryStore()

	def, err := store.PutAgent(validAgent())
	require.NoError(t, err)
	assert.NotEmpty(t, def.ID)
	assert.False(t, def.Created.IsZero())

	got, err := store.GetAgent(def.ID)
	require.NoError(t, err)
	assert.Equal(t, def, got)

	_, err = store.GetAgent("missing")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestInMemoryStore_PutAgentRejectsInvalid(t *testing.T) {
	store := NewInMemoryStore()

	bad := validAgent()
	bad.Temperature = 1.5
	_, err := store.PutAgent(bad)
	assert.ErrorIs(t, err, core.ErrInvalidInput)

	bad = validAgent()
	bad.Role = "overlord"
	_, err = store.PutAgent(bad)
	assert.ErrorIs(t, err, core.ErrInvalidInput)

	bad = validAgent()
	bad.UserPromptTemplate = "{{.section_content"
	_, err = store.PutAgent(bad)
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestInMemoryStore_ListAgentsActiveOnly(t *testing.T) {
	store := NewInMemoryStore()

	active, err := store.PutAgent(validAgent())
	require.NoError(t, err)

	inactive := validAgent()
	inactive.Name = "Retired"
	inactive.Active = false
	_, err = store.PutAgent(inactive)
	require.NoError(t, err)

	all, err := store.ListAgents(false)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	onlyActive, err := store.ListAgents(true)
	require.NoError(t, err)
	require.Len(t, onlyActive, 1)
	assert.Equal(t, active.ID, onlyActive[0].ID)
}

func TestInMemoryStore_DeleteAgentRequiresInactive(t *testing.T) {
	store := NewInMemoryStore()

	def, err := store.PutAgent(validAgent())
	require.NoError(t, err)

	err = store.DeleteAgent(def.ID)
	assert.ErrorIs(t, err, core.ErrInvalidInput)

	require.NoError(t, store.SetAgentActive(def.ID, false))
	require.NoError(t, store.DeleteAgent(def.ID))

	_, err = store.GetAgent(def.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestInMemoryStore_PutAgentSet(t *testing.T) {
	store := NewInMemoryStore()

	actor, err := store.PutAgent(validAgent())
	require.NoError(t, err)

	critic := validAgent()
	critic.Name = "Requirement Synthesizer"
	critic.Role = core.RoleCritic
	critic.UserPromptTemplate = "Synthesize:\n{{.actor_output}}"
	criticDef, err := store.PutAgent(critic)
	require.NoError(t, err)

	set, err := store.PutAgentSet(core.AgentSet{
		Name: "Extraction Pipeline",
		Stages: []core.Stage{
			{Name: "actor", AgentIDs: []string{actor.ID, actor.ID, actor.ID}, ExecutionMode: core.ModeParallel},
			{Name: "critic", AgentIDs: []string{criticDef.ID}, ExecutionMode: core.ModeSequential},
		},
		Active: true,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, set.ID)
	assert.Equal(t, core.SetTypeCustom, set.SetType)
	assert.Equal(t, 4, set.AgentInstanceCount())

	got, err := store.GetAgentSet(set.ID)
	require.NoError(t, err)
	assert.Equal(t, set.Stages, got.Stages)

	// Mutating the returned copy must not affect stored state.
	got.Stages[0].AgentIDs[0] = "tampered"
	again, err := store.GetAgentSet(set.ID)
	require.NoError(t, err)
	assert.Equal(t, actor.ID, again.Stages[0].AgentIDs[0])
}

func TestInMemoryStore_PutAgentSetValidation(t *testing.T) {
	store := NewInMemoryStore()

	actor, err := store.PutAgent(validAgent())
	require.NoError(t, err)

	tests := []struct {
		name string
		set  core.AgentSet
	}{
		{
			name: "no name",
			set: core.AgentSet{Stages: []core.Stage{
				{Name: "actor", AgentIDs: []string{actor.ID}, ExecutionMode: core.ModeParallel},
			}},
		},
		{
			name: "no stages",
			set:  core.AgentSet{Name: "Empty"},
		},
		{
			name: "unknown agent",
			set: core.AgentSet{Name: "Broken", Stages: []core.Stage{
				{Name: "actor", AgentIDs: []string{"ghost"}, ExecutionMode: core.ModeParallel},
			}},
		},
		{
			name: "duplicate stage name",
			set: core.AgentSet{Name: "Dup", Stages: []core.Stage{
				{Name: "actor", AgentIDs: []string{actor.ID}, ExecutionMode: core.ModeParallel},
				{Name: "actor", AgentIDs: []string{actor.ID}, ExecutionMode: core.ModeParallel},
			}},
		},
		{
			name: "bad execution mode",
			set: core.AgentSet{Name: "BadMode", Stages: []core.Stage{
				{Name: "actor", AgentIDs: []string{actor.ID}, ExecutionMode: "quantum"},
			}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := store.PutAgentSet(tt.set)
			assert.ErrorIs(t, err, core.ErrInvalidInput)
		})
	}
}

func TestInMemoryStore_PutAgentSetStageOrderGatesPlaceholders(t *testing.T) {
	store := NewInMemoryStore()

	actor, err := store.PutAgent(validAgent())
	require.NoError(t, err)

	critic := validAgent()
	critic.Name = "Synthesizer"
	critic.Role = core.RoleCritic
	critic.UserPromptTemplate = "Review {{.actor_output}}"
	criticDef, err := store.PutAgent(critic)
	require.NoError(t, err)

	// actor_output only exists after the actor stage, so a critic placed
	// first must be rejected.
	_, err = store.PutAgentSet(core.AgentSet{
		Name: "Inverted",
		Stages: []core.Stage{
			{Name: "critic", AgentIDs: []string{criticDef.ID}, ExecutionMode: core.ModeSequential},
			{Name: "actor", AgentIDs: []string{actor.ID}, ExecutionMode: core.ModeParallel},
		},
	})
	assert.ErrorIs(t, err, core.ErrInvalidInput)

	_, err = store.PutAgentSet(core.AgentSet{
		Name: "Ordered",
		Stages: []core.Stage{
			{Name: "actor", AgentIDs: []string{actor.ID}, ExecutionMode: core.ModeParallel},
			{Name: "critic", AgentIDs: []string{criticDef.ID}, ExecutionMode: core.ModeSequential},
		},
	})
	assert.NoError(t, err)
}

func TestInMemoryStore_IncrementUsage(t *testing.T) {
	store := NewInMemoryStore()

	actor, err := store.PutAgent(validAgent())
	require.NoError(t, err)

	set, err := store.PutAgentSet(core.AgentSet{
		Name: "Counted",
		Stages: []core.Stage{
			{Name: "actor", AgentIDs: []string{actor.ID}, ExecutionMode: core.ModeParallel},
		},
	})
	require.NoError(t, err)

	require.NoError(t, store.IncrementUsage(set.ID))
	require.NoError(t, store.IncrementUsage(set.ID))

	got, err := store.GetAgentSet(set.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.UsageCount)

	assert.ErrorIs(t, store.IncrementUsage("missing"), core.ErrNotFound)
}

func TestInMemoryStore_DeleteAgentSetRequiresInactive(t *testing.T) {
	store := NewInMemoryStore()

	actor, err := store.PutAgent(validAgent())
	require.NoError(t, err)

	set, err := store.PutAgentSet(core.AgentSet{
		Name:   "Doomed",
		Active: true,
		Stages: []core.Stage{
			{Name: "actor", AgentIDs: []string{actor.ID}, ExecutionMode: core.ModeParallel},
		},
	})
	require.NoError(t, err)

	assert.ErrorIs(t, store.DeleteAgentSet(set.ID), core.ErrInvalidInput)

	require.NoError(t, store.SetAgentSetActive(set.ID, false))
	require.NoError(t, store.DeleteAgentSet(set.ID))

	_, err = store.GetAgentSet(set.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)
}
