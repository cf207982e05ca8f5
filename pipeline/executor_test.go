package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/hupe1980/agentpipe/core"
	"github.com/hupe1980/agentpipe/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAgent(name, modelName, template string) core.AgentDefinition {
	return core.AgentDefinition{
		ID:                 "agent-" + name,
		Name:               name,
		Role:               core.RoleActor,
		ModelName:          modelName,
		Temperature:        0.2,
		MaxTokens:          512,
		UserPromptTemplate: template,
	}
}

func TestExecutor_RunParallel(t *testing.T) {
	invoker := model.NewMockInvoker()
	executor := NewExecutor(invoker)

	agents := []core.AgentDefinition{
		testAgent("one", "m", "Summarize {{.section_content}}"),
		testAgent("two", "m", "List risks in {{.section_content}}"),
		testAgent("three", "m", "Extract entities from {{.section_content}}"),
	}
	stage := core.Stage{Name: "actor", AgentIDs: []string{"agent-one", "agent-two", "agent-three"}, ExecutionMode: core.ModeParallel}

	result := executor.Run(context.Background(), stage, agents, core.Bindings{
		core.PlaceholderSectionContent: "the payload",
	})

	require.Len(t, result.AgentResults, 3)
	assert.Equal(t, 3, result.SuccessCount())
	// Results must be in submission order even though execution is concurrent.
	assert.Equal(t, "one", result.AgentResults[0].AgentName)
	assert.Equal(t, "three", result.AgentResults[2].AgentName)
	assert.Contains(t, result.AgentResults[0].Output, "Summarize the payload")
}

func TestExecutor_ParallelFailureIsolation(t *testing.T) {
	invoker := model.NewMockInvoker()
	invoker.FailModel("broken", errors.New("model unavailable"))
	executor := NewExecutor(invoker)

	agents := []core.AgentDefinition{
		testAgent("a", "m", "{{.section_content}}"),
		testAgent("b", "broken", "{{.section_content}}"),
		testAgent("c", "m", "{{.section_content}}"),
	}
	stage := core.Stage{Name: "actor", AgentIDs: []string{"agent-a", "agent-b", "agent-c"}, ExecutionMode: core.ModeParallel}

	result := executor.Run(context.Background(), stage, agents, core.Bindings{core.PlaceholderSectionContent: "x"})

	require.Len(t, result.AgentResults, 3)
	assert.Equal(t, 2, result.SuccessCount())
	assert.True(t, result.AgentResults[0].Success)
	assert.False(t, result.AgentResults[1].Success)
	assert.Contains(t, result.AgentResults[1].Error, "model unavailable")
	assert.True(t, result.AgentResults[2].Success)
}

func TestExecutor_RunSequentialThreadsPreviousOutput(t *testing.T) {
	invoker := model.NewMockInvoker()
	executor := NewExecutor(invoker)

	agents := []core.AgentDefinition{
		testAgent("draft", "m", "Draft from {{.section_content}}"),
		testAgent("refine", "m", "Refine: {{.previous_output}}"),
	}
	stage := core.Stage{Name: "chain", AgentIDs: []string{"agent-draft", "agent-refine"}, ExecutionMode: core.ModeSequential}

	result := executor.Run(context.Background(), stage, agents, core.Bindings{core.PlaceholderSectionContent: "seed"})

	require.Equal(t, 2, result.SuccessCount())
	// The second prompt embeds the first agent's full output.
	assert.Equal(t, "Refine: "+result.AgentResults[0].Output, result.AgentResults[1].RenderedPrompt)
}

func TestExecutor_SequentialFailureBindsEmptyPrevious(t *testing.T) {
	invoker := model.NewMockInvoker()
	invoker.FailModel("broken", errors.New("boom"))
	executor := NewExecutor(invoker)

	agents := []core.AgentDefinition{
		testAgent("first", "broken", "Start {{.section_content}}"),
		testAgent("second", "m", "Continue from [{{.previous_output}}]"),
	}
	stage := core.Stage{Name: "chain", AgentIDs: []string{"agent-first", "agent-second"}, ExecutionMode: core.ModeSequential}

	result := executor.Run(context.Background(), stage, agents, core.Bindings{core.PlaceholderSectionContent: "x"})

	assert.False(t, result.AgentResults[0].Success)
	require.True(t, result.AgentResults[1].Success)
	assert.Equal(t, "Continue from []", result.AgentResults[1].RenderedPrompt)
}

func TestExecutor_RunBatched(t *testing.T) {
	invoker := model.NewMockInvoker()
	executor := NewExecutor(invoker)

	var agents []core.AgentDefinition
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		agents = append(agents, testAgent(name, "m", "Work on {{.section_content}} as "+name))
	}
	stage := core.Stage{
		Name:          "batch",
		AgentIDs:      []string{"agent-a", "agent-b", "agent-c", "agent-d", "agent-e"},
		ExecutionMode: core.ModeBatched,
		BatchSize:     2,
	}

	result := executor.Run(context.Background(), stage, agents, core.Bindings{core.PlaceholderSectionContent: "x"})

	require.Len(t, result.AgentResults, 5)
	assert.Equal(t, 5, result.SuccessCount())
	for i, name := range []string{"a", "b", "c", "d", "e"} {
		assert.Equal(t, name, result.AgentResults[i].AgentName)
	}
	assert.Len(t, invoker.Calls(), 5)
}

func TestExecutor_CallTimeout(t *testing.T) {
	invoker := model.NewMockInvoker()
	invoker.SetLatency(200 * time.Millisecond)
	executor := NewExecutor(invoker, func(o *ExecutorOptions) {
		o.CallTimeout = 20 * time.Millisecond
	})

	agents := []core.AgentDefinition{testAgent("slow", "m", "{{.section_content}}")}
	stage := core.Stage{Name: "s", AgentIDs: []string{"agent-slow"}, ExecutionMode: core.ModeParallel}

	result := executor.Run(context.Background(), stage, agents, core.Bindings{core.PlaceholderSectionContent: "x"})

	require.Len(t, result.AgentResults, 1)
	assert.False(t, result.AgentResults[0].Success)
	assert.Contains(t, result.AgentResults[0].Error, "deadline")
}

func TestExecutor_TemplateFailureCaptured(t *testing.T) {
	invoker := model.NewMockInvoker()
	executor := NewExecutor(invoker)

	// Template parses at catalog registration normally; the executor still
	// captures a render-time failure instead of propagating it.
	agents := []core.AgentDefinition{testAgent("bad", "m", "{{.section_content")}
	stage := core.Stage{Name: "s", AgentIDs: []string{"agent-bad"}, ExecutionMode: core.ModeParallel}

	result := executor.Run(context.Background(), stage, agents, core.Bindings{})

	require.Len(t, result.AgentResults, 1)
	assert.False(t, result.AgentResults[0].Success)
	assert.True(t, strings.Contains(result.AgentResults[0].Error, "prompt rendering failed"))
	assert.Empty(t, invoker.Calls())
}
