package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/hupe1980/agentpipe/catalog"
	"github.com/hupe1980/agentpipe/core"
	"github.com/hupe1980/agentpipe/model"
	"github.com/hupe1980/agentpipe/retrieval"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixture registers an actor x3 parallel stage feeding a single critic stage,
// the canonical extract-then-synthesize arrangement.
func fixture(t *testing.T) (*catalog.InMemoryStore, core.AgentSet) {
	t.Helper()
	store := catalog.NewInMemoryStore()

	actor, err := store.PutAgent(core.AgentDefinition{
		Name:               "Extractor",
		Role:               core.RoleActor,
		ModelName:          "actor-model",
		Temperature:        0.3,
		MaxTokens:          1024,
		SystemPrompt:       "Extract requirements.",
		UserPromptTemplate: "Extract from {{.section_title}}: {{.section_content}}{{.rag_context}}",
		Active:             true,
	})
	require.NoError(t, err)

	critic, err := store.PutAgent(core.AgentDefinition{
		Name:               "Synthesizer",
		Role:               core.RoleCritic,
		ModelName:          "critic-model",
		Temperature:        0.1,
		MaxTokens:          1024,
		SystemPrompt:       "Synthesize.",
		UserPromptTemplate: "Synthesize these findings: {{.actor_output}}",
		Active:             true,
	})
	require.NoError(t, err)

	set, err := store.PutAgentSet(core.AgentSet{
		Name:    "Extraction Pipeline",
		SetType: core.SetTypeSequence,
		Stages: []core.Stage{
			{Name: "actor", AgentIDs: []string{actor.ID, actor.ID, actor.ID}, ExecutionMode: core.ModeParallel},
			{Name: "critic", AgentIDs: []string{critic.ID}, ExecutionMode: core.ModeSequential},
		},
		Active: true,
	})
	require.NoError(t, err)

	return store, set
}

const threeParagraphs = "First paragraph about scope.\n\nSecond paragraph about access.\n\nThird paragraph about audits."

func TestRunner_ExecuteMatrix(t *testing.T) {
	store, set := fixture(t)
	invoker := model.NewMockInvoker()
	runner := NewRunner(store, invoker)

	result, err := runner.Execute(context.Background(), Request{
		AgentSetID:  set.ID,
		Text:        threeParagraphs,
		Title:       "Policy",
		SectionMode: core.SectionModeAuto,
	})
	require.NoError(t, err)

	assert.Equal(t, 3, result.TotalSections)
	assert.Equal(t, 6, result.TotalStagesExecuted)
	assert.Equal(t, 12, result.TotalAgentsExecuted)
	assert.Zero(t, result.FailedAgentCount)
	require.Len(t, result.SectionResults, 3)

	// Section order follows source order regardless of scheduling.
	assert.Equal(t, "Section 1", result.SectionResults[0].SectionTitle)
	assert.Equal(t, "Section 3", result.SectionResults[2].SectionTitle)

	// Each section's consolidated text comes from its critic stage.
	critic := result.SectionResults[0].StageResults[1]
	require.Len(t, critic.AgentResults, 1)
	assert.Equal(t, critic.AgentResults[0].Output, result.SectionResults[0].ConsolidatedText)

	// Global output carries one heading block per section.
	assert.Contains(t, result.ConsolidatedOutput, "## Section 1")
	assert.Contains(t, result.ConsolidatedOutput, "## Section 3")
	assert.Greater(t, result.ProcessingTime, 0.0)
}

func TestRunner_StageOutputFlowsDownstream(t *testing.T) {
	store, set := fixture(t)
	invoker := model.NewMockInvoker()
	runner := NewRunner(store, invoker)

	result, err := runner.Execute(context.Background(), Request{
		AgentSetID:  set.ID,
		Text:        "single body of text",
		Title:       "Doc",
		SectionMode: core.SectionModeSingle,
	})
	require.NoError(t, err)

	sr := result.SectionResults[0]
	actorStage := sr.StageResults[0]
	criticPrompt := sr.StageResults[1].AgentResults[0].RenderedPrompt

	// The critic prompt embeds every successful actor output verbatim,
	// joined in submission order.
	joined := consolidateStage(actorStage)
	assert.Equal(t, "Synthesize these findings: "+joined, criticPrompt)
	for _, ar := range actorStage.AgentResults {
		assert.Contains(t, criticPrompt, ar.Output)
	}
}

func TestRunner_FailedActorsExcludedFromDownstreamPrompt(t *testing.T) {
	store, set := fixture(t)
	invoker := model.NewMockInvoker()
	invoker.FailModel("actor-model", errors.New("provider down"))
	runner := NewRunner(store, invoker)

	result, err := runner.Execute(context.Background(), Request{
		AgentSetID:  set.ID,
		Text:        "body",
		Title:       "Doc",
		SectionMode: core.SectionModeSingle,
	})
	require.NoError(t, err)

	assert.Equal(t, 3, result.FailedAgentCount)
	sr := result.SectionResults[0]
	// All three actor failures still appear as entries.
	assert.Len(t, sr.StageResults[0].AgentResults, 3)
	assert.Zero(t, sr.StageResults[0].SuccessCount())
	// The critic runs against an empty upstream and still succeeds.
	assert.Equal(t, "Synthesize these findings: ", sr.StageResults[1].AgentResults[0].RenderedPrompt)
	assert.Equal(t, 1, sr.StageResults[1].SuccessCount())
	assert.Contains(t, result.ConsolidatedOutput, "3 agent invocation(s) failed")
}

func TestRunner_UsageIncrementedOncePerRun(t *testing.T) {
	store, set := fixture(t)
	invoker := model.NewMockInvoker()
	runner := NewRunner(store, invoker)

	_, err := runner.Execute(context.Background(), Request{
		AgentSetID:  set.ID,
		Text:        threeParagraphs,
		Title:       "Doc",
		SectionMode: core.SectionModeAuto,
	})
	require.NoError(t, err)

	got, err := store.GetAgentSet(set.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.UsageCount)
}

func TestRunner_InvalidRequests(t *testing.T) {
	store, set := fixture(t)
	runner := NewRunner(store, model.NewMockInvoker())

	tests := []struct {
		name string
		req  Request
	}{
		{"empty text", Request{AgentSetID: set.ID, SectionMode: core.SectionModeSingle}},
		{"missing set id", Request{Text: "x", SectionMode: core.SectionModeSingle}},
		{"unknown set", Request{AgentSetID: "ghost", Text: "x", SectionMode: core.SectionModeSingle}},
		{"bad section mode", Request{AgentSetID: set.ID, Text: "x", SectionMode: "shredded"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runner.Validate(tt.req)
			assert.ErrorIs(t, err, core.ErrInvalidInput)
			_, err = runner.Execute(context.Background(), tt.req)
			assert.ErrorIs(t, err, core.ErrInvalidInput)
		})
	}
}

func TestRunner_InactiveSetRejected(t *testing.T) {
	store, set := fixture(t)
	require.NoError(t, store.SetAgentSetActive(set.ID, false))
	runner := NewRunner(store, model.NewMockInvoker())

	_, err := runner.Execute(context.Background(), Request{
		AgentSetID:  set.ID,
		Text:        "x",
		SectionMode: core.SectionModeSingle,
	})
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestRunner_ProgressMonotonic(t *testing.T) {
	store, set := fixture(t)
	invoker := model.NewMockInvoker()
	runner := NewRunner(store, invoker, func(o *Options) {
		o.SectionConcurrency = 3
	})

	var seen []int
	_, err := runner.ExecuteWithProgress(context.Background(), Request{
		AgentSetID:  set.ID,
		Text:        threeParagraphs,
		Title:       "Doc",
		SectionMode: core.SectionModeAuto,
	}, func(progress int, message string) {
		seen = append(seen, progress)
	})
	require.NoError(t, err)

	require.Len(t, seen, 3)
	for i := 1; i < len(seen); i++ {
		assert.GreaterOrEqual(t, seen[i], seen[i-1])
	}
	assert.Equal(t, 100, seen[len(seen)-1])
}

func TestRunner_RAGContextInPromptAndCitations(t *testing.T) {
	store, set := fixture(t)
	docs := retrieval.NewDocStore()
	docs.Add("policies", retrieval.Chunk{
		ID:      "p-1",
		Title:   "Baseline",
		Content: "shared context about access controls",
	})

	invoker := model.NewMockInvoker()
	runner := NewRunner(store, invoker, func(o *Options) {
		o.Retriever = docs
	})

	result, err := runner.Execute(context.Background(), Request{
		AgentSetID:    set.ID,
		Text:          "section about access controls",
		Title:         "Doc",
		SectionMode:   core.SectionModeSingle,
		UseRAG:        true,
		RAGCollection: "policies",
	})
	require.NoError(t, err)

	assert.True(t, result.RAGContextUsed)
	assert.Equal(t, "policies", result.RAGCollection)
	assert.Contains(t, result.FormattedCitations, "Baseline (p-1)")

	actorPrompt := result.SectionResults[0].StageResults[0].AgentResults[0].RenderedPrompt
	assert.Contains(t, actorPrompt, "shared context about access controls")
}

func TestRunner_RAGDegradesOnRetrievalFailure(t *testing.T) {
	store, set := fixture(t)
	invoker := model.NewMockInvoker()
	runner := NewRunner(store, invoker, func(o *Options) {
		o.Retriever = retrieval.NewDocStore()
	})

	result, err := runner.Execute(context.Background(), Request{
		AgentSetID:    set.ID,
		Text:          "body",
		Title:         "Doc",
		SectionMode:   core.SectionModeSingle,
		UseRAG:        true,
		RAGCollection: "nonexistent",
	})
	require.NoError(t, err)

	assert.Zero(t, result.FailedAgentCount)
	assert.Empty(t, result.FormattedCitations)
}

func TestRunner_CancelledContext(t *testing.T) {
	store, set := fixture(t)
	runner := NewRunner(store, model.NewMockInvoker())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := runner.Execute(ctx, Request{
		AgentSetID:  set.ID,
		Text:        "body",
		Title:       "Doc",
		SectionMode: core.SectionModeSingle,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrPipeline)
}

func TestRunner_TerminalStageWithoutCriticIsLastStage(t *testing.T) {
	store := catalog.NewInMemoryStore()
	actor, err := store.PutAgent(core.AgentDefinition{
		Name:               "Solo",
		Role:               core.RoleGeneral,
		ModelName:          "m",
		Temperature:        0.5,
		MaxTokens:          256,
		UserPromptTemplate: "Handle {{.data_sample}}",
		Active:             true,
	})
	require.NoError(t, err)

	set, err := store.PutAgentSet(core.AgentSet{
		Name: "Single Stage",
		Stages: []core.Stage{
			{Name: "analysis", AgentIDs: []string{actor.ID}, ExecutionMode: core.ModeSequential},
		},
		Active: true,
	})
	require.NoError(t, err)

	runner := NewRunner(store, model.NewMockInvoker())
	result, err := runner.Execute(context.Background(), Request{
		AgentSetID:  set.ID,
		Text:        "payload",
		Title:       "Doc",
		SectionMode: core.SectionModeSingle,
	})
	require.NoError(t, err)

	sr := result.SectionResults[0]
	assert.Equal(t, sr.StageResults[0].AgentResults[0].Output, sr.ConsolidatedText)
	assert.True(t, strings.HasPrefix(result.ConsolidatedOutput, "## Doc"))
}
