package pipeline

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/hupe1980/agentpipe/core"
	"github.com/hupe1980/agentpipe/logging"
	"github.com/hupe1980/agentpipe/model"
	"github.com/hupe1980/agentpipe/retrieval"
	"github.com/hupe1980/agentpipe/section"
)

// Request describes one pipeline run against a body of input text.
type Request struct {
	AgentSetID    string           `json:"agent_set_id"`
	Text          string           `json:"text_input"`
	Title         string           `json:"title"`
	SectionMode   core.SectionMode `json:"section_mode"`
	UseRAG        bool             `json:"use_rag,omitempty"`
	RAGCollection string           `json:"rag_collection,omitempty"`
	RAGDocumentID string           `json:"rag_document_id,omitempty"`
	RAGTopK       int              `json:"rag_top_k,omitempty"`
}

// ProgressFunc receives progress updates during a run. Calls are serialized
// and progress is monotonically non-decreasing.
type ProgressFunc func(progress int, message string)

// Options holds dependency + configuration overrides passed to NewRunner.
type Options struct {
	// Retriever supplies per-section context when a request enables RAG.
	// Nil degrades RAG requests to runs without context.
	Retriever core.Retriever
	// SectionConcurrency bounds how many sections execute at once.
	SectionConcurrency int
	// CallTimeout bounds each individual model invocation.
	CallTimeout time.Duration
	// DefaultBatchSize applies to batched stages without an own batch size.
	DefaultBatchSize int
	// Logger receives run diagnostics.
	Logger logging.Logger
}

// Runner drives the section x stage matrix for one job: it resolves the
// agent set, splits the input, threads accumulated stage outputs into later
// stages' bindings, and consolidates all sections into the final result.
// Public methods are safe for concurrent use.
type Runner struct {
	catalog            core.Catalog
	retriever          core.Retriever
	executor           *Executor
	sectionConcurrency int
	logger             logging.Logger
}

// NewRunner constructs a Runner with optional overrides.
func NewRunner(catalog core.Catalog, invoker model.Invoker, optFns ...func(o *Options)) *Runner {
	opts := Options{
		SectionConcurrency: 1,
		CallTimeout:        120 * time.Second,
		DefaultBatchSize:   3,
		Logger:             logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	executor := NewExecutor(invoker, func(o *ExecutorOptions) {
		o.CallTimeout = opts.CallTimeout
		o.DefaultBatchSize = opts.DefaultBatchSize
		o.Logger = opts.Logger
	})

	return &Runner{
		catalog:            catalog,
		retriever:          opts.Retriever,
		executor:           executor,
		sectionConcurrency: max(1, opts.SectionConcurrency),
		logger:             opts.Logger,
	}
}

// Execute runs the pipeline synchronously and returns the full result.
func (r *Runner) Execute(ctx context.Context, req Request) (*core.PipelineResult, error) {
	return r.ExecuteWithProgress(ctx, req, nil)
}

// ExecuteWithProgress runs the pipeline, emitting a progress update after
// each completed section. It returns either a full PipelineResult (possibly
// containing failed agent entries) or a single top-level error.
func (r *Runner) ExecuteWithProgress(ctx context.Context, req Request, progress ProgressFunc) (*core.PipelineResult, error) {
	start := time.Now()

	set, agents, err := r.resolve(req)
	if err != nil {
		return nil, err
	}

	sections, err := section.Split(req.Text, req.SectionMode, req.Title)
	if err != nil {
		return nil, err
	}

	r.logger.Info("pipeline run started",
		"agent_set", set.Name,
		"sections", len(sections),
		"stages", len(set.Stages),
		"rag", req.UseRAG,
	)

	sectionResults, err := r.runSections(ctx, set, agents, sections, req, progress)
	if err != nil {
		return nil, err
	}

	result := r.consolidate(req, set, sections, sectionResults)
	result.ProcessingTime = time.Since(start).Seconds()

	// One usage increment per completed run; a catalog hiccup here must not
	// fail an otherwise successful pipeline.
	if err := r.catalog.IncrementUsage(set.ID); err != nil {
		r.logger.Warn("usage counter increment failed", "agent_set", set.ID, "error", err)
	}

	r.logger.Info("pipeline run completed",
		"agent_set", set.Name,
		"sections", result.TotalSections,
		"agents_executed", result.TotalAgentsExecuted,
		"failed_agents", result.FailedAgentCount,
		"duration", time.Since(start),
	)

	return result, nil
}

// Validate performs the synchronous admission checks for a request without
// executing anything: non-empty input, a known section mode, a known active
// agent set and resolvable agent references. It returns the resolved set so
// callers can record its name. All violations are InvalidInput.
func (r *Runner) Validate(req Request) (core.AgentSet, error) {
	if strings.TrimSpace(req.Text) == "" {
		return core.AgentSet{}, fmt.Errorf("%w: input text is empty", core.ErrInvalidInput)
	}
	if !req.SectionMode.Valid() {
		return core.AgentSet{}, fmt.Errorf("%w: unknown section mode %q", core.ErrInvalidInput, req.SectionMode)
	}
	set, _, err := r.resolve(req)
	return set, err
}

// resolve loads the agent set and every referenced agent definition up
// front. All resolution failures are InvalidInput: they are rejected before
// any work starts.
func (r *Runner) resolve(req Request) (core.AgentSet, map[string]core.AgentDefinition, error) {
	if req.AgentSetID == "" {
		return core.AgentSet{}, nil, fmt.Errorf("%w: agent set id is required", core.ErrInvalidInput)
	}

	set, err := r.catalog.GetAgentSet(req.AgentSetID)
	if err != nil {
		return core.AgentSet{}, nil, fmt.Errorf("%w: unknown agent set %s", core.ErrInvalidInput, req.AgentSetID)
	}
	if !set.Active {
		return core.AgentSet{}, nil, fmt.Errorf("%w: agent set %s is inactive", core.ErrInvalidInput, req.AgentSetID)
	}
	if len(set.Stages) == 0 {
		return core.AgentSet{}, nil, fmt.Errorf("%w: agent set %s has no stages", core.ErrInvalidInput, req.AgentSetID)
	}

	agents := make(map[string]core.AgentDefinition)
	for _, stage := range set.Stages {
		for _, id := range stage.AgentIDs {
			if _, ok := agents[id]; ok {
				continue
			}
			def, err := r.catalog.GetAgent(id)
			if err != nil {
				return core.AgentSet{}, nil, fmt.Errorf("%w: stage %s references unknown agent %s", core.ErrInvalidInput, stage.Name, id)
			}
			agents[id] = def
		}
	}

	return set, agents, nil
}

// runSections processes sections independently with bounded concurrency.
// Results are ordered by section index; progress counts completed sections.
func (r *Runner) runSections(
	ctx context.Context,
	set core.AgentSet,
	agents map[string]core.AgentDefinition,
	sections []core.Section,
	req Request,
	progress ProgressFunc,
) ([]sectionOutcome, error) {
	outcomes := make([]sectionOutcome, len(sections))

	var (
		wg         sync.WaitGroup
		progressMu sync.Mutex
		completed  int
	)
	sem := make(chan struct{}, r.sectionConcurrency)

	for i, sec := range sections {
		wg.Add(1)
		go func(idx int, s core.Section) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			outcomes[idx] = r.runSection(ctx, set, agents, s, req)

			if progress != nil {
				progressMu.Lock()
				completed++
				pct := completed * 100 / len(sections)
				progress(pct, fmt.Sprintf("Processed section %d of %d", completed, len(sections)))
				progressMu.Unlock()
			}
		}(i, sec)
	}
	wg.Wait()

	for _, oc := range outcomes {
		if oc.err != nil {
			return nil, fmt.Errorf("%w: %v", core.ErrPipeline, oc.err)
		}
	}
	return outcomes, nil
}

type sectionOutcome struct {
	result    core.SectionResult
	citations string
	err       error
}

// runSection executes all stages of the set against one section, strictly in
// declared order. Stage i+1 never starts before stage i completes because it
// may depend on stage i's consolidated output.
func (r *Runner) runSection(
	ctx context.Context,
	set core.AgentSet,
	agents map[string]core.AgentDefinition,
	sec core.Section,
	req Request,
) sectionOutcome {
	bindings := core.Bindings{
		core.PlaceholderSectionTitle:   sec.Title,
		core.PlaceholderSectionContent: sec.Content,
		core.PlaceholderDataSample:     sec.Content,
		core.PlaceholderRAGContext:     "",
	}

	var citations string
	if req.UseRAG {
		if r.retriever == nil {
			r.logger.Warn("rag requested but no retriever configured", "section", sec.Title)
		} else {
			ret := retrieval.ForSection(ctx, r.retriever, sec, core.RetrievalQuery{
				Collection: req.RAGCollection,
				DocumentID: req.RAGDocumentID,
				TopK:       req.RAGTopK,
			}, r.logger)
			bindings[core.PlaceholderRAGContext] = ret.Context
			citations = ret.Citations
		}
	}

	result := core.SectionResult{
		SectionTitle:          sec.Title,
		SectionContentPreview: preview(sec.Content, 200),
		StageResults:          make([]core.StageResult, 0, len(set.Stages)),
	}

	for _, stage := range set.Stages {
		// Cooperative cancellation point between stages.
		if err := ctx.Err(); err != nil {
			return sectionOutcome{err: fmt.Errorf("section %q canceled before stage %s: %v", sec.Title, stage.Name, err)}
		}

		stageAgents := make([]core.AgentDefinition, len(stage.AgentIDs))
		for i, id := range stage.AgentIDs {
			stageAgents[i] = agents[id]
		}

		stageResult := r.executor.Run(ctx, stage, stageAgents, bindings)
		result.StageResults = append(result.StageResults, stageResult)

		bindings = bindings.WithStageOutput(stage.Name, consolidateStage(stageResult))
	}

	terminal := terminalStageIndex(set, agents)
	result.ConsolidatedText = consolidateStage(result.StageResults[terminal])

	return sectionOutcome{result: result, citations: citations}
}

// terminalStageIndex picks the stage whose outputs form the section's
// consolidated text: the last stage staffed entirely by critic-role agents
// when the set has one, otherwise the final stage.
func terminalStageIndex(set core.AgentSet, agents map[string]core.AgentDefinition) int {
	for i := len(set.Stages) - 1; i >= 0; i-- {
		allCritics := true
		for _, id := range set.Stages[i].AgentIDs {
			if agents[id].Role != core.RoleCritic {
				allCritics = false
				break
			}
		}
		if allCritics {
			return i
		}
	}
	return len(set.Stages) - 1
}

// consolidateStage joins a stage's successful outputs in submission order.
// The same policy applies uniformly across stages and sections.
func consolidateStage(sr core.StageResult) string {
	var parts []string
	for _, ar := range sr.AgentResults {
		if ar.Success && strings.TrimSpace(ar.Output) != "" {
			parts = append(parts, strings.TrimSpace(ar.Output))
		}
	}
	return strings.Join(parts, "\n\n")
}

// consolidate assembles the final PipelineResult from all section outcomes.
func (r *Runner) consolidate(req Request, set core.AgentSet, sections []core.Section, outcomes []sectionOutcome) *core.PipelineResult {
	result := &core.PipelineResult{
		Title:          req.Title,
		AgentSetID:     set.ID,
		AgentSetName:   set.Name,
		TotalSections:  len(sections),
		RAGContextUsed: req.UseRAG && r.retriever != nil,
		SectionResults: make([]core.SectionResult, 0, len(outcomes)),
	}
	if result.RAGContextUsed {
		result.RAGCollection = req.RAGCollection
	}

	var output, citations []string
	for _, oc := range outcomes {
		sr := oc.result
		result.SectionResults = append(result.SectionResults, sr)
		result.TotalStagesExecuted += len(sr.StageResults)
		for _, stage := range sr.StageResults {
			result.TotalAgentsExecuted += len(stage.AgentResults)
			result.FailedAgentCount += len(stage.AgentResults) - stage.SuccessCount()
		}

		block := "## " + sr.SectionTitle
		if sr.ConsolidatedText != "" {
			block += "\n\n" + sr.ConsolidatedText
		}
		output = append(output, block)

		if oc.citations != "" {
			citations = append(citations, oc.citations)
		}
	}

	result.ConsolidatedOutput = strings.Join(output, "\n\n")
	if result.FailedAgentCount > 0 {
		result.ConsolidatedOutput += fmt.Sprintf("\n\n---\n%d agent invocation(s) failed during processing.", result.FailedAgentCount)
	}
	result.FormattedCitations = strings.Join(citations, "\n")

	return result
}

func preview(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
