package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/hupe1980/agentpipe/core"
	"github.com/hupe1980/agentpipe/internal/util"
	"github.com/hupe1980/agentpipe/logging"
	"github.com/hupe1980/agentpipe/model"
)

// ExecutorOptions holds configuration overrides passed to NewExecutor.
type ExecutorOptions struct {
	// CallTimeout bounds each individual model invocation. Zero disables
	// the per-call timeout.
	CallTimeout time.Duration
	// DefaultBatchSize is used for batched stages that carry no batch size
	// of their own.
	DefaultBatchSize int
	// Logger receives per-invocation and per-stage diagnostics.
	Logger logging.Logger
}

// Executor runs one stage against one section's accumulated bindings,
// honoring the stage's declared execution mode. It is stateless across
// stages and safe for concurrent use.
type Executor struct {
	invoker          model.Invoker
	callTimeout      time.Duration
	defaultBatchSize int
	logger           logging.Logger
}

// NewExecutor constructs an Executor with optional overrides.
func NewExecutor(invoker model.Invoker, optFns ...func(o *ExecutorOptions)) *Executor {
	opts := ExecutorOptions{
		CallTimeout:      120 * time.Second,
		DefaultBatchSize: 3,
		Logger:           logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Executor{
		invoker:          invoker,
		callTimeout:      opts.CallTimeout,
		defaultBatchSize: opts.DefaultBatchSize,
		logger:           opts.Logger,
	}
}

// Run executes every agent instance of the stage and returns the aggregated
// StageResult. The result always contains exactly one entry per agent
// instance reference, in submission order, regardless of execution mode or
// individual failures. Agents must be resolved by the caller and aligned
// with stage.AgentIDs.
func (e *Executor) Run(ctx context.Context, stage core.Stage, agents []core.AgentDefinition, bindings core.Bindings) core.StageResult {
	start := time.Now()

	result := core.StageResult{
		StageName:     stage.Name,
		ExecutionMode: stage.ExecutionMode,
		AgentResults:  make([]core.AgentInvocationResult, len(agents)),
	}

	switch stage.ExecutionMode {
	case core.ModeSequential:
		e.runSequential(ctx, agents, bindings, result.AgentResults)
	case core.ModeBatched:
		batch := stage.BatchSize
		if batch <= 0 {
			batch = e.defaultBatchSize
		}
		e.runBatched(ctx, agents, bindings, result.AgentResults, batch)
	default:
		e.runParallel(ctx, agents, bindings, result.AgentResults)
	}

	e.logger.Debug("stage executed",
		"stage", stage.Name,
		"execution_mode", string(stage.ExecutionMode),
		"agents", len(agents),
		"failures", len(agents)-result.SuccessCount(),
		"duration", time.Since(start),
	)

	return result
}

// runParallel invokes all instances concurrently and waits for every one to
// finish. No instance's outcome affects another's execution.
func (e *Executor) runParallel(ctx context.Context, agents []core.AgentDefinition, bindings core.Bindings, out []core.AgentInvocationResult) {
	var wg sync.WaitGroup
	for i, def := range agents {
		wg.Add(1)
		go func(idx int, d core.AgentDefinition) {
			defer wg.Done()
			out[idx] = e.invokeOne(ctx, d, bindings)
		}(i, def)
	}
	wg.Wait()
}

// runSequential invokes instances one at a time in list order. Each
// instance's prompt may reference the immediately preceding instance's
// output via the previous_output placeholder, enabling intra-stage
// refinement chains. A failed predecessor binds an empty previous output.
func (e *Executor) runSequential(ctx context.Context, agents []core.AgentDefinition, bindings core.Bindings, out []core.AgentInvocationResult) {
	previous := ""
	for i, def := range agents {
		b := bindings.Clone()
		b[core.PlaceholderPreviousOutput] = previous

		out[i] = e.invokeOne(ctx, def, b)

		previous = ""
		if out[i].Success {
			previous = out[i].Output
		}
	}
}

// runBatched partitions instances into fixed-size groups. Groups run one
// after another; instances within a group run concurrently, bounding peak
// concurrency to the batch size.
func (e *Executor) runBatched(ctx context.Context, agents []core.AgentDefinition, bindings core.Bindings, out []core.AgentInvocationResult, batchSize int) {
	for start := 0; start < len(agents); start += batchSize {
		end := start + batchSize
		if end > len(agents) {
			end = len(agents)
		}
		e.runParallel(ctx, agents[start:end], bindings, out[start:end])
	}
}

// invokeOne renders the agent's prompt and performs a single model
// invocation. Failures of any kind (template, model, timeout) are captured
// in the returned result, never propagated.
func (e *Executor) invokeOne(ctx context.Context, def core.AgentDefinition, bindings core.Bindings) core.AgentInvocationResult {
	start := time.Now()

	result := core.AgentInvocationResult{
		AgentID:   def.ID,
		AgentName: def.Name,
		ModelName: def.ModelName,
	}

	prompt, err := util.RenderTemplate(def.UserPromptTemplate, bindings)
	if err != nil {
		result.Error = "prompt rendering failed: " + err.Error()
		result.Duration = time.Since(start)
		return result
	}
	result.RenderedPrompt = prompt

	callCtx := ctx
	if e.callTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, e.callTimeout)
		defer cancel()
	}

	resp, err := e.invoker.Invoke(callCtx, model.Request{
		System:      def.SystemPrompt,
		Prompt:      prompt,
		Model:       def.ModelName,
		Temperature: def.Temperature,
		MaxTokens:   def.MaxTokens,
	})
	result.Duration = time.Since(start)

	if err != nil {
		result.Error = err.Error()
		e.logger.Warn("agent invocation failed", "agent", def.Name, "model", def.ModelName, "error", err)
		return result
	}

	result.Success = true
	result.Output = resp.Text
	return result
}
