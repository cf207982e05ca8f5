package model

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Request captures one normalized model invocation produced by the stage
// executor. Model parameters travel per request because every agent
// definition carries its own model name, temperature and token budget.
type Request struct {
	System      string  `json:"system,omitempty"`
	Prompt      string  `json:"prompt"`
	Model       string  `json:"model"`
	Temperature float64 `json:"temperature"`
	MaxTokens   int64   `json:"max_tokens"`
}

// Usage captures token usage statistics for a response.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is the final generation returned by an invoker.
type Response struct {
	Text  string `json:"text"`
	Model string `json:"model"`
	Usage *Usage `json:"usage,omitempty"`
}

// Info contains metadata about an invoker implementation.
type Info struct {
	Provider string `json:"provider"` // "openai", "anthropic", "mock", etc.
}

// Invoker is the minimal interface required by the stage executor to drive
// generation. Implementations must respect context cancellation; per-call
// timeouts are applied by the caller via the context.
type Invoker interface {
	Invoke(ctx context.Context, req Request) (Response, error)

	// Info returns information about the invoker implementation.
	Info() Info
}

// MockInvoker is a lightweight in-memory Invoker useful for tests & examples.
// Responses can be canned per prompt, failures scripted per model name, and
// artificial latency injected to exercise timeout paths. Safe for
// concurrent use.
type MockInvoker struct {
	mu        sync.Mutex
	responses map[string]string
	failures  map[string]error
	latency   time.Duration
	calls     []Request
}

// NewMockInvoker constructs an empty MockInvoker.
func NewMockInvoker() *MockInvoker {
	return &MockInvoker{
		responses: make(map[string]string),
		failures:  make(map[string]error),
	}
}

// AddResponse registers a deterministic canned completion for a prompt.
func (m *MockInvoker) AddResponse(prompt, response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[prompt] = response
}

// FailModel scripts a failure for every invocation of the given model name.
func (m *MockInvoker) FailModel(model string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[model] = err
}

// SetLatency injects an artificial delay before every response.
func (m *MockInvoker) SetLatency(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.latency = d
}

// Calls returns a copy of all requests received so far, in arrival order.
func (m *MockInvoker) Calls() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Request(nil), m.calls...)
}

// Invoke implements Invoker; returns the canned response or a generated echo.
func (m *MockInvoker) Invoke(ctx context.Context, req Request) (Response, error) {
	m.mu.Lock()
	m.calls = append(m.calls, req)
	canned, ok := m.responses[req.Prompt]
	failure := m.failures[req.Model]
	latency := m.latency
	m.mu.Unlock()

	if latency > 0 {
		select {
		case <-ctx.Done():
			return Response{}, ctx.Err()
		case <-time.After(latency):
		}
	}
	if err := ctx.Err(); err != nil {
		return Response{}, err
	}
	if failure != nil {
		return Response{}, failure
	}
	if !ok {
		canned = fmt.Sprintf("Mock response to: %s", req.Prompt)
	}
	return Response{Text: canned, Model: req.Model}, nil
}

// Info implements Invoker.
func (m *MockInvoker) Info() Info { return Info{Provider: "mock"} }
