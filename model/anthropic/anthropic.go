// Package anthropic provides an invoker backed by the Anthropic Claude API.
package anthropic

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/hupe1980/agentpipe/model"
)

// Options configures the Anthropic invoker (API key, fallback model).
// Extend via functional options to preserve stability.
type Options struct {
	// APIKey overrides the ANTHROPIC_API_KEY environment variable.
	APIKey string
	// FallbackModel is used when a request carries no model name.
	FallbackModel anthropic.Model
}

// Invoker wraps the Anthropic Messages API behind the generic model.Invoker
// interface. Per-request model parameters take precedence over options.
type Invoker struct {
	client *anthropic.Client
	opts   Options
}

// New creates a new Anthropic invoker using the official client.
func New(optFns ...func(o *Options)) *Invoker {
	opts := Options{
		FallbackModel: anthropic.ModelClaude3_5Sonnet20241022,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}

	client := anthropic.NewClient(clientOpts...)

	return &Invoker{client: &client, opts: opts}
}

// NewFromClient creates a new Anthropic invoker from an existing client.
func NewFromClient(client *anthropic.Client, optFns ...func(o *Options)) *Invoker {
	opts := Options{
		FallbackModel: anthropic.ModelClaude3_5Sonnet20241022,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Invoker{client: client, opts: opts}
}

// Invoke implements model.Invoker against the Anthropic Messages API.
func (i *Invoker) Invoke(ctx context.Context, req model.Request) (model.Response, error) {
	modelName := anthropic.Model(req.Model)
	if req.Model == "" {
		modelName = i.opts.FallbackModel
	}

	params := anthropic.MessageNewParams{
		Model: modelName,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
		MaxTokens:   req.MaxTokens,
		Temperature: anthropic.Float(req.Temperature),
	}

	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}

	resp, err := i.client.Messages.New(ctx, params)
	if err != nil {
		return model.Response{}, fmt.Errorf("anthropic api error: %w", err)
	}

	var text string
	for _, block := range resp.Content {
		if block.Type == "text" {
			text += block.AsText().Text
		}
	}

	out := model.Response{Text: text, Model: string(resp.Model)}
	out.Usage = &model.Usage{
		PromptTokens:     int(resp.Usage.InputTokens),
		CompletionTokens: int(resp.Usage.OutputTokens),
		TotalTokens:      int(resp.Usage.InputTokens + resp.Usage.OutputTokens),
	}

	return out, nil
}

// Info implements model.Invoker.
func (i *Invoker) Info() model.Info { return model.Info{Provider: "anthropic"} }
