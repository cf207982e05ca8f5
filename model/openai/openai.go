// Package openai provides an invoker backed by the OpenAI Chat Completions API.
package openai

import (
	"context"
	"fmt"

	"github.com/hupe1980/agentpipe/model"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Options configures the OpenAI invoker (API key, base URL, fallback model).
type Options struct {
	// APIKey overrides the OPENAI_API_KEY environment variable.
	APIKey string
	// BaseURL points the client at a compatible endpoint (e.g. a local
	// Ollama server exposing the OpenAI API).
	BaseURL string
	// FallbackModel is used when a request carries no model name.
	FallbackModel openai.ChatModel
}

// Invoker wraps the OpenAI Chat Completions API behind the generic
// model.Invoker interface. Per-request model parameters take precedence.
type Invoker struct {
	client *openai.Client
	opts   Options
}

// New creates a new OpenAI invoker using the official client.
func New(optFns ...func(o *Options)) *Invoker {
	opts := Options{
		FallbackModel: openai.ChatModelGPT4o,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	if opts.BaseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(opts.BaseURL))
	}

	client := openai.NewClient(clientOpts...)

	return &Invoker{client: &client, opts: opts}
}

// NewFromClient creates a new OpenAI invoker from an existing client.
func NewFromClient(client *openai.Client, optFns ...func(o *Options)) *Invoker {
	opts := Options{
		FallbackModel: openai.ChatModelGPT4o,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Invoker{client: client, opts: opts}
}

// Invoke implements model.Invoker against the Chat Completions API.
func (i *Invoker) Invoke(ctx context.Context, req model.Request) (model.Response, error) {
	modelName := openai.ChatModel(req.Model)
	if req.Model == "" {
		modelName = i.opts.FallbackModel
	}

	var messages []openai.ChatCompletionMessageParamUnion
	if req.System != "" {
		messages = append(messages, openai.SystemMessage(req.System))
	}
	messages = append(messages, openai.UserMessage(req.Prompt))

	params := openai.ChatCompletionNewParams{
		Messages:            messages,
		Model:               modelName,
		Temperature:         openai.Float(req.Temperature),
		MaxCompletionTokens: openai.Int(req.MaxTokens),
	}

	resp, err := i.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return model.Response{}, fmt.Errorf("openai api error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return model.Response{}, fmt.Errorf("openai api error: empty choice list")
	}

	out := model.Response{Text: resp.Choices[0].Message.Content, Model: resp.Model}
	out.Usage = &model.Usage{
		PromptTokens:     int(resp.Usage.PromptTokens),
		CompletionTokens: int(resp.Usage.CompletionTokens),
		TotalTokens:      int(resp.Usage.TotalTokens),
	}

	return out, nil
}

// Info implements model.Invoker.
func (i *Invoker) Info() model.Info { return model.Info{Provider: "openai"} }
