// Package openai provides a Generator adapter using the OpenAI Chat
// Completions API. It adapts the prompt-in/text-out contract of
// model.Generator onto the SDK's message format.
package openai

import (
	"context"
	"fmt"

	"github.com/intelmesh/intelmesh/model"
	"github.com/openai/openai-go"
)

// Options configure the OpenAI generator adapter.
// Fields mirror a subset of Chat Completion parameters intentionally kept
// minimal; extend via functional options without breaking callers.
type Options struct {
	Model               string
	Temperature         float64
	MaxCompletionTokens int64
	System              string
}

// Generator wraps the OpenAI Chat Completions API behind the generic
// model.Generator interface.
type Generator struct {
	client *openai.Client
	opts   Options
}

// New creates a new OpenAI generator using the official client.
func New(optFns ...func(o *Options)) *Generator {
	client := openai.NewClient()
	return NewFromClient(&client, optFns...)
}

// NewFromClient creates a new OpenAI generator from an existing client.
func NewFromClient(client *openai.Client, optFns ...func(o *Options)) *Generator {
	opts := Options{
		Model:               openai.ChatModelGPT4oMini,
		Temperature:         0.7,
		MaxCompletionTokens: 4096,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Generator{client: client, opts: opts}
}

// Generate sends the prompt as a single user message and returns the first
// choice's content.
func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	messages := []openai.ChatCompletionMessageParamUnion{}
	if g.opts.System != "" {
		messages = append(messages, openai.SystemMessage(g.opts.System))
	}
	messages = append(messages, openai.UserMessage(prompt))

	resp, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages:            messages,
		Model:               g.opts.Model,
		Temperature:         openai.Float(g.opts.Temperature),
		MaxCompletionTokens: openai.Int(g.opts.MaxCompletionTokens),
	})
	if err != nil {
		return "", fmt.Errorf("openai api error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices returned")
	}
	return resp.Choices[0].Message.Content, nil
}

// Info returns metadata describing this OpenAI generator implementation.
func (g *Generator) Info() model.Info {
	return model.Info{
		Name:     g.opts.Model,
		Provider: "openai",
	}
}
