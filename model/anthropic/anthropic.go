// Package anthropic provides a Generator adapter for the Anthropic Claude API.
package anthropic

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/intelmesh/intelmesh/model"
)

// Options configures the Anthropic generator adapter (temperature, model id,
// max tokens, API key). Extend via functional options to preserve stability.
type Options struct {
	Model       anthropic.Model
	Temperature float64
	MaxTokens   int64
	APIKey      string
	System      string
}

// Generator wraps the Anthropic Messages API behind the generic
// model.Generator interface.
type Generator struct {
	client *anthropic.Client
	opts   Options
}

// New creates a new Anthropic generator using the official client.
func New(optFns ...func(o *Options)) *Generator {
	opts := Options{
		Model:       anthropic.ModelClaude3_5Sonnet20241022,
		Temperature: 0.7,
		MaxTokens:   4096,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}

	client := anthropic.NewClient(clientOpts...)

	return &Generator{
		client: &client,
		opts:   opts,
	}
}

// NewFromClient creates a new Anthropic generator from an existing client.
func NewFromClient(client *anthropic.Client, optFns ...func(o *Options)) *Generator {
	opts := Options{
		Model:       anthropic.ModelClaude3_5Sonnet20241022,
		Temperature: 0.7,
		MaxTokens:   4096,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Generator{
		client: client,
		opts:   opts,
	}
}

// Generate sends the prompt as a single user message and concatenates the
// text blocks of the response.
func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	params := anthropic.MessageNewParams{
		Model:       g.opts.Model,
		MaxTokens:   g.opts.MaxTokens,
		Temperature: anthropic.Float(g.opts.Temperature),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}
	if g.opts.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: g.opts.System}}
	}

	resp, err := g.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("anthropic api error: %w", err)
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.AsText().Text)
		}
	}
	return sb.String(), nil
}

// Info returns metadata describing this Anthropic generator implementation.
func (g *Generator) Info() model.Info {
	return model.Info{
		Name:     string(g.opts.Model),
		Provider: "anthropic",
	}
}
