package model

import (
	"context"
	"fmt"
)

// Info contains metadata about a generator implementation.
type Info struct {
	Name     string `json:"name"`
	Provider string `json:"provider"` // "openai", "anthropic", "mock", etc.
}

// Generator is the minimal interface the synthesis layer requires: free text
// in, free text out. The returned text may be fenced in markdown or embedded
// in prose; callers are responsible for extracting structured content.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)

	// Info returns information about the generator implementation.
	Info() Info
}

// MockGenerator is a lightweight in-memory Generator useful for tests &
// examples. Canned responses are matched by exact prompt; unmatched prompts
// get a deterministic echo unless a default is set.
type MockGenerator struct {
	info      Info
	responses map[string]string
	def       string
	err       error
}

// NewMockGenerator constructs a MockGenerator.
func NewMockGenerator(name string) *MockGenerator {
	return &MockGenerator{
		info:      Info{Name: name, Provider: "mock"},
		responses: make(map[string]string),
	}
}

// AddResponse registers a deterministic canned completion for an input prompt.
func (m *MockGenerator) AddResponse(prompt, response string) { m.responses[prompt] = response }

// SetDefault registers the response returned for any unmatched prompt.
func (m *MockGenerator) SetDefault(response string) { m.def = response }

// SetError makes every Generate call fail with the given error.
func (m *MockGenerator) SetError(err error) { m.err = err }

// Generate implements Generator.
func (m *MockGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}
	if resp, ok := m.responses[prompt]; ok {
		return resp, nil
	}
	if m.def != "" {
		return m.def, nil
	}
	return fmt.Sprintf("Mock response to: %s", prompt), nil
}

// Info implements Generator.
func (m *MockGenerator) Info() Info { return m.info }
