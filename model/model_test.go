package model

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockGeneratorCannedResponse(t *testing.T) {
	g := NewMockGenerator("test")
	g.AddResponse("summarize findings", `{"key_findings": []}`)

	out, err := g.Generate(context.Background(), "summarize findings")
	require.NoError(t, err)
	assert.Equal(t, `{"key_findings": []}`, out)

	out, err = g.Generate(context.Background(), "something else")
	require.NoError(t, err)
	assert.Equal(t, "Mock response to: something else", out)
}

func TestMockGeneratorDefault(t *testing.T) {
	g := NewMockGenerator("test")
	g.SetDefault("canned")

	out, err := g.Generate(context.Background(), "anything")
	require.NoError(t, err)
	assert.Equal(t, "canned", out)
}

func TestMockGeneratorError(t *testing.T) {
	g := NewMockGenerator("test")
	g.SetError(errors.New("provider unavailable"))

	_, err := g.Generate(context.Background(), "anything")
	assert.EqualError(t, err, "provider unavailable")
}

func TestMockGeneratorContextCancelled(t *testing.T) {
	g := NewMockGenerator("test")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := g.Generate(ctx, "anything")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMockGeneratorInfo(t *testing.T) {
	g := NewMockGenerator("stub-model")
	assert.Equal(t, Info{Name: "stub-model", Provider: "mock"}, g.Info())
}
