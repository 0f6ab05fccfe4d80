package fusion

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b map[string]any
		want float64
	}{
		{
			"identical single field",
			map[string]any{"email": "a@x.com"},
			map[string]any{"email": "a@x.com"},
			1.0,
		},
		{
			"case insensitive match",
			map[string]any{"email": "A@x.com"},
			map[string]any{"email": "a@X.COM"},
			1.0,
		},
		{
			"half the shared fields match",
			map[string]any{"name": "Ada", "city": "London"},
			map[string]any{"name": "Ada", "city": "Paris"},
			0.5,
		},
		{
			"no shared fields",
			map[string]any{"name": "Ada"},
			map[string]any{"email": "a@x.com"},
			0.0,
		},
		{
			"normalization timestamp excluded",
			map[string]any{"name": "Ada", "normalized_at": "t"},
			map[string]any{"name": "Bob", "normalized_at": "t"},
			0.0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Similarity(tt.a, tt.b), 1e-9)
		})
	}
}

func TestCorrelateCaseInsensitiveEmailsSameEntity(t *testing.T) {
	ix := NewIndex(0.7)

	ix.Correlate(map[string]any{"email": "A@x.com"}, CategoryContact, "linkedin")
	ix.Correlate(map[string]any{"email": "a@x.com"}, CategoryContact, "github")

	require.Equal(t, 1, ix.Len())
	e := ix.Entities()[0]
	assert.ElementsMatch(t, []string{"linkedin", "github"}, e.Sources)
	assert.Equal(t, "person", e.Type)
	assert.InDelta(t, baseConfidence+matchBonus, e.Confidence, 1e-9)
}

func TestCorrelateAttachesBySimilarity(t *testing.T) {
	ix := NewIndex(0.7)

	ix.Correlate(map[string]any{"name": "Ada Lovelace", "email": "ada@x.com"}, CategoryContact, "s1")
	// Different identity hash (extra phone) but all shared fields equal.
	ix.Correlate(map[string]any{"name": "ada lovelace", "phone": "555-0100"}, CategoryContact, "s2")

	require.Equal(t, 1, ix.Len())
	e := ix.Entities()[0]
	// first-seen wins; new fields merged in
	assert.Equal(t, "Ada Lovelace", e.Data[CategoryContact]["name"])
	assert.Equal(t, "555-0100", e.Data[CategoryContact]["phone"])
}

func TestCorrelateSeedsDistinctEntities(t *testing.T) {
	ix := NewIndex(0.7)

	ix.Correlate(map[string]any{"email": "a@x.com"}, CategoryContact, "s1")
	ix.Correlate(map[string]any{"email": "b@y.com"}, CategoryContact, "s1")

	assert.Equal(t, 2, ix.Len())
}

func TestCorrelateConfidenceNeverExceedsOne(t *testing.T) {
	ix := NewIndex(0.7)
	for i := 0; i < 10; i++ {
		ix.Correlate(map[string]any{"email": "a@x.com"}, CategoryContact, "s")
	}
	e := ix.Entities()[0]
	assert.LessOrEqual(t, e.Confidence, 1.0)
}

func TestCorrelateFirstSeenWinsOnCollision(t *testing.T) {
	ix := NewIndex(0.7)
	ix.Correlate(map[string]any{"email": "a@x.com", "name": "Ada"}, CategoryContact, "s1")
	ix.Correlate(map[string]any{"email": "a@x.com", "name": "Adeline"}, CategoryContact, "s2")

	e := ix.Entities()[0]
	assert.Equal(t, "Ada", e.Data[CategoryContact]["name"])
}
