package fusion

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func conflictVersions() []Version {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return []Version{
		{Data: map[string]any{"name": "Ada", "city": "London"}, Confidence: 0.6, Timestamp: base, Source: "s1"},
		{Data: map[string]any{"name": "Adeline", "phone": "555-0100"}, Confidence: 0.9, Timestamp: base.Add(-time.Hour), Source: "s2"},
		{Data: map[string]any{"city": "Paris"}, Confidence: 0.3, Timestamp: base.Add(time.Hour), Source: "s3"},
	}
}

func TestResolveConflictsHighestConfidence(t *testing.T) {
	got, err := ResolveConflicts(conflictVersions(), HighestConfidence)
	require.NoError(t, err)
	assert.Equal(t, "s2", got.Source)
}

func TestResolveConflictsMostRecent(t *testing.T) {
	got, err := ResolveConflicts(conflictVersions(), MostRecent)
	require.NoError(t, err)
	assert.Equal(t, "s3", got.Source)
}

func TestResolveConflictsMerge(t *testing.T) {
	got, err := ResolveConflicts(conflictVersions(), Merge)
	require.NoError(t, err)

	// first-seen wins on collision
	assert.Equal(t, "Ada", got.Data["name"])
	assert.Equal(t, "London", got.Data["city"])
	assert.Equal(t, "555-0100", got.Data["phone"])
	assert.InDelta(t, 0.6, got.Confidence, 1e-9)
	assert.Equal(t, "merged", got.Source)
}

func TestResolveConflictsEmptyAndUnknown(t *testing.T) {
	_, err := ResolveConflicts(nil, Merge)
	assert.Error(t, err)

	_, err = ResolveConflicts(conflictVersions(), ConflictStrategy("vote"))
	assert.Error(t, err)
}

func TestDetectRelationshipsSharedEmployer(t *testing.T) {
	a := &Entity{ID: "e1", Type: "person", Data: map[Category]map[string]any{CategoryProfile: {"company": "Acme Corp"}}}
	b := &Entity{ID: "e2", Type: "person", Data: map[Category]map[string]any{CategoryContact: {"company": "acme corp"}}}
	c := &Entity{ID: "e3", Type: "person", Data: map[Category]map[string]any{CategoryProfile: {"company": "Globex"}}}
	org := &Entity{ID: "e4", Type: "organization", Data: map[Category]map[string]any{CategoryOrganization: {"company": "Acme Corp"}}}

	edges := DetectRelationships([]*Entity{a, b, c, org})
	require.Len(t, edges, 1)
	assert.Equal(t, "e1", edges[0].SourceID)
	assert.Equal(t, "e2", edges[0].TargetID)
	assert.Equal(t, "professional", edges[0].Type)
	assert.Equal(t, 0.8, edges[0].Confidence)
	assert.Equal(t, "shared_employer", edges[0].Evidence)
}

func TestDetectRelationshipsNoCompany(t *testing.T) {
	a := &Entity{ID: "e1", Type: "person", Data: map[Category]map[string]any{CategoryProfile: {"name": "Ada"}}}
	b := &Entity{ID: "e2", Type: "person", Data: map[Category]map[string]any{CategoryProfile: {"name": "Bob"}}}
	assert.Empty(t, DetectRelationships([]*Entity{a, b}))
}
