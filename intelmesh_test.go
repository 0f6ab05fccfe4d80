package intelmesh

import (
	"context"
	"testing"

	"github.com/intelmesh/intelmesh/config"
	"github.com/intelmesh/intelmesh/engine"
	"github.com/intelmesh/intelmesh/model"
	"github.com/intelmesh/intelmesh/quality"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInvestigateRoundTrip(t *testing.T) {
	gen := model.NewMockGenerator("test")
	gen.SetDefault(`{
		"executive_summary": "Subject verified.",
		"key_findings": [
			{
				"description": "Subject operates the target domain",
				"significance": "high",
				"confidence": 0.9,
				"source_links": ["https://registry.example.gov/whois/example.com"]
			}
		],
		"insights": [],
		"recommendations": []
	}`)

	mesh := New(func(o *Options) { o.Generator = gen })
	t.Cleanup(mesh.Close)

	err := mesh.RegisterCollector(engine.NewCollector("whois", func(ctx context.Context, target map[string]any) (map[string]any, error) {
		return map[string]any{
			"results": []map[string]any{{"name": "Jordan Reyes", "url": "https://registry.example.gov/whois/example.com"}},
		}, nil
	}))
	require.NoError(t, err)

	report, err := mesh.Investigate(context.Background(), engine.Investigation{
		Objective: "verify domain ownership",
		Target:    map[string]any{"domain": "example.com"},
	})
	require.NoError(t, err)

	require.NotNil(t, report.Product)
	assert.Equal(t, quality.Compliant, report.Compliance.ComplianceStatus)
	assert.False(t, report.Provisional)
}

func TestNewAppliesConfig(t *testing.T) {
	cfg, err := config.Parse([]byte("engine:\n  maxConcurrentCollections: 2\nfusion:\n  strategy: conservative\n"))
	require.NoError(t, err)

	mesh := New(func(o *Options) { o.Config = cfg })
	t.Cleanup(mesh.Close)

	assert.Empty(t, mesh.Engine().Collectors())
}

func TestInvestigateWithoutGenerator(t *testing.T) {
	mesh := New()
	t.Cleanup(mesh.Close)

	require.NoError(t, mesh.RegisterCollector(engine.NewCollector("dns", func(ctx context.Context, target map[string]any) (map[string]any, error) {
		return map[string]any{"results": []map[string]any{{"name": "host", "address": "1.2.3.4"}}}, nil
	})))

	report, err := mesh.Investigate(context.Background(), engine.Investigation{Target: map[string]any{}})
	require.NoError(t, err)
	assert.Nil(t, report.Product)
	assert.NotNil(t, report.Fusion)
}
