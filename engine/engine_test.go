package engine

import (
	"context"
	"testing"

	"github.com/intelmesh/intelmesh/core"
	"github.com/intelmesh/intelmesh/model"
	"github.com/intelmesh/intelmesh/quality"
	"github.com/intelmesh/intelmesh/synthesis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const citedProduct = `{
  "executive_summary": "Target profile assembled from registry and directory data.",
  "key_findings": [
    {
      "description": "Target domain is registered to the subject",
      "significance": "high",
      "confidence": 0.9,
      "source_links": ["https://registry.example.gov/whois/example.com"]
    }
  ],
  "insights": [],
  "recommendations": []
}`

const uncitedProduct = `{
  "executive_summary": "Summary without substantiation.",
  "key_findings": [
    {"description": "An unsupported assertion", "confidence": 0.4}
  ],
  "insights": [],
  "recommendations": []
}`

func registryCollector() Collector {
	return NewCollector("registry", func(ctx context.Context, target map[string]any) (map[string]any, error) {
		return map[string]any{
			"results": []map[string]any{
				{"name": "Jordan Reyes", "email": "jordan@example.com"},
			},
			"sources": []string{"registry"},
		}, nil
	})
}

func directoryCollector() Collector {
	return NewCollector("directory", func(ctx context.Context, target map[string]any) (map[string]any, error) {
		return map[string]any{
			"results": []map[string]any{
				{"name": "Jordan Reyes", "email": "JORDAN@EXAMPLE.COM", "company": "Acme"},
			},
		}, nil
	})
}

func newTestEngine(t *testing.T, generatorOutput string) *Engine {
	t.Helper()
	gen := model.NewMockGenerator("test")
	gen.SetDefault(generatorOutput)
	e := New(func(o *Options) {
		o.Synthesizer = synthesis.New(gen, func(so *synthesis.Options) {
			so.RetryAttempts = 1
		})
	})
	t.Cleanup(e.Close)
	return e
}

func TestRunEndToEndCompliant(t *testing.T) {
	e := newTestEngine(t, "```json\n"+citedProduct+"\n```")
	require.NoError(t, e.Register(registryCollector()))
	require.NoError(t, e.Register(directoryCollector()))

	report, err := e.Run(context.Background(), Investigation{
		Objective: "profile the subject",
		Target:    map[string]any{"task": "profile", "name": "Jordan Reyes"},
	})
	require.NoError(t, err)

	assert.NotEmpty(t, report.RunID)
	assert.Len(t, report.Records, 2)
	require.NotNil(t, report.Fusion)
	assert.True(t, report.Fusion.CollectionSuccess)
	// The two records share an email (case-insensitive) and collapse into one entity.
	require.Len(t, report.Fusion.Entities, 1)
	assert.ElementsMatch(t, []string{"registry", "directory"}, report.Fusion.Entities[0].Sources)

	require.NotNil(t, report.Product)
	require.NotNil(t, report.Compliance)
	assert.Equal(t, quality.Compliant, report.Compliance.ComplianceStatus)
	assert.False(t, report.Provisional)
}

func TestRunNonCompliantIsProvisional(t *testing.T) {
	e := newTestEngine(t, uncitedProduct)
	require.NoError(t, e.Register(registryCollector()))

	report, err := e.Run(context.Background(), Investigation{Target: map[string]any{}})
	require.NoError(t, err)

	assert.True(t, report.Provisional)
	assert.Equal(t, quality.NonCompliant, report.Compliance.ComplianceStatus)
	assert.NotEmpty(t, report.Recommendations)
	assert.NotNil(t, report.Product, "provisional runs still return the product")
}

func TestRunCollectorFailureDoesNotAbort(t *testing.T) {
	e := newTestEngine(t, citedProduct)
	require.NoError(t, e.Register(registryCollector()))
	require.NoError(t, e.Register(NewCollector("flaky", func(ctx context.Context, target map[string]any) (map[string]any, error) {
		panic("collector exploded")
	})))

	report, err := e.Run(context.Background(), Investigation{Target: map[string]any{}})
	require.NoError(t, err)

	require.Len(t, report.Records, 2)
	byName := map[string]core.Record{}
	for _, rec := range report.Records {
		byName[rec.Source] = rec
	}
	assert.True(t, byName["registry"].CollectionSuccess)
	assert.False(t, byName["flaky"].CollectionSuccess)
	assert.Contains(t, byName["flaky"].Error, "panic during execution")
	assert.True(t, report.Fusion.CollectionSuccess)
}

func TestRegisterDuplicateCollector(t *testing.T) {
	e := newTestEngine(t, citedProduct)
	require.NoError(t, e.Register(registryCollector()))
	err := e.Register(registryCollector())
	assert.ErrorContains(t, err, "already registered")
	assert.Equal(t, []string{"registry"}, e.Collectors())
}

func TestRunWithoutSynthesizerStopsAfterFusion(t *testing.T) {
	e := New()
	t.Cleanup(e.Close)
	require.NoError(t, e.Register(registryCollector()))

	report, err := e.Run(context.Background(), Investigation{Target: map[string]any{}})
	require.NoError(t, err)
	assert.NotNil(t, report.Fusion)
	assert.Nil(t, report.Product)
	assert.Nil(t, report.Compliance)
}

func TestRunAnnouncesOnBus(t *testing.T) {
	e := newTestEngine(t, citedProduct)
	require.NoError(t, e.Register(registryCollector()))
	require.NoError(t, e.Register(directoryCollector()))

	_, err := e.Run(context.Background(), Investigation{Target: map[string]any{}})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, int(e.Bus().Status().Sent), 2)
}

func TestStatusesReportsExecutorCollectors(t *testing.T) {
	e := newTestEngine(t, citedProduct)
	require.NoError(t, e.Register(registryCollector()))

	_, err := e.Run(context.Background(), Investigation{Target: map[string]any{}})
	require.NoError(t, err)

	statuses := e.Statuses()
	require.Contains(t, statuses, "registry")
	assert.Equal(t, 1, statuses["registry"].ExecutionCount)
	assert.Equal(t, 1.0, statuses["registry"].SuccessRate)
}
