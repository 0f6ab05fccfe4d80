package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/intelmesh/intelmesh/agent"
	"github.com/intelmesh/intelmesh/bus"
	"github.com/intelmesh/intelmesh/fusion"
	"github.com/intelmesh/intelmesh/quality"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
bus:
  inboxBuffer: 128
  requestTimeoutSeconds: 10
executor:
  timeoutSeconds: 30
  retryAttempts: 3
fusion:
  strategy: aggressive
  similarityThreshold: 0.8
quality:
  coverageThreshold: 0.95
  reputableOutlets:
    - intel.example.com
engine:
  maxConcurrentCollections: 8
`

func TestParseOverridesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, 128, cfg.Bus.InboxBuffer)
	assert.Equal(t, 3, cfg.Executor.RetryAttempts)
	assert.Equal(t, "aggressive", cfg.Fusion.Strategy)
	assert.Equal(t, 0.95, cfg.Quality.CoverageThreshold)
	// Absent keys keep their defaults.
	assert.Equal(t, 0.8, cfg.Quality.ValidityThreshold)
	assert.Equal(t, 300.0, cfg.Quality.LinkCacheTTLSeconds)
	assert.Equal(t, 8, cfg.Engine.MaxConcurrentCollections)
}

func TestParseEmptyKeepsDefaults(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestParseRejectsUnknownStrategy(t *testing.T) {
	_, err := Parse([]byte("fusion:\n  strategy: reckless\n"))
	assert.ErrorContains(t, err, `unknown fusion strategy "reckless"`)
}

func TestParseRejectsOutOfRangeThreshold(t *testing.T) {
	_, err := Parse([]byte("quality:\n  coverageThreshold: 1.5\n"))
	assert.ErrorContains(t, err, "outside [0,1]")
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "intelmesh.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 128, cfg.Bus.InboxBuffer)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestBusOptionsMapping(t *testing.T) {
	cfg, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)

	opts := bus.Options{}
	cfg.BusOptions()(&opts)
	assert.Equal(t, 128, opts.InboxBuffer)
	assert.Equal(t, 10*time.Second, opts.DefaultRequestTimeout)
}

func TestAgentOptionsMapping(t *testing.T) {
	cfg, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)

	opts := agent.Options{}
	cfg.AgentOptions()(&opts)
	assert.Equal(t, 30*time.Second, opts.Timeout)
	assert.Equal(t, 3, opts.RetryAttempts)
}

func TestFusionOptionsMapping(t *testing.T) {
	cfg, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)

	opts := fusion.Options{}
	cfg.FusionOptions()(&opts)
	assert.Equal(t, fusion.StrategyAggressive, opts.Strategy)
	assert.Equal(t, 0.8, opts.SimilarityThreshold)
}

func TestQualityOptionsMapping(t *testing.T) {
	cfg, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)

	opts := quality.Options{}
	cfg.QualityOptions()(&opts)
	assert.Equal(t, 0.95, opts.CoverageThreshold)
	assert.Equal(t, 0.8, opts.ValidityThreshold)
	assert.Equal(t, []string{"intel.example.com"}, opts.ReputableOutlets)
	assert.Equal(t, 5*time.Minute, opts.LinkCacheTTL)
}
