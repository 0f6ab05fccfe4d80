// Package config loads YAML configuration files and maps them onto the
// functional options of the bus, executor, fusion, quality and engine
// layers. Every field has a sensible default; a missing file section leaves
// the corresponding defaults untouched.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/intelmesh/intelmesh/agent"
	"github.com/intelmesh/intelmesh/bus"
	"github.com/intelmesh/intelmesh/engine"
	"github.com/intelmesh/intelmesh/fusion"
	"github.com/intelmesh/intelmesh/quality"
)

// BusConfig tunes the message bus.
type BusConfig struct {
	InboxBuffer           int     `yaml:"inboxBuffer"`
	RequestTimeoutSeconds float64 `yaml:"requestTimeoutSeconds"`
}

// ExecutorConfig sets the agent lifecycle defaults.
type ExecutorConfig struct {
	TimeoutSeconds float64 `yaml:"timeoutSeconds"`
	RetryAttempts  int     `yaml:"retryAttempts"`
}

// FusionConfig selects the fusion strategy and correlation threshold.
type FusionConfig struct {
	Strategy            string  `yaml:"strategy"`
	SimilarityThreshold float64 `yaml:"similarityThreshold"`
}

// QualityConfig sets the compliance gate thresholds and outlet allowlist.
type QualityConfig struct {
	CoverageThreshold   float64  `yaml:"coverageThreshold"`
	ValidityThreshold   float64  `yaml:"validityThreshold"`
	ReputableOutlets    []string `yaml:"reputableOutlets"`
	LinkCacheTTLSeconds float64  `yaml:"linkCacheTtlSeconds"`
}

// EngineConfig tunes the orchestration run.
type EngineConfig struct {
	MaxConcurrentCollections int `yaml:"maxConcurrentCollections"`
}

// Config is the root of the YAML configuration file.
type Config struct {
	Bus      BusConfig      `yaml:"bus"`
	Executor ExecutorConfig `yaml:"executor"`
	Fusion   FusionConfig   `yaml:"fusion"`
	Quality  QualityConfig  `yaml:"quality"`
	Engine   EngineConfig   `yaml:"engine"`
}

// Default returns the configuration matching each layer's built-in defaults.
func Default() Config {
	return Config{
		Bus:      BusConfig{InboxBuffer: 64, RequestTimeoutSeconds: 30},
		Executor: ExecutorConfig{TimeoutSeconds: 60},
		Fusion:   FusionConfig{Strategy: string(fusion.StrategyComprehensive), SimilarityThreshold: 0.7},
		Quality:  QualityConfig{CoverageThreshold: 0.9, ValidityThreshold: 0.8, LinkCacheTTLSeconds: 300},
		Engine:   EngineConfig{MaxConcurrentCollections: 4},
	}
}

// Load reads and parses the YAML file at path.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}
	return Parse(data)
}

// Parse unmarshals YAML over the defaults, so absent keys keep their default
// values, and validates the result.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks ranges and the strategy name.
func (c Config) Validate() error {
	if _, err := fusion.Strategy(c.Fusion.Strategy).Multiplier(); err != nil {
		return err
	}
	if c.Fusion.SimilarityThreshold < 0 || c.Fusion.SimilarityThreshold > 1 {
		return fmt.Errorf("similarity threshold %v outside [0,1]", c.Fusion.SimilarityThreshold)
	}
	if c.Quality.CoverageThreshold < 0 || c.Quality.CoverageThreshold > 1 {
		return fmt.Errorf("coverage threshold %v outside [0,1]", c.Quality.CoverageThreshold)
	}
	if c.Quality.ValidityThreshold < 0 || c.Quality.ValidityThreshold > 1 {
		return fmt.Errorf("validity threshold %v outside [0,1]", c.Quality.ValidityThreshold)
	}
	if c.Executor.RetryAttempts < 0 {
		return fmt.Errorf("retry attempts must not be negative")
	}
	return nil
}

// BusOptions maps the bus section onto bus options.
func (c Config) BusOptions() func(o *bus.Options) {
	return func(o *bus.Options) {
		if c.Bus.InboxBuffer > 0 {
			o.InboxBuffer = c.Bus.InboxBuffer
		}
		if c.Bus.RequestTimeoutSeconds > 0 {
			o.DefaultRequestTimeout = secs(c.Bus.RequestTimeoutSeconds)
		}
	}
}

// AgentOptions maps the executor section onto agent options.
func (c Config) AgentOptions() func(o *agent.Options) {
	return func(o *agent.Options) {
		if c.Executor.TimeoutSeconds > 0 {
			o.Timeout = secs(c.Executor.TimeoutSeconds)
		}
		o.RetryAttempts = c.Executor.RetryAttempts
	}
}

// FusionOptions maps the fusion section onto fusion options.
func (c Config) FusionOptions() func(o *fusion.Options) {
	return func(o *fusion.Options) {
		if c.Fusion.Strategy != "" {
			o.Strategy = fusion.Strategy(c.Fusion.Strategy)
		}
		if c.Fusion.SimilarityThreshold > 0 {
			o.SimilarityThreshold = c.Fusion.SimilarityThreshold
		}
	}
}

// QualityOptions maps the quality section onto gate options.
func (c Config) QualityOptions() func(o *quality.Options) {
	return func(o *quality.Options) {
		if c.Quality.CoverageThreshold > 0 {
			o.CoverageThreshold = c.Quality.CoverageThreshold
		}
		if c.Quality.ValidityThreshold > 0 {
			o.ValidityThreshold = c.Quality.ValidityThreshold
		}
		if len(c.Quality.ReputableOutlets) > 0 {
			o.ReputableOutlets = c.Quality.ReputableOutlets
		}
		if c.Quality.LinkCacheTTLSeconds > 0 {
			o.LinkCacheTTL = secs(c.Quality.LinkCacheTTLSeconds)
		}
	}
}

// EngineOptions maps the engine and bus sections onto engine options.
func (c Config) EngineOptions() func(o *engine.Options) {
	return func(o *engine.Options) {
		if c.Engine.MaxConcurrentCollections > 0 {
			o.Config.MaxConcurrentCollections = c.Engine.MaxConcurrentCollections
		}
		if c.Bus.InboxBuffer > 0 {
			o.Config.InboxBuffer = c.Bus.InboxBuffer
		}
	}
}

func secs(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
