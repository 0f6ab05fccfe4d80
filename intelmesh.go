// Package intelmesh provides a high-level façade over the investigation
// engine and its services (fusion, synthesis, quality gate, sessions &
// logging) enabling rapid construction of multi-agent investigation systems.
// Most applications interact with this package by:
//  1. Creating an IntelMesh via New() (optionally overriding defaults)
//  2. Registering one or more collector agents
//  3. Running investigations via Investigate
//
// The façade delegates orchestration to engine.Engine while keeping setup
// and usage ergonomics concise. All defaults are safe for local development
// and testing; production deployments typically supply a real text-generation
// provider and a structured logger.
package intelmesh

import (
	"context"

	"github.com/intelmesh/intelmesh/agent"
	"github.com/intelmesh/intelmesh/config"
	"github.com/intelmesh/intelmesh/engine"
	"github.com/intelmesh/intelmesh/fusion"
	"github.com/intelmesh/intelmesh/logging"
	"github.com/intelmesh/intelmesh/model"
	"github.com/intelmesh/intelmesh/quality"
	"github.com/intelmesh/intelmesh/session"
	"github.com/intelmesh/intelmesh/synthesis"
)

// Options configures the IntelMesh instance.
type Options struct {
	// Config carries the layered configuration, typically loaded from YAML.
	// Defaults to config.Default().
	Config config.Config

	// Generator is the text-generation collaborator driving synthesis. When
	// nil, runs stop after fusion and no product is synthesized.
	Generator model.Generator

	// SynthesisRole keys the fallback template registry.
	SynthesisRole string

	// Sessions stores conversation history for the duration of a run.
	// Defaults to the in-memory store.
	Sessions session.Store

	// Logger defaults to NoOp if nil.
	Logger logging.Logger
}

// IntelMesh is the high-level façade aggregating the underlying engine and
// services.
type IntelMesh struct {
	opts   Options
	engine *engine.Engine
}

// New creates a new IntelMesh instance with optional overrides. Any unset
// service is initialized with an in-memory implementation.
func New(optFns ...func(o *Options)) *IntelMesh {
	opts := Options{
		Config:        config.Default(),
		SynthesisRole: "intelligence_analyst",
		Sessions:      session.NewInMemoryStore(),
		Logger:        logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	var synth *synthesis.Synthesizer
	if opts.Generator != nil {
		var agentOpts agent.Options
		opts.Config.AgentOptions()(&agentOpts)
		synth = synthesis.New(opts.Generator, func(o *synthesis.Options) {
			o.Role = opts.SynthesisRole
			if agentOpts.Timeout > 0 {
				o.Timeout = agentOpts.Timeout
			}
			if agentOpts.RetryAttempts > 0 {
				o.RetryAttempts = agentOpts.RetryAttempts
			}
			o.Logger = opts.Logger
		})
	}

	e := engine.New(func(o *engine.Options) {
		opts.Config.EngineOptions()(o)
		o.Fusion = fusion.NewEngine(func(fo *fusion.Options) {
			opts.Config.FusionOptions()(fo)
			fo.Logger = opts.Logger
		})
		o.Gate = quality.NewGate(func(qo *quality.Options) {
			opts.Config.QualityOptions()(qo)
			qo.Logger = opts.Logger
		})
		o.Synthesizer = synth
		o.Sessions = opts.Sessions
		o.Logger = opts.Logger
	})

	return &IntelMesh{opts: opts, engine: e}
}

// RegisterCollector adds a collector agent to the underlying engine.
func (m *IntelMesh) RegisterCollector(c engine.Collector) error {
	return m.engine.Register(c)
}

// Investigate runs a complete investigation and returns the run report.
func (m *IntelMesh) Investigate(ctx context.Context, inv engine.Investigation) (*engine.RunReport, error) {
	return m.engine.Run(ctx, inv)
}

// Engine exposes the underlying engine for advanced wiring (bus handlers,
// collector status snapshots).
func (m *IntelMesh) Engine() *engine.Engine { return m.engine }

// Close releases the engine's resources.
func (m *IntelMesh) Close() { m.engine.Close() }
