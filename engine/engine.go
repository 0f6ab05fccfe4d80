package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/intelmesh/intelmesh/agent"
	"github.com/intelmesh/intelmesh/bus"
	"github.com/intelmesh/intelmesh/core"
	"github.com/intelmesh/intelmesh/fusion"
	"github.com/intelmesh/intelmesh/internal/util"
	"github.com/intelmesh/intelmesh/logging"
	"github.com/intelmesh/intelmesh/quality"
	"github.com/intelmesh/intelmesh/session"
	"github.com/intelmesh/intelmesh/synthesis"
)

// orchestratorName is the engine's own address on the message bus.
const orchestratorName = "orchestrator"

// Config defines tuning parameters for the engine's operational behavior.
type Config struct {
	// MaxConcurrentCollections bounds how many collectors execute
	// simultaneously. Zero or negative means the default of 4.
	MaxConcurrentCollections int

	// InboxBuffer is forwarded to the message bus.
	InboxBuffer int
}

// DefaultConfig provides the default engine configuration.
var DefaultConfig = Config{
	MaxConcurrentCollections: 4,
	InboxBuffer:              64,
}

// Options configures an Engine.
type Options struct {
	// Config contains operational parameters. Defaults to DefaultConfig.
	Config Config

	// Fusion merges collector records into entities. Defaults to a fusion
	// engine with comprehensive strategy.
	Fusion *fusion.Engine

	// Synthesizer turns fused entities into the product. Required for Run;
	// without one the run stops after fusion.
	Synthesizer *synthesis.Synthesizer

	// Gate validates the product's claims. Defaults to the standard gate.
	Gate *quality.Gate

	// Sessions stores conversation history for the duration of a run.
	// Defaults to the in-memory store.
	Sessions session.Store

	// Logger provides structured logging. Defaults to NoOp.
	Logger logging.Logger
}

// Investigation describes one run: an objective and the target attributes
// handed to every collector.
type Investigation struct {
	ID        string         `json:"id"`
	Objective string         `json:"objective"`
	Target    map[string]any `json:"target"`
}

// RunReport is the complete outcome of one investigation run. Provisional is
// set when the product failed the compliance gate; the product is still
// returned together with the gate's remediation recommendations.
type RunReport struct {
	RunID           string             `json:"runId"`
	Records         []core.Record      `json:"records"`
	Fusion          *fusion.Result     `json:"fusion"`
	Product         *synthesis.Product `json:"product"`
	Compliance      *quality.Report    `json:"compliance"`
	Provisional     bool               `json:"provisional"`
	Recommendations []string           `json:"recommendations,omitempty"`
	DurationSeconds float64            `json:"durationSeconds"`
}

// Engine coordinates an investigation run end to end. It owns the agent
// directory and message bus, holds the static collector registry, and drives
// collection, fusion, synthesis and compliance validation in order.
type Engine struct {
	dir      *core.Directory
	bus      *bus.Bus
	fusion   *fusion.Engine
	synth    *synthesis.Synthesizer
	gate     *quality.Gate
	sessions session.Store
	config   Config
	logger   logging.Logger

	mu         sync.RWMutex
	collectors map[string]Collector
	order      []string
}

// New creates an Engine with in-memory defaults. Register collectors before
// calling Run; the registry is static once runs begin.
func New(optFns ...func(o *Options)) *Engine {
	opts := Options{
		Config:   DefaultConfig,
		Sessions: session.NewInMemoryStore(),
		Logger:   logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Fusion == nil {
		opts.Fusion = fusion.NewEngine(func(o *fusion.Options) { o.Logger = opts.Logger })
	}
	if opts.Gate == nil {
		opts.Gate = quality.NewGate(func(o *quality.Options) { o.Logger = opts.Logger })
	}
	if opts.Config.MaxConcurrentCollections <= 0 {
		opts.Config.MaxConcurrentCollections = DefaultConfig.MaxConcurrentCollections
	}

	dir := core.NewDirectory()
	if _, err := dir.Register(orchestratorName); err != nil {
		// Fresh directory; the only way to get here is a name collision that
		// cannot happen.
		panic(err)
	}

	e := &Engine{
		dir:        dir,
		fusion:     opts.Fusion,
		synth:      opts.Synthesizer,
		gate:       opts.Gate,
		sessions:   opts.Sessions,
		config:     opts.Config,
		logger:     opts.Logger,
		collectors: make(map[string]Collector),
	}
	e.bus = bus.New(dir, func(o *bus.Options) {
		if opts.Config.InboxBuffer > 0 {
			o.InboxBuffer = opts.Config.InboxBuffer
		}
		o.Logger = opts.Logger
	})
	return e
}

// Register adds a collector to the static registry and the agent directory.
// Duplicate names are rejected.
func (e *Engine) Register(c Collector) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	name := c.Name()
	if _, exists := e.collectors[name]; exists {
		return fmt.Errorf("collector %q already registered", name)
	}
	if _, err := e.dir.Register(name); err != nil {
		return err
	}
	e.collectors[name] = c
	e.order = append(e.order, name)
	e.logger.Info("collector registered", "name", name)
	return nil
}

// Collectors returns the registered collector names in registration order.
func (e *Engine) Collectors() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]string, len(e.order))
	copy(out, e.order)
	return out
}

// Bus exposes the engine's message bus for handler registration.
func (e *Engine) Bus() *bus.Bus { return e.bus }

// Run executes the investigation: collectors run concurrently under the
// configured limit, records are fused, the product is synthesized and
// validated. A NON_COMPLIANT verdict does not fail the run; the product is
// marked provisional and the gate's recommendations are attached. Run state
// is discarded at completion.
func (e *Engine) Run(ctx context.Context, inv Investigation) (*RunReport, error) {
	start := time.Now()
	if inv.ID == "" {
		inv.ID = core.NewID()
	}
	if rendered, err := util.RenderTemplate(inv.Objective, inv.Target); err == nil {
		inv.Objective = rendered
	} else {
		e.logger.Warn("objective template failed, using raw text", "error", err.Error())
	}
	logger := e.logger
	if ml, ok := e.logger.(*logging.MeshLogger); ok {
		logger = ml.WithRun(inv.ID)
	}
	logger.Info("run started", "objective", inv.Objective, "collectors", len(e.Collectors()))

	defer e.sessions.Clear()

	records := e.collect(ctx, logger, inv)

	fused := e.fusion.Fuse(records)
	report := &RunReport{RunID: inv.ID, Records: records, Fusion: fused}
	if !fused.CollectionSuccess {
		report.DurationSeconds = time.Since(start).Seconds()
		return report, errors.New(fused.Error)
	}

	if e.synth == nil {
		report.DurationSeconds = time.Since(start).Seconds()
		logger.Info("run finished without synthesis", "entities", len(fused.Entities))
		return report, nil
	}

	product, result := e.synth.Synthesize(ctx, fused, inv.Objective)
	if !result.Success {
		report.DurationSeconds = time.Since(start).Seconds()
		return report, fmt.Errorf("synthesis failed: %s", result.ErrorMessage)
	}
	report.Product = product

	report.Compliance = e.gate.Validate(product.Claims())
	if report.Compliance.ComplianceStatus == quality.NonCompliant {
		report.Provisional = true
		report.Recommendations = report.Compliance.Recommendations
		logger.Warn("product is provisional",
			"coverage", report.Compliance.CoverageRate,
			"validity", report.Compliance.ValidityRate)
	}

	report.DurationSeconds = time.Since(start).Seconds()
	logger.Info("run finished",
		"entities", len(fused.Entities),
		"claims", report.Compliance.TotalClaims,
		"status", string(report.Compliance.ComplianceStatus),
		"seconds", report.DurationSeconds)
	return report, nil
}

// collect executes every registered collector with bounded parallelism.
// Collector failures surface as failed records, never as run errors.
func (e *Engine) collect(ctx context.Context, logger logging.Logger, inv Investigation) []core.Record {
	e.mu.RLock()
	names := make([]string, len(e.order))
	copy(names, e.order)
	collectors := make(map[string]Collector, len(e.collectors))
	for name, c := range e.collectors {
		collectors[name] = c
	}
	e.mu.RUnlock()

	results := make([]core.Record, len(names))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.config.MaxConcurrentCollections)

	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			rec := collectors[name].Collect(gctx, inv.Target)
			results[i] = rec
			e.announce(name, rec)
			return nil
		})
	}
	// Collectors never return errors; Wait only orders the barrier.
	_ = g.Wait()

	logger.Debug("collection finished", "records", len(results))
	return results
}

// announce publishes the collection outcome on the bus and records it in the
// run's conversation history with the orchestrator.
func (e *Engine) announce(collector string, rec core.Record) {
	payload := map[string]any{
		"source":            rec.Source,
		"resultCount":       len(rec.Results),
		"collectionSuccess": rec.CollectionSuccess,
	}
	kind := core.KindDataShare
	if !rec.CollectionSuccess {
		kind = core.KindErrorNotification
		payload["error"] = rec.Error
	}

	msg := core.NewMessage(collector, orchestratorName, kind, payload)
	if kind == core.KindErrorNotification {
		msg.Priority = core.PriorityCritical
	}
	if err := e.bus.Send(msg); err != nil {
		e.logger.Warn("announce failed", "collector", collector, "error", err.Error())
		return
	}
	convID := session.ConversationID(collector, orchestratorName)
	if err := e.sessions.Append(convID, msg); err != nil {
		e.logger.Warn("history append failed", "conversation", convID, "error", err.Error())
	}
}

// Statuses returns the lifecycle snapshots of executor-backed collectors.
func (e *Engine) Statuses() map[string]agent.Status {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make(map[string]agent.Status, len(e.collectors))
	for name, c := range e.collectors {
		if sc, ok := c.(interface{ Status() agent.Status }); ok {
			out[name] = sc.Status()
		}
	}
	return out
}

// Close shuts down the message bus. The engine must not be used afterwards.
func (e *Engine) Close() { e.bus.Close() }
