// Package agent provides the generic execution lifecycle wrapper used by
// every investigation agent, collection or synthesis alike: validate the
// input, run the unit of work under a deadline, retry transient failures
// with exponential backoff, and always return a structured core.AgentResult
// instead of propagating errors.
package agent

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/intelmesh/intelmesh/core"
	"github.com/intelmesh/intelmesh/logging"
)

// State names the executor lifecycle phases.
// Idle → Validating → Executing → (Failed→Retrying)* → Succeeded | Failed.
type State string

const (
	// StateIdle is the initial state.
	StateIdle State = "idle"
	// StateValidating runs the input predicate.
	StateValidating State = "validating"
	// StateExecuting runs the unit of work.
	StateExecuting State = "executing"
	// StateRetrying waits out the backoff between failed attempts.
	StateRetrying State = "retrying"
	// StateSucceeded is terminal.
	StateSucceeded State = "succeeded"
	// StateFailed is terminal.
	StateFailed State = "failed"
)

// UnitFunc is the unit of work wrapped by an Executor. Implementations
// should honor ctx cancellation; the executor enforces the overall deadline
// regardless.
type UnitFunc func(ctx context.Context, input map[string]any) (map[string]any, error)

// ValidateFunc checks the input before execution. A non-nil error fails the
// execution immediately with no retry.
type ValidateFunc func(input map[string]any) error

// Options configures an Executor.
type Options struct {
	// Name identifies the agent in logs and status snapshots.
	Name string

	// Timeout is the overall execution deadline covering all attempts and
	// backoff sleeps.
	Timeout time.Duration

	// RetryAttempts is the total number of attempts when positive. Zero or
	// negative means a single attempt with no retry.
	RetryAttempts int

	// RequiredFields drives the confidence computation: the fraction of these
	// keys present and non-empty in the output. When empty, confidence
	// defaults to 0.8.
	RequiredFields []string

	// Validate is the optional input predicate.
	Validate ValidateFunc

	// Backoff returns the wait before retrying after the given zero-based
	// attempt. Defaults to 2^attempt seconds.
	Backoff func(attempt int) time.Duration

	// Logger for lifecycle events.
	Logger logging.Logger
}

// Status is a snapshot of the executor's activity and track record.
type Status struct {
	Name           string  `json:"name"`
	Active         bool    `json:"active"`
	State          State   `json:"state"`
	CurrentTask    string  `json:"currentTask,omitempty"`
	ExecutionCount int     `json:"executionCount"`
	AverageSeconds float64 `json:"averageExecutionSeconds"`
	SuccessRate    float64 `json:"successRate"`
}

// Executor wraps a UnitFunc with the agent lifecycle. Execute never returns
// a Go error; every failure mode is folded into the AgentResult so the
// orchestrator can keep processing other agents' results even when one agent
// fails irrecoverably.
type Executor struct {
	unit   UnitFunc
	opts   Options
	logger logging.Logger

	mu           sync.Mutex
	state        State
	active       bool
	currentTask  string
	execCount    int
	successCount int
	totalSeconds float64
	history      []core.AgentResult
}

// New creates an Executor around the given unit of work.
func New(unit UnitFunc, optFns ...func(o *Options)) *Executor {
	opts := Options{
		Name:    "agent",
		Timeout: 60 * time.Second,
		Backoff: func(attempt int) time.Duration {
			return time.Duration(math.Pow(2, float64(attempt)) * float64(time.Second))
		},
		Logger: logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Executor{unit: unit, opts: opts, logger: opts.Logger, state: StateIdle}
}

// Execute runs the full lifecycle for one input. It always returns a result:
// validation failures, timeouts, panics and exhausted retries all surface as
// AgentResult values with Success=false and a cause message.
func (e *Executor) Execute(ctx context.Context, input map[string]any) core.AgentResult {
	start := time.Now()
	e.begin(input)

	result := e.run(ctx, input)
	result.ExecutionSeconds = time.Since(start).Seconds()

	e.finish(result)
	e.logger.Debug("execution finished", "agent", e.opts.Name, "success", result.Success, "seconds", result.ExecutionSeconds)
	return result
}

func (e *Executor) run(ctx context.Context, input map[string]any) core.AgentResult {
	e.setState(StateValidating)
	if e.opts.Validate != nil {
		if err := e.opts.Validate(input); err != nil {
			e.logger.Warn("input validation failed", "agent", e.opts.Name, "error", err.Error())
			return core.NewErrorResult("input validation failed")
		}
	}

	ctx, cancel := context.WithTimeout(ctx, e.opts.Timeout)
	defer cancel()

	e.setState(StateExecuting)

	if e.opts.RetryAttempts <= 0 {
		output, err := e.attempt(ctx, input)
		if err != nil {
			if ctx.Err() != nil {
				return e.interruptResult(ctx)
			}
			return core.NewErrorResult(fmt.Sprintf("failed after 0 retries: %v", err))
		}
		return e.succeed(output, 1)
	}

	var lastErr error
	for attempt := 0; attempt < e.opts.RetryAttempts; attempt++ {
		if attempt > 0 {
			e.setState(StateRetrying)
			if !e.backoff(ctx, attempt-1) {
				return e.interruptResult(ctx)
			}
			e.setState(StateExecuting)
		}

		output, err := e.attempt(ctx, input)
		if err == nil {
			return e.succeed(output, attempt+1)
		}
		if ctx.Err() != nil {
			return e.interruptResult(ctx)
		}
		if !core.Retryable(err) {
			return core.NewErrorResult(err.Error())
		}
		lastErr = err
		e.logger.Warn("attempt failed", "agent", e.opts.Name, "attempt", attempt+1, "error", err.Error())
	}

	return core.NewErrorResult(fmt.Sprintf("all %d attempts failed, last error: %v", e.opts.RetryAttempts, lastErr))
}

// attempt runs the unit of work once, converting panics into errors and
// abandoning the attempt when the deadline fires first. Cancellation is
// scoped to this executor's context; sibling executions are unaffected.
func (e *Executor) attempt(ctx context.Context, input map[string]any) (map[string]any, error) {
	type outcome struct {
		output map[string]any
		err    error
	}
	ch := make(chan outcome, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- outcome{err: fmt.Errorf("panic during execution: %v", r)}
			}
		}()
		output, err := e.unit(ctx, input)
		ch <- outcome{output: output, err: err}
	}()

	select {
	case o := <-ch:
		return o.output, o.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// backoff sleeps 2^attempt seconds (or the configured schedule), returning
// false when the deadline fires during the wait.
func (e *Executor) backoff(ctx context.Context, attempt int) bool {
	timer := time.NewTimer(e.opts.Backoff(attempt))
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}

func (e *Executor) succeed(output map[string]any, attempts int) core.AgentResult {
	if output == nil {
		output = map[string]any{}
	}
	result := core.NewAgentResult(output, e.confidence(output), extractSources(output))
	result.Metadata["agent"] = e.opts.Name
	result.Metadata["attempts"] = attempts
	return result
}

// confidence is the fraction of required output fields present and
// non-empty, or 0.8 when no required fields are configured.
func (e *Executor) confidence(output map[string]any) float64 {
	if len(e.opts.RequiredFields) == 0 {
		return 0.8
	}
	present := 0
	for _, field := range e.opts.RequiredFields {
		if hasValue(output[field]) {
			present++
		}
	}
	return core.ClampConfidence(float64(present) / float64(len(e.opts.RequiredFields)))
}

func (e *Executor) timeoutMessage() string {
	return fmt.Sprintf("timed out after %gs", e.opts.Timeout.Seconds())
}

// interruptResult distinguishes the executor's own deadline from a caller
// cancelling the parent context; only the former is reported as a timeout.
func (e *Executor) interruptResult(ctx context.Context) core.AgentResult {
	if errors.Is(ctx.Err(), context.Canceled) {
		return core.NewErrorResult("execution cancelled")
	}
	return core.NewErrorResult(e.timeoutMessage())
}

func hasValue(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case string:
		return val != ""
	case []any:
		return len(val) > 0
	case []string:
		return len(val) > 0
	case map[string]any:
		return len(val) > 0
	default:
		return true
	}
}

// sourceFields are the well-known output keys source identifiers are
// extracted from.
var sourceFields = []string{"sources", "references", "citations", "urls"}

// extractSources collects a deduplicated, order-preserving list of source
// identifiers from the well-known fields.
func extractSources(output map[string]any) []string {
	seen := map[string]bool{}
	var sources []string
	add := func(s string) {
		if s == "" || seen[s] {
			return
		}
		seen[s] = true
		sources = append(sources, s)
	}

	for _, field := range sourceFields {
		switch v := output[field].(type) {
		case string:
			add(v)
		case []string:
			for _, s := range v {
				add(s)
			}
		case []any:
			for _, item := range v {
				if s, ok := item.(string); ok {
					add(s)
				}
			}
		}
	}
	return sources
}

func (e *Executor) begin(input map[string]any) {
	task := e.opts.Name
	if t, ok := input["task"].(string); ok && t != "" {
		task = t
	}
	e.mu.Lock()
	e.active = true
	e.currentTask = task
	e.mu.Unlock()
}

func (e *Executor) finish(result core.AgentResult) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.active = false
	e.currentTask = ""
	e.execCount++
	e.totalSeconds += result.ExecutionSeconds
	if result.Success {
		e.successCount++
		e.state = StateSucceeded
	} else {
		e.state = StateFailed
	}
	e.history = append(e.history, result)
}

func (e *Executor) setState(s State) {
	e.mu.Lock()
	e.state = s
	e.mu.Unlock()
}

// Status returns a snapshot of the executor's activity and track record.
func (e *Executor) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	st := Status{
		Name:           e.opts.Name,
		Active:         e.active,
		State:          e.state,
		CurrentTask:    e.currentTask,
		ExecutionCount: e.execCount,
	}
	if e.execCount > 0 {
		st.AverageSeconds = e.totalSeconds / float64(e.execCount)
		st.SuccessRate = float64(e.successCount) / float64(e.execCount)
	}
	return st
}

// History returns a defensive copy of all results produced so far, oldest
// first.
func (e *Executor) History() []core.AgentResult {
	e.mu.Lock()
	defer e.mu.Unlock()
	history := make([]core.AgentResult, len(e.history))
	copy(history, e.history)
	return history
}
