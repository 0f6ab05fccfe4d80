package core

import "time"

// AgentResult is the structured outcome of a single agent execution. Agent
// executions never surface Go errors to callers; every failure mode is folded
// into a result with Success=false and a non-empty ErrorMessage. This lets an
// orchestrator aggregate partial successes across many agents without one
// failure aborting the batch.
//
// The JSON field names form the contract consumed by transport/API layers.
type AgentResult struct {
	Success          bool           `json:"success"`
	Data             map[string]any `json:"data"`
	Confidence       float64        `json:"confidence"`
	Sources          []string       `json:"sources"`
	Metadata         map[string]any `json:"metadata"`
	ErrorMessage     string         `json:"errorMessage,omitempty"`
	ExecutionSeconds float64        `json:"executionTimeSeconds"`
	Timestamp        time.Time      `json:"timestamp"`
}

// NewAgentResult creates a successful result with clamped confidence.
func NewAgentResult(data map[string]any, confidence float64, sources []string) AgentResult {
	return AgentResult{
		Success:    true,
		Data:       data,
		Confidence: ClampConfidence(confidence),
		Sources:    sources,
		Metadata:   map[string]any{},
		Timestamp:  time.Now().UTC(),
	}
}

// NewErrorResult creates a failed result carrying the cause text. Data is
// left empty; confidence is zero.
func NewErrorResult(errorMessage string) AgentResult {
	return AgentResult{
		Success:      false,
		Data:         map[string]any{},
		Metadata:     map[string]any{},
		ErrorMessage: errorMessage,
		Timestamp:    time.Now().UTC(),
	}
}

// ClampConfidence bounds a confidence value to [0, 1].
func ClampConfidence(c float64) float64 {
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}

// Record is the unstructured output of an external collector agent. Fusion
// only requires the Results list; keys inside each result map are free form.
type Record struct {
	Source            string           `json:"source"`
	Results           []map[string]any `json:"results"`
	CollectionSuccess bool             `json:"collectionSuccess"`
	Error             string           `json:"error,omitempty"`
}
