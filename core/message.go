package core

import (
	"time"

	"github.com/google/uuid"
)

// Kind classifies the intent of a Message on the bus.
type Kind string

const (
	// KindTaskRequest asks the receiver to perform a unit of work.
	KindTaskRequest Kind = "task_request"
	// KindTaskResponse carries the outcome of a previously requested task.
	KindTaskResponse Kind = "task_response"
	// KindDataShare distributes intermediate data between agents.
	KindDataShare Kind = "data_share"
	// KindStatusUpdate reports agent liveness or progress.
	KindStatusUpdate Kind = "status_update"
	// KindErrorNotification signals a failure another agent should know about.
	KindErrorNotification Kind = "error_notification"
	// KindCoordinationRequest initiates a coordination exchange.
	KindCoordinationRequest Kind = "coordination_request"
	// KindCoordinationResponse answers a coordination request.
	KindCoordinationResponse Kind = "coordination_response"
)

// Priority orders messages within the bus outbox. Higher values are
// dispatched first; messages of equal priority retain enqueue order.
type Priority int

const (
	// PriorityLow is for background traffic.
	PriorityLow Priority = iota + 1
	// PriorityNormal is the default.
	PriorityNormal
	// PriorityHigh is for traffic that should jump the queue.
	PriorityHigh
	// PriorityCritical is for error notifications and shutdown signals.
	PriorityCritical
)

// String returns the lowercase name of the priority.
func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityNormal:
		return "normal"
	case PriorityHigh:
		return "high"
	case PriorityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// Message is the unit of communication between agents. After emission it
// should be treated as immutable. The JSON field names form the wire shape
// consumed by transport layers outside this module.
type Message struct {
	ID               string         `json:"id"`
	Sender           string         `json:"senderId"`
	Receiver         string         `json:"receiverId"`
	Kind             Kind           `json:"messageType"`
	Priority         Priority       `json:"priority"`
	Payload          map[string]any `json:"payload"`
	Timestamp        time.Time      `json:"timestamp"`
	CorrelationID    string         `json:"correlationId,omitempty"`
	RequiresResponse bool           `json:"requiresResponse"`
	ResponseTimeout  float64        `json:"responseTimeoutSeconds"`
}

// NewMessage creates a message with a generated id, normal priority and a
// UTC timestamp. Adjust fields on the returned value before sending.
func NewMessage(sender, receiver string, kind Kind, payload map[string]any) Message {
	return Message{
		ID:        NewID(),
		Sender:    sender,
		Receiver:  receiver,
		Kind:      kind,
		Priority:  PriorityNormal,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
}

// Response constructs the reply to this message: sender and receiver are
// swapped and the correlation id is carried over (falling back to the
// request id when the request did not set one).
func (m Message) Response(kind Kind, payload map[string]any) Message {
	resp := NewMessage(m.Receiver, m.Sender, kind, payload)
	resp.CorrelationID = m.CorrelationID
	if resp.CorrelationID == "" {
		resp.CorrelationID = m.ID
	}
	return resp
}

// NewID generates a new unique identifier for messages and runs.
func NewID() string { return uuid.NewString() }
