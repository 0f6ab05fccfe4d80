package session

import (
	"sort"
	"strings"
	"time"

	"github.com/intelmesh/intelmesh/core"
)

// Conversation is the message history exchanged between a pair of agents
// within one run.
type Conversation struct {
	ID       string         `json:"id"`
	Messages []core.Message `json:"messages"`
	Created  time.Time      `json:"created"`
	Updated  time.Time      `json:"updated"`
}

// Clone returns a deep enough copy: the message slice is duplicated so
// callers cannot mutate stored history. Message payloads are shared; they are
// treated as immutable after send.
func (c *Conversation) Clone() *Conversation {
	messages := make([]core.Message, len(c.Messages))
	copy(messages, c.Messages)
	return &Conversation{
		ID:       c.ID,
		Messages: messages,
		Created:  c.Created,
		Updated:  c.Updated,
	}
}

// ConversationID derives the deterministic conversation id for an agent
// pair: order-independent, so both directions share one history.
func ConversationID(agentA, agentB string) string {
	pair := []string{agentA, agentB}
	sort.Strings(pair)
	return strings.Join(pair, "<->")
}

// Store is the conversation storage contract. Implementations must be safe
// for concurrent use and must return cloned conversations so callers cannot
// mutate internal state.
type Store interface {
	// Get returns an existing conversation (clone) or creates one lazily.
	Get(conversationID string) (*Conversation, error)

	// Append adds a message to an existing or newly created conversation.
	Append(conversationID string, msg core.Message) error

	// History returns a copy of the messages for a conversation, oldest
	// first. Unknown ids yield an empty history.
	History(conversationID string) ([]core.Message, error)

	// IDs returns the known conversation ids, sorted.
	IDs() []string

	// Clear discards all conversations. Called when a run completes; run
	// state is never persisted across runs.
	Clear()
}
