package session

import (
	"sort"
	"sync"
	"time"

	"github.com/intelmesh/intelmesh/core"
)

// InMemoryStore is a volatile Store implementation keeping conversations in
// a process local map. It is safe for concurrent access and is the default
// for investigation runs, which discard their state at completion. Each
// returned conversation is cloned to prevent external mutation of internal
// state.
type InMemoryStore struct {
	mu            sync.RWMutex
	conversations map[string]*Conversation
}

// NewInMemoryStore constructs an empty in-memory conversation store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{conversations: make(map[string]*Conversation)}
}

// Get returns an existing conversation (clone) or creates a new one lazily.
func (s *InMemoryStore) Get(conversationID string) (*Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getOrCreateLocked(conversationID).Clone(), nil
}

// Append adds a message to an existing or newly created conversation.
func (s *InMemoryStore) Append(conversationID string, msg core.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	conv := s.getOrCreateLocked(conversationID)
	conv.Messages = append(conv.Messages, msg)
	conv.Updated = time.Now().UTC()
	return nil
}

// History returns a copy of the messages for a conversation, oldest first.
func (s *InMemoryStore) History(conversationID string) ([]core.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	conv, ok := s.conversations[conversationID]
	if !ok {
		return nil, nil
	}
	messages := make([]core.Message, len(conv.Messages))
	copy(messages, conv.Messages)
	return messages, nil
}

// IDs returns the known conversation ids, sorted.
func (s *InMemoryStore) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.conversations))
	for id := range s.conversations {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Clear discards all conversations.
func (s *InMemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conversations = make(map[string]*Conversation)
}

// getOrCreateLocked allocates and stores a new conversation when absent;
// caller must already hold the write lock.
func (s *InMemoryStore) getOrCreateLocked(conversationID string) *Conversation {
	if conv, ok := s.conversations[conversationID]; ok {
		return conv
	}
	now := time.Now().UTC()
	conv := &Conversation{ID: conversationID, Created: now, Updated: now}
	s.conversations[conversationID] = conv
	return conv
}
