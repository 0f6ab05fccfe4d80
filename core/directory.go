package core

import (
	"fmt"
	"sort"
	"sync"
)

// Mailbox is the per-agent inbox structure messages are delivered into.
// Delivery appends; the owning agent drains via Pop or Drain. It is safe for
// concurrent access.
type Mailbox struct {
	mu   sync.Mutex
	msgs []Message
}

func (m *Mailbox) append(msg Message) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.msgs = append(m.msgs, msg)
}

// Pop removes and returns the oldest message, reporting false when empty.
func (m *Mailbox) Pop() (Message, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.msgs) == 0 {
		return Message{}, false
	}
	msg := m.msgs[0]
	m.msgs = m.msgs[1:]
	return msg, true
}

// Drain removes and returns all queued messages in delivery order.
func (m *Mailbox) Drain() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	msgs := m.msgs
	m.msgs = nil
	return msgs
}

// Len returns the number of queued messages.
func (m *Mailbox) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.msgs)
}

// Directory maps agent names to their mailboxes. It is an explicit value
// passed into the bus and engine rather than module-level state, so multiple
// orchestration runs can be isolated and tested independently.
type Directory struct {
	mu      sync.RWMutex
	inboxes map[string]*Mailbox
}

// NewDirectory creates an empty directory.
func NewDirectory() *Directory {
	return &Directory{inboxes: make(map[string]*Mailbox)}
}

// Register adds an agent and returns its mailbox. Registering a name twice
// is an error; the original mailbox stays intact.
func (d *Directory) Register(name string) (*Mailbox, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.inboxes[name]; ok {
		return nil, fmt.Errorf("agent %q already registered", name)
	}
	mb := &Mailbox{}
	d.inboxes[name] = mb
	return mb, nil
}

// Unregister removes an agent. Unknown names are ignored.
func (d *Directory) Unregister(name string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.inboxes, name)
}

// Lookup returns the mailbox for a registered agent.
func (d *Directory) Lookup(name string) (*Mailbox, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	mb, ok := d.inboxes[name]
	return mb, ok
}

// Names returns the sorted list of registered agent names.
func (d *Directory) Names() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	names := make([]string, 0, len(d.inboxes))
	for name := range d.inboxes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Deliver looks up the receiver and appends the message to its mailbox.
// It must not re-invoke any outer delivery routine; lookup, append, return.
func (d *Directory) Deliver(msg Message) error {
	mb, ok := d.Lookup(msg.Receiver)
	if !ok {
		return fmt.Errorf("unknown receiver %q", msg.Receiver)
	}
	mb.append(msg)
	return nil
}
