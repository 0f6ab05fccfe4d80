// Package bus implements addressed, prioritized message passing between
// named agents: fire-and-forget sends, correlated request/response with
// timeout, and broadcast. Delivery runs on two continuously-running loops
// (outbox dispatch and inbox processing) that recover from handler failures
// locally so a misbehaving handler can never stall the bus.
package bus

import (
	"container/heap"
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/intelmesh/intelmesh/core"
	"github.com/intelmesh/intelmesh/logging"
)

// Handler processes a delivered message. Handlers are invoked in
// registration order; a handler error or panic is logged and counted but
// never prevents delivery to subsequent handlers.
type Handler func(msg core.Message) error

// Options configures a Bus.
type Options struct {
	// InboxBuffer sets the channel buffer between the outbox dispatcher and
	// the inbox processor.
	InboxBuffer int

	// DefaultRequestTimeout applies to Request calls whose message carries a
	// zero ResponseTimeout.
	DefaultRequestTimeout time.Duration

	// Logger used for delivery warnings and handler failures.
	Logger logging.Logger
}

// Status is a point-in-time snapshot of the bus counters.
type Status struct {
	Sent     uint64 `json:"sent"`
	Received uint64 `json:"received"`
	Errors   uint64 `json:"errors"`
	Timeouts uint64 `json:"timeouts"`
}

// Bus routes messages between agents registered in a core.Directory. Create
// with New, which starts the delivery loops; call Close to stop them.
type Bus struct {
	dir    *core.Directory
	logger logging.Logger
	opts   Options

	outbox *msgQueue
	inbox  chan core.Message

	handlersMu sync.RWMutex
	handlers   map[core.Kind][]Handler

	waitersMu sync.Mutex
	waiters   map[string]chan core.Message

	sent     atomic.Uint64
	received atomic.Uint64
	errors   atomic.Uint64
	timeouts atomic.Uint64

	closed    chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// New creates a Bus bound to the given directory and starts its delivery
// loops. The directory decides which receivers are known; messages to
// unregistered receivers are dropped with a warning.
func New(dir *core.Directory, optFns ...func(o *Options)) *Bus {
	opts := Options{
		InboxBuffer:           64,
		DefaultRequestTimeout: 30 * time.Second,
		Logger:                logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	b := &Bus{
		dir:      dir,
		logger:   opts.Logger,
		opts:     opts,
		outbox:   newMsgQueue(),
		inbox:    make(chan core.Message, opts.InboxBuffer),
		handlers: make(map[core.Kind][]Handler),
		waiters:  make(map[string]chan core.Message),
		closed:   make(chan struct{}),
	}

	b.wg.Add(2)
	go b.outboxLoop()
	go b.inboxLoop()

	return b
}

// Close stops the delivery loops and waits for them to exit. Messages still
// queued at close time are discarded.
func (b *Bus) Close() {
	b.closeOnce.Do(func() {
		close(b.closed)
		b.outbox.close()
	})
	b.wg.Wait()
}

// Send enqueues a message for delivery and returns immediately. Ordering is
// FIFO per priority class; higher priorities are dispatched first.
func (b *Bus) Send(msg core.Message) error {
	select {
	case <-b.closed:
		return fmt.Errorf("bus is closed")
	default:
	}
	b.outbox.push(msg)
	b.sent.Add(1)
	return nil
}

// Request sends a message that requires a response and blocks the caller
// (without blocking other bus activity) until a message with a matching
// correlation id arrives, the response timeout elapses, or ctx is cancelled.
// On timeout it returns a nil message, a core.TimeoutError, and increments
// the timeout counter. Exactly one waiter may be pending per correlation id.
func (b *Bus) Request(ctx context.Context, msg core.Message) (*core.Message, error) {
	msg.RequiresResponse = true
	if msg.CorrelationID == "" {
		msg.CorrelationID = msg.ID
	}

	ch, err := b.registerWaiter(msg.CorrelationID)
	if err != nil {
		return nil, err
	}
	defer b.removeWaiter(msg.CorrelationID)

	timeout := b.opts.DefaultRequestTimeout
	if msg.ResponseTimeout > 0 {
		timeout = time.Duration(msg.ResponseTimeout * float64(time.Second))
	}

	if err := b.Send(msg); err != nil {
		return nil, err
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case resp := <-ch:
		return &resp, nil
	case <-timer.C:
		b.timeouts.Add(1)
		b.logger.Warn("request timed out", "correlation_id", msg.CorrelationID, "receiver", msg.Receiver)
		return nil, &core.TimeoutError{Seconds: timeout.Seconds()}
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Broadcast enqueues a copy of the payload to every registered receiver
// except the sender and any name in exclude. Returns the number of messages
// enqueued.
func (b *Bus) Broadcast(sender string, kind core.Kind, payload map[string]any, priority core.Priority, exclude ...string) int {
	skip := map[string]bool{sender: true}
	for _, name := range exclude {
		skip[name] = true
	}

	count := 0
	for _, name := range b.dir.Names() {
		if skip[name] {
			continue
		}
		msg := core.NewMessage(sender, name, kind, payload)
		msg.Priority = priority
		if err := b.Send(msg); err != nil {
			return count
		}
		count++
	}
	return count
}

// RegisterHandler appends a handler for the given message kind. Multiple
// handlers per kind are allowed and run in registration order.
func (b *Bus) RegisterHandler(kind core.Kind, h Handler) {
	b.handlersMu.Lock()
	defer b.handlersMu.Unlock()
	b.handlers[kind] = append(b.handlers[kind], h)
}

// Status returns the current counter snapshot.
func (b *Bus) Status() Status {
	return Status{
		Sent:     b.sent.Load(),
		Received: b.received.Load(),
		Errors:   b.errors.Load(),
		Timeouts: b.timeouts.Load(),
	}
}

func (b *Bus) registerWaiter(correlationID string) (chan core.Message, error) {
	b.waitersMu.Lock()
	defer b.waitersMu.Unlock()
	if _, ok := b.waiters[correlationID]; ok {
		return nil, fmt.Errorf("correlation id %q already has a pending waiter", correlationID)
	}
	ch := make(chan core.Message, 1)
	b.waiters[correlationID] = ch
	return ch, nil
}

func (b *Bus) removeWaiter(correlationID string) {
	b.waitersMu.Lock()
	defer b.waitersMu.Unlock()
	delete(b.waiters, correlationID)
}

// outboxLoop drains the prioritized outbox, verifying the receiver exists
// before handing the message to the inbox processor. Unknown receivers are
// non-fatal: log, count, drop.
func (b *Bus) outboxLoop() {
	defer b.wg.Done()
	for {
		msg, ok := b.outbox.pop()
		if !ok {
			return
		}
		if _, known := b.dir.Lookup(msg.Receiver); !known {
			b.errors.Add(1)
			b.logger.Warn("dropping message for unknown receiver", "receiver", msg.Receiver, "kind", string(msg.Kind))
			continue
		}
		select {
		case b.inbox <- msg:
		case <-b.closed:
			return
		}
	}
}

// inboxLoop processes delivered messages: correlated responses are routed to
// their pending waiter and bypass ordinary handlers; everything else lands in
// the receiver's mailbox and is offered to the kind handlers.
func (b *Bus) inboxLoop() {
	defer b.wg.Done()
	for {
		select {
		case msg := <-b.inbox:
			b.process(msg)
		case <-b.closed:
			return
		}
	}
}

func (b *Bus) process(msg core.Message) {
	b.received.Add(1)

	// A message that itself demands a response is never a response, even
	// though it already carries the correlation id its reply will use.
	if msg.CorrelationID != "" && !msg.RequiresResponse {
		b.waitersMu.Lock()
		ch, ok := b.waiters[msg.CorrelationID]
		if ok {
			delete(b.waiters, msg.CorrelationID)
		}
		b.waitersMu.Unlock()

		if ok {
			ch <- msg
			return
		}
		if msg.Kind == core.KindTaskResponse || msg.Kind == core.KindCoordinationResponse {
			// The waiter already timed out; the response is useless to it now.
			b.logger.Debug("late response with no pending waiter", "correlation_id", msg.CorrelationID)
		}
	}

	if err := b.dir.Deliver(msg); err != nil {
		b.errors.Add(1)
		b.logger.Warn("mailbox delivery failed", "receiver", msg.Receiver, "error", err.Error())
		return
	}

	b.handlersMu.RLock()
	handlers := make([]Handler, len(b.handlers[msg.Kind]))
	copy(handlers, b.handlers[msg.Kind])
	b.handlersMu.RUnlock()

	for _, h := range handlers {
		b.invoke(h, msg)
	}
}

// invoke runs a single handler, converting panics and errors into counted
// log entries so delivery always continues to the remaining handlers.
func (b *Bus) invoke(h Handler, msg core.Message) {
	defer func() {
		if r := recover(); r != nil {
			b.errors.Add(1)
			b.logger.Error("handler panicked", "kind", string(msg.Kind), "panic", fmt.Sprintf("%v", r))
		}
	}()
	if err := h(msg); err != nil {
		b.errors.Add(1)
		b.logger.Error("handler failed", "kind", string(msg.Kind), "error", err.Error())
	}
}

// msgQueue is a blocking priority queue: higher priority messages pop first,
// equal priorities pop in push order.
type msgQueue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	items  msgHeap
	seq    uint64
	closed bool
}

func newMsgQueue() *msgQueue {
	q := &msgQueue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

func (q *msgQueue) push(msg core.Message) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.seq++
	heap.Push(&q.items, queued{msg: msg, seq: q.seq})
	q.cond.Signal()
}

// pop blocks until an item is available or the queue is closed.
func (q *msgQueue) pop() (core.Message, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.items) == 0 && !q.closed {
		q.cond.Wait()
	}
	if q.closed {
		return core.Message{}, false
	}
	item := heap.Pop(&q.items).(queued)
	return item.msg, true
}

func (q *msgQueue) close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	q.cond.Broadcast()
}

type queued struct {
	msg core.Message
	seq uint64
}

type msgHeap []queued

func (h msgHeap) Len() int { return len(h) }

func (h msgHeap) Less(i, j int) bool {
	if h[i].msg.Priority != h[j].msg.Priority {
		return h[i].msg.Priority > h[j].msg.Priority
	}
	return h[i].seq < h[j].seq
}

func (h msgHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *msgHeap) Push(x any) { *h = append(*h, x.(queued)) }

func (h *msgHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
