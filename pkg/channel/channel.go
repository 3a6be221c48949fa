// Package channel implements the typed message transport connecting the
// three isolated contexts (panel, background, content). Contexts share no
// memory: every endpoint owns a mailbox drained by its own goroutine, so
// delivery is asynchronous, at-most-once, and unordered across endpoints.
//
// Validation happens at the channel boundary on every send and every inbound
// delivery; a message that fails its schema is never handed to application
// handlers. Handler failures are logged and never propagate to other
// handlers, so one bad handler cannot wedge the dispatch loop.
package channel

import (
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/vanderheijden86/a11ydeck/pkg/debug"
	"github.com/vanderheijden86/a11ydeck/pkg/message"
)

// Well-known endpoint names.
const (
	EndpointPanel      = "panel"
	EndpointBackground = "background"

	contentPrefix = "content:"
)

const defaultMailboxSize = 64

// ContentEndpoint returns the endpoint name for a tab's content context.
func ContentEndpoint(tabID int) string {
	return contentPrefix + strconv.Itoa(tabID)
}

// ParseContentEndpoint extracts the tab id from a content endpoint name.
func ParseContentEndpoint(name string) (int, bool) {
	if !strings.HasPrefix(name, contentPrefix) {
		return 0, false
	}
	id, err := strconv.Atoi(strings.TrimPrefix(name, contentPrefix))
	if err != nil {
		return 0, false
	}
	return id, true
}

// Origin identifies where a message came from.
type Origin struct {
	Endpoint string
}

// FromContent reports whether the message originated in a content context.
func (o Origin) FromContent() bool {
	_, ok := ParseContentEndpoint(o.Endpoint)
	return ok
}

// TabID returns the sending tab's id when the origin is a content context.
func (o Origin) TabID() (int, bool) {
	return ParseContentEndpoint(o.Endpoint)
}

// Handler receives validated messages. A returned error is logged and does
// not affect other handlers.
type Handler func(msg message.Message, from Origin) error

type delivery struct {
	msg  message.Message
	from Origin
}

type subscription struct {
	id int64
	fn Handler
}

// Bus connects endpoints and ports. It is safe for concurrent use.
type Bus struct {
	mu        sync.RWMutex
	endpoints map[string]*Endpoint
	onConnect map[int64]func(*Port)
	closed    bool

	nextSub  atomic.Int64
	nextPort atomic.Int64
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{
		endpoints: make(map[string]*Endpoint),
		onConnect: make(map[int64]func(*Port)),
	}
}

// Endpoint returns the named endpoint, creating it (and starting its
// dispatch goroutine) on first use.
func (b *Bus) Endpoint(name string) *Endpoint {
	b.mu.Lock()
	defer b.mu.Unlock()
	if ep, ok := b.endpoints[name]; ok {
		return ep
	}
	ep := &Endpoint{
		name:     name,
		bus:      b,
		mailbox:  make(chan delivery, defaultMailboxSize),
		done:     make(chan struct{}),
		handlers: make(map[int64]Handler),
	}
	if !b.closed {
		b.endpoints[name] = ep
		go ep.dispatch()
	}
	return ep
}

// OnConnect registers a callback invoked whenever a new port connects.
// The returned function removes the callback and is idempotent.
func (b *Bus) OnConnect(fn func(*Port)) func() {
	id := b.nextSub.Add(1)
	b.mu.Lock()
	b.onConnect[id] = fn
	b.mu.Unlock()
	return func() {
		b.mu.Lock()
		delete(b.onConnect, id)
		b.mu.Unlock()
	}
}

// Connect opens a long-lived port with the given name. Connect callbacks run
// before Connect returns so the accepting side never misses the port.
func (b *Bus) Connect(name string) *Port {
	p := &Port{
		Name:         name,
		id:           b.nextPort.Add(1),
		mailbox:      make(chan message.Message, defaultMailboxSize),
		done:         make(chan struct{}),
		handlers:     make(map[int64]func(message.Message)),
		onDisconnect: make(map[int64]func()),
		bus:          b,
	}
	go p.dispatch()

	b.mu.RLock()
	callbacks := make([]func(*Port), 0, len(b.onConnect))
	for _, fn := range b.onConnect {
		callbacks = append(callbacks, fn)
	}
	b.mu.RUnlock()
	for _, fn := range callbacks {
		fn(p)
	}
	return p
}

// Close stops every endpoint's dispatch loop.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for _, ep := range b.endpoints {
		close(ep.done)
	}
	b.endpoints = make(map[string]*Endpoint)
}

// broadcast enqueues a message to every non-content endpoint except the
// sender. Content contexts are only addressable per tab via sendTo, the
// same way browser runtime messaging never reaches content scripts.
func (b *Bus) broadcast(msg message.Message, from Origin) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for name, ep := range b.endpoints {
		if name == from.Endpoint {
			continue
		}
		if _, isContent := ParseContentEndpoint(name); isContent {
			continue
		}
		ep.enqueue(delivery{msg: msg, from: from})
	}
}

// sendTo enqueues a message to a single named endpoint.
func (b *Bus) sendTo(target string, msg message.Message, from Origin) error {
	b.mu.RLock()
	ep, ok := b.endpoints[target]
	b.mu.RUnlock()
	if !ok {
		return fmt.Errorf("no endpoint %q", target)
	}
	ep.enqueue(delivery{msg: msg, from: from})
	return nil
}

// Endpoint is one context's handle on the bus. It implements the message
// channel contract: Send, SendTo, Subscribe. It holds no application state.
type Endpoint struct {
	name    string
	bus     *Bus
	mailbox chan delivery
	done    chan struct{}

	mu       sync.Mutex
	handlers map[int64]Handler
	order    []int64
}

// Name returns the endpoint's name.
func (e *Endpoint) Name() string { return e.name }

// Send validates the message and broadcasts it to every other endpoint.
func (e *Endpoint) Send(msg message.Message) error {
	if err := msg.Validate(); err != nil {
		return fmt.Errorf("refusing to send invalid message: %w", err)
	}
	e.bus.broadcast(msg, Origin{Endpoint: e.name})
	return nil
}

// SendTo validates the message and delivers it to the named endpoint only.
func (e *Endpoint) SendTo(target string, msg message.Message) error {
	if err := msg.Validate(); err != nil {
		return fmt.Errorf("refusing to send invalid message: %w", err)
	}
	return e.bus.sendTo(target, msg, Origin{Endpoint: e.name})
}

// Subscribe registers a handler. Handlers run in subscription order on the
// endpoint's dispatch goroutine. The returned unsubscribe is idempotent.
func (e *Endpoint) Subscribe(fn Handler) func() {
	id := e.bus.nextSub.Add(1)
	e.mu.Lock()
	e.handlers[id] = fn
	e.order = append(e.order, id)
	e.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			e.mu.Lock()
			delete(e.handlers, id)
			for i, sub := range e.order {
				if sub == id {
					e.order = append(e.order[:i], e.order[i+1:]...)
					break
				}
			}
			e.mu.Unlock()
		})
	}
}

// enqueue is at-most-once: a full mailbox drops the message rather than
// blocking the sender.
func (e *Endpoint) enqueue(d delivery) {
	select {
	case e.mailbox <- d:
	default:
		debug.Log("endpoint %s: mailbox full, dropping %s", e.name, d.msg.Type)
	}
}

func (e *Endpoint) dispatch() {
	for {
		select {
		case <-e.done:
			return
		case d := <-e.mailbox:
			// Inbound validation: the bus only carries validated messages
			// today, but the boundary check stays so a future transport
			// cannot leak a malformed payload to handlers.
			if err := d.msg.Validate(); err != nil {
				debug.Log("endpoint %s: dropping invalid inbound %s: %v", e.name, d.msg.Type, err)
				continue
			}
			for _, fn := range e.snapshotHandlers() {
				invoke(e.name, fn, d)
			}
		}
	}
}

func (e *Endpoint) snapshotHandlers() []Handler {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Handler, 0, len(e.order))
	for _, id := range e.order {
		if fn, ok := e.handlers[id]; ok {
			out = append(out, fn)
		}
	}
	return out
}

// invoke runs one handler, containing both errors and panics. A listener
// that throws would otherwise take down the dispatch loop and every other
// subscriber with it.
func invoke(endpoint string, fn Handler, d delivery) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("channel: handler panic on %s (%s): %v", endpoint, d.msg.Type, r)
		}
	}()
	if err := fn(d.msg, d.from); err != nil {
		log.Printf("channel: handler error on %s (%s): %v", endpoint, d.msg.Type, err)
	}
}
