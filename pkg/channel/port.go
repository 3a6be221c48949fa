package channel

import (
	"fmt"
	"log"
	"sync"

	"github.com/vanderheijden86/a11ydeck/pkg/debug"
	"github.com/vanderheijden86/a11ydeck/pkg/message"
)

// Port is a long-lived connection between the panel and the background
// context. Unlike broadcast sends, port messages are delivered point to
// point and the accepting side is told when the port goes away.
type Port struct {
	Name string

	id      int64
	bus     *Bus
	mailbox chan message.Message
	done    chan struct{}

	mu           sync.Mutex
	closed       bool
	handlers     map[int64]func(message.Message)
	order        []int64
	onDisconnect map[int64]func()
}

// ID returns the bus-unique port id.
func (p *Port) ID() int64 { return p.id }

// Post validates and enqueues a message for the port's message handlers.
// Posting to a disconnected port returns an error; the caller is expected
// to drop the port from its registry.
func (p *Port) Post(msg message.Message) error {
	if err := msg.Validate(); err != nil {
		return fmt.Errorf("refusing to post invalid message: %w", err)
	}
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		return fmt.Errorf("port %q (#%d) is disconnected", p.Name, p.id)
	}
	select {
	case p.mailbox <- msg:
	default:
		debug.Log("port %s#%d: mailbox full, dropping %s", p.Name, p.id, msg.Type)
	}
	return nil
}

// OnMessage registers a handler for messages posted to this port.
// The returned unsubscribe is idempotent.
func (p *Port) OnMessage(fn func(message.Message)) func() {
	id := p.bus.nextSub.Add(1)
	p.mu.Lock()
	p.handlers[id] = fn
	p.order = append(p.order, id)
	p.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			p.mu.Lock()
			delete(p.handlers, id)
			p.mu.Unlock()
		})
	}
}

// OnDisconnect registers a callback fired exactly once when the port closes.
func (p *Port) OnDisconnect(fn func()) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		fn()
		return
	}
	id := p.bus.nextSub.Add(1)
	p.onDisconnect[id] = fn
	p.mu.Unlock()
}

// Disconnect closes the port and fires disconnect callbacks. Idempotent.
func (p *Port) Disconnect() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	callbacks := make([]func(), 0, len(p.onDisconnect))
	for _, fn := range p.onDisconnect {
		callbacks = append(callbacks, fn)
	}
	p.onDisconnect = make(map[int64]func())
	close(p.done)
	p.mu.Unlock()

	for _, fn := range callbacks {
		fn()
	}
}

func (p *Port) dispatch() {
	for {
		select {
		case <-p.done:
			return
		case msg := <-p.mailbox:
			for _, fn := range p.snapshotHandlers() {
				invokePort(p, fn, msg)
			}
		}
	}
}

func (p *Port) snapshotHandlers() []func(message.Message) {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]func(message.Message), 0, len(p.order))
	for _, id := range p.order {
		if fn, ok := p.handlers[id]; ok {
			out = append(out, fn)
		}
	}
	return out
}

func invokePort(p *Port, fn func(message.Message), msg message.Message) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("channel: port handler panic on %s#%d (%s): %v", p.Name, p.id, msg.Type, r)
		}
	}()
	fn(msg)
}
