// Package router implements the background context: the single component
// with visibility into which tab the user is looking at. It forwards
// messages between the panel and content contexts, tracks connected panel
// ports, and broadcasts active-tab URL changes.
//
// The router holds no tab state of its own. The active URL is queried on
// demand and never cached beyond a single broadcast, so a stale cache can
// never mislead a freshly connected panel.
package router

import (
	"context"
	"sync"

	"github.com/vanderheijden86/a11ydeck/pkg/channel"
	"github.com/vanderheijden86/a11ydeck/pkg/message"
	"github.com/vanderheijden86/a11ydeck/pkg/metrics"
	"github.com/vanderheijden86/a11ydeck/pkg/tabs"
)

// PortName is the connection name panels use; other port names are ignored.
const PortName = "app"

// Option configures a Router.
type Option func(*Router)

// WithLogLevel overrides the A11Y_LOG_LEVEL derived verbosity.
func WithLogLevel(level LogLevel) Option {
	return func(r *Router) {
		r.log.level = level
	}
}

// WithPanelOpener sets the callback invoked for OPEN_SIDEPANEL messages.
func WithPanelOpener(fn func()) Option {
	return func(r *Router) {
		r.openPanel = fn
	}
}

// Router mediates between panel and content contexts.
type Router struct {
	bus    *channel.Bus
	ep     *channel.Endpoint
	source tabs.Source
	log    *logger

	openPanel func()

	mu    sync.Mutex
	ports map[int64]*channel.Port

	ctx     context.Context
	cancel  context.CancelFunc
	cleanup []func()
	started bool
	done    chan struct{}
}

// New creates a router on the bus's background endpoint.
func New(bus *channel.Bus, source tabs.Source, opts ...Option) *Router {
	r := &Router{
		bus:    bus,
		ep:     bus.Endpoint(channel.EndpointBackground),
		source: source,
		log:    newLogger(),
		ports:  make(map[int64]*channel.Port),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start registers listeners and begins consuming tab events.
func (r *Router) Start() {
	r.mu.Lock()
	if r.started {
		r.mu.Unlock()
		return
	}
	r.started = true
	r.ctx, r.cancel = context.WithCancel(context.Background())
	r.done = make(chan struct{})
	r.mu.Unlock()

	r.cleanup = append(r.cleanup,
		r.bus.OnConnect(r.handleConnect),
		r.ep.Subscribe(r.handleMessage),
	)
	go r.eventLoop()
}

// Stop tears down listeners. Connected ports are left to their owners.
func (r *Router) Stop() {
	r.mu.Lock()
	if !r.started {
		r.mu.Unlock()
		return
	}
	r.started = false
	r.mu.Unlock()

	r.cancel()
	<-r.done
	for _, fn := range r.cleanup {
		fn()
	}
	r.cleanup = nil
}

// PortCount reports the number of registered panel ports.
func (r *Router) PortCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.ports)
}

// handleConnect registers panel ports and sends the connecting panel the
// active URL right away: the panel needs it before its first scan.
func (r *Router) handleConnect(port *channel.Port) {
	if port.Name != PortName {
		return
	}
	r.mu.Lock()
	r.ports[port.ID()] = port
	r.mu.Unlock()
	r.log.infof("panel port #%d connected", port.ID())

	port.OnDisconnect(func() {
		r.mu.Lock()
		delete(r.ports, port.ID())
		r.mu.Unlock()
		r.log.infof("panel port #%d disconnected, clearing highlights", port.ID())

		// No panel means nobody owns the overlays any more. This is the
		// system's only automatic cleanup trigger for page-side state.
		if err := r.sendToActiveTab(message.New(message.ClearHighlights{})); err != nil {
			r.log.warnf("clear highlights on disconnect: %v", err)
		}
	})

	r.broadcastCurrentURL()
}

// handleMessage is the forwarding table. It never returns an error upward:
// a background listener that throws is torn down and loses every registered
// listener, so every branch recovers locally.
func (r *Router) handleMessage(msg message.Message, from channel.Origin) error {
	defer metrics.Timer(metrics.RouterDispatch)()
	defer func() {
		if rec := recover(); rec != nil {
			r.log.errorf("panic handling %s: %v", msg.Type, rec)
		}
	}()

	r.log.debugf("received %s from %s", msg.Type, from.Endpoint)

	switch msg.Type {
	case message.TypeScanComplete, message.TypeScanError:
		// Content -> panel: deliver over ports for prompt delivery to
		// backgrounded panels, and rebroadcast generally so late
		// subscribers converge. The coordinator dedups by run id.
		if !from.FromContent() {
			return nil
		}
		r.postToPorts(msg)
		if err := r.ep.Send(msg); err != nil {
			r.log.warnf("rebroadcast %s: %v", msg.Type, err)
		}

	case message.TypeScanRequest:
		// Panel -> active tab. Requests already coming from a content
		// context are echoes, not commands.
		if from.FromContent() {
			return nil
		}
		if err := r.sendToActiveTab(msg); err != nil {
			r.log.errorf("forward scan request: %v", err)
		}

	case message.TypeHighlightIssue, message.TypeClearHighlights, message.TypeTogglePicker:
		// Always forwarded to the active tab, whatever the origin.
		if err := r.sendToActiveTab(msg); err != nil {
			r.log.warnf("forward %s: %v", msg.Type, err)
		}

	case message.TypeGetCurrentURL:
		// A panel that mounted after the connect-time broadcast asks for
		// a fresh one.
		r.broadcastCurrentURL()

	case message.TypeOpenPanel:
		if r.openPanel != nil {
			r.openPanel()
		}

	case message.TypeInspectElement, message.TypeUpdateIssueStatus, message.TypeCurrentURLUpdate:
		// Delivered to their listeners by the bus itself; nothing to route.

	default:
		r.log.warnf("unknown message type %q", msg.Type)
	}
	return nil
}

// sendToActiveTab resolves the active tab and delivers to its content
// context.
func (r *Router) sendToActiveTab(msg message.Message) error {
	tab, err := r.source.Active(r.routerContext())
	if err != nil {
		return err
	}
	return r.ep.SendTo(channel.ContentEndpoint(tab.ID), msg)
}

// broadcastCurrentURL pushes the active tab's URL to every connected port
// and as a general broadcast. No resolvable active tab is a silent skip,
// not an error.
func (r *Router) broadcastCurrentURL() {
	tab, err := r.source.Active(r.routerContext())
	if err != nil || tab.URL == "" {
		r.log.debugf("skipping url broadcast: no active tab")
		return
	}
	r.sendCurrentURL(tab.URL)
}

func (r *Router) sendCurrentURL(url string) {
	msg := message.New(message.CurrentURLUpdate{URL: url})
	if err := r.ep.Send(msg); err != nil {
		r.log.warnf("broadcast current url: %v", err)
	}
	r.postToPorts(msg)
}

// postToPorts delivers to every registered port, dropping ports that fail.
func (r *Router) postToPorts(msg message.Message) {
	r.mu.Lock()
	ports := make([]*channel.Port, 0, len(r.ports))
	for _, p := range r.ports {
		ports = append(ports, p)
	}
	r.mu.Unlock()

	for _, p := range ports {
		if err := p.Post(msg); err != nil {
			r.log.warnf("port #%d post failed, dropping: %v", p.ID(), err)
			r.mu.Lock()
			delete(r.ports, p.ID())
			r.mu.Unlock()
		}
	}
}

func (r *Router) eventLoop() {
	defer close(r.done)
	events := r.source.Events()
	for {
		select {
		case <-r.ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			r.handleTabEvent(ev)
		}
	}
}

// handleTabEvent applies the tab lifecycle rules: only events concerning the
// active tab of the active window produce a URL broadcast.
func (r *Router) handleTabEvent(ev tabs.Event) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.errorf("panic handling tab event %s: %v", ev.Kind, rec)
		}
	}()

	switch ev.Kind {
	case tabs.EventActivated:
		r.broadcastCurrentURL()

	case tabs.EventUpdated:
		urlChanged := ev.ChangeURL != ""
		loadComplete := ev.Status == "complete"
		if !urlChanged && !loadComplete {
			return
		}
		active, err := r.source.Active(r.routerContext())
		if err != nil {
			r.log.debugf("tab update for %d: %v", ev.TabID, err)
			return
		}
		if active.ID != ev.TabID {
			return
		}
		// The event's explicit URL wins over the tab snapshot.
		url := ev.ChangeURL
		if url == "" {
			url = ev.Tab.URL
		}
		if url != "" {
			r.sendCurrentURL(url)
		}

	case tabs.EventCommitted:
		// Frames navigate constantly; only top-level commits count.
		if ev.FrameID != 0 {
			return
		}
		active, err := r.source.Active(r.routerContext())
		if err != nil {
			return
		}
		if active.ID == ev.TabID && ev.ChangeURL != "" {
			r.sendCurrentURL(ev.ChangeURL)
		}
	}
}

func (r *Router) routerContext() context.Context {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ctx != nil {
		return r.ctx
	}
	return context.Background()
}
