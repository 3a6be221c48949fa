package main

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/vanderheijden86/a11ydeck/internal/storage"
	"github.com/vanderheijden86/a11ydeck/pkg/channel"
	"github.com/vanderheijden86/a11ydeck/pkg/config"
	"github.com/vanderheijden86/a11ydeck/pkg/content"
	"github.com/vanderheijden86/a11ydeck/pkg/debug"
	"github.com/vanderheijden86/a11ydeck/pkg/message"
	"github.com/vanderheijden86/a11ydeck/pkg/model"
	"github.com/vanderheijden86/a11ydeck/pkg/scanner"
	"github.com/vanderheijden86/a11ydeck/pkg/store"
	"github.com/vanderheijden86/a11ydeck/pkg/tabs"
)

// hostPool wraps a tabs.Source and lazily builds one content host per tab the
// source mentions, so scan requests routed to a tab endpoint always find a
// subscriber. The router consumes the pool's event stream in place of the
// source's own.
type hostPool struct {
	src    tabs.Source
	bus    *channel.Bus
	engine scanner.Engine
	load   content.Loader

	out  chan tabs.Event
	done chan struct{}

	mu    sync.Mutex
	hosts map[int]*content.Host
}

func newHostPool(src tabs.Source, bus *channel.Bus, engine scanner.Engine, load content.Loader) *hostPool {
	return &hostPool{
		src:    src,
		bus:    bus,
		engine: engine,
		load:   load,
		out:    make(chan tabs.Event, 16),
		done:   make(chan struct{}),
		hosts:  make(map[int]*content.Host),
	}
}

// Start begins forwarding source events, creating hosts as tabs appear.
func (p *hostPool) Start() {
	go func() {
		for {
			select {
			case <-p.done:
				return
			case ev, ok := <-p.src.Events():
				if !ok {
					return
				}
				p.ensure(ev.TabID)
				select {
				case p.out <- ev:
				case <-p.done:
					return
				}
			}
		}
	}()
}

// Stop halts forwarding and unsubscribes every host.
func (p *hostPool) Stop() {
	close(p.done)
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, h := range p.hosts {
		h.Stop()
	}
	p.hosts = make(map[int]*content.Host)
}

// Active implements tabs.Source, making sure the active tab has a host.
func (p *hostPool) Active(ctx context.Context) (tabs.Tab, error) {
	tab, err := p.src.Active(ctx)
	if err != nil {
		return tabs.Tab{}, err
	}
	p.ensure(tab.ID)
	return tab, nil
}

// Events implements tabs.Source.
func (p *hostPool) Events() <-chan tabs.Event {
	return p.out
}

func (p *hostPool) ensure(tabID int) {
	if tabID <= 0 {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.hosts[tabID]; ok {
		return
	}
	h := content.NewHost(p.bus, tabID, p.engine, p.load)
	h.Start()
	p.hosts[tabID] = h
	debug.Log("cli: content host ready for tab %d", tabID)
}

// userAgentTransport sets a fixed User-Agent on every request.
type userAgentTransport struct {
	agent string
	next  http.RoundTripper
}

func (t userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.Header.Set("User-Agent", t.agent)
	return t.next.RoundTrip(req)
}

// newLoader builds the page loader from the scan config.
func newLoader(cfg config.Config) content.Loader {
	client := &http.Client{
		Timeout: time.Duration(cfg.Scan.TimeoutSeconds) * time.Second,
	}
	if cfg.Scan.UserAgent != "" {
		client.Transport = userAgentTransport{
			agent: cfg.Scan.UserAgent,
			next:  http.DefaultTransport,
		}
	}
	return content.HTTPLoader(client)
}

// newStore builds the store with its highlight-clearing effect delivering
// CLEAR_HIGHLIGHTS to the page: scan starts, resolved-URL changes, and view
// switches all clear stale markers through the router.
func newStore(bus *channel.Bus) *store.Store {
	panel := bus.Endpoint(channel.EndpointPanel)
	return store.New(store.WithClearHighlights(func(reason store.ClearReason) {
		if err := panel.Send(message.New(message.ClearHighlights{})); err != nil {
			debug.Log("cli: clear highlights (%s): %v", reason, err)
		}
	}))
}

// scanKey identifies one completed scan. Triage updates replace CurrentScan
// with a fresh pointer but keep the scan's own identity, so saves key on
// URL+timestamp rather than pointer equality.
type scanKey struct {
	url string
	ts  time.Time
}

func keyOf(scan *model.ScanResult) scanKey {
	if scan == nil {
		return scanKey{}
	}
	return scanKey{url: scan.URL, ts: scan.Timestamp}
}

// persistScans writes each newly completed scan through to history, once.
// Returns the unsubscribe function. Saves are best effort: a failed write is
// logged, the panel keeps the in-memory result either way. Triage edits to
// an already-saved scan are persisted in place by the panel and must not
// append duplicate history rows here.
func persistScans(st *store.Store, db *storage.Store) func() {
	last := keyOf(st.State().CurrentScan)
	return st.Subscribe(func(s store.State) {
		key := keyOf(s.CurrentScan)
		if s.CurrentScan == nil || key == last {
			return
		}
		last = key
		if err := db.SaveScanResult(*s.CurrentScan); err != nil {
			debug.Log("cli: saving scan for %s failed: %v", s.CurrentScan.URL, err)
		}
	})
}

// resolveTarget turns a CLI argument into a URL: a registered site name from
// the config, or the argument itself.
func resolveTarget(cfg config.Config, arg string) string {
	if site := cfg.FindSite(arg); site != nil {
		return site.URL
	}
	return arg
}
