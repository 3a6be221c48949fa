package store

import (
	"sync"

	"github.com/vanderheijden86/a11ydeck/pkg/debug"
)

// ClearReason names why the store decided highlights should be cleared.
type ClearReason string

const (
	ClearScanStarted  ClearReason = "scan started"
	ClearURLChanged   ClearReason = "scan url changed"
	ClearViewSwitched ClearReason = "view switched"
)

// Option configures a Store.
type Option func(*Store)

// WithClearHighlights installs the effect invoked when a dispatch produces a
// state in which page highlights must be cleared. The callback runs on the
// dispatching goroutine, after listeners are notified.
func WithClearHighlights(fn func(ClearReason)) Option {
	return func(s *Store) { s.clearHighlights = fn }
}

// Store holds the current State and serializes dispatches. All derived
// effects (highlight clearing) are decided here, by comparing the state
// before and after each reduction, so no caller has to remember to trigger
// them.
type Store struct {
	mu        sync.Mutex
	state     State
	listeners map[int64]func(State)
	nextSub   int64

	clearHighlights func(ClearReason)
}

// New builds a Store starting from the pristine initial state.
func New(opts ...Option) *Store {
	s := &Store{
		state:     Initial(),
		listeners: make(map[int64]func(State)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns a snapshot of the current state.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Subscribe registers a listener called after every dispatch that changed
// the state. The returned function unsubscribes; calling it more than once
// is harmless.
func (s *Store) Subscribe(fn func(State)) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.listeners[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}

// Dispatch reduces the action into the state, notifies listeners, and fires
// any derived effects. Dispatches are serialized; listeners observe states
// in dispatch order.
func (s *Store) Dispatch(a Action) {
	s.mu.Lock()
	prev := s.state
	next := Reduce(prev, a)
	s.state = next
	fns := make([]func(State), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(next)
	}
	if reason, ok := clearTrigger(prev, next); ok && s.clearHighlights != nil {
		debug.Log("store: clearing highlights (%s)", reason)
		s.clearHighlights(reason)
	}
}

// ObserveURL records a freshly observed active-tab URL, resetting the store
// first when the panel was already bound to a different page. The first
// observation never resets: there is nothing stale to discard.
func (s *Store) ObserveURL(url string) {
	if url == "" {
		return
	}
	s.mu.Lock()
	prev := s.state.CurrentURL
	s.mu.Unlock()

	if prev != "" && prev != url {
		debug.Log("store: url changed %q -> %q, resetting", prev, url)
		s.Dispatch(Reset{})
	}
	s.Dispatch(SetCurrentURL{URL: url})
}

// clearTrigger decides whether the prev->next transition requires clearing
// page highlights, and why.
func clearTrigger(prev, next State) (ClearReason, bool) {
	if !prev.IsScanning && next.IsScanning {
		return ClearScanStarted, true
	}
	if prev.CurrentScan != nil && next.CurrentScan != nil &&
		prev.CurrentScan.URL != next.CurrentScan.URL {
		return ClearURLChanged, true
	}
	if prev.ViewMode != next.ViewMode {
		return ClearViewSwitched, true
	}
	return "", false
}
