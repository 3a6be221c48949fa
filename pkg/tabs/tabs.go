// Package tabs abstracts the browser tab environment the router observes.
// The router never caches tab state; it queries the active tab on demand and
// reacts to lifecycle events.
package tabs

import (
	"context"
	"errors"
	"sync"
)

// ErrNoActiveTab is returned when no active tab can be resolved. Callers
// treat it as a skip condition for broadcasts and a user-facing error only
// for user-initiated actions.
var ErrNoActiveTab = errors.New("no active tab found")

// Tab describes one browser tab.
type Tab struct {
	ID       int
	WindowID int
	URL      string
	Active   bool
}

// EventKind classifies tab lifecycle events.
type EventKind int

const (
	// EventActivated fires when the user switches tabs.
	EventActivated EventKind = iota
	// EventUpdated fires when a tab's URL or load status changes.
	EventUpdated
	// EventCommitted fires when a navigation commits (including SPA
	// history navigations); only top-level frames matter.
	EventCommitted
)

func (k EventKind) String() string {
	switch k {
	case EventActivated:
		return "activated"
	case EventUpdated:
		return "updated"
	case EventCommitted:
		return "committed"
	default:
		return "unknown"
	}
}

// Event is one tab lifecycle notification.
type Event struct {
	Kind     EventKind
	TabID    int
	WindowID int

	// ChangeURL is the updated URL if the event carries one; it takes
	// precedence over Tab.URL when both are set.
	ChangeURL string
	// Status is the load status for updated events ("loading", "complete").
	Status string
	// FrameID is the navigating frame for committed events; 0 is top-level.
	FrameID int
	// Tab is the event's tab snapshot, when available.
	Tab Tab
}

// Source is the router's window into the tab environment.
type Source interface {
	// Active resolves the active tab of the focused window.
	Active(ctx context.Context) (Tab, error)
	// Events returns the lifecycle event stream.
	Events() <-chan Event
}

// MemorySource is an in-process Source used by tests and the headless scan
// path. It is safe for concurrent use.
type MemorySource struct {
	mu     sync.RWMutex
	active *Tab
	events chan Event
}

// NewMemorySource creates a source with no active tab.
func NewMemorySource() *MemorySource {
	return &MemorySource{events: make(chan Event, 16)}
}

// SetActive sets the active tab without emitting an event.
func (s *MemorySource) SetActive(tab Tab) {
	s.mu.Lock()
	tab.Active = true
	s.active = &tab
	s.mu.Unlock()
}

// ClearActive removes the active tab.
func (s *MemorySource) ClearActive() {
	s.mu.Lock()
	s.active = nil
	s.mu.Unlock()
}

// Active implements Source.
func (s *MemorySource) Active(ctx context.Context) (Tab, error) {
	if err := ctx.Err(); err != nil {
		return Tab{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.active == nil {
		return Tab{}, ErrNoActiveTab
	}
	return *s.active, nil
}

// Events implements Source.
func (s *MemorySource) Events() <-chan Event {
	return s.events
}

// Emit pushes a lifecycle event. A full queue drops the event, matching the
// at-most-once delivery model.
func (s *MemorySource) Emit(ev Event) {
	select {
	case s.events <- ev:
	default:
	}
}

// Navigate updates the active tab's URL and emits the matching update and
// commit events, approximating a real top-level navigation.
func (s *MemorySource) Navigate(url string) {
	s.mu.Lock()
	if s.active == nil {
		s.mu.Unlock()
		return
	}
	s.active.URL = url
	tab := *s.active
	s.mu.Unlock()

	s.Emit(Event{Kind: EventUpdated, TabID: tab.ID, WindowID: tab.WindowID, ChangeURL: url, Status: "loading", Tab: tab})
	s.Emit(Event{Kind: EventCommitted, TabID: tab.ID, WindowID: tab.WindowID, ChangeURL: url, FrameID: 0, Tab: tab})
	s.Emit(Event{Kind: EventUpdated, TabID: tab.ID, WindowID: tab.WindowID, Status: "complete", Tab: tab})
}
