// Package session feeds tab state into the background context from a
// session file on disk. The file is the headless stand-in for the browser's
// tab environment: external tooling (or a person) edits it, and the watcher
// turns edits into tab lifecycle events.
package session

import (
	"context"
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/vanderheijden86/a11ydeck/pkg/debug"
	"github.com/vanderheijden86/a11ydeck/pkg/tabs"
	"github.com/vanderheijden86/a11ydeck/pkg/watcher"
)

// Snapshot is the on-disk session file format.
type Snapshot struct {
	Active int   `yaml:"active"`
	Tabs   []Tab `yaml:"tabs"`
}

// Tab is one entry in the session file.
type Tab struct {
	ID     int    `yaml:"id"`
	Window int    `yaml:"window,omitempty"`
	URL    string `yaml:"url"`
}

// FileSource is a tabs.Source backed by a watched session file. Reloads are
// diffed against the previous snapshot so edits produce the same event
// sequence a live browser would.
type FileSource struct {
	path    string
	watcher *watcher.Watcher

	mu      sync.RWMutex
	known   map[int]tabs.Tab
	active  int
	started bool

	events chan tabs.Event
}

// Option configures a FileSource.
type Option func(*FileSource) error

// WithWatcherOptions forwards options to the underlying file watcher.
func WithWatcherOptions(opts ...watcher.Option) Option {
	return func(s *FileSource) error {
		w, err := watcher.New(s.path, append(opts, watcher.WithOnChange(s.reload))...)
		if err != nil {
			return err
		}
		s.watcher = w
		return nil
	}
}

// NewFileSource creates a source for the session file at path. The file does
// not need to exist yet; it is picked up on first write.
func NewFileSource(path string, opts ...Option) (*FileSource, error) {
	s := &FileSource{
		path:   path,
		known:  make(map[int]tabs.Tab),
		events: make(chan tabs.Event, 16),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	if s.watcher == nil {
		w, err := watcher.New(path, watcher.WithOnChange(s.reload))
		if err != nil {
			return nil, err
		}
		s.watcher = w
	}
	return s, nil
}

// Start loads the current file state and begins watching for edits.
func (s *FileSource) Start() error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return watcher.ErrAlreadyStarted
	}
	s.started = true
	s.mu.Unlock()

	s.reload()
	return s.watcher.Start()
}

// Stop stops watching the session file.
func (s *FileSource) Stop() {
	s.watcher.Stop()
}

// Path returns the watched session file path.
func (s *FileSource) Path() string { return s.path }

// Active implements tabs.Source.
func (s *FileSource) Active(ctx context.Context) (tabs.Tab, error) {
	if err := ctx.Err(); err != nil {
		return tabs.Tab{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	tab, ok := s.known[s.active]
	if !ok {
		return tabs.Tab{}, tabs.ErrNoActiveTab
	}
	return tab, nil
}

// Events implements tabs.Source.
func (s *FileSource) Events() <-chan tabs.Event {
	return s.events
}

// reload parses the session file and emits events for what changed.
func (s *FileSource) reload() {
	snap, err := readSnapshot(s.path)
	if err != nil {
		debug.Log("session: %v", err)
		return
	}

	s.mu.Lock()
	prev := s.known
	prevActive := s.active

	next := make(map[int]tabs.Tab, len(snap.Tabs))
	for _, t := range snap.Tabs {
		next[t.ID] = tabs.Tab{
			ID:       t.ID,
			WindowID: t.Window,
			URL:      t.URL,
			Active:   t.ID == snap.Active,
		}
	}
	s.known = next
	s.active = snap.Active
	s.mu.Unlock()

	// Navigations first, then the activation change, mirroring how a
	// browser orders a link-open-in-new-tab sequence.
	for id, tab := range next {
		old, existed := prev[id]
		if existed && old.URL == tab.URL {
			continue
		}
		s.emit(tabs.Event{Kind: tabs.EventUpdated, TabID: id, WindowID: tab.WindowID,
			ChangeURL: tab.URL, Status: "loading", Tab: tab})
		s.emit(tabs.Event{Kind: tabs.EventCommitted, TabID: id, WindowID: tab.WindowID,
			ChangeURL: tab.URL, FrameID: 0, Tab: tab})
		s.emit(tabs.Event{Kind: tabs.EventUpdated, TabID: id, WindowID: tab.WindowID,
			Status: "complete", Tab: tab})
	}
	if snap.Active != prevActive {
		if tab, ok := next[snap.Active]; ok {
			s.emit(tabs.Event{Kind: tabs.EventActivated, TabID: tab.ID,
				WindowID: tab.WindowID, Tab: tab})
		}
	}
}

func (s *FileSource) emit(ev tabs.Event) {
	select {
	case s.events <- ev:
	default:
		debug.Log("session: event queue full, dropping %s for tab %d", ev.Kind, ev.TabID)
	}
}

func readSnapshot(path string) (Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Snapshot{}, fmt.Errorf("read session file: %w", err)
	}
	var snap Snapshot
	if err := yaml.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("parse session file: %w", err)
	}
	return snap, nil
}

// WriteSnapshot serializes a snapshot to path. Used by tooling and tests;
// the background only reads.
func WriteSnapshot(path string, snap Snapshot) error {
	data, err := yaml.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode session file: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	return nil
}
