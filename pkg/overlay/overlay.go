// Package overlay owns the page-side visual markers. The marker registry is
// keyed by issue id and mutated only through Highlight and the clear entry
// points; everything else gets read-only snapshots.
package overlay

import (
	"sync"

	"github.com/vanderheijden86/a11ydeck/pkg/debug"
	"github.com/vanderheijden86/a11ydeck/pkg/model"
)

// SeverityColors maps each impact to its marker color.
var SeverityColors = map[model.Impact]string{
	model.ImpactCritical: "#DC2626",
	model.ImpactSerious:  "#EA580C",
	model.ImpactModerate: "#D97706",
	model.ImpactMinor:    "#2563EB",
}

// Element is a resolved page element a marker attaches to.
type Element struct {
	Selector string
	Snippet  string
	Info     map[string]any
}

// Resolver finds the first element matching a selector. Zero matches return
// false; with multiple matches the first wins.
type Resolver func(selector string) (Element, bool)

// Marker is one active highlight.
type Marker struct {
	IssueID  string
	Selector string
	Color    string
	Element  Element
}

// Option configures a Manager.
type Option func(*Manager)

// WithPickCallback installs the handler invoked when the element picker
// selects an element.
func WithPickCallback(fn func(Element)) Option {
	return func(m *Manager) { m.onPick = fn }
}

// Manager tracks highlights and the element-picker mode for one page.
type Manager struct {
	resolve Resolver
	onPick  func(Element)

	mu      sync.Mutex
	markers map[string]Marker
	picker  bool
}

// New builds a Manager resolving selectors through resolve.
func New(resolve Resolver, opts ...Option) *Manager {
	m := &Manager{
		resolve: resolve,
		markers: make(map[string]Marker),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Highlight marks the issue's element on the page, replacing any existing
// marker for the same issue. A selector that matches nothing is logged and
// ignored; the return value reports whether a marker was placed.
func (m *Manager) Highlight(issue model.Issue) bool {
	el, ok := m.resolve(issue.Node.Selector)
	if !ok {
		debug.Log("overlay: element not found for selector %q", issue.Node.Selector)
		return false
	}

	m.mu.Lock()
	m.markers[issue.ID] = Marker{
		IssueID:  issue.ID,
		Selector: issue.Node.Selector,
		Color:    SeverityColors[issue.Impact],
		Element:  el,
	}
	m.mu.Unlock()
	return true
}

// HighlightAll replaces all markers with one per issue.
func (m *Manager) HighlightAll(issues []model.Issue) {
	m.ClearAll()
	for _, issue := range issues {
		m.Highlight(issue)
	}
}

// Remove drops one marker. Unknown ids are a no-op.
func (m *Manager) Remove(issueID string) {
	m.mu.Lock()
	delete(m.markers, issueID)
	m.mu.Unlock()
}

// ClearAll removes every marker.
func (m *Manager) ClearAll() {
	m.mu.Lock()
	m.markers = make(map[string]Marker)
	m.mu.Unlock()
}

// Count returns the number of active markers.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.markers)
}

// Marker returns the marker for an issue id.
func (m *Manager) Marker(issueID string) (Marker, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	mk, ok := m.markers[issueID]
	return mk, ok
}

// SetPicker switches the element-picker mode on or off.
func (m *Manager) SetPicker(enabled bool) {
	m.mu.Lock()
	m.picker = enabled
	m.mu.Unlock()
}

// TogglePicker flips the picker mode and returns the new state.
func (m *Manager) TogglePicker() bool {
	m.mu.Lock()
	m.picker = !m.picker
	enabled := m.picker
	m.mu.Unlock()
	return enabled
}

// PickerActive reports whether the picker is armed.
func (m *Manager) PickerActive() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.picker
}

// Pick resolves a picker selection. It is ignored unless the picker is
// armed; a successful pick disarms the picker, so one toggle yields exactly
// one selection.
func (m *Manager) Pick(selector string) bool {
	m.mu.Lock()
	if !m.picker {
		m.mu.Unlock()
		return false
	}
	m.mu.Unlock()

	el, ok := m.resolve(selector)
	if !ok {
		debug.Log("overlay: pick found nothing for selector %q", selector)
		return false
	}

	m.SetPicker(false)
	if m.onPick != nil {
		m.onPick(el)
	}
	return true
}
