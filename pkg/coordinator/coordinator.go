// Package coordinator produces a single coherent "are we scanning, and with
// what result" signal out of two independent asynchronous sources: a
// deliberately paced UI animation and a variable-latency scan completion.
// Completions are keyed by run id so a superseded run's late messages can
// never overwrite a newer run's result.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/vanderheijden86/a11ydeck/pkg/channel"
	"github.com/vanderheijden86/a11ydeck/pkg/debug"
	"github.com/vanderheijden86/a11ydeck/pkg/message"
	"github.com/vanderheijden86/a11ydeck/pkg/model"
	"github.com/vanderheijden86/a11ydeck/pkg/router"
	"github.com/vanderheijden86/a11ydeck/pkg/store"
	"github.com/vanderheijden86/a11ydeck/pkg/tabs"
)

// ErrNoActiveTab is returned when a scan is requested with no scannable tab.
// The same failure is surfaced to the store as a scan error, so UI callers
// may ignore the return value.
var ErrNoActiveTab = errors.New("no active tab found")

// noActiveTabMessage is the user-facing form of ErrNoActiveTab.
const noActiveTabMessage = "No active tab found"

// Phase is the coordinator's position in the per-run state machine.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseRequested
	PhaseInFlight
	PhaseBuffered
	PhaseResolved
	PhaseErrored
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseRequested:
		return "requested"
	case PhaseInFlight:
		return "in-flight"
	case PhaseBuffered:
		return "buffered"
	case PhaseResolved:
		return "resolved"
	case PhaseErrored:
		return "errored"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// runMatch classifies an incoming completion's run id against the active run.
type runMatch int

const (
	matchNoRun runMatch = iota
	matchCurrent
	matchStale
	matchProcessed
)

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithAnimation installs the scan animation hooks. start is invoked when a
// run begins; stop when a run errors out mid-animation. When installed, a
// completed run is held back until AnimationComplete is called, so fast
// scans never cut the affordance short.
func WithAnimation(start func(runID string), stop func()) Option {
	return func(c *Coordinator) {
		c.animStart = start
		c.animStop = stop
	}
}

// Coordinator drives scans from the panel context. One instance per panel;
// it connects the long-lived port and subscribes the panel endpoint, with
// both transports funneling into a single completion path.
type Coordinator struct {
	store  *store.Store
	source tabs.Source
	ep     *channel.Endpoint
	bus    *channel.Bus

	animStart func(runID string)
	animStop  func()

	mu             sync.Mutex
	phase          Phase
	runID          string
	processedRunID string
	buffered       *model.ScanResult
	animationDone  bool
	seq            int64

	port   *channel.Port
	unsubs []func()
}

// New builds a Coordinator for the panel endpoint of bus. Call Start to
// connect the transports.
func New(st *store.Store, bus *channel.Bus, source tabs.Source, opts ...Option) *Coordinator {
	c := &Coordinator{
		store:  st,
		source: source,
		bus:    bus,
		ep:     bus.Endpoint(channel.EndpointPanel),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start connects the long-lived port and subscribes the panel endpoint.
// Both feed the same internal dispatcher: a backgrounded panel's endpoint
// subscription can be cold-started late while the port delivers promptly,
// and the run-id dedup makes the redundancy safe.
func (c *Coordinator) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.port != nil {
		return
	}
	// Endpoint first: the router broadcasts the current URL the moment the
	// port connects, and the endpoint subscription must be there to catch it.
	c.unsubs = append(c.unsubs, c.ep.Subscribe(func(msg message.Message, _ channel.Origin) error {
		c.handleMessage(msg)
		return nil
	}))
	c.port = c.bus.Connect(router.PortName)
	c.unsubs = append(c.unsubs, c.port.OnMessage(func(msg message.Message) { c.handleMessage(msg) }))
}

// Close unsubscribes both transports and disconnects the port, which is the
// signal the router uses to clear page highlights.
func (c *Coordinator) Close() {
	c.mu.Lock()
	unsubs := c.unsubs
	c.unsubs = nil
	port := c.port
	c.port = nil
	c.mu.Unlock()

	for _, unsub := range unsubs {
		unsub()
	}
	if port != nil {
		port.Disconnect()
	}
}

// Phase returns the current run phase.
func (c *Coordinator) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// ActiveRunID returns the id of the current run, or "" when idle.
func (c *Coordinator) ActiveRunID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.runID
}

// RequestScan starts a new scan of the active tab. The store reflects
// "scanning" before the request is sent; failure to resolve a tab is
// surfaced as a scan error rather than thrown into the UI.
func (c *Coordinator) RequestScan(ctx context.Context) error {
	return c.request(ctx, false)
}

// RequestRefresh is RequestScan plus an immediate reset of the prior result,
// so stale findings disappear while the new scan runs.
func (c *Coordinator) RequestRefresh(ctx context.Context) error {
	return c.request(ctx, true)
}

// RequestURL asks the router to rebroadcast the active tab URL. Used by a
// panel that mounted after the connect-time broadcast.
func (c *Coordinator) RequestURL() error {
	return c.ep.Send(message.New(message.GetCurrentURL{}))
}

// HighlightIssue asks the active tab's content context to mark the issue's
// element on the page. The router resolves which tab that is.
func (c *Coordinator) HighlightIssue(issueID string) error {
	return c.ep.Send(message.New(message.HighlightIssue{IssueID: issueID}))
}

// ClearHighlights removes every overlay marker from the active tab.
func (c *Coordinator) ClearHighlights() error {
	return c.ep.Send(message.New(message.ClearHighlights{}))
}

// TogglePicker enables or disables the element picker on the active tab.
// The picker disarms itself page-side after one selection.
func (c *Coordinator) TogglePicker(enabled bool) error {
	return c.ep.Send(message.New(message.TogglePicker{Enabled: enabled}))
}

// AnimationComplete is called by the UI when the scan animation has run its
// course. A result buffered in the interim is flushed to the store now; with
// no buffered result the scanning flag is cleared and a still-in-flight
// completion will land on arrival.
func (c *Coordinator) AnimationComplete() {
	c.mu.Lock()
	c.animationDone = true
	buffered := c.buffered
	c.buffered = nil
	if buffered != nil {
		c.phase = PhaseResolved
		c.processedRunID = c.runID
	}
	c.mu.Unlock()

	if buffered != nil {
		debug.Log("coordinator: flushing buffered result for %q", buffered.URL)
		c.store.Dispatch(store.ScanComplete{Result: *buffered})
		return
	}
	c.store.Dispatch(store.StopScanning{})
}

func (c *Coordinator) request(ctx context.Context, refresh bool) error {
	tab, err := c.source.Active(ctx)
	if err != nil || tab.URL == "" {
		c.failRequest()
		if err == nil {
			err = ErrNoActiveTab
		}
		return fmt.Errorf("request scan: %w", err)
	}

	c.mu.Lock()
	c.seq++
	runID := fmt.Sprintf("%d-%d", time.Now().UnixMilli(), c.seq)
	c.phase = PhaseRequested
	c.runID = runID
	c.processedRunID = ""
	c.buffered = nil
	c.animationDone = c.animStart == nil
	c.mu.Unlock()

	if refresh {
		c.store.Dispatch(store.ResetAndStartScan{URL: tab.URL})
	} else {
		c.store.Dispatch(store.ScanStart{URL: tab.URL})
	}
	if c.animStart != nil {
		c.animStart(runID)
	}

	msg := message.New(message.ScanRequest{URL: tab.URL, RunID: runID})
	if err := c.ep.Send(msg); err != nil {
		c.applyError(message.ScanError{
			Error: "Accessibility scan failed: " + err.Error(),
			RunID: runID,
		})
		return fmt.Errorf("request scan: %w", err)
	}

	c.mu.Lock()
	if c.runID == runID {
		c.phase = PhaseInFlight
	}
	c.mu.Unlock()
	return nil
}

// failRequest surfaces a missing active tab. No run was started, so there is
// no run state to reset beyond stopping a possibly running animation.
func (c *Coordinator) failRequest() {
	c.mu.Lock()
	c.phase = PhaseErrored
	c.runID = ""
	c.buffered = nil
	c.mu.Unlock()
	if c.animStop != nil {
		c.animStop()
	}
	c.store.Dispatch(store.ScanError{Message: noActiveTabMessage})
}

// handleMessage is the single funnel both transports feed.
func (c *Coordinator) handleMessage(msg message.Message) {
	switch p := msg.Data.(type) {
	case message.ScanComplete:
		c.applyCompletion(p)
	case message.ScanError:
		c.applyError(p)
	case message.CurrentURLUpdate:
		c.store.ObserveURL(p.URL)
	}
}

// matchLocked classifies a completion's run id. An empty id matches the
// active run: engines that do not tag completions still get their one
// delivery applied, and the dedup then keys on the active run's own id.
func (c *Coordinator) matchLocked(runID string) runMatch {
	if c.runID == "" {
		return matchNoRun
	}
	if runID != "" && runID != c.runID {
		return matchStale
	}
	if c.processedRunID == c.runID {
		return matchProcessed
	}
	return matchCurrent
}

func (c *Coordinator) applyCompletion(p message.ScanComplete) {
	c.mu.Lock()
	switch c.matchLocked(p.RunID) {
	case matchNoRun, matchStale, matchProcessed:
		// Expected and frequent: superseded runs and the redundant second
		// transport both land here.
		debug.Log("coordinator: discarding completion (run %q, active %q)", p.RunID, c.runID)
		c.mu.Unlock()
		return
	}
	c.processedRunID = c.runID
	if !c.animationDone {
		result := p.Result
		c.buffered = &result
		c.phase = PhaseBuffered
		c.mu.Unlock()
		debug.Log("coordinator: buffering result for %q until animation completes", p.Result.URL)
		return
	}
	c.phase = PhaseResolved
	c.mu.Unlock()

	c.store.Dispatch(store.ScanComplete{Result: p.Result})
}

func (c *Coordinator) applyError(p message.ScanError) {
	c.mu.Lock()
	switch c.matchLocked(p.RunID) {
	case matchNoRun, matchStale, matchProcessed:
		debug.Log("coordinator: discarding error (run %q, active %q)", p.RunID, c.runID)
		c.mu.Unlock()
		return
	}
	c.processedRunID = c.runID
	c.buffered = nil
	c.phase = PhaseErrored
	c.mu.Unlock()

	if c.animStop != nil {
		c.animStop()
	}
	msg := p.Error
	if msg == "" {
		msg = "Unknown error"
	}
	c.store.Dispatch(store.ScanError{Message: msg})
}
