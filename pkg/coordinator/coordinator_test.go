package coordinator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/vanderheijden86/a11ydeck/pkg/channel"
	"github.com/vanderheijden86/a11ydeck/pkg/message"
	"github.com/vanderheijden86/a11ydeck/pkg/model"
	"github.com/vanderheijden86/a11ydeck/pkg/router"
	"github.com/vanderheijden86/a11ydeck/pkg/store"
	"github.com/vanderheijden86/a11ydeck/pkg/tabs"
)

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

// scanRequestTap records SCAN_REQUEST messages arriving at a content
// endpoint, standing in for the content script.
type scanRequestTap struct {
	mu   sync.Mutex
	runs []string
	ep   *channel.Endpoint
}

func tapContent(bus *channel.Bus, tabID int) *scanRequestTap {
	tap := &scanRequestTap{ep: bus.Endpoint(channel.ContentEndpoint(tabID))}
	tap.ep.Subscribe(func(msg message.Message, _ channel.Origin) error {
		if req, ok := msg.Data.(message.ScanRequest); ok {
			tap.mu.Lock()
			tap.runs = append(tap.runs, req.RunID)
			tap.mu.Unlock()
		}
		return nil
	})
	return tap
}

func (tap *scanRequestTap) runID(i int) string {
	tap.mu.Lock()
	defer tap.mu.Unlock()
	if i >= len(tap.runs) {
		return ""
	}
	return tap.runs[i]
}

func (tap *scanRequestTap) count() int {
	tap.mu.Lock()
	defer tap.mu.Unlock()
	return len(tap.runs)
}

// complete sends a SCAN_COMPLETE from the content endpoint, traveling the
// same path a real scan result would.
func (tap *scanRequestTap) complete(t *testing.T, runID string, result model.ScanResult) {
	t.Helper()
	err := tap.ep.Send(message.New(message.ScanComplete{Result: result, RunID: runID}))
	if err != nil {
		t.Fatalf("send completion: %v", err)
	}
}

func (tap *scanRequestTap) fail(t *testing.T, runID, errMsg string) {
	t.Helper()
	err := tap.ep.Send(message.New(message.ScanError{Error: errMsg, RunID: runID}))
	if err != nil {
		t.Fatalf("send scan error: %v", err)
	}
}

type fixture struct {
	bus    *channel.Bus
	source *tabs.MemorySource
	store  *store.Store
	coord  *Coordinator
	tap    *scanRequestTap
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	bus := channel.NewBus()
	source := tabs.NewMemorySource()
	source.SetActive(tabs.Tab{ID: 7, URL: "https://example.com", Active: true})
	tap := tapContent(bus, 7)

	rt := router.New(bus, source)
	rt.Start()

	st := store.New()
	coord := New(st, bus, source, opts...)
	coord.Start()

	t.Cleanup(func() {
		coord.Close()
		rt.Stop()
		bus.Close()
	})
	return &fixture{bus: bus, source: source, store: st, coord: coord, tap: tap}
}

func scanResult(url string, n int) model.ScanResult {
	issues := make([]model.Issue, 0, n)
	for i := 0; i < n; i++ {
		issues = append(issues, model.Issue{
			ID:     "i" + string(rune('1'+i)),
			Source: model.SourceEngine,
			RuleID: "image-alt",
			Title:  "Images must have alternate text",
			Impact: model.ImpactCritical,
			WCAG:   model.WCAG{Level: model.LevelA},
			Node:   model.Node{Selector: "img:nth-of-type(" + string(rune('1'+i)) + ")"},
			Status: model.StatusOpen,
		})
	}
	return model.NewScanResult(url, issues, nil, nil)
}

func TestRequestScanNoActiveTab(t *testing.T) {
	f := newFixture(t)
	f.source.ClearActive()

	err := f.coord.RequestScan(context.Background())
	if !errors.Is(err, tabs.ErrNoActiveTab) && !errors.Is(err, ErrNoActiveTab) {
		t.Fatalf("err = %v, want no-active-tab", err)
	}

	st := f.store.State()
	if st.Error != "No active tab found" {
		t.Fatalf("store error = %q", st.Error)
	}
	if st.IsScanning {
		t.Fatal("store left scanning after failed request")
	}
	if f.coord.Phase() != PhaseErrored {
		t.Fatalf("phase = %v", f.coord.Phase())
	}
}

func TestScanRoundTrip(t *testing.T) {
	f := newFixture(t)

	if err := f.coord.RequestScan(context.Background()); err != nil {
		t.Fatalf("request: %v", err)
	}
	if st := f.store.State(); !st.IsScanning {
		t.Fatal("store not scanning immediately after request")
	}

	waitFor(t, "scan request at content", func() bool { return f.tap.count() == 1 })
	f.tap.complete(t, f.tap.runID(0), scanResult("https://example.com", 3))

	waitFor(t, "result in store", func() bool { return f.store.State().CurrentScan != nil })
	st := f.store.State()
	if st.IsScanning {
		t.Fatal("still scanning after completion")
	}
	if !st.HasScannedOnce {
		t.Fatal("HasScannedOnce not set")
	}
	if len(st.CurrentScan.Issues) != 3 {
		t.Fatalf("issue count = %d, want 3", len(st.CurrentScan.Issues))
	}
	if st.PreviousScan != nil {
		t.Fatal("PreviousScan set on first scan ever")
	}
	if f.coord.Phase() != PhaseResolved {
		t.Fatalf("phase = %v", f.coord.Phase())
	}
}

func TestDuplicateDeliveryAppliedOnce(t *testing.T) {
	f := newFixture(t)

	if err := f.coord.RequestScan(context.Background()); err != nil {
		t.Fatalf("request: %v", err)
	}
	waitFor(t, "scan request at content", func() bool { return f.tap.count() == 1 })

	// The router already fans one completion out to the panel three ways
	// (direct broadcast, rebroadcast, port). Send it twice on top of that.
	run := f.tap.runID(0)
	f.tap.complete(t, run, scanResult("https://example.com", 1))
	f.tap.complete(t, run, scanResult("https://example.com", 2))

	waitFor(t, "result in store", func() bool { return f.store.State().CurrentScan != nil })
	time.Sleep(20 * time.Millisecond) // let any duplicate deliveries drain
	st := f.store.State()
	if st.PreviousScan != nil {
		t.Fatal("duplicate completion was applied")
	}
	if len(st.CurrentScan.Issues) != 1 {
		t.Fatalf("issue count = %d, want the first delivery's 1", len(st.CurrentScan.Issues))
	}
}

func TestRunSupersession(t *testing.T) {
	f := newFixture(t)

	if err := f.coord.RequestScan(context.Background()); err != nil {
		t.Fatalf("request A: %v", err)
	}
	waitFor(t, "request A at content", func() bool { return f.tap.count() == 1 })
	runA := f.tap.runID(0)

	if err := f.coord.RequestScan(context.Background()); err != nil {
		t.Fatalf("request B: %v", err)
	}
	waitFor(t, "request B at content", func() bool { return f.tap.count() == 2 })
	runB := f.tap.runID(1)
	if runA == runB {
		t.Fatalf("run ids not distinct: %q", runA)
	}

	// A's late completion must not alter state.
	f.tap.complete(t, runA, scanResult("https://example.com", 5))
	time.Sleep(20 * time.Millisecond)
	if st := f.store.State(); st.CurrentScan != nil {
		t.Fatalf("stale completion installed a result: %+v", st.CurrentScan)
	}
	if st := f.store.State(); !st.IsScanning {
		t.Fatal("stale completion cleared the scanning flag")
	}

	f.tap.complete(t, runB, scanResult("https://example.com", 2))
	waitFor(t, "run B result", func() bool { return f.store.State().CurrentScan != nil })
	if got := len(f.store.State().CurrentScan.Issues); got != 2 {
		t.Fatalf("issue count = %d, want run B's 2", got)
	}
}

func TestBufferThenFlush(t *testing.T) {
	started := make(chan string, 1)
	f := newFixture(t, WithAnimation(func(runID string) { started <- runID }, func() {}))

	if err := f.coord.RequestScan(context.Background()); err != nil {
		t.Fatalf("request: %v", err)
	}
	select {
	case <-started:
	case <-time.After(time.Second):
		t.Fatal("animation never started")
	}

	waitFor(t, "scan request at content", func() bool { return f.tap.count() == 1 })
	f.tap.complete(t, f.tap.runID(0), scanResult("https://example.com", 2))

	waitFor(t, "buffered phase", func() bool { return f.coord.Phase() == PhaseBuffered })
	st := f.store.State()
	if st.CurrentScan != nil {
		t.Fatal("result visible while the animation is still running")
	}
	if !st.IsScanning {
		t.Fatal("scanning flag dropped while the animation is still running")
	}

	f.coord.AnimationComplete()

	st = f.store.State()
	if st.CurrentScan == nil || len(st.CurrentScan.Issues) != 2 {
		t.Fatalf("buffered result not flushed: %+v", st.CurrentScan)
	}
	if st.IsScanning {
		t.Fatal("still scanning after flush")
	}

	// A late duplicate after the flush is a no-op.
	f.tap.complete(t, f.tap.runID(0), scanResult("https://example.com", 9))
	time.Sleep(20 * time.Millisecond)
	if got := len(f.store.State().CurrentScan.Issues); got != 2 {
		t.Fatalf("late duplicate applied after flush: %d issues", got)
	}
}

func TestAnimationFinishesBeforeResult(t *testing.T) {
	f := newFixture(t, WithAnimation(func(string) {}, func() {}))

	if err := f.coord.RequestScan(context.Background()); err != nil {
		t.Fatalf("request: %v", err)
	}
	waitFor(t, "scan request at content", func() bool { return f.tap.count() == 1 })

	f.coord.AnimationComplete()
	if st := f.store.State(); st.IsScanning {
		t.Fatal("scanning flag survived animation completion")
	}

	f.tap.complete(t, f.tap.runID(0), scanResult("https://example.com", 1))
	waitFor(t, "late result lands", func() bool { return f.store.State().CurrentScan != nil })
}

func TestScanErrorStopsAnimation(t *testing.T) {
	stopped := make(chan struct{}, 1)
	f := newFixture(t, WithAnimation(func(string) {}, func() { stopped <- struct{}{} }))

	if err := f.coord.RequestScan(context.Background()); err != nil {
		t.Fatalf("request: %v", err)
	}
	waitFor(t, "scan request at content", func() bool { return f.tap.count() == 1 })
	f.tap.fail(t, f.tap.runID(0), "Accessibility scan failed: engine crashed")

	waitFor(t, "error in store", func() bool { return f.store.State().Error != "" })
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("animation was not force-stopped")
	}
	st := f.store.State()
	if st.IsScanning {
		t.Fatal("still scanning after error")
	}
	if st.Error != "Accessibility scan failed: engine crashed" {
		t.Fatalf("error = %q", st.Error)
	}
	if f.coord.Phase() != PhaseErrored {
		t.Fatalf("phase = %v", f.coord.Phase())
	}
}

func TestRequestRefreshClearsPriorResult(t *testing.T) {
	f := newFixture(t)

	if err := f.coord.RequestScan(context.Background()); err != nil {
		t.Fatalf("first scan: %v", err)
	}
	waitFor(t, "first request", func() bool { return f.tap.count() == 1 })
	f.tap.complete(t, f.tap.runID(0), scanResult("https://example.com", 3))
	waitFor(t, "first result", func() bool { return f.store.State().CurrentScan != nil })

	if err := f.coord.RequestRefresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	st := f.store.State()
	if st.CurrentScan != nil || st.PreviousScan != nil {
		t.Fatal("refresh left the stale result visible")
	}
	if !st.IsScanning || !st.HasScannedOnce {
		t.Fatalf("refresh state wrong: scanning=%v scannedOnce=%v", st.IsScanning, st.HasScannedOnce)
	}

	waitFor(t, "refresh request", func() bool { return f.tap.count() == 2 })
	f.tap.complete(t, f.tap.runID(1), scanResult("https://example.com", 1))
	waitFor(t, "refresh result", func() bool { return f.store.State().CurrentScan != nil })
	if st := f.store.State(); st.PreviousScan != nil {
		t.Fatal("refresh kept the cleared scan as previous")
	}
}

func TestCurrentURLUpdateFeedsStore(t *testing.T) {
	f := newFixture(t)

	if err := f.coord.RequestURL(); err != nil {
		t.Fatalf("request url: %v", err)
	}
	waitFor(t, "url in store", func() bool {
		return f.store.State().CurrentURL == "https://example.com"
	})

	// Navigation to a different page resets the panel to pristine state.
	f.store.Dispatch(store.ScanComplete{Result: scanResult("https://example.com", 1)})
	f.source.SetActive(tabs.Tab{ID: 7, URL: "https://other.example", Active: true})
	f.source.Navigate("https://other.example")

	waitFor(t, "new url observed", func() bool {
		return f.store.State().CurrentURL == "https://other.example"
	})
	if st := f.store.State(); st.CurrentScan != nil {
		t.Fatal("stale result survived navigation")
	}
}
