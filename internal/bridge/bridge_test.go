package bridge

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	json "github.com/goccy/go-json"

	"github.com/vanderheijden86/a11ydeck/internal/storage"
	"github.com/vanderheijden86/a11ydeck/pkg/channel"
	"github.com/vanderheijden86/a11ydeck/pkg/coordinator"
	"github.com/vanderheijden86/a11ydeck/pkg/message"
	"github.com/vanderheijden86/a11ydeck/pkg/model"
	"github.com/vanderheijden86/a11ydeck/pkg/router"
	"github.com/vanderheijden86/a11ydeck/pkg/store"
	"github.com/vanderheijden86/a11ydeck/pkg/tabs"
)

type fixture struct {
	ts     *httptest.Server
	store  *store.Store
	source *tabs.MemorySource

	mu   sync.Mutex
	runs []string
	ep   *channel.Endpoint
}

func newFixture(t *testing.T, withHistory bool) *fixture {
	t.Helper()
	bus := channel.NewBus()
	source := tabs.NewMemorySource()
	source.SetActive(tabs.Tab{ID: 7, URL: "https://example.com", Active: true})

	f := &fixture{source: source}
	f.ep = bus.Endpoint(channel.ContentEndpoint(7))
	f.ep.Subscribe(func(msg message.Message, _ channel.Origin) error {
		if req, ok := msg.Data.(message.ScanRequest); ok {
			f.mu.Lock()
			f.runs = append(f.runs, req.RunID)
			f.mu.Unlock()
		}
		return nil
	})

	rt := router.New(bus, source)
	rt.Start()

	st := store.New()
	coord := coordinator.New(st, bus, source)
	coord.Start()
	f.store = st

	var history *storage.Store
	if withHistory {
		var err error
		history, err = storage.Open(filepath.Join(t.TempDir(), "bridge.db"))
		if err != nil {
			t.Fatal(err)
		}
	}

	srv := New(st, coord, source, history)
	f.ts = httptest.NewServer(srv.Routes())

	t.Cleanup(func() {
		f.ts.Close()
		coord.Close()
		rt.Stop()
		bus.Close()
		if history != nil {
			history.Close()
		}
	})
	return f
}

func (f *fixture) waitForRun(t *testing.T) string {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		f.mu.Lock()
		n := len(f.runs)
		var run string
		if n > 0 {
			run = f.runs[n-1]
		}
		f.mu.Unlock()
		if run != "" {
			return run
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("timed out waiting for scan request")
	return ""
}

func (f *fixture) completeScan(t *testing.T, runID string, result model.ScanResult) {
	t.Helper()
	if err := f.ep.Send(message.New(message.ScanComplete{Result: result, RunID: runID})); err != nil {
		t.Fatalf("send completion: %v", err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if f.store.State().CurrentScan != nil {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("timed out waiting for scan result to land")
}

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s: %v", url, err)
		}
	}
	return resp.StatusCode
}

func postJSON(t *testing.T, url string, payload any) int {
	t.Helper()
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	defer resp.Body.Close()
	return resp.StatusCode
}

func bridgeScan(url string, n int) model.ScanResult {
	issues := make([]model.Issue, 0, n)
	for i := 0; i < n; i++ {
		issues = append(issues, model.Issue{
			ID: "iss-" + string(rune('a'+i)), RuleID: "image-alt",
			Impact: model.ImpactCritical, Confidence: model.ConfidenceHigh,
			Status: model.StatusOpen,
			Node:   model.Node{Selector: "img#" + string(rune('a'+i))},
		})
	}
	return model.NewScanResult(url, issues, nil, nil)
}

func TestHealth(t *testing.T) {
	f := newFixture(t, false)

	var body map[string]string
	if code := getJSON(t, f.ts.URL+"/v1/health", &body); code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if body["status"] != "ok" || body["version"] == "" {
		t.Errorf("health body = %v", body)
	}
}

func TestScanLifecycleOverHTTP(t *testing.T) {
	f := newFixture(t, false)

	if code := postJSON(t, f.ts.URL+"/v1/scan", map[string]bool{}); code != http.StatusAccepted {
		t.Fatalf("scan status = %d, want 202", code)
	}
	runID := f.waitForRun(t)

	var state stateView
	getJSON(t, f.ts.URL+"/v1/state", &state)
	if !state.IsScanning {
		t.Error("state should report scanning after scan request")
	}

	f.completeScan(t, runID, bridgeScan("https://example.com", 2))

	getJSON(t, f.ts.URL+"/v1/state", &state)
	if state.IsScanning {
		t.Error("state should stop scanning when the result lands")
	}
	if state.IssueCount != 2 {
		t.Errorf("issue count = %d, want 2", state.IssueCount)
	}

	var result model.ScanResult
	if code := getJSON(t, f.ts.URL+"/v1/results", &result); code != http.StatusOK {
		t.Fatalf("results status = %d", code)
	}
	if result.URL != "https://example.com" || len(result.Issues) != 2 {
		t.Errorf("result = url %q with %d issues", result.URL, len(result.Issues))
	}
}

func TestResultsBeforeAnyScan(t *testing.T) {
	f := newFixture(t, false)
	if code := getJSON(t, f.ts.URL+"/v1/results", nil); code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", code)
	}
}

func TestScanWithoutActiveTab(t *testing.T) {
	f := newFixture(t, false)
	f.source.ClearActive()

	if code := postJSON(t, f.ts.URL+"/v1/scan", map[string]bool{}); code != http.StatusConflict {
		t.Errorf("status = %d, want 409", code)
	}
}

func TestTabEvents(t *testing.T) {
	f := newFixture(t, false)

	code := postJSON(t, f.ts.URL+"/v1/tab-events", map[string]any{
		"kind": "navigated", "url": "https://example.com/pricing",
	})
	if code != http.StatusAccepted {
		t.Fatalf("navigated status = %d, want 202", code)
	}

	code = postJSON(t, f.ts.URL+"/v1/tab-events", map[string]any{
		"kind": "activated", "tabId": 9, "url": "https://other.test",
	})
	if code != http.StatusAccepted {
		t.Fatalf("activated status = %d, want 202", code)
	}

	code = postJSON(t, f.ts.URL+"/v1/tab-events", map[string]any{"kind": "closed"})
	if code != http.StatusBadRequest {
		t.Errorf("unknown kind status = %d, want 400", code)
	}

	code = postJSON(t, f.ts.URL+"/v1/tab-events", map[string]any{"kind": "navigated"})
	if code != http.StatusBadRequest {
		t.Errorf("navigated without url status = %d, want 400", code)
	}
}

func TestHistoryEndpoint(t *testing.T) {
	f := newFixture(t, true)

	if code := getJSON(t, f.ts.URL+"/v1/history", nil); code != http.StatusBadRequest {
		t.Errorf("missing url param status = %d, want 400", code)
	}

	var body struct {
		URL   string             `json:"url"`
		Scans []model.ScanResult `json:"scans"`
	}
	code := getJSON(t, f.ts.URL+"/v1/history?url=https://example.com", &body)
	if code != http.StatusOK {
		t.Fatalf("history status = %d", code)
	}
	if len(body.Scans) != 0 {
		t.Errorf("expected empty history, got %d scans", len(body.Scans))
	}
}

func TestHistoryDisabled(t *testing.T) {
	f := newFixture(t, false)
	if code := getJSON(t, f.ts.URL+"/v1/history?url=https://example.com", nil); code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", code)
	}
}
