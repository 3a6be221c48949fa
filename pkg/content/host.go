// Package content hosts the page-side context: it answers scan requests,
// places and clears overlay markers, and runs the element picker for one
// tab's page.
package content

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/vanderheijden86/a11ydeck/pkg/channel"
	"github.com/vanderheijden86/a11ydeck/pkg/debug"
	"github.com/vanderheijden86/a11ydeck/pkg/message"
	"github.com/vanderheijden86/a11ydeck/pkg/metrics"
	"github.com/vanderheijden86/a11ydeck/pkg/model"
	"github.com/vanderheijden86/a11ydeck/pkg/overlay"
	"github.com/vanderheijden86/a11ydeck/pkg/scanner"
)

const scanTimeout = 30 * time.Second

// Loader fetches and parses the page a scan request names.
type Loader func(ctx context.Context, url string) (scanner.Page, error)

// HTTPLoader fetches pages over HTTP. A nil client uses http.DefaultClient.
func HTTPLoader(client *http.Client) Loader {
	if client == nil {
		client = http.DefaultClient
	}
	return func(ctx context.Context, url string) (scanner.Page, error) {
		defer metrics.Timer(metrics.PageLoad)()
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return scanner.Page{}, fmt.Errorf("build request: %w", err)
		}
		resp, err := client.Do(req)
		if err != nil {
			return scanner.Page{}, fmt.Errorf("fetch %s: %w", url, err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return scanner.Page{}, fmt.Errorf("fetch %s: status %d", url, resp.StatusCode)
		}
		return scanner.ParsePage(url, resp.Body)
	}
}

// StaticLoader always serves one pre-parsed page, regardless of URL.
func StaticLoader(page scanner.Page) Loader {
	return func(context.Context, string) (scanner.Page, error) {
		return page, nil
	}
}

// Host is the content context for one tab.
type Host struct {
	tabID   int
	ep      *channel.Endpoint
	scanner *scanner.Scanner
	overlay *overlay.Manager
	load    Loader

	mu       sync.Mutex
	page     scanner.Page
	last     *model.ScanResult
	scanning bool
	unsub    func()
}

// NewHost builds the content host for tabID, scanning with engine and
// loading pages through load.
func NewHost(bus *channel.Bus, tabID int, engine scanner.Engine, load Loader) *Host {
	h := &Host{
		tabID:   tabID,
		ep:      bus.Endpoint(channel.ContentEndpoint(tabID)),
		scanner: scanner.New(engine),
		load:    load,
	}
	h.overlay = overlay.New(h.resolveSelector, overlay.WithPickCallback(h.reportPick))
	return h
}

// Overlay exposes the marker registry, mainly for drivers and tests.
func (h *Host) Overlay() *overlay.Manager { return h.overlay }

// Start subscribes the host to its tab endpoint.
func (h *Host) Start() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.unsub != nil {
		return
	}
	h.unsub = h.ep.Subscribe(func(msg message.Message, _ channel.Origin) error {
		h.handle(msg)
		return nil
	})
}

// Stop unsubscribes the host.
func (h *Host) Stop() {
	h.mu.Lock()
	unsub := h.unsub
	h.unsub = nil
	h.mu.Unlock()
	if unsub != nil {
		unsub()
	}
}

// PickElement feeds a picker selection, as a user's click would.
func (h *Host) PickElement(selector string) bool {
	return h.overlay.Pick(selector)
}

func (h *Host) handle(msg message.Message) {
	switch p := msg.Data.(type) {
	case message.ScanRequest:
		go h.runScan(p)
	case message.HighlightIssue:
		h.highlight(p.IssueID)
	case message.ClearHighlights:
		h.overlay.ClearAll()
	case message.TogglePicker:
		h.overlay.SetPicker(p.Enabled)
	default:
		// Not for the content context.
	}
}

func (h *Host) runScan(req message.ScanRequest) {
	h.mu.Lock()
	if h.scanning {
		h.mu.Unlock()
		debug.Log("content %d: scan already in progress, dropping request", h.tabID)
		return
	}
	h.scanning = true
	h.mu.Unlock()
	defer func() {
		h.mu.Lock()
		h.scanning = false
		h.mu.Unlock()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), scanTimeout)
	defer cancel()

	page, err := h.load(ctx, req.URL)
	if err != nil {
		h.sendError(err, req.RunID)
		return
	}
	h.mu.Lock()
	h.page = page
	h.mu.Unlock()

	result, err := h.scanner.Scan(ctx, page)
	if err != nil {
		h.sendError(err, req.RunID)
		return
	}

	h.mu.Lock()
	h.last = &result
	h.mu.Unlock()

	if err := h.ep.Send(message.New(message.ScanComplete{Result: result, RunID: req.RunID})); err != nil {
		debug.Log("content %d: sending result failed: %v", h.tabID, err)
	}
}

func (h *Host) sendError(err error, runID string) {
	detail := "Unknown error"
	if err != nil && err.Error() != "" {
		detail = err.Error()
	}
	msg := message.New(message.ScanError{
		Error: "Accessibility scan failed: " + detail,
		RunID: runID,
	})
	if sendErr := h.ep.Send(msg); sendErr != nil {
		debug.Log("content %d: sending scan error failed: %v", h.tabID, sendErr)
	}
}

func (h *Host) highlight(issueID string) {
	h.mu.Lock()
	last := h.last
	h.mu.Unlock()
	if last == nil {
		debug.Log("content %d: highlight before any scan", h.tabID)
		return
	}

	issue, ok := last.FindIssue(issueID)
	if !ok {
		for _, candidate := range last.IncompleteChecks {
			if candidate.ID == issueID {
				issue, ok = candidate, true
				break
			}
		}
	}
	if !ok {
		debug.Log("content %d: no issue %q in last result", h.tabID, issueID)
		return
	}
	h.overlay.Highlight(issue)
}

func (h *Host) resolveSelector(selector string) (overlay.Element, bool) {
	h.mu.Lock()
	page := h.page
	h.mu.Unlock()

	node, ok := scanner.Find(page, selector)
	if !ok {
		return overlay.Element{}, false
	}
	d := scanner.Describe(node)
	return overlay.Element{
		Selector: selector,
		Snippet:  d.Snippet,
		Info: map[string]any{
			"role":           d.Context.Role,
			"accessibleName": d.Context.AccessibleName,
			"focusable":      d.Context.Focusable,
			"snippet":        d.Snippet,
		},
	}, true
}

func (h *Host) reportPick(el overlay.Element) {
	msg := message.New(message.InspectElement{Selector: el.Selector, ElementInfo: el.Info})
	if err := h.ep.Send(msg); err != nil {
		debug.Log("content %d: reporting pick failed: %v", h.tabID, err)
	}
}
