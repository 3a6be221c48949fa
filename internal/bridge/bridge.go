// Package bridge exposes a local HTTP surface so external tooling (CI jobs,
// editors, browser helpers) can drive scans and read audit state without
// linking the Go packages.
package bridge

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	json "github.com/goccy/go-json"

	"github.com/vanderheijden86/a11ydeck/internal/storage"
	"github.com/vanderheijden86/a11ydeck/pkg/coordinator"
	"github.com/vanderheijden86/a11ydeck/pkg/store"
	"github.com/vanderheijden86/a11ydeck/pkg/tabs"
	"github.com/vanderheijden86/a11ydeck/pkg/version"
)

// Server wires the audit pipeline behind an HTTP API.
type Server struct {
	store   *store.Store
	coord   *coordinator.Coordinator
	source  *tabs.MemorySource
	history *storage.Store // optional; history endpoints 404 without it
}

// New creates a bridge server. history may be nil when persistence is
// disabled.
func New(st *store.Store, coord *coordinator.Coordinator, source *tabs.MemorySource, history *storage.Store) *Server {
	return &Server{store: st, coord: coord, source: source, history: history}
}

// Routes returns the chi router for the bridge API.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Route("/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/state", s.handleState)
		r.Get("/results", s.handleResults)
		r.Post("/scan", s.handleScan)
		r.Post("/tab-events", s.handleTabEvent)
		r.Get("/history", s.handleHistory)
	})
	return r
}

// ListenAndServe blocks serving the bridge API on addr.
func (s *Server) ListenAndServe(addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
	}
	return srv.ListenAndServe()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]string{
		"status":  "ok",
		"version": version.Version,
	})
}

// stateView is the wire shape of the panel state; full scan payloads are
// served by /v1/results.
type stateView struct {
	IsScanning     bool   `json:"isScanning"`
	HasScannedOnce bool   `json:"hasScannedOnce"`
	Error          string `json:"error,omitempty"`
	CurrentURL     string `json:"currentUrl,omitempty"`
	ViewMode       string `json:"viewMode"`
	IssueCount     int    `json:"issueCount"`
	HasPrevious    bool   `json:"hasPreviousScan"`
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	state := s.store.State()
	view := stateView{
		IsScanning:     state.IsScanning,
		HasScannedOnce: state.HasScannedOnce,
		Error:          state.Error,
		CurrentURL:     state.CurrentURL,
		ViewMode:       string(state.ViewMode),
	}
	if state.CurrentScan != nil {
		view.IssueCount = state.CurrentScan.Summary.Total
	}
	view.HasPrevious = state.PreviousScan != nil
	render.JSON(w, r, view)
}

func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	state := s.store.State()
	if state.CurrentScan == nil {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, map[string]string{"error": "no scan result available"})
		return
	}
	render.JSON(w, r, state.CurrentScan)
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Refresh bool `json:"refresh"`
	}
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, map[string]string{"error": "invalid json"})
			return
		}
	}

	var err error
	if payload.Refresh {
		err = s.coord.RequestRefresh(r.Context())
	} else {
		err = s.coord.RequestScan(r.Context())
	}
	if err != nil {
		render.Status(r, http.StatusConflict)
		render.JSON(w, r, map[string]string{"error": err.Error()})
		return
	}
	render.Status(r, http.StatusAccepted)
	render.JSON(w, r, map[string]string{"status": "scan requested"})
}

func (s *Server) handleTabEvent(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Kind     string `json:"kind"` // "activated", "navigated"
		TabID    int    `json:"tabId"`
		WindowID int    `json:"windowId"`
		URL      string `json:"url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, map[string]string{"error": "invalid json"})
		return
	}

	switch payload.Kind {
	case "activated":
		tab := tabs.Tab{ID: payload.TabID, WindowID: payload.WindowID, URL: payload.URL}
		s.source.SetActive(tab)
		s.source.Emit(tabs.Event{Kind: tabs.EventActivated, TabID: tab.ID,
			WindowID: tab.WindowID, Tab: tab})
	case "navigated":
		if payload.URL == "" {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, map[string]string{"error": "navigated event requires url"})
			return
		}
		s.source.Navigate(payload.URL)
	default:
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, map[string]string{"error": "unknown event kind"})
		return
	}
	render.Status(r, http.StatusAccepted)
	render.JSON(w, r, map[string]string{"status": "event accepted"})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, map[string]string{"error": "history persistence is disabled"})
		return
	}
	url := r.URL.Query().Get("url")
	if url == "" {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, map[string]string{"error": "url query parameter is required"})
		return
	}
	scans, err := s.history.ScanHistory(url)
	if err != nil {
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, map[string]string{"error": err.Error()})
		return
	}
	render.JSON(w, r, map[string]any{"url": url, "scans": scans})
}
