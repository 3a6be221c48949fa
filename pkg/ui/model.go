package ui

import (
	"context"
	"fmt"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/vanderheijden86/a11ydeck/internal/storage"
	"github.com/vanderheijden86/a11ydeck/pkg/coordinator"
	"github.com/vanderheijden86/a11ydeck/pkg/debug"
	"github.com/vanderheijden86/a11ydeck/pkg/model"
	"github.com/vanderheijden86/a11ydeck/pkg/store"
)

// View width thresholds for adaptive layout
const (
	SplitViewThreshold = 100
	MinDetailPaneWidth = 40
)

// scanAnimDuration is how long the scanning animation plays before the
// coordinator is told it may flush buffered results.
const scanAnimDuration = 600 * time.Millisecond

// focus represents which UI element has keyboard focus
type focus int

const (
	focusList focus = iota
	focusDetail
	focusChecklist
	focusSearch
	focusStatusPicker
	focusHelp
)

// StateMsg delivers a fresh snapshot from the store.
type StateMsg struct {
	State store.State
}

// AnimStartMsg is sent when a scan animation should begin.
type AnimStartMsg struct {
	RunID string
}

// AnimStopMsg is sent when the scan animation should stop.
type AnimStopMsg struct{}

// scanAnimDoneMsg fires after the animation has played long enough.
type scanAnimDoneMsg struct {
	RunID string
}

// scanRequestErrMsg carries a failed scan request back to the UI loop.
type scanRequestErrMsg struct {
	Err error
}

// ReadyTimeoutMsg is sent after a short delay to ensure the UI becomes ready
// even if the terminal doesn't send WindowSizeMsg promptly.
type ReadyTimeoutMsg struct{}

// ReadyTimeoutCmd returns a command that sends ReadyTimeoutMsg after 100ms.
// This ensures the TUI doesn't hang on "Initializing..." if the terminal
// is slow to report its size (common in tmux, SSH, some terminal emulators).
func ReadyTimeoutCmd() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(time.Time) tea.Msg {
		return ReadyTimeoutMsg{}
	})
}

// ModelOption configures the panel model.
type ModelOption func(*Model)

// WithCoordinator attaches the scan coordinator; without it scan requests
// fail with a status message instead of a crash.
func WithCoordinator(c *coordinator.Coordinator) ModelOption {
	return func(m *Model) { m.coord = c }
}

// WithHistory attaches the persistence layer. Triage and checklist changes
// are written through so they survive restarts.
func WithHistory(db *storage.Store) ModelOption {
	return func(m *Model) { m.history = db }
}

// WithGlamourStyle sets the markdown style for the detail pane
// ("dark", "light", or "auto").
func WithGlamourStyle(style string) ModelOption {
	return func(m *Model) { m.glamourStyle = style }
}

// WithTheme overrides the default theme.
func WithTheme(t Theme) ModelOption {
	return func(m *Model) { m.theme = t }
}

// Model is the panel: a store-driven view over the current scan, with the
// store as the single source of truth. The model never mutates scan state
// directly; every change goes through a dispatch and comes back as a
// StateMsg.
type Model struct {
	store   *store.Store
	coord   *coordinator.Coordinator
	history *storage.Store

	state       store.State
	stateCh     chan store.State
	unsubscribe func()
	animCh      chan tea.Msg

	theme        Theme
	glamourStyle string
	renderer     *glamour.TermRenderer

	list   list.Model
	detail viewport.Model
	search textinput.Model
	spin   spinner.Model

	focused     focus
	prevFocused focus
	width       int
	height      int
	detailWidth int
	ready       bool

	checklistCursor int
	statusCursor    int
	pickerOn        bool

	statusMsg     string
	statusIsError bool
}

// NewModel builds the panel model bound to a store.
func NewModel(st *store.Store, opts ...ModelOption) Model {
	m := Model{
		store:        st,
		stateCh:      make(chan store.State, 16),
		animCh:       make(chan tea.Msg, 4),
		theme:        TestTheme(),
		glamourStyle: "auto",
		focused:      focusList,
	}
	for _, opt := range opts {
		opt(&m)
	}

	m.state = st.State()
	m.unsubscribe = st.Subscribe(func(s store.State) {
		select {
		case m.stateCh <- s:
		default:
			debug.Log("ui: dropping state update, channel full")
		}
	})

	delegate := IssueDelegate{Theme: m.theme}
	l := list.New(nil, delegate, 0, 0)
	l.SetShowTitle(false)
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	m.list = l

	m.detail = viewport.New(0, 0)

	ti := textinput.New()
	ti.Placeholder = "search title, description, rule..."
	ti.CharLimit = 80
	m.search = ti

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = m.theme.PrimaryBold
	m.spin = sp

	m.syncList()
	return m
}

// AnimationHooks returns the start/stop pair to register with
// coordinator.WithAnimation. The hooks are safe to call from the
// coordinator's goroutine; they forward into the Bubble Tea loop.
func (m *Model) AnimationHooks() (start func(runID string), stop func()) {
	ch := m.animCh
	start = func(runID string) {
		select {
		case ch <- AnimStartMsg{RunID: runID}:
		default:
		}
	}
	stop = func() {
		select {
		case ch <- AnimStopMsg{}:
		default:
		}
	}
	return start, stop
}

// SetCoordinator binds the coordinator after construction. The panel and
// coordinator reference each other (animation hooks flow the other way), so
// callers build the model first and attach the coordinator here.
func (m *Model) SetCoordinator(c *coordinator.Coordinator) { m.coord = c }

// Close releases the store subscription.
func (m *Model) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.waitForState(),
		m.waitForAnim(),
		m.spin.Tick,
		ReadyTimeoutCmd(),
	)
}

func (m Model) waitForState() tea.Cmd {
	ch := m.stateCh
	return func() tea.Msg {
		return StateMsg{State: <-ch}
	}
}

func (m Model) waitForAnim() tea.Cmd {
	ch := m.animCh
	return func() tea.Msg {
		return <-ch
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.ready = true
		m.resize()
		return m, nil

	case ReadyTimeoutMsg:
		if !m.ready {
			m.width, m.height = 80, 24
			m.ready = true
			m.resize()
		}
		return m, nil

	case StateMsg:
		wasScanning := m.state.IsScanning
		m.applyState(msg.State)
		if m.state.IsScanning && !wasScanning {
			return m, tea.Batch(m.waitForState(), m.spin.Tick)
		}
		return m, m.waitForState()

	case AnimStartMsg:
		runID := msg.RunID
		return m, tea.Batch(
			m.waitForAnim(),
			m.spin.Tick,
			tea.Tick(scanAnimDuration, func(time.Time) tea.Msg {
				return scanAnimDoneMsg{RunID: runID}
			}),
		)

	case AnimStopMsg:
		return m, m.waitForAnim()

	case scanAnimDoneMsg:
		// Only the active run's timer may end the animation. A superseded
		// run's timer firing here would clear the scanning flag under the
		// newer run and flush its result before its own deadline.
		if m.coord != nil && msg.RunID == m.coord.ActiveRunID() {
			m.coord.AnimationComplete()
		}
		return m, nil

	case scanRequestErrMsg:
		if msg.Err != nil {
			m.setStatus(msg.Err.Error(), true)
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		if m.state.IsScanning {
			return m, cmd
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

// applyState installs a fresh store snapshot and reconciles the widgets
// that derive from it.
func (m *Model) applyState(s store.State) {
	prev := m.state
	m.state = s

	// View switches move focus with them.
	if prev.ViewMode != s.ViewMode {
		if s.ViewMode == store.ViewChecklist {
			m.focused = focusChecklist
		} else if m.focused == focusChecklist {
			m.focused = focusList
		}
	}

	m.syncList()

	if s.SelectedIssue != prev.SelectedIssue {
		m.refreshDetail()
	}
	if s.CurrentChecklist != prev.CurrentChecklist {
		m.clampChecklistCursor()
	}
	if s.IsScanning && !prev.IsScanning {
		m.setStatus("", false)
	}
}

// visibleIssues applies the active filters to the current scan.
func (m *Model) visibleIssues() []model.Issue {
	if m.state.CurrentScan == nil {
		return nil
	}
	return model.FilterIssues(m.state.CurrentScan.Issues, m.state.Filters)
}

// syncList rebuilds the list items from the current state, keeping the
// cursor on the same issue when it survives the rebuild.
func (m *Model) syncList() {
	issues := m.visibleIssues()

	var keepID string
	if sel, ok := m.list.SelectedItem().(IssueItem); ok {
		keepID = sel.Issue.ID
	}

	items := make([]list.Item, len(issues))
	newIndex := 0
	for i, issue := range issues {
		items[i] = IssueItem{Issue: issue}
		if issue.ID == keepID {
			newIndex = i
		}
	}
	m.list.SetItems(items)
	if len(items) > 0 {
		m.list.Select(newIndex)
	}
}

func (m *Model) resize() {
	headerHeight := 2
	footerHeight := 2
	bodyHeight := m.height - headerHeight - footerHeight
	if bodyHeight < 3 {
		bodyHeight = 3
	}

	if m.splitView() {
		listWidth := m.width * 55 / 100
		m.detailWidth = m.width - listWidth - 2
		m.list.SetSize(listWidth, bodyHeight)
		m.detail.Width = m.detailWidth
		m.detail.Height = bodyHeight
	} else {
		m.detailWidth = m.width - 2
		m.list.SetSize(m.width, bodyHeight)
		m.detail.Width = m.detailWidth
		m.detail.Height = bodyHeight
	}

	r, err := newGlamourRenderer(m.glamourStyle, m.detailWidth)
	if err == nil {
		m.renderer = r
	}
	m.refreshDetail()
}

// splitView reports whether the terminal is wide enough for a side-by-side
// list and detail pane.
func (m *Model) splitView() bool {
	return m.width >= SplitViewThreshold && m.width-m.width*55/100 >= MinDetailPaneWidth
}

func (m *Model) refreshDetail() {
	issue := m.state.SelectedIssue
	if issue == nil {
		m.detail.SetContent("")
		return
	}
	md := issueMarkdown(*issue)
	if m.renderer == nil {
		m.detail.SetContent(md)
		return
	}
	out, err := m.renderer.Render(md)
	if err != nil {
		m.detail.SetContent(md)
		return
	}
	m.detail.SetContent(out)
	m.detail.GotoTop()
}

func (m *Model) setStatus(msg string, isError bool) {
	m.statusMsg = msg
	m.statusIsError = isError
}

// selectedIssue returns the issue under the list cursor.
func (m *Model) selectedIssue() (model.Issue, bool) {
	item, ok := m.list.SelectedItem().(IssueItem)
	if !ok {
		return model.Issue{}, false
	}
	return item.Issue, true
}

// copyIssueToClipboard copies the issue under the cursor as plain text.
func (m *Model) copyIssueToClipboard() {
	issue, ok := m.selectedIssue()
	if !ok {
		m.setStatus("nothing to copy", true)
		return
	}
	if err := clipboard.WriteAll(issueClipboardText(issue)); err != nil {
		m.setStatus(fmt.Sprintf("clipboard: %v", err), true)
		return
	}
	m.setStatus(fmt.Sprintf("copied %s", issue.RuleID), false)
}

// highlightIssue asks the page to mark the issue's element. Best effort:
// with no coordinator (or no reachable tab) the panel still works, the page
// just shows nothing.
func (m *Model) highlightIssue(issue model.Issue) {
	if m.coord == nil {
		return
	}
	if err := m.coord.HighlightIssue(issue.ID); err != nil {
		debug.Log("ui: highlight %s: %v", issue.ID, err)
	}
}

// clearHighlights removes the page markers this panel placed.
func (m *Model) clearHighlights() {
	if m.coord == nil {
		return
	}
	if err := m.coord.ClearHighlights(); err != nil {
		debug.Log("ui: clear highlights: %v", err)
	}
}

// togglePicker flips the on-page element picker. The page disarms the picker
// after one selection, so the panel-side flag is a hint, not the truth.
func (m *Model) togglePicker() {
	if m.coord == nil {
		m.setStatus("no scan coordinator attached", true)
		return
	}
	m.pickerOn = !m.pickerOn
	if err := m.coord.TogglePicker(m.pickerOn); err != nil {
		m.pickerOn = false
		m.setStatus(fmt.Sprintf("picker: %v", err), true)
		return
	}
	if m.pickerOn {
		m.setStatus("picker on: select an element on the page", false)
	} else {
		m.setStatus("picker off", false)
	}
}

// requestScanCmd issues a scan request off the UI goroutine.
func (m *Model) requestScanCmd(refresh bool) tea.Cmd {
	coord := m.coord
	return func() tea.Msg {
		if coord == nil {
			return scanRequestErrMsg{Err: fmt.Errorf("no scan coordinator attached")}
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		var err error
		if refresh {
			err = coord.RequestRefresh(ctx)
		} else {
			err = coord.RequestScan(ctx)
		}
		if err != nil {
			return scanRequestErrMsg{Err: err}
		}
		return nil
	}
}

func (m *Model) clampChecklistCursor() {
	rows := flattenChecklist(m.state.CurrentChecklist)
	if m.checklistCursor >= len(rows) {
		m.checklistCursor = len(rows) - 1
	}
	if m.checklistCursor < 0 {
		m.checklistCursor = 0
	}
}

// persistScanStatus writes a triage change through to storage. Best effort:
// a failed write surfaces in the status bar but never blocks the dispatch.
func (m *Model) persistScanStatus(issueID string, status model.Status, notes string) {
	if m.history == nil || m.state.CurrentURL == "" {
		return
	}
	if err := m.history.UpdateIssueStatus(m.state.CurrentURL, issueID, status, notes); err != nil {
		m.setStatus(fmt.Sprintf("saving status: %v", err), true)
	}
}

// persistChecklist writes the current checklist through to storage.
func (m *Model) persistChecklist() {
	if m.history == nil {
		return
	}
	cl := m.store.State().CurrentChecklist
	if cl == nil {
		return
	}
	if err := m.history.SaveChecklist(*cl); err != nil {
		m.setStatus(fmt.Sprintf("saving checklist: %v", err), true)
	}
}
