package ui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vanderheijden86/a11ydeck/pkg/model"
	"github.com/vanderheijden86/a11ydeck/pkg/store"
)

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Ctrl+C always quits, regardless of focus.
	if msg.String() == "ctrl+c" {
		m.Close()
		return m, tea.Quit
	}

	switch m.focused {
	case focusSearch:
		return m.handleSearchKey(msg)
	case focusStatusPicker:
		return m.handleStatusPickerKey(msg)
	case focusChecklist:
		return m.handleChecklistKey(msg)
	case focusDetail:
		return m.handleDetailKey(msg)
	case focusHelp:
		m.focused = m.prevFocused
		return m, nil
	default:
		return m.handleListKey(msg)
	}
}

func (m Model) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		m.Close()
		return m, tea.Quit

	case "s":
		return m, m.requestScanCmd(false)

	case "r":
		return m, m.requestScanCmd(true)

	case "tab":
		m.store.Dispatch(store.SetViewMode{Mode: store.ViewChecklist})
		return m, nil

	case "/":
		m.prevFocused = m.focused
		m.focused = focusSearch
		m.search.SetValue(m.state.Filters.Search)
		m.search.Focus()
		return m, nil

	case "enter":
		issue, ok := m.selectedIssue()
		if !ok {
			return m, nil
		}
		m.store.Dispatch(store.SelectIssue{Issue: &issue})
		m.highlightIssue(issue)
		m.focused = focusDetail
		return m, nil

	case "p":
		m.togglePicker()
		return m, nil

	case "t":
		if _, ok := m.selectedIssue(); ok {
			m.prevFocused = m.focused
			m.focused = focusStatusPicker
			m.statusCursor = 0
		}
		return m, nil

	case "c":
		m.copyIssueToClipboard()
		return m, nil

	case "n":
		m.startChecklist()
		return m, nil

	case "1":
		m.toggleSeverity(model.ImpactCritical)
		return m, nil
	case "2":
		m.toggleSeverity(model.ImpactSerious)
		return m, nil
	case "3":
		m.toggleSeverity(model.ImpactModerate)
		return m, nil
	case "4":
		m.toggleSeverity(model.ImpactMinor)
		return m, nil

	case "w":
		m.cycleWCAGFilter()
		return m, nil

	case "o":
		m.toggleOpenOnly()
		return m, nil

	case "x":
		m.store.Dispatch(store.ClearFilters{})
		return m, nil

	case "?":
		m.prevFocused = m.focused
		m.focused = focusHelp
		return m, nil
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) handleDetailKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "q":
		m.store.Dispatch(store.SelectIssue{Issue: nil})
		m.clearHighlights()
		m.focused = focusList
		return m, nil

	case "t":
		m.prevFocused = m.focused
		m.focused = focusStatusPicker
		m.statusCursor = 0
		return m, nil

	case "c":
		m.copyIssueToClipboard()
		return m, nil
	}

	var cmd tea.Cmd
	m.detail, cmd = m.detail.Update(msg)
	return m, cmd
}

func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.search.Blur()
		m.focused = m.prevFocused
		return m, nil

	case "enter":
		m.search.Blur()
		m.focused = m.prevFocused
		return m, nil
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)

	// Search is live: every keystroke narrows the list immediately.
	val := m.search.Value()
	m.store.Dispatch(store.UpdateFilters{Search: &val})
	return m, cmd
}

func (m Model) handleStatusPickerKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.focused = m.prevFocused
		return m, nil

	case "up", "k":
		if m.statusCursor > 0 {
			m.statusCursor--
		}
		return m, nil

	case "down", "j":
		if m.statusCursor < len(model.Statuses)-1 {
			m.statusCursor++
		}
		return m, nil

	case "enter":
		issue, ok := m.selectedIssue()
		if m.state.SelectedIssue != nil {
			issue, ok = *m.state.SelectedIssue, true
		}
		if ok {
			status := model.Statuses[m.statusCursor]
			m.store.Dispatch(store.UpdateIssueStatus{
				IssueID: issue.ID,
				Status:  status,
				Notes:   issue.Notes,
			})
			m.persistScanStatus(issue.ID, status, issue.Notes)
			m.setStatus(fmt.Sprintf("%s → %s", issue.RuleID, status), false)
		}
		m.focused = m.prevFocused
		return m, nil
	}

	return m, nil
}

func (m Model) handleChecklistKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	rows := flattenChecklist(m.state.CurrentChecklist)

	switch msg.String() {
	case "q":
		m.Close()
		return m, tea.Quit

	case "tab", "esc":
		m.store.Dispatch(store.SetViewMode{Mode: store.ViewIssues})
		return m, nil

	case "up", "k":
		if m.checklistCursor > 0 {
			m.checklistCursor--
		}
		return m, nil

	case "down", "j":
		if m.checklistCursor < len(rows)-1 {
			m.checklistCursor++
		}
		return m, nil

	case "enter", " ", "space":
		if m.checklistCursor < len(rows) {
			row := rows[m.checklistCursor]
			m.store.Dispatch(store.UpdateChecklistItem{
				CategoryID: row.CategoryID,
				ItemID:     row.Item.ID,
				Status:     cycleCheckStatus(row.Item.Status),
				Notes:      row.Item.Notes,
			})
			m.persistChecklist()
		}
		return m, nil

	case "n":
		m.startChecklist()
		return m, nil

	case "R":
		m.store.Dispatch(store.ResetChecklist{})
		m.checklistCursor = 0
		return m, nil

	case "?":
		m.prevFocused = m.focused
		m.focused = focusHelp
		return m, nil
	}

	return m, nil
}

// startChecklist loads a fresh checklist for the current page.
func (m *Model) startChecklist() {
	url := m.state.CurrentURL
	if url == "" && m.state.CurrentScan != nil {
		url = m.state.CurrentScan.URL
	}
	m.store.Dispatch(store.LoadChecklist{Checklist: model.NewChecklist(url)})
	m.store.Dispatch(store.SetViewMode{Mode: store.ViewChecklist})
	m.checklistCursor = 0
	m.persistChecklist()
}

// toggleSeverity adds or removes one impact from the severity filter.
func (m *Model) toggleSeverity(impact model.Impact) {
	current := m.state.Filters.Severity
	next := make([]model.Impact, 0, len(current)+1)
	removed := false
	for _, imp := range current {
		if imp == impact {
			removed = true
			continue
		}
		next = append(next, imp)
	}
	if !removed {
		next = append(next, impact)
	}
	m.store.Dispatch(store.UpdateFilters{Severity: &next})
}

// cycleWCAGFilter steps the level filter: all → A → AA → AAA → all.
func (m *Model) cycleWCAGFilter() {
	current := m.state.Filters.WCAG
	var next []model.WCAGLevel
	switch {
	case len(current) == 0:
		next = []model.WCAGLevel{model.LevelA}
	case current[0] == model.LevelA:
		next = []model.WCAGLevel{model.LevelAA}
	case current[0] == model.LevelAA:
		next = []model.WCAGLevel{model.LevelAAA}
	default:
		next = []model.WCAGLevel{}
	}
	m.store.Dispatch(store.UpdateFilters{WCAG: &next})
}

// toggleOpenOnly flips between showing everything and open issues only.
func (m *Model) toggleOpenOnly() {
	current := m.state.Filters.Status
	var next []model.Status
	if len(current) == 0 {
		next = []model.Status{model.StatusOpen}
	} else {
		next = []model.Status{}
	}
	m.store.Dispatch(store.UpdateFilters{Status: &next})
}
