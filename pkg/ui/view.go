package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/a11ydeck/pkg/metrics"
	"github.com/vanderheijden86/a11ydeck/pkg/model"
	"github.com/vanderheijden86/a11ydeck/pkg/store"
)

func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}
	defer metrics.Timer(metrics.UIRender)()

	var sb strings.Builder
	sb.WriteString(m.headerView())
	sb.WriteString("\n")

	switch {
	case m.focused == focusHelp:
		sb.WriteString(m.helpView())
	case m.state.ViewMode == store.ViewChecklist:
		sb.WriteString(renderChecklist(m.theme, m.state.CurrentChecklist, m.checklistCursor, m.width))
	default:
		sb.WriteString(m.issuesView())
	}

	sb.WriteString("\n")
	sb.WriteString(m.footerView())
	return sb.String()
}

func (m Model) headerView() string {
	t := m.theme

	title := t.Header.Render("a11ydeck")

	var location string
	if m.state.CurrentURL != "" {
		location = t.SecondaryText.Render(truncate(shortURL(m.state.CurrentURL), m.width/2))
	} else {
		location = t.MutedText.Render("no page bound")
	}

	var meta string
	switch {
	case m.state.IsScanning:
		meta = m.spin.View() + t.InfoText.Render(" scanning...")
	case m.state.Error != "":
		meta = t.ErrorText.Render(truncate(m.state.Error, m.width/3))
	case m.state.CurrentScan != nil:
		scan := m.state.CurrentScan
		visible := len(m.visibleIssues())
		count := fmt.Sprintf("%d issues", scan.Summary.Total)
		if visible != scan.Summary.Total {
			count = fmt.Sprintf("%d/%d issues", visible, scan.Summary.Total)
		}
		meta = t.SecondaryText.Render(fmt.Sprintf("%s · %s", count, FormatTimeRel(scan.Timestamp)))
	case m.state.HasScannedOnce:
		meta = t.MutedText.Render("no results")
	default:
		meta = t.MutedText.Render("press 's' to scan")
	}

	left := title + " " + location
	gap := m.width - lipgloss.Width(left) - lipgloss.Width(meta)
	if gap < 1 {
		gap = 1
	}
	return left + strings.Repeat(" ", gap) + meta + "\n" + RenderDivider(m.width)
}

func (m Model) issuesView() string {
	if m.focused == focusStatusPicker {
		return m.statusPickerView()
	}

	if m.state.CurrentScan == nil {
		if m.state.IsScanning {
			return m.spin.View() + " Auditing page accessibility..."
		}
		return m.theme.MutedText.Render("No scan yet. Press 's' to audit the current page.")
	}

	if len(m.list.Items()) == 0 {
		if m.state.Filters.IsEmpty() {
			return m.theme.SuccessText.Render("No accessibility issues found. 🎉")
		}
		return m.theme.MutedText.Render("No issues match the active filters. Press 'x' to clear them.")
	}

	if m.splitView() {
		listPane := m.list.View()
		detailPane := m.detailPaneView()
		return lipgloss.JoinHorizontal(lipgloss.Top, listPane, " ", detailPane)
	}

	if m.focused == focusDetail && m.state.SelectedIssue != nil {
		return m.detail.View()
	}
	return m.list.View()
}

func (m Model) detailPaneView() string {
	if m.state.SelectedIssue == nil {
		style := PanelStyle
		if m.focused == focusDetail {
			style = FocusedPanelStyle
		}
		return style.Width(m.detailWidth).Render(
			m.theme.MutedText.Render("Select an issue (enter) to see details."))
	}
	style := PanelStyle
	if m.focused == focusDetail {
		style = FocusedPanelStyle
	}
	return style.Width(m.detailWidth).Render(m.detail.View())
}

func (m Model) statusPickerView() string {
	t := m.theme

	issue, ok := m.selectedIssue()
	if m.state.SelectedIssue != nil {
		issue, ok = *m.state.SelectedIssue, true
	}
	if !ok {
		return t.MutedText.Render("No issue selected.")
	}

	var sb strings.Builder
	sb.WriteString(t.PrimaryBold.Render(fmt.Sprintf("Set status for %s", issue.RuleID)))
	sb.WriteString("\n\n")
	for i, status := range model.Statuses {
		line := fmt.Sprintf("%s %s", RenderStatusBadge(status), status)
		if i == m.statusCursor {
			sb.WriteString(t.PrimaryBold.Render("▸ "))
			sb.WriteString(line)
		} else {
			sb.WriteString("  ")
			sb.WriteString(line)
		}
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
	sb.WriteString(t.MutedText.Render("enter apply · esc cancel"))

	return FocusedPanelStyle.Padding(1, 2).Render(sb.String())
}

func (m Model) helpView() string {
	t := m.theme

	rows := [][2]string{
		{"s", "scan current page"},
		{"r", "refresh (rescan)"},
		{"tab", "toggle issues / checklist view"},
		{"enter", "open issue detail (highlights it on the page)"},
		{"p", "toggle the element picker on the page"},
		{"t", "set triage status"},
		{"c", "copy issue to clipboard"},
		{"/", "search"},
		{"1-4", "filter by severity (critical..minor)"},
		{"w", "cycle WCAG level filter"},
		{"o", "open issues only"},
		{"x", "clear filters"},
		{"n", "start manual checklist"},
		{"space", "cycle checklist item (in checklist view)"},
		{"?", "toggle this help"},
		{"q", "quit"},
	}

	var sb strings.Builder
	sb.WriteString(t.PrimaryBold.Render("Keyboard shortcuts"))
	sb.WriteString("\n\n")
	for _, row := range rows {
		sb.WriteString("  ")
		sb.WriteString(t.InfoText.Render(padRight(row[0], 7)))
		sb.WriteString(row[1])
		sb.WriteString("\n")
	}
	return sb.String()
}

func (m Model) footerView() string {
	t := m.theme

	if m.focused == focusSearch {
		return RenderDivider(m.width) + "\n" + t.InfoText.Render("search: ") + m.search.View()
	}

	var status string
	if m.statusMsg != "" {
		if m.statusIsError {
			status = t.ErrorText.Render(m.statusMsg)
		} else {
			status = t.SuccessText.Render(m.statusMsg)
		}
	}

	var hints string
	if f := m.state.Filters; !f.IsEmpty() {
		hints = t.InfoText.Render(fmt.Sprintf("%d filters active · x to clear", f.ActiveCount()))
	} else {
		hints = t.MutedText.Render("s scan · enter detail · tab checklist · ? help")
	}

	gap := m.width - lipgloss.Width(status) - lipgloss.Width(hints)
	if gap < 1 {
		gap = 1
	}
	return RenderDivider(m.width) + "\n" + status + strings.Repeat(" ", gap) + hints
}
