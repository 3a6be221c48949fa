package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// IssueDelegate renders issue items in the list
type IssueDelegate struct {
	Theme Theme
}

func (d IssueDelegate) Height() int {
	return 1
}

func (d IssueDelegate) Spacing() int {
	return 0
}

func (d IssueDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd {
	return nil
}

func (d IssueDelegate) Render(w io.Writer, m list.Model, index int, listItem list.Item) {
	i, ok := listItem.(IssueItem)
	if !ok {
		return
	}

	t := d.Theme
	width := m.Width()
	if width <= 0 {
		width = 80
	}
	// Reduce width by 1 to prevent terminal wrapping on the exact edge
	width = width - 1

	isSelected := index == m.Index()

	// Layout: [sel] [sev-badge] [level-badge] [status-badge] [rule] [title...] [selector]
	sevBadge := RenderSeverityBadge(i.Issue.Impact)
	levelBadge := RenderLevelBadge(i.Issue.WCAG.Level)
	statusBadge := RenderStatusBadge(i.Issue.Status)

	ruleStr := i.Issue.RuleID
	ruleWidth := lipgloss.Width(ruleStr)
	if ruleWidth > 28 {
		ruleWidth = 28
		ruleStr = truncateRunesHelper(ruleStr, 28, "…")
	}

	// Right side: the offending selector, only when there is room for it
	rightWidth := 0
	var rightParts []string
	if width > 70 && i.Issue.Node.Selector != "" {
		sel := truncateRunesHelper(i.Issue.Node.Selector, 28, "…")
		rightParts = append(rightParts, t.MutedText.Render(sel))
		rightWidth += lipgloss.Width(sel) + 1
	}
	if width > 100 && len(i.Issue.WCAG.Criteria) > 0 {
		crit := truncateRunesHelper(strings.Join(i.Issue.WCAG.Criteria, ","), 16, "…")
		rightParts = append(rightParts, t.InfoText.Render(crit))
		rightWidth += lipgloss.Width(crit) + 1
	}

	leftFixedWidth := 2 + // selector
		lipgloss.Width(sevBadge) + 1 +
		lipgloss.Width(levelBadge) + 1 +
		lipgloss.Width(statusBadge) + 1 +
		ruleWidth + 1

	// Title gets everything in between
	titleWidth := width - leftFixedWidth - rightWidth - 2
	if titleWidth < 5 {
		titleWidth = 5
	}
	title := truncateRunesHelper(i.Issue.Title, titleWidth, "…")
	if cur := lipgloss.Width(title); cur < titleWidth {
		title = title + strings.Repeat(" ", titleWidth-cur)
	}

	var leftSide strings.Builder

	// Selection indicator with accent color
	if isSelected {
		leftSide.WriteString(t.PrimaryBold.Render("▸ "))
	} else {
		leftSide.WriteString("  ")
	}

	leftSide.WriteString(sevBadge)
	leftSide.WriteString(" ")
	leftSide.WriteString(levelBadge)
	leftSide.WriteString(" ")
	leftSide.WriteString(statusBadge)
	leftSide.WriteString(" ")

	ruleStyle := t.SecondaryText
	if isSelected {
		ruleStyle = ruleStyle.Bold(true)
	}
	leftSide.WriteString(ruleStyle.Render(padRight(ruleStr, ruleWidth)))
	leftSide.WriteString(" ")

	titleStyle := t.Renderer.NewStyle()
	if isSelected {
		titleStyle = titleStyle.Foreground(t.Primary).Bold(true)
	} else {
		titleStyle = titleStyle.Foreground(lipgloss.AdaptiveColor{Light: "#333333", Dark: "#E8E8E8"})
	}
	leftSide.WriteString(titleStyle.Render(title))

	rightSide := strings.Join(rightParts, " ")

	leftLen := lipgloss.Width(leftSide.String())
	rightLen := lipgloss.Width(rightSide)
	padding := width - leftLen - rightLen
	if padding < 0 {
		padding = 0
	}

	row := leftSide.String() + strings.Repeat(" ", padding) + rightSide

	rowStyle := t.Renderer.NewStyle().Width(width).MaxWidth(width)
	if isSelected {
		row = rowStyle.Background(t.Highlight).Render(row)
	} else {
		row = rowStyle.Render(row)
	}

	fmt.Fprint(w, row)
}
