package ui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/bubbles/list"

	"github.com/vanderheijden86/a11ydeck/pkg/model"
)

func renderRow(t *testing.T, issue model.Issue, width int, selected bool) string {
	t.Helper()

	d := IssueDelegate{Theme: TestTheme()}
	items := []list.Item{IssueItem{Issue: issue}}
	l := list.New(items, d, width, 20)
	if selected {
		l.Select(0)
	}

	var sb strings.Builder
	d.Render(&sb, l, 0, items[0])
	return sb.String()
}

func TestDelegateRenderShowsRuleAndTitle(t *testing.T) {
	row := renderRow(t, testIssue("i1", "image-alt", model.ImpactCritical), 120, true)

	if !strings.Contains(row, "image-alt") {
		t.Errorf("row missing rule id: %q", row)
	}
	if !strings.Contains(row, "CRIT") {
		t.Errorf("row missing severity badge: %q", row)
	}
	if !strings.Contains(row, "Image missing alternative text") {
		t.Errorf("row missing title: %q", row)
	}
}

func TestDelegateRenderSelectorOnWideRows(t *testing.T) {
	row := renderRow(t, testIssue("i1", "image-alt", model.ImpactMinor), 120, false)
	if !strings.Contains(row, "img.hero") {
		t.Errorf("wide row should show selector: %q", row)
	}
}

func TestDelegateRenderSkipsForeignItems(t *testing.T) {
	d := IssueDelegate{Theme: TestTheme()}
	l := list.New(nil, d, 80, 20)

	var sb strings.Builder
	d.Render(&sb, l, 0, badItem{})
	if sb.Len() != 0 {
		t.Errorf("foreign item should render nothing, got %q", sb.String())
	}
}

func TestDelegateGeometry(t *testing.T) {
	d := IssueDelegate{Theme: TestTheme()}
	if d.Height() != 1 {
		t.Errorf("Height = %d, want 1", d.Height())
	}
	if d.Spacing() != 0 {
		t.Errorf("Spacing = %d, want 0", d.Spacing())
	}
}
