package ui

import (
	"strings"
	"testing"

	"github.com/vanderheijden86/a11ydeck/pkg/model"
)

func TestIssueMarkdownSections(t *testing.T) {
	issue := testIssue("i1", "image-alt", model.ImpactCritical)
	issue.Context = model.Context{
		Role:           "img",
		AccessibleName: "",
		ContrastRatio:  0,
	}
	issue.Recommendations = []model.Recommendation{
		{
			Role:        model.RoleDeveloper,
			Title:       "Add an alt attribute",
			Description: "Describe what the image conveys.",
			CodeExample: `<img src="hero.png" alt="Team photo">`,
			Priority:    model.PriorityHigh,
		},
	}

	md := issueMarkdown(issue)

	for _, want := range []string{
		"# Image missing alternative text",
		"`image-alt`",
		"**WCAG A**",
		"1.1.1",
		"## Element",
		"`img.hero`",
		"```html",
		"## Recommendations",
		"Add an alt attribute",
		"developer",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q:\n%s", want, md)
		}
	}
}

func TestIssueMarkdownOmitsEmptySections(t *testing.T) {
	issue := testIssue("i1", "image-alt", model.ImpactMinor)
	issue.Recommendations = nil
	issue.Notes = ""

	md := issueMarkdown(issue)
	if strings.Contains(md, "## Recommendations") {
		t.Error("empty recommendations should be omitted")
	}
	if strings.Contains(md, "## Notes") {
		t.Error("empty notes should be omitted")
	}
	if strings.Contains(md, "## Context") {
		t.Error("empty context should be omitted")
	}
}

func TestIssueMarkdownIncludesNotes(t *testing.T) {
	issue := testIssue("i1", "image-alt", model.ImpactMinor)
	issue.Notes = "Deferred until the redesign lands."

	md := issueMarkdown(issue)
	if !strings.Contains(md, "## Notes") || !strings.Contains(md, "Deferred until the redesign lands.") {
		t.Errorf("markdown should carry notes:\n%s", md)
	}
}

func TestIssueClipboardText(t *testing.T) {
	issue := testIssue("i1", "image-alt", model.ImpactCritical)

	text := issueClipboardText(issue)
	for _, want := range []string{"image-alt", "critical", "WCAG A", "img.hero"} {
		if !strings.Contains(text, want) {
			t.Errorf("clipboard text missing %q: %q", want, text)
		}
	}
}

func TestNewGlamourRendererFallsBackOnBadTheme(t *testing.T) {
	r, err := newGlamourRenderer("definitely-not-a-style", 80)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r == nil {
		t.Fatal("expected a renderer")
	}
}
