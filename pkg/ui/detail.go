package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/vanderheijden86/a11ydeck/pkg/model"
)

// newGlamourRenderer builds the markdown renderer for the detail pane.
// theme is "dark", "light", or "auto"; anything else falls back to auto so
// a typo in the config never blanks the pane.
func newGlamourRenderer(theme string, width int) (*glamour.TermRenderer, error) {
	style := glamour.WithAutoStyle()
	switch theme {
	case "dark", "light":
		style = glamour.WithStandardStyle(theme)
	}
	return glamour.NewTermRenderer(
		style,
		glamour.WithWordWrap(width),
	)
}

// issueMarkdown renders one issue as a markdown document for the detail
// pane. Kept separate from glamour so tests can assert on content without
// a terminal renderer.
func issueMarkdown(issue model.Issue) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "# %s\n\n", issue.Title)
	fmt.Fprintf(&sb, "**Rule:** `%s` · **Severity:** %s · **Confidence:** %s\n\n",
		issue.RuleID, issue.Impact, issue.Confidence)

	if issue.WCAG.Level != "" {
		fmt.Fprintf(&sb, "**WCAG %s**", issue.WCAG.Level)
		if len(issue.WCAG.Criteria) > 0 {
			fmt.Fprintf(&sb, " — %s", strings.Join(issue.WCAG.Criteria, ", "))
		}
		sb.WriteString("\n\n")
	}

	if issue.Description != "" {
		fmt.Fprintf(&sb, "%s\n\n", issue.Description)
	}

	sb.WriteString("## Element\n\n")
	fmt.Fprintf(&sb, "Selector: `%s`\n\n", issue.Node.Selector)
	if issue.Node.Snippet != "" {
		fmt.Fprintf(&sb, "```html\n%s\n```\n\n", issue.Node.Snippet)
	}

	if issue.Context.Role != "" || issue.Context.AccessibleName != "" || issue.Context.ContrastRatio > 0 {
		sb.WriteString("## Context\n\n")
		if issue.Context.Role != "" {
			fmt.Fprintf(&sb, "- Role: `%s`\n", issue.Context.Role)
		}
		if issue.Context.AccessibleName != "" {
			fmt.Fprintf(&sb, "- Accessible name: %q\n", issue.Context.AccessibleName)
		}
		if issue.Context.ContrastRatio > 0 {
			fmt.Fprintf(&sb, "- Contrast ratio: %.2f:1\n", issue.Context.ContrastRatio)
		}
		sb.WriteString("\n")
	}

	if len(issue.Recommendations) > 0 {
		sb.WriteString("## Recommendations\n\n")
		for _, rec := range issue.Recommendations {
			fmt.Fprintf(&sb, "### %s (%s, %s priority)\n\n", rec.Title, rec.Role, rec.Priority)
			if rec.Description != "" {
				fmt.Fprintf(&sb, "%s\n\n", rec.Description)
			}
			if rec.CodeExample != "" {
				fmt.Fprintf(&sb, "```html\n%s\n```\n\n", rec.CodeExample)
			}
		}
	}

	if issue.Notes != "" {
		fmt.Fprintf(&sb, "## Notes\n\n%s\n", issue.Notes)
	}

	return sb.String()
}

// issueClipboardText is the plain-text form used for copy-to-clipboard.
func issueClipboardText(issue model.Issue) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s [%s/%s]\n", issue.Title, issue.Impact, issue.RuleID)
	if issue.WCAG.Level != "" {
		fmt.Fprintf(&sb, "WCAG %s: %s\n", issue.WCAG.Level, strings.Join(issue.WCAG.Criteria, ", "))
	}
	fmt.Fprintf(&sb, "Selector: %s\n", issue.Node.Selector)
	if issue.Description != "" {
		fmt.Fprintf(&sb, "\n%s\n", issue.Description)
	}
	return sb.String()
}
