package ui

import (
	"fmt"
	"strings"

	"github.com/vanderheijden86/a11ydeck/pkg/model"
)

// IssueItem wraps model.Issue to implement list.Item
type IssueItem struct {
	Issue model.Issue
}

func (i IssueItem) Title() string {
	return i.Issue.Title
}

func (i IssueItem) Description() string {
	return fmt.Sprintf("%s %s • %s", i.Issue.RuleID, i.Issue.Impact, i.Issue.Node.Selector)
}

func (i IssueItem) FilterValue() string {
	// Enhanced filter value including rule, selector, and WCAG criteria
	var sb strings.Builder
	sb.WriteString(i.Issue.Title)
	sb.WriteString(" ")
	sb.WriteString(i.Issue.RuleID)
	sb.WriteString(" ")
	sb.WriteString(string(i.Issue.Impact))
	sb.WriteString(" ")
	sb.WriteString(string(i.Issue.Status))

	if i.Issue.Node.Selector != "" {
		sb.WriteString(" ")
		sb.WriteString(i.Issue.Node.Selector)
	}

	if len(i.Issue.WCAG.Criteria) > 0 {
		sb.WriteString(" ")
		sb.WriteString(strings.Join(i.Issue.WCAG.Criteria, " "))
	}

	if len(i.Issue.Tags) > 0 {
		sb.WriteString(" ")
		sb.WriteString(strings.Join(i.Issue.Tags, " "))
	}

	return sb.String()
}
