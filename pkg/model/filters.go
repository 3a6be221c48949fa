package model

import "strings"

// Filters narrows the issue list shown in the panel. An empty set or search
// string means "no restriction": it matches everything, never nothing.
type Filters struct {
	Severity []Impact    `json:"severity"`
	WCAG     []WCAGLevel `json:"wcag"`
	Status   []Status    `json:"status"`
	Search   string      `json:"search"`
}

// EmptyFilters returns the unrestricted filter set.
func EmptyFilters() Filters {
	return Filters{
		Severity: []Impact{},
		WCAG:     []WCAGLevel{},
		Status:   []Status{},
	}
}

// IsEmpty reports whether no filter dimension is active.
func (f Filters) IsEmpty() bool {
	return len(f.Severity) == 0 && len(f.WCAG) == 0 && len(f.Status) == 0 && f.Search == ""
}

// ActiveCount counts active filter dimensions (each selected value counts,
// search counts once).
func (f Filters) ActiveCount() int {
	count := len(f.Severity) + len(f.WCAG) + len(f.Status)
	if f.Search != "" {
		count++
	}
	return count
}

// MatchesFilters reports whether an issue passes every active dimension.
func MatchesFilters(issue Issue, f Filters) bool {
	if len(f.Severity) > 0 && !containsImpact(f.Severity, issue.Impact) {
		return false
	}
	if len(f.WCAG) > 0 && !containsLevel(f.WCAG, issue.WCAG.Level) {
		return false
	}
	if len(f.Status) > 0 && !containsStatus(f.Status, issue.Status) {
		return false
	}
	if f.Search != "" {
		search := strings.ToLower(f.Search)
		return strings.Contains(strings.ToLower(issue.Title), search) ||
			strings.Contains(strings.ToLower(issue.Description), search) ||
			strings.Contains(strings.ToLower(issue.RuleID), search)
	}
	return true
}

// FilterIssues returns the issues that pass the given filters.
func FilterIssues(issues []Issue, f Filters) []Issue {
	out := make([]Issue, 0, len(issues))
	for _, issue := range issues {
		if MatchesFilters(issue, f) {
			out = append(out, issue)
		}
	}
	return out
}

func containsImpact(list []Impact, v Impact) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func containsLevel(list []WCAGLevel, v WCAGLevel) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func containsStatus(list []Status, v Status) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
