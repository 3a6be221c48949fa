package model

import (
	"sort"
	"time"
)

// Summary aggregates a scan's confirmed issues by severity and WCAG level.
// It is computed once at result creation and never incrementally updated;
// triage mutations change status only, never membership.
type Summary struct {
	Total      int               `json:"total"`
	BySeverity map[Impact]int    `json:"bySeverity"`
	ByWCAG     map[WCAGLevel]int `json:"byWCAG"`
}

// ScanConfig records which engine produced a result.
type ScanConfig struct {
	Engine  string   `json:"engine"`
	Version string   `json:"version,omitempty"`
	Rules   []string `json:"rules,omitempty"`
}

// ScanResult is the complete output of one scan of one page. Issues carry
// confirmed violations; IncompleteChecks carry findings that need manual
// verification and are excluded from the severity summary.
type ScanResult struct {
	URL              string      `json:"url"`
	Timestamp        time.Time   `json:"timestamp"`
	Issues           []Issue     `json:"issues"`
	IncompleteChecks []Issue     `json:"incompleteChecks,omitempty"`
	Summary          Summary     `json:"summary"`
	Config           *ScanConfig `json:"scanConfig,omitempty"`
}

// NewScanResult assembles a result from normalized findings, sorting issues
// most severe first and computing the summary over confirmed issues only.
func NewScanResult(url string, issues, incomplete []Issue, cfg *ScanConfig) ScanResult {
	sorted := make([]Issue, len(issues))
	copy(sorted, issues)
	sort.SliceStable(sorted, func(a, b int) bool {
		return sorted[a].Impact.Rank() < sorted[b].Impact.Rank()
	})

	return ScanResult{
		URL:              url,
		Timestamp:        time.Now(),
		Issues:           sorted,
		IncompleteChecks: incomplete,
		Summary:          Summarize(sorted),
		Config:           cfg,
	}
}

// Summarize computes the pure aggregation of a set of issues. ScanResult's
// summary must always equal Summarize over its issues.
func Summarize(issues []Issue) Summary {
	s := Summary{
		Total:      len(issues),
		BySeverity: make(map[Impact]int, len(Impacts)),
		ByWCAG:     make(map[WCAGLevel]int, len(WCAGLevels)),
	}
	for _, impact := range Impacts {
		s.BySeverity[impact] = 0
	}
	for _, level := range WCAGLevels {
		s.ByWCAG[level] = 0
	}
	for _, issue := range issues {
		s.BySeverity[issue.Impact]++
		s.ByWCAG[issue.WCAG.Level]++
	}
	return s
}

// FindIssue returns the issue with the given id, or false if absent.
func (r ScanResult) FindIssue(id string) (Issue, bool) {
	for _, issue := range r.Issues {
		if issue.ID == id {
			return issue, true
		}
	}
	return Issue{}, false
}
