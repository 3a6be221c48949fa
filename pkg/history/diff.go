// Package history compares scans of the same page over time: which issues
// appeared, which were fixed, and how the totals are trending.
package history

import (
	"github.com/vanderheijden86/a11ydeck/pkg/model"
)

// Diff is the outcome of comparing two scans of the same page. Issues are
// matched by fingerprint (rule + selector), not by id: ids are regenerated
// every scan.
type Diff struct {
	New      []model.Issue `json:"newIssues"`
	Resolved []model.Issue `json:"resolvedIssues"`
	Existing []model.Issue `json:"existingIssues"`
	Summary  DiffSummary   `json:"summary"`
}

// DiffSummary carries the headline counts of a diff.
type DiffSummary struct {
	NewCount      int `json:"newCount"`
	ResolvedCount int `json:"resolvedCount"`
	ExistingCount int `json:"existingCount"`
	NetChange     int `json:"netChange"`
}

// Compare diffs a newer scan against an older one. Issues present only in
// current are new, only in previous are resolved, and in both are existing.
// Existing issues keep the current scan's copy so fresh selectors and
// snippets win.
func Compare(previous, current model.ScanResult) Diff {
	prior := make(map[string]model.Issue, len(previous.Issues))
	for _, issue := range previous.Issues {
		prior[issue.Fingerprint()] = issue
	}

	var diff Diff
	seen := make(map[string]bool, len(current.Issues))
	for _, issue := range current.Issues {
		fp := issue.Fingerprint()
		seen[fp] = true
		if _, ok := prior[fp]; ok {
			diff.Existing = append(diff.Existing, issue)
		} else {
			diff.New = append(diff.New, issue)
		}
	}
	for _, issue := range previous.Issues {
		if !seen[issue.Fingerprint()] {
			diff.Resolved = append(diff.Resolved, issue)
		}
	}

	diff.Summary = DiffSummary{
		NewCount:      len(diff.New),
		ResolvedCount: len(diff.Resolved),
		ExistingCount: len(diff.Existing),
		NetChange:     len(diff.New) - len(diff.Resolved),
	}
	return diff
}

// Improved reports whether the page got strictly better: at least one issue
// resolved and none introduced.
func (d Diff) Improved() bool {
	return d.Summary.ResolvedCount > 0 && d.Summary.NewCount == 0
}
