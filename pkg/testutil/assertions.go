package testutil

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/vanderheijden86/a11ydeck/pkg/model"
)

// AssertIssueCount verifies the expected number of issues.
func AssertIssueCount(t *testing.T, issues []model.Issue, expected int) {
	t.Helper()
	if len(issues) != expected {
		t.Errorf("expected %d issues, got %d", expected, len(issues))
	}
}

// AssertNoDuplicateIDs verifies all issue IDs are unique.
func AssertNoDuplicateIDs(t *testing.T, issues []model.Issue) {
	t.Helper()
	seen := make(map[string]bool)
	for _, issue := range issues {
		if seen[issue.ID] {
			t.Errorf("duplicate issue ID: %s", issue.ID)
		}
		seen[issue.ID] = true
	}
}

// AssertNoDuplicateFingerprints verifies no two issues share a rule+selector
// fingerprint. Duplicate fingerprints break cross-scan matching.
func AssertNoDuplicateFingerprints(t *testing.T, issues []model.Issue) {
	t.Helper()
	seen := make(map[string]string)
	for _, issue := range issues {
		fp := issue.Fingerprint()
		if other, ok := seen[fp]; ok {
			t.Errorf("issues %s and %s share fingerprint %q", other, issue.ID, fp)
		}
		seen[fp] = issue.ID
	}
}

// AssertAllValid verifies all issues pass validation.
func AssertAllValid(t *testing.T, issues []model.Issue) {
	t.Helper()
	for i, issue := range issues {
		if err := issue.Validate(); err != nil {
			t.Errorf("issue %d (%s) invalid: %v", i, issue.ID, err)
		}
	}
}

// AssertSortedBySeverity verifies issues are ordered most severe first.
func AssertSortedBySeverity(t *testing.T, issues []model.Issue) {
	t.Helper()
	for i := 1; i < len(issues); i++ {
		if issues[i-1].Impact.Rank() > issues[i].Impact.Rank() {
			t.Errorf("issues out of severity order at %d: %s (%s) before %s (%s)",
				i, issues[i-1].ID, issues[i-1].Impact, issues[i].ID, issues[i].Impact)
			return
		}
	}
}

// AssertSummaryConsistent verifies a result's summary equals the pure
// aggregation of its issues.
func AssertSummaryConsistent(t *testing.T, result model.ScanResult) {
	t.Helper()
	AssertJSONEqual(t, model.Summarize(result.Issues), result.Summary)
}

// AssertStatusCounts verifies the number of issues in each triage status.
// Statuses absent from want must have zero issues.
func AssertStatusCounts(t *testing.T, issues []model.Issue, want map[model.Status]int) {
	t.Helper()
	got := CountByStatus(issues)
	for _, status := range model.Statuses {
		if got[status] != want[status] {
			t.Errorf("expected %d %s issues, got %d", want[status], status, got[status])
		}
	}
}

// AssertJSONEqual compares two values after JSON round-tripping.
// Useful for comparing structs that may have different Go representations
// but equivalent JSON forms.
func AssertJSONEqual(t *testing.T, expected, actual interface{}) {
	t.Helper()

	expectedJSON, err := json.Marshal(expected)
	if err != nil {
		t.Fatalf("failed to marshal expected: %v", err)
	}

	actualJSON, err := json.Marshal(actual)
	if err != nil {
		t.Fatalf("failed to marshal actual: %v", err)
	}

	if string(expectedJSON) != string(actualJSON) {
		t.Errorf("JSON mismatch:\nexpected: %s\nactual:   %s", expectedJSON, actualJSON)
	}
}

// Issue lookup helpers

// FindIssue returns the issue with the given ID, or nil if not found.
func FindIssue(issues []model.Issue, id string) *model.Issue {
	for i := range issues {
		if issues[i].ID == id {
			return &issues[i]
		}
	}
	return nil
}

// FindByRule returns all issues produced by the given rule.
func FindByRule(issues []model.Issue, ruleID string) []model.Issue {
	var out []model.Issue
	for _, issue := range issues {
		if issue.RuleID == ruleID {
			out = append(out, issue)
		}
	}
	return out
}

// CountByStatus returns a map of status -> count.
func CountByStatus(issues []model.Issue) map[model.Status]int {
	counts := make(map[model.Status]int)
	for _, issue := range issues {
		counts[issue.Status]++
	}
	return counts
}

// CountByImpact returns a map of severity -> count.
func CountByImpact(issues []model.Issue) map[model.Impact]int {
	counts := make(map[model.Impact]int)
	for _, issue := range issues {
		counts[issue.Impact]++
	}
	return counts
}

// GetIDs returns a slice of all issue IDs.
func GetIDs(issues []model.Issue) []string {
	ids := make([]string, len(issues))
	for i, issue := range issues {
		ids[i] = issue.ID
	}
	return ids
}

// IssueID generates a standard test issue ID with the given index.
// Format: "test-{index}" for consistency across tests.
func IssueID(index int) string {
	return fmt.Sprintf("test-%d", index)
}
