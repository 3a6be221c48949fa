package model

import (
	"testing"

	"pgregory.net/rapid"
)

func sampleIssue() Issue {
	return Issue{
		ID:          "iss-1",
		Source:      SourceEngine,
		RuleID:      "image-alt",
		Title:       "Images must have alternate text",
		Description: "Ensures <img> elements have alternate text",
		Impact:      ImpactCritical,
		Confidence:  ConfidenceHigh,
		WCAG:        WCAG{Level: LevelA, Criteria: []string{"111"}},
		Node:        Node{Selector: "img.hero", Snippet: "<img class=\"hero\">"},
		Status:      StatusOpen,
	}
}

func TestMatchesFiltersEmptyMatchesEverything(t *testing.T) {
	issue := sampleIssue()
	if !MatchesFilters(issue, EmptyFilters()) {
		t.Fatal("empty filters must match every issue")
	}
}

// Empty constraint means unrestricted regardless of the issue's field values.
func TestMatchesFiltersEmptyProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		issue := sampleIssue()
		issue.Impact = Impacts[rapid.IntRange(0, len(Impacts)-1).Draw(t, "impact")]
		issue.WCAG.Level = WCAGLevels[rapid.IntRange(0, len(WCAGLevels)-1).Draw(t, "level")]
		issue.Status = Statuses[rapid.IntRange(0, len(Statuses)-1).Draw(t, "status")]
		issue.Title = rapid.StringMatching(`[a-zA-Z ]{0,40}`).Draw(t, "title")
		if !MatchesFilters(issue, EmptyFilters()) {
			t.Fatalf("empty filters rejected issue %+v", issue)
		}
	})
}

func TestMatchesFiltersDimensions(t *testing.T) {
	issue := sampleIssue()

	tests := []struct {
		name    string
		filters Filters
		want    bool
	}{
		{"severity match", Filters{Severity: []Impact{ImpactCritical}}, true},
		{"severity miss", Filters{Severity: []Impact{ImpactMinor}}, false},
		{"wcag match", Filters{WCAG: []WCAGLevel{LevelA}}, true},
		{"wcag miss", Filters{WCAG: []WCAGLevel{LevelAAA}}, false},
		{"status match", Filters{Status: []Status{StatusOpen}}, true},
		{"status miss", Filters{Status: []Status{StatusFixed}}, false},
		{"search in title", Filters{Search: "alternate"}, true},
		{"search in rule id", Filters{Search: "image-alt"}, true},
		{"search case insensitive", Filters{Search: "IMAGES"}, true},
		{"search miss", Filters{Search: "contrast"}, false},
		{"combined, one misses", Filters{Severity: []Impact{ImpactCritical}, Status: []Status{StatusFixed}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MatchesFilters(issue, tt.filters); got != tt.want {
				t.Errorf("MatchesFilters() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFilterIssues(t *testing.T) {
	critical := sampleIssue()
	minor := sampleIssue()
	minor.ID = "iss-2"
	minor.Impact = ImpactMinor

	got := FilterIssues([]Issue{critical, minor}, Filters{Severity: []Impact{ImpactMinor}})
	if len(got) != 1 || got[0].ID != "iss-2" {
		t.Fatalf("expected only iss-2, got %v", got)
	}
}

func TestActiveCount(t *testing.T) {
	f := Filters{
		Severity: []Impact{ImpactCritical, ImpactSerious},
		Status:   []Status{StatusOpen},
		Search:   "img",
	}
	if got := f.ActiveCount(); got != 4 {
		t.Errorf("ActiveCount() = %d, want 4", got)
	}
	if !EmptyFilters().IsEmpty() {
		t.Error("EmptyFilters should report IsEmpty")
	}
}
