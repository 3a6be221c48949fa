package scanner

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/vanderheijden86/a11ydeck/pkg/model"
)

type fakeEngine struct {
	report Report
	err    error
}

func (e *fakeEngine) Name() string    { return "fake" }
func (e *fakeEngine) Version() string { return "0.0.1" }
func (e *fakeEngine) Scan(context.Context, Page) (Report, error) {
	return e.report, e.err
}

func TestScanNormalizesViolations(t *testing.T) {
	engine := &fakeEngine{report: Report{
		Violations: []RuleResult{{
			RuleID:      "image-alt",
			Help:        "Images must have alternate text",
			Description: "Ensures <img> elements have alternate text",
			Impact:      model.ImpactCritical,
			Tags:        []string{"cat.text-alternatives", "wcag2a", "wcag111"},
			Nodes: []NodeResult{{
				Selector:       "img.hero",
				Snippet:        `<img src="hero.png">`,
				FailureSummary: "Fix any of the following: Element does not have an alt attribute",
				Attrs:          map[string]string{"src": "hero.png"},
			}},
		}},
		Incomplete: []RuleResult{{
			RuleID: "color-contrast",
			Help:   "Elements must meet minimum color contrast ratio thresholds",
			Impact: model.ImpactSerious,
			Tags:   []string{"wcag2aa", "wcag143"},
			Nodes:  []NodeResult{{Selector: "p.fine"}},
		}},
	}}

	result, err := New(engine).Scan(context.Background(), Page{URL: "https://example.com"})
	if err != nil {
		t.Fatalf("scan: %v", err)
	}

	if len(result.Issues) != 1 || len(result.IncompleteChecks) != 1 {
		t.Fatalf("issues=%d incomplete=%d", len(result.Issues), len(result.IncompleteChecks))
	}

	issue := result.Issues[0]
	if issue.Confidence != model.ConfidenceHigh {
		t.Fatalf("violation confidence = %q", issue.Confidence)
	}
	if issue.WCAG.Level != model.LevelA {
		t.Fatalf("wcag level = %q", issue.WCAG.Level)
	}
	if len(issue.WCAG.Criteria) != 1 || issue.WCAG.Criteria[0] != "111" {
		t.Fatalf("criteria = %v", issue.WCAG.Criteria)
	}
	if err := issue.Validate(); err != nil {
		t.Fatalf("normalized issue invalid: %v", err)
	}
	if issue.Status != model.StatusOpen {
		t.Fatalf("status = %q", issue.Status)
	}

	manual := result.IncompleteChecks[0]
	if manual.Confidence != model.ConfidenceMedium {
		t.Fatalf("incomplete confidence = %q", manual.Confidence)
	}
	if manual.Notes != "This issue requires manual verification" {
		t.Fatalf("incomplete notes = %q", manual.Notes)
	}

	// Summary counts confirmed issues only.
	if result.Summary.Total != 1 {
		t.Fatalf("summary total = %d", result.Summary.Total)
	}
	if result.Config == nil || result.Config.Engine != "fake" {
		t.Fatalf("config = %+v", result.Config)
	}
	if len(result.Config.Rules) != 1 || result.Config.Rules[0] != "image-alt" {
		t.Fatalf("config rules = %v", result.Config.Rules)
	}
}

func TestScanEngineFailure(t *testing.T) {
	boom := errors.New("engine crashed")
	_, err := New(&fakeEngine{err: boom}).Scan(context.Background(), Page{})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped engine error", err)
	}
}

func TestWCAGLevel(t *testing.T) {
	tests := []struct {
		tags []string
		want model.WCAGLevel
	}{
		{[]string{"wcag2a", "wcag111"}, model.LevelA},
		{[]string{"wcag2aa", "wcag143"}, model.LevelAA},
		{[]string{"wcag21aa"}, model.LevelAA},
		{[]string{"wcag22aa"}, model.LevelAA},
		{[]string{"wcag2aaa"}, model.LevelAAA},
		{[]string{"wcag21aaa", "wcag2aa"}, model.LevelAAA},
		{[]string{"best-practice"}, model.LevelA},
		{nil, model.LevelA},
	}
	for _, tt := range tests {
		if got := wcagLevel(tt.tags); got != tt.want {
			t.Errorf("wcagLevel(%v) = %q, want %q", tt.tags, got, tt.want)
		}
	}
}

func TestWCAGCriteria(t *testing.T) {
	got := wcagCriteria([]string{"cat.forms", "wcag2a", "wcag412", "wcag131", "section508"})
	want := []string{"412", "131"}
	if len(got) != len(want) {
		t.Fatalf("criteria = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("criteria = %v, want %v", got, want)
		}
	}
}

func TestRecommendations(t *testing.T) {
	rule := RuleResult{
		RuleID: "color-contrast",
		Help:   "Elements must meet minimum color contrast ratio thresholds",
	}
	node := NodeResult{FailureSummary: "Fix any of the following: insufficient contrast"}

	recs := recommendations(rule, node, model.ImpactSerious)
	if len(recs) != 3 {
		t.Fatalf("rec count = %d, want developer+qa+designer", len(recs))
	}
	if recs[0].Role != model.RoleDeveloper || recs[0].Priority != model.PriorityHigh {
		t.Fatalf("developer rec = %+v", recs[0])
	}
	if recs[1].Role != model.RoleQA || !strings.Contains(recs[1].Description, "screen reader") {
		t.Fatalf("qa rec = %+v", recs[1])
	}
	if recs[2].Role != model.RoleDesigner || !strings.Contains(recs[2].Description, "contrast") {
		t.Fatalf("designer rec = %+v", recs[2])
	}

	// Minor impact downgrades priority, and non-design rules skip the
	// designer entry.
	recs = recommendations(RuleResult{RuleID: "image-alt", Help: "h"}, NodeResult{}, model.ImpactMinor)
	if len(recs) != 2 {
		t.Fatalf("rec count = %d, want developer+qa", len(recs))
	}
	if recs[0].Priority != model.PriorityMedium {
		t.Fatalf("minor priority = %q", recs[0].Priority)
	}
	if recs[0].CodeExample != "" {
		t.Fatal("code example without a failure summary")
	}
}

func TestCodeExamples(t *testing.T) {
	tests := []struct {
		ruleID string
		node   NodeResult
		want   string
	}{
		{"image-alt", NodeResult{Attrs: map[string]string{"src": "a.png"}}, `src="a.png"`},
		{"link-name", NodeResult{Attrs: map[string]string{"href": "/x"}}, `href="/x"`},
		{"label", NodeResult{Attrs: map[string]string{"id": "email"}}, `for="email"`},
		{"label", NodeResult{}, `for="input-id"`},
		{"button-name", NodeResult{}, "aria-label"},
		{"unknown-rule", NodeResult{Snippet: "<div></div>"}, "<div></div>"},
	}
	for _, tt := range tests {
		got := codeExample(tt.ruleID, tt.node)
		if !strings.Contains(got, tt.want) {
			t.Errorf("codeExample(%q) = %q, want substring %q", tt.ruleID, got, tt.want)
		}
	}
}

func TestIssueIDsDistinct(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id := newIssueID()
		if seen[id] {
			t.Fatalf("duplicate issue id %q", id)
		}
		seen[id] = true
	}
}
