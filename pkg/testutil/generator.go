// Package testutil provides deterministic fixture generators and assertion
// helpers for accessibility scan data. All generators produce reproducible
// output for a given seed.
package testutil

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/vanderheijden86/a11ydeck/pkg/model"
)

// ruleSpec is one entry of the fixture rule catalog. The catalog mirrors the
// static engine's rule set so generated issues look like real findings.
type ruleSpec struct {
	RuleID      string
	Title       string
	Description string
	Impact      model.Impact
	Level       model.WCAGLevel
	Criteria    []string
	Selector    string
	Snippet     string
}

var ruleCatalog = []ruleSpec{
	{
		RuleID:      "image-alt",
		Title:       "Image missing alternative text",
		Description: "Informative images must have an alt attribute describing their content.",
		Impact:      model.ImpactCritical,
		Level:       model.LevelA,
		Criteria:    []string{"1.1.1"},
		Selector:    "img",
		Snippet:     `<img src="hero.png">`,
	},
	{
		RuleID:      "label",
		Title:       "Form input has no label",
		Description: "Every form control needs a programmatically associated label.",
		Impact:      model.ImpactCritical,
		Level:       model.LevelA,
		Criteria:    []string{"1.3.1", "4.1.2"},
		Selector:    "input",
		Snippet:     `<input type="text" name="email">`,
	},
	{
		RuleID:      "button-name",
		Title:       "Button has no accessible name",
		Description: "Buttons must have text content or an accessible name.",
		Impact:      model.ImpactCritical,
		Level:       model.LevelA,
		Criteria:    []string{"4.1.2"},
		Selector:    "button",
		Snippet:     `<button></button>`,
	},
	{
		RuleID:      "link-name",
		Title:       "Link has no discernible text",
		Description: "Links must have text content that describes their destination.",
		Impact:      model.ImpactSerious,
		Level:       model.LevelA,
		Criteria:    []string{"2.4.4", "4.1.2"},
		Selector:    "a",
		Snippet:     `<a href="/next"></a>`,
	},
	{
		RuleID:      "html-has-lang",
		Title:       "Document language not declared",
		Description: "The html element must carry a lang attribute.",
		Impact:      model.ImpactSerious,
		Level:       model.LevelA,
		Criteria:    []string{"3.1.1"},
		Selector:    "html",
		Snippet:     `<html>`,
	},
	{
		RuleID:      "document-title",
		Title:       "Document has no title",
		Description: "Every page needs a non-empty title element.",
		Impact:      model.ImpactSerious,
		Level:       model.LevelA,
		Criteria:    []string{"2.4.2"},
		Selector:    "head",
		Snippet:     `<head></head>`,
	},
	{
		RuleID:      "heading-order",
		Title:       "Heading levels skip",
		Description: "Heading levels should increase one step at a time.",
		Impact:      model.ImpactModerate,
		Level:       model.LevelAA,
		Criteria:    []string{"1.3.1"},
		Selector:    "h4",
		Snippet:     `<h4>Details</h4>`,
	},
	{
		RuleID:      "duplicate-id",
		Title:       "Duplicate element id",
		Description: "Element ids must be unique within the document.",
		Impact:      model.ImpactMinor,
		Level:       model.LevelA,
		Criteria:    []string{"4.1.1"},
		Selector:    "div#main",
		Snippet:     `<div id="main">`,
	},
	{
		RuleID:      "color-contrast",
		Title:       "Insufficient color contrast",
		Description: "Text must meet the minimum contrast ratio against its background.",
		Impact:      model.ImpactSerious,
		Level:       model.LevelAA,
		Criteria:    []string{"1.4.3"},
		Selector:    "p.caption",
		Snippet:     `<p class="caption">fine print</p>`,
	},
}

// GeneratorConfig controls issue generation.
type GeneratorConfig struct {
	Seed        int64          // Random seed for determinism (0 = use current time)
	IDPrefix    string         // Prefix for issue IDs (default: "test")
	PageURL     string         // URL attached to generated scan results
	BaseTime    time.Time      // Base time for timestamps (default: fixed time)
	ImpactMix   []model.Impact // Severity distribution (nil = use each rule's own)
	StatusMix   []model.Status // Status distribution (nil = all open)
	IncludeRecs bool           // Attach a remediation recommendation per issue
	IncludeTags bool           // Generate random tags
}

// DefaultConfig returns a config suitable for most tests.
func DefaultConfig() GeneratorConfig {
	return GeneratorConfig{
		Seed:      42, // Deterministic
		IDPrefix:  "test",
		PageURL:   "https://example.com/page",
		BaseTime:  time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC),
		StatusMix: []model.Status{model.StatusOpen},
	}
}

// Generator creates scan fixtures of controlled shape and severity mix.
type Generator struct {
	cfg GeneratorConfig
	rng *rand.Rand
}

// New creates a Generator with the given config.
func New(cfg GeneratorConfig) *Generator {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if cfg.IDPrefix == "" {
		cfg.IDPrefix = "test"
	}
	if cfg.PageURL == "" {
		cfg.PageURL = "https://example.com/page"
	}
	if cfg.BaseTime.IsZero() {
		cfg.BaseTime = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	}
	if len(cfg.StatusMix) == 0 {
		cfg.StatusMix = []model.Status{model.StatusOpen}
	}
	return &Generator{
		cfg: cfg,
		rng: rand.New(rand.NewSource(seed)),
	}
}

// NewDefault creates a Generator with default config.
func NewDefault() *Generator {
	return New(DefaultConfig())
}

// Issue generates the index-th issue of a run. The same generator produces
// the same issue for the same index sequence.
func (g *Generator) Issue(index int) model.Issue {
	spec := ruleCatalog[g.rng.Intn(len(ruleCatalog))]

	impact := spec.Impact
	if len(g.cfg.ImpactMix) > 0 {
		impact = g.cfg.ImpactMix[g.rng.Intn(len(g.cfg.ImpactMix))]
	}

	// Index the selector so repeated rules keep distinct fingerprints.
	selector := fmt.Sprintf("%s:nth-of-type(%d)", spec.Selector, index+1)

	issue := model.Issue{
		ID:          fmt.Sprintf("%s-%d", g.cfg.IDPrefix, index),
		Source:      model.SourceEngine,
		RuleID:      spec.RuleID,
		Title:       spec.Title,
		Description: spec.Description,
		Impact:      impact,
		Confidence:  model.ConfidenceHigh,
		WCAG:        model.WCAG{Level: spec.Level, Criteria: spec.Criteria},
		Node:        model.Node{Selector: selector, Snippet: spec.Snippet},
		Status:      g.cfg.StatusMix[g.rng.Intn(len(g.cfg.StatusMix))],
		Timestamp:   g.cfg.BaseTime.Add(time.Duration(index) * time.Second),
	}

	if g.cfg.IncludeRecs {
		issue.Recommendations = []model.Recommendation{{
			Role:        model.RoleDeveloper,
			Title:       "Fix " + spec.RuleID,
			Description: spec.Description,
			Priority:    model.PriorityHigh,
		}}
	}
	if g.cfg.IncludeTags {
		issue.Tags = g.pickTags()
	}

	return issue
}

// Issues generates n issues with sequential IDs.
func (g *Generator) Issues(n int) []model.Issue {
	issues := make([]model.Issue, n)
	for i := range issues {
		issues[i] = g.Issue(i)
	}
	return issues
}

// ScanResult generates a complete scan result with n issues and a
// deterministic timestamp.
func (g *Generator) ScanResult(n int) model.ScanResult {
	result := model.NewScanResult(g.cfg.PageURL, g.Issues(n), nil, &model.ScanConfig{
		Engine:  "static",
		Version: "fixture",
	})
	result.Timestamp = g.cfg.BaseTime
	return result
}

// ScanSeries generates count successive scans of the same page, one hour
// apart. Each later scan drops the last remaining issue, so the series shows
// a page being fixed over time. Useful for history diffs and retention tests.
func (g *Generator) ScanSeries(count, startIssues int) []model.ScanResult {
	issues := g.Issues(startIssues)
	series := make([]model.ScanResult, count)

	for i := 0; i < count; i++ {
		remaining := startIssues - i
		if remaining < 0 {
			remaining = 0
		}
		result := model.NewScanResult(g.cfg.PageURL, issues[:remaining], nil, &model.ScanConfig{
			Engine:  "static",
			Version: "fixture",
		})
		result.Timestamp = g.cfg.BaseTime.Add(time.Duration(i) * time.Hour)
		series[i] = result
	}
	return series
}

// ChecklistInProgress returns a fresh checklist for the page with the first
// few items already verified.
func (g *Generator) ChecklistInProgress(done int) model.ManualChecklist {
	cl := model.NewChecklist(g.cfg.PageURL)
	marked := 0
	for ci := range cl.Categories {
		for ii := range cl.Categories[ci].Items {
			if marked >= done {
				return cl
			}
			cl.Categories[ci].Items[ii].Status = model.CheckPass
			marked++
		}
	}
	return cl
}

var sampleTags = []string{"forms", "images", "navigation", "aria", "structure", "contrast", "media"}

func (g *Generator) pickTags() []string {
	count := g.rng.Intn(3) + 1 // 1-3 tags
	tags := make([]string, 0, count)
	used := make(map[int]bool)
	for len(tags) < count {
		idx := g.rng.Intn(len(sampleTags))
		if !used[idx] {
			used[idx] = true
			tags = append(tags, sampleTags[idx])
		}
	}
	return tags
}

// Convenience functions

// Empty returns an empty issue slice for edge case testing.
func Empty() []model.Issue {
	return []model.Issue{}
}

// Single returns a single open critical issue.
func Single() []model.Issue {
	gen := NewDefault()
	return gen.Issues(1)
}

// QuickScan creates a scan result with default settings.
func QuickScan(n int) model.ScanResult {
	return NewDefault().ScanResult(n)
}

// MixedStatuses creates n issues spread evenly over every triage status.
func MixedStatuses(n int) []model.Issue {
	gen := New(GeneratorConfig{Seed: 42, StatusMix: model.Statuses})
	return gen.Issues(n)
}
