// Package scanner turns raw rule-engine findings into normalized issues.
// The engine behind the Scanner is pluggable; everything downstream of this
// package only ever sees model.Issue.
package scanner

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/vanderheijden86/a11ydeck/pkg/metrics"
	"github.com/vanderheijden86/a11ydeck/pkg/model"
)

// Page is one parsed document to scan.
type Page struct {
	URL string
	Doc *html.Node
}

// ParsePage parses an HTML document for scanning.
func ParsePage(url string, r io.Reader) (Page, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return Page{}, fmt.Errorf("parse page: %w", err)
	}
	return Page{URL: url, Doc: doc}, nil
}

// NodeResult locates one flagged element, with enough captured context for
// normalization to work without re-touching the document.
type NodeResult struct {
	Selector       string
	Snippet        string
	XPath          string
	FailureSummary string
	Attrs          map[string]string
	Context        model.Context
}

// RuleResult is one rule's findings across the page.
type RuleResult struct {
	RuleID      string
	Help        string
	Description string
	Impact      model.Impact
	Tags        []string
	Nodes       []NodeResult
}

// Report is the raw engine output before normalization. Violations are
// confirmed failures; Incomplete findings need a manual look.
type Report struct {
	Violations []RuleResult
	Incomplete []RuleResult
}

// Engine runs accessibility rules against a page.
type Engine interface {
	Name() string
	Version() string
	Scan(ctx context.Context, page Page) (Report, error)
}

// Scanner adapts an Engine's raw report into a model.ScanResult.
type Scanner struct {
	engine Engine
}

// New builds a Scanner over an engine.
func New(engine Engine) *Scanner {
	return &Scanner{engine: engine}
}

// Scan runs the engine and normalizes its findings. Violations become
// high-confidence issues; incomplete checks become medium-confidence issues
// flagged for manual verification.
func (s *Scanner) Scan(ctx context.Context, page Page) (model.ScanResult, error) {
	report, err := s.engine.Scan(ctx, page)
	if err != nil {
		return model.ScanResult{}, fmt.Errorf("run %s: %w", s.engine.Name(), err)
	}

	defer metrics.Timer(metrics.Normalize)()

	var issues, incomplete []model.Issue
	for _, rule := range report.Violations {
		issues = append(issues, normalizeRule(rule, model.ConfidenceHigh)...)
	}
	for _, rule := range report.Incomplete {
		incomplete = append(incomplete, normalizeRule(rule, model.ConfidenceMedium)...)
	}

	cfg := &model.ScanConfig{
		Engine:  s.engine.Name(),
		Version: s.engine.Version(),
		Rules:   ruleIDs(report.Violations),
	}
	return model.NewScanResult(page.URL, issues, incomplete, cfg), nil
}

func ruleIDs(rules []RuleResult) []string {
	out := make([]string, 0, len(rules))
	for _, r := range rules {
		out = append(out, r.RuleID)
	}
	return out
}

func normalizeRule(rule RuleResult, confidence model.Confidence) []model.Issue {
	level := wcagLevel(rule.Tags)
	criteria := wcagCriteria(rule.Tags)

	issues := make([]model.Issue, 0, len(rule.Nodes))
	for _, node := range rule.Nodes {
		impact := rule.Impact
		if !impact.Valid() {
			impact = model.ImpactModerate
		}
		issue := model.Issue{
			ID:          newIssueID(),
			Source:      model.SourceEngine,
			RuleID:      rule.RuleID,
			Title:       rule.Help,
			Description: rule.Description,
			Impact:      impact,
			Confidence:  confidence,
			WCAG:        model.WCAG{Level: level, Criteria: criteria},
			Node: model.Node{
				Selector: node.Selector,
				Snippet:  node.Snippet,
				XPath:    node.XPath,
			},
			Context:         node.Context,
			Recommendations: recommendations(rule, node, impact),
			Status:          model.StatusOpen,
			Tags:            rule.Tags,
			Timestamp:       time.Now(),
		}
		if confidence == model.ConfidenceMedium {
			issue.Notes = "This issue requires manual verification"
		}
		issues = append(issues, issue)
	}
	return issues
}

func newIssueID() string {
	return fmt.Sprintf("%d-%s", time.Now().UnixMilli(),
		strconv.FormatUint(rand.Uint64()%(1<<48), 36))
}

// wcagLevel derives the conformance level from rule tags. AAA tags are
// checked first: "wcag2aaa" would otherwise also satisfy the AA substring
// test.
func wcagLevel(tags []string) model.WCAGLevel {
	for _, tag := range tags {
		if strings.Contains(tag, "wcag2aaa") || strings.Contains(tag, "wcag21aaa") {
			return model.LevelAAA
		}
	}
	for _, tag := range tags {
		if strings.Contains(tag, "wcag2aa") || strings.Contains(tag, "wcag21aa") ||
			strings.Contains(tag, "wcag22aa") {
			return model.LevelAA
		}
	}
	return model.LevelA
}

var criterionPattern = regexp.MustCompile(`^wcag\d{3,4}$`)

// wcagCriteria extracts success-criterion numbers ("111", "412") from tags.
func wcagCriteria(tags []string) []string {
	var out []string
	for _, tag := range tags {
		if criterionPattern.MatchString(tag) {
			out = append(out, strings.TrimPrefix(tag, "wcag"))
		}
	}
	return out
}

// recommendations builds the role-targeted remediation list: always one for
// developers and one for QA, plus a designer entry when the rule is
// design-related.
func recommendations(rule RuleResult, node NodeResult, impact model.Impact) []model.Recommendation {
	priority := model.PriorityMedium
	if impact == model.ImpactCritical || impact == model.ImpactSerious {
		priority = model.PriorityHigh
	}

	dev := model.Recommendation{
		Role:        model.RoleDeveloper,
		Title:       "Fix this issue",
		Description: rule.Help,
		Priority:    priority,
	}
	if node.FailureSummary != "" {
		dev.CodeExample = codeExample(rule.RuleID, node)
	}

	recs := []model.Recommendation{
		dev,
		{
			Role:  model.RoleQA,
			Title: "Verify fix",
			Description: fmt.Sprintf(
				"Test that %s after developer implements fix. Use screen reader and keyboard to verify.",
				strings.ToLower(rule.Help)),
			Priority: priority,
		},
	}

	if desc, ok := designRecommendation(rule.RuleID); ok {
		recs = append(recs, model.Recommendation{
			Role:        model.RoleDesigner,
			Title:       "Update design",
			Description: desc,
			Priority:    priority,
		})
	}
	return recs
}

var designAdvice = map[string]string{
	"color-contrast": "Ensure text has sufficient contrast ratio (4.5:1 for normal text, " +
		"3:1 for large text). Use a color contrast checker.",
	"link-in-text-block": "Make links visually distinct from surrounding text (underline, " +
		"different color with 3:1 contrast).",
	"focus-order-semantics": "Design visual layout to match logical tab order.",
	"target-size": "Ensure interactive elements are at least 44x44px (or 24x24px with " +
		"sufficient spacing).",
	"label-content-name-mismatch": "Ensure visible label text matches or is contained in " +
		"accessible name.",
}

func designRecommendation(ruleID string) (string, bool) {
	for key, advice := range designAdvice {
		if strings.Contains(ruleID, key) {
			return advice, true
		}
	}
	return "", false
}

// codeExample renders a fix template for the rules with well-known shapes,
// falling back to the flagged markup itself.
func codeExample(ruleID string, node NodeResult) string {
	attr := func(name, fallback string) string {
		if v, ok := node.Attrs[name]; ok && v != "" {
			return v
		}
		return fallback
	}
	switch {
	case strings.Contains(ruleID, "image-alt"):
		return fmt.Sprintf(`<img src=%q alt="Descriptive text about the image" />`,
			attr("src", "image.png"))
	case strings.Contains(ruleID, "button-name"):
		return "<button aria-label=\"Descriptive label\">\n  ...\n</button>"
	case strings.Contains(ruleID, "link-name"):
		return fmt.Sprintf("<a href=%q aria-label=\"Descriptive link text\">\n  ...\n</a>",
			attr("href", "#"))
	case strings.Contains(ruleID, "label"):
		id := attr("id", "input-id")
		return fmt.Sprintf("<label for=%q>Label text</label>\n<input id=%q type=\"text\" />", id, id)
	default:
		return node.Snippet
	}
}
