package scanner

import (
	"context"
	"strings"
	"testing"

	"github.com/vanderheijden86/a11ydeck/pkg/model"
)

func parse(t *testing.T, body string) Page {
	t.Helper()
	doc := `<html lang="en"><head><title>Test Page</title></head><body>` + body + `</body></html>`
	page, err := ParsePage("https://example.com", strings.NewReader(doc))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return page
}

func scanStatic(t *testing.T, page Page) Report {
	t.Helper()
	rep, err := NewStaticEngine().Scan(context.Background(), page)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	return rep
}

func findRule(rep Report, ruleID string) (RuleResult, bool) {
	for _, rule := range rep.Violations {
		if rule.RuleID == ruleID {
			return rule, true
		}
	}
	return RuleResult{}, false
}

func TestStaticRules(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		ruleID string
		nodes  int
	}{
		{"img without alt", `<img src="a.png">`, "image-alt", 1},
		{"unlabelled input", `<input type="text">`, "label", 1},
		{"unlabelled select", `<select><option>x</option></select>`, "label", 1},
		{"empty button", `<button></button>`, "button-name", 1},
		{"empty link", `<a href="/x"></a>`, "link-name", 1},
		{"untitled iframe", `<iframe src="/f"></iframe>`, "frame-title", 1},
		{"skipped heading level", `<h1>Top</h1><h3>Deep</h3>`, "heading-order", 1},
		{"duplicate ids", `<div id="x"></div><span id="x"></span><p id="x"></p>`, "duplicate-id", 2},
		{"low inline contrast",
			`<p style="color: #777777; background-color: #ffffff">dim text</p>`,
			"color-contrast", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule, ok := findRule(scanStatic(t, parse(t, tt.body)), tt.ruleID)
			if !ok {
				t.Fatalf("rule %s not triggered", tt.ruleID)
			}
			if len(rule.Nodes) != tt.nodes {
				t.Fatalf("node count = %d, want %d", len(rule.Nodes), tt.nodes)
			}
		})
	}
}

func TestStaticRuleExemptions(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		ruleID string
	}{
		{"decorative img", `<img src="a.png" alt="">`, "image-alt"},
		{"presentation img", `<img src="a.png" role="presentation">`, "image-alt"},
		{"aria-labelled input", `<input type="text" aria-label="Search">`, "label"},
		{"label-for input", `<label for="q">Query</label><input id="q" type="text">`, "label"},
		{"wrapped input", `<label>Query <input type="text"></label>`, "label"},
		{"hidden input", `<input type="hidden" name="token">`, "label"},
		{"submit input", `<input type="submit" value="Go">`, "label"},
		{"button with text", `<button>Save</button>`, "button-name"},
		{"button with aria-label", `<button aria-label="Close"></button>`, "button-name"},
		{"link with text", `<a href="/x">Details</a>`, "link-name"},
		{"link with img alt", `<a href="/x"><img src="i.png" alt="Home"></a>`, "link-name"},
		{"anchor without href", `<a name="top"></a>`, "link-name"},
		{"titled iframe", `<iframe src="/f" title="Player"></iframe>`, "frame-title"},
		{"stepwise headings", `<h1>A</h1><h2>B</h2><h2>C</h2><h3>D</h3>`, "heading-order"},
		{"high inline contrast",
			`<p style="color: #000000; background-color: #ffffff">legible</p>`,
			"color-contrast"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rule, ok := findRule(scanStatic(t, parse(t, tt.body)), tt.ruleID); ok {
				t.Fatalf("rule %s triggered: %+v", tt.ruleID, rule.Nodes)
			}
		})
	}
}

func TestStaticDocumentRules(t *testing.T) {
	page, err := ParsePage("https://example.com",
		strings.NewReader(`<html><head></head><body><p>hello</p></body></html>`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	rep := scanStatic(t, page)
	if _, ok := findRule(rep, "html-has-lang"); !ok {
		t.Fatal("missing lang not flagged")
	}
	if _, ok := findRule(rep, "document-title"); !ok {
		t.Fatal("missing title not flagged")
	}
}

func TestStaticCleanPage(t *testing.T) {
	body := `<h1>Welcome</h1><p>All good here.</p>` +
		`<a href="/about">About us</a><img src="logo.png" alt="Logo">`
	rep := scanStatic(t, parse(t, body))
	if len(rep.Violations) != 0 {
		t.Fatalf("clean page produced violations: %+v", rep.Violations)
	}
}

func TestStaticContrastIncomplete(t *testing.T) {
	body := `<p style="color: tomato; background-color: ivory">named colors</p>`
	rep := scanStatic(t, parse(t, body))
	if _, ok := findRule(rep, "color-contrast"); ok {
		t.Fatal("unparseable colors reported as a violation")
	}
	if len(rep.Incomplete) != 1 || rep.Incomplete[0].RuleID != "color-contrast" {
		t.Fatalf("incomplete = %+v", rep.Incomplete)
	}
}

func TestStaticSelectors(t *testing.T) {
	body := `<div id="content"><ul><li>a</li><li><img src="x.png"></li></ul></div>`
	rep := scanStatic(t, parse(t, body))
	rule, ok := findRule(rep, "image-alt")
	if !ok {
		t.Fatal("image-alt not triggered")
	}
	node := rule.Nodes[0]
	if !strings.HasPrefix(node.Selector, "div#content") {
		t.Fatalf("selector = %q, want anchored at div#content", node.Selector)
	}
	if !strings.Contains(node.Selector, "li:nth-of-type(2)") {
		t.Fatalf("selector = %q, want li:nth-of-type(2)", node.Selector)
	}
	if !strings.HasPrefix(node.XPath, "/html[1]/body[1]") || !strings.HasSuffix(node.XPath, "/img[1]") {
		t.Fatalf("xpath = %q", node.XPath)
	}
	if node.Snippet == "" || !strings.Contains(node.Snippet, "img") {
		t.Fatalf("snippet = %q", node.Snippet)
	}
}

func TestStaticEndToEnd(t *testing.T) {
	body := `<img src="hero.png"><input type="text"><a href="/x">fine link</a>`
	result, err := New(NewStaticEngine()).Scan(context.Background(), parse(t, body))
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if result.URL != "https://example.com" {
		t.Fatalf("url = %q", result.URL)
	}
	if result.Summary.Total != len(result.Issues) {
		t.Fatalf("summary total %d != issues %d", result.Summary.Total, len(result.Issues))
	}
	if result.Summary.BySeverity[model.ImpactCritical] != 2 {
		t.Fatalf("critical count = %d, want img+input", result.Summary.BySeverity[model.ImpactCritical])
	}
	// Most severe first.
	for i := 1; i < len(result.Issues); i++ {
		if result.Issues[i-1].Impact.Rank() > result.Issues[i].Impact.Rank() {
			t.Fatalf("issues not sorted by severity: %v then %v",
				result.Issues[i-1].Impact, result.Issues[i].Impact)
		}
	}
}

func TestContrastRatio(t *testing.T) {
	tests := []struct {
		fg, bg string
		want   float64
		ok     bool
	}{
		{"#000000", "#ffffff", 21, true},
		{"#ffffff", "#ffffff", 1, true},
		{"rgb(0, 0, 0)", "rgb(255, 255, 255)", 21, true},
		{"#fff", "#000", 21, true},
		{"tomato", "#fff", 0, false},
		{"#zzz", "#fff", 0, false},
	}
	for _, tt := range tests {
		got, ok := contrastRatio(tt.fg, tt.bg)
		if ok != tt.ok {
			t.Errorf("contrastRatio(%q, %q) ok = %v, want %v", tt.fg, tt.bg, ok, tt.ok)
			continue
		}
		if ok && (got < tt.want-0.01 || got > tt.want+0.01) {
			t.Errorf("contrastRatio(%q, %q) = %.3f, want %.3f", tt.fg, tt.bg, got, tt.want)
		}
	}
}
