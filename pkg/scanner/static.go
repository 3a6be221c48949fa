package scanner

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/net/html"

	"github.com/vanderheijden86/a11ydeck/pkg/metrics"
	"github.com/vanderheijden86/a11ydeck/pkg/model"
)

const staticEngineVersion = "1.4.0"

// StaticEngine runs a fixed catalogue of accessibility rules over a parsed
// document. It covers the checks that can be decided without layout or
// script execution; checks that would need a live rendering surface as
// incomplete findings instead of guessing.
type StaticEngine struct{}

// NewStaticEngine returns the built-in rule engine.
func NewStaticEngine() *StaticEngine { return &StaticEngine{} }

func (e *StaticEngine) Name() string    { return "static-html" }
func (e *StaticEngine) Version() string { return staticEngineVersion }

// ruleFunc inspects the page and appends findings to the report.
type ruleFunc func(p Page, rep *Report)

// Scan applies every rule. Rules run in a fixed order so results are
// deterministic for a given document.
func (e *StaticEngine) Scan(ctx context.Context, page Page) (Report, error) {
	defer metrics.Timer(metrics.StaticScan)()

	if page.Doc == nil {
		return Report{}, fmt.Errorf("scan %s: no document", page.URL)
	}
	rules := []ruleFunc{
		ruleImageAlt,
		ruleLabel,
		ruleButtonName,
		ruleLinkName,
		ruleHTMLHasLang,
		ruleDocumentTitle,
		ruleFrameTitle,
		ruleHeadingOrder,
		ruleDuplicateID,
		ruleColorContrast,
	}
	var rep Report
	for _, rule := range rules {
		if err := ctx.Err(); err != nil {
			return Report{}, err
		}
		rule(page, &rep)
	}
	return rep, nil
}

func ruleImageAlt(p Page, rep *Report) {
	var nodes []NodeResult
	walk(p.Doc, func(n *html.Node) {
		if !isElement(n, "img") {
			return
		}
		if _, ok := attr(n, "alt"); ok {
			return // alt="" is a deliberate decorative marker
		}
		if _, ok := attr(n, "aria-label"); ok {
			return
		}
		if attrValue(n, "role") == "presentation" {
			return
		}
		nodes = append(nodes, nodeResult(n,
			"Fix any of the following: Element does not have an alt attribute"))
	})
	addViolations(rep, RuleResult{
		RuleID:      "image-alt",
		Help:        "Images must have alternate text",
		Description: "Ensures <img> elements have alternate text or a role of none or presentation",
		Impact:      model.ImpactCritical,
		Tags:        []string{"wcag2a", "wcag111"},
		Nodes:       nodes,
	})
}

func ruleLabel(p Page, rep *Report) {
	labelled := labelledInputIDs(p.Doc)
	var nodes []NodeResult
	walk(p.Doc, func(n *html.Node) {
		switch {
		case isElement(n, "input"):
			switch attrValue(n, "type") {
			case "hidden", "submit", "button", "reset", "image":
				return
			}
		case isElement(n, "select"), isElement(n, "textarea"):
		default:
			return
		}
		if hasAnyAttr(n, "aria-label", "aria-labelledby", "title") {
			return
		}
		if id := attrValue(n, "id"); id != "" && labelled[id] {
			return
		}
		if hasAncestor(n, "label") {
			return
		}
		nodes = append(nodes, nodeResult(n,
			"Fix any of the following: Form element does not have an implicit (wrapped) <label>"))
	})
	addViolations(rep, RuleResult{
		RuleID:      "label",
		Help:        "Form elements must have labels",
		Description: "Ensures every form element has a label",
		Impact:      model.ImpactCritical,
		Tags:        []string{"wcag2a", "wcag412", "wcag131"},
		Nodes:       nodes,
	})
}

func ruleButtonName(p Page, rep *Report) {
	var nodes []NodeResult
	walk(p.Doc, func(n *html.Node) {
		if !isElement(n, "button") {
			return
		}
		if strings.TrimSpace(textContent(n)) != "" {
			return
		}
		if hasAnyAttr(n, "aria-label", "aria-labelledby", "title") {
			return
		}
		nodes = append(nodes, nodeResult(n,
			"Fix any of the following: Element does not have inner text that is visible to screen readers"))
	})
	addViolations(rep, RuleResult{
		RuleID:      "button-name",
		Help:        "Buttons must have discernible text",
		Description: "Ensures buttons have discernible text",
		Impact:      model.ImpactCritical,
		Tags:        []string{"wcag2a", "wcag412"},
		Nodes:       nodes,
	})
}

func ruleLinkName(p Page, rep *Report) {
	var nodes []NodeResult
	walk(p.Doc, func(n *html.Node) {
		if !isElement(n, "a") {
			return
		}
		if _, ok := attr(n, "href"); !ok {
			return
		}
		if strings.TrimSpace(textContent(n)) != "" {
			return
		}
		if hasAnyAttr(n, "aria-label", "aria-labelledby", "title") {
			return
		}
		if linkHasImageAlt(n) {
			return
		}
		nodes = append(nodes, nodeResult(n,
			"Fix all of the following: Element is in tab order and does not have accessible text"))
	})
	addViolations(rep, RuleResult{
		RuleID:      "link-name",
		Help:        "Links must have discernible text",
		Description: "Ensures links have discernible text",
		Impact:      model.ImpactSerious,
		Tags:        []string{"wcag2a", "wcag244", "wcag412"},
		Nodes:       nodes,
	})
}

func ruleHTMLHasLang(p Page, rep *Report) {
	var nodes []NodeResult
	walk(p.Doc, func(n *html.Node) {
		if !isElement(n, "html") {
			return
		}
		if strings.TrimSpace(attrValue(n, "lang")) != "" {
			return
		}
		nodes = append(nodes, nodeResult(n,
			"Fix any of the following: The <html> element does not have a lang attribute"))
	})
	addViolations(rep, RuleResult{
		RuleID:      "html-has-lang",
		Help:        "<html> element must have a lang attribute",
		Description: "Ensures every HTML document has a lang attribute",
		Impact:      model.ImpactSerious,
		Tags:        []string{"wcag2a", "wcag311"},
		Nodes:       nodes,
	})
}

func ruleDocumentTitle(p Page, rep *Report) {
	title := ""
	walk(p.Doc, func(n *html.Node) {
		if isElement(n, "title") && title == "" {
			title = strings.TrimSpace(textContent(n))
		}
	})
	if title != "" {
		return
	}
	var nodes []NodeResult
	walk(p.Doc, func(n *html.Node) {
		if isElement(n, "html") {
			nodes = append(nodes, nodeResult(n,
				"Fix any of the following: Document does not have a non-empty <title> element"))
		}
	})
	addViolations(rep, RuleResult{
		RuleID:      "document-title",
		Help:        "Documents must have <title> element to aid in navigation",
		Description: "Ensures each HTML document contains a non-empty <title> element",
		Impact:      model.ImpactSerious,
		Tags:        []string{"wcag2a", "wcag242"},
		Nodes:       nodes,
	})
}

func ruleFrameTitle(p Page, rep *Report) {
	var nodes []NodeResult
	walk(p.Doc, func(n *html.Node) {
		if !isElement(n, "iframe") && !isElement(n, "frame") {
			return
		}
		if strings.TrimSpace(attrValue(n, "title")) != "" {
			return
		}
		nodes = append(nodes, nodeResult(n,
			"Fix any of the following: Element has no title attribute"))
	})
	addViolations(rep, RuleResult{
		RuleID:      "frame-title",
		Help:        "Frames must have an accessible name",
		Description: "Ensures <iframe> and <frame> elements have an accessible name",
		Impact:      model.ImpactSerious,
		Tags:        []string{"wcag2a", "wcag412"},
		Nodes:       nodes,
	})
}

func ruleHeadingOrder(p Page, rep *Report) {
	var nodes []NodeResult
	prev := 0
	walk(p.Doc, func(n *html.Node) {
		level := headingLevel(n)
		if level == 0 {
			return
		}
		if prev != 0 && level > prev+1 {
			nodes = append(nodes, nodeResult(n,
				fmt.Sprintf("Fix any of the following: Heading order invalid (h%d follows h%d)", level, prev)))
		}
		prev = level
	})
	addViolations(rep, RuleResult{
		RuleID:      "heading-order",
		Help:        "Heading levels should only increase by one",
		Description: "Ensures the order of headings is semantically correct",
		Impact:      model.ImpactModerate,
		Tags:        []string{"best-practice"},
		Nodes:       nodes,
	})
}

func ruleDuplicateID(p Page, rep *Report) {
	seen := map[string]bool{}
	var nodes []NodeResult
	walk(p.Doc, func(n *html.Node) {
		if n.Type != html.ElementNode {
			return
		}
		id := attrValue(n, "id")
		if id == "" {
			return
		}
		if seen[id] {
			nodes = append(nodes, nodeResult(n,
				fmt.Sprintf("Fix any of the following: Document has multiple elements with the same id attribute: %s", id)))
			return
		}
		seen[id] = true
	})
	addViolations(rep, RuleResult{
		RuleID:      "duplicate-id",
		Help:        "IDs used in ARIA and labels must be unique",
		Description: "Ensures every id attribute value is unique",
		Impact:      model.ImpactMinor,
		Tags:        []string{"best-practice"},
		Nodes:       nodes,
	})
}

// ruleColorContrast decides inline rgb()/hex color pairs statically; anything
// needing computed styles is reported as an incomplete finding rather than
// guessed at.
func ruleColorContrast(p Page, rep *Report) {
	var violations, incomplete []NodeResult
	walk(p.Doc, func(n *html.Node) {
		if n.Type != html.ElementNode {
			return
		}
		style := attrValue(n, "style")
		if style == "" || strings.TrimSpace(textContent(n)) == "" {
			return
		}
		fg, fgOK := styleProperty(style, "color")
		bg, bgOK := styleProperty(style, "background-color")
		if !bgOK {
			bg, bgOK = styleProperty(style, "background")
		}
		if !fgOK || !bgOK {
			return
		}

		ratio, ok := contrastRatio(fg, bg)
		if !ok {
			node := nodeResult(n, "")
			incomplete = append(incomplete, node)
			return
		}
		if ratio < 4.5 {
			node := nodeResult(n, fmt.Sprintf(
				"Fix any of the following: Element has insufficient color contrast of %.2f:1", ratio))
			node.Context.ContrastRatio = ratio
			violations = append(violations, node)
		}
	})

	rule := RuleResult{
		RuleID:      "color-contrast",
		Help:        "Elements must meet minimum color contrast ratio thresholds",
		Description: "Ensures the contrast between foreground and background colors meets WCAG 2 AA minimum thresholds",
		Impact:      model.ImpactSerious,
		Tags:        []string{"wcag2aa", "wcag143"},
	}
	if len(violations) > 0 {
		withNodes := rule
		withNodes.Nodes = violations
		rep.Violations = append(rep.Violations, withNodes)
	}
	if len(incomplete) > 0 {
		withNodes := rule
		withNodes.Nodes = incomplete
		rep.Incomplete = append(rep.Incomplete, withNodes)
	}
}

// addViolations appends the rule only when it found something: empty rules
// would otherwise pollute the scan config's rule list.
func addViolations(rep *Report, rule RuleResult) {
	if len(rule.Nodes) == 0 {
		return
	}
	rep.Violations = append(rep.Violations, rule)
}

func labelledInputIDs(doc *html.Node) map[string]bool {
	out := map[string]bool{}
	walk(doc, func(n *html.Node) {
		if isElement(n, "label") {
			if forID := attrValue(n, "for"); forID != "" {
				out[forID] = true
			}
		}
	})
	return out
}

func linkHasImageAlt(link *html.Node) bool {
	found := false
	walk(link, func(n *html.Node) {
		if isElement(n, "img") && strings.TrimSpace(attrValue(n, "alt")) != "" {
			found = true
		}
	})
	return found
}

func headingLevel(n *html.Node) int {
	if n.Type != html.ElementNode {
		return 0
	}
	switch n.Data {
	case "h1":
		return 1
	case "h2":
		return 2
	case "h3":
		return 3
	case "h4":
		return 4
	case "h5":
		return 5
	case "h6":
		return 6
	}
	return 0
}
