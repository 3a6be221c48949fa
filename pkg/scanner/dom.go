package scanner

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"

	"github.com/vanderheijden86/a11ydeck/pkg/model"
)

const snippetLimit = 200

func walk(n *html.Node, fn func(*html.Node)) {
	fn(n)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, fn)
	}
}

func isElement(n *html.Node, tag string) bool {
	return n.Type == html.ElementNode && n.Data == tag
}

func attr(n *html.Node, name string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

func attrValue(n *html.Node, name string) string {
	v, _ := attr(n, name)
	return v
}

func hasAnyAttr(n *html.Node, names ...string) bool {
	for _, name := range names {
		if v, ok := attr(n, name); ok && strings.TrimSpace(v) != "" {
			return true
		}
	}
	return false
}

func hasAncestor(n *html.Node, tag string) bool {
	for p := n.Parent; p != nil; p = p.Parent {
		if isElement(p, tag) {
			return true
		}
	}
	return false
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	walk(n, func(c *html.Node) {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
		}
	})
	return sb.String()
}

// nodeResult captures everything normalization needs about a flagged element.
func nodeResult(n *html.Node, failureSummary string) NodeResult {
	attrs := make(map[string]string, len(n.Attr))
	for _, a := range n.Attr {
		attrs[a.Key] = a.Val
	}
	return NodeResult{
		Selector:       cssSelector(n),
		Snippet:        snippet(n),
		XPath:          xpath(n),
		FailureSummary: failureSummary,
		Attrs:          attrs,
		Context:        elementContext(n),
	}
}

// cssSelector builds a selector path from the nearest id-bearing ancestor
// (or the root) down to the element, e.g. "div#content > ul > li:nth-of-type(2)".
func cssSelector(n *html.Node) string {
	var segments []string
	for cur := n; cur != nil && cur.Type == html.ElementNode; cur = cur.Parent {
		if id := attrValue(cur, "id"); id != "" {
			segments = append([]string{cur.Data + "#" + id}, segments...)
			break
		}
		seg := cur.Data
		if pos := nthOfType(cur); pos > 1 || hasLaterSibling(cur) {
			seg = fmt.Sprintf("%s:nth-of-type(%d)", cur.Data, pos)
		}
		segments = append([]string{seg}, segments...)
	}
	return strings.Join(segments, " > ")
}

// xpath builds an absolute path, e.g. "/html/body/div[2]/img[1]".
func xpath(n *html.Node) string {
	var segments []string
	for cur := n; cur != nil && cur.Type == html.ElementNode; cur = cur.Parent {
		segments = append([]string{fmt.Sprintf("%s[%d]", cur.Data, nthOfType(cur))}, segments...)
	}
	return "/" + strings.Join(segments, "/")
}

func nthOfType(n *html.Node) int {
	pos := 1
	for sib := n.PrevSibling; sib != nil; sib = sib.PrevSibling {
		if sib.Type == html.ElementNode && sib.Data == n.Data {
			pos++
		}
	}
	return pos
}

func hasLaterSibling(n *html.Node) bool {
	for sib := n.NextSibling; sib != nil; sib = sib.NextSibling {
		if sib.Type == html.ElementNode && sib.Data == n.Data {
			return true
		}
	}
	return false
}

// snippet renders the element's markup, truncated past the limit.
func snippet(n *html.Node) string {
	var sb strings.Builder
	if err := html.Render(&sb, n); err != nil {
		return ""
	}
	s := sb.String()
	if len(s) > snippetLimit {
		s = s[:snippetLimit] + "..."
	}
	return s
}

var focusableTags = map[string]bool{
	"a": true, "button": true, "input": true, "select": true, "textarea": true,
}

func elementContext(n *html.Node) model.Context {
	role := attrValue(n, "role")
	if role == "" {
		role = n.Data
	}

	name := attrValue(n, "aria-label")
	if name == "" {
		name = attrValue(n, "alt")
	}
	if name == "" {
		name = attrValue(n, "title")
	}
	if name == "" {
		name = strings.TrimSpace(textContent(n))
		if len(name) > 80 {
			name = name[:80]
		}
	}

	focusable := focusableTags[n.Data]
	if ti := attrValue(n, "tabindex"); ti != "" && !strings.HasPrefix(ti, "-") {
		focusable = true
	}

	return model.Context{
		Role:           role,
		AccessibleName: name,
		Focusable:      focusable,
	}
}

// Find locates the first element whose generated selector matches, in
// document order. Bare "#id" and "tag#id" lookups also resolve directly.
func Find(p Page, selector string) (*html.Node, bool) {
	if p.Doc == nil || selector == "" {
		return nil, false
	}
	var found *html.Node
	walk(p.Doc, func(n *html.Node) {
		if found != nil || n.Type != html.ElementNode {
			return
		}
		if matchesSelector(n, selector) {
			found = n
		}
	})
	return found, found != nil
}

func matchesSelector(n *html.Node, selector string) bool {
	if id := attrValue(n, "id"); id != "" {
		if selector == "#"+id || selector == n.Data+"#"+id {
			return true
		}
	}
	return cssSelector(n) == selector
}

// Describe captures a node the way scan findings do, for overlay markers and
// picker inspection.
func Describe(n *html.Node) NodeResult {
	return nodeResult(n, "")
}

// styleProperty pulls one declaration's value out of an inline style string.
func styleProperty(style, name string) (string, bool) {
	for _, decl := range strings.Split(style, ";") {
		key, value, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		if strings.TrimSpace(strings.ToLower(key)) == name {
			return strings.TrimSpace(value), true
		}
	}
	return "", false
}
