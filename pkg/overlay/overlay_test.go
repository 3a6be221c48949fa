package overlay

import (
	"testing"

	"github.com/vanderheijden86/a11ydeck/pkg/model"
)

func resolverFor(known map[string]Element) Resolver {
	return func(selector string) (Element, bool) {
		el, ok := known[selector]
		return el, ok
	}
}

func issueWithSelector(id, selector string, impact model.Impact) model.Issue {
	return model.Issue{
		ID:     id,
		RuleID: "image-alt",
		Impact: impact,
		Node:   model.Node{Selector: selector},
		Status: model.StatusOpen,
	}
}

func TestHighlightPlacesMarker(t *testing.T) {
	m := New(resolverFor(map[string]Element{
		"img.hero": {Selector: "img.hero", Snippet: "<img>"},
	}))

	if !m.Highlight(issueWithSelector("i1", "img.hero", model.ImpactCritical)) {
		t.Fatal("highlight failed for known selector")
	}
	mk, ok := m.Marker("i1")
	if !ok {
		t.Fatal("marker not registered")
	}
	if mk.Color != SeverityColors[model.ImpactCritical] {
		t.Fatalf("marker color = %q", mk.Color)
	}

	// Re-highlighting the same issue replaces, not accumulates.
	m.Highlight(issueWithSelector("i1", "img.hero", model.ImpactCritical))
	if m.Count() != 1 {
		t.Fatalf("marker count = %d after re-highlight", m.Count())
	}
}

func TestHighlightUnknownSelectorIsNoOp(t *testing.T) {
	m := New(resolverFor(nil))
	if m.Highlight(issueWithSelector("i1", "div.gone", model.ImpactMinor)) {
		t.Fatal("highlight reported success for missing element")
	}
	if m.Count() != 0 {
		t.Fatalf("marker count = %d", m.Count())
	}
}

func TestClearAndRemove(t *testing.T) {
	known := map[string]Element{"a": {Selector: "a"}, "b": {Selector: "b"}}
	m := New(resolverFor(known))
	m.Highlight(issueWithSelector("i1", "a", model.ImpactMinor))
	m.Highlight(issueWithSelector("i2", "b", model.ImpactSerious))

	m.Remove("i1")
	m.Remove("missing")
	if m.Count() != 1 {
		t.Fatalf("count after remove = %d", m.Count())
	}

	m.ClearAll()
	if m.Count() != 0 {
		t.Fatalf("count after clear = %d", m.Count())
	}
}

func TestHighlightAllReplaces(t *testing.T) {
	known := map[string]Element{"a": {}, "b": {}}
	m := New(resolverFor(known))
	m.Highlight(issueWithSelector("old", "a", model.ImpactMinor))

	m.HighlightAll([]model.Issue{
		issueWithSelector("i1", "a", model.ImpactMinor),
		issueWithSelector("i2", "b", model.ImpactMinor),
		issueWithSelector("i3", "missing", model.ImpactMinor),
	})

	if m.Count() != 2 {
		t.Fatalf("count = %d, want the two resolvable issues", m.Count())
	}
	if _, ok := m.Marker("old"); ok {
		t.Fatal("prior marker survived HighlightAll")
	}
}

func TestPickerSelfDisables(t *testing.T) {
	var picked []Element
	m := New(resolverFor(map[string]Element{"button.cta": {Selector: "button.cta"}}),
		WithPickCallback(func(el Element) { picked = append(picked, el) }))

	// Not armed: picks are ignored.
	if m.Pick("button.cta") {
		t.Fatal("pick accepted while picker disarmed")
	}

	m.SetPicker(true)
	if !m.Pick("button.cta") {
		t.Fatal("pick failed while armed")
	}
	if len(picked) != 1 || picked[0].Selector != "button.cta" {
		t.Fatalf("picked = %+v", picked)
	}
	if m.PickerActive() {
		t.Fatal("picker still armed after one selection")
	}
	if m.Pick("button.cta") {
		t.Fatal("second pick accepted without re-arming")
	}
}

func TestPickerMissResolvesNothing(t *testing.T) {
	m := New(resolverFor(nil))
	m.SetPicker(true)
	if m.Pick("div.gone") {
		t.Fatal("pick succeeded for missing element")
	}
	if !m.PickerActive() {
		t.Fatal("failed pick disarmed the picker")
	}
}

func TestTogglePicker(t *testing.T) {
	m := New(resolverFor(nil))
	if !m.TogglePicker() {
		t.Fatal("first toggle should arm")
	}
	if m.TogglePicker() {
		t.Fatal("second toggle should disarm")
	}
}
