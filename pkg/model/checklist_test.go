package model

import "testing"

func TestDefaultChecklistAllPending(t *testing.T) {
	categories := DefaultChecklist()
	if len(categories) != 5 {
		t.Fatalf("expected 5 categories, got %d", len(categories))
	}
	for _, cat := range categories {
		if len(cat.Items) == 0 {
			t.Errorf("category %s has no items", cat.ID)
		}
		for _, item := range cat.Items {
			if item.Status != CheckPending {
				t.Errorf("item %s/%s starts as %s, want pending", cat.ID, item.ID, item.Status)
			}
		}
	}
}

func TestDefaultChecklistIsFreshPerCall(t *testing.T) {
	first := DefaultChecklist()
	first[0].Items[0].Status = CheckPass

	second := DefaultChecklist()
	if second[0].Items[0].Status != CheckPending {
		t.Error("DefaultChecklist shares state between calls")
	}
}

func TestAllDone(t *testing.T) {
	checklist := NewChecklist("https://example.com")
	if checklist.AllDone() {
		t.Fatal("fresh checklist must not be done")
	}

	for ci := range checklist.Categories {
		for ii := range checklist.Categories[ci].Items {
			checklist.Categories[ci].Items[ii].Status = CheckPass
		}
	}
	// Leave exactly one pending.
	checklist.Categories[0].Items[0].Status = CheckPending
	if checklist.AllDone() {
		t.Fatal("one pending item must keep the checklist incomplete")
	}

	checklist.Categories[0].Items[0].Status = CheckSkip
	if !checklist.AllDone() {
		t.Fatal("any mix of pass/fail/skip counts as done")
	}
}
