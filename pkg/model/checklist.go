package model

import "time"

// ChecklistItemStatus is the per-item state of a manual check.
type ChecklistItemStatus string

const (
	CheckPending ChecklistItemStatus = "pending"
	CheckPass    ChecklistItemStatus = "pass"
	CheckFail    ChecklistItemStatus = "fail"
	CheckSkip    ChecklistItemStatus = "skip"
)

// ChecklistItem is one manual verification step.
type ChecklistItem struct {
	ID          string              `json:"id"`
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Status      ChecklistItemStatus `json:"status"`
	Notes       string              `json:"notes,omitempty"`
}

// ChecklistCategory groups related manual checks.
type ChecklistCategory struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Items       []ChecklistItem `json:"items"`
}

// ManualChecklist tracks manual verification for one page. Completed is
// derived: true iff every item in every category is non-pending. Callers
// never set it directly; the reducer recomputes it on every item mutation.
type ManualChecklist struct {
	URL        string              `json:"url"`
	Timestamp  time.Time           `json:"timestamp"`
	Categories []ChecklistCategory `json:"categories"`
	Completed  bool                `json:"completed"`
}

// AllDone reports whether every item in every category is non-pending.
func (c ManualChecklist) AllDone() bool {
	for _, cat := range c.Categories {
		for _, item := range cat.Items {
			if item.Status == CheckPending {
				return false
			}
		}
	}
	return true
}

// NewChecklist builds a fresh checklist for a URL from the default catalogue.
func NewChecklist(url string) ManualChecklist {
	return ManualChecklist{
		URL:        url,
		Timestamp:  time.Now(),
		Categories: DefaultChecklist(),
	}
}

// DefaultChecklist returns the built-in manual test catalogue. The result is
// freshly allocated so callers may mutate item state freely.
func DefaultChecklist() []ChecklistCategory {
	categories := []ChecklistCategory{
		{
			ID:          "keyboard-navigation",
			Title:       "Keyboard Navigation",
			Description: "Verify keyboard accessibility without a mouse",
			Items: []ChecklistItem{
				{ID: "tab-order", Title: "Tab order is logical and follows visual flow",
					Description: "Use Tab to move through interactive elements. Order should match the visual layout."},
				{ID: "focus-visible", Title: "Focus indicators are clearly visible",
					Description: "All focusable elements show a visible outline or highlight when focused."},
				{ID: "no-keyboard-trap", Title: "No keyboard traps present",
					Description: "Users can navigate into and out of all components using only the keyboard."},
				{ID: "skip-links", Title: "Skip navigation links are present",
					Description: "Skip-to-content links are available on pages with repeated content."},
				{ID: "interactive-controls", Title: "All interactive controls are keyboard accessible",
					Description: "Buttons, links, form fields, and custom widgets activate with Enter/Space."},
			},
		},
		{
			ID:          "screen-reader",
			Title:       "Screen Reader",
			Description: "Test with NVDA, JAWS, or VoiceOver",
			Items: []ChecklistItem{
				{ID: "landmarks", Title: "Proper landmark regions are used",
					Description: "Page uses semantic HTML (header, nav, main, aside, footer) or ARIA landmarks."},
				{ID: "heading-structure", Title: "Heading hierarchy is logical",
					Description: "Headings (h1-h6) are properly nested without skipping levels."},
				{ID: "alt-text", Title: "Images have appropriate alt text",
					Description: "Informative images have descriptive alt text; decorative images use alt=\"\"."},
				{ID: "form-labels", Title: "Form inputs have associated labels",
					Description: "All form fields have visible labels or aria-label/aria-labelledby attributes."},
				{ID: "link-context", Title: "Links have descriptive text",
					Description: "Link text describes the destination; avoid bare \"click here\" or \"read more\"."},
				{ID: "dynamic-content", Title: "Dynamic content changes are announced",
					Description: "ARIA live regions announce important updates (errors, notifications, loading)."},
			},
		},
		{
			ID:          "zoom-reflow",
			Title:       "Zoom & Reflow",
			Description: "Test at different zoom levels and viewport sizes",
			Items: []ChecklistItem{
				{ID: "zoom-200", Title: "Content is usable at 200% zoom",
					Description: "Page remains functional and readable at 200% zoom without horizontal scrolling."},
				{ID: "zoom-400", Title: "Content reflows at 400% zoom",
					Description: "At 400% zoom content reflows into a single column without loss of information."},
				{ID: "text-resize", Title: "Text can be resized to 200%",
					Description: "Text size can increase to 200% without loss of content or functionality."},
				{ID: "no-horizontal-scroll", Title: "No horizontal scrolling at standard zoom",
					Description: "Content fits the viewport width at standard zoom (except data tables/code)."},
			},
		},
		{
			ID:          "reduced-motion",
			Title:       "Reduced Motion",
			Description: "Test with prefers-reduced-motion enabled",
			Items: []ChecklistItem{
				{ID: "animation-disabled", Title: "Animations are disabled or reduced",
					Description: "With prefers-reduced-motion set, animations stop or use reduced motion."},
				{ID: "essential-motion-only", Title: "Only essential motion remains",
					Description: "Motion essential to functionality (progress indicators) is still present."},
				{ID: "no-auto-play", Title: "No auto-playing animations",
					Description: "No animations auto-play longer than 5 seconds without pause controls."},
			},
		},
		{
			ID:          "focus-management",
			Title:       "Focus Management",
			Description: "Test focus behavior in dynamic interactions",
			Items: []ChecklistItem{
				{ID: "modal-focus", Title: "Focus is trapped in modals",
					Description: "When a modal opens, focus moves into it and stays until closed."},
				{ID: "modal-return", Title: "Focus returns after modal closes",
					Description: "After closing a modal, focus returns to the trigger element."},
				{ID: "deletion-focus", Title: "Focus moves appropriately after deletion",
					Description: "Deleting an item moves focus to a logical neighbor or the container."},
				{ID: "spa-navigation", Title: "Focus is managed during route changes",
					Description: "On route change, focus moves to the new content (typically h1 or main)."},
			},
		},
	}

	for ci := range categories {
		for ii := range categories[ci].Items {
			categories[ci].Items[ii].Status = CheckPending
		}
	}
	return categories
}
