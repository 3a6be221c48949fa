package store

import "github.com/vanderheijden86/a11ydeck/pkg/model"

// Action is the closed set of state transitions. Reducing an action type the
// reducer does not know returns the input state untouched, which callers use
// to detect no-op dispatches cheaply.
type Action interface{ isAction() }

// ScanStart marks a scan in flight. URL, when non-empty, becomes the
// current URL; the optimistic dispatch happens before the request is sent.
type ScanStart struct {
	URL string
}

// ScanComplete installs a finished scan result.
type ScanComplete struct {
	Result model.ScanResult
}

// ScanError surfaces a failed scan.
type ScanError struct {
	Message string
}

// SelectIssue sets (or clears, with nil) the detail-view selection.
type SelectIssue struct {
	Issue *model.Issue
}

// UpdateFilters merges the non-nil fields into the active filters.
type UpdateFilters struct {
	Severity *[]model.Impact
	WCAG     *[]model.WCAGLevel
	Status   *[]model.Status
	Search   *string
}

// ClearFilters restores the unrestricted filter set.
type ClearFilters struct{}

// Reset returns to the pristine initial state. Dispatched when the user has
// navigated to a genuinely different page while the panel stayed open.
type Reset struct{}

// ResetAndStartScan is the refresh path: stale results disappear before the
// new scan resolves, but hasScannedOnce, the checklist, and the view mode
// survive.
type ResetAndStartScan struct {
	URL string
}

// UpdateIssueStatus applies a triage decision to one issue.
type UpdateIssueStatus struct {
	IssueID string
	Status  model.Status
	Notes   string
}

// SetViewMode switches between the issues and checklist views.
type SetViewMode struct {
	Mode ViewMode
}

// LoadChecklist installs a manual checklist.
type LoadChecklist struct {
	Checklist model.ManualChecklist
}

// UpdateChecklistItem updates one item and recomputes the derived
// completion flag.
type UpdateChecklistItem struct {
	CategoryID string
	ItemID     string
	Status     model.ChecklistItemStatus
	Notes      string
}

// ResetChecklist drops the loaded checklist.
type ResetChecklist struct{}

// StopScanning clears the scanning flag without installing a result.
// Dispatched when the scan animation finishes while the completion is still
// in flight; the result lands later through ScanComplete.
type StopScanning struct{}

// SetCurrentURL records the active tab URL. URL-change reconciliation
// (reset-before-set) is the Store's job, not the reducer's; see
// Store.ObserveURL.
type SetCurrentURL struct {
	URL string
}

func (ScanStart) isAction()           {}
func (ScanComplete) isAction()        {}
func (ScanError) isAction()           {}
func (SelectIssue) isAction()         {}
func (UpdateFilters) isAction()       {}
func (ClearFilters) isAction()        {}
func (Reset) isAction()               {}
func (ResetAndStartScan) isAction()   {}
func (UpdateIssueStatus) isAction()   {}
func (SetViewMode) isAction()         {}
func (LoadChecklist) isAction()       {}
func (UpdateChecklistItem) isAction() {}
func (ResetChecklist) isAction()      {}
func (StopScanning) isAction()        {}
func (SetCurrentURL) isAction()       {}
