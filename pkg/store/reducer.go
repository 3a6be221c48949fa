package store

import (
	"time"

	"github.com/vanderheijden86/a11ydeck/pkg/model"
)

// ViewMode selects which primary view the panel renders.
type ViewMode string

const (
	ViewIssues    ViewMode = "issues"
	ViewChecklist ViewMode = "checklist"
)

// State is the single source of truth for the panel. It is treated as
// immutable: Reduce never mutates its input, and unchanged pointer fields
// are carried over as-is so callers can use pointer identity to detect
// what changed between two states.
type State struct {
	CurrentScan      *model.ScanResult
	PreviousScan     *model.ScanResult
	SelectedIssue    *model.Issue
	Filters          model.Filters
	IsScanning       bool
	Error            string
	HasScannedOnce   bool
	CurrentChecklist *model.ManualChecklist
	ViewMode         ViewMode
	CurrentURL       string
}

// Initial returns the pristine state the panel boots with.
func Initial() State {
	return State{
		Filters:  model.EmptyFilters(),
		ViewMode: ViewIssues,
	}
}

// Reduce computes the next state for an action. It is a pure function:
// no I/O, no side effects, deterministic for a given (state, action) pair.
// Unknown actions return the input state unchanged.
func Reduce(s State, a Action) State {
	switch act := a.(type) {
	case ScanStart:
		next := s
		next.IsScanning = true
		next.Error = ""
		if act.URL != "" {
			next.CurrentURL = act.URL
		}
		return next

	case ScanComplete:
		next := s
		next.PreviousScan = s.CurrentScan
		result := act.Result
		next.CurrentScan = &result
		next.IsScanning = false
		next.Error = ""
		next.HasScannedOnce = true
		next.SelectedIssue = nil
		return next

	case ScanError:
		next := s
		next.IsScanning = false
		next.Error = act.Message
		return next

	case SelectIssue:
		next := s
		next.SelectedIssue = act.Issue
		return next

	case UpdateFilters:
		next := s
		f := s.Filters
		if act.Severity != nil {
			f.Severity = *act.Severity
		}
		if act.WCAG != nil {
			f.WCAG = *act.WCAG
		}
		if act.Status != nil {
			f.Status = *act.Status
		}
		if act.Search != nil {
			f.Search = *act.Search
		}
		next.Filters = f
		return next

	case ClearFilters:
		next := s
		next.Filters = model.EmptyFilters()
		return next

	case Reset:
		return Initial()

	case ResetAndStartScan:
		next := Initial()
		next.IsScanning = true
		next.HasScannedOnce = s.HasScannedOnce
		next.CurrentChecklist = s.CurrentChecklist
		next.ViewMode = s.ViewMode
		next.CurrentURL = s.CurrentURL
		if act.URL != "" {
			next.CurrentURL = act.URL
		}
		return next

	case UpdateIssueStatus:
		if s.CurrentScan == nil {
			return s
		}
		idx := -1
		for i := range s.CurrentScan.Issues {
			if s.CurrentScan.Issues[i].ID == act.IssueID {
				idx = i
				break
			}
		}
		if idx < 0 {
			return s
		}
		next := s
		scan := *s.CurrentScan
		issues := make([]model.Issue, len(scan.Issues))
		copy(issues, scan.Issues)
		issues[idx] = issues[idx].WithStatus(act.Status, act.Notes)
		scan.Issues = issues
		next.CurrentScan = &scan
		if s.SelectedIssue != nil && s.SelectedIssue.ID == act.IssueID {
			updated := issues[idx]
			next.SelectedIssue = &updated
		}
		return next

	case SetViewMode:
		next := s
		next.ViewMode = act.Mode
		// Selection is view-scoped: an issue selected in the findings view
		// has no meaning in the checklist view.
		next.SelectedIssue = nil
		return next

	case LoadChecklist:
		next := s
		cl := act.Checklist
		next.CurrentChecklist = &cl
		return next

	case UpdateChecklistItem:
		if s.CurrentChecklist == nil {
			return s
		}
		next := s
		cl := *s.CurrentChecklist
		cats := make([]model.ChecklistCategory, len(cl.Categories))
		copy(cats, cl.Categories)
		found := false
		for ci := range cats {
			if cats[ci].ID != act.CategoryID {
				continue
			}
			items := make([]model.ChecklistItem, len(cats[ci].Items))
			copy(items, cats[ci].Items)
			for ii := range items {
				if items[ii].ID == act.ItemID {
					items[ii].Status = act.Status
					items[ii].Notes = act.Notes
					found = true
					break
				}
			}
			cats[ci].Items = items
			break
		}
		if !found {
			return s
		}
		cl.Categories = cats
		cl.Completed = cl.AllDone()
		cl.Timestamp = time.Now()
		next.CurrentChecklist = &cl
		return next

	case ResetChecklist:
		next := s
		next.CurrentChecklist = nil
		return next

	case StopScanning:
		next := s
		next.IsScanning = false
		return next

	case SetCurrentURL:
		next := s
		next.CurrentURL = act.URL
		return next

	default:
		return s
	}
}
