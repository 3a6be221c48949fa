package ui

import (
	"fmt"
	"strings"

	"github.com/vanderheijden86/a11ydeck/pkg/model"
)

// checklistRow is one selectable row in the manual checklist view: a single
// item, addressed by category so status updates can be dispatched.
type checklistRow struct {
	CategoryID    string
	CategoryTitle string
	Item          model.ChecklistItem
	FirstInCat    bool
}

// flattenChecklist turns the nested categories into a flat cursor-addressable
// row list. Category headers are rendered from FirstInCat rather than being
// rows themselves, so the cursor never lands on a header.
func flattenChecklist(cl *model.ManualChecklist) []checklistRow {
	if cl == nil {
		return nil
	}
	var rows []checklistRow
	for _, cat := range cl.Categories {
		for i, item := range cat.Items {
			rows = append(rows, checklistRow{
				CategoryID:    cat.ID,
				CategoryTitle: cat.Title,
				Item:          item,
				FirstInCat:    i == 0,
			})
		}
	}
	return rows
}

// cycleCheckStatus advances a manual check through its states:
// pending → pass → fail → skip → pending.
func cycleCheckStatus(s model.ChecklistItemStatus) model.ChecklistItemStatus {
	switch s {
	case model.CheckPending:
		return model.CheckPass
	case model.CheckPass:
		return model.CheckFail
	case model.CheckFail:
		return model.CheckSkip
	default:
		return model.CheckPending
	}
}

func checkStatusIcon(s model.ChecklistItemStatus) string {
	switch s {
	case model.CheckPass:
		return "✅"
	case model.CheckFail:
		return "❌"
	case model.CheckSkip:
		return "⏭"
	default:
		return "⬜"
	}
}

// checklistProgress counts non-pending items.
func checklistProgress(cl *model.ManualChecklist) (done, total int) {
	if cl == nil {
		return 0, 0
	}
	for _, cat := range cl.Categories {
		for _, item := range cat.Items {
			total++
			if item.Status != model.CheckPending {
				done++
			}
		}
	}
	return done, total
}

// renderChecklist renders the manual checklist view. cursor indexes the
// flattened rows.
func renderChecklist(t Theme, cl *model.ManualChecklist, cursor, width int) string {
	rows := flattenChecklist(cl)
	if len(rows) == 0 {
		return t.MutedText.Render("No checklist loaded. Press 'n' to start one for the current page.")
	}

	done, total := checklistProgress(cl)

	var sb strings.Builder
	header := fmt.Sprintf("Manual checks — %d/%d verified", done, total)
	if cl.Completed {
		header += " · complete"
	}
	sb.WriteString(t.PrimaryBold.Render(header))
	sb.WriteString("\n")
	sb.WriteString(RenderDivider(width))
	sb.WriteString("\n")

	for i, row := range rows {
		if row.FirstInCat {
			if i > 0 {
				sb.WriteString("\n")
			}
			sb.WriteString(t.Header.Render(row.CategoryTitle))
			sb.WriteString("\n")
		}

		line := fmt.Sprintf("%s %s", checkStatusIcon(row.Item.Status), row.Item.Title)
		if row.Item.Notes != "" {
			line += t.MutedText.Render("  · " + truncate(row.Item.Notes, 30))
		}
		line = truncateRunesHelper(line, width-4, "…")

		if i == cursor {
			sb.WriteString(t.PrimaryBold.Render("▸ "))
			sb.WriteString(t.Renderer.NewStyle().Foreground(t.Primary).Bold(true).Render(line))
		} else {
			sb.WriteString("  ")
			sb.WriteString(line)
		}
		sb.WriteString("\n")

		if i == cursor && row.Item.Description != "" {
			desc := truncateRunesHelper(row.Item.Description, width-6, "…")
			sb.WriteString("    ")
			sb.WriteString(t.MutedText.Render(desc))
			sb.WriteString("\n")
		}
	}

	return sb.String()
}
