package export

import (
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/vanderheijden86/a11ydeck/pkg/model"
	"github.com/vanderheijden86/a11ydeck/pkg/version"
)

// MarkdownWriter renders a scan as a GitHub-flavored markdown audit report.
type MarkdownWriter struct {
	output io.Writer
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{output: output}
}

// Write renders the full report: header, severity summary, issues grouped by
// severity, manual verification queue, and the checklist when present.
func (w *MarkdownWriter) Write(scan model.ScanResult, checklist *model.ManualChecklist) error {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, scan)
	w.writeSummary(md, scan)
	w.writeIssues(md, scan)
	w.writeIncomplete(md, scan)
	if checklist != nil {
		w.writeChecklist(md, checklist)
	}
	w.writeFooter(md)

	return md.Build()
}

func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, scan model.ScanResult) {
	md.H1("Accessibility Audit Report")
	md.PlainText("")

	engine := "unknown"
	if scan.Config != nil {
		engine = scan.Config.Engine
		if scan.Config.Version != "" {
			engine += " " + scan.Config.Version
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Page", "`" + scan.URL + "`"},
			{"Scan Date", scan.Timestamp.Format("2006-01-02 15:04:05 MST")},
			{"Engine", engine},
			{"Confirmed Issues", strconv.Itoa(scan.Summary.Total)},
			{"Needs Manual Review", strconv.Itoa(len(scan.IncompleteChecks))},
		},
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, scan model.ScanResult) {
	md.H2("Severity Summary")
	md.PlainText("")

	rows := make([][]string, 0, len(model.Impacts)+1)
	for _, impact := range model.Impacts {
		rows = append(rows, []string{
			severityIcon(impact) + " " + titleCase(string(impact)),
			strconv.Itoa(scan.Summary.BySeverity[impact]),
		})
	}
	rows = append(rows, []string{"**Total**", "**" + strconv.Itoa(scan.Summary.Total) + "**"})
	md.Table(markdown.TableSet{
		Header: []string{"Severity", "Count"},
		Rows:   rows,
	})
	md.PlainText("")

	if scan.Summary.Total > 0 {
		w.writePieChart(md, scan)
	}
	w.writeAlert(md, scan)
}

func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, scan model.ScanResult) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Issue Severity Distribution"),
		piechart.WithShowData(true),
	)
	for _, impact := range model.Impacts {
		if n := scan.Summary.BySeverity[impact]; n > 0 {
			chart.LabelAndIntValue(titleCase(string(impact)), uint64(n))
		}
	}
	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, scan model.ScanResult) {
	critical := scan.Summary.BySeverity[model.ImpactCritical]
	serious := scan.Summary.BySeverity[model.ImpactSerious]
	switch {
	case critical > 0:
		md.Cautionf(
			"%d critical issue(s) block assistive technology users. Fix these first.",
			critical,
		)
	case serious > 0:
		md.Warningf(
			"%d serious issue(s) significantly degrade the experience for some users.",
			serious,
		)
	case scan.Summary.Total > 0:
		md.Note("Only moderate and minor issues remain.")
	default:
		md.Tip("No automated violations detected. Complete the manual checklist to finish the audit.")
	}
	md.PlainText("")
}

func (w *MarkdownWriter) writeIssues(md *markdown.Markdown, scan model.ScanResult) {
	md.H2("Issues")
	md.PlainText("")

	if len(scan.Issues) == 0 {
		md.PlainText("No confirmed issues.")
		md.PlainText("")
		return
	}

	for _, impact := range model.Impacts {
		issues := issuesByImpact(scan.Issues, impact)
		if len(issues) == 0 {
			continue
		}
		md.PlainText("### " + severityIcon(impact) + " " + titleCase(string(impact)))
		md.PlainText("")
		w.writeIssueTable(md, issues)
	}
}

func (w *MarkdownWriter) writeIssueTable(md *markdown.Markdown, issues []model.Issue) {
	rows := make([][]string, len(issues))
	for i, issue := range issues {
		wcag := string(issue.WCAG.Level)
		if len(issue.WCAG.Criteria) > 0 {
			wcag += " (" + strings.Join(issue.WCAG.Criteria, ", ") + ")"
		}
		rows[i] = []string{
			issue.RuleID,
			mdTruncate(issue.Title, 60),
			"`" + mdEscape(mdTruncate(issue.Node.Selector, 40)) + "`",
			wcag,
			string(issue.Status),
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Rule", "Issue", "Element", "WCAG", "Status"},
		Rows:   rows,
	})
	md.PlainText("")

	for _, issue := range issues {
		detail := issue.Description
		for _, rec := range issue.Recommendations {
			detail += "\n\n**" + titleCase(string(rec.Role)) + "** (" + string(rec.Priority) + "): " + rec.Description
			if rec.CodeExample != "" {
				detail += "\n\n```html\n" + rec.CodeExample + "\n```"
			}
		}
		md.Details(issue.Title, detail)
	}
	md.PlainText("")
}

func (w *MarkdownWriter) writeIncomplete(md *markdown.Markdown, scan model.ScanResult) {
	if len(scan.IncompleteChecks) == 0 {
		return
	}
	md.H2("Needs Manual Review")
	md.PlainText("")

	rows := make([][]string, len(scan.IncompleteChecks))
	for i, issue := range scan.IncompleteChecks {
		rows[i] = []string{
			issue.RuleID,
			mdTruncate(issue.Title, 60),
			"`" + mdEscape(mdTruncate(issue.Node.Selector, 40)) + "`",
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Rule", "Finding", "Element"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeChecklist(md *markdown.Markdown, checklist *model.ManualChecklist) {
	md.H2("Manual Checklist")
	md.PlainText("")

	if checklist.Completed {
		md.Tip("All manual checks have been completed.")
	} else {
		md.Note("Manual verification is still in progress.")
	}
	md.PlainText("")

	for _, cat := range checklist.Categories {
		md.PlainText("### " + cat.Title)
		md.PlainText("")
		items := make([]string, len(cat.Items))
		for i, item := range cat.Items {
			line := checkIcon(item.Status) + " " + item.Title
			if item.Notes != "" {
				line += " — " + item.Notes
			}
			items[i] = line
		}
		md.BulletList(items...)
		md.PlainText("")
	}
}

func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by a11ydeck %s*", version.Version)
}

func issuesByImpact(issues []model.Issue, impact model.Impact) []model.Issue {
	var out []model.Issue
	for _, issue := range issues {
		if issue.Impact == impact {
			out = append(out, issue)
		}
	}
	return out
}

func severityIcon(impact model.Impact) string {
	switch impact {
	case model.ImpactCritical:
		return "🔴"
	case model.ImpactSerious:
		return "🟠"
	case model.ImpactModerate:
		return "🟡"
	default:
		return "🔵"
	}
}

func checkIcon(status model.ChecklistItemStatus) string {
	switch status {
	case model.CheckPass:
		return "✅"
	case model.CheckFail:
		return "❌"
	case model.CheckSkip:
		return "⏭️"
	default:
		return "⬜"
	}
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	if s == string(model.RoleQA) {
		return "QA"
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// mdEscape keeps selectors from breaking table cells.
func mdEscape(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.ReplaceAll(s, "|", "\\|")
}

func mdTruncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}
