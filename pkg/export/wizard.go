package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"

	"github.com/vanderheijden86/a11ydeck/pkg/metrics"
	"github.com/vanderheijden86/a11ydeck/pkg/model"
)

// WizardConfig holds the choices collected by the export wizard.
type WizardConfig struct {
	OutputDir        string   `json:"output_dir"`
	Formats          []string `json:"formats"` // "json", "markdown", "svg", "png"
	IncludeChecklist bool     `json:"include_checklist"`
	CopyJSON         bool     `json:"copy_json"`
	ChartTitle       string   `json:"chart_title,omitempty"`
}

// WizardResult lists what the wizard produced.
type WizardResult struct {
	Paths             []string
	CopiedToClipboard bool
}

// Wizard walks the user through exporting a scan interactively.
type Wizard struct {
	config    WizardConfig
	scan      model.ScanResult
	checklist *model.ManualChecklist
}

// NewWizard creates an export wizard for a scan and its optional checklist.
func NewWizard(scan model.ScanResult, checklist *model.ManualChecklist) *Wizard {
	return &Wizard{
		config: WizardConfig{
			OutputDir: ".",
			Formats:   []string{"json"},
		},
		scan:      scan,
		checklist: checklist,
	}
}

// isTerminal checks if stdin is connected to a terminal
func isTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// newForm creates a form with appropriate settings based on TTY detection
func newForm(groups ...*huh.Group) *huh.Form {
	form := huh.NewForm(groups...).WithTheme(huh.ThemeDracula())
	if !isTerminal() {
		form = form.WithAccessible(true)
	}
	return form
}

// Run collects choices and writes the selected artifacts.
func (w *Wizard) Run() (*WizardResult, error) {
	size, err := EstimatedSize(w.scan, w.checklist)
	if err != nil {
		return nil, err
	}

	form := newForm(
		huh.NewGroup(
			huh.NewMultiSelect[string]().
				Title("Export formats").
				Description(fmt.Sprintf("JSON document is about %s", size)).
				Options(
					huh.NewOption("JSON document", "json").Selected(true),
					huh.NewOption("Markdown report", "markdown"),
					huh.NewOption("Severity chart (SVG)", "svg"),
					huh.NewOption("Severity chart (PNG)", "png"),
				).
				Value(&w.config.Formats).
				Validate(func(formats []string) error {
					if len(formats) == 0 {
						return fmt.Errorf("pick at least one format")
					}
					return nil
				}),
			huh.NewInput().
				Title("Output directory").
				Value(&w.config.OutputDir).
				Validate(func(dir string) error {
					if strings.TrimSpace(dir) == "" {
						return fmt.Errorf("output directory is required")
					}
					return nil
				}),
			huh.NewConfirm().
				Title("Copy the JSON document to the clipboard?").
				Value(&w.config.CopyJSON),
		),
		huh.NewGroup(
			huh.NewConfirm().
				Title("Include the manual checklist?").
				Description("Checklist progress is embedded in the JSON and markdown outputs").
				Value(&w.config.IncludeChecklist),
		).WithHideFunc(func() bool { return w.checklist == nil }),
	)
	if err := form.Run(); err != nil {
		return nil, fmt.Errorf("export wizard: %w", err)
	}

	return w.Export()
}

// Export writes the configured artifacts without any prompting. It is the
// non-interactive half of the wizard, reused by the CLI's flag-driven path.
func (w *Wizard) Export() (*WizardResult, error) {
	defer metrics.Timer(metrics.ExportRender)()
	checklist := w.checklist
	if !w.config.IncludeChecklist {
		checklist = nil
	}

	result := &WizardResult{}
	base := strings.TrimSuffix(Filename(w.scan), ".json")

	for _, format := range w.config.Formats {
		switch format {
		case "json":
			path, err := WriteJSON(w.config.OutputDir, w.scan, checklist)
			if err != nil {
				return nil, err
			}
			result.Paths = append(result.Paths, path)
		case "markdown":
			path := filepath.Join(w.config.OutputDir, base+".md")
			if err := w.writeMarkdown(path, checklist); err != nil {
				return nil, err
			}
			result.Paths = append(result.Paths, path)
		case "svg", "png":
			path := filepath.Join(w.config.OutputDir, base+"."+format)
			err := SaveSeverityChart(ChartOptions{
				Path:   path,
				Format: format,
				Title:  w.config.ChartTitle,
				Scan:   w.scan,
			})
			if err != nil {
				return nil, err
			}
			result.Paths = append(result.Paths, path)
		default:
			return nil, fmt.Errorf("unknown export format %q", format)
		}
	}

	if w.config.CopyJSON {
		if err := CopyToClipboard(w.scan, checklist); err != nil {
			return nil, err
		}
		result.CopiedToClipboard = true
	}
	return result, nil
}

func (w *Wizard) writeMarkdown(path string, checklist *model.ManualChecklist) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create export dir: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create markdown report: %w", err)
	}
	defer file.Close()
	return NewMarkdownWriter(file).Write(w.scan, checklist)
}

// Configure overrides the wizard's defaults, for the non-interactive path.
func (w *Wizard) Configure(config WizardConfig) { w.config = config }
