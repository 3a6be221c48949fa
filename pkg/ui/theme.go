package ui

import (
	"os"

	"github.com/charmbracelet/colorprofile"
	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/a11ydeck/pkg/model"
)

// TermProfile holds the detected terminal color profile. Computed once at
// package init so every style helper can branch without re-detecting.
var TermProfile colorprofile.Profile

func init() {
	TermProfile = colorprofile.Detect(os.Stdout, os.Environ())
}

// ThemeBg returns the given hex color for TrueColor terminals and
// lipgloss.NoColor{} otherwise, so 16/256-color terminals use the
// terminal's own background instead of a down-converted approximation
// that may clash with palettes like Solarized.
func ThemeBg(hex string) lipgloss.TerminalColor {
	if TermProfile < colorprofile.TrueColor {
		return lipgloss.NoColor{}
	}
	return lipgloss.Color(hex)
}

// ThemeFg returns the given hex color for ANSI256+ terminals and a safe
// ANSI white (color 7) for 16-color or lower terminals.
func ThemeFg(hex string) lipgloss.TerminalColor {
	if TermProfile < colorprofile.ANSI256 {
		return lipgloss.ANSIColor(7)
	}
	return lipgloss.Color(hex)
}

type Theme struct {
	Renderer *lipgloss.Renderer

	// Colors
	Primary   lipgloss.AdaptiveColor
	Secondary lipgloss.AdaptiveColor
	Subtext   lipgloss.AdaptiveColor

	// Severity
	Critical lipgloss.AdaptiveColor
	Serious  lipgloss.AdaptiveColor
	Moderate lipgloss.AdaptiveColor
	Minor    lipgloss.AdaptiveColor

	// Triage status
	Open          lipgloss.AdaptiveColor
	Fixed         lipgloss.AdaptiveColor
	Ignored       lipgloss.AdaptiveColor
	NeedsDesign   lipgloss.AdaptiveColor
	FalsePositive lipgloss.AdaptiveColor

	// UI Elements
	Border    lipgloss.AdaptiveColor
	Highlight lipgloss.AdaptiveColor
	Muted     lipgloss.AdaptiveColor

	// Styles
	Base     lipgloss.Style
	Selected lipgloss.Style
	Header   lipgloss.Style

	// Pre-computed delegate styles, created once at startup instead of
	// per-frame.
	MutedText     lipgloss.Style
	InfoText      lipgloss.Style
	SecondaryText lipgloss.Style
	PrimaryBold   lipgloss.Style
	ErrorText     lipgloss.Style
	SuccessText   lipgloss.Style
}

// DefaultTheme returns the standard Dracula-inspired theme (adaptive).
// Severity colors match the page overlay palette so the panel and the
// markers on the page read as one system.
func DefaultTheme(r *lipgloss.Renderer) Theme {
	t := Theme{
		Renderer: r,

		Primary:   lipgloss.AdaptiveColor{Light: "#6B47D9", Dark: "#BD93F9"},
		Secondary: lipgloss.AdaptiveColor{Light: "#555555", Dark: "#6272A4"},
		Subtext:   lipgloss.AdaptiveColor{Light: "#666666", Dark: "#BFBFBF"},

		Critical: lipgloss.AdaptiveColor{Light: "#CC0000", Dark: "#FF5555"},
		Serious:  lipgloss.AdaptiveColor{Light: "#B04500", Dark: "#FFB86C"},
		Moderate: lipgloss.AdaptiveColor{Light: "#996C00", Dark: "#F1FA8C"},
		Minor:    lipgloss.AdaptiveColor{Light: "#0050B0", Dark: "#8BE9FD"},

		Open:          lipgloss.AdaptiveColor{Light: "#CC0000", Dark: "#FF5555"},
		Fixed:         lipgloss.AdaptiveColor{Light: "#007700", Dark: "#50FA7B"},
		Ignored:       lipgloss.AdaptiveColor{Light: "#555555", Dark: "#6272A4"},
		NeedsDesign:   lipgloss.AdaptiveColor{Light: "#6B47D9", Dark: "#BD93F9"},
		FalsePositive: lipgloss.AdaptiveColor{Light: "#006080", Dark: "#8BE9FD"},

		Border:    lipgloss.AdaptiveColor{Light: "#AAAAAA", Dark: "#44475A"},
		Highlight: lipgloss.AdaptiveColor{Light: "#E0E0E0", Dark: "#44475A"},
		Muted:     lipgloss.AdaptiveColor{Light: "#555555", Dark: "#6272A4"},
	}

	t.Base = r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#000000", Dark: "#F8F8F2"})

	t.Selected = r.NewStyle().
		Background(t.Highlight).
		Border(lipgloss.ThickBorder(), false, false, false, true).
		BorderForeground(t.Primary).
		PaddingLeft(1).
		Bold(true)

	t.Header = r.NewStyle().
		Background(t.Primary).
		Foreground(lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#282A36"}).
		Bold(true).
		Padding(0, 1)

	t.MutedText = r.NewStyle().Foreground(ColorMuted)
	t.InfoText = r.NewStyle().Foreground(ColorInfo)
	t.SecondaryText = r.NewStyle().Foreground(t.Secondary)
	t.PrimaryBold = r.NewStyle().Foreground(t.Primary).Bold(true)
	t.ErrorText = r.NewStyle().Foreground(ColorDanger).Bold(true)
	t.SuccessText = r.NewStyle().Foreground(ColorSuccess)

	return t
}

// GetSeverityColor maps an impact to its foreground color.
func (t Theme) GetSeverityColor(impact model.Impact) lipgloss.AdaptiveColor {
	switch impact {
	case model.ImpactCritical:
		return t.Critical
	case model.ImpactSerious:
		return t.Serious
	case model.ImpactModerate:
		return t.Moderate
	case model.ImpactMinor:
		return t.Minor
	default:
		return t.Subtext
	}
}

// GetStatusColor maps a triage status to its foreground color.
func (t Theme) GetStatusColor(s model.Status) lipgloss.AdaptiveColor {
	switch s {
	case model.StatusOpen:
		return t.Open
	case model.StatusFixed:
		return t.Fixed
	case model.StatusIgnored:
		return t.Ignored
	case model.StatusNeedsDesign:
		return t.NeedsDesign
	case model.StatusFalsePositive:
		return t.FalsePositive
	default:
		return t.Subtext
	}
}

// TestTheme returns a theme suitable for use in tests (stdout renderer).
func TestTheme() Theme {
	return DefaultTheme(lipgloss.NewRenderer(os.Stdout))
}
