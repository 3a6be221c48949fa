package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/a11ydeck/pkg/model"
)

// ══════════════════════════════════════════════════════════════════════════════
// COLOR PALETTE - Adaptive colors for light and dark terminals
// Light mode colors tuned for WCAG AA compliance (contrast ratio >= 4.5:1)
// ══════════════════════════════════════════════════════════════════════════════

var (
	ColorBg          = lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#282A36"}
	ColorBgSubtle    = lipgloss.AdaptiveColor{Light: "#E8E8E8", Dark: "#363949"}
	ColorBgHighlight = lipgloss.AdaptiveColor{Light: "#D0D0D0", Dark: "#44475A"}
	ColorText        = lipgloss.AdaptiveColor{Light: "#1A1A1A", Dark: "#F8F8F2"}
	ColorSubtext     = lipgloss.AdaptiveColor{Light: "#555555", Dark: "#BFBFBF"}
	ColorMuted       = lipgloss.AdaptiveColor{Light: "#666666", Dark: "#6272A4"}

	ColorPrimary   = lipgloss.AdaptiveColor{Light: "#6B47D9", Dark: "#BD93F9"}
	ColorSecondary = lipgloss.AdaptiveColor{Light: "#555555", Dark: "#6272A4"}
	ColorInfo      = lipgloss.AdaptiveColor{Light: "#006080", Dark: "#8BE9FD"}
	ColorSuccess   = lipgloss.AdaptiveColor{Light: "#007700", Dark: "#50FA7B"}
	ColorWarning   = lipgloss.AdaptiveColor{Light: "#B06800", Dark: "#FFB86C"}
	ColorDanger    = lipgloss.AdaptiveColor{Light: "#CC0000", Dark: "#FF5555"}

	// Severity colors
	ColorSevCritical = lipgloss.AdaptiveColor{Light: "#CC0000", Dark: "#FF5555"}
	ColorSevSerious  = lipgloss.AdaptiveColor{Light: "#B04500", Dark: "#FFB86C"}
	ColorSevModerate = lipgloss.AdaptiveColor{Light: "#996C00", Dark: "#F1FA8C"}
	ColorSevMinor    = lipgloss.AdaptiveColor{Light: "#0050B0", Dark: "#8BE9FD"}

	// Severity background colors (for badges) - subtle backgrounds
	ColorSevCriticalBg = lipgloss.AdaptiveColor{Light: "#F8D7DA", Dark: "#3D1A1A"}
	ColorSevSeriousBg  = lipgloss.AdaptiveColor{Light: "#FFE8CC", Dark: "#3D2A1A"}
	ColorSevModerateBg = lipgloss.AdaptiveColor{Light: "#FFF3CD", Dark: "#3D3D1A"}
	ColorSevMinorBg    = lipgloss.AdaptiveColor{Light: "#D1ECF1", Dark: "#1A3344"}

	// Triage status colors
	ColorStatusOpen          = lipgloss.AdaptiveColor{Light: "#CC0000", Dark: "#FF5555"}
	ColorStatusFixed         = lipgloss.AdaptiveColor{Light: "#007700", Dark: "#50FA7B"}
	ColorStatusIgnored       = lipgloss.AdaptiveColor{Light: "#555555", Dark: "#6272A4"}
	ColorStatusNeedsDesign   = lipgloss.AdaptiveColor{Light: "#6B47D9", Dark: "#BD93F9"}
	ColorStatusFalsePositive = lipgloss.AdaptiveColor{Light: "#006080", Dark: "#8BE9FD"}

	// Triage status background colors
	ColorStatusOpenBg          = lipgloss.AdaptiveColor{Light: "#F8D7DA", Dark: "#3D1A1A"}
	ColorStatusFixedBg         = lipgloss.AdaptiveColor{Light: "#D4EDDA", Dark: "#1A3D2A"}
	ColorStatusIgnoredBg       = lipgloss.AdaptiveColor{Light: "#E2E3E5", Dark: "#2A2A3D"}
	ColorStatusNeedsDesignBg   = lipgloss.AdaptiveColor{Light: "#E8DDFF", Dark: "#2A1A44"}
	ColorStatusFalsePositiveBg = lipgloss.AdaptiveColor{Light: "#D1ECF1", Dark: "#1A3344"}

	// WCAG level badge colors
	ColorLevelA   = lipgloss.AdaptiveColor{Light: "#007700", Dark: "#50FA7B"}
	ColorLevelAA  = lipgloss.AdaptiveColor{Light: "#B06800", Dark: "#FFB86C"}
	ColorLevelAAA = lipgloss.AdaptiveColor{Light: "#CC0000", Dark: "#FF5555"}
)

// ══════════════════════════════════════════════════════════════════════════════
// PANEL STYLES - For split view layouts
// ══════════════════════════════════════════════════════════════════════════════

var (
	// PanelStyle is the default style for unfocused panels
	PanelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBgHighlight)

	// FocusedPanelStyle is the style for focused panels
	FocusedPanelStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(ColorPrimary)
)

// ══════════════════════════════════════════════════════════════════════════════
// BADGE RENDERING - Polished, consistent badge styles
// ══════════════════════════════════════════════════════════════════════════════

// RenderSeverityBadge returns a styled severity badge. All labels are four
// cells wide so list rows stay aligned.
func RenderSeverityBadge(impact model.Impact) string {
	var fg, bg lipgloss.AdaptiveColor
	var label string

	switch impact {
	case model.ImpactCritical:
		fg, bg, label = ColorSevCritical, ColorSevCriticalBg, "CRIT"
	case model.ImpactSerious:
		fg, bg, label = ColorSevSerious, ColorSevSeriousBg, "SERI"
	case model.ImpactModerate:
		fg, bg, label = ColorSevModerate, ColorSevModerateBg, "MODR"
	case model.ImpactMinor:
		fg, bg, label = ColorSevMinor, ColorSevMinorBg, "MINR"
	default:
		fg, bg, label = ColorMuted, ColorBgSubtle, "????"
	}

	return lipgloss.NewStyle().
		Foreground(fg).
		Background(bg).
		Bold(true).
		Render(label)
}

// RenderStatusBadge returns a styled triage status badge.
func RenderStatusBadge(status model.Status) string {
	var fg, bg lipgloss.AdaptiveColor
	var label string

	switch status {
	case model.StatusOpen:
		fg, bg, label = ColorStatusOpen, ColorStatusOpenBg, "OPEN"
	case model.StatusFixed:
		fg, bg, label = ColorStatusFixed, ColorStatusFixedBg, "FIXD"
	case model.StatusIgnored:
		fg, bg, label = ColorStatusIgnored, ColorStatusIgnoredBg, "IGNR"
	case model.StatusNeedsDesign:
		fg, bg, label = ColorStatusNeedsDesign, ColorStatusNeedsDesignBg, "DSGN"
	case model.StatusFalsePositive:
		fg, bg, label = ColorStatusFalsePositive, ColorStatusFalsePositiveBg, "FALS"
	default:
		fg, bg, label = ColorMuted, ColorBgSubtle, "????"
	}

	return lipgloss.NewStyle().
		Foreground(fg).
		Background(bg).
		Render(label)
}

// RenderLevelBadge returns a WCAG conformance level badge, right-padded to
// three cells so mixed levels line up.
func RenderLevelBadge(level model.WCAGLevel) string {
	var fg lipgloss.AdaptiveColor
	switch level {
	case model.LevelA:
		fg = ColorLevelA
	case model.LevelAA:
		fg = ColorLevelAA
	case model.LevelAAA:
		fg = ColorLevelAAA
	default:
		fg = ColorMuted
	}

	label := string(level)
	if label == "" {
		label = "?"
	}
	for len(label) < 3 {
		label += " "
	}

	return lipgloss.NewStyle().
		Foreground(fg).
		Background(ColorBgSubtle).
		Bold(true).
		Render(label)
}

// ══════════════════════════════════════════════════════════════════════════════
// DIVIDERS AND SEPARATORS
// ══════════════════════════════════════════════════════════════════════════════

// RenderDivider renders a horizontal divider line
func RenderDivider(width int) string {
	if width <= 0 {
		return ""
	}
	return lipgloss.NewStyle().
		Foreground(ColorBgHighlight).
		Render(strings.Repeat("─", width))
}

// RenderSubtleDivider renders a more subtle divider using dots
func RenderSubtleDivider(width int) string {
	if width <= 0 {
		return ""
	}
	return lipgloss.NewStyle().
		Foreground(ColorMuted).
		Render(strings.Repeat("·", width))
}
