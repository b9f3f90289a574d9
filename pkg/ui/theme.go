package ui

import (
	"os"

	"github.com/charmbracelet/colorprofile"
	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/orbview/pkg/explorer"
)

// TermProfile holds the detected terminal color profile. Computed once at
// package init so every style helper can branch without re-detecting.
var TermProfile colorprofile.Profile

func init() {
	TermProfile = colorprofile.Detect(os.Stdout, os.Environ())
}

// ThemeFg returns the given hex color for ANSI256+ terminals and a safe
// ANSI white (color 7) for 16-color or lower terminals.
func ThemeFg(hex string) lipgloss.TerminalColor {
	if TermProfile < colorprofile.ANSI256 {
		return lipgloss.ANSIColor(7)
	}
	return lipgloss.Color(hex)
}

// ThemeBg returns the given hex color for TrueColor terminals and
// lipgloss.NoColor{} otherwise, so limited terminals keep their own
// background.
func ThemeBg(hex string) lipgloss.TerminalColor {
	if TermProfile < colorprofile.TrueColor {
		return lipgloss.NoColor{}
	}
	return lipgloss.Color(hex)
}

var (
	ColorText      = lipgloss.AdaptiveColor{Light: "#1A1A1A", Dark: "#F8F8F2"}
	ColorMuted     = lipgloss.AdaptiveColor{Light: "#666666", Dark: "#6272A4"}
	ColorPrimary   = lipgloss.AdaptiveColor{Light: "#6B47D9", Dark: "#BD93F9"}
	ColorSecondary = lipgloss.AdaptiveColor{Light: "#555555", Dark: "#6272A4"}
	ColorInfo      = lipgloss.AdaptiveColor{Light: "#006080", Dark: "#8BE9FD"}
	ColorSuccess   = lipgloss.AdaptiveColor{Light: "#007700", Dark: "#50FA7B"}
	ColorWarning   = lipgloss.AdaptiveColor{Light: "#B06800", Dark: "#FFB86C"}
	ColorDanger    = lipgloss.AdaptiveColor{Light: "#CC0000", Dark: "#FF5555"}
	ColorBlue      = lipgloss.AdaptiveColor{Light: "#0066CC", Dark: "#6699FF"}
	ColorBorder    = lipgloss.AdaptiveColor{Light: "#AAAAAA", Dark: "#44475A"}
	ColorHighlight = lipgloss.AdaptiveColor{Light: "#E0E0E0", Dark: "#44475A"}
	ColorMatch     = lipgloss.AdaptiveColor{Light: "#7A5600", Dark: "#F1FA8C"}
)

// Theme holds the pre-computed styles of the explorer. Styles are built once
// at startup instead of per frame.
type Theme struct {
	Renderer *lipgloss.Renderer

	Primary   lipgloss.AdaptiveColor
	Secondary lipgloss.AdaptiveColor
	Muted     lipgloss.AdaptiveColor
	Border    lipgloss.AdaptiveColor
	Highlight lipgloss.AdaptiveColor

	Base      lipgloss.Style
	Selected  lipgloss.Style
	Header    lipgloss.Style
	Panel     lipgloss.Style
	MutedText lipgloss.Style
	Branch    lipgloss.Style
	Indicator lipgloss.Style
	Match     lipgloss.Style
	Status    lipgloss.Style
	Error     lipgloss.Style

	badges map[explorer.Severity]lipgloss.Style
}

// DefaultTheme returns the Dracula-inspired adaptive theme.
func DefaultTheme(r *lipgloss.Renderer) Theme {
	t := Theme{
		Renderer:  r,
		Primary:   ColorPrimary,
		Secondary: ColorSecondary,
		Muted:     ColorMuted,
		Border:    ColorBorder,
		Highlight: ColorHighlight,
	}

	t.Base = r.NewStyle().Foreground(ColorText)
	t.Selected = r.NewStyle().
		Background(t.Highlight).
		Foreground(t.Primary).
		Bold(true)
	t.Header = r.NewStyle().
		Background(t.Primary).
		Foreground(lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#282A36"}).
		Bold(true).
		Padding(0, 1)
	t.Panel = r.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Border)
	t.MutedText = r.NewStyle().Foreground(ColorMuted)
	t.Branch = r.NewStyle().Foreground(ColorMuted)
	t.Indicator = r.NewStyle().Foreground(t.Secondary)
	t.Match = r.NewStyle().Foreground(ColorMatch).Bold(true)
	t.Status = r.NewStyle().Foreground(ColorInfo)
	t.Error = r.NewStyle().Foreground(ColorDanger).Bold(true)

	t.badges = map[explorer.Severity]lipgloss.Style{
		explorer.SeverityBlue:    r.NewStyle().Foreground(ThemeFg("#6699FF")).Bold(true),
		explorer.SeverityNeutral: r.NewStyle().Foreground(ColorSecondary),
		explorer.SeverityInfo:    r.NewStyle().Foreground(ColorInfo),
		explorer.SeveritySuccess: r.NewStyle().Foreground(ColorSuccess).Bold(true),
		explorer.SeverityWarning: r.NewStyle().Foreground(ColorWarning).Bold(true),
	}
	return t
}

// BadgeStyle returns the style for a badge severity.
func (t Theme) BadgeStyle(sev explorer.Severity) lipgloss.Style {
	if s, ok := t.badges[sev]; ok {
		return s
	}
	return t.MutedText
}

// TypeIcon returns the glyph and color for a node type.
func (t Theme) TypeIcon(typ explorer.NodeType) (string, lipgloss.AdaptiveColor) {
	switch typ {
	case explorer.TypeWorkspace:
		return "◆", ColorPrimary
	case explorer.TypeScenario:
		return "◷", ColorInfo
	case explorer.TypeSatellite:
		return "✦", ColorBlue
	case explorer.TypeGroundStation:
		return "⌂", ColorSecondary
	case explorer.TypeTarget:
		return "◎", ColorWarning
	case explorer.TypeOpportunity:
		return "↗", ColorInfo
	case explorer.TypePlan, explorer.TypePlanItem:
		return "▣", ColorSuccess
	case explorer.TypeOrder:
		return "✓", ColorSuccess
	case explorer.TypeAnalysisRun, explorer.TypePlanningRun:
		return "↻", ColorSecondary
	case explorer.TypeConstraintItem:
		return "≤", ColorSecondary
	case explorer.TypeImportItem:
		return "⇣", ColorSecondary
	default:
		return "·", ColorMuted
	}
}

// TestTheme returns a theme suitable for use in tests.
func TestTheme() Theme {
	return DefaultTheme(lipgloss.NewRenderer(os.Stdout))
}
