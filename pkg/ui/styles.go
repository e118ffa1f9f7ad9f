package ui

import (
	"github.com/charmbracelet/lipgloss"
)

// ══════════════════════════════════════════════════════════════════════════════
// DESIGN TOKENS - Consistent spacing, colors, and visual language
// ══════════════════════════════════════════════════════════════════════════════

// Spacing constants for consistent layout (in characters)
const (
	SpaceXS = 1
	SpaceSM = 2
	SpaceMD = 3
)

// ══════════════════════════════════════════════════════════════════════════════
// COLOR PALETTE - Dracula-inspired with semantic count colors
// ══════════════════════════════════════════════════════════════════════════════

var (
	// Base colors
	ColorBg          = lipgloss.Color("#282A36")
	ColorBgHighlight = lipgloss.Color("#44475A")
	ColorText        = lipgloss.Color("#F8F8F2")
	ColorSubtext     = lipgloss.Color("#BFBFBF")
	ColorMuted       = lipgloss.Color("#6272A4")

	// Accent colors
	ColorPrimary = lipgloss.Color("#BD93F9")
	ColorInfo    = lipgloss.Color("#8BE9FD")
	ColorSuccess = lipgloss.Color("#50FA7B")
	ColorWarning = lipgloss.Color("#FFB86C")
	ColorDanger  = lipgloss.Color("#FF5555")
)

// ══════════════════════════════════════════════════════════════════════════════
// SHARED STYLES
// ══════════════════════════════════════════════════════════════════════════════

var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary)

	HeaderMetaStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	BreadcrumbStyle = lipgloss.NewStyle().
			Foreground(ColorInfo)

	BreadcrumbEllipsisStyle = lipgloss.NewStyle().
				Foreground(ColorMuted)

	RowStyle = lipgloss.NewStyle().
			Foreground(ColorText)

	SelectedRowStyle = lipgloss.NewStyle().
				Foreground(ColorText).
				Background(ColorBgHighlight).
				Bold(true)

	SelectedTermStyle = lipgloss.NewStyle().
				Foreground(ColorSuccess).
				Bold(true)

	CommonNameStyle = lipgloss.NewStyle().
			Foreground(ColorMuted).
			Italic(true)

	CountStyle = lipgloss.NewStyle().
			Foreground(ColorInfo)

	ZeroCountStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	ShowMoreStyle = lipgloss.NewStyle().
			Foreground(ColorWarning)

	InlineErrorStyle = lipgloss.NewStyle().
				Foreground(ColorDanger)

	ErrorPanelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorDanger).
			Foreground(ColorDanger).
			Padding(1, 2)

	StatusBarStyle = lipgloss.NewStyle().
			Foreground(ColorSubtext)

	FlashStyle = lipgloss.NewStyle().
			Foreground(ColorSuccess)

	FilterPromptStyle = lipgloss.NewStyle().
				Foreground(ColorPrimary)
)
