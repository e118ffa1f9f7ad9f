package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// HelpModel shows keyboard shortcuts help
type HelpModel struct {
	visible bool
	width   int
	height  int
}

// NewHelpModel creates a new help overlay
func NewHelpModel() HelpModel {
	return HelpModel{}
}

// Show makes the help overlay visible
func (m *HelpModel) Show() {
	m.visible = true
}

// Hide makes the help overlay invisible
func (m *HelpModel) Hide() {
	m.visible = false
}

// IsVisible returns true if overlay is showing
func (m HelpModel) IsVisible() bool {
	return m.visible
}

// SetSize sets dimensions
func (m *HelpModel) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// View renders the help overlay
func (m HelpModel) View() string {
	if !m.visible {
		return ""
	}

	var b strings.Builder

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(ColorPrimary).
		MarginBottom(1)
	b.WriteString(titleStyle.Render("Ontology Browser Help"))
	b.WriteString("\n\n")

	sectionStyle := lipgloss.NewStyle().Bold(true).Foreground(ColorInfo)
	keyStyle := lipgloss.NewStyle().Foreground(ColorPrimary).Width(12)
	descStyle := lipgloss.NewStyle().Foreground(ColorSubtext)

	section := func(name string, shortcuts []struct{ key, desc string }) {
		b.WriteString(sectionStyle.Render(name) + "\n")
		for _, s := range shortcuts {
			b.WriteString("  " + keyStyle.Render(s.key) + descStyle.Render(s.desc) + "\n")
		}
		b.WriteString("\n")
	}

	section("NAVIGATION", []struct{ key, desc string }{
		{"j/↓", "Move down"},
		{"k/↑", "Move up"},
		{"g", "Go to top"},
		{"G", "Go to bottom"},
		{"[", "Reveal earlier ancestors"},
		{"]", "Collapse ancestors again"},
	})
	section("TREE", []struct{ key, desc string }{
		{"enter/space", "Expand or collapse node, load more on ⋯"},
		{"/", "Filter nodes by name"},
		{"y", "Copy node IRI to clipboard"},
	})
	section("VIEW", []struct{ key, desc string }{
		{"c", "Toggle condensed lineage"},
		{"e", "Toggle zero-count nodes"},
		{"?", "Toggle this help"},
		{"q", "Quit"},
	})

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorPrimary).
		Padding(1, 3).
		Render(b.String())

	if m.width > 0 && m.height > 0 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
	}
	return box
}
