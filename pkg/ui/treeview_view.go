package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/dataportal-labs/ontoview/pkg/model"
)

// headerLines is how many lines the header block occupies above the tree.
const headerLines = 4

// View renders the tree browser.
func (m Model) View() string {
	if m.help.IsVisible() {
		return m.help.View()
	}

	var b strings.Builder
	b.WriteString(m.viewHeader())

	switch {
	case m.loading:
		b.WriteString("\n  " + m.spin.View() + " loading lineage…\n")
	case m.err != nil:
		panel := ErrorPanelStyle.Render(fmt.Sprintf("could not load lineage\n\n%v", m.err))
		b.WriteString("\n" + panel + "\n")
	case len(m.rows) == 0:
		b.WriteString("\n  " + HeaderMetaStyle.Render("nothing to show") + "\n")
	default:
		b.WriteString(m.viewTree())
	}

	b.WriteString(m.viewStatusBar())
	return b.String()
}

func (m Model) viewHeader() string {
	title := TitleStyle.Render("ontoview")
	meta := HeaderMetaStyle.Render(fmt.Sprintf("  %s · %s", m.ontologyName, m.rootID))

	flags := make([]string, 0, 2)
	if m.cfg.Condensed {
		flags = append(flags, "condensed")
	}
	if m.cfg.IncludeEmptyCounts {
		flags = append(flags, "empty counts shown")
	}
	flagLine := ""
	if len(flags) > 0 {
		flagLine = HeaderMetaStyle.Render("  [" + strings.Join(flags, ", ") + "]")
	}

	header := title + meta + flagLine + "\n"
	header += m.viewBreadcrumbs()
	if m.filtering || m.filterQuery != "" {
		header += m.filterInput.View() + "\n"
	} else {
		header += "\n"
	}
	header += "\n"
	return header
}

// viewBreadcrumbs renders the collapsed ancestor prefix of a condensed
// lineage as a breadcrumb trail.
func (m Model) viewBreadcrumbs() string {
	if !m.cfg.Condensed || m.viewport.Start() == 0 || len(m.path) == 0 {
		return "\n"
	}

	crumbs := make([]string, 0, m.viewport.Start()+1)
	crumbs = append(crumbs, BreadcrumbEllipsisStyle.Render("…"))
	for _, taxonID := range m.path[:m.viewport.Start()] {
		if item, ok := m.itemByTaxon(taxonID); ok {
			crumbs = append(crumbs, BreadcrumbStyle.Render(item.Label))
		}
	}
	trail := strings.Join(crumbs, BreadcrumbEllipsisStyle.Render(" › "))
	return truncate(trail, m.contentWidth()) + "\n"
}

func (m Model) viewTree() string {
	var b strings.Builder
	visible := m.treeHeight()
	end := m.scroll + visible
	if end > len(m.rows) {
		end = len(m.rows)
	}
	for i := m.scroll; i < end; i++ {
		b.WriteString(m.viewRow(i) + "\n")
	}
	return b.String()
}

func (m Model) viewRow(i int) string {
	row := m.rows[i]
	indent := strings.Repeat("  ", row.depth)
	selected := i == m.cursor

	switch row.kind {
	case rowShowMore:
		pagination := m.pages[row.parent]
		remaining := pagination.TotalElements - (pagination.NumPage+1)*pageLen(pagination)
		label := fmt.Sprintf("%s⋯ show more (%d remaining)", indent, remaining)
		if m.loadingNode[row.parent] {
			label = fmt.Sprintf("%s%s loading…", indent, m.spin.View())
		}
		if selected {
			return SelectedRowStyle.Render(truncate(label, m.contentWidth()))
		}
		return ShowMoreStyle.Render(truncate(label, m.contentWidth()))

	case rowError:
		label := fmt.Sprintf("%s✗ %s", indent, m.nodeErr[row.parent])
		return InlineErrorStyle.Render(truncate(label, m.contentWidth()))
	}

	item := m.lineage[row.index]
	marker := "·"
	switch {
	case m.loadingNode[item.TaxonID]:
		marker = m.spin.View()
	case m.toggled[item.TaxonID]:
		marker = "▾"
	case item.HasChildren:
		marker = "▸"
	}

	label := item.Label
	if len(item.CommonName) > 0 {
		label += " " + CommonNameStyle.Render("("+item.CommonName[0]+")")
	}

	counts := fmt.Sprintf("%d / %d", item.Counts.Term, item.Counts.TermAndChildren)
	countStyle := CountStyle
	if item.Counts.TermAndChildren == 0 {
		countStyle = ZeroCountStyle
	}

	left := fmt.Sprintf("%s%s %s", indent, marker, label)
	right := countStyle.Render(counts)

	width := m.contentWidth()
	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < SpaceXS {
		left = truncate(left, width-lipgloss.Width(right)-SpaceXS)
		gap = SpaceXS
	}
	line := left + strings.Repeat(" ", gap) + right

	switch {
	case selected:
		return SelectedRowStyle.Render(line)
	case item.Selected:
		return SelectedTermStyle.Render(line)
	default:
		return RowStyle.Render(line)
	}
}

func (m Model) viewStatusBar() string {
	if m.flash != "" {
		return FlashStyle.Render(" " + m.flash)
	}
	return StatusBarStyle.Render(" enter expand · c condensed · e empty · y copy iri · ? help · q quit")
}

func (m Model) treeHeight() int {
	h := m.height - headerLines - 1
	if h < 1 {
		h = defaultTreeHeight
	}
	return h
}

// defaultTreeHeight is used before the first WindowSizeMsg arrives.
const defaultTreeHeight = 20

func (m Model) contentWidth() int {
	if m.width > 2 {
		return m.width - 2
	}
	return 78
}

// pageLen guards against a zero-size pagination when computing the
// remaining-children hint.
func pageLen(p model.Pagination) int {
	if p.TotalPages <= 0 {
		return 1
	}
	per := (p.TotalElements + p.TotalPages - 1) / p.TotalPages
	if per < 1 {
		per = 1
	}
	return per
}

// truncate shortens s to width display cells, appending an ellipsis.
func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	return runewidth.Truncate(s, width, "…")
}
