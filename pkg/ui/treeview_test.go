package ui

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/dataportal-labs/ontoview/pkg/model"
	"github.com/dataportal-labs/ontoview/pkg/settings"
)

// White-box testing of the tree view model logic.

func keyMsg(key string) tea.KeyMsg {
	switch key {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
	}
}

func counted(taxonID, label, parent string, term, inclusive int, hasChildren bool) model.CountedItem {
	item := model.CountedItem{
		LineageItem: model.LineageItem{
			TaxonID:     taxonID,
			Label:       label,
			Ontology:    model.OntologyNCBITaxon,
			IRI:         model.FormatIRI(taxonID, model.OntologyNCBITaxon),
			HasChildren: hasChildren,
		},
		Counts: model.Counts{Term: term, TermAndChildren: inclusive},
	}
	if parent != "" {
		item.ParentTaxonID = &parent
	}
	return item
}

// humanLineage is the root-first chain for taxon 9606 as the lineage
// fetcher would return it: ancestors opened, the queried node selected.
func humanLineage() []model.CountedItem {
	root := counted("1", "root", "", 0, 500, true)
	root.Opened = true
	homininae := counted("207598", "homininae", "1", 2, 120, true)
	homininae.Opened = true
	homo := counted("9605", "homo", "207598", 5, 110, true)
	homo.Opened = true
	human := counted("9606", "homo sapiens", "9605", 100, 100, true)
	human.Selected = true
	return []model.CountedItem{root, homininae, homo, human}
}

func newTestModel(t *testing.T, fetchers Fetchers) Model {
	t.Helper()
	store := settings.NewStore(filepath.Join(t.TempDir(), settings.FileName), nil)
	return NewModel(fetchers, store, model.OntologyNCBITaxon, "9606")
}

func loadedModel(t *testing.T, fetchers Fetchers) Model {
	t.Helper()
	m := newTestModel(t, fetchers)
	mm, _ := m.Update(lineageLoadedMsg{items: humanLineage()})
	return mm.(Model)
}

// nodeRowIndex finds the rendered row for a taxon.
func nodeRowIndex(t *testing.T, m Model, taxonID string) int {
	t.Helper()
	for i, row := range m.rows {
		if row.kind == rowNode && m.lineage[row.index].TaxonID == taxonID {
			return i
		}
	}
	t.Fatalf("no row for taxon %s", taxonID)
	return -1
}

func TestLineageLoadSeedsTree(t *testing.T) {
	m := loadedModel(t, Fetchers{})

	if m.loading {
		t.Error("model still loading after lineage arrived")
	}
	if len(m.rows) != 4 {
		t.Fatalf("got %d rows, want 4", len(m.rows))
	}
	// Ancestors along the path start expanded; cursor lands on the
	// queried node.
	for _, id := range []string{"1", "207598", "9605"} {
		if !m.toggled[id] {
			t.Errorf("ancestor %s not expanded on load", id)
		}
	}
	selected := m.rows[m.cursor]
	if selected.kind != rowNode || m.lineage[selected.index].TaxonID != "9606" {
		t.Error("cursor did not land on the queried node")
	}
}

func TestToggleTwiceFetchesOnce(t *testing.T) {
	var fetchCalls atomic.Int32
	children := []model.CountedItem{
		counted("9604", "hominidae child", "207598", 1, 1, false),
	}
	fetchers := Fetchers{
		Children: func(ctx context.Context, node model.LineageItem, page int) ([]model.CountedItem, model.Pagination, error) {
			fetchCalls.Add(1)
			return children, model.PaginationFor(1, page, 20), nil
		},
	}
	m := loadedModel(t, fetchers)

	// Close then open homininae.
	m.cursor = nodeRowIndex(t, m, "207598")
	mm, cmd := m.Update(keyMsg("enter"))
	m = mm.(Model)
	if m.toggled["207598"] {
		t.Fatal("first toggle should collapse the node")
	}
	if cmd != nil {
		if msg := cmd(); msg != nil {
			t.Fatalf("collapse issued a fetch: %T", msg)
		}
	}

	m.cursor = nodeRowIndex(t, m, "207598")
	mm, cmd = m.Update(keyMsg("enter"))
	m = mm.(Model)
	if !m.toggled["207598"] {
		t.Fatal("second toggle should expand the node")
	}
	if cmd == nil {
		t.Fatal("expand issued no fetch command")
	}

	// Resolve the batch: exactly one children fetch, merged exactly once.
	msg := drainBatch(t, cmd)
	if fetchCalls.Load() != 1 {
		t.Errorf("children fetched %d times, want 1", fetchCalls.Load())
	}
	before := len(m.lineage)
	mm, _ = m.Update(msg)
	m = mm.(Model)
	if len(m.lineage) != before+1 {
		t.Errorf("lineage grew by %d, want 1", len(m.lineage)-before)
	}

	// A duplicate delivery merges idempotently.
	mm, _ = m.Update(msg)
	m = mm.(Model)
	if len(m.lineage) != before+1 {
		t.Error("duplicate children message duplicated nodes")
	}
}

// drainBatch executes a command tree until it yields a children message.
func drainBatch(t *testing.T, cmd tea.Cmd) tea.Msg {
	t.Helper()
	queue := []tea.Cmd{cmd}
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		if next == nil {
			continue
		}
		switch msg := next().(type) {
		case tea.BatchMsg:
			queue = append(queue, msg...)
		case childrenLoadedMsg, childrenErrMsg:
			return msg
		}
	}
	t.Fatal("command batch produced no children message")
	return nil
}

func TestStaleChildrenDropped(t *testing.T) {
	fetchers := Fetchers{
		Children: func(ctx context.Context, node model.LineageItem, page int) ([]model.CountedItem, model.Pagination, error) {
			return []model.CountedItem{counted("9604", "stale child", node.TaxonID, 1, 1, false)},
				model.PaginationFor(1, page, 20), nil
		},
	}
	m := loadedModel(t, fetchers)

	// Collapse homininae first so the next expand fetches fresh.
	m.cursor = nodeRowIndex(t, m, "207598")
	mm, _ := m.Update(keyMsg("enter"))
	m = mm.(Model)
	mm, cmd := m.Update(keyMsg("enter"))
	m = mm.(Model)
	pending := drainBatch(t, cmd)

	// The user collapses again before the fetch resolves.
	mm, _ = m.Update(keyMsg("enter"))
	m = mm.(Model)

	before := len(m.lineage)
	mm, _ = m.Update(pending)
	m = mm.(Model)
	if len(m.lineage) != before {
		t.Error("stale children response was merged after collapse")
	}
}

func TestChildrenFetchErrorIsInline(t *testing.T) {
	fetchErr := errors.New("upstream unavailable")
	fetchers := Fetchers{
		Children: func(ctx context.Context, node model.LineageItem, page int) ([]model.CountedItem, model.Pagination, error) {
			return nil, model.Pagination{}, fetchErr
		},
	}
	m := loadedModel(t, fetchers)

	// 9606 is collapsed; expanding it fails.
	m.cursor = nodeRowIndex(t, m, "9606")
	mm, cmd := m.Update(keyMsg("enter"))
	m = mm.(Model)
	msg := drainBatch(t, cmd)

	mm, _ = m.Update(msg)
	m = mm.(Model)

	if m.toggled["9606"] {
		t.Error("node stayed expanded after a fetch error")
	}
	if m.nodeErr["9606"] == "" {
		t.Error("no inline error recorded")
	}
	if m.err != nil {
		t.Error("per-node failure escalated to the full error panel")
	}

	found := false
	for _, row := range m.rows {
		if row.kind == rowError && row.parent == "9606" {
			found = true
		}
	}
	if !found {
		t.Error("error row not rendered near the node")
	}

	// Re-expanding clears the inline error and retries.
	m.cursor = nodeRowIndex(t, m, "9606")
	mm, cmd = m.Update(keyMsg("enter"))
	m = mm.(Model)
	if m.nodeErr["9606"] != "" {
		t.Error("inline error not cleared on retry")
	}
	if cmd == nil {
		t.Error("retry issued no fetch")
	}
}

func TestEmptyCountToggleRevealsHiddenNodes(t *testing.T) {
	m := loadedModel(t, Fetchers{})

	// Merge in an empty child under homininae.
	empty := counted("99999", "empty taxon", "207598", 0, 0, false)
	mm, _ := m.Update(childrenLoadedMsg{
		parent:     "207598",
		gen:        m.fetchGen["207598"],
		items:      []model.CountedItem{empty},
		pagination: model.PaginationFor(1, 0, 20),
	})
	m = mm.(Model)

	hasRow := func(m Model, taxonID string) bool {
		for _, row := range m.rows {
			if row.kind == rowNode && m.lineage[row.index].TaxonID == taxonID {
				return true
			}
		}
		return false
	}

	if hasRow(m, "99999") {
		t.Fatal("empty node visible while empty counts are excluded")
	}

	// Toggling the setting reveals it without any refetch.
	mm, _ = m.Update(keyMsg("e"))
	m = mm.(Model)
	if !m.cfg.IncludeEmptyCounts {
		t.Fatal("toggle did not flip the setting")
	}
	if !hasRow(m, "99999") {
		t.Error("empty node still hidden after toggling the setting")
	}

	mm, _ = m.Update(keyMsg("e"))
	m = mm.(Model)
	if hasRow(m, "99999") {
		t.Error("empty node still visible after toggling back")
	}
}

func TestShowMoreRowAppearsWithPendingPages(t *testing.T) {
	m := loadedModel(t, Fetchers{})

	children := []model.CountedItem{
		counted("9604", "child a", "9605", 3, 3, false),
	}
	mm, _ := m.Update(childrenLoadedMsg{
		parent:     "9605",
		gen:        m.fetchGen["9605"],
		items:      children,
		pagination: model.PaginationFor(21, 0, 20),
	})
	m = mm.(Model)

	found := false
	for _, row := range m.rows {
		if row.kind == rowShowMore && row.parent == "9605" {
			found = true
		}
	}
	if !found {
		t.Error("no show-more row for a node with pending pages")
	}
}

func TestCondensedToggleChangesVisibleAncestors(t *testing.T) {
	// Build a 6-deep chain so the condensed window collapses the prefix.
	items := make([]model.CountedItem, 0, 6)
	parent := ""
	for i, id := range []string{"1", "2", "3", "4", "5", "6"} {
		item := counted(id, "taxon "+id, parent, 1, 2, true)
		item.Opened = i < 5
		item.Selected = i == 5
		items = append(items, item)
		parent = id
	}

	m := newTestModel(t, Fetchers{})
	mm, _ := m.Update(lineageLoadedMsg{items: items})
	m = mm.(Model)

	if !m.cfg.Condensed {
		t.Skip("default view config no longer condensed")
	}
	// Window starts at len-3 = 3, so taxa 1..3 hide behind breadcrumbs.
	if got := len(m.rows); got != 3 {
		t.Fatalf("condensed view shows %d rows, want 3", got)
	}

	mm, _ = m.Update(keyMsg("c"))
	m = mm.(Model)
	if got := len(m.rows); got != 6 {
		t.Errorf("full view shows %d rows, want 6", got)
	}
}

func TestBreadcrumbNavigationRevealsAncestors(t *testing.T) {
	items := make([]model.CountedItem, 0, 6)
	parent := ""
	for i, id := range []string{"1", "2", "3", "4", "5", "6"} {
		item := counted(id, "taxon "+id, parent, 1, 2, true)
		item.Opened = i < 5
		item.Selected = i == 5
		items = append(items, item)
		parent = id
	}
	m := newTestModel(t, Fetchers{})
	mm, _ := m.Update(lineageLoadedMsg{items: items})
	m = mm.(Model)

	mm, _ = m.Update(keyMsg("["))
	m = mm.(Model)
	if got := len(m.rows); got != 4 {
		t.Errorf("after one step back: %d rows, want 4", got)
	}

	mm, _ = m.Update(keyMsg("]"))
	m = mm.(Model)
	if got := len(m.rows); got != 3 {
		t.Errorf("after stepping forward: %d rows, want 3", got)
	}
	// Forward never exceeds the computed window.
	mm, _ = m.Update(keyMsg("]"))
	m = mm.(Model)
	if got := len(m.rows); got != 3 {
		t.Errorf("forward past the limit: %d rows, want 3", got)
	}
}

func TestFilterNarrowsRows(t *testing.T) {
	m := loadedModel(t, Fetchers{})

	mm, _ := m.Update(keyMsg("/"))
	m = mm.(Model)
	if !m.filtering {
		t.Fatal("slash did not enter filter mode")
	}
	for _, r := range "homo sap" {
		mm, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
		m = mm.(Model)
	}

	for _, row := range m.rows {
		if row.kind != rowNode {
			t.Fatal("non-node row survived filtering")
		}
	}
	if len(m.rows) == 0 {
		t.Fatal("filter dropped every row")
	}
	if m.lineage[m.rows[0].index].TaxonID != "9606" {
		t.Errorf("best match is %s, want 9606", m.lineage[m.rows[0].index].TaxonID)
	}

	mm, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	m = mm.(Model)
	if m.filterQuery != "" || len(m.rows) != 4 {
		t.Error("escape did not clear the filter")
	}
}

func TestTopLevelErrorPanel(t *testing.T) {
	m := newTestModel(t, Fetchers{})
	mm, _ := m.Update(lineageErrMsg{err: errors.New("gateway timeout")})
	m = mm.(Model)

	if m.err == nil {
		t.Fatal("top-level error not recorded")
	}
	view := m.View()
	if !strings.Contains(view, "gateway timeout") {
		t.Error("error panel does not show the upstream message")
	}
}
