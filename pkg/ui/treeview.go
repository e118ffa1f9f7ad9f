package ui

import (
	"context"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/dataportal-labs/ontoview/pkg/lineage"
	"github.com/dataportal-labs/ontoview/pkg/model"
	"github.com/dataportal-labs/ontoview/pkg/ontology"
	"github.com/dataportal-labs/ontoview/pkg/settings"
)

// Fetchers are the async loaders behind the tree view. Tests stub these;
// production wiring adapts an ontology.Browser via BrowserFetchers.
type Fetchers struct {
	Lineage  func(ctx context.Context, id string) ([]model.CountedItem, error)
	Children func(ctx context.Context, node model.LineageItem, page int) ([]model.CountedItem, model.Pagination, error)
}

// BrowserFetchers adapts a Browser for one ontology and search query.
func BrowserFetchers(b *ontology.Browser, name model.Ontology, query string) Fetchers {
	return Fetchers{
		Lineage: func(ctx context.Context, id string) ([]model.CountedItem, error) {
			return b.LoadLineage(ctx, name, id, query)
		},
		Children: func(ctx context.Context, node model.LineageItem, page int) ([]model.CountedItem, model.Pagination, error) {
			return b.LoadChildren(ctx, name, node, page, query)
		},
	}
}

// Messages flowing through the tree view.
type (
	lineageLoadedMsg struct {
		items []model.CountedItem
	}
	lineageErrMsg struct {
		err error
	}
	childrenLoadedMsg struct {
		parent     string
		gen        int
		items      []model.CountedItem
		pagination model.Pagination
	}
	childrenErrMsg struct {
		parent string
		gen    int
		err    error
	}
	clearFlashMsg struct{}

	// SettingsChangedMsg delivers an externally edited view configuration
	// (sent by the settings watcher through Program.Send).
	SettingsChangedMsg struct {
		Config settings.ViewConfig
	}
)

type rowKind int

const (
	rowNode rowKind = iota
	rowShowMore
	rowError
)

// treeRow is one rendered line of the tree.
type treeRow struct {
	kind   rowKind
	index  int    // lineage index, for rowNode
	parent string // owning node, for rowShowMore and rowError
	depth  int
}

// Model is the Bubble Tea model for the ontology tree browser.
type Model struct {
	fetchers Fetchers
	store    *settings.Store
	cfg      settings.ViewConfig
	log      *zap.Logger

	ontologyName model.Ontology
	rootID       string

	// Tree state. The lineage slice is the single authoritative store;
	// everything below is per-node UI state keyed by taxon id.
	lineage     []model.CountedItem
	path        []string // taxon ids of the initially fetched root-first chain
	viewport    lineage.Viewport
	toggled     map[string]bool
	pages       map[string]model.Pagination
	fetchGen    map[string]int
	loadingNode map[string]bool
	nodeErr     map[string]string

	loading bool
	err     error

	rows   []treeRow
	cursor int
	scroll int
	width  int
	height int

	spin        spinner.Model
	filterInput textinput.Model
	filtering   bool
	filterQuery string
	help        HelpModel
	flash       string
}

// Option configures a Model.
type Option func(*Model)

// WithLogger sets the UI logger.
func WithLogger(log *zap.Logger) Option {
	return func(m *Model) {
		m.log = log
	}
}

// NewModel creates a tree browser rooted at the given term id.
func NewModel(fetchers Fetchers, store *settings.Store, name model.Ontology, rootID string, opts ...Option) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = TitleStyle

	fi := textinput.New()
	fi.Prompt = "/"
	fi.PromptStyle = FilterPromptStyle
	fi.CharLimit = 64

	m := Model{
		fetchers:     fetchers,
		store:        store,
		cfg:          store.Load(),
		log:          zap.NewNop(),
		ontologyName: name,
		rootID:       rootID,
		toggled:      make(map[string]bool),
		pages:        make(map[string]model.Pagination),
		fetchGen:     make(map[string]int),
		loadingNode:  make(map[string]bool),
		nodeErr:      make(map[string]string),
		loading:      true,
		spin:         sp,
		filterInput:  fi,
		help:         NewHelpModel(),
	}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

// Init kicks off the top-level lineage load.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spin.Tick, m.loadLineageCmd())
}

func (m Model) loadLineageCmd() tea.Cmd {
	fetch := m.fetchers.Lineage
	id := m.rootID
	return func() tea.Msg {
		items, err := fetch(context.Background(), id)
		if err != nil {
			return lineageErrMsg{err: err}
		}
		return lineageLoadedMsg{items: items}
	}
}

func (m *Model) fetchChildrenCmd(node model.LineageItem, page int) tea.Cmd {
	id := node.TaxonID
	gen := m.fetchGen[id]
	m.loadingNode[id] = true
	fetch := m.fetchers.Children
	return func() tea.Msg {
		items, pagination, err := fetch(context.Background(), node, page)
		if err != nil {
			return childrenErrMsg{parent: id, gen: gen, err: err}
		}
		return childrenLoadedMsg{parent: id, gen: gen, items: items, pagination: pagination}
	}
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.SetSize(msg.Width, msg.Height)
		return m, nil

	case spinner.TickMsg:
		if !m.loading && len(m.loadingNode) == 0 {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case lineageLoadedMsg:
		m.loading = false
		m.err = nil
		m.applyLineage(msg.items)
		return m, nil

	case lineageErrMsg:
		m.loading = false
		m.err = msg.err
		return m, nil

	case childrenLoadedMsg:
		if msg.gen != m.fetchGen[msg.parent] {
			// The node collapsed while this fetch was in flight.
			return m, nil
		}
		delete(m.loadingNode, msg.parent)
		m.lineage = lineage.Merge(m.lineage, msg.items)
		m.pages[msg.parent] = msg.pagination
		m.rebuildRows()
		return m, nil

	case childrenErrMsg:
		if msg.gen != m.fetchGen[msg.parent] {
			return m, nil
		}
		delete(m.loadingNode, msg.parent)
		m.toggled[msg.parent] = false
		m.nodeErr[msg.parent] = msg.err.Error()
		m.rebuildRows()
		return m, nil

	case SettingsChangedMsg:
		m.cfg = msg.Config
		m.rebuildRows()
		return m, nil

	case clearFlashMsg:
		m.flash = ""
		return m, nil

	case tea.KeyMsg:
		if m.help.IsVisible() {
			m.help.Hide()
			return m, nil
		}
		if m.filtering {
			return m.updateFilter(msg)
		}
		return m.updateKeys(msg)
	}
	return m, nil
}

// applyLineage seeds the tree state from a freshly loaded lineage.
func (m *Model) applyLineage(items []model.CountedItem) {
	m.lineage = items
	m.path = make([]string, len(items))
	m.toggled = make(map[string]bool)
	m.pages = make(map[string]model.Pagination)
	m.fetchGen = make(map[string]int)
	m.loadingNode = make(map[string]bool)
	m.nodeErr = make(map[string]string)
	for i, item := range items {
		m.path[i] = item.TaxonID
		if item.Opened {
			m.toggled[item.TaxonID] = true
		}
	}
	// The condensed window is computed once per fresh lineage, not on
	// every merge.
	m.viewport = lineage.NewViewport(len(items))
	m.rebuildRows()

	// Land the cursor on the queried node.
	for i, row := range m.rows {
		if row.kind == rowNode && m.lineage[row.index].Selected {
			m.cursor = i
			break
		}
	}
	m.ensureCursorVisible()
}

func (m Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "j", "down":
		m.moveCursor(1)
	case "k", "up":
		m.moveCursor(-1)
	case "g":
		m.cursor = 0
		m.ensureCursorVisible()
	case "G":
		m.cursor = len(m.rows) - 1
		m.ensureCursorVisible()

	case "enter", " ":
		return m.activateRow()

	case "c":
		m.cfg.Condensed = !m.cfg.Condensed
		m.rebuildRows()
		return m, m.saveSettings()
	case "e":
		m.cfg.IncludeEmptyCounts = !m.cfg.IncludeEmptyCounts
		m.rebuildRows()
		return m, m.saveSettings()

	case "[":
		m.viewport.Back()
		m.rebuildRows()
	case "]":
		m.viewport.Forward()
		m.rebuildRows()

	case "y":
		return m.copyIRI()

	case "/":
		m.filtering = true
		m.filterInput.Focus()
		return m, textinput.Blink

	case "?":
		m.help.Show()
	}
	return m, nil
}

// activateRow toggles the node under the cursor, or fetches the next page
// for a show-more row.
func (m Model) activateRow() (tea.Model, tea.Cmd) {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return m, nil
	}
	row := m.rows[m.cursor]
	switch row.kind {
	case rowNode:
		return m, m.toggleNode(m.lineage[row.index])
	case rowShowMore:
		item, ok := m.itemByTaxon(row.parent)
		if !ok {
			return m, nil
		}
		next := m.pages[row.parent].NumPage + 1
		cmd := m.fetchChildrenCmd(item.LineageItem, next)
		return m, tea.Batch(cmd, m.spin.Tick)
	}
	return m, nil
}

// toggleNode flips a node's expansion. Opening fetches page 0 of its
// children; closing discards the pagination cursor and invalidates any
// in-flight fetch so a stale response cannot repopulate the node.
func (m *Model) toggleNode(item model.CountedItem) tea.Cmd {
	id := item.TaxonID
	delete(m.nodeErr, id)

	if m.toggled[id] {
		m.toggled[id] = false
		delete(m.pages, id)
		delete(m.loadingNode, id)
		m.fetchGen[id]++
		m.rebuildRows()
		return nil
	}

	m.toggled[id] = true
	m.rebuildRows()
	return tea.Batch(m.fetchChildrenCmd(item.LineageItem, 0), m.spin.Tick)
}

func (m Model) copyIRI() (tea.Model, tea.Cmd) {
	if m.cursor < 0 || m.cursor >= len(m.rows) || m.rows[m.cursor].kind != rowNode {
		return m, nil
	}
	iri := m.lineage[m.rows[m.cursor].index].IRI
	if err := clipboard.WriteAll(iri); err != nil {
		m.flash = "clipboard unavailable"
	} else {
		m.flash = "copied " + iri
	}
	return m, tea.Tick(2*time.Second, func(time.Time) tea.Msg { return clearFlashMsg{} })
}

func (m *Model) saveSettings() tea.Cmd {
	cfg := m.cfg
	store := m.store
	log := m.log
	return func() tea.Msg {
		if err := store.Save(cfg); err != nil {
			log.Warn("persist view settings", zap.Error(err))
		}
		return nil
	}
}

func (m *Model) moveCursor(delta int) {
	m.cursor += delta
	if m.cursor < 0 {
		m.cursor = 0
	}
	if m.cursor >= len(m.rows) {
		m.cursor = len(m.rows) - 1
	}
	m.ensureCursorVisible()
}

func (m *Model) ensureCursorVisible() {
	visible := m.treeHeight()
	if visible <= 0 {
		return
	}
	if m.cursor < m.scroll {
		m.scroll = m.cursor
	}
	if m.cursor >= m.scroll+visible {
		m.scroll = m.cursor - visible + 1
	}
	if m.scroll < 0 {
		m.scroll = 0
	}
}

func (m Model) itemByTaxon(taxonID string) (model.CountedItem, bool) {
	for _, item := range m.lineage {
		if item.TaxonID == taxonID {
			return item, true
		}
	}
	return model.CountedItem{}, false
}

// rebuildRows derives the rendered rows from the merged lineage, the
// expansion state, the condensed viewport, and the visibility policy.
func (m *Model) rebuildRows() {
	m.rows = nil
	if len(m.lineage) == 0 || len(m.path) == 0 {
		return
	}

	byTaxon := make(map[string]int, len(m.lineage))
	for i, item := range m.lineage {
		byTaxon[item.TaxonID] = i
	}
	childIdx := lineage.ChildrenMap(m.lineage)

	start := 0
	if m.cfg.Condensed {
		start = m.viewport.Start()
	}
	if start >= len(m.path) {
		start = len(m.path) - 1
	}
	top, ok := byTaxon[m.path[start]]
	if !ok {
		return
	}
	m.appendRows(top, 0, byTaxon, childIdx)

	if m.filterQuery != "" {
		m.rows = filterRows(m.rows, m.lineage, m.filterQuery)
	}
	if m.cursor >= len(m.rows) {
		m.cursor = len(m.rows) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	m.ensureCursorVisible()
}

func (m *Model) appendRows(idx, depth int, byTaxon map[string]int, childIdx map[string][]int) {
	item := m.lineage[idx]
	id := item.TaxonID
	hasFetched := len(childIdx[id]) > 0

	// The queried node always shows, even when empty.
	if !item.Selected && !lineage.Visible(item, m.cfg.IncludeEmptyCounts, hasFetched) {
		return
	}

	m.rows = append(m.rows, treeRow{kind: rowNode, index: idx, depth: depth})
	if m.nodeErr[id] != "" {
		m.rows = append(m.rows, treeRow{kind: rowError, parent: id, depth: depth + 1})
	}
	if !m.toggled[id] {
		return
	}

	children := make([]model.CountedItem, 0, len(childIdx[id]))
	for _, ci := range childIdx[id] {
		children = append(children, m.lineage[ci])
	}
	lineage.SortChildren(children)
	for _, child := range children {
		m.appendRows(byTaxon[child.TaxonID], depth+1, byTaxon, childIdx)
	}

	if pagination, ok := m.pages[id]; ok && pagination.HasMore {
		m.rows = append(m.rows, treeRow{kind: rowShowMore, parent: id, depth: depth + 1})
	}
}

func (m Model) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.filtering = false
		m.filterQuery = ""
		m.filterInput.SetValue("")
		m.filterInput.Blur()
		m.rebuildRows()
		return m, nil
	case "enter":
		m.filtering = false
		m.filterInput.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.filterInput, cmd = m.filterInput.Update(msg)
	m.filterQuery = m.filterInput.Value()
	m.rebuildRows()
	return m, cmd
}
