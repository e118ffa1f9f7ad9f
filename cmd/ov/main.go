package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/dataportal-labs/ontoview/pkg/biothings"
	"github.com/dataportal-labs/ontoview/pkg/config"
	"github.com/dataportal-labs/ontoview/pkg/export"
	"github.com/dataportal-labs/ontoview/pkg/lineage"
	"github.com/dataportal-labs/ontoview/pkg/logging"
	"github.com/dataportal-labs/ontoview/pkg/model"
	"github.com/dataportal-labs/ontoview/pkg/ols"
	"github.com/dataportal-labs/ontoview/pkg/ontology"
	"github.com/dataportal-labs/ontoview/pkg/search"
	"github.com/dataportal-labs/ontoview/pkg/settings"
	"github.com/dataportal-labs/ontoview/pkg/ui"
)

var (
	cfgPath      string
	debug        bool
	ontologyName string
	query        string
	page         int
	outPath      string
)

var rootCmd = &cobra.Command{
	Use:   "ov",
	Short: "Browse biomedical ontology taxonomies with live document counts",
	Long: `ov walks taxonomy lineages from BioThings and OLS, annotates each
node with document counts from a search API, and renders the result as
an interactive tree, plain text, or an SVG chart.`,
	SilenceUsage: true,
}

var browseCmd = &cobra.Command{
	Use:   "browse <taxon-id>",
	Short: "Open the interactive tree browser",
	Args:  cobra.ExactArgs(1),
	RunE:  runBrowse,
}

var lineageCmd = &cobra.Command{
	Use:   "lineage <taxon-id>",
	Short: "Print the annotated lineage of a term",
	Args:  cobra.ExactArgs(1),
	RunE:  runLineage,
}

var childrenCmd = &cobra.Command{
	Use:   "children <taxon-id>",
	Short: "Print one page of a term's annotated children",
	Args:  cobra.ExactArgs(1),
	RunE:  runChildren,
}

var exportCmd = &cobra.Command{
	Use:   "export <taxon-id>",
	Short: "Export a term's children as an SVG bar chart",
	Args:  cobra.ExactArgs(1),
	RunE:  runExport,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&ontologyName, "ontology", "o", string(model.OntologyNCBITaxon), "Ontology to browse (ncbitaxon, edam)")
	rootCmd.PersistentFlags().StringVarP(&query, "query", "q", "", "Search query whose document counts annotate the tree")

	childrenCmd.Flags().IntVarP(&page, "page", "p", 0, "Zero-based page of children")
	exportCmd.Flags().StringVar(&outPath, "out", "chart.svg", "Output SVG path")

	rootCmd.AddCommand(browseCmd, lineageCmd, childrenCmd, exportCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// setup loads the config and builds the browser shared by every command.
func setup(log *zap.Logger) (config.Config, *ontology.Browser, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return config.Config{}, nil, err
	}
	if debug {
		cfg.Debug = true
	}
	if query != "" {
		cfg.Query = query
	}
	return cfg, buildBrowser(cfg, log), nil
}

func buildBrowser(cfg config.Config, log *zap.Logger) *ontology.Browser {
	registry := ontology.NewRegistry()
	registry.Register(model.OntologyNCBITaxon, biothings.NewClient(
		biothings.WithBaseURL(cfg.BioThingsAPI),
		biothings.WithLogger(log),
	))
	registry.Register(model.OntologyEDAM, ols.NewClient(model.OntologyEDAM,
		ols.WithBaseURL(cfg.OLSAPI),
		ols.WithLogger(log),
	))

	annotator := search.NewClient(cfg.SearchAPI, search.WithLogger(log))
	return ontology.NewBrowser(registry, annotator,
		ontology.WithPageSize(cfg.PageSize),
		ontology.WithLogger(log),
	)
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func runBrowse(cmd *cobra.Command, args []string) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("browse needs a terminal; use 'ov lineage' for plain output")
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	store := settings.NewStore(cfg.SettingsPath, nil)

	// The TUI owns the terminal, so logs go to a file next to the
	// view settings.
	log, err := logging.NewFile(filepath.Join(filepath.Dir(store.Path()), "ov.log"), debug || cfg.Debug)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	browser := buildBrowser(cfg, log)
	q := cfg.Query
	if query != "" {
		q = query
	}

	name := model.Ontology(strings.ToLower(ontologyName))
	m := ui.NewModel(ui.BrowserFetchers(browser, name, q), store, name, args[0], ui.WithLogger(log))
	p := tea.NewProgram(m, tea.WithAltScreen())

	ctx, cancel := signalContext()
	defer cancel()
	go func() {
		err := store.Watch(ctx, func(cfg settings.ViewConfig) {
			p.Send(ui.SettingsChangedMsg{Config: cfg})
		})
		if err != nil && ctx.Err() == nil {
			log.Warn("settings watcher stopped", zap.Error(err))
		}
	}()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running browser: %w", err)
	}
	return nil
}

func runLineage(cmd *cobra.Command, args []string) error {
	log, err := logging.New(debug)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	cfg, browser, err := setup(log)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	name := model.Ontology(strings.ToLower(ontologyName))
	items, err := browser.LoadLineage(ctx, name, args[0], cfg.Query)
	if err != nil {
		return err
	}
	printItems(cmd.OutOrStdout(), items, true)
	return nil
}

func runChildren(cmd *cobra.Command, args []string) error {
	log, err := logging.New(debug)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	cfg, browser, err := setup(log)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	name := model.Ontology(strings.ToLower(ontologyName))
	parent, err := loadNode(ctx, browser, name, args[0], cfg.Query)
	if err != nil {
		return err
	}

	children, pagination, err := browser.LoadChildren(ctx, name, parent, page, cfg.Query)
	if err != nil {
		return err
	}
	lineage.SortChildren(children)
	printItems(cmd.OutOrStdout(), children, false)
	if pagination.HasMore {
		fmt.Fprintf(cmd.OutOrStdout(), "… page %d of %d (%d total); rerun with --page %d\n",
			pagination.NumPage+1, pagination.TotalPages, pagination.TotalElements, pagination.NumPage+1)
	}
	return nil
}

func runExport(cmd *cobra.Command, args []string) error {
	log, err := logging.New(debug)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	cfg, browser, err := setup(log)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	name := model.Ontology(strings.ToLower(ontologyName))
	parent, err := loadNode(ctx, browser, name, args[0], cfg.Query)
	if err != nil {
		return err
	}

	children, _, err := browser.LoadChildren(ctx, name, parent, 0, cfg.Query)
	if err != nil {
		return err
	}

	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("creating %s: %w", outPath, err)
	}
	defer f.Close()

	title := fmt.Sprintf("Children of %s (%s)", parent.Label, parent.TaxonID)
	if err := export.WriteChart(f, title, children); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", outPath)
	return nil
}

// loadNode resolves a taxon id to its lineage entry so children and export
// commands have the parent's label and IRI.
func loadNode(ctx context.Context, browser *ontology.Browser, name model.Ontology, id, query string) (model.LineageItem, error) {
	items, err := browser.LoadLineage(ctx, name, id, query)
	if err != nil {
		return model.LineageItem{}, err
	}
	for _, item := range items {
		if item.Selected {
			return item.LineageItem, nil
		}
	}
	return model.LineageItem{}, fmt.Errorf("taxon %s missing from its own lineage", id)
}

// printItems writes one annotated item per line. Lineage output indents by
// depth; children output stays flat.
func printItems(w io.Writer, items []model.CountedItem, indent bool) {
	for i, item := range items {
		prefix := ""
		if indent {
			prefix = strings.Repeat("  ", i)
		}
		names := ""
		if len(item.CommonName) > 0 {
			names = " (" + strings.Join(item.CommonName, ", ") + ")"
		}
		fmt.Fprintf(w, "%s%s [%s]%s  %d / %d\n",
			prefix, item.Label, item.TaxonID, names, item.Counts.Term, item.Counts.TermAndChildren)
	}
}
