package ontology

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/dataportal-labs/ontoview/pkg/model"
)

// Annotator attaches dataset counts to lineage items. The batch is
// all-or-nothing: one failing count query fails the whole call.
type Annotator interface {
	Annotate(ctx context.Context, items []model.LineageItem, query string) ([]model.CountedItem, error)
}

// Browser composes a source registry with a count annotator. It is the
// entry point the CLI and the tree UI share: every load is a fetch
// followed by a count annotation of the fetched page.
type Browser struct {
	registry  *Registry
	annotator Annotator
	pageSize  int
	log       *zap.Logger
}

// BrowserOption configures a Browser.
type BrowserOption func(*Browser)

// WithPageSize sets the children page size.
func WithPageSize(size int) BrowserOption {
	return func(b *Browser) {
		if size > 0 {
			b.pageSize = size
		}
	}
}

// WithLogger sets the logger used for fetch timings.
func WithLogger(log *zap.Logger) BrowserOption {
	return func(b *Browser) {
		b.log = log
	}
}

// NewBrowser creates a Browser over the given registry and annotator.
func NewBrowser(registry *Registry, annotator Annotator, opts ...BrowserOption) *Browser {
	b := &Browser{
		registry:  registry,
		annotator: annotator,
		pageSize:  model.DefaultPageSize,
		log:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// PageSize returns the children page size the browser fetches with.
func (b *Browser) PageSize() int {
	return b.pageSize
}

// LoadLineage fetches the root-first lineage for id and annotates it with
// dataset counts scoped to query.
func (b *Browser) LoadLineage(ctx context.Context, name model.Ontology, id, query string) ([]model.CountedItem, error) {
	source, err := b.registry.Lookup(name)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	items, err := source.FetchLineage(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("fetch lineage %s/%s: %w", name, id, err)
	}
	b.log.Debug("lineage fetched",
		zap.String("ontology", string(name)),
		zap.String("id", id),
		zap.Int("items", len(items)),
		zap.Duration("elapsed", time.Since(start)))

	counted, err := b.annotator.Annotate(ctx, items, query)
	if err != nil {
		return nil, fmt.Errorf("annotate lineage %s/%s: %w", name, id, err)
	}
	return counted, nil
}

// LoadChildren fetches one page of node's children and annotates it.
func (b *Browser) LoadChildren(ctx context.Context, name model.Ontology, node model.LineageItem, page int, query string) ([]model.CountedItem, model.Pagination, error) {
	source, err := b.registry.Lookup(name)
	if err != nil {
		return nil, model.Pagination{}, err
	}

	start := time.Now()
	result, err := source.FetchChildren(ctx, node, page, b.pageSize)
	if err != nil {
		return nil, model.Pagination{}, fmt.Errorf("fetch children of %s/%s page %d: %w", name, node.TaxonID, page, err)
	}
	b.log.Debug("children fetched",
		zap.String("ontology", string(name)),
		zap.String("parent", node.TaxonID),
		zap.Int("page", page),
		zap.Int("children", len(result.Children)),
		zap.Duration("elapsed", time.Since(start)))

	counted, err := b.annotator.Annotate(ctx, result.Children, query)
	if err != nil {
		return nil, model.Pagination{}, fmt.Errorf("annotate children of %s/%s: %w", name, node.TaxonID, err)
	}
	return counted, result.Pagination, nil
}
