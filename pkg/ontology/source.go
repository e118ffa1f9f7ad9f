// Package ontology routes lineage and children fetches to the upstream
// source implementation registered for an ontology, and composes fetching
// with count annotation.
package ontology

import (
	"context"
	"errors"
	"fmt"

	"github.com/dataportal-labs/ontoview/pkg/model"
)

// ErrMissingID is returned before any network call when a fetch is invoked
// without a term id. This is a caller-contract violation, not a runtime
// condition to recover from.
var ErrMissingID = errors.New("term id is required")

// ErrUnknownOntology is returned when no source is registered for the
// requested ontology.
var ErrUnknownOntology = errors.New("unknown ontology")

// Source fetches lineage and children for terms of one ontology.
// Implementations are stateless one-shot fetchers: they own no prior
// results and perform no retries.
type Source interface {
	// FetchLineage returns the root-to-term ancestor chain for id,
	// ordered root-first. The first element has a nil parent and the last
	// element is the queried term, marked Selected.
	FetchLineage(ctx context.Context, id string) ([]model.LineageItem, error)

	// FetchChildren returns one page of node's direct children. Returned
	// children carry node's taxon ID as parent and are collapsed and
	// unselected.
	FetchChildren(ctx context.Context, node model.LineageItem, page, pageSize int) (model.ChildrenPage, error)
}

// Registry maps ontology names to their source implementation.
type Registry struct {
	sources map[model.Ontology]Source
}

// NewRegistry creates an empty source registry.
func NewRegistry() *Registry {
	return &Registry{sources: make(map[model.Ontology]Source)}
}

// Register binds an ontology name to a source, replacing any previous
// binding.
func (r *Registry) Register(name model.Ontology, source Source) {
	r.sources[name] = source
}

// Lookup returns the source registered for name.
func (r *Registry) Lookup(name model.Ontology) (Source, error) {
	source, ok := r.sources[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownOntology, name)
	}
	return source, nil
}

// Names returns the registered ontology names.
func (r *Registry) Names() []model.Ontology {
	names := make([]model.Ontology, 0, len(r.sources))
	for name := range r.sources {
		names = append(names, name)
	}
	return names
}
