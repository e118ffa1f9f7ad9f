package ontology

import (
	"context"
	"errors"
	"testing"

	"github.com/dataportal-labs/ontoview/pkg/model"
)

type stubSource struct {
	lineage  []model.LineageItem
	children model.ChildrenPage
	err      error
}

func (s stubSource) FetchLineage(ctx context.Context, id string) ([]model.LineageItem, error) {
	return s.lineage, s.err
}

func (s stubSource) FetchChildren(ctx context.Context, node model.LineageItem, page, pageSize int) (model.ChildrenPage, error) {
	return s.children, s.err
}

type stubAnnotator struct {
	err error
}

func (a stubAnnotator) Annotate(ctx context.Context, items []model.LineageItem, query string) ([]model.CountedItem, error) {
	if a.err != nil {
		return nil, a.err
	}
	counted := make([]model.CountedItem, len(items))
	for i, item := range items {
		counted[i] = model.CountedItem{LineageItem: item, Counts: model.Counts{Term: 1, TermAndChildren: 2}}
	}
	return counted, nil
}

func TestRegistryLookup(t *testing.T) {
	reg := NewRegistry()
	reg.Register(model.OntologyNCBITaxon, stubSource{})

	if _, err := reg.Lookup(model.OntologyNCBITaxon); err != nil {
		t.Errorf("lookup of registered source failed: %v", err)
	}

	_, err := reg.Lookup(model.Ontology("nonexistent"))
	if !errors.Is(err, ErrUnknownOntology) {
		t.Errorf("lookup of unknown ontology: got %v, want ErrUnknownOntology", err)
	}
}

func TestBrowserLoadLineage(t *testing.T) {
	reg := NewRegistry()
	reg.Register(model.OntologyNCBITaxon, stubSource{
		lineage: []model.LineageItem{
			{TaxonID: "1", Ontology: model.OntologyNCBITaxon},
			{TaxonID: "9606", Ontology: model.OntologyNCBITaxon, Selected: true},
		},
	})
	b := NewBrowser(reg, stubAnnotator{})

	counted, err := b.LoadLineage(context.Background(), model.OntologyNCBITaxon, "9606", "")
	if err != nil {
		t.Fatalf("LoadLineage: %v", err)
	}
	if len(counted) != 2 {
		t.Fatalf("got %d items, want 2", len(counted))
	}
	if counted[1].Counts.Term != 1 {
		t.Error("counts were not attached")
	}
}

func TestBrowserLoadLineageUnknownOntology(t *testing.T) {
	b := NewBrowser(NewRegistry(), stubAnnotator{})
	_, err := b.LoadLineage(context.Background(), model.OntologyEDAM, "topic_0121", "")
	if !errors.Is(err, ErrUnknownOntology) {
		t.Errorf("got %v, want ErrUnknownOntology", err)
	}
}

func TestBrowserAnnotationFailureIsTotal(t *testing.T) {
	reg := NewRegistry()
	reg.Register(model.OntologyNCBITaxon, stubSource{
		lineage: []model.LineageItem{{TaxonID: "1", Ontology: model.OntologyNCBITaxon}},
	})
	annErr := errors.New("count query failed")
	b := NewBrowser(reg, stubAnnotator{err: annErr})

	_, err := b.LoadLineage(context.Background(), model.OntologyNCBITaxon, "1", "")
	if !errors.Is(err, annErr) {
		t.Errorf("annotation failure not surfaced: %v", err)
	}
}

func TestBrowserPageSizeOption(t *testing.T) {
	b := NewBrowser(NewRegistry(), stubAnnotator{}, WithPageSize(50))
	if b.PageSize() != 50 {
		t.Errorf("page size = %d, want 50", b.PageSize())
	}
	b = NewBrowser(NewRegistry(), stubAnnotator{}, WithPageSize(0))
	if b.PageSize() != model.DefaultPageSize {
		t.Errorf("zero page size should fall back to default, got %d", b.PageSize())
	}
}
