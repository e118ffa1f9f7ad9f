package lineage

import (
	"testing"

	"github.com/dataportal-labs/ontoview/pkg/model"
)

func TestShowFromIndex(t *testing.T) {
	tests := []struct {
		length int
		want   int
	}{
		{30, 27}, // deep lineage: only the last 3 ancestors stay visible
		{6, 3},
		{5, 0}, // at the threshold everything shows
		{4, 0},
		{0, 0},
	}
	for _, tt := range tests {
		if got := ShowFromIndex(tt.length); got != tt.want {
			t.Errorf("ShowFromIndex(%d) = %d, want %d", tt.length, got, tt.want)
		}
	}
}

func TestViewportNavigation(t *testing.T) {
	v := NewViewport(30)
	if v.Start() != 27 {
		t.Fatalf("fresh viewport start = %d, want 27", v.Start())
	}

	// Breadcrumbs can walk back to any earlier ancestor...
	v.SetStart(2)
	if v.Start() != 2 {
		t.Errorf("start after SetStart(2) = %d", v.Start())
	}
	v.Back()
	v.Back()
	v.Back() // clamped at the root
	if v.Start() != 0 {
		t.Errorf("start after walking past the root = %d", v.Start())
	}

	// ...and forward again, but never past the computed window.
	v.SetStart(40)
	if v.Start() != 27 {
		t.Errorf("start clamped forward = %d, want 27", v.Start())
	}
	v.Forward()
	if v.Start() != 27 {
		t.Errorf("forward past the limit moved start to %d", v.Start())
	}
}

func TestViewportShortLineage(t *testing.T) {
	v := NewViewport(4)
	if v.Start() != 0 || v.Limit() != 0 {
		t.Errorf("short lineage viewport = start %d limit %d", v.Start(), v.Limit())
	}
}

func TestVisibilityToggleReversible(t *testing.T) {
	hidden := model.CountedItem{
		LineageItem: model.LineageItem{TaxonID: "42", Ontology: model.OntologyNCBITaxon},
	}

	if Visible(hidden, false, false) {
		t.Error("empty node should be hidden when empty counts are excluded")
	}
	// Same in-memory item, no refetch: flipping the setting restores it.
	if !Visible(hidden, true, false) {
		t.Error("empty node should reappear when empty counts are included")
	}
}

func TestVisibilityKeepsNonEmptyNodes(t *testing.T) {
	withCounts := model.CountedItem{Counts: model.Counts{Term: 0, TermAndChildren: 3}}
	if !Visible(withCounts, false, false) {
		t.Error("node with descendant counts must stay visible")
	}

	withFlag := model.CountedItem{LineageItem: model.LineageItem{HasChildren: true}}
	if !Visible(withFlag, false, false) {
		t.Error("node with upstream children flag must stay visible")
	}

	// Children already fetched beat a stale zero-count annotation.
	empty := model.CountedItem{}
	if !Visible(empty, false, true) {
		t.Error("node with fetched children must stay visible")
	}
}
