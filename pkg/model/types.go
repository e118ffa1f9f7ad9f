package model

import (
	"fmt"
)

// Ontology identifies which upstream ontology a term belongs to.
type Ontology string

const (
	// OntologyNCBITaxon is the NCBI Taxonomy, served via the BioThings API.
	OntologyNCBITaxon Ontology = "ncbitaxon"
	// OntologyEDAM is the EDAM topic ontology, served via the OLS API.
	OntologyEDAM Ontology = "edam"
)

// LineageItem is one node in an ontology lineage tree.
type LineageItem struct {
	ID            string   `json:"id"`
	TaxonID       string   `json:"taxonId"`
	Label         string   `json:"label"`
	CommonName    []string `json:"commonName,omitempty"`
	Ontology      Ontology `json:"ontologyName"`
	IRI           string   `json:"iri"`
	ParentTaxonID *string  `json:"parentTaxonId"` // nil exactly at the root of a fetched lineage
	HasChildren   bool     `json:"hasChildren"`

	// Transient UI hints, not authoritative domain state.
	Opened   bool `json:"-"`
	Selected bool `json:"-"`
}

// IsRoot returns true if this item is the root of its fetched lineage.
func (li LineageItem) IsRoot() bool {
	return li.ParentTaxonID == nil
}

// Validate checks if the item is logically valid.
func (li *LineageItem) Validate() error {
	if li.TaxonID == "" {
		return fmt.Errorf("lineage item taxon ID cannot be empty")
	}
	if li.Ontology == "" {
		return fmt.Errorf("lineage item %s has no ontology", li.TaxonID)
	}
	if li.ParentTaxonID != nil && *li.ParentTaxonID == li.TaxonID {
		return fmt.Errorf("lineage item %s is its own parent", li.TaxonID)
	}
	return nil
}

// Clone creates a deep copy of the item.
func (li LineageItem) Clone() LineageItem {
	clone := li
	if li.ParentTaxonID != nil {
		v := *li.ParentTaxonID
		clone.ParentTaxonID = &v
	}
	if li.CommonName != nil {
		clone.CommonName = make([]string, len(li.CommonName))
		copy(clone.CommonName, li.CommonName)
	}
	return clone
}

// Counts holds the dataset counts attached to a lineage item by the
// count annotator.
type Counts struct {
	// Term is the number of datasets tagged with this exact taxon.
	Term int `json:"termCount"`
	// TermAndChildren is Term plus datasets tagged with any descendant
	// taxon (inclusive count).
	TermAndChildren int `json:"termAndChildrenCount"`
}

// Validate checks the count invariant: TermAndChildren >= Term >= 0.
func (c Counts) Validate() error {
	if c.Term < 0 {
		return fmt.Errorf("term count cannot be negative: %d", c.Term)
	}
	if c.TermAndChildren < c.Term {
		return fmt.Errorf("inclusive count %d below term count %d", c.TermAndChildren, c.Term)
	}
	return nil
}

// CountedItem is a LineageItem decorated with dataset counts.
type CountedItem struct {
	LineageItem
	Counts Counts `json:"counts"`
}

// IsEmpty returns true if the item has no counts and no known children.
// Empty items are hidden unless the view settings include them.
func (ci CountedItem) IsEmpty() bool {
	return ci.Counts.Term == 0 && ci.Counts.TermAndChildren == 0 && !ci.HasChildren
}

// Pagination is the per-node children-fetch cursor. It is created fresh on
// the first children fetch for a node, replaced on each subsequent page
// fetch, and discarded when the node collapses.
type Pagination struct {
	HasMore       bool `json:"hasMore"`
	NumPage       int  `json:"numPage"`
	TotalPages    int  `json:"totalPages"`
	TotalElements int  `json:"totalElements"`
}

// PaginationFor computes the cursor for a client-side sliced children list
// of totalElements items viewed at numPage with the given pageSize.
func PaginationFor(totalElements, numPage, pageSize int) Pagination {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	totalPages := (totalElements + pageSize - 1) / pageSize
	return Pagination{
		HasMore:       numPage < totalPages-1,
		NumPage:       numPage,
		TotalPages:    totalPages,
		TotalElements: totalElements,
	}
}

// PageBounds returns the half-open slice bounds [lo, hi) for numPage of a
// list with totalElements items.
func PageBounds(totalElements, numPage, pageSize int) (int, int) {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	lo := numPage * pageSize
	if lo > totalElements {
		lo = totalElements
	}
	hi := lo + pageSize
	if hi > totalElements {
		hi = totalElements
	}
	return lo, hi
}

// DefaultPageSize is the number of children fetched per page.
const DefaultPageSize = 20

// ChildrenPage is one page of a node's direct children plus its cursor.
type ChildrenPage struct {
	Children   []LineageItem `json:"children"`
	Pagination Pagination    `json:"pagination"`
}
