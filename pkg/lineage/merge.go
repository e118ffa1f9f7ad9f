// Package lineage maintains the in-memory ontology tree state: folding
// incrementally fetched children into a flat lineage without duplication,
// locating children through parent pointers, the children sort order, and
// the condensed viewport window over deep lineages.
//
// The lineage is a flat slice with parent back-references, not a nested
// tree. Parent/child relationships are derived by filtering on
// ParentTaxonID, which keeps the merge cheap and non-duplicating.
package lineage

import (
	"sort"
	"strconv"

	"github.com/dataportal-labs/ontoview/pkg/model"
)

// Merge folds newly fetched children into an existing lineage.
//
// Children whose taxon ID is already present are dropped, so re-merging an
// overlapping page (re-expansion, out-of-order fetch completion) is
// idempotent. When nothing new arrives, the previous slice is returned
// as-is so callers can skip re-rendering on reference equality. A nil
// previous lineage stays nil: merging is a no-op until a lineage exists.
func Merge(prev, children []model.CountedItem) []model.CountedItem {
	if prev == nil {
		return nil
	}
	if len(children) == 0 {
		return prev
	}

	known := make(map[string]bool, len(prev))
	for _, item := range prev {
		known[item.TaxonID] = true
	}

	fresh := make([]model.CountedItem, 0, len(children))
	for _, child := range children {
		if known[child.TaxonID] {
			continue
		}
		known[child.TaxonID] = true
		fresh = append(fresh, child)
	}
	if len(fresh) == 0 {
		return prev
	}

	merged := make([]model.CountedItem, 0, len(prev)+len(fresh))
	merged = append(merged, prev...)
	return append(merged, fresh...)
}

// Children returns the direct children of parentTaxonID in fetch order.
// Lineages stay small (tens to low hundreds of nodes) so a linear filter
// re-derived per render beats maintaining a secondary index.
func Children(items []model.CountedItem, parentTaxonID string) []model.CountedItem {
	children := make([]model.CountedItem, 0)
	for _, item := range items {
		if item.ParentTaxonID != nil && *item.ParentTaxonID == parentTaxonID {
			children = append(children, item)
		}
	}
	return children
}

// ChildrenMap creates a parent taxon ID -> child indexes mapping so tree
// render passes do one scan instead of one filter per node.
func ChildrenMap(items []model.CountedItem) map[string][]int {
	children := make(map[string][]int)
	for i, item := range items {
		if item.ParentTaxonID != nil {
			children[*item.ParentTaxonID] = append(children[*item.ParentTaxonID], i)
		}
	}
	return children
}

// Root returns the lineage root (the single item without a parent).
func Root(items []model.CountedItem) (model.CountedItem, bool) {
	for _, item := range items {
		if item.IsRoot() {
			return item, true
		}
	}
	return model.CountedItem{}, false
}

// HasTaxon reports whether the lineage already contains taxonID.
func HasTaxon(items []model.CountedItem, taxonID string) bool {
	for _, item := range items {
		if item.TaxonID == taxonID {
			return true
		}
	}
	return false
}

// SortChildren orders a node's children by direct dataset count
// (descending), then by inclusive count (descending), then by numeric
// taxon ID (ascending) for a deterministic total order.
func SortChildren(children []model.CountedItem) {
	sort.SliceStable(children, func(i, j int) bool {
		ci, cj := children[i].Counts, children[j].Counts
		if ci.Term != cj.Term {
			return ci.Term > cj.Term
		}
		if ci.TermAndChildren != cj.TermAndChildren {
			return ci.TermAndChildren > cj.TermAndChildren
		}
		return taxonIDLess(children[i].TaxonID, children[j].TaxonID)
	})
}

// taxonIDLess compares taxon IDs numerically when both parse, falling back
// to a string compare for non-numeric ontology IDs.
func taxonIDLess(a, b string) bool {
	na, errA := strconv.Atoi(a)
	nb, errB := strconv.Atoi(b)
	if errA == nil && errB == nil {
		return na < nb
	}
	return a < b
}
