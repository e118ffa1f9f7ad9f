package lineage

import (
	"github.com/dataportal-labs/ontoview/pkg/model"
)

// MaxVisibleNodes is the lineage length above which the condensed view
// collapses the ancestor prefix behind breadcrumbs.
const MaxVisibleNodes = 5

// condensedTrail is how many trailing ancestors stay visible (plus the
// selected node's subtree) once the prefix is collapsed.
const condensedTrail = 3

// ShowFromIndex computes where the condensed viewport starts for a fresh
// root-first lineage of length n. Short lineages show everything.
func ShowFromIndex(n int) int {
	if n > MaxVisibleNodes {
		return n - condensedTrail
	}
	return 0
}

// Viewport tracks the condensed window over a root-first lineage. The
// start index is computed once per fresh lineage load, then adjusted only
// by explicit breadcrumb navigation: backward to any earlier ancestor, or
// forward again up to the last computed value.
type Viewport struct {
	start int
	limit int
}

// NewViewport computes the viewport for a freshly loaded lineage of
// length n.
func NewViewport(n int) Viewport {
	idx := ShowFromIndex(n)
	return Viewport{start: idx, limit: idx}
}

// Start returns the first visible lineage index.
func (v Viewport) Start() int {
	return v.start
}

// Limit returns the furthest index the viewport may advance to.
func (v Viewport) Limit() int {
	return v.limit
}

// SetStart moves the window start, clamped to [0, Limit].
func (v *Viewport) SetStart(i int) {
	if i < 0 {
		i = 0
	}
	if i > v.limit {
		i = v.limit
	}
	v.start = i
}

// Back moves the window one ancestor earlier.
func (v *Viewport) Back() {
	v.SetStart(v.start - 1)
}

// Forward moves the window one ancestor later, up to the computed limit.
func (v *Viewport) Forward() {
	v.SetStart(v.start + 1)
}

// Visible applies the view-settings visibility policy to one node. A node
// with zero counts and no known children is hidden unless empty counts are
// included. This is a render-time filter: hidden nodes stay in the merged
// state, so flipping the setting restores them without a refetch.
func Visible(item model.CountedItem, includeEmptyCounts, hasFetchedChildren bool) bool {
	if includeEmptyCounts {
		return true
	}
	return !item.IsEmpty() || hasFetchedChildren
}
