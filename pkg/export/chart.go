// Package export renders static artifacts from lineage state. The one
// artifact today is an SVG bar chart of a node's children ranked by
// dataset count, for embedding in reports outside the terminal UI.
package export

import (
	"fmt"
	"io"

	svg "github.com/ajstarks/svgo"

	"github.com/dataportal-labs/ontoview/pkg/lineage"
	"github.com/dataportal-labs/ontoview/pkg/model"
)

const (
	chartWidth  = 800
	rowHeight   = 28
	barHeight   = 18
	labelWidth  = 260
	marginTop   = 56
	marginSide  = 20
	titleSize   = 18
	labelSize   = 13
	barFill     = "fill:#bd93f9"
	labelStyle  = "font-family:sans-serif;font-size:13px;fill:#333333"
	countStyle  = "font-family:sans-serif;font-size:12px;fill:#666666"
	headerStyle = "font-family:sans-serif;font-size:18px;font-weight:bold;fill:#111111"
)

// WriteChart renders a horizontal bar chart of children ordered by the
// standard children sort. Bars scale to the largest inclusive count.
func WriteChart(w io.Writer, title string, children []model.CountedItem) error {
	if len(children) == 0 {
		return fmt.Errorf("no children to chart")
	}

	sorted := make([]model.CountedItem, len(children))
	copy(sorted, children)
	lineage.SortChildren(sorted)

	maxCount := 1
	for _, child := range sorted {
		if child.Counts.TermAndChildren > maxCount {
			maxCount = child.Counts.TermAndChildren
		}
	}

	height := marginTop + rowHeight*len(sorted) + marginSide
	barSpan := chartWidth - labelWidth - 3*marginSide - 60

	canvas := svg.New(w)
	canvas.Start(chartWidth, height)
	canvas.Text(marginSide, marginTop-titleSize, title, headerStyle)

	for i, child := range sorted {
		y := marginTop + i*rowHeight
		label := child.Label
		if label == "" {
			label = child.TaxonID
		}

		canvas.Text(marginSide, y+barHeight-4, label, labelStyle)

		width := child.Counts.TermAndChildren * barSpan / maxCount
		if width < 1 {
			width = 1
		}
		canvas.Rect(marginSide+labelWidth, y, width, barHeight, barFill)
		canvas.Text(marginSide+labelWidth+width+6, y+barHeight-4,
			fmt.Sprintf("%d (%d direct)", child.Counts.TermAndChildren, child.Counts.Term), countStyle)
	}
	canvas.End()
	return nil
}
