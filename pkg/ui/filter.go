package ui

import (
	"github.com/sahilm/fuzzy"

	"github.com/dataportal-labs/ontoview/pkg/model"
)

// filterRows keeps the node rows whose label or common name fuzzy-matches
// the query. Show-more and error rows drop out while a filter is active.
func filterRows(rows []treeRow, items []model.CountedItem, query string) []treeRow {
	nodeRows := make([]treeRow, 0, len(rows))
	targets := make([]string, 0, len(rows))
	for _, row := range rows {
		if row.kind != rowNode {
			continue
		}
		item := items[row.index]
		target := item.Label
		for _, name := range item.CommonName {
			target += " " + name
		}
		nodeRows = append(nodeRows, row)
		targets = append(targets, target)
	}

	matches := fuzzy.Find(query, targets)
	filtered := make([]treeRow, 0, len(matches))
	for _, match := range matches {
		filtered = append(filtered, nodeRows[match.Index])
	}
	return filtered
}
