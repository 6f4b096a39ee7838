// internal/html/tables.go
//
// Table extraction: <table> elements as a header row plus data rows,
// used by the content-metrics dimensions of the feature encoder (spec
// §6, 16-47 "heading/para/image/table/list counts").

package html

import (
	xhtml "golang.org/x/net/html"
)

// Table is a flattened <table>: an optional header row and the body rows.
type Table struct {
	Header []string
	Rows   [][]string
}

// ExtractTables returns every <table> element as a Table.
func ExtractTables(doc *Document) []Table {
	if doc == nil || doc.Root == nil {
		return nil
	}

	var tableNodes []*xhtml.Node
	findElementsByTag(doc.Root, "table", &tableNodes)

	out := make([]Table, 0, len(tableNodes))
	for _, tn := range tableNodes {
		var t Table

		var headCells []*xhtml.Node
		findElementsByTag(tn, "th", &headCells)
		for _, c := range headCells {
			t.Header = append(t.Header, cleanWhitespace(textContent(c)))
		}

		var rowNodes []*xhtml.Node
		findElementsByTag(tn, "tr", &rowNodes)
		for _, rn := range rowNodes {
			var cells []*xhtml.Node
			findElementsByTag(rn, "td", &cells)
			if len(cells) == 0 {
				continue
			}
			row := make([]string, 0, len(cells))
			for _, c := range cells {
				row = append(row, cleanWhitespace(textContent(c)))
			}
			t.Rows = append(t.Rows, row)
		}

		out = append(out, t)
	}
	return out
}
