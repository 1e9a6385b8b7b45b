// Package content renders extracted pages into the annotated text blocks sent
// for interpretation and splits oversized blocks into line-aligned chunks.
package content

import (
	"fmt"
	"strings"

	"invoiceflow/internal/layout"
)

// DefaultChunkSize is the formatted-page size above which a page is chunked.
const DefaultChunkSize = 14000

// Format renders a page with page markers, numbered text lines and delimited
// tables whose first row is labeled as the header.
func Format(page *layout.PageContent) string {
	pageNumber := page.Number
	parts := []string{fmt.Sprintf("\n----- Page %d Start -----\n", pageNumber)}

	if len(page.Lines) > 0 {
		parts = append(parts, "TEXT CONTENT:")
		for i, line := range page.Lines {
			parts = append(parts, fmt.Sprintf("%d:%s", i+1, line))
		}
	}

	for idx, table := range page.Tables {
		rows := strings.Split(table, "\n")
		parts = append(parts,
			fmt.Sprintf("\n----- Table %d Start -----\n", idx+1),
			"Header: "+rows[0],
		)
		for i, row := range rows[1:] {
			parts = append(parts, fmt.Sprintf("Row %d: %s", i+1, row))
		}
		parts = append(parts, fmt.Sprintf("----- Table %d End -----\n", idx+1))
	}

	parts = append(parts, fmt.Sprintf("----- Page %d End -----\n", pageNumber))
	return strings.Join(parts, "\n")
}
