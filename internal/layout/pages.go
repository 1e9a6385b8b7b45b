package layout

import (
	"math"
	"sort"
	"strings"

	"invoiceflow/internal/port"
)

// PageContent is one page's cleaned text lines in reading order plus its
// serialized tables.
type PageContent struct {
	Number int
	Lines  []string
	Tables []string
}

// SerializeTable renders table cells row-major: rows in row-index order, each
// row tab-joined from column 0 to the highest column present in that row,
// with missing cells empty.
func SerializeTable(cells []port.LayoutCell) string {
	rows := make(map[int]map[int]string)
	for _, c := range cells {
		row, ok := rows[c.RowIndex]
		if !ok {
			row = make(map[int]string)
			rows[c.RowIndex] = row
		}
		row[c.ColumnIndex] = CleanText(c.Content)
	}

	rowIdx := make([]int, 0, len(rows))
	for idx := range rows {
		rowIdx = append(rowIdx, idx)
	}
	sort.Ints(rowIdx)

	out := make([]string, 0, len(rowIdx))
	for _, idx := range rowIdx {
		row := rows[idx]
		maxCol := 0
		for col := range row {
			if col > maxCol {
				maxCol = col
			}
		}
		cols := make([]string, maxCol+1)
		for col := 0; col <= maxCol; col++ {
			cols[col] = row[col]
		}
		out = append(out, strings.Join(cols, "\t"))
	}
	return strings.Join(out, "\n")
}

type positionedLine struct {
	y, x float64
	text string
}

// linePosition is the minimum y and minimum x over the polygon. A line
// without a polygon sorts to the top left.
func linePosition(poly []port.Point) (y, x float64) {
	if len(poly) == 0 {
		return 0, 0
	}
	y, x = math.Inf(1), math.Inf(1)
	for _, p := range poly {
		y = math.Min(y, p.Y)
		x = math.Min(x, p.X)
	}
	return y, x
}

// OrderLines sorts lines top to bottom, then left to right, then by text.
// It is a positional heuristic and does not recover reading order for
// rotated pages or interleaved multi-column layouts.
func OrderLines(lines []port.LayoutLine) []string {
	positioned := make([]positionedLine, len(lines))
	for i, l := range lines {
		y, x := linePosition(l.Polygon)
		positioned[i] = positionedLine{y: y, x: x, text: CleanText(l.Content)}
	}
	sort.SliceStable(positioned, func(i, j int) bool {
		a, b := positioned[i], positioned[j]
		if a.y != b.y {
			return a.y < b.y
		}
		if a.x != b.x {
			return a.x < b.x
		}
		return a.text < b.text
	})
	out := make([]string, len(positioned))
	for i, p := range positioned {
		out[i] = p.text
	}
	return out
}

// BuildPages converts a layout analysis result into per-page content.
// Tables attach to the page of their first bounding region; a table without
// regions attaches to the lowest detected page.
func BuildPages(result *port.LayoutResult) map[int]*PageContent {
	pages := make(map[int]*PageContent, len(result.Pages))
	for _, p := range result.Pages {
		pages[p.Number] = &PageContent{
			Number: p.Number,
			Lines:  OrderLines(p.Lines),
		}
	}

	for _, t := range result.Tables {
		num := firstPage(pages)
		if len(t.Pages) > 0 {
			num = t.Pages[0]
		}
		page, ok := pages[num]
		if !ok {
			page = &PageContent{Number: num}
			pages[num] = page
		}
		page.Tables = append(page.Tables, SerializeTable(t.Cells))
	}
	return pages
}

// PageNumbers returns the page numbers in ascending order.
func PageNumbers(pages map[int]*PageContent) []int {
	nums := make([]int, 0, len(pages))
	for n := range pages {
		nums = append(nums, n)
	}
	sort.Ints(nums)
	return nums
}

func firstPage(pages map[int]*PageContent) int {
	nums := PageNumbers(pages)
	if len(nums) == 0 {
		return 1
	}
	return nums[0]
}
