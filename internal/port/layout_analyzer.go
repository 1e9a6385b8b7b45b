package port

import "context"

// AnalyzeInput identifies the document handed to a layout analyzer.
type AnalyzeInput struct {
	Path        string
	ContentType string
}

// Point is one vertex of a bounding polygon, in page units.
type Point struct {
	X float64
	Y float64
}

// LayoutLine is a line of text with its bounding polygon.
type LayoutLine struct {
	Content string
	Polygon []Point
}

// LayoutPage holds the lines detected on one page.
type LayoutPage struct {
	Number int
	Lines  []LayoutLine
}

// LayoutCell is a single table cell.
type LayoutCell struct {
	RowIndex    int
	ColumnIndex int
	Content     string
}

// LayoutTable is a detected table. Pages lists the page number of each
// bounding region in document order.
type LayoutTable struct {
	Cells []LayoutCell
	Pages []int
}

// LayoutResult is the raw output of a layout analysis call.
type LayoutResult struct {
	Pages  []LayoutPage
	Tables []LayoutTable
}

// LayoutAnalyzer abstracts an external document layout analysis service.
// Analyze is called once per document and blocks until the analysis completes.
type LayoutAnalyzer interface {
	Analyze(ctx context.Context, input AnalyzeInput) (*LayoutResult, error)
}
