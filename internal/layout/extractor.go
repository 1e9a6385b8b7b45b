package layout

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"invoiceflow/internal/domain"
	"invoiceflow/internal/port"
)

// Extractor turns a document on disk into per-page content by calling a
// layout analyzer once per document.
type Extractor struct {
	analyzer port.LayoutAnalyzer
	maxPages int
}

// ExtractorOption configures an Extractor.
type ExtractorOption func(*Extractor)

// WithMaxPages rejects PDFs with more than n pages before the analyzer is
// called. Zero disables the check.
func WithMaxPages(n int) ExtractorOption {
	return func(e *Extractor) { e.maxPages = n }
}

// NewExtractor creates an Extractor around a layout analyzer.
func NewExtractor(analyzer port.LayoutAnalyzer, opts ...ExtractorOption) *Extractor {
	e := &Extractor{analyzer: analyzer}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract analyzes the file at path. Every failure is reported wrapped in
// domain.ErrExtractionFailed; there are no partial results.
func (e *Extractor) Extract(ctx context.Context, path string) (map[int]*PageContent, error) {
	contentType, ok := domain.ContentTypeFor(path)
	if !ok {
		// unknown extensions are sent as PDF
		contentType = "application/pdf"
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrExtractionFailed, err)
	}

	if contentType == "application/pdf" && e.maxPages > 0 {
		count, err := api.PageCountFile(path)
		if err != nil {
			return nil, fmt.Errorf("%w: reading pdf: %v", domain.ErrExtractionFailed, err)
		}
		if count > e.maxPages {
			return nil, fmt.Errorf("%w: %w (%d > %d)", domain.ErrExtractionFailed, domain.ErrTooManyPages, count, e.maxPages)
		}
	}

	result, err := e.analyzer.Analyze(ctx, port.AnalyzeInput{Path: path, ContentType: contentType})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrExtractionFailed, err)
	}

	pages := BuildPages(result)
	log.Printf("layout.Extractor.Extract: file=%s pages=%d tables=%d", path, len(pages), len(result.Tables))
	return pages, nil
}
