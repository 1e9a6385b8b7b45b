// Package pipeline turns one document file into reconciled invoices:
// layout extraction, page formatting, chunking, concurrent interpretation
// of each page's chunks and in-order reconciliation.
package pipeline

import (
	"context"
	"fmt"
	"log"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"invoiceflow/internal/content"
	"invoiceflow/internal/domain"
	"invoiceflow/internal/layout"
	"invoiceflow/internal/parser"
	"invoiceflow/internal/reconcile"
	"invoiceflow/internal/validator"
)

// Extractor produces the pages of a document.
type Extractor interface {
	Extract(ctx context.Context, path string) (map[int]*layout.PageContent, error)
}

// Interpreter turns one chunk of page text into a candidate.
type Interpreter interface {
	Interpret(ctx context.Context, chunk string) parser.Candidate
}

// Runner is implemented by Pipeline.
type Runner interface {
	Process(ctx context.Context, path string) (*Result, error)
}

// Result is what one file produced.
type Result struct {
	Invoices []domain.Invoice       `json:"invoices"`
	Pages    int                    `json:"pages"`
	Chunks   int                    `json:"chunks"`
	Outcomes map[parser.Outcome]int `json:"outcomes"`
	Issues   []validator.Issue      `json:"issues,omitempty"`
}

// Defaults used when no option overrides them.
const (
	DefaultPageConcurrency = 4
	DefaultMaxInFlight     = 8
)

// Pipeline is safe for concurrent use; every Process call reconciles its
// own file. The in-flight limit is shared by all calls.
type Pipeline struct {
	extractor       Extractor
	interpreter     Interpreter
	chunkSize       int
	pageConcurrency int
	inFlight        *semaphore.Weighted
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithChunkSize sets the formatted-page size above which pages are chunked.
func WithChunkSize(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.chunkSize = n
		}
	}
}

// WithPageConcurrency bounds how many chunks of one page are interpreted at once.
func WithPageConcurrency(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.pageConcurrency = n
		}
	}
}

// WithMaxInFlight bounds concurrent interpretation calls across every file.
func WithMaxInFlight(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.inFlight = semaphore.NewWeighted(int64(n))
		}
	}
}

// New creates a Pipeline.
func New(extractor Extractor, interpreter Interpreter, opts ...Option) *Pipeline {
	p := &Pipeline{
		extractor:       extractor,
		interpreter:     interpreter,
		chunkSize:       content.DefaultChunkSize,
		pageConcurrency: DefaultPageConcurrency,
		inFlight:        semaphore.NewWeighted(DefaultMaxInFlight),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process runs one file through every stage. It fails with
// domain.ErrExtractionFailed when the layout step fails and with
// domain.ErrNoInvoicesFound when nothing survives reconciliation; failed
// chunks only reduce what is found.
func (p *Pipeline) Process(ctx context.Context, path string) (*Result, error) {
	pages, err := p.extractor.Extract(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("pipeline.Pipeline.Process: %w", err)
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("pipeline.Pipeline.Process: %w: no pages detected", domain.ErrExtractionFailed)
	}

	res := &Result{Pages: len(pages), Outcomes: make(map[parser.Outcome]int)}
	rec := reconcile.New()

	for _, n := range layout.PageNumbers(pages) {
		chunks := content.Split(content.Format(pages[n]), p.chunkSize)
		res.Chunks += len(chunks)

		candidates, err := p.interpretPage(ctx, chunks)
		if err != nil {
			return nil, fmt.Errorf("pipeline.Pipeline.Process: page %d: %w", n, err)
		}
		for _, c := range candidates {
			res.Outcomes[c.Outcome]++
			if c.Err != nil {
				log.Printf("pipeline.Pipeline.Process: file=%s page=%d outcome=%s attempts=%d: %v",
					path, n, c.Outcome, c.Attempts, c.Err)
			}
			rec.AddAll(c.Invoices)
		}
	}

	res.Invoices = rec.Finish()
	for i := range res.Invoices {
		res.Issues = append(res.Issues, validator.CheckInvoice(&res.Invoices[i])...)
	}
	if len(res.Issues) > 0 {
		log.Printf("pipeline.Pipeline.Process: file=%s consistency issues: %s", path, validator.Summary(res.Issues))
	}
	log.Printf("pipeline.Pipeline.Process: file=%s pages=%d chunks=%d invoices=%d", path, res.Pages, res.Chunks, len(res.Invoices))

	if len(res.Invoices) == 0 {
		return res, domain.ErrNoInvoicesFound
	}
	return res, nil
}

// interpretPage interprets a page's chunks concurrently and returns the
// candidates in chunk order. Only context cancellation is an error.
func (p *Pipeline) interpretPage(ctx context.Context, chunks []string) ([]parser.Candidate, error) {
	candidates := make([]parser.Candidate, len(chunks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.pageConcurrency)
	for i, chunk := range chunks {
		g.Go(func() error {
			if err := p.inFlight.Acquire(gctx, 1); err != nil {
				return err
			}
			defer p.inFlight.Release(1)
			candidates[i] = p.interpreter.Interpret(gctx, chunk)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return candidates, nil
}
