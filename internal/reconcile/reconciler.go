// Package reconcile folds the ordered per-chunk invoice candidates of one
// file into final invoice records.
package reconcile

import "invoiceflow/internal/domain"

// Reconciler holds at most one invoice in progress. Consecutive candidates
// with the same invoice number continue it: their items are appended and a
// non-zero total replaces the held total. A different number finalizes the
// held invoice. Invoices that interleave (A, B, A) come out split, one
// record per contiguous run.
//
// A Reconciler belongs to a single file and is not safe for concurrent use.
type Reconciler struct {
	current *domain.Invoice
	done    []domain.Invoice
}

// New returns an empty Reconciler.
func New() *Reconciler {
	return &Reconciler{}
}

// Add feeds one candidate. A nil candidate is a no-op.
func (r *Reconciler) Add(candidate *domain.Invoice) {
	if candidate == nil {
		return
	}
	if r.current == nil {
		r.hold(candidate)
		return
	}
	if r.current.InvoiceNumber == candidate.InvoiceNumber {
		r.current.Items = append(r.current.Items, candidate.Items...)
		if candidate.Total != 0 {
			r.current.Total = candidate.Total
		}
		return
	}
	r.done = append(r.done, *r.current)
	r.hold(candidate)
}

// AddAll feeds candidates in order.
func (r *Reconciler) AddAll(candidates []domain.Invoice) {
	for i := range candidates {
		r.Add(&candidates[i])
	}
}

func (r *Reconciler) hold(candidate *domain.Invoice) {
	c := candidate.Clone()
	r.current = &c
}

// Holding reports whether an invoice is in progress.
func (r *Reconciler) Holding() bool {
	return r.current != nil
}

// Finish finalizes the invoice in progress and returns every finalized
// invoice in input order. The Reconciler is empty afterwards.
func (r *Reconciler) Finish() []domain.Invoice {
	if r.current != nil {
		r.done = append(r.done, *r.current)
		r.current = nil
	}
	out := r.done
	r.done = nil
	return out
}

// Reconcile folds a complete candidate sequence, skipping nil entries.
func Reconcile(candidates []*domain.Invoice) []domain.Invoice {
	r := New()
	for _, c := range candidates {
		r.Add(c)
	}
	return r.Finish()
}
