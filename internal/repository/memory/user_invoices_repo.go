// Package memory is an in-process InvoiceStore for local runs and tests.
package memory

import (
	"context"
	"sync"
	"time"

	"invoiceflow/internal/domain"
	"invoiceflow/internal/port"
)

type userInvoicesRepo struct {
	mu   sync.RWMutex
	docs map[string]*domain.UserInvoices
	now  func() time.Time
}

// NewUserInvoicesRepo creates an empty in-memory InvoiceStore.
func NewUserInvoicesRepo() port.InvoiceStore {
	return &userInvoicesRepo{docs: make(map[string]*domain.UserInvoices), now: time.Now}
}

func (r *userInvoicesRepo) AppendInvoices(_ context.Context, userID string, invoices []domain.Invoice) (*domain.UserInvoices, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now().UTC()
	doc, ok := r.docs[userID]
	if !ok {
		doc = &domain.UserInvoices{ID: userID, UserID: userID, Invoices: domain.InvoiceList{}, CreatedAt: now}
		r.docs[userID] = doc
	}
	for i := range invoices {
		doc.Invoices = append(doc.Invoices, invoices[i].Clone())
	}
	doc.UpdatedAt = now
	return copyDoc(doc), nil
}

func (r *userInvoicesRepo) GetUserInvoices(_ context.Context, userID string) (*domain.UserInvoices, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	doc, ok := r.docs[userID]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return copyDoc(doc), nil
}

func (r *userInvoicesRepo) Ping(context.Context) error {
	return nil
}

func copyDoc(doc *domain.UserInvoices) *domain.UserInvoices {
	out := *doc
	out.Invoices = make(domain.InvoiceList, len(doc.Invoices))
	for i := range doc.Invoices {
		out.Invoices[i] = doc.Invoices[i].Clone()
	}
	return &out
}
