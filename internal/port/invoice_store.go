package port

import (
	"context"

	"invoiceflow/internal/domain"
)

// InvoiceStore persists invoices per user. The user id is both the document
// id and the partition key.
type InvoiceStore interface {
	// AppendInvoices appends to the user's stored list, creating it if absent.
	AppendInvoices(ctx context.Context, userID string, invoices []domain.Invoice) (*domain.UserInvoices, error)
	GetUserInvoices(ctx context.Context, userID string) (*domain.UserInvoices, error)
	Ping(ctx context.Context) error
}
