package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"invoiceflow/internal/domain"
)

// MockInvoiceStore is a mock implementation of port.InvoiceStore.
type MockInvoiceStore struct {
	mock.Mock
}

func (m *MockInvoiceStore) AppendInvoices(ctx context.Context, userID string, invoices []domain.Invoice) (*domain.UserInvoices, error) {
	args := m.Called(ctx, userID, invoices)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.UserInvoices), args.Error(1)
}

func (m *MockInvoiceStore) GetUserInvoices(ctx context.Context, userID string) (*domain.UserInvoices, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.UserInvoices), args.Error(1)
}

func (m *MockInvoiceStore) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
