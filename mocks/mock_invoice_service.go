package mocks

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"invoiceflow/internal/domain"
	"invoiceflow/internal/export"
	"invoiceflow/internal/pipeline"
	"invoiceflow/internal/service"
)

// MockInvoiceService is a mock implementation of service.InvoiceService.
type MockInvoiceService struct {
	mock.Mock
}

func (m *MockInvoiceService) ProcessFiles(ctx context.Context, userID string, files []service.UploadFile) (*service.ProcessSummary, error) {
	args := m.Called(ctx, userID, files)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ProcessSummary), args.Error(1)
}

func (m *MockInvoiceService) Debug(ctx context.Context, file service.UploadFile) (*pipeline.Result, error) {
	args := m.Called(ctx, file)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*pipeline.Result), args.Error(1)
}

func (m *MockInvoiceService) ListInvoices(ctx context.Context, userID string) (*domain.UserInvoices, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.UserInvoices), args.Error(1)
}

func (m *MockInvoiceService) Export(ctx context.Context, userID string, format export.Format, w io.Writer) error {
	args := m.Called(ctx, userID, format, w)
	return args.Error(0)
}
