package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"invoiceflow/internal/port"
)

// MockLayoutAnalyzer is a mock implementation of port.LayoutAnalyzer.
type MockLayoutAnalyzer struct {
	mock.Mock
}

func (m *MockLayoutAnalyzer) Analyze(ctx context.Context, input port.AnalyzeInput) (*port.LayoutResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*port.LayoutResult), args.Error(1)
}
