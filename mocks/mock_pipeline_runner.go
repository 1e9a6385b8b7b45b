package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"invoiceflow/internal/pipeline"
)

// MockPipelineRunner is a mock implementation of pipeline.Runner.
type MockPipelineRunner struct {
	mock.Mock
}

func (m *MockPipelineRunner) Process(ctx context.Context, path string) (*pipeline.Result, error) {
	args := m.Called(ctx, path)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*pipeline.Result), args.Error(1)
}
