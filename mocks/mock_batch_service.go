package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"cvbatch/internal/domain"
	"cvbatch/internal/service"
)

// MockBatchService is a mock implementation of service.BatchService.
type MockBatchService struct {
	mock.Mock
}

func (m *MockBatchService) Process(ctx context.Context, archive []byte) (*domain.BatchResult, error) {
	args := m.Called(ctx, archive)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BatchResult), args.Error(1)
}

func (m *MockBatchService) Info() service.BatchInfo {
	args := m.Called()
	return args.Get(0).(service.BatchInfo)
}
