package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"cvbatch/internal/domain"
)

// MockFieldExtractor is a mock implementation of port.FieldExtractor.
type MockFieldExtractor struct {
	mock.Mock
}

func (m *MockFieldExtractor) Extract(ctx context.Context, text string) (*domain.Fields, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Fields), args.Error(1)
}
