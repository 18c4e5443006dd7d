package mocks

import (
	"github.com/stretchr/testify/mock"

	"cvbatch/internal/domain"
)

// MockEntityRecognizer is a mock implementation of port.EntityRecognizer.
type MockEntityRecognizer struct {
	mock.Mock
}

func (m *MockEntityRecognizer) Recognize(text string) []domain.Entity {
	args := m.Called(text)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]domain.Entity)
}
