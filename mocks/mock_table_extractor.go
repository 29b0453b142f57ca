package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"vidalaboral/internal/domain"
	"vidalaboral/internal/port"
)

// MockTableExtractor is a mock implementation of port.TableExtractor.
type MockTableExtractor struct {
	mock.Mock
}

func (m *MockTableExtractor) Extract(ctx context.Context, input port.ExtractInput) ([]domain.Page, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Page), args.Error(1)
}
