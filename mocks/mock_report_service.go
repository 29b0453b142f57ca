package mocks

import (
	"context"
	"io"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"vidalaboral/internal/domain"
	"vidalaboral/internal/service"
)

// MockReportService is a mock implementation of service.ReportService.
type MockReportService struct {
	mock.Mock
}

func (m *MockReportService) result(args mock.Arguments) (*domain.Result, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Result), args.Error(1)
}

func (m *MockReportService) FromPDF(ctx context.Context, fileName string, data []byte, opts service.ProcessOptions) (*domain.Result, error) {
	return m.result(m.Called(ctx, fileName, data, opts))
}

func (m *MockReportService) FromImages(ctx context.Context, images []service.ImageFile, opts service.ProcessOptions) (*domain.Result, error) {
	return m.result(m.Called(ctx, images, opts))
}

func (m *MockReportService) FromGrid(ctx context.Context, fileName string, data []byte, opts service.ProcessOptions) (*domain.Result, error) {
	return m.result(m.Called(ctx, fileName, data, opts))
}

func (m *MockReportService) FromPeriods(ctx context.Context, periods []domain.Period, opts service.ProcessOptions) (*domain.Result, error) {
	return m.result(m.Called(ctx, periods, opts))
}

func (m *MockReportService) GetByID(ctx context.Context, id uuid.UUID) (*domain.Report, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Report), args.Error(1)
}

func (m *MockReportService) List(ctx context.Context, offset, limit int) ([]domain.Report, int, error) {
	args := m.Called(ctx, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.Report), args.Int(1), args.Error(2)
}

func (m *MockReportService) GetDownloadURL(ctx context.Context, id uuid.UUID) (string, error) {
	args := m.Called(ctx, id)
	return args.String(0), args.Error(1)
}

// ExportCSV writes the string given as the first return value to w.
func (m *MockReportService) ExportCSV(ctx context.Context, id uuid.UUID, w io.Writer) (string, error) {
	args := m.Called(ctx, id, w)
	if body, ok := args.Get(0).(string); ok && args.Error(2) == nil {
		_, _ = io.WriteString(w, body)
	}
	return args.String(1), args.Error(2)
}

func (m *MockReportService) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
