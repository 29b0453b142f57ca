package port

import (
	"context"

	"github.com/google/uuid"

	"vidalaboral/internal/domain"
)

// ReportRepository stores the final summary of each computed report.
type ReportRepository interface {
	Create(ctx context.Context, report *domain.Report) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Report, error)
	List(ctx context.Context, offset, limit int) ([]domain.Report, int, error)
	UpdateReportKey(ctx context.Context, id uuid.UUID, bucket, key string) error
	Delete(ctx context.Context, id uuid.UUID) error
}
