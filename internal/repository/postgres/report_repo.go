package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"vidalaboral/internal/domain"
	"vidalaboral/internal/port"
)

type reportRepo struct {
	db *sqlx.DB
}

// NewReportRepo creates a new PostgreSQL-backed ReportRepository.
func NewReportRepo(db *sqlx.DB) port.ReportRepository {
	return &reportRepo{db: db}
}

const reportColumns = `id, source, source_name, reference_date, vacation_count, contract_count,
	total_days, segments, report_bucket, report_key, created_by, created_at`

func (r *reportRepo) Create(ctx context.Context, report *domain.Report) error {
	if report.CreatedAt.IsZero() {
		report.CreatedAt = time.Now().UTC()
	}
	if len(report.Segments) == 0 {
		report.Segments = []byte("[]")
	}

	query := `INSERT INTO reports (` + reportColumns + `)
		VALUES (:id, :source, :source_name, :reference_date, :vacation_count, :contract_count,
		        :total_days, :segments, :report_bucket, :report_key, :created_by, :created_at)`

	if _, err := r.db.NamedExecContext(ctx, query, report); err != nil {
		return fmt.Errorf("reportRepo.Create: %w", err)
	}
	return nil
}

func (r *reportRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Report, error) {
	var report domain.Report
	err := r.db.GetContext(ctx, &report,
		"SELECT "+reportColumns+" FROM reports WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrReportNotFound
		}
		return nil, fmt.Errorf("reportRepo.GetByID: %w", err)
	}
	return &report, nil
}

func (r *reportRepo) List(ctx context.Context, offset, limit int) ([]domain.Report, int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM reports"); err != nil {
		return nil, 0, fmt.Errorf("reportRepo.List count: %w", err)
	}

	reports := []domain.Report{}
	err := r.db.SelectContext(ctx, &reports,
		"SELECT "+reportColumns+" FROM reports ORDER BY created_at DESC LIMIT $1 OFFSET $2",
		limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("reportRepo.List: %w", err)
	}
	return reports, total, nil
}

func (r *reportRepo) UpdateReportKey(ctx context.Context, id uuid.UUID, bucket, key string) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE reports SET report_bucket = $1, report_key = $2 WHERE id = $3",
		bucket, key, id)
	if err != nil {
		return fmt.Errorf("reportRepo.UpdateReportKey: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrReportNotFound
	}
	return nil
}

func (r *reportRepo) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM reports WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("reportRepo.Delete: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrReportNotFound
	}
	return nil
}
