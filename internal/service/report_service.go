package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"path"
	"time"

	"github.com/google/uuid"

	"vidalaboral/internal/config"
	"vidalaboral/internal/csvexport"
	"vidalaboral/internal/domain"
	"vidalaboral/internal/grid"
	"vidalaboral/internal/labor"
	"vidalaboral/internal/port"
	"vidalaboral/internal/reconcile"
	"vidalaboral/internal/xlsxreport"
)

// ProcessOptions tune a single computation run.
type ProcessOptions struct {
	// Pages selects PDF pages for table extraction. Empty uses the extractor default.
	Pages string
	// StartedBefore keeps only table records that started before this date.
	StartedBefore time.Time
	// ReferenceDate (DD/MM/YYYY) closes open-ended contracts. Empty means today.
	ReferenceDate string
	// CreatedBy is the token subject of the caller, if any.
	CreatedBy string
}

// ReportService runs the vacation computation over each supported input and
// keeps the resulting summaries.
type ReportService interface {
	FromPDF(ctx context.Context, fileName string, data []byte, opts ProcessOptions) (*domain.Result, error)
	FromImages(ctx context.Context, images []ImageFile, opts ProcessOptions) (*domain.Result, error)
	FromGrid(ctx context.Context, fileName string, data []byte, opts ProcessOptions) (*domain.Result, error)
	FromPeriods(ctx context.Context, periods []domain.Period, opts ProcessOptions) (*domain.Result, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Report, error)
	List(ctx context.Context, offset, limit int) ([]domain.Report, int, error)
	GetDownloadURL(ctx context.Context, id uuid.UUID) (string, error)
	ExportCSV(ctx context.Context, id uuid.UUID, w io.Writer) (string, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type reportService struct {
	pipeline   *Pipeline
	reportRepo port.ReportRepository
	storage    port.ObjectStorage
	s3Cfg      *config.S3Config
	reportCfg  *config.ReportConfig
	now        func() time.Time
}

// NewReportService creates a ReportService. storage may be nil, in which case
// no workbook is generated and reports have no download URL.
func NewReportService(
	pipeline *Pipeline,
	reportRepo port.ReportRepository,
	storage port.ObjectStorage,
	s3Cfg *config.S3Config,
	reportCfg *config.ReportConfig,
) ReportService {
	return &reportService{
		pipeline:   pipeline,
		reportRepo: reportRepo,
		storage:    storage,
		s3Cfg:      s3Cfg,
		reportCfg:  reportCfg,
		now:        time.Now,
	}
}

func (s *reportService) FromPDF(ctx context.Context, fileName string, data []byte, opts ProcessOptions) (*domain.Result, error) {
	ref, err := s.referenceDate(opts.ReferenceDate)
	if err != nil {
		return nil, err
	}
	ext, err := s.pipeline.FromPDF(ctx, port.ExtractInput{
		FileBytes: data,
		FileName:  fileName,
		Pages:     opts.Pages,
	}, labor.Options{StartedBefore: opts.StartedBefore})
	if err != nil {
		return nil, err
	}
	log.Printf("service.ReportService.FromPDF: %s assembled %d records", fileName, len(ext.Records))
	return s.finish(ctx, domain.ReportSourcePDF, fileName, ext.Periods, ref, opts.CreatedBy)
}

func (s *reportService) FromImages(ctx context.Context, images []ImageFile, opts ProcessOptions) (*domain.Result, error) {
	ref, err := s.referenceDate(opts.ReferenceDate)
	if err != nil {
		return nil, err
	}
	ext, err := s.pipeline.FromImages(ctx, images)
	if err != nil {
		return nil, err
	}
	return s.finish(ctx, domain.ReportSourceImages, fmt.Sprintf("%d images", len(images)), ext.Periods, ref, opts.CreatedBy)
}

func (s *reportService) FromGrid(ctx context.Context, fileName string, data []byte, opts ProcessOptions) (*domain.Result, error) {
	ref, err := s.referenceDate(opts.ReferenceDate)
	if err != nil {
		return nil, err
	}
	pages, err := grid.Load(fileName, data)
	if err != nil {
		return nil, err
	}
	ext := s.pipeline.FromPages(pages, labor.Options{StartedBefore: opts.StartedBefore})
	log.Printf("service.ReportService.FromGrid: %s: %d pages, %d records", fileName, len(pages), len(ext.Records))
	return s.finish(ctx, domain.ReportSourceGrid, fileName, ext.Periods, ref, opts.CreatedBy)
}

func (s *reportService) FromPeriods(ctx context.Context, periods []domain.Period, opts ProcessOptions) (*domain.Result, error) {
	ref, err := s.referenceDate(opts.ReferenceDate)
	if err != nil {
		return nil, err
	}
	if periods == nil {
		periods = []domain.Period{}
	}
	return s.finish(ctx, domain.ReportSourcePeriods, "", periods, ref, opts.CreatedBy)
}

// finish computes the summary, stores it and publishes the workbook.
// A workbook failure is logged; the computed result is still returned.
func (s *reportService) finish(ctx context.Context, source domain.ReportSource, sourceName string, periods []domain.Period, ref time.Time, createdBy string) (*domain.Result, error) {
	summary := reconcile.Compute(periods, ref)
	vacations, contracts := reconcile.CountPeriods(periods)

	segments, err := json.Marshal(summary.Segments)
	if err != nil {
		return nil, fmt.Errorf("encoding segments: %w", err)
	}

	report := &domain.Report{
		ID:            uuid.New(),
		Source:        source,
		SourceName:    sourceName,
		ReferenceDate: ref,
		VacationCount: vacations,
		ContractCount: contracts,
		TotalDays:     summary.TotalDays,
		Segments:      segments,
		CreatedBy:     createdBy,
		CreatedAt:     s.now().UTC(),
	}
	if err := s.reportRepo.Create(ctx, report); err != nil {
		return nil, fmt.Errorf("saving report: %w", err)
	}
	log.Printf("service.ReportService: report %s (%s) %d vacations, %d contracts -> %d days in %d segments",
		report.ID, source, vacations, contracts, summary.TotalDays, len(summary.Segments))

	result := &domain.Result{
		ReportID: report.ID.String(),
		Periods:  periods,
		Summary:  summary,
	}

	if s.storage != nil {
		url, err := s.publish(ctx, report, summary, periods)
		if err != nil {
			log.Printf("service.ReportService: report %s workbook not published: %v", report.ID, err)
		} else {
			result.ReportURL = url
		}
	}
	return result, nil
}

func (s *reportService) publish(ctx context.Context, report *domain.Report, summary domain.Summary, periods []domain.Period) (string, error) {
	var buf bytes.Buffer
	if err := xlsxreport.Write(&buf, summary, periods); err != nil {
		return "", err
	}

	key := s.reportKey(report.ID)
	if _, err := s.storage.Upload(ctx, port.UploadInput{
		Bucket:      s.s3Cfg.Bucket,
		Key:         key,
		Body:        &buf,
		ContentType: xlsxreport.ContentType,
		FileName:    xlsxreport.FileName,
	}); err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrUploadFailed, err)
	}

	if err := s.reportRepo.UpdateReportKey(ctx, report.ID, s.s3Cfg.Bucket, key); err != nil {
		return "", err
	}
	report.ReportBucket, report.ReportKey = s.s3Cfg.Bucket, key

	return s.storage.GetPresignedURL(ctx, s.s3Cfg.Bucket, key, s.s3Cfg.PresignExpiry)
}

func (s *reportService) reportKey(id uuid.UUID) string {
	return path.Join(s.reportCfg.KeyPrefix, id.String(), xlsxreport.FileName)
}

func (s *reportService) referenceDate(raw string) (time.Time, error) {
	return domain.ResolveReferenceDate(raw, s.reportCfg.Location(), s.now())
}

func (s *reportService) GetByID(ctx context.Context, id uuid.UUID) (*domain.Report, error) {
	return s.reportRepo.GetByID(ctx, id)
}

func (s *reportService) List(ctx context.Context, offset, limit int) ([]domain.Report, int, error) {
	return s.reportRepo.List(ctx, offset, limit)
}

func (s *reportService) GetDownloadURL(ctx context.Context, id uuid.UUID) (string, error) {
	report, err := s.reportRepo.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	if report.ReportKey == "" || s.storage == nil {
		return "", fmt.Errorf("report %s has no workbook: %w", id, domain.ErrNotFound)
	}
	return s.storage.GetPresignedURL(ctx, report.ReportBucket, report.ReportKey, s.s3Cfg.PresignExpiry)
}

// ExportCSV writes the stored segments of a report as CSV and returns the
// suggested file name.
func (s *reportService) ExportCSV(ctx context.Context, id uuid.UUID, w io.Writer) (string, error) {
	report, err := s.reportRepo.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	summary := domain.Summary{TotalDays: report.TotalDays}
	if len(report.Segments) > 0 {
		if err := json.Unmarshal(report.Segments, &summary.Segments); err != nil {
			return "", fmt.Errorf("decoding segments of report %s: %w", id, err)
		}
	}

	if err := csvexport.WriteBOM(w); err != nil {
		return "", err
	}
	cw := csvexport.NewWriter(w)
	if err := cw.WriteSegments(summary); err != nil {
		return "", err
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return "", err
	}

	name := report.SourceName
	if name == "" {
		name = "vacaciones"
	}
	return csvexport.BuildFilename(name, report.CreatedAt), nil
}

func (s *reportService) Delete(ctx context.Context, id uuid.UUID) error {
	report, err := s.reportRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if report.ReportKey != "" && s.storage != nil {
		if err := s.storage.Delete(ctx, report.ReportBucket, report.ReportKey); err != nil {
			log.Printf("service.ReportService.Delete: removing %s: %v", report.ReportKey, err)
		}
	}
	return s.reportRepo.Delete(ctx, id)
}
