package domain

import "errors"

var (
	ErrNotFound             = errors.New("resource not found")
	ErrUnauthorized         = errors.New("unauthorized")
	ErrUnsupportedFileType  = errors.New("unsupported file type")
	ErrFileTooLarge         = errors.New("file exceeds maximum allowed size")
	ErrUploadFailed         = errors.New("report upload to storage failed")
	ErrReportNotFound       = errors.New("report not found")
	ErrExtractionFailed     = errors.New("table extraction failed")
	ErrNoTables             = errors.New("no tables found in document")
	ErrNoImages             = errors.New("no images provided")
	ErrOCRFailed            = errors.New("image recognition failed")
	ErrInvalidGrid          = errors.New("grid file could not be read")
	ErrInvalidReferenceDate = errors.New("reference date must be DD/MM/YYYY")
	ErrInvalidPageRange     = errors.New("invalid page range")
)
