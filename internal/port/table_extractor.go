package port

import (
	"context"

	"vidalaboral/internal/domain"
)

// ExtractInput carries a PDF and the pages to read tables from.
type ExtractInput struct {
	FileBytes []byte
	FileName  string
	// Pages is a page selector such as "2-5" or "1,3,4". Empty uses the extractor default.
	Pages string
}

// TableExtractor turns a PDF into the raw cell grids of its tables, one per page table.
type TableExtractor interface {
	Extract(ctx context.Context, input ExtractInput) ([]domain.Page, error)
}
