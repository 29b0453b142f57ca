package port

import (
	"context"

	"vidalaboral/internal/domain"
)

// ParseInput carries one document image for vision parsing.
type ParseInput struct {
	FileBytes   []byte
	ContentType string
	// Name identifies the image in logs only.
	Name string
}

// ParseOutput contains the rows a vision model read off one image.
type ParseOutput struct {
	Records    []domain.OCRRecord
	ModelUsed  string
	PromptUsed string
}

// DocumentParser abstracts LLM-based reading of a labor report image.
type DocumentParser interface {
	Parse(ctx context.Context, input ParseInput) (*ParseOutput, error)
}
