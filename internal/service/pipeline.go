package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"vidalaboral/internal/domain"
	"vidalaboral/internal/imageprep"
	"vidalaboral/internal/labor"
	"vidalaboral/internal/port"
	"vidalaboral/internal/reconcile"
)

// ImageFile is one page image of a report.
type ImageFile struct {
	Name        string
	Data        []byte
	ContentType string
}

// Extraction is what the input adapters produce before reconciliation.
// Records is empty for the image path, which never sees the table rows.
type Extraction struct {
	Records []domain.Record
	Periods []domain.Period
}

// Pipeline turns raw inputs into classified periods. It holds the external
// collaborators; any of them may be nil when the matching input is unused.
type Pipeline struct {
	extractor   port.TableExtractor
	parser      port.DocumentParser
	preparer    *imageprep.Preparer
	concurrency int
}

// NewPipeline creates a Pipeline. concurrency bounds parallel OCR calls.
func NewPipeline(extractor port.TableExtractor, parser port.DocumentParser, preparer *imageprep.Preparer, concurrency int) *Pipeline {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Pipeline{
		extractor:   extractor,
		parser:      parser,
		preparer:    preparer,
		concurrency: concurrency,
	}
}

// FromPages assembles and classifies pre-extracted table grids.
func (p *Pipeline) FromPages(pages []domain.Page, opts labor.Options) *Extraction {
	records := labor.Assemble(pages)
	periods := labor.NewClassifier(opts).Classify(records)
	return &Extraction{Records: records, Periods: periods}
}

// FromPDF extracts the tables of a PDF and classifies them.
func (p *Pipeline) FromPDF(ctx context.Context, input port.ExtractInput, opts labor.Options) (*Extraction, error) {
	if p.extractor == nil {
		return nil, fmt.Errorf("%w: no table extractor configured", domain.ErrExtractionFailed)
	}
	pages, err := p.extractor.Extract(ctx, input)
	if err != nil {
		return nil, err
	}
	return p.FromPages(pages, opts), nil
}

// FromImages reads every image with the vision parser, at most concurrency
// at a time. Records are concatenated in image order regardless of which
// call finishes first. Any failed image fails the whole batch.
func (p *Pipeline) FromImages(ctx context.Context, images []ImageFile) (*Extraction, error) {
	if len(images) == 0 {
		return nil, domain.ErrNoImages
	}
	if p.parser == nil {
		return nil, fmt.Errorf("%w: no vision parser configured", domain.ErrOCRFailed)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make([][]domain.OCRRecord, len(images))
	errs := make([]error, len(images))
	sem := make(chan struct{}, p.concurrency)
	var wg sync.WaitGroup

	start := time.Now()
	for i := range images {
		img := images[i]
		sem <- struct{}{} // acquire
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }() // release

			if ctx.Err() != nil {
				errs[i] = ctx.Err()
				return
			}
			recs, err := p.readImage(ctx, img)
			if err != nil {
				errs[i] = fmt.Errorf("%s: %w", img.Name, err)
				cancel()
				return
			}
			results[i] = recs
		}(i)
	}
	wg.Wait()

	if err := firstError(errs); err != nil {
		return nil, err
	}

	var all []domain.OCRRecord
	for _, recs := range results {
		all = append(all, recs...)
	}
	periods := labor.NewClassifier(labor.Options{}).FromOCR(all)

	vacations, contracts := reconcile.CountPeriods(periods)
	log.Printf("service.Pipeline.FromImages: %d images -> %d vacation, %d contract records in %s",
		len(images), vacations, contracts, time.Since(start).Round(time.Millisecond))

	return &Extraction{Records: []domain.Record{}, Periods: periods}, nil
}

func (p *Pipeline) readImage(ctx context.Context, img ImageFile) ([]domain.OCRRecord, error) {
	data, contentType := img.Data, img.ContentType
	if p.preparer != nil {
		prepared := p.preparer.ProcessOrOriginal(img.Name, img.Data, img.ContentType)
		data, contentType = prepared.Bytes, prepared.ContentType
	}

	out, err := p.parser.Parse(ctx, port.ParseInput{
		FileBytes:   data,
		ContentType: contentType,
		Name:        img.Name,
	})
	if err != nil {
		return nil, err
	}
	return out.Records, nil
}

// firstError prefers a real failure over the cancellations it triggered.
func firstError(errs []error) error {
	var canceled error
	for _, err := range errs {
		if err == nil {
			continue
		}
		if errors.Is(err, context.Canceled) {
			if canceled == nil {
				canceled = err
			}
			continue
		}
		return wrapOCR(err)
	}
	return canceled
}

// wrapOCR tags parser failures with ErrOCRFailed while keeping the chain,
// so a RateLimitError can still be found with errors.As.
func wrapOCR(err error) error {
	if errors.Is(err, domain.ErrOCRFailed) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrOCRFailed, err)
}
