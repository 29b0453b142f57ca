package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"vidalaboral/internal/config"
	"vidalaboral/internal/csvexport"
	"vidalaboral/internal/domain"
	"vidalaboral/internal/extractor/sidecar"
	"vidalaboral/internal/grid"
	"vidalaboral/internal/imageprep"
	"vidalaboral/internal/labor"
	"vidalaboral/internal/parser"
	"vidalaboral/internal/port"
	"vidalaboral/internal/reconcile"
	"vidalaboral/internal/service"
	"vidalaboral/internal/xlsxreport"
)

const (
	periodsFile = "periods.json"
	summaryFile = "summary.json"
	recordsFile = "situaciones.csv"
)

type options struct {
	gridPath      string
	pdfPath       string
	imagesDir     string
	periodsPath   string
	pages         string
	filter2008    bool
	filterBefore  string
	referenceDate string
	outDir        string
}

func (o *options) validate() error {
	n := 0
	for _, s := range []string{o.gridPath, o.pdfPath, o.imagesDir, o.periodsPath} {
		if s != "" {
			n++
		}
	}
	if n != 1 {
		return errors.New("exactly one of --grid, --pdf, --images or --periods is required")
	}
	if o.imagesDir != "" && (o.filter2008 || o.filterBefore != "") {
		return errors.New("--filter-2008 and --filter-before apply to table input only, not --images")
	}
	return nil
}

func run(ctx context.Context, cfg *config.Config, opts *options) error {
	ref, err := domain.ResolveReferenceDate(opts.referenceDate, cfg.Report.Location(), time.Now())
	if err != nil {
		return err
	}
	before, err := opts.startedBefore()
	if err != nil {
		return err
	}

	ext, err := extract(ctx, cfg, opts, labor.Options{StartedBefore: before})
	if err != nil {
		return err
	}

	summary := reconcile.Compute(ext.Periods, ref)
	vacations, contracts := reconcile.CountPeriods(ext.Periods)
	log.Printf("vacaciones: %d vacation and %d contract periods", vacations, contracts)
	log.Printf("vacaciones: total non-overlapping vacation days: %d", summary.TotalDays)
	log.Printf("vacaciones: non-overlapping vacation periods: %d", len(summary.Segments))

	return writeOutputs(opts.outDir, ext, summary)
}

func extract(ctx context.Context, cfg *config.Config, opts *options, lo labor.Options) (*service.Extraction, error) {
	switch {
	case opts.gridPath != "":
		data, err := os.ReadFile(opts.gridPath)
		if err != nil {
			return nil, err
		}
		pages, err := grid.Load(opts.gridPath, data)
		if err != nil {
			return nil, err
		}
		return service.NewPipeline(nil, nil, nil, 1).FromPages(pages, lo), nil

	case opts.pdfPath != "":
		data, err := os.ReadFile(opts.pdfPath)
		if err != nil {
			return nil, err
		}
		p := service.NewPipeline(sidecar.NewClient(&cfg.Extractor), nil, nil, 1)
		return p.FromPDF(ctx, port.ExtractInput{
			FileBytes: data,
			FileName:  filepath.Base(opts.pdfPath),
			Pages:     opts.pages,
		}, lo)

	case opts.imagesDir != "":
		images, err := loadImages(opts.imagesDir)
		if err != nil {
			return nil, err
		}
		docParser, err := parser.NewFromConfig(&cfg.Parser)
		if err != nil {
			return nil, err
		}
		p := service.NewPipeline(nil, docParser, imageprep.New(cfg.Imaging), cfg.Parser.Concurrency)
		return p.FromImages(ctx, images)

	default:
		data, err := os.ReadFile(opts.periodsPath)
		if err != nil {
			return nil, err
		}
		var periods []domain.Period
		if err := json.Unmarshal(data, &periods); err != nil {
			return nil, fmt.Errorf("decoding %s: %w", opts.periodsPath, err)
		}
		return &service.Extraction{Records: []domain.Record{}, Periods: periods}, nil
	}
}

// loadImages reads every .jpg/.jpeg/.png in dir, sorted by name.
func loadImages(dir string) ([]service.ImageFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var images []service.ImageFile
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(e.Name())), ".")
		contentType, ok := domain.ImageContentTypes[domain.AllowedExtensions[ext]]
		if !ok {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		images = append(images, service.ImageFile{Name: e.Name(), Data: data, ContentType: contentType})
	}
	if len(images) == 0 {
		return nil, fmt.Errorf("%s: %w", dir, domain.ErrNoImages)
	}
	sort.Slice(images, func(i, j int) bool { return images[i].Name < images[j].Name })
	log.Printf("vacaciones: found %d images in %s", len(images), dir)
	return images, nil
}

func writeOutputs(dir string, ext *service.Extraction, summary domain.Summary) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	if err := writeJSON(filepath.Join(dir, periodsFile), ext.Periods); err != nil {
		return err
	}
	result := domain.Result{Periods: ext.Periods, Summary: summary}
	if err := writeJSON(filepath.Join(dir, summaryFile), result); err != nil {
		return err
	}

	xlsxPath := filepath.Join(dir, xlsxreport.FileName)
	if err := writeFile(xlsxPath, func(f *os.File) error {
		return xlsxreport.Write(f, summary, ext.Periods)
	}); err != nil {
		return err
	}
	log.Printf("vacaciones: Excel report saved as %s", xlsxPath)

	if len(ext.Records) == 0 {
		return nil
	}
	return writeFile(filepath.Join(dir, recordsFile), func(f *os.File) error {
		if err := csvexport.WriteBOM(f); err != nil {
			return err
		}
		w := csvexport.NewWriter(f)
		if err := w.WriteRecords(ext.Records); err != nil {
			return err
		}
		w.Flush()
		return w.Error()
	})
}

func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

func writeFile(path string, fill func(f *os.File) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return fill(f)
}
