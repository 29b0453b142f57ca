// Command vacaciones computes the vacation days of a vida laboral report that
// are not covered by a contract, and writes the results to a directory.
//
// Usage:
//
//	vacaciones --grid tables.json [--filter-2008] [--out output]
//	vacaciones --pdf informe.pdf [--pages 2-5]
//	vacaciones --images data/imagenes
//	vacaciones --periods periods.json [--reference-date 31/12/2024]
//	vacaciones token --subject ops@example.com
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	flag "github.com/spf13/pflag"

	"vidalaboral/internal/config"
	"vidalaboral/internal/domain"
	_ "vidalaboral/internal/parser/claude"
	_ "vidalaboral/internal/parser/gemini"
	_ "vidalaboral/internal/parser/openai"
	"vidalaboral/internal/service"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if len(os.Args) > 1 && os.Args[1] == "token" {
		if err := runToken(cfg, os.Args[2:]); err != nil {
			log.Fatal(err)
		}
		return
	}

	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, opts); err != nil {
		log.Fatal(err)
	}
}

func parseFlags(args []string) (*options, error) {
	fs := flag.NewFlagSet("vacaciones", flag.ContinueOnError)
	opts := &options{}
	fs.StringVar(&opts.gridPath, "grid", "", "pre-extracted table grid (.json, .csv or .xlsx)")
	fs.StringVar(&opts.pdfPath, "pdf", "", "vida laboral PDF, read through the table-extraction sidecar")
	fs.StringVar(&opts.imagesDir, "images", "", "directory of page images (.jpg, .png) read with the vision parser")
	fs.StringVar(&opts.periodsPath, "periods", "", "JSON array of periods ({isVacaciones, fechaAlta, fechaBaja})")
	fs.StringVar(&opts.pages, "pages", "", "PDF pages to read, e.g. 2-5 (default from config)")
	fs.BoolVar(&opts.filter2008, "filter-2008", false, "keep only records that started before 01/01/2008")
	fs.StringVar(&opts.filterBefore, "filter-before", "", "keep only records that started before this DD/MM/YYYY date")
	fs.StringVar(&opts.referenceDate, "reference-date", "", "DD/MM/YYYY date closing open contracts (default today)")
	fs.StringVarP(&opts.outDir, "out", "o", "output", "output directory")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if err := opts.validate(); err != nil {
		fs.Usage()
		return nil, err
	}
	return opts, nil
}

func runToken(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("token", flag.ContinueOnError)
	subject := fs.String("subject", "", "token subject (who will use it)")
	expiry := fs.Duration("expiry", 0, "token lifetime (default from config)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *expiry > 0 {
		cfg.Auth.TokenExpiry = *expiry
	}

	token, expiresAt, err := service.NewTokenService(&cfg.Auth).Issue(*subject)
	if err != nil {
		return err
	}
	fmt.Println(token)
	log.Printf("token for %q expires %s", *subject, expiresAt.Format(time.RFC3339))
	return nil
}

// startedBefore resolves the record filter flags.
func (o *options) startedBefore() (time.Time, error) {
	if o.filter2008 {
		return time.Date(2008, 1, 1, 0, 0, 0, 0, time.UTC), nil
	}
	if o.filterBefore == "" {
		return time.Time{}, nil
	}
	d := domain.ParseDisplayDate(o.filterBefore)
	if !d.Valid {
		return time.Time{}, fmt.Errorf("--filter-before must be DD/MM/YYYY, got %q", o.filterBefore)
	}
	return d.Time, nil
}
