package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"vidalaboral/internal/config"
	"vidalaboral/internal/extractor/sidecar"
	"vidalaboral/internal/handler"
	"vidalaboral/internal/imageprep"
	"vidalaboral/internal/parser"
	_ "vidalaboral/internal/parser/claude"
	_ "vidalaboral/internal/parser/gemini"
	_ "vidalaboral/internal/parser/openai"
	"vidalaboral/internal/port"
	"vidalaboral/internal/repository/postgres"
	"vidalaboral/internal/router"
	"vidalaboral/internal/service"
	s3storage "vidalaboral/internal/storage/s3"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("server: ignoring .env: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.DB.AutoMigrate {
		if err := postgres.Migrate(&cfg.DB); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}
	}

	db, err := postgres.NewDB(&cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	// Initialize repositories
	reportRepo := postgres.NewReportRepo(db)

	// Initialize storage
	s3Client, err := s3storage.NewS3Client(ctx, &cfg.S3)
	if err != nil {
		return fmt.Errorf("failed to initialize S3 client: %w", err)
	}

	// Initialize collaborators. Without a vision parser the image endpoint
	// answers OCR_FAILED; everything else keeps working.
	extractor := sidecar.NewClient(&cfg.Extractor)
	var docParser port.DocumentParser
	if p, err := parser.NewFromConfig(&cfg.Parser); err != nil {
		log.Printf("server: vision parser disabled: %v", err)
	} else {
		docParser = p
		log.Printf("server: vision parser ready (registered providers: %v)", parser.Providers())
	}
	preparer := imageprep.New(cfg.Imaging)

	// Initialize services
	pipeline := service.NewPipeline(extractor, docParser, preparer, cfg.Parser.Concurrency)
	reportSvc := service.NewReportService(pipeline, reportRepo, s3Client, &cfg.S3, &cfg.Report)
	tokenSvc := service.NewTokenService(&cfg.Auth)

	// Initialize handlers
	reportH := handler.NewReportHandler(reportSvc, cfg.Server)
	healthH := handler.NewHealthHandler(
		handler.ReadinessCheck{Name: "database", Required: true, Check: db.PingContext},
		handler.ReadinessCheck{Name: "extractor", Check: extractor.Ping},
		handler.ReadinessCheck{Name: "storage", Check: s3Client.Ping},
	)

	// Setup router
	r := router.Setup(cfg, tokenSvc, reportH, healthH)

	srv := &http.Server{
		Addr:              cfg.Server.Port,
		Handler:           r,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Server starting on %s (env=%s, auth=%v)", cfg.Server.Port, cfg.Server.Environment, cfg.Auth.Enabled)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Printf("server: shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	log.Printf("server: shutdown complete")
	return nil
}
