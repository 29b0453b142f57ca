// Package sidecar extracts PDF tables by calling a table-extraction service
// over HTTP. The service runs camelot in stream mode and answers with the
// cell grid of every table it finds.
package sidecar

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"vidalaboral/internal/config"
	"vidalaboral/internal/domain"
	"vidalaboral/internal/extractor"
	"vidalaboral/internal/port"
)

const (
	extractPath = "/extract"
	healthPath  = "/health"
)

// Client implements port.TableExtractor.
type Client struct {
	endpoint     string
	defaultPages string
	flavor       string
	client       *http.Client
}

// NewClient creates a sidecar client from config.
func NewClient(cfg *config.ExtractorConfig) *Client {
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout == 0 {
		timeout = 120 * time.Second
	}
	flavor := cfg.Flavor
	if flavor == "" {
		flavor = "stream"
	}
	return &Client{
		endpoint:     strings.TrimRight(cfg.Endpoint, "/"),
		defaultPages: cfg.Pages,
		flavor:       flavor,
		client:       &http.Client{Timeout: timeout},
	}
}

var _ port.TableExtractor = (*Client)(nil)

// extractResponse models the sidecar reply: one grid per table found.
type extractResponse struct {
	Tables []struct {
		Page  int        `json:"page"`
		Cells [][]string `json:"cells"`
	} `json:"tables"`
	Error string `json:"error"`
}

func (c *Client) Extract(ctx context.Context, input port.ExtractInput) ([]domain.Page, error) {
	pages, err := extractor.NormalizePages(input.Pages, c.defaultPages)
	if err != nil {
		return nil, err
	}

	body, contentType, err := buildForm(input, pages, c.flavor)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+extractPath, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: calling extractor: %v", domain.ErrExtractionFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", domain.ErrExtractionFailed, err)
	}

	var parsed extractResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("%w: status %d: %s", domain.ErrExtractionFailed, resp.StatusCode, truncate(string(respBody), 300))
	}
	if resp.StatusCode != http.StatusOK {
		msg := parsed.Error
		if msg == "" {
			msg = truncate(string(respBody), 300)
		}
		return nil, fmt.Errorf("%w: status %d: %s", domain.ErrExtractionFailed, resp.StatusCode, msg)
	}
	if len(parsed.Tables) == 0 {
		return nil, domain.ErrNoTables
	}

	out := make([]domain.Page, 0, len(parsed.Tables))
	for _, t := range parsed.Tables {
		out = append(out, domain.Page(t.Cells))
	}
	log.Printf("sidecar.Client.Extract: %s pages=%s -> %d tables in %s",
		input.FileName, pages, len(out), time.Since(start).Round(time.Millisecond))
	return out, nil
}

// Ping checks that the sidecar answers its health endpoint.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+healthPath, http.NoBody)
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("extractor health status %d", resp.StatusCode)
	}
	return nil
}

func buildForm(input port.ExtractInput, pages, flavor string) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	name := input.FileName
	if name == "" {
		name = "vida_laboral.pdf"
	}
	part, err := w.CreateFormFile("file", name)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(input.FileBytes); err != nil {
		return nil, "", err
	}
	if pages != "" {
		if err := w.WriteField("pages", pages); err != nil {
			return nil, "", err
		}
	}
	if err := w.WriteField("flavor", flavor); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
