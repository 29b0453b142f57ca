package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"vidalaboral/internal/config"
	"vidalaboral/internal/parser"
	"vidalaboral/internal/port"
)

const (
	apiBaseURL   = "https://generativelanguage.googleapis.com/v1beta/models"
	defaultModel = "gemini-2.0-flash"
)

func init() {
	parser.RegisterProvider("gemini", func(cfg *config.ParserProviderConfig) (port.DocumentParser, error) {
		return NewParser(cfg), nil
	})
}

// Parser reads Situaciones pages with Google's Gemini API.
type Parser struct {
	apiKey   string
	model    string
	endpoint string
	client   *http.Client
}

// NewParser creates a Gemini-based page reader.
func NewParser(cfg *config.ParserProviderConfig) *Parser {
	return newParser(cfg, "")
}

// NewParserWithEndpoint creates a parser pointing at a custom API endpoint (for testing).
func NewParserWithEndpoint(cfg *config.ParserProviderConfig, endpoint string) *Parser {
	return newParser(cfg, endpoint)
}

func newParser(cfg *config.ParserProviderConfig, endpoint string) *Parser {
	p := &Parser{
		apiKey:   cfg.APIKey,
		model:    cfg.DefaultModel,
		endpoint: endpoint,
		client:   &http.Client{Timeout: 60 * time.Second},
	}
	if p.model == "" {
		p.model = defaultModel
	}
	if cfg.TimeoutSecs > 0 {
		p.client.Timeout = time.Duration(cfg.TimeoutSecs) * time.Second
	}
	if p.endpoint == "" {
		p.endpoint = fmt.Sprintf("%s/%s:generateContent", apiBaseURL, p.model)
	}
	return p
}

type inlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type part struct {
	InlineData *inlineData `json:"inline_data,omitempty"`
	Text       string      `json:"text,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generationConfig struct {
	Temperature        float64                `json:"temperature"`
	ResponseMimeType   string                 `json:"responseMimeType"`
	ResponseJSONSchema map[string]interface{} `json:"responseJsonSchema,omitempty"`
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type generateResponse struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
}

func (p *Parser) Parse(ctx context.Context, input port.ParseInput) (*port.ParseOutput, error) {
	switch input.ContentType {
	case "image/jpeg", "image/png":
	default:
		return nil, fmt.Errorf("unsupported content type for parsing: %s", input.ContentType)
	}

	prompt := parser.BuildSituacionesPrompt()
	body, err := json.Marshal(generateRequest{
		Contents: []content{{
			Role: "user",
			Parts: []part{
				{InlineData: &inlineData{
					MimeType: input.ContentType,
					Data:     base64.StdEncoding.EncodeToString(input.FileBytes),
				}},
				{Text: prompt},
			},
		}},
		GenerationConfig: generationConfig{
			Temperature:        0.1,
			ResponseMimeType:   "application/json",
			ResponseJSONSchema: parser.RecordsSchema(),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling gemini API: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusTooManyRequests:
		return nil, parser.NewRateLimitError("gemini",
			fmt.Errorf("gemini API error (status %d): %s", resp.StatusCode, parser.Truncate(string(raw), 500)),
			parser.ParseRetryAfterHeader(resp.Header.Get("Retry-After")))
	default:
		return nil, fmt.Errorf("gemini API error (status %d): %s", resp.StatusCode, parser.Truncate(string(raw), 500))
	}

	text, err := replyText(raw)
	if err != nil {
		return nil, err
	}
	records, err := parser.DecodeRecords(text)
	if err != nil {
		return nil, err
	}
	return &port.ParseOutput{Records: records, ModelUsed: p.model, PromptUsed: prompt}, nil
}

// replyText returns the text of the first candidate.
func replyText(raw []byte) (string, error) {
	var resp generateResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", fmt.Errorf("unmarshaling response: %w", err)
	}
	if len(resp.Candidates) == 0 {
		return "", errors.New("empty response from API: no candidates")
	}
	c := resp.Candidates[0]
	if c.FinishReason == "MAX_TOKENS" {
		return "", errors.New("output truncated (finishReason: MAX_TOKENS)")
	}
	if len(c.Content.Parts) == 0 {
		return "", errors.New("empty response from API: no parts")
	}
	return c.Content.Parts[0].Text, nil
}
