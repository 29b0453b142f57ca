package openai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"vidalaboral/internal/config"
	"vidalaboral/internal/parser"
	"vidalaboral/internal/port"
)

const (
	apiURL           = "https://api.openai.com/v1/chat/completions"
	openRouterAPIURL = "https://openrouter.ai/api/v1/chat/completions"

	defaultModel           = "gpt-4o"
	defaultOpenRouterModel = "mistralai/pixtral-large-2411"
)

func init() {
	parser.RegisterProvider("openai", func(cfg *config.ParserProviderConfig) (port.DocumentParser, error) {
		return NewParser(cfg), nil
	})
	parser.RegisterProvider("openrouter", func(cfg *config.ParserProviderConfig) (port.DocumentParser, error) {
		return NewOpenRouterParser(cfg), nil
	})
}

// Parser reads Situaciones pages through any OpenAI-compatible Chat
// Completions API, using strict JSON-schema structured output.
type Parser struct {
	name     string
	apiKey   string
	model    string
	endpoint string
	client   *http.Client
}

// NewParser creates an OpenAI-based page reader from a provider config.
func NewParser(cfg *config.ParserProviderConfig) *Parser {
	return newParser("openai", cfg, apiURL, defaultModel)
}

// NewOpenRouterParser creates a parser that talks to OpenRouter.
func NewOpenRouterParser(cfg *config.ParserProviderConfig) *Parser {
	return newParser("openrouter", cfg, openRouterAPIURL, defaultOpenRouterModel)
}

// NewParserWithEndpoint creates a parser pointing at a custom API endpoint (for testing).
func NewParserWithEndpoint(cfg *config.ParserProviderConfig, endpoint string) *Parser {
	return newParser(cfg.Provider, cfg, endpoint, defaultModel)
}

func newParser(name string, cfg *config.ParserProviderConfig, endpoint, fallbackModel string) *Parser {
	p := &Parser{
		name:     name,
		apiKey:   cfg.APIKey,
		model:    cfg.DefaultModel,
		endpoint: endpoint,
		client:   &http.Client{Timeout: 60 * time.Second},
	}
	if p.name == "" {
		p.name = "openai"
	}
	if p.model == "" {
		p.model = fallbackModel
	}
	if cfg.TimeoutSecs > 0 {
		p.client.Timeout = time.Duration(cfg.TimeoutSecs) * time.Second
	}
	return p
}

type imageURL struct {
	URL string `json:"url"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type chatMessage struct {
	Role    string        `json:"role"`
	Content []contentPart `json:"content"`
}

type jsonSchema struct {
	Name   string                 `json:"name"`
	Strict bool                   `json:"strict"`
	Schema map[string]interface{} `json:"schema"`
}

type responseFormat struct {
	Type       string     `json:"type"`
	JSONSchema jsonSchema `json:"json_schema"`
}

type chatRequest struct {
	Model          string         `json:"model"`
	Temperature    float64        `json:"temperature"`
	Messages       []chatMessage  `json:"messages"`
	ResponseFormat responseFormat `json:"response_format"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

func (p *Parser) Parse(ctx context.Context, input port.ParseInput) (*port.ParseOutput, error) {
	switch input.ContentType {
	case "image/jpeg", "image/png":
	default:
		return nil, fmt.Errorf("building content blocks: unsupported content type for parsing: %s", input.ContentType)
	}

	prompt := parser.BuildSituacionesPrompt()
	body, err := json.Marshal(chatRequest{
		Model:       p.model,
		Temperature: 0.1,
		Messages: []chatMessage{{
			Role: "user",
			Content: []contentPart{
				{Type: "text", Text: prompt},
				{Type: "image_url", ImageURL: &imageURL{URL: dataURI(input)}},
			},
		}},
		ResponseFormat: responseFormat{
			Type: "json_schema",
			JSONSchema: jsonSchema{
				Name:   parser.SchemaName,
				Strict: true,
				Schema: parser.RecordsSchema(),
			},
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
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling %s API: %w", p.name, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusTooManyRequests:
		return nil, parser.NewRateLimitError(p.name,
			fmt.Errorf("%s API error (status %d): %s", p.name, resp.StatusCode, parser.Truncate(string(raw), 500)),
			parser.ParseRetryAfterHeader(resp.Header.Get("Retry-After")))
	default:
		return nil, fmt.Errorf("%s API error (status %d): %s", p.name, resp.StatusCode, parser.Truncate(string(raw), 500))
	}

	answer, err := replyText(raw)
	if err != nil {
		return nil, err
	}
	records, err := parser.DecodeRecords(answer)
	if err != nil {
		return nil, err
	}
	log.Printf("parser.%s: %s read %d records from %s", p.name, p.model, len(records), input.Name)
	return &port.ParseOutput{Records: records, ModelUsed: p.model, PromptUsed: prompt}, nil
}

func dataURI(input port.ParseInput) string {
	return "data:" + input.ContentType + ";base64," + base64.StdEncoding.EncodeToString(input.FileBytes)
}

func replyText(raw []byte) (string, error) {
	var resp chatResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", fmt.Errorf("unmarshaling response: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("empty response from API: no choices")
	}
	if resp.Choices[0].FinishReason == "length" {
		return "", errors.New("output truncated (finish_reason: length): response exceeded output token limit")
	}
	return resp.Choices[0].Message.Content, nil
}
