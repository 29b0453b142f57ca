package claude

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"vidalaboral/internal/config"
	"vidalaboral/internal/parser"
	"vidalaboral/internal/port"
)

const (
	apiURL       = "https://api.anthropic.com/v1/messages"
	apiVersion   = "2023-06-01"
	defaultModel = "claude-sonnet-4-20250514"
	maxTokens    = 4096
)

func init() {
	parser.RegisterProvider("claude", func(cfg *config.ParserProviderConfig) (port.DocumentParser, error) {
		return NewParser(cfg), nil
	})
}

// Parser reads Situaciones pages with the Anthropic Messages API. The model
// is asked to answer through a single tool whose input schema is the
// records schema; plain text answers are accepted as well.
type Parser struct {
	apiKey   string
	model    string
	endpoint string
	client   *http.Client
}

// NewParser creates a Claude-based page reader from a provider config.
func NewParser(cfg *config.ParserProviderConfig) *Parser {
	return newParser(cfg, apiURL)
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
	return p
}

type imageSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

type block struct {
	Type   string          `json:"type"`
	Text   string          `json:"text,omitempty"`
	Source *imageSource    `json:"source,omitempty"`
	Name   string          `json:"name,omitempty"`
	Input  json.RawMessage `json:"input,omitempty"`
}

type message struct {
	Role    string  `json:"role"`
	Content []block `json:"content"`
}

type tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"input_schema"`
}

type toolChoice struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

type messagesRequest struct {
	Model       string     `json:"model"`
	MaxTokens   int        `json:"max_tokens"`
	Temperature float64    `json:"temperature"`
	Messages    []message  `json:"messages"`
	Tools       []tool     `json:"tools"`
	ToolChoice  toolChoice `json:"tool_choice"`
}

type messagesResponse struct {
	Content    []block `json:"content"`
	StopReason string  `json:"stop_reason"`
}

func (p *Parser) Parse(ctx context.Context, input port.ParseInput) (*port.ParseOutput, error) {
	switch input.ContentType {
	case "image/jpeg", "image/png":
	default:
		return nil, fmt.Errorf("unsupported content type for parsing: %s", input.ContentType)
	}

	prompt := parser.BuildSituacionesPrompt()
	body, err := json.Marshal(messagesRequest{
		Model:       p.model,
		MaxTokens:   maxTokens,
		Temperature: 0.1,
		Messages: []message{{
			Role: "user",
			Content: []block{
				{Type: "image", Source: &imageSource{
					Type:      "base64",
					MediaType: input.ContentType,
					Data:      base64.StdEncoding.EncodeToString(input.FileBytes),
				}},
				{Type: "text", Text: prompt},
			},
		}},
		Tools: []tool{{
			Name:        parser.SchemaName,
			Description: "Report the vacation and contract records read from the page.",
			InputSchema: parser.RecordsSchema(),
		}},
		ToolChoice: toolChoice{Type: "tool", Name: parser.SchemaName},
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", p.apiKey)
	req.Header.Set("anthropic-version", apiVersion)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling anthropic API: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusTooManyRequests:
		return nil, parser.NewRateLimitError("claude",
			fmt.Errorf("anthropic API error (status %d): %s", resp.StatusCode, parser.Truncate(string(raw), 500)),
			parser.ParseRetryAfterHeader(resp.Header.Get("Retry-After")))
	default:
		return nil, fmt.Errorf("anthropic API error (status %d): %s", resp.StatusCode, parser.Truncate(string(raw), 500))
	}

	answer, err := replyText(raw)
	if err != nil {
		return nil, err
	}
	records, err := parser.DecodeRecords(answer)
	if err != nil {
		return nil, err
	}
	return &port.ParseOutput{Records: records, ModelUsed: p.model, PromptUsed: prompt}, nil
}

// replyText returns the records tool input when present, otherwise the
// concatenated text blocks.
func replyText(raw []byte) (string, error) {
	var resp messagesResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", fmt.Errorf("unmarshaling response: %w", err)
	}
	if resp.StopReason == "max_tokens" {
		return "", errors.New("output truncated (stop_reason: max_tokens): response exceeded output token limit")
	}

	var text strings.Builder
	for _, b := range resp.Content {
		switch {
		case b.Type == "tool_use" && b.Name == parser.SchemaName && len(b.Input) > 0:
			return string(b.Input), nil
		case b.Type == "text":
			text.WriteString(b.Text)
		}
	}
	if text.Len() == 0 {
		return "", errors.New("empty response from API")
	}
	return text.String(), nil
}
