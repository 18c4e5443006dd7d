package claude

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"

	"cvbatch/internal/config"
	"cvbatch/internal/domain"
	"cvbatch/internal/extractor"
	"cvbatch/internal/port"
)

const (
	apiURL       = "https://api.anthropic.com/v1/messages"
	apiVersion   = "2023-06-01"
	defaultModel = "claude-3-5-haiku-latest"
)

func init() {
	extractor.RegisterProvider("claude", func(p *config.ProviderConfig, llm *config.LLMConfig) (port.FieldExtractor, error) {
		return NewExtractor(p, llm), nil
	})
}

// Extractor implements port.FieldExtractor using the Anthropic Messages API.
type Extractor struct {
	client        *resty.Client
	model         string
	endpoint      string
	temperature   float64
	maxTokens     int
	maxInputChars int
}

// NewExtractor creates a Claude-backed extractor from a provider config.
func NewExtractor(p *config.ProviderConfig, llm *config.LLMConfig) *Extractor {
	endpoint := apiURL
	if p.BaseURL != "" {
		endpoint = strings.TrimRight(p.BaseURL, "/") + "/v1/messages"
	}
	return newExtractor(p, llm, endpoint)
}

// NewExtractorWithEndpoint creates an extractor pointing at a custom API endpoint (for testing).
func NewExtractorWithEndpoint(p *config.ProviderConfig, llm *config.LLMConfig, endpoint string) *Extractor {
	return newExtractor(p, llm, endpoint)
}

func newExtractor(p *config.ProviderConfig, llm *config.LLMConfig, endpoint string) *Extractor {
	model := p.Model
	if model == "" {
		model = defaultModel
	}
	maxTokens := llm.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 500
	}
	client := resty.New().
		SetTimeout(p.Timeout(llm.StrategyTimeout())).
		SetHeader("Content-Type", "application/json").
		SetHeader("x-api-key", p.APIKey).
		SetHeader("anthropic-version", apiVersion)

	return &Extractor{
		client:        client,
		model:         model,
		endpoint:      endpoint,
		temperature:   llm.Temperature,
		maxTokens:     maxTokens,
		maxInputChars: llm.MaxInputChars,
	}
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesRequest struct {
	Model       string    `json:"model"`
	MaxTokens   int       `json:"max_tokens"`
	System      string    `json:"system"`
	Temperature float64   `json:"temperature"`
	Messages    []message `json:"messages"`
}

func (e *Extractor) Extract(ctx context.Context, text string) (*domain.Fields, error) {
	body := messagesRequest{
		Model:       e.model,
		MaxTokens:   e.maxTokens,
		System:      extractor.SystemPrompt,
		Temperature: e.temperature,
		Messages: []message{
			{Role: "user", Content: extractor.BuildPrompt(text, e.maxInputChars)},
		},
	}

	resp, err := e.client.R().SetContext(ctx).SetBody(body).Post(e.endpoint)
	if err != nil {
		return nil, fmt.Errorf("calling anthropic API: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		baseErr := fmt.Errorf("anthropic API error (status %d): %s", resp.StatusCode(), extractor.Truncate(resp.String(), 500))
		if resp.StatusCode() == http.StatusTooManyRequests {
			retryAfter := extractor.ParseRetryAfterHeader(resp.Header().Get("Retry-After"))
			return nil, extractor.NewRateLimitError("claude", baseErr, retryAfter)
		}
		return nil, baseErr
	}

	return parseResponse(resp.Body())
}

// apiResponse models the Anthropic Messages API response.
type apiResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
}

func parseResponse(body []byte) (*domain.Fields, error) {
	var resp apiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("unmarshaling response: %w", err)
	}
	if resp.StopReason == "max_tokens" {
		return nil, fmt.Errorf("output truncated (stop_reason: max_tokens)")
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return nil, fmt.Errorf("empty response from API")
	}
	return extractor.DecodeFields(sb.String())
}
