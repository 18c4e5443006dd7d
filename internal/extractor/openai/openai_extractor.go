package openai

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
	apiURL       = "https://api.openai.com/v1/chat/completions"
	defaultModel = "gpt-3.5-turbo"
)

func init() {
	extractor.RegisterProvider("openai", func(p *config.ProviderConfig, llm *config.LLMConfig) (port.FieldExtractor, error) {
		return NewExtractor(p, llm), nil
	})
}

// Extractor implements port.FieldExtractor using the OpenAI Chat Completions API.
type Extractor struct {
	client        *resty.Client
	model         string
	endpoint      string
	temperature   float64
	maxTokens     int
	maxInputChars int
}

// NewExtractor creates an OpenAI-backed extractor. A BaseURL in the provider
// config points it at any OpenAI-compatible server.
func NewExtractor(p *config.ProviderConfig, llm *config.LLMConfig) *Extractor {
	endpoint := apiURL
	if p.BaseURL != "" {
		endpoint = strings.TrimRight(p.BaseURL, "/") + "/chat/completions"
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
		SetHeader("Authorization", "Bearer "+p.APIKey)

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

type chatRequest struct {
	Model          string            `json:"model"`
	Messages       []message         `json:"messages"`
	Temperature    float64           `json:"temperature"`
	MaxTokens      int               `json:"max_tokens"`
	ResponseFormat map[string]string `json:"response_format"`
}

func (e *Extractor) Extract(ctx context.Context, text string) (*domain.Fields, error) {
	body := chatRequest{
		Model: e.model,
		Messages: []message{
			{Role: "system", Content: extractor.SystemPrompt},
			{Role: "user", Content: extractor.BuildPrompt(text, e.maxInputChars)},
		},
		Temperature:    e.temperature,
		MaxTokens:      e.maxTokens,
		ResponseFormat: map[string]string{"type": "json_object"},
	}

	resp, err := e.client.R().SetContext(ctx).SetBody(body).Post(e.endpoint)
	if err != nil {
		return nil, fmt.Errorf("calling openai API: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		baseErr := fmt.Errorf("openai API error (status %d): %s", resp.StatusCode(), extractor.Truncate(resp.String(), 500))
		if resp.StatusCode() == http.StatusTooManyRequests {
			retryAfter := extractor.ParseRetryAfterHeader(resp.Header().Get("Retry-After"))
			return nil, extractor.NewRateLimitError("openai", baseErr, retryAfter)
		}
		return nil, baseErr
	}

	return parseResponse(resp.Body())
}

// apiResponse models the OpenAI Chat Completions API response.
type apiResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

func parseResponse(body []byte) (*domain.Fields, error) {
	var resp apiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("unmarshaling response: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("empty response from API: no choices")
	}
	if resp.Choices[0].FinishReason == "length" {
		return nil, fmt.Errorf("output truncated (finish_reason: length)")
	}
	return extractor.DecodeFields(resp.Choices[0].Message.Content)
}
