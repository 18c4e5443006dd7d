package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"cvbatch/internal/config"
	"cvbatch/internal/domain"
	"cvbatch/internal/extractor"
	"cvbatch/internal/port"
)

const defaultModel = "gemini-1.5-flash"

func init() {
	extractor.RegisterProvider("gemini", func(p *config.ProviderConfig, llm *config.LLMConfig) (port.FieldExtractor, error) {
		return NewExtractor(context.Background(), p, llm)
	})
}

// Generator produces a JSON reply for a prompt.
type Generator interface {
	GenerateJSON(ctx context.Context, prompt string) (string, error)
}

// Extractor implements port.FieldExtractor using Google's Gemini API.
type Extractor struct {
	gen           Generator
	maxInputChars int
}

// NewExtractor creates a Gemini-backed extractor using the generative-ai SDK.
func NewExtractor(ctx context.Context, p *config.ProviderConfig, llm *config.LLMConfig) (*Extractor, error) {
	if p.APIKey == "" {
		return nil, errors.New("gemini: API key is required")
	}
	opts := []option.ClientOption{option.WithAPIKey(p.APIKey)}
	if p.BaseURL != "" {
		opts = append(opts, option.WithEndpoint(p.BaseURL))
	}
	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	model := p.Model
	if model == "" {
		model = defaultModel
	}
	maxTokens := llm.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 500
	}
	gen := &sdkGenerator{
		client:      client,
		model:       model,
		temperature: float32(llm.Temperature),
		maxTokens:   int32(maxTokens),
	}
	return NewExtractorWithGenerator(gen, llm.MaxInputChars), nil
}

// NewExtractorWithGenerator creates an extractor over any Generator (for testing).
func NewExtractorWithGenerator(gen Generator, maxInputChars int) *Extractor {
	return &Extractor{gen: gen, maxInputChars: maxInputChars}
}

func (e *Extractor) Extract(ctx context.Context, text string) (*domain.Fields, error) {
	reply, err := e.gen.GenerateJSON(ctx, extractor.BuildPrompt(text, e.maxInputChars))
	if err != nil {
		var gerr *googleapi.Error
		if errors.As(err, &gerr) && gerr.Code == http.StatusTooManyRequests {
			return nil, extractor.NewRateLimitError("gemini", err, extractor.ParseRetryAfterHeader(gerr.Header.Get("Retry-After")))
		}
		return nil, fmt.Errorf("calling gemini API: %w", err)
	}
	return extractor.DecodeFields(reply)
}

type sdkGenerator struct {
	client      *genai.Client
	model       string
	temperature float32
	maxTokens   int32
}

func (g *sdkGenerator) GenerateJSON(ctx context.Context, prompt string) (string, error) {
	model := g.client.GenerativeModel(g.model)
	model.SetTemperature(g.temperature)
	model.SetMaxOutputTokens(g.maxTokens)
	model.ResponseMIMEType = "application/json"
	model.SystemInstruction = genai.NewUserContent(genai.Text(extractor.SystemPrompt))

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", err
	}
	return textFromResponse(resp)
}

func textFromResponse(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", errors.New("no candidates in response")
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", errors.New("no content in response")
	}

	var parts []string
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			parts = append(parts, string(text))
		}
	}
	if len(parts) == 0 {
		return "", errors.New("no text parts in response")
	}
	return strings.Join(parts, ""), nil
}
