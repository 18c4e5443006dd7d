package claude_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cvbatch/internal/config"
	"cvbatch/internal/extractor"
	"cvbatch/internal/extractor/claude"
)

func newTestExtractor(serverURL string) *claude.Extractor {
	p := &config.ProviderConfig{Provider: "claude", APIKey: "test-claude-key", TimeoutSecs: 5}
	llm := &config.LLMConfig{MaxInputChars: 3000, Temperature: 0.1, MaxTokens: 400}
	return claude.NewExtractorWithEndpoint(p, llm, serverURL)
}

func textResponse(text, stop string) map[string]interface{} {
	return map[string]interface{}{
		"content": []map[string]interface{}{
			{"type": "text", "text": text},
		},
		"stop_reason": stop,
	}
}

func TestClaudeExtractor_Extract_Success(t *testing.T) {
	reply := `{"name":"Jane Doe","address":"Berlin, Germany","email":null,"contact_number":null,"last_qualification":"B.Sc. Physics","last_institution":"University of Leeds"}`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-claude-key", r.Header.Get("x-api-key"))
		assert.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))

		var reqBody map[string]interface{}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&reqBody))
		assert.Equal(t, "claude-3-5-haiku-latest", reqBody["model"])
		assert.Equal(t, float64(400), reqBody["max_tokens"])
		assert.Equal(t, extractor.SystemPrompt, reqBody["system"])

		messages := reqBody["messages"].([]interface{})
		require.Len(t, messages, 1)
		assert.Equal(t, "user", messages[0].(map[string]interface{})["role"])

		_ = json.NewEncoder(w).Encode(textResponse(reply, "end_turn"))
	}))
	defer server.Close()

	fields, err := newTestExtractor(server.URL).Extract(context.Background(), "Jane Doe")

	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", fields.Name)
	assert.Equal(t, "Berlin, Germany", fields.Address)
	assert.Equal(t, "B.Sc. Physics", fields.LastQualification)
	assert.Equal(t, "University of Leeds", fields.LastInstitution)
}

func TestClaudeExtractor_Extract_RateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"rate_limit_error"}}`))
	}))
	defer server.Close()

	_, err := newTestExtractor(server.URL).Extract(context.Background(), "text")

	var rl *extractor.RateLimitError
	require.True(t, errors.As(err, &rl))
	assert.Equal(t, "claude", rl.Provider)
	assert.Equal(t, 60.0, rl.RetryAfter.Seconds())
}

func TestClaudeExtractor_Extract_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"invalid_request_error"}}`))
	}))
	defer server.Close()

	_, err := newTestExtractor(server.URL).Extract(context.Background(), "text")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 400")
}

func TestClaudeExtractor_Extract_MaxTokens(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(textResponse(`{"name":`, "max_tokens"))
	}))
	defer server.Close()

	_, err := newTestExtractor(server.URL).Extract(context.Background(), "text")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "truncated")
}

func TestClaudeExtractor_Extract_EmptyContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"content":[],"stop_reason":"end_turn"}`))
	}))
	defer server.Close()

	_, err := newTestExtractor(server.URL).Extract(context.Background(), "text")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty response")
}

func TestClaudeExtractor_Extract_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestExtractor(server.URL).Extract(ctx, "text")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "calling anthropic API")
}
