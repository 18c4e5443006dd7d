package extractor_test

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cvbatch/internal/config"
	"cvbatch/internal/extractor"
	"cvbatch/internal/port"
	"cvbatch/mocks"
)

func init() {
	extractor.RegisterProvider("stub", func(_ *config.ProviderConfig, _ *config.LLMConfig) (port.FieldExtractor, error) {
		return new(mocks.MockFieldExtractor), nil
	})
	extractor.RegisterProvider("broken", func(_ *config.ProviderConfig, _ *config.LLMConfig) (port.FieldExtractor, error) {
		return nil, errors.New("missing api key")
	})
}

func TestNewProvider_Unknown(t *testing.T) {
	_, err := extractor.NewProvider(&config.ProviderConfig{Provider: "nope"}, &config.LLMConfig{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown llm provider: nope")
}

func TestRegisteredProviders_Sorted(t *testing.T) {
	names := extractor.RegisteredProviders()

	assert.Contains(t, names, "stub")
	assert.Contains(t, names, "broken")
	assert.IsNonDecreasing(t, names)
}

func TestNewChainFromConfig_OrdersTiers(t *testing.T) {
	llm := &config.LLMConfig{
		Primary:     config.ProviderConfig{Provider: "stub", TimeoutSecs: 5},
		Secondary:   config.ProviderConfig{Provider: "stub"},
		TimeoutSecs: 12,
	}

	chain, err := extractor.NewChainFromConfig(llm, nil)

	require.NoError(t, err)
	assert.True(t, chain.LLMEnabled())
	assert.Equal(t, []string{"stub", "stub"}, chain.Names())
	assert.Equal(t, 12*time.Second, llm.StrategyTimeout())
}

func TestNewChainFromConfig_NoProviders(t *testing.T) {
	chain, err := extractor.NewChainFromConfig(&config.LLMConfig{}, nil)

	require.NoError(t, err)
	assert.False(t, chain.LLMEnabled())
}

func TestNewChainFromConfig_FactoryError(t *testing.T) {
	llm := &config.LLMConfig{Primary: config.ProviderConfig{Provider: "broken"}}

	_, err := extractor.NewChainFromConfig(llm, nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "creating broken strategy")
}

func TestRateLimitError(t *testing.T) {
	err := extractor.NewRateLimitError("openai", errors.New("429"), 0)

	assert.Equal(t, 60*time.Second, err.RetryAfter)
	assert.Contains(t, err.Error(), "openai: rate limited for 1m0s")

	var rl *extractor.RateLimitError
	assert.True(t, errors.As(error(err), &rl))
	assert.Equal(t, 7, extractor.ParseRetryAfterHeader("7"))
	assert.Equal(t, 0, extractor.ParseRetryAfterHeader("soon"))
	assert.Equal(t, 0, extractor.ParseRetryAfterHeader(""))
	assert.Equal(t, 0, extractor.ParseRetryAfterHeader("-5"))

	past := time.Now().Add(-time.Hour).UTC().Format(http.TimeFormat)
	assert.Equal(t, 0, extractor.ParseRetryAfterHeader(past))
	future := time.Now().Add(2 * time.Minute).UTC().Format(http.TimeFormat)
	assert.InDelta(t, 120, extractor.ParseRetryAfterHeader(future), 2)
}
