package extractor

import (
	"fmt"
	"sort"

	"cvbatch/internal/config"
	"cvbatch/internal/port"
)

// ProviderFactory creates a FieldExtractor from a provider config and the
// shared LLM settings.
type ProviderFactory func(p *config.ProviderConfig, llm *config.LLMConfig) (port.FieldExtractor, error)

// registry of provider factories, populated by init() in each provider package.
var providers = map[string]ProviderFactory{}

// RegisterProvider registers a provider factory by name.
func RegisterProvider(name string, factory ProviderFactory) {
	providers[name] = factory
}

// RegisteredProviders lists the registered provider names.
func RegisteredProviders() []string {
	names := make([]string, 0, len(providers))
	for name := range providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewProvider creates a FieldExtractor using the registered factory.
func NewProvider(p *config.ProviderConfig, llm *config.LLMConfig) (port.FieldExtractor, error) {
	factory, ok := providers[p.Provider]
	if !ok {
		return nil, fmt.Errorf("unknown llm provider: %s", p.Provider)
	}
	return factory(p, llm)
}

// NewChainFromConfig builds the strategy chain for every configured provider,
// ending in fallback.
func NewChainFromConfig(llm *config.LLMConfig, fallback port.FieldExtractor) (*Chain, error) {
	var strategies []Strategy
	for _, p := range llm.Providers() {
		ext, err := NewProvider(p, llm)
		if err != nil {
			return nil, fmt.Errorf("creating %s strategy: %w", p.Provider, err)
		}
		strategies = append(strategies, Strategy{
			Name:      p.Provider,
			Extractor: ext,
			Timeout:   p.Timeout(llm.StrategyTimeout()),
		})
	}
	return NewChain(fallback, strategies...), nil
}
