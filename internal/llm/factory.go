package llm

import (
	"fmt"
	"strings"
)

// NewProvider creates a provider for cfg.Provider ("openai", "anthropic"
// or "yandex"), filling in defaults for unset fields. Temperature is used
// as given, so zero selects deterministic sampling.
func NewProvider(cfg Config) (*Provider, error) {
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}

	p := &Provider{
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
	}

	var err error
	switch strings.ToLower(cfg.Provider) {
	case "openai":
		if cfg.Model == "" {
			cfg.Model = "gpt-4o"
		}
		p.name, p.prices, p.fallback = "OpenAI", openAIPrices, openAIFallback
		p.client, err = newOpenAIClient(cfg)
	case "anthropic":
		if cfg.Model == "" {
			cfg.Model = "claude-sonnet-4-5"
		}
		p.name, p.prices, p.fallback = "Anthropic", anthropicPrices, anthropicFallback
		p.client, err = newAnthropicClient(cfg)
	case "yandex":
		if cfg.Model == "" {
			cfg.Model = "yandexgpt"
		}
		p.name, p.prices, p.fallback = "Yandex", yandexPrices, yandexFallback
		p.client, err = newYandexClient(cfg)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}

	p.model = cfg.Model
	if cfg.RateLimit > 0 {
		p.limiter = newRateLimiter(cfg.RateLimit)
	}

	return p, nil
}
