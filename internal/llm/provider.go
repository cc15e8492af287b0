package llm

import (
	"fmt"

	"github.com/mohammad-safakhou/wayfarer/config"
	"github.com/mohammad-safakhou/wayfarer/internal/chat"
)

// NewProvider creates a generator based on configuration. The first provider
// whose type is recognised wins; an unusable configuration surfaces
// chat.ErrConfiguration so the HTTP boundary can report it distinctly.
func NewProvider(cfg config.LLMConfig) (chat.Generator, error) {
	if len(cfg.Providers) == 0 {
		return nil, fmt.Errorf("%w: no LLM providers configured", chat.ErrConfiguration)
	}
	for _, provider := range cfg.Providers {
		switch provider.Type {
		case "openai":
			return NewOpenAIProvider(provider)
		case "anthropic":
			return NewAnthropicProvider(provider)
		default:
			return nil, fmt.Errorf("%w: unsupported LLM provider type: %s", chat.ErrConfiguration, provider.Type)
		}
	}
	return nil, fmt.Errorf("%w: no valid LLM providers found", chat.ErrConfiguration)
}

// ChatModel resolves the model key used for conversational requests.
func ChatModel(cfg config.LLMConfig) (string, error) {
	model := cfg.Routing.Chat
	if model == "" {
		model = cfg.Routing.Fallback
	}
	if model == "" {
		return "", fmt.Errorf("%w: llm.routing.chat not configured", chat.ErrConfiguration)
	}
	return model, nil
}
