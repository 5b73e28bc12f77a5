package llm

import (
	"context"
	"fmt"
)

// NewTransport returns a concrete Transport for a provider name. Credentials
// and endpoints come from the environment, following each provider's
// conventional variables.
func NewTransport(ctx context.Context, provider string) (Transport, error) {
	switch provider {
	case "openai":
		return NewOpenAITransport(), nil
	case "anthropic", "claude":
		return NewAnthropicTransport(), nil
	case "gemini", "google":
		return NewGeminiTransport(ctx)
	case "ollama":
		return NewOllamaTransport()
	case "script":
		return &ScriptTransport{}, nil
	default:
		return nil, fmt.Errorf("unknown provider: %s", provider)
	}
}
