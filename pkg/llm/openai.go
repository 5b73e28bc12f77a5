package llm

import (
	"os"

	"github.com/sashabaranov/go-openai"
)

// NewOpenAITransport builds the primary transport. It reads OPENAI_API_KEY
// (falling back to OPENAI_KEY) and honors OPENAI_BASE_URL for
// OpenAI-compatible endpoints.
func NewOpenAITransport() *openai.Client {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_KEY") // fallback
	}
	config := openai.DefaultConfig(apiKey)
	if base := os.Getenv("OPENAI_BASE_URL"); base != "" {
		config.BaseURL = base
	}
	return openai.NewClientWithConfig(config)
}

var _ Transport = (*openai.Client)(nil)
