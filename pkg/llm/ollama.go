package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	ollama "github.com/ollama/ollama/api"
	"github.com/sashabaranov/go-openai"
)

// OllamaTransport translates the built OpenAI-shape request onto a local
// Ollama server's chat API. Image data URIs become inline image bytes; a
// schema document rides through the format field, which Ollama enforces
// server-side.
type OllamaTransport struct {
	Client *ollama.Client
}

// NewOllamaTransport honors OLLAMA_HOST, defaulting to localhost.
func NewOllamaTransport() (*OllamaTransport, error) {
	host := os.Getenv("OLLAMA_HOST")
	if host == "" {
		host = "http://localhost:11434"
	}
	u, err := url.Parse(host)
	if err != nil {
		return nil, fmt.Errorf("invalid OLLAMA_HOST %q: %w", host, err)
	}
	httpClient := &http.Client{
		Timeout: 60 * time.Second,
	}
	return &OllamaTransport{Client: ollama.NewClient(u, httpClient)}, nil
}

func (o *OllamaTransport) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	stream := false
	chat := &ollama.ChatRequest{
		Model:   req.Model,
		Stream:  &stream,
		Options: map[string]any{},
	}

	if req.Temperature != 0 {
		chat.Options["temperature"] = req.Temperature
	}
	if req.TopP != 0 {
		chat.Options["top_p"] = req.TopP
	}
	if req.MaxTokens != 0 {
		chat.Options["num_predict"] = req.MaxTokens
	}
	if len(req.Stop) > 0 {
		chat.Options["stop"] = req.Stop
	}

	if req.ResponseFormat != nil {
		chat.Format = json.RawMessage(`"json"`)
		if req.ResponseFormat.JSONSchema != nil {
			if raw, err := json.Marshal(req.ResponseFormat.JSONSchema.Schema); err == nil {
				chat.Format = raw
			}
		}
	}

	for _, m := range req.Messages {
		msg := ollama.Message{Role: m.Role, Content: m.Content}
		if m.MultiContent != nil {
			var text strings.Builder
			for _, p := range m.MultiContent {
				switch p.Type {
				case openai.ChatMessagePartTypeImageURL:
					if p.ImageURL == nil {
						continue
					}
					// Ollama only takes inline bytes; remote URLs are dropped.
					if _, data, ok := parseDataURI(p.ImageURL.URL); ok {
						msg.Images = append(msg.Images, ollama.ImageData(data))
					}
				default:
					text.WriteString(p.Text)
				}
			}
			msg.Content = text.String()
		}
		chat.Messages = append(chat.Messages, msg)
	}

	for _, t := range req.Tools {
		if tool, ok := ollamaTool(t); ok {
			chat.Tools = append(chat.Tools, tool)
		}
	}

	var (
		text strings.Builder
		last ollama.ChatResponse
	)
	if err := o.Client.Chat(ctx, chat, func(cr ollama.ChatResponse) error {
		text.WriteString(cr.Message.Content)
		last = cr
		return nil
	}); err != nil {
		return openai.ChatCompletionResponse{}, err
	}

	return openai.ChatCompletionResponse{
		Model: req.Model,
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: text.String()}},
		},
		Usage: openai.Usage{
			PromptTokens:     last.Metrics.PromptEvalCount,
			CompletionTokens: last.Metrics.EvalCount,
			TotalTokens:      last.Metrics.PromptEvalCount + last.Metrics.EvalCount,
		},
	}, nil
}

// ollamaTool round-trips an OpenAI function declaration through JSON into the
// api.Tool shape; the wire tags on both sides line up.
func ollamaTool(t openai.Tool) (ollama.Tool, bool) {
	var tool ollama.Tool
	if t.Function == nil {
		return tool, false
	}
	raw, err := json.Marshal(map[string]any{
		"type": "function",
		"function": map[string]any{
			"name":        t.Function.Name,
			"description": t.Function.Description,
			"parameters":  t.Function.Parameters,
		},
	})
	if err != nil {
		return tool, false
	}
	if err := json.Unmarshal(raw, &tool); err != nil {
		return tool, false
	}
	return tool, true
}

var _ Transport = (*OllamaTransport)(nil)
