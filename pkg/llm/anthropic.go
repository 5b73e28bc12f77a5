package llm

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"os"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	anthropicopt "github.com/anthropics/anthropic-sdk-go/option"
	"github.com/sashabaranov/go-openai"
)

const anthropicDefaultMaxTokens = 1024

// AnthropicTransport translates the built OpenAI-shape request onto
// Anthropic's Messages API. System messages move into the request-level
// system field; a response-format directive becomes a system instruction,
// since the Messages API has no structured-output switch.
type AnthropicTransport struct {
	Client *anthropic.Client
}

// NewAnthropicTransport reads ANTHROPIC_API_KEY from the env.
func NewAnthropicTransport() *AnthropicTransport {
	cl := anthropic.NewClient(
		anthropicopt.WithAPIKey(os.Getenv("ANTHROPIC_API_KEY")),
	)
	return &AnthropicTransport{Client: &cl}
}

func (a *AnthropicTransport) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Model),
		MaxTokens: int64(req.MaxTokens),
	}
	if params.MaxTokens == 0 {
		params.MaxTokens = anthropicDefaultMaxTokens
	}
	if req.Temperature != 0 {
		params.Temperature = anthropic.Float(float64(req.Temperature))
	}
	if req.TopP != 0 {
		params.TopP = anthropic.Float(float64(req.TopP))
	}
	if len(req.Stop) > 0 {
		params.StopSequences = req.Stop
	}

	for _, m := range req.Messages {
		switch m.Role {
		case openai.ChatMessageRoleSystem:
			for _, p := range messageTextParts(m) {
				params.System = append(params.System, anthropic.TextBlockParam{Text: p})
			}
		case openai.ChatMessageRoleAssistant:
			params.Messages = append(params.Messages, anthropic.NewAssistantMessage(anthropicBlocks(m)...))
		default:
			params.Messages = append(params.Messages, anthropic.NewUserMessage(anthropicBlocks(m)...))
		}
	}

	if req.ResponseFormat != nil {
		params.System = append(params.System, anthropic.TextBlockParam{
			Text: "Respond with a single JSON object and nothing else.",
		})
	}

	for _, t := range req.Tools {
		if t.Function == nil {
			continue
		}
		params.Tools = append(params.Tools, anthropicTool(t))
	}

	msg, err := a.Client.Messages.New(ctx, params)
	if err != nil {
		return openai.ChatCompletionResponse{}, err
	}

	var text string
	for _, cb := range msg.Content {
		if tb, ok := cb.AsAny().(anthropic.TextBlock); ok {
			text += tb.Text
		}
	}

	return openai.ChatCompletionResponse{
		Model: req.Model,
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: text}},
		},
		Usage: openai.Usage{
			PromptTokens:     int(msg.Usage.InputTokens),
			CompletionTokens: int(msg.Usage.OutputTokens),
			TotalTokens:      int(msg.Usage.InputTokens + msg.Usage.OutputTokens),
		},
	}, nil
}

// anthropicBlocks converts one normalized message's content into Anthropic
// content blocks. Data-URI images are sent as base64 sources, remote URLs as
// URL sources.
func anthropicBlocks(m openai.ChatCompletionMessage) []anthropic.ContentBlockParamUnion {
	if m.MultiContent == nil {
		return []anthropic.ContentBlockParamUnion{anthropic.NewTextBlock(m.Content)}
	}

	blocks := make([]anthropic.ContentBlockParamUnion, 0, len(m.MultiContent))
	for _, p := range m.MultiContent {
		switch p.Type {
		case openai.ChatMessagePartTypeImageURL:
			if p.ImageURL == nil {
				continue
			}
			if mime, data, ok := parseDataURI(p.ImageURL.URL); ok {
				blocks = append(blocks, anthropic.NewImageBlockBase64(mime, base64.StdEncoding.EncodeToString(data)))
			} else {
				blocks = append(blocks, anthropic.NewImageBlock(anthropic.URLImageSourceParam{URL: p.ImageURL.URL}))
			}
		default:
			blocks = append(blocks, anthropic.NewTextBlock(p.Text))
		}
	}
	return blocks
}

// messageTextParts flattens a message to its text parts only.
func messageTextParts(m openai.ChatCompletionMessage) []string {
	if m.MultiContent == nil {
		return []string{m.Content}
	}
	var out []string
	for _, p := range m.MultiContent {
		if p.Type == openai.ChatMessagePartTypeText {
			out = append(out, p.Text)
		}
	}
	return out
}

// anthropicTool maps an OpenAI function declaration onto an Anthropic tool.
// The declaration's JSON schema splits into the input schema's properties and
// required list.
func anthropicTool(t openai.Tool) anthropic.ToolUnionParam {
	tool := anthropic.ToolParam{
		Name:        t.Function.Name,
		Description: anthropic.String(t.Function.Description),
	}

	raw, err := json.Marshal(t.Function.Parameters)
	if err == nil {
		var doc struct {
			Properties map[string]any `json:"properties"`
			Required   []string       `json:"required"`
		}
		if json.Unmarshal(raw, &doc) == nil {
			tool.InputSchema = anthropic.ToolInputSchemaParam{
				Properties: doc.Properties,
				Required:   doc.Required,
			}
		}
	}
	return anthropic.ToolUnionParam{OfTool: &tool}
}

var _ Transport = (*AnthropicTransport)(nil)
