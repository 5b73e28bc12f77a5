package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	genai "github.com/google/generative-ai-go/genai"
	"github.com/sashabaranov/go-openai"
	"google.golang.org/api/option"
)

// GeminiTransport translates the built OpenAI-shape request onto the Gemini
// API: system messages become the system instruction, history plus the final
// user turn go through a chat session, and a response-format directive maps
// onto the JSON response MIME type and, when a schema document is present,
// a converted genai.Schema.
type GeminiTransport struct {
	Client *genai.Client
}

// NewGeminiTransport reads GOOGLE_API_KEY, falling back to GEMINI_API_KEY.
func NewGeminiTransport(ctx context.Context) (*GeminiTransport, error) {
	apiKey := os.Getenv("GOOGLE_API_KEY")
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	if apiKey == "" {
		return nil, errors.New("missing GOOGLE_API_KEY or GEMINI_API_KEY")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("gemini init: %w", err)
	}
	return &GeminiTransport{Client: client}, nil
}

func (g *GeminiTransport) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	model := g.Client.GenerativeModel(req.Model)

	if req.Temperature != 0 {
		model.SetTemperature(req.Temperature)
	}
	if req.TopP != 0 {
		model.SetTopP(req.TopP)
	}
	if req.MaxTokens != 0 {
		model.SetMaxOutputTokens(int32(req.MaxTokens))
	}
	if len(req.Stop) > 0 {
		model.StopSequences = req.Stop
	}

	if req.ResponseFormat != nil {
		model.ResponseMIMEType = "application/json"
		if req.ResponseFormat.JSONSchema != nil {
			if raw, err := json.Marshal(req.ResponseFormat.JSONSchema.Schema); err == nil {
				model.ResponseSchema = genaiSchema(raw)
			}
		}
	}

	for _, t := range req.Tools {
		if t.Function == nil {
			continue
		}
		var params *genai.Schema
		if raw, err := json.Marshal(t.Function.Parameters); err == nil {
			params = genaiSchema(raw)
		}
		model.Tools = append(model.Tools, &genai.Tool{
			FunctionDeclarations: []*genai.FunctionDeclaration{
				{Name: t.Function.Name, Description: t.Function.Description, Parameters: params},
			},
		})
	}

	var turns []*genai.Content
	for _, m := range req.Messages {
		parts := genaiParts(m)
		switch m.Role {
		case openai.ChatMessageRoleSystem:
			if model.SystemInstruction == nil {
				model.SystemInstruction = &genai.Content{}
			}
			model.SystemInstruction.Parts = append(model.SystemInstruction.Parts, parts...)
		case openai.ChatMessageRoleAssistant:
			turns = append(turns, &genai.Content{Role: "model", Parts: parts})
		default:
			turns = append(turns, &genai.Content{Role: "user", Parts: parts})
		}
	}
	if len(turns) == 0 {
		return openai.ChatCompletionResponse{}, errors.New("gemini: no user or assistant messages")
	}

	session := model.StartChat()
	session.History = turns[:len(turns)-1]
	resp, err := session.SendMessage(ctx, turns[len(turns)-1].Parts...)
	if err != nil {
		return openai.ChatCompletionResponse{}, err
	}

	var text strings.Builder
	if len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil {
		for _, p := range resp.Candidates[0].Content.Parts {
			if t, ok := p.(genai.Text); ok {
				text.WriteString(string(t))
			}
		}
	}

	out := openai.ChatCompletionResponse{Model: req.Model}
	if text.Len() > 0 || len(resp.Candidates) > 0 {
		out.Choices = []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: text.String()}},
		}
	}
	if resp.UsageMetadata != nil {
		out.Usage = openai.Usage{
			PromptTokens:     int(resp.UsageMetadata.PromptTokenCount),
			CompletionTokens: int(resp.UsageMetadata.CandidatesTokenCount),
			TotalTokens:      int(resp.UsageMetadata.TotalTokenCount),
		}
	}
	return out, nil
}

// genaiParts converts one normalized message's content. Data-URI images are
// inlined as image data; remote URLs ride along as file data references.
func genaiParts(m openai.ChatCompletionMessage) []genai.Part {
	if m.MultiContent == nil {
		return []genai.Part{genai.Text(m.Content)}
	}

	parts := make([]genai.Part, 0, len(m.MultiContent))
	for _, p := range m.MultiContent {
		switch p.Type {
		case openai.ChatMessagePartTypeImageURL:
			if p.ImageURL == nil {
				continue
			}
			if mime, data, ok := parseDataURI(p.ImageURL.URL); ok {
				parts = append(parts, genai.ImageData(strings.TrimPrefix(mime, "image/"), data))
			} else {
				parts = append(parts, genai.FileData{URI: p.ImageURL.URL})
			}
		default:
			parts = append(parts, genai.Text(p.Text))
		}
	}
	return parts
}

var genaiTypes = map[string]genai.Type{
	"object":  genai.TypeObject,
	"array":   genai.TypeArray,
	"string":  genai.TypeString,
	"number":  genai.TypeNumber,
	"integer": genai.TypeInteger,
	"boolean": genai.TypeBoolean,
}

// genaiSchema converts a JSON Schema document into the genai schema model.
// Only the subset the structured callers emit is handled; anything else
// collapses to an untyped schema.
func genaiSchema(raw []byte) *genai.Schema {
	var doc struct {
		Type        string                     `json:"type"`
		Description string                     `json:"description"`
		Enum        []string                   `json:"enum"`
		Items       json.RawMessage            `json:"items"`
		Properties  map[string]json.RawMessage `json:"properties"`
		Required    []string                   `json:"required"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil
	}

	s := &genai.Schema{
		Type:        genaiTypes[doc.Type],
		Description: doc.Description,
		Enum:        doc.Enum,
		Required:    doc.Required,
	}
	if len(doc.Items) > 0 {
		s.Items = genaiSchema(doc.Items)
	}
	if len(doc.Properties) > 0 {
		s.Properties = make(map[string]*genai.Schema, len(doc.Properties))
		for name, sub := range doc.Properties {
			s.Properties[name] = genaiSchema(sub)
		}
	}
	return s
}

var _ Transport = (*GeminiTransport)(nil)
