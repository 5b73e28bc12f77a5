package llm

import "encoding/json"

// Role identifies the author of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// PartKind tags a content part. Anything that is neither text nor an image
// reference is Unknown and degrades to an empty text part during
// normalization, so positional slots are never lost.
type PartKind int

const (
	PartUnknown PartKind = iota
	PartText
	PartImage
)

// ContentPart is one atomic unit of a message's content.
type ContentPart struct {
	Kind PartKind
	Text string // set when Kind == PartText
	URL  string // set when Kind == PartImage; remote URL or data URI
}

// TextPart builds a text content part.
func TextPart(text string) ContentPart { return ContentPart{Kind: PartText, Text: text} }

// ImagePart builds an image content part referencing a URL or data URI.
func ImagePart(url string) ContentPart { return ContentPart{Kind: PartImage, URL: url} }

// ChatMessage is a provider-neutral chat message. Content carries plain-string
// content; when Parts is non-nil the message has array content and Content is
// ignored. Non-user roles may carry only text parts; image parts on
// system/assistant messages are dropped during normalization.
type ChatMessage struct {
	Role    Role
	Content string
	Parts   []ContentPart
}

// ImageAttachment is an optional standalone image merged into the first
// plain-string user message. Exactly one of URL or Buffer should be set.
// MIME applies to Buffer only; when empty the buffer is encoded with the
// default image MIME type.
type ImageAttachment struct {
	URL    string
	Buffer []byte
	MIME   string
}

// ResponseSchema names the structural shape the model's textual output must
// conform to. Schema, when present, is the JSON Schema document sent to the
// provider as a strict response-format directive. Validate, when present, is
// evaluated against the parsed payload; a nil Validate accepts anything that
// parses as JSON.
type ResponseSchema struct {
	Name     string
	Schema   json.RawMessage
	Validate func(value any) bool
}

// ToolDefinition declares a callable function to the model. The client only
// forwards declarations; it never executes tools.
type ToolDefinition struct {
	Name        string
	Description string
	Parameters  json.RawMessage
}

// GenerationParams are passthrough sampling parameters. Zero values are
// omitted from the outgoing request.
type GenerationParams struct {
	Temperature float32
	TopP        float32
	MaxTokens   int
	Stop        []string
}

// RequestOptions describes a single completion call. Constructed fresh per
// call and treated as immutable by the client.
type RequestOptions struct {
	Model         string
	Messages      []ChatMessage
	Schema        *ResponseSchema
	Image         *ImageAttachment
	Params        GenerationParams
	Tools         []ToolDefinition
	RetryBudget   int
	CorrelationID string
}

// Usage reports token counts for the final successful attempt. Fields are
// zero when the provider omits them. Usage from failed or retried attempts is
// not accumulated.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Result is the envelope returned on terminal success. Data holds the raw
// response text, or the parsed structured value when a schema was requested.
type Result struct {
	Data  any   `json:"data"`
	Usage Usage `json:"usage"`
}
