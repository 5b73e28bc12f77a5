package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sashabaranov/go-openai"
)

// Transport dispatches one non-streaming chat completion. *openai.Client
// satisfies it directly; the other adapters in this package translate the
// request for their provider. Transport errors are returned to the caller
// verbatim and are never retried by the client.
type Transport interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Completer is the calling surface shared by Client and CachedClient.
type Completer interface {
	Complete(ctx context.Context, opts RequestOptions) (*Result, error)
}

// Client turns provider-neutral requests into wire-correct completions and,
// when a schema is requested, enforces that the output conforms to it via
// bounded retry. A Client is stateless across calls apart from the logger.
type Client struct {
	transport Transport
	logger    Logger
}

// NewClient wraps a transport. A nil logger discards all records.
func NewClient(transport Transport, logger Logger) *Client {
	if logger == nil {
		logger = NopLogger{}
	}
	return &Client{transport: transport, logger: logger}
}

// Complete issues the request and returns the result envelope. With no schema
// the raw text is returned unvalidated. With a schema, the payload is parsed
// and validated; on mismatch the identical request is resent until the retry
// budget runs out, then ErrInvalidSchema is returned. An empty payload under
// a schema fails immediately with ErrEmptyResponse regardless of budget.
func (c *Client) Complete(ctx context.Context, opts RequestOptions) (*Result, error) {
	req := buildRequest(opts, normalizeMessages(opts.Messages, opts.Image, c.logger))

	for attempt := 0; ; attempt++ {
		c.logger.Log(Record{
			Category: "llm",
			Level:    LevelDebug,
			Message:  "dispatching chat completion",
			Fields: map[string]any{
				"model":          opts.Model,
				"attempt":        attempt + 1,
				"correlation_id": opts.CorrelationID,
			},
		})

		resp, err := c.transport.CreateChatCompletion(ctx, req)
		if err != nil {
			return nil, err
		}

		text := responseText(resp)
		c.logger.Log(Record{
			Category: "llm",
			Level:    LevelDebug,
			Message:  "received chat completion",
			Fields: map[string]any{
				"response":       text,
				"correlation_id": opts.CorrelationID,
			},
		})

		usage := Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		}

		if opts.Schema == nil {
			return &Result{Data: text, Usage: usage}, nil
		}
		if text == "" {
			return nil, ErrEmptyResponse
		}

		if value, ok := parseAndValidate(text, opts.Schema); ok {
			return &Result{Data: value, Usage: usage}, nil
		}
		if attempt >= opts.RetryBudget {
			return nil, fmt.Errorf("%w: schema %q failed after %d attempts", ErrInvalidSchema, opts.Schema.Name, attempt+1)
		}
	}
}

// responseText extracts the textual payload from the first choice, or "" when
// the provider returned none.
func responseText(resp openai.ChatCompletionResponse) string {
	if len(resp.Choices) == 0 {
		return ""
	}
	return resp.Choices[0].Message.Content
}

var _ Completer = (*Client)(nil)

// parseAndValidate treats a parse failure and a validation failure
// identically: both are a schema mismatch.
func parseAndValidate(text string, schema *ResponseSchema) (any, bool) {
	var value any
	if err := json.Unmarshal([]byte(text), &value); err != nil {
		return nil, false
	}
	if schema.Validate != nil && !schema.Validate(value) {
		return nil, false
	}
	return value, true
}
