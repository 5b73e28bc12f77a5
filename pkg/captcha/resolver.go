// Package captcha resolves CAPTCHA images through a vision model with a
// schema-constrained completion.
package captcha

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/coursewatch/coursewatch/pkg/llm"
)

const prompt = "Read the characters in this CAPTCHA image. Reply with JSON: {\"text\": \"<characters>\"}."

var answerSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"text": {"type": "string", "description": "The characters shown in the image"}
	},
	"required": ["text"],
	"additionalProperties": false
}`)

// Resolver decodes CAPTCHA images. The zero Retries means a single attempt
// per Resolve call.
type Resolver struct {
	LLM     llm.Completer
	Model   string
	Retries int
}

// NewResolver builds a resolver on top of a completion client.
func NewResolver(client llm.Completer, model string, retries int) *Resolver {
	return &Resolver{LLM: client, Model: model, Retries: retries}
}

// Resolve sends the image bytes to the model and returns the decoded text.
// Callers decide whether to fall back to manual entry on error.
func (r *Resolver) Resolve(ctx context.Context, image []byte) (string, error) {
	res, err := r.LLM.Complete(ctx, llm.RequestOptions{
		Model: r.Model,
		Messages: []llm.ChatMessage{
			{Role: llm.RoleUser, Content: prompt},
		},
		Image: &llm.ImageAttachment{Buffer: image},
		Schema: &llm.ResponseSchema{
			Name:   "CaptchaAnswer",
			Schema: answerSchema,
			Validate: func(v any) bool {
				obj, ok := v.(map[string]any)
				if !ok {
					return false
				}
				text, ok := obj["text"].(string)
				return ok && strings.TrimSpace(text) != ""
			},
		},
		RetryBudget:   r.Retries,
		CorrelationID: "captcha",
	})
	if err != nil {
		return "", fmt.Errorf("resolve captcha: %w", err)
	}

	obj, ok := res.Data.(map[string]any)
	if !ok {
		return "", errors.New("resolve captcha: unexpected payload shape")
	}
	return strings.TrimSpace(obj["text"].(string)), nil
}
