package llm

import (
	"github.com/sashabaranov/go-openai"
)

// buildRequest merges normalized messages with the passthrough generation
// parameters, the optional schema-constrained response format and the tool
// declarations. The request is always non-streaming.
func buildRequest(opts RequestOptions, messages []openai.ChatCompletionMessage) openai.ChatCompletionRequest {
	req := openai.ChatCompletionRequest{
		Model:       opts.Model,
		Messages:    messages,
		Temperature: opts.Params.Temperature,
		TopP:        opts.Params.TopP,
		MaxTokens:   opts.Params.MaxTokens,
		Stop:        opts.Params.Stop,
	}

	if opts.Schema != nil {
		req.ResponseFormat = responseFormat(opts.Schema)
	}

	for _, t := range opts.Tools {
		req.Tools = append(req.Tools, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			},
		})
	}

	return req
}

// responseFormat derives the response-format directive from a schema: a named
// strict json_schema directive when the schema carries a document, otherwise
// a plain json_object directive.
func responseFormat(schema *ResponseSchema) *openai.ChatCompletionResponseFormat {
	if len(schema.Schema) == 0 {
		return &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}
	return &openai.ChatCompletionResponseFormat{
		Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
		JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
			Name:   schema.Name,
			Schema: schema.Schema,
			Strict: true,
		},
	}
}
