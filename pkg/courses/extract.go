// Package courses turns scraped registration-table text into typed course
// rows via a schema-constrained completion.
package courses

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/coursewatch/coursewatch/pkg/llm"
)

// Course is one row of the registration table.
type Course struct {
	Code      string `json:"code"`
	Title     string `json:"title"`
	Status    string `json:"status"`
	SeatsOpen int    `json:"seats_open"`
}

const extractPrompt = "Extract every course row from the registration table below. " +
	"Reply with JSON: {\"courses\": [{\"code\", \"title\", \"status\", \"seats_open\"}]}.\n\n"

var tableSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"courses": {
			"type": "array",
			"items": {
				"type": "object",
				"properties": {
					"code": {"type": "string"},
					"title": {"type": "string"},
					"status": {"type": "string"},
					"seats_open": {"type": "integer"}
				},
				"required": ["code", "title", "status", "seats_open"],
				"additionalProperties": false
			}
		}
	},
	"required": ["courses"],
	"additionalProperties": false
}`)

// Extractor parses registration tables with a completion client.
type Extractor struct {
	LLM     llm.Completer
	Model   string
	Retries int
}

// NewExtractor builds an extractor on top of a completion client.
func NewExtractor(client llm.Completer, model string, retries int) *Extractor {
	return &Extractor{LLM: client, Model: model, Retries: retries}
}

// Extract parses the captured table text into course rows.
func (e *Extractor) Extract(ctx context.Context, tableText string) ([]Course, error) {
	res, err := e.LLM.Complete(ctx, llm.RequestOptions{
		Model: e.Model,
		Messages: []llm.ChatMessage{
			{Role: llm.RoleSystem, Content: "You extract structured data from text tables. Output JSON only."},
			{Role: llm.RoleUser, Content: extractPrompt + tableText},
		},
		Schema: &llm.ResponseSchema{
			Name:   "CourseTable",
			Schema: tableSchema,
			Validate: func(v any) bool {
				obj, ok := v.(map[string]any)
				if !ok {
					return false
				}
				_, ok = obj["courses"].([]any)
				return ok
			},
		},
		RetryBudget:   e.Retries,
		CorrelationID: "course-table",
	})
	if err != nil {
		return nil, fmt.Errorf("extract courses: %w", err)
	}

	// Re-marshal the validated payload into typed rows.
	raw, err := json.Marshal(res.Data)
	if err != nil {
		return nil, fmt.Errorf("extract courses: %w", err)
	}
	var doc struct {
		Courses []Course `json:"courses"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("extract courses: %w", err)
	}
	return doc.Courses, nil
}

// OpenSeats filters to courses with at least one open seat.
func OpenSeats(all []Course) []Course {
	var open []Course
	for _, c := range all {
		if c.SeatsOpen > 0 {
			open = append(open, c)
		}
	}
	return open
}
