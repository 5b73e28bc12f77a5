package llm

import "errors"

var (
	// ErrEmptyResponse reports that a schema was requested but the provider
	// returned no textual payload. Never retried: an empty payload signals a
	// structurally broken response, not a content-quality issue.
	ErrEmptyResponse = errors.New("llm: empty response payload")

	// ErrInvalidSchema reports that the payload failed to parse or failed
	// schema validation on every permitted attempt.
	ErrInvalidSchema = errors.New("llm: response does not match schema")
)
