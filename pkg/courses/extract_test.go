package courses

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/coursewatch/coursewatch/pkg/llm"
)

const tablePayload = `{"courses": [
	{"code": "CS101", "title": "Intro to Programming", "status": "open", "seats_open": 12},
	{"code": "CS301", "title": "Operating Systems", "status": "full", "seats_open": 0}
]}`

func TestExtractParsesRows(t *testing.T) {
	transport := &llm.ScriptTransport{Responses: []string{tablePayload}}
	extractor := NewExtractor(llm.NewClient(transport, nil), "gpt-4o-mini", 0)

	rows, err := extractor.Extract(context.Background(), "CS101 | Intro to Programming | open | 12\nCS301 | Operating Systems | full | 0")
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}

	want := []Course{
		{Code: "CS101", Title: "Intro to Programming", Status: "open", SeatsOpen: 12},
		{Code: "CS301", Title: "Operating Systems", Status: "full", SeatsOpen: 0},
	}
	if !reflect.DeepEqual(rows, want) {
		t.Fatalf("rows = %+v, want %+v", rows, want)
	}
}

func TestExtractRetriesUntilTableShape(t *testing.T) {
	transport := &llm.ScriptTransport{Responses: []string{`{"rows": []}`, tablePayload}}
	extractor := NewExtractor(llm.NewClient(transport, nil), "gpt-4o-mini", 1)

	rows, err := extractor.Extract(context.Background(), "snapshot")
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if transport.Calls() != 2 {
		t.Fatalf("expected 2 dispatches, got %d", transport.Calls())
	}
}

func TestExtractSurfacesSchemaFailure(t *testing.T) {
	transport := &llm.ScriptTransport{Responses: []string{"<html>not json</html>"}}
	extractor := NewExtractor(llm.NewClient(transport, nil), "gpt-4o-mini", 0)

	_, err := extractor.Extract(context.Background(), "snapshot")
	if !errors.Is(err, llm.ErrInvalidSchema) {
		t.Fatalf("expected ErrInvalidSchema, got %v", err)
	}
}

func TestOpenSeats(t *testing.T) {
	all := []Course{
		{Code: "A", SeatsOpen: 3},
		{Code: "B", SeatsOpen: 0},
		{Code: "C", SeatsOpen: 1},
	}

	open := OpenSeats(all)
	if len(open) != 2 || open[0].Code != "A" || open[1].Code != "C" {
		t.Fatalf("OpenSeats = %+v", open)
	}
	if OpenSeats(nil) != nil {
		t.Fatalf("OpenSeats(nil) should be nil")
	}
}
