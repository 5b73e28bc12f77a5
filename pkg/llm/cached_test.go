package llm

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func TestCachedClientServesRepeatCallsFromCache(t *testing.T) {
	transport := &ScriptTransport{Responses: []string{"answer"}}
	cached := NewCachedClient(NewClient(transport, nil), 8, time.Minute, "")

	opts := RequestOptions{Model: "m", Messages: []ChatMessage{{Role: RoleUser, Content: "q"}}}
	for i := 0; i < 3; i++ {
		res, err := cached.Complete(context.Background(), opts)
		if err != nil {
			t.Fatalf("Complete returned error: %v", err)
		}
		if res.Data != "answer" {
			t.Fatalf("unexpected data: %v", res.Data)
		}
	}
	if transport.Calls() != 1 {
		t.Fatalf("expected a single upstream dispatch, got %d", transport.Calls())
	}
}

func TestCachedClientKeysOnRequestShape(t *testing.T) {
	transport := &ScriptTransport{Responses: []string{"a", "b"}}
	cached := NewCachedClient(NewClient(transport, nil), 8, time.Minute, "")

	if _, err := cached.Complete(context.Background(), RequestOptions{Model: "m", Messages: []ChatMessage{{Role: RoleUser, Content: "one"}}}); err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}
	if _, err := cached.Complete(context.Background(), RequestOptions{Model: "m", Messages: []ChatMessage{{Role: RoleUser, Content: "two"}}}); err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}
	if transport.Calls() != 2 {
		t.Fatalf("distinct requests must not share cache entries: %d dispatches", transport.Calls())
	}
}

func TestCachedClientDoesNotCacheFailures(t *testing.T) {
	boom := errors.New("unreachable")
	transport := &ScriptTransport{Err: boom}
	cached := NewCachedClient(NewClient(transport, nil), 8, time.Minute, "")

	opts := RequestOptions{Model: "m", Messages: []ChatMessage{{Role: RoleUser, Content: "q"}}}
	for i := 0; i < 2; i++ {
		if _, err := cached.Complete(context.Background(), opts); !errors.Is(err, boom) {
			t.Fatalf("expected transport error, got %v", err)
		}
	}
	if transport.Calls() != 2 {
		t.Fatalf("failures must not be cached: %d dispatches", transport.Calls())
	}
}

func TestCachedClientPersistsAcrossInstances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "llm-cache.json")
	opts := RequestOptions{Model: "m", Messages: []ChatMessage{{Role: RoleUser, Content: "q"}}}

	first := &ScriptTransport{Responses: []string{"persisted"}}
	cached := NewCachedClient(NewClient(first, nil), 8, time.Minute, path)
	if _, err := cached.Complete(context.Background(), opts); err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}

	second := &ScriptTransport{Responses: []string{"fresh"}}
	reloaded := NewCachedClient(NewClient(second, nil), 8, time.Minute, path)
	res, err := reloaded.Complete(context.Background(), opts)
	if err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}
	if res.Data != "persisted" {
		t.Fatalf("expected cache hit from disk, got %v", res.Data)
	}
	if second.Calls() != 0 {
		t.Fatalf("reloaded cache should not dispatch: %d calls", second.Calls())
	}
}
