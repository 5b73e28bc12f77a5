package cache

import (
	"testing"
	"time"
)

func TestLRUSetGet(t *testing.T) {
	c := NewLRU(4, time.Minute)
	c.Set("a", 1)

	val, ok := c.Get("a")
	if !ok || val != 1 {
		t.Fatalf("Get(a) = %v, %v", val, ok)
	}
	if _, ok := c.Get("missing"); ok {
		t.Fatalf("unexpected hit for missing key")
	}
}

func TestLRUEvictsLeastRecentlyUsed(t *testing.T) {
	c := NewLRU(2, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)

	// Touch "a" so "b" becomes the eviction candidate.
	if _, ok := c.Get("a"); !ok {
		t.Fatalf("expected hit for a")
	}
	c.Set("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Fatalf("b should have been evicted")
	}
	if _, ok := c.Get("a"); !ok {
		t.Fatalf("a should have survived")
	}
	if c.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", c.Len())
	}
}

func TestLRUExpiresEntries(t *testing.T) {
	c := NewLRU(4, 10*time.Millisecond)
	c.Set("a", 1)

	time.Sleep(20 * time.Millisecond)
	if _, ok := c.Get("a"); ok {
		t.Fatalf("expired entry should miss")
	}
}

func TestLRUDumpRestoreRoundTrip(t *testing.T) {
	c := NewLRU(4, time.Minute)
	c.Set("a", "x")
	c.Set("b", "y")

	restored := NewLRU(4, time.Minute)
	restored.Restore(c.Dump())

	for _, key := range []string{"a", "b"} {
		if _, ok := restored.Get(key); !ok {
			t.Fatalf("restored cache missing %q", key)
		}
	}
}

func TestRestoreSkipsExpiredAndEnforcesCapacity(t *testing.T) {
	dump := map[string]Entry{
		"live":    {Value: 1, ExpiresAt: time.Now().Add(time.Minute)},
		"expired": {Value: 2, ExpiresAt: time.Now().Add(-time.Minute)},
	}

	c := NewLRU(1, time.Minute)
	c.Restore(dump)

	if _, ok := c.Get("expired"); ok {
		t.Fatalf("expired entry restored")
	}
	if c.Len() > 1 {
		t.Fatalf("capacity not enforced: %d", c.Len())
	}
}

func TestKeyIsStableAndChunkSensitive(t *testing.T) {
	a := Key([]byte("model"), []byte("prompt"))
	b := Key([]byte("model"), []byte("prompt"))
	if a != b {
		t.Fatalf("same chunks should hash identically")
	}
	if a == Key([]byte("model"), []byte("other")) {
		t.Fatalf("different chunks should hash differently")
	}
}
