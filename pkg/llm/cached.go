package llm

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/coursewatch/coursewatch/pkg/cache"
)

// CachedClient memoizes successful completions. Failed calls are never
// cached, so retry and error semantics of the wrapped client are unchanged.
// With a non-empty FilePath the cache is persisted as JSON across runs.
type CachedClient struct {
	Inner    Completer
	Cache    *cache.LRU
	FilePath string
}

// NewCachedClient wraps a completer with an LRU of the given size and TTL.
func NewCachedClient(inner Completer, size int, ttl time.Duration, filePath string) *CachedClient {
	c := &CachedClient{
		Inner:    inner,
		Cache:    cache.NewLRU(size, ttl),
		FilePath: filePath,
	}
	if filePath != "" {
		c.load()
	}
	return c
}

func (c *CachedClient) load() {
	f, err := os.Open(c.FilePath)
	if err != nil {
		return // ignore errors (file not found, etc)
	}
	defer f.Close()

	var dump map[string]cache.Entry
	if err := json.NewDecoder(f).Decode(&dump); err == nil {
		c.Cache.Restore(dump)
	}
}

func (c *CachedClient) save() {
	if c.FilePath == "" {
		return
	}
	tmp := c.FilePath + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return
	}
	if err := json.NewEncoder(f).Encode(c.Cache.Dump()); err != nil {
		f.Close()
		os.Remove(tmp)
		return
	}
	f.Close()
	os.Rename(tmp, c.FilePath)
}

// Complete checks the cache before delegating to the wrapped client.
func (c *CachedClient) Complete(ctx context.Context, opts RequestOptions) (*Result, error) {
	key, ok := requestKey(opts)
	if !ok {
		return c.Inner.Complete(ctx, opts)
	}

	if val, hit := c.Cache.Get(key); hit {
		if res, isRes := val.(*Result); isRes {
			return res, nil
		}
		// Restored from disk: the envelope round-trips through JSON.
		if raw, err := json.Marshal(val); err == nil {
			var res Result
			if json.Unmarshal(raw, &res) == nil {
				return &res, nil
			}
		}
	}

	res, err := c.Inner.Complete(ctx, opts)
	if err != nil {
		return nil, err
	}
	c.Cache.Set(key, res)
	c.save()
	return res, nil
}

// requestKey derives a stable key from everything that shapes the outgoing
// request. Validation predicates cannot be hashed, so only the schema's name
// and document participate.
func requestKey(opts RequestOptions) (string, bool) {
	hashable := struct {
		Model      string
		Messages   []ChatMessage
		SchemaName string
		SchemaDoc  json.RawMessage
		Params     GenerationParams
	}{Model: opts.Model, Messages: opts.Messages, Params: opts.Params}
	if opts.Schema != nil {
		hashable.SchemaName = opts.Schema.Name
		hashable.SchemaDoc = opts.Schema.Schema
	}

	raw, err := json.Marshal(hashable)
	if err != nil {
		return "", false
	}
	chunks := [][]byte{raw}
	if opts.Image != nil {
		chunks = append(chunks, []byte(opts.Image.URL), opts.Image.Buffer)
	}
	return cache.Key(chunks...), true
}

var _ Completer = (*CachedClient)(nil)
