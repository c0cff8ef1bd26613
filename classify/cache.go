package classify

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Cache is the durable store of classification verdicts, serialized as a
// single JSON object keyed by ingredient name. It is authoritative once
// populated: there is no TTL and no invalidation short of Reset.
//
// Keys are normalized to the lower-cased, trimmed name so that "Vitamin C"
// and "vitamin c" share one verdict, consistent with de-duplication
// identity elsewhere.
type Cache struct {
	path    string
	mu      sync.Mutex
	entries map[string]Result
}

// OpenCache loads the cache file at path, starting empty when the file
// does not exist yet.
func OpenCache(path string) (*Cache, error) {
	c := &Cache{
		path:    path,
		entries: make(map[string]Result),
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return c, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read classification cache: %w", err)
	}
	if err := json.Unmarshal(data, &c.entries); err != nil {
		return nil, fmt.Errorf("failed to parse classification cache %s: %w", path, err)
	}
	return c, nil
}

// cacheKey normalizes an ingredient name to its cache identity.
func cacheKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Get returns the cached verdict for an ingredient name, if any.
func (c *Cache) Get(name string) (Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.entries[cacheKey(name)]
	return r, ok
}

// Put stores a verdict and persists the cache. A persistence failure is
// returned to the caller: silently losing a write would corrupt the
// cache's authoritative-once-populated contract without any signal.
func (c *Cache) Put(name string, r Result) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[cacheKey(name)] = r
	return c.persistLocked()
}

// Reset discards all cached verdicts and persists the empty state.
func (c *Cache) Reset() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]Result)
	return c.persistLocked()
}

// Len returns the number of cached verdicts.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// persistLocked rewrites the cache file atomically: the new content is
// written to a temp file in the same directory and renamed over the old
// one, so a crash mid-write never corrupts prior entries.
func (c *Cache) persistLocked() error {
	data, err := json.MarshalIndent(c.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode classification cache: %w", err)
	}

	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".cache-*.json")
	if err != nil {
		return fmt.Errorf("failed to create cache temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write classification cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close cache temp file: %w", err)
	}
	if err := os.Rename(tmpName, c.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace classification cache: %w", err)
	}
	return nil
}
