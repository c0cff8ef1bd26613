package classify

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheStartsEmpty(t *testing.T) {
	cache, err := OpenCache(filepath.Join(t.TempDir(), "cache.json"))
	require.NoError(t, err)

	assert.Equal(t, 0, cache.Len())
	_, ok := cache.Get("Vitamin C")
	assert.False(t, ok)
}

func TestCachePutGetRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")
	cache, err := OpenCache(path)
	require.NoError(t, err)

	verdict := Result{Class: 1, ClassificationText: "Class 1", Confidence: 0.9}
	require.NoError(t, cache.Put("Vitamin C", verdict))

	got, ok := cache.Get("Vitamin C")
	require.True(t, ok)
	assert.Equal(t, verdict, got)
}

func TestCacheKeyIsCaseInsensitive(t *testing.T) {
	cache, err := OpenCache(filepath.Join(t.TempDir(), "cache.json"))
	require.NoError(t, err)

	require.NoError(t, cache.Put("Vitamin C", Result{Class: 1, Confidence: 0.9}))

	_, ok := cache.Get("  VITAMIN C ")
	assert.True(t, ok)
	assert.Equal(t, 1, cache.Len())

	// Writing under a different casing overwrites, not duplicates.
	require.NoError(t, cache.Put("vitamin c", Result{Class: 2, Confidence: 0.5}))
	assert.Equal(t, 1, cache.Len())
}

func TestCacheSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")

	cache, err := OpenCache(path)
	require.NoError(t, err)
	require.NoError(t, cache.Put("Zinc", Result{Class: 2, ClassificationText: "Class 2", Confidence: 0.6}))

	reopened, err := OpenCache(path)
	require.NoError(t, err)

	got, ok := reopened.Get("Zinc")
	require.True(t, ok)
	assert.Equal(t, 2, got.Class)
	assert.Equal(t, 0.6, got.Confidence)
}

func TestCacheFileIsValidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")
	cache, err := OpenCache(path)
	require.NoError(t, err)
	require.NoError(t, cache.Put("Zinc", Result{Class: 2, Confidence: 0.6}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var entries map[string]Result
	require.NoError(t, json.Unmarshal(data, &entries))
	assert.Contains(t, entries, "zinc")
}

func TestCacheReset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")
	cache, err := OpenCache(path)
	require.NoError(t, err)
	require.NoError(t, cache.Put("Zinc", Result{Class: 2, Confidence: 0.6}))

	require.NoError(t, cache.Reset())
	assert.Equal(t, 0, cache.Len())

	reopened, err := OpenCache(path)
	require.NoError(t, err)
	assert.Equal(t, 0, reopened.Len())
}

func TestCacheRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := OpenCache(path)
	assert.Error(t, err)
}
