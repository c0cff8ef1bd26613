package classify

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"monoscan/extract"
)

type stubRetriever struct {
	passages []string
	calls    int
}

func (r *stubRetriever) Search(ctx context.Context, query string, k int) []string {
	r.calls++
	return r.passages
}

type stubCompleter struct {
	response string
	err      error
	calls    int
}

func (c *stubCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	c.calls++
	return c.response, c.err
}

// slowCompleter answers after a fixed delay, counting calls atomically so
// concurrent classifications can assert call sharing.
type slowCompleter struct {
	response string
	delay    time.Duration
	calls    atomic.Int32
}

func (c *slowCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	c.calls.Add(1)
	time.Sleep(c.delay)
	return c.response, nil
}

// blockingCompleter never answers on its own; it returns only when the
// call context expires.
type blockingCompleter struct {
	calls int
}

func (c *blockingCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	c.calls++
	<-ctx.Done()
	return "", ctx.Err()
}

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	cache, err := OpenCache(filepath.Join(t.TempDir(), "cache.json"))
	require.NoError(t, err)
	return cache
}

func TestClassifyNonMedicinalShortCircuits(t *testing.T) {
	retriever := &stubRetriever{passages: []string{"irrelevant"}}
	completer := &stubCompleter{response: `{"class": 1, "confidence": 0.9}`}
	c := NewClassifier(newTestCache(t), retriever, completer)

	got, err := c.Classify(context.Background(), extract.Ingredient{
		Name: "Microcrystalline Cellulose",
		Type: extract.NonMedicinal,
	})
	require.NoError(t, err)

	assert.Equal(t, NonMedicinalResult(), got)
	assert.Equal(t, 0, retriever.calls)
	assert.Equal(t, 0, completer.calls)
}

func TestClassifyMissStoresVerdict(t *testing.T) {
	cache := newTestCache(t)
	retriever := &stubRetriever{passages: []string{"Vitamin C monograph text"}}
	completer := &stubCompleter{response: `{"class": 1, "classification_text": "Class 1", "reasoning": "supported", "confidence": 0.9}`}
	c := NewClassifier(cache, retriever, completer)

	got, err := c.Classify(context.Background(), extract.Ingredient{Name: "Vitamin C", Type: extract.Medicinal})
	require.NoError(t, err)

	assert.Equal(t, 1, got.Class)
	assert.True(t, got.MonographFound)
	assert.Equal(t, 1, completer.calls)

	cached, ok := cache.Get("vitamin c")
	require.True(t, ok)
	assert.Equal(t, got, cached)
}

func TestClassifyCacheHitSkipsModel(t *testing.T) {
	cache := newTestCache(t)
	require.NoError(t, cache.Put("Vitamin C", Result{
		Class: 2, ClassificationText: "Class 2", Confidence: 0.6, MonographFound: true,
	}))

	retriever := &stubRetriever{} // empty: monograph no longer present
	completer := &stubCompleter{response: `{"class": 1, "confidence": 0.9}`}
	c := NewClassifier(cache, retriever, completer)

	got, err := c.Classify(context.Background(), extract.Ingredient{Name: "Vitamin C", Type: extract.Medicinal})
	require.NoError(t, err)

	// The verdict is reused, but monograph presence reflects the current
	// knowledge base.
	assert.Equal(t, 2, got.Class)
	assert.False(t, got.MonographFound)
	assert.Equal(t, 0, completer.calls)
	assert.Equal(t, 1, retriever.calls)
}

func TestClassifyModelFailureFallsBack(t *testing.T) {
	cache := newTestCache(t)
	retriever := &stubRetriever{passages: []string{"some monograph"}}
	completer := &stubCompleter{err: errors.New("rate limited")}
	c := NewClassifier(cache, retriever, completer)

	got, err := c.Classify(context.Background(), extract.Ingredient{Name: "Vitamin C", Type: extract.Medicinal})
	require.NoError(t, err)

	assert.Equal(t, 3, got.Class)
	assert.Equal(t, "Class 3 (Fallback)", got.ClassificationText)
	assert.Equal(t, 0.1, got.Confidence)
	assert.True(t, got.MonographFound)

	// Fallbacks are not cached: a later call retries the model.
	assert.Equal(t, 0, cache.Len())
	_, err = c.Classify(context.Background(), extract.Ingredient{Name: "Vitamin C", Type: extract.Medicinal})
	require.NoError(t, err)
	assert.Equal(t, 2, completer.calls)
}

func TestClassifyUnparsableResponseFallsBack(t *testing.T) {
	c := NewClassifier(newTestCache(t), &stubRetriever{}, &stubCompleter{response: "I think it is fine."})

	got, err := c.Classify(context.Background(), extract.Ingredient{Name: "Zinc", Type: extract.Medicinal})
	require.NoError(t, err)

	assert.Equal(t, 3, got.Class)
	assert.False(t, got.MonographFound)
}

func TestClassifyNilCompleterFallsBack(t *testing.T) {
	cache := newTestCache(t)
	c := NewClassifier(cache, &stubRetriever{passages: []string{"text"}}, nil)

	got, err := c.Classify(context.Background(), extract.Ingredient{Name: "Zinc", Type: extract.Medicinal})
	require.NoError(t, err)

	assert.Equal(t, 3, got.Class)
	assert.True(t, got.MonographFound)
	assert.Equal(t, 0, cache.Len())
}

func TestClassifyNilRetriever(t *testing.T) {
	completer := &stubCompleter{response: `{"class": 3, "confidence": 0.8}`}
	c := NewClassifier(newTestCache(t), nil, completer)

	got, err := c.Classify(context.Background(), extract.Ingredient{Name: "Zinc", Type: extract.Medicinal})
	require.NoError(t, err)

	assert.Equal(t, 3, got.Class)
	assert.False(t, got.MonographFound)
}

func TestClassifyPersistenceErrorSurfaces(t *testing.T) {
	// Point the cache inside an existing file so persisting must fail.
	blocker := filepath.Join(t.TempDir(), "blocker")
	cache, err := OpenCache(filepath.Join(blocker, "cache.json"))
	require.NoError(t, err)
	require.NoError(t, writeFile(blocker))

	completer := &stubCompleter{response: `{"class": 1, "confidence": 0.9}`}
	c := NewClassifier(cache, nil, completer)

	_, err = c.Classify(context.Background(), extract.Ingredient{Name: "Zinc", Type: extract.Medicinal})
	assert.Error(t, err)
}

func writeFile(path string) error {
	return os.WriteFile(path, []byte("x"), 0o644)
}

func TestClassifyConcurrentMissesShareOneCall(t *testing.T) {
	cache := newTestCache(t)
	completer := &slowCompleter{
		response: `{"class": 1, "classification_text": "Class 1", "confidence": 0.9}`,
		delay:    100 * time.Millisecond,
	}
	c := NewClassifier(cache, nil, completer)

	const workers = 10
	results := make([]Result, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got, err := c.Classify(context.Background(), extract.Ingredient{Name: "Vitamin C", Type: extract.Medicinal})
			assert.NoError(t, err)
			results[i] = got
		}(i)
	}
	wg.Wait()

	// One model call, every caller gets the same verdict.
	assert.Equal(t, int32(1), completer.calls.Load())
	for _, got := range results {
		assert.Equal(t, results[0], got)
	}
	assert.Equal(t, 1, cache.Len())
}

func TestClassifyConcurrentDistinctNames(t *testing.T) {
	cache := newTestCache(t)
	completer := &slowCompleter{
		response: `{"class": 2, "confidence": 0.8}`,
		delay:    20 * time.Millisecond,
	}
	c := NewClassifier(cache, nil, completer)

	names := []string{"Vitamin C", "Zinc", "Magnesium"}
	var wg sync.WaitGroup
	for _, name := range names {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			_, err := c.Classify(context.Background(), extract.Ingredient{Name: name, Type: extract.Medicinal})
			assert.NoError(t, err)
		}(name)
	}
	wg.Wait()

	// Distinct names do not share calls.
	assert.Equal(t, int32(len(names)), completer.calls.Load())
	assert.Equal(t, len(names), cache.Len())
}

func TestClassifyTimeoutFallsBack(t *testing.T) {
	cache := newTestCache(t)
	completer := &blockingCompleter{}
	c := NewClassifier(cache, &stubRetriever{passages: []string{"monograph"}}, completer,
		WithTimeout(10*time.Millisecond))

	start := time.Now()
	got, err := c.Classify(context.Background(), extract.Ingredient{Name: "Zinc", Type: extract.Medicinal})
	require.NoError(t, err)

	// Expiry of the per-call deadline is a transport failure: the verdict
	// is the deterministic fallback and nothing is cached.
	assert.Equal(t, 3, got.Class)
	assert.Equal(t, 0.1, got.Confidence)
	assert.True(t, got.MonographFound)
	assert.Equal(t, 1, completer.calls)
	assert.Equal(t, 0, cache.Len())
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestClassifyOptions(t *testing.T) {
	retriever := &stubRetriever{}
	c := NewClassifier(newTestCache(t), retriever, nil, WithTopK(7), WithTimeout(5*time.Second))

	assert.Equal(t, 7, c.topK)
	assert.Equal(t, 5*time.Second, c.timeout)
}
