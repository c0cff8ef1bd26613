package classify

import (
	"context"
	"log"
	"sync"
	"time"

	"monoscan/extract"
)

const (
	// DefaultTopK is the number of knowledge-base passages retrieved per
	// classification.
	DefaultTopK = 3
	// DefaultTimeout bounds a single model call; expiry is treated the
	// same as a transport failure.
	DefaultTimeout = 60 * time.Second
)

// Retriever is the narrow contract to the nearest-neighbor document search
// service. Implementations never fail: internal errors degrade to an empty
// result.
type Retriever interface {
	Search(ctx context.Context, query string, k int) []string
}

// Completer is the narrow contract to the prompt-completion service.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Classifier decides a classification verdict per ingredient, consulting
// the durable cache first and degrading to a deterministic fallback when
// the model is unavailable.
type Classifier struct {
	cache     *Cache
	retriever Retriever
	completer Completer
	topK      int
	timeout   time.Duration

	mu       sync.Mutex
	inflight map[string]*call
}

// call tracks one in-flight classification so concurrent requests for the
// same name share a single external call.
type call struct {
	done   chan struct{}
	result Result
	err    error
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithTopK sets the number of passages retrieved per classification.
func WithTopK(k int) Option {
	return func(c *Classifier) {
		if k > 0 {
			c.topK = k
		}
	}
}

// WithTimeout sets the per-call model timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Classifier) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// NewClassifier creates a Classifier. A nil completer is valid and routes
// every cache miss through the fallback verdict; callers detect missing
// credentials once at startup rather than per call.
func NewClassifier(cache *Cache, retriever Retriever, completer Completer, opts ...Option) *Classifier {
	c := &Classifier{
		cache:     cache,
		retriever: retriever,
		completer: completer,
		topK:      DefaultTopK,
		timeout:   DefaultTimeout,
		inflight:  make(map[string]*call),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Classify returns the verdict for one extracted ingredient.
//
// Non-medicinal ingredients short-circuit to a fixed verdict with no I/O.
// A cache hit re-runs retrieval only to refresh MonographFound; the cached
// verdict itself is reused unchanged. A cache miss runs retrieval and the
// model, falling back deterministically on any service failure. The only
// error surfaced to the caller is a cache persistence failure.
func (c *Classifier) Classify(ctx context.Context, ing extract.Ingredient) (Result, error) {
	if ing.Type == extract.NonMedicinal {
		return NonMedicinalResult(), nil
	}

	if cached, ok := c.cache.Get(ing.Name); ok {
		cached.MonographFound = len(c.search(ctx, ing.Name)) > 0
		return cached, nil
	}

	return c.classifyMiss(ctx, ing.Name)
}

// classifyMiss handles a cache miss with a per-key in-flight guard: at
// most one external call is issued per distinct name at a time, and
// concurrent requesters await that single result.
func (c *Classifier) classifyMiss(ctx context.Context, name string) (Result, error) {
	key := cacheKey(name)

	c.mu.Lock()
	if existing, ok := c.inflight[key]; ok {
		c.mu.Unlock()
		select {
		case <-existing.done:
			return existing.result, existing.err
		case <-ctx.Done():
			return Result{}, ctx.Err()
		}
	}
	cl := &call{done: make(chan struct{})}
	c.inflight[key] = cl
	c.mu.Unlock()

	cl.result, cl.err = c.resolve(ctx, name)

	c.mu.Lock()
	delete(c.inflight, key)
	c.mu.Unlock()
	close(cl.done)

	return cl.result, cl.err
}

// resolve runs retrieval and the model for a name not present in the cache.
func (c *Classifier) resolve(ctx context.Context, name string) (Result, error) {
	passages := c.search(ctx, name)
	monographFound := len(passages) > 0

	if c.completer == nil {
		return FallbackResult(name, monographFound), nil
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	response, err := c.completer.Complete(callCtx, BuildPrompt(name, passages))
	if err != nil {
		log.Printf("classify: model call failed for %q: %v, using fallback", name, err)
		return FallbackResult(name, monographFound), nil
	}

	verdict, err := ParseVerdict(response)
	if err != nil {
		log.Printf("classify: %v for %q, using fallback", err, name)
		return FallbackResult(name, monographFound), nil
	}

	verdict.MonographFound = monographFound
	if err := c.cache.Put(name, verdict); err != nil {
		return Result{}, err
	}
	return verdict, nil
}

// search queries the retriever, tolerating its absence.
func (c *Classifier) search(ctx context.Context, query string) []string {
	if c.retriever == nil {
		return nil
	}
	return c.retriever.Search(ctx, query, c.topK)
}
