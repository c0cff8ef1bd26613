package service

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"sort"
	"sync"

	"github.com/bmatcuk/doublestar/v4"

	"monoscan/classify"
	"monoscan/extract"
	"monoscan/parser"
	"monoscan/pubsub"
	"monoscan/vector"
)

// monographPatterns are the file types picked up from the monograph
// directory.
var monographPatterns = []string{"**/*.md", "**/*.txt", "**/*.html", "**/*.htm", "**/*.pdf"}

// Knowledge manages the monograph knowledge base: wholesale rebuilds from
// a directory of source documents, and the paired reset of vector index
// and classification cache.
type Knowledge struct {
	store    vector.Store
	cache    *classify.Cache
	registry *parser.Registry
	chunkCfg vector.ChunkConfig
	broker   *pubsub.Broker[pubsub.IngestProgress]

	// mu serializes rebuilds and resets; concurrent rebuilds would
	// interleave Reset and AddBatch.
	mu sync.Mutex
}

// NewKnowledge creates the knowledge-base manager.
func NewKnowledge(store vector.Store, cache *classify.Cache, registry *parser.Registry, chunkCfg vector.ChunkConfig) *Knowledge {
	return &Knowledge{
		store:    store,
		cache:    cache,
		registry: registry,
		chunkCfg: chunkCfg,
		broker:   pubsub.NewBroker[pubsub.IngestProgress](),
	}
}

// Events returns the progress event stream for rebuilds.
func (k *Knowledge) Events() pubsub.Subscriber[pubsub.IngestProgress] {
	return k.broker
}

// Shutdown closes the progress event stream.
func (k *Knowledge) Shutdown() {
	k.broker.Shutdown()
}

// Rebuild drops the vector collection and re-ingests every monograph
// under dir. Files that fail to parse are logged and skipped; the rebuild
// itself fails only on store errors.
func (k *Knowledge) Rebuild(ctx context.Context, dir string) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	files, err := k.discover(dir)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no monograph files found in %s", dir)
	}

	if err := k.store.Reset(ctx); err != nil {
		return fmt.Errorf("failed to reset vector store: %w", err)
	}

	progress := pubsub.IngestProgress{FilesTotal: len(files)}
	k.broker.Publish(pubsub.StartedEvent, progress)

	for _, file := range files {
		progress.File = file

		doc, err := k.registry.ParseFile(ctx, file)
		if err != nil {
			log.Printf("knowledge: skipping %s: %v", file, err)
			continue
		}

		content := extract.Normalize(doc.Content)
		chunks := vector.ChunkDocument(content, k.chunkCfg)
		if len(chunks) == 0 {
			log.Printf("knowledge: skipping %s: no content", file)
			continue
		}

		docs := make([]vector.Document, len(chunks))
		source := filepath.Base(file)
		for i, chunk := range chunks {
			docs[i] = vector.Document{
				Content: chunk.Content,
				Source:  source,
				ChunkID: chunk.ChunkID,
			}
		}
		if err := k.store.AddBatch(ctx, docs); err != nil {
			k.broker.Publish(pubsub.FailedEvent, pubsub.IngestProgress{
				File: file, FilesTotal: len(files), Err: err.Error(),
			})
			return fmt.Errorf("failed to ingest %s: %w", file, err)
		}

		progress.FilesDone++
		progress.Chunks += len(chunks)
		k.broker.Publish(pubsub.ProgressEvent, progress)
	}

	k.broker.Publish(pubsub.FinishedEvent, progress)
	log.Printf("knowledge: ingested %d chunks from %d/%d files", progress.Chunks, progress.FilesDone, len(files))
	return nil
}

// discover lists monograph files under dir, sorted for a stable ingestion
// order.
func (k *Knowledge) discover(dir string) ([]string, error) {
	seen := make(map[string]struct{})
	var files []string
	for _, pattern := range monographPatterns {
		matches, err := doublestar.FilepathGlob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", dir, err)
		}
		for _, m := range matches {
			if _, ok := seen[m]; !ok {
				seen[m] = struct{}{}
				files = append(files, m)
			}
		}
	}
	sort.Strings(files)
	return files, nil
}

// Reset clears the vector collection and the classification cache as one
// unit. Cached verdicts were produced against the old collection, so they
// go with it.
func (k *Knowledge) Reset(ctx context.Context) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	if err := k.store.Reset(ctx); err != nil {
		return fmt.Errorf("failed to reset vector store: %w", err)
	}
	if err := k.cache.Reset(); err != nil {
		return fmt.Errorf("failed to reset classification cache: %w", err)
	}
	return nil
}

// Status describes the current state of the knowledge base.
type Status struct {
	Documents    int64 `json:"documents"`
	CachedNames  int   `json:"cached_names"`
	StoreHealthy bool  `json:"store_healthy"`
}

// Status reports document and cache counts.
func (k *Knowledge) Status(ctx context.Context) Status {
	st := Status{CachedNames: k.cache.Len()}
	count, err := k.store.Count(ctx)
	if err != nil {
		log.Printf("knowledge: count failed: %v", err)
		return st
	}
	st.Documents = count
	st.StoreHealthy = true
	return st
}

// StoreRetriever adapts a vector store to the classifier's retrieval
// contract. Search errors degrade to an empty result so a flaky index
// turns into a fallback verdict rather than a failed analysis.
type StoreRetriever struct {
	Store vector.Store
}

// Search returns the content of the top-k passages for the query.
func (r StoreRetriever) Search(ctx context.Context, query string, k int) []string {
	results, err := r.Store.Search(ctx, query, k)
	if err != nil {
		log.Printf("knowledge: search failed for %q: %v", query, err)
		return nil
	}
	passages := make([]string, 0, len(results))
	for _, res := range results {
		if res.Document.Content != "" {
			passages = append(passages, res.Document.Content)
		}
	}
	return passages
}
