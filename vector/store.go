package vector

import "context"

// Document is one monograph chunk stored in the knowledge base.
type Document struct {
	ID      string `json:"id"`
	Content string `json:"content"`
	// Source is the monograph filename the chunk came from.
	Source string `json:"source"`
	// ChunkID is the chunk's sequence number within its source.
	ChunkID   int    `json:"chunk_id"`
	CreatedAt string `json:"created_at"`
}

// SearchResult is a retrieved document with a relevance score.
type SearchResult struct {
	Document Document
	Score    float32
}

// Store is the contract to the knowledge-base vector index. The collection
// is rebuilt wholesale on ingestion; there is no incremental update.
type Store interface {
	// AddBatch embeds and stores multiple documents in one operation.
	AddBatch(ctx context.Context, docs []Document) error

	// Search performs semantic search and returns the top-k results.
	Search(ctx context.Context, query string, topK int) ([]SearchResult, error)

	// Count returns the number of documents in the collection.
	Count(ctx context.Context) (int64, error)

	// Reset drops the collection and recreates it empty.
	Reset(ctx context.Context) error

	// Close releases any connections or resources.
	Close() error
}

// StoreConfig holds configuration shared by store implementations.
type StoreConfig struct {
	// EmbeddingDim must match the embedding model's output dimension.
	EmbeddingDim int

	// IndexName is the name of the vector index.
	IndexName string

	// KeyPrefix namespaces stored documents.
	KeyPrefix string
}

// DefaultStoreConfig returns the default knowledge-base configuration.
func DefaultStoreConfig() StoreConfig {
	return StoreConfig{
		EmbeddingDim: 1024,
		IndexName:    "nhp-monographs",
		KeyPrefix:    "mono:",
	}
}
