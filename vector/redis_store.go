package vector

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/redis/go-redis/v9"
)

const (
	defaultEFConstruction = 200
	defaultM              = 16

	fieldContent   = "content"
	fieldVector    = "vector"
	fieldSource    = "source"
	fieldChunkID   = "chunk_id"
	fieldCreatedAt = "created_at"
)

// RedisStore implements Store using Redis with RediSearch vector search.
type RedisStore struct {
	client         *redis.Client
	embeddingSvc   *EmbeddingService
	config         StoreConfig
	efConstruction int
	m              int
	mu             sync.Mutex
}

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	Addr           string
	Password       string
	DB             int
	PoolSize       int
	IndexName      string
	VectorDim      int
	EFConstruction int
	M              int
}

// NewRedisStore creates a Redis-backed knowledge-base store and ensures
// the vector index exists.
func NewRedisStore(ctx context.Context, embedder embedding.Embedder, cfg RedisConfig) (*RedisStore, error) {
	if embedder == nil {
		return nil, fmt.Errorf("embedding model is required")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	def := DefaultStoreConfig()
	if cfg.IndexName == "" {
		cfg.IndexName = def.IndexName
	}
	if cfg.VectorDim <= 0 {
		cfg.VectorDim = def.EmbeddingDim
	}
	if cfg.EFConstruction <= 0 {
		cfg.EFConstruction = defaultEFConstruction
	}
	if cfg.M <= 0 {
		cfg.M = defaultM
	}

	store := &RedisStore{
		client:       client,
		embeddingSvc: NewEmbeddingService(embedder, cfg.VectorDim),
		config: StoreConfig{
			EmbeddingDim: cfg.VectorDim,
			IndexName:    cfg.IndexName,
			KeyPrefix:    def.KeyPrefix,
		},
		efConstruction: cfg.EFConstruction,
		m:              cfg.M,
	}

	if err := store.ensureIndex(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to create vector index: %w", err)
	}
	return store, nil
}

// ensureIndex creates the HNSW vector index if it doesn't exist.
func (s *RedisStore) ensureIndex(ctx context.Context) error {
	if _, err := s.client.Do(ctx, "FT.INFO", s.config.IndexName).Result(); err == nil {
		return nil
	}

	// FT.CREATE nhp-monographs ON HASH PREFIX 1 "mono:"
	//   SCHEMA vector VECTOR HNSW 6 TYPE FLOAT32 DIM <dim>
	//          DISTANCE_METRIC COSINE EF_CONSTRUCTION 200 M 16
	//          content TEXT source TAG chunk_id NUMERIC created_at NUMERIC
	_, err := s.client.Do(ctx, "FT.CREATE", s.config.IndexName,
		"ON", "HASH",
		"PREFIX", "1", s.config.KeyPrefix,
		"SCHEMA",
		fieldVector, "VECTOR", "HNSW", "6",
		"TYPE", "FLOAT32",
		"DIM", strconv.Itoa(s.config.EmbeddingDim),
		"DISTANCE_METRIC", "COSINE",
		"EF_CONSTRUCTION", strconv.Itoa(s.efConstruction),
		"M", strconv.Itoa(s.m),
		fieldContent, "TEXT",
		fieldSource, "TAG",
		fieldChunkID, "NUMERIC",
		fieldCreatedAt, "NUMERIC",
	).Result()
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}
	return nil
}

// generateID derives a stable document ID from source and chunk number.
func (s *RedisStore) generateID(source string, chunkID int) string {
	h := sha256.New()
	h.Write([]byte(source))
	h.Write([]byte(strconv.Itoa(chunkID)))
	return hex.EncodeToString(h.Sum(nil))[:32]
}

// AddBatch embeds and stores multiple documents in a single pipeline.
func (s *RedisStore) AddBatch(ctx context.Context, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}

	texts := make([]string, len(docs))
	for i, doc := range docs {
		texts[i] = doc.Content
	}
	vectors, err := s.embeddingSvc.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("failed to generate embeddings: %w", err)
	}

	pipe := s.client.Pipeline()
	now := time.Now().Unix()
	for i, doc := range docs {
		if doc.ID == "" {
			doc.ID = s.generateID(doc.Source, doc.ChunkID)
		}

		vectorBytes, err := encodeVector(vectors[i])
		if err != nil {
			return fmt.Errorf("failed to encode vector: %w", err)
		}

		pipe.HSet(ctx, s.config.KeyPrefix+doc.ID,
			fieldContent, doc.Content,
			fieldVector, vectorBytes,
			fieldSource, doc.Source,
			fieldChunkID, doc.ChunkID,
			fieldCreatedAt, now,
		)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to insert documents: %w", err)
	}
	return nil
}

// encodeVector encodes a float32 vector as the raw little-endian blob
// RediSearch expects for FLOAT32 vector fields.
func encodeVector(vector []float32) ([]byte, error) {
	buf := make([]byte, 4*len(vector))
	for i, v := range vector {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(v))
	}
	return buf, nil
}

// Search performs semantic search using KNN vector similarity.
func (s *RedisStore) Search(ctx context.Context, query string, topK int) ([]SearchResult, error) {
	if query == "" {
		return nil, fmt.Errorf("query cannot be empty")
	}
	if topK <= 0 {
		topK = 3
	}
	if topK > 100 {
		topK = 100
	}

	queryVector, err := s.embeddingSvc.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to generate query embedding: %w", err)
	}
	queryBytes, err := encodeVector(queryVector)
	if err != nil {
		return nil, fmt.Errorf("failed to encode query vector: %w", err)
	}

	// FT.SEARCH nhp-monographs "*=>[KNN k @vector $query_vector AS score]"
	queryStr := fmt.Sprintf("*=>[KNN %d @vector $query_vector AS score]", topK)
	result, err := s.client.Do(ctx, "FT.SEARCH", s.config.IndexName, queryStr,
		"PARAMS", "2", "query_vector", queryBytes,
		"RETURN", "4", fieldContent, fieldSource, fieldChunkID, fieldCreatedAt,
		"SORTBY", "score",
		"LIMIT", "0", strconv.Itoa(topK),
		"DIALECT", "2",
	).Result()
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}

	return s.parseSearchResults(result, topK)
}

// parseSearchResults parses the FT.SEARCH reply: a count followed by
// (id, fields) pairs.
func (s *RedisStore) parseSearchResults(result interface{}, topK int) ([]SearchResult, error) {
	values, ok := result.([]interface{})
	if !ok {
		return nil, fmt.Errorf("unexpected result format")
	}
	if len(values) < 2 {
		return []SearchResult{}, nil
	}

	var results []SearchResult
	for i := 1; i < len(values)-1; i += 2 {
		docID, ok := values[i].(string)
		if !ok {
			continue
		}
		fields, ok := values[i+1].([]interface{})
		if !ok {
			continue
		}

		doc := s.parseDocumentFields(docID, fields)

		// The KNN score field is not returned with NOCONTENT-less RETURN;
		// use result order as the relevance indicator.
		results = append(results, SearchResult{
			Document: doc,
			Score:    1.0 - float32(len(results))/float32(topK+1),
		})
	}
	return results, nil
}

// parseDocumentFields decodes the flat field/value reply into a Document.
func (s *RedisStore) parseDocumentFields(id string, fields []interface{}) Document {
	doc := Document{ID: id}
	for i := 0; i+1 < len(fields); i += 2 {
		name, ok := fields[i].(string)
		if !ok {
			continue
		}
		switch name {
		case fieldContent:
			if val, ok := fields[i+1].(string); ok {
				doc.Content = val
			}
		case fieldSource:
			if val, ok := fields[i+1].(string); ok {
				doc.Source = val
			}
		case fieldChunkID:
			switch val := fields[i+1].(type) {
			case int64:
				doc.ChunkID = int(val)
			case string:
				if n, err := strconv.Atoi(val); err == nil {
					doc.ChunkID = n
				}
			}
		}
	}
	return doc
}

// Count returns the number of documents currently indexed.
func (s *RedisStore) Count(ctx context.Context) (int64, error) {
	info, err := s.client.Do(ctx, "FT.INFO", s.config.IndexName).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to get index info: %w", err)
	}

	values, ok := info.([]interface{})
	if !ok {
		return 0, fmt.Errorf("unexpected info format")
	}
	for i := 0; i < len(values)-1; i += 2 {
		if key, ok := values[i].(string); ok && key == "num_docs" {
			switch val := values[i+1].(type) {
			case int64:
				return val, nil
			case string:
				n, err := strconv.ParseInt(val, 10, 64)
				if err == nil {
					return n, nil
				}
			}
		}
	}
	return 0, nil
}

// Reset drops the collection, deleting its documents, and recreates the
// index empty. Ingestion always rebuilds wholesale, so this is the only
// mutation besides AddBatch.
func (s *RedisStore) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// DD also deletes the indexed hashes. A missing index is fine: the
	// collection may never have been built.
	_, _ = s.client.Do(ctx, "FT.DROPINDEX", s.config.IndexName, "DD").Result()

	if err := s.ensureIndex(ctx); err != nil {
		return fmt.Errorf("failed to recreate vector index: %w", err)
	}
	return nil
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}
