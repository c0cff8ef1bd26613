package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Config carries every runtime setting, read once from the environment at
// startup. A .env file in the working directory is honored when present.
type Config struct {
	// Redis / vector index
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPoolSize int
	IndexName     string
	VectorDim     int

	// Ingestion
	MonographDir string
	ChunkWords   int
	OverlapWords int

	// Classification
	LLMProvider string
	LLMAPIKey   string
	LLMModel    string
	LLMBaseURL  string
	LLMTimeout  time.Duration
	TopK        int
	CachePath   string

	// Embedding
	EmbeddingAPIKey  string
	EmbeddingModel   string
	EmbeddingBaseURL string

	// Extraction
	PDFToTextPath string
	OCRToolPath   string
	// StrategyOrder overrides the default extraction cascade when set.
	StrategyOrder []string
}

// Load builds the configuration from environment variables, applying
// defaults for everything optional. A missing LLM key is not an error:
// classification then degrades to the deterministic fallback.
func Load() *Config {
	return &Config{
		RedisAddr:     getEnvString("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnvString("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		RedisPoolSize: getEnvInt("REDIS_POOL_SIZE", 10),
		IndexName:     getEnvString("VECTOR_INDEX", "nhp-monographs"),
		VectorDim:     getEnvInt("VECTOR_DIM", 1024),

		MonographDir: getEnvString("MONOGRAPH_DIR", "monographs"),
		ChunkWords:   getEnvInt("CHUNK_WORDS", 500),
		OverlapWords: getEnvInt("CHUNK_OVERLAP_WORDS", 50),

		LLMProvider: getEnvString("LLM_PROVIDER", "openai"),
		LLMAPIKey:   getEnvString("API_KEY", ""),
		LLMModel:    getEnvString("MODEL", ""),
		LLMBaseURL:  getEnvString("BASE_URL", ""),
		LLMTimeout:  getEnvDuration("LLM_TIMEOUT", 60*time.Second),
		TopK:        getEnvInt("RETRIEVAL_TOP_K", 3),
		CachePath:   getEnvString("CACHE_PATH", "classification_cache.json"),

		EmbeddingAPIKey:  getEnvString("EMBEDDING_MODEL_API_KEY", ""),
		EmbeddingModel:   getEnvString("EMBEDDING_MODEL", ""),
		EmbeddingBaseURL: getEnvString("EMBEDDING_MODEL_BASE_URL", ""),

		PDFToTextPath: getEnvString("PDFTOTEXT_PATH", "pdftotext"),
		OCRToolPath:   getEnvString("OCR_TOOL_PATH", ""),
		StrategyOrder: getEnvList("STRATEGY_ORDER"),
	}
}

// getEnvString reads a string from an environment variable
func getEnvString(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// getEnvInt reads an integer from an environment variable
func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		var result int
		if _, err := fmt.Sscanf(val, "%d", &result); err == nil {
			return result
		}
	}
	return defaultVal
}

// getEnvDuration reads a duration ("30s", "2m") from an environment variable
func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil && d > 0 {
			return d
		}
	}
	return defaultVal
}

// getEnvList reads a comma-separated list from an environment variable
func getEnvList(key string) []string {
	val := os.Getenv(key)
	if val == "" {
		return nil
	}
	var items []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			items = append(items, part)
		}
	}
	return items
}
