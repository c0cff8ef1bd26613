package vector

import "strings"

// ChunkConfig configures how monograph text is split into chunks.
type ChunkConfig struct {
	// ChunkWords is the window size in words.
	ChunkWords int
	// OverlapWords is how many words consecutive chunks share, so that a
	// fact straddling a boundary is still retrievable.
	OverlapWords int
}

// DefaultChunkConfig returns the default chunking configuration: 500-word
// windows with a 50-word overlap.
func DefaultChunkConfig() ChunkConfig {
	return ChunkConfig{
		ChunkWords:   500,
		OverlapWords: 50,
	}
}

// Chunk is one contiguous slice of a source document's text.
type Chunk struct {
	Content string
	ChunkID int
}

// ChunkDocument splits content into fixed-size word windows. The last
// chunk may be shorter; empty content yields no chunks.
func ChunkDocument(content string, cfg ChunkConfig) []Chunk {
	if cfg.ChunkWords <= 0 {
		cfg.ChunkWords = 500
	}
	if cfg.OverlapWords < 0 {
		cfg.OverlapWords = 0
	}
	if cfg.OverlapWords >= cfg.ChunkWords {
		cfg.OverlapWords = cfg.ChunkWords / 10
	}

	words := strings.Fields(content)
	if len(words) == 0 {
		return nil
	}

	step := cfg.ChunkWords - cfg.OverlapWords
	var chunks []Chunk
	for start := 0; start < len(words); start += step {
		end := start + cfg.ChunkWords
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, Chunk{
			Content: strings.Join(words[start:end], " "),
			ChunkID: len(chunks),
		})
		if end == len(words) {
			break
		}
	}
	return chunks
}
