package vector

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func words(n int) string {
	out := make([]string, n)
	for i := range out {
		out[i] = "w"
	}
	return strings.Join(out, " ")
}

func TestChunkDocumentShortContent(t *testing.T) {
	chunks := ChunkDocument("a short monograph", DefaultChunkConfig())

	require.Len(t, chunks, 1)
	assert.Equal(t, "a short monograph", chunks[0].Content)
	assert.Equal(t, 0, chunks[0].ChunkID)
}

func TestChunkDocumentEmpty(t *testing.T) {
	assert.Empty(t, ChunkDocument("", DefaultChunkConfig()))
	assert.Empty(t, ChunkDocument("  \n\t ", DefaultChunkConfig()))
}

func TestChunkDocumentWindowAndOverlap(t *testing.T) {
	cfg := ChunkConfig{ChunkWords: 10, OverlapWords: 2}
	chunks := ChunkDocument(words(25), cfg)

	// Step of 8: windows [0,10) [8,18) [16,25).
	require.Len(t, chunks, 3)
	assert.Len(t, strings.Fields(chunks[0].Content), 10)
	assert.Len(t, strings.Fields(chunks[1].Content), 10)
	assert.Len(t, strings.Fields(chunks[2].Content), 9)

	for i, c := range chunks {
		assert.Equal(t, i, c.ChunkID)
	}
}

func TestChunkDocumentOverlapSharesWords(t *testing.T) {
	content := "w0 w1 w2 w3 w4 w5 w6 w7 w8 w9"
	cfg := ChunkConfig{ChunkWords: 6, OverlapWords: 2}

	chunks := ChunkDocument(content, cfg)

	require.Len(t, chunks, 2)
	assert.Equal(t, "w0 w1 w2 w3 w4 w5", chunks[0].Content)
	assert.Equal(t, "w4 w5 w6 w7 w8 w9", chunks[1].Content)
}

func TestChunkDocumentExactWindow(t *testing.T) {
	cfg := ChunkConfig{ChunkWords: 10, OverlapWords: 2}
	chunks := ChunkDocument(words(10), cfg)

	// Content that fits one window yields exactly one chunk, not a
	// trailing overlap-only sliver.
	require.Len(t, chunks, 1)
}

func TestChunkDocumentDegenerateConfig(t *testing.T) {
	// Overlap >= window would loop forever; the config is clamped.
	cfg := ChunkConfig{ChunkWords: 10, OverlapWords: 10}
	chunks := ChunkDocument(words(30), cfg)

	assert.NotEmpty(t, chunks)
	total := 0
	for _, c := range chunks {
		total += len(strings.Fields(c.Content))
	}
	assert.GreaterOrEqual(t, total, 30)
}
