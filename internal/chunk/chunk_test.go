package chunk_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kronicd/WA-Covid-Mailer/internal/chunk"
)

func collect(text string, max int) []string {
	var out []string
	for piece := range chunk.Split(text, chunk.Delimiter, max) {
		out = append(out, piece)
	}
	return out
}

// body builds n paragraphs of width chars each, joined by the delimiter.
func body(n, width int) string {
	paras := make([]string, n)
	for i := range paras {
		paras[i] = strings.Repeat("x", width)
	}
	return strings.Join(paras, chunk.Delimiter)
}

func TestSplitShortTextSingleChunk(t *testing.T) {
	chunks := collect("hello\n\nworld", 100)
	require.Len(t, chunks, 1)
	assert.Equal(t, "hello\n\nworld", chunks[0])
}

func TestSplitSizeBound(t *testing.T) {
	for _, max := range []int{10, 100, 1990} {
		for _, text := range []string{body(20, 40), body(3, 500), strings.Repeat("y", 5000)} {
			for _, piece := range collect(text, max) {
				assert.LessOrEqual(t, len(piece), max)
			}
		}
	}
}

func TestSplitPrefersParagraphBoundary(t *testing.T) {
	// ~500-char paragraphs, 3500 chars total, cap 2000: exactly 2 chunks,
	// both within bound, neither splitting an entry.
	text := body(7, 498) // 7*498 + 6*2 = 3498
	chunks := collect(text, 2000)

	require.Len(t, chunks, 2)
	for _, piece := range chunks {
		assert.LessOrEqual(t, len(piece), 2000)
		assert.False(t, strings.HasPrefix(piece, "\n"))
		assert.False(t, strings.HasSuffix(piece, "\n"))
	}
}

func TestSplitReconstruction(t *testing.T) {
	text := body(9, 300)
	chunks := collect(text, 1000)
	require.Greater(t, len(chunks), 1)

	assert.Equal(t, text, strings.Join(chunks, chunk.Delimiter))
}

func TestSplitHardCutWithoutDelimiter(t *testing.T) {
	text := strings.Repeat("z", 4500)
	chunks := collect(text, 2000)

	require.Len(t, chunks, 3)
	assert.Equal(t, 2000, len(chunks[0]))
	assert.Equal(t, 2000, len(chunks[1]))
	assert.Equal(t, 500, len(chunks[2]))
	assert.Equal(t, text, strings.Join(chunks, ""))
}

func TestSplitFinalShortChunkEmitted(t *testing.T) {
	text := body(2, 1500) + chunk.Delimiter + "tail"
	chunks := collect(text, 2000)

	require.NotEmpty(t, chunks)
	assert.True(t, strings.HasSuffix(chunks[len(chunks)-1], "tail"))
}

func TestSplitEmptyInput(t *testing.T) {
	assert.Empty(t, collect("", 2000))
}

func TestCount(t *testing.T) {
	assert.Equal(t, 3, chunk.Count(strings.Repeat("z", 4500), chunk.Delimiter, 2000))
	assert.Equal(t, 0, chunk.Count("", chunk.Delimiter, 2000))
}
