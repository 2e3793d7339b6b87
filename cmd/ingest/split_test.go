package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitTextShortInput(t *testing.T) {
	chunks := splitText("one short document", 1500, 80)
	require.Len(t, chunks, 1)
	assert.Equal(t, "one short document", chunks[0])
}

func TestSplitTextEmpty(t *testing.T) {
	assert.Nil(t, splitText("   \n ", 1500, 80))
}

func TestSplitTextRespectsSizeBound(t *testing.T) {
	text := strings.Repeat("high protein meals need planning. ", 200)
	chunks := splitText(text, 300, 40)
	require.Greater(t, len(chunks), 1)
	for i, c := range chunks {
		assert.LessOrEqual(t, len(c), 300, "chunk %d", i)
		assert.NotEmpty(t, c)
	}
}

func TestSplitTextPrefersParagraphBreaks(t *testing.T) {
	text := strings.Repeat("a", 100) + "\n\n" + strings.Repeat("b", 100)
	chunks := splitText(text, 150, 0)
	require.Len(t, chunks, 2)
	assert.Equal(t, strings.Repeat("a", 100), chunks[0])
	assert.Equal(t, strings.Repeat("b", 100), chunks[1])
}

func TestSplitTextOverlap(t *testing.T) {
	text := strings.Repeat("word ", 200)
	chunks := splitText(text, 100, 20)
	require.Greater(t, len(chunks), 1)
	// Consecutive chunks share content because of the overlap window.
	tail := chunks[0][len(chunks[0])-10:]
	assert.Contains(t, chunks[1], strings.TrimSpace(tail))
}

func TestChunkIDDeterministic(t *testing.T) {
	assert.Equal(t, chunkID("meals.txt", 3), chunkID("meals.txt", 3))
	assert.NotEqual(t, chunkID("meals.txt", 3), chunkID("meals.txt", 4))
	assert.NotEqual(t, chunkID("meals.txt", 3), chunkID("other.txt", 3))
}
