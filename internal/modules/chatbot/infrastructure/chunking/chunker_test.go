package chunking

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitEmptyText(t *testing.T) {
	c := NewRecursiveChunker()
	chunks, err := c.Split(context.Background(), "   \n\t ")
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestSplitShortTextSingleChunk(t *testing.T) {
	c := NewRecursiveChunker()
	chunks, err := c.Split(context.Background(), "hello world.")
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "hello world.", chunks[0].Content)
	assert.Equal(t, 0, chunks[0].Index)
}

func TestSplitRespectsChunkSize(t *testing.T) {
	c := NewRecursiveChunker(WithChunkSize(50), WithOverlap(10))
	text := strings.Repeat("alpha beta gamma delta. ", 30)
	chunks, err := c.Split(context.Background(), text)
	require.NoError(t, err)
	require.NotEmpty(t, chunks)
	for _, ch := range chunks {
		assert.LessOrEqual(t, len([]rune(ch.Content)), 50, "chunk %d too long", ch.Index)
	}
}

func TestSplitPrefersParagraphBreaks(t *testing.T) {
	c := NewRecursiveChunker(WithChunkSize(40), WithOverlap(5))
	text := "first paragraph here\n\nsecond paragraph follows with more words than fit"
	chunks, err := c.Split(context.Background(), text)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(chunks), 2)
	assert.Equal(t, "first paragraph here", chunks[0].Content)
}

func TestSplitHardCutWithoutSeparators(t *testing.T) {
	c := NewRecursiveChunker(WithChunkSize(20), WithOverlap(4))
	text := strings.Repeat("x", 55)
	chunks, err := c.Split(context.Background(), text)
	require.NoError(t, err)
	require.NotEmpty(t, chunks)
	for _, ch := range chunks {
		assert.LessOrEqual(t, len([]rune(ch.Content)), 20)
	}
	// 去掉重叠后拼接必须精确还原全文
	assert.Equal(t, text, joinWithoutOverlap(chunks, 4))
}

// 含分隔符但不含空白的文本, 去重叠拼接同样精确还原
func TestSplitRoundTripWithSeparators(t *testing.T) {
	c := NewRecursiveChunker(WithChunkSize(30), WithOverlap(6))
	text := strings.Repeat("onetwothree.fourfivesix.", 8)
	chunks, err := c.Split(context.Background(), text)
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)
	assert.Equal(t, text, joinWithoutOverlap(chunks, 6))
}

func joinWithoutOverlap(chunks []Chunk, overlap int) string {
	var b strings.Builder
	for i, ch := range chunks {
		runes := []rune(ch.Content)
		if i == 0 {
			b.WriteString(ch.Content)
			continue
		}
		b.WriteString(string(runes[overlap:]))
	}
	return b.String()
}

func TestNewChunkerFromConfig(t *testing.T) {
	ctx := context.Background()

	c, err := NewChunkerFromConfig(ctx, "recursive", 100, 20)
	require.NoError(t, err)
	assert.IsType(t, &RecursiveChunker{}, c)

	// 未知取值回落到递归切分
	c, err = NewChunkerFromConfig(ctx, "", 100, 20)
	require.NoError(t, err)
	assert.IsType(t, &RecursiveChunker{}, c)

	c, err = NewChunkerFromConfig(ctx, "eino", 100, 20)
	require.NoError(t, err)
	assert.IsType(t, &EinoChunker{}, c)
}

func TestEinoChunkerSplit(t *testing.T) {
	c, err := NewChunkerFromConfig(context.Background(), "eino", 50, 10)
	require.NoError(t, err)

	text := strings.Repeat("alpha beta gamma delta. ", 20)
	chunks, err := c.Split(context.Background(), text)
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)
	for i, ch := range chunks {
		assert.Equal(t, i, ch.Index)
		assert.NotEmpty(t, ch.Content)
	}
}

func TestSplitIndicesSequential(t *testing.T) {
	c := NewRecursiveChunker(WithChunkSize(30), WithOverlap(5))
	text := strings.Repeat("one two three four five. ", 20)
	chunks, err := c.Split(context.Background(), text)
	require.NoError(t, err)
	for i, ch := range chunks {
		assert.Equal(t, i, ch.Index)
	}
}

func TestSplitUnicodeRuneCounting(t *testing.T) {
	c := NewRecursiveChunker(WithChunkSize(10), WithOverlap(2))
	text := strings.Repeat("数据分析报表系统说明文档 ", 5)
	chunks, err := c.Split(context.Background(), text)
	require.NoError(t, err)
	for _, ch := range chunks {
		assert.LessOrEqual(t, len([]rune(ch.Content)), 10)
	}
}
