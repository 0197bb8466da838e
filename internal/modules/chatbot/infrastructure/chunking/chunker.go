package chunking

import (
	"context"
	"strings"
	"unicode/utf8"
)

// 切分优先级, 靠前的分隔符优先在切点附近回退寻找
var defaultSeparators = []string{"\n\n", "\n", ".", "?", "!", " ", ""}

// Chunk 一个文本切片
type Chunk struct {
	Index   int    // 文档内序号
	Content string
}

// Chunker 文本切分端口
type Chunker interface {
	Split(ctx context.Context, text string) ([]Chunk, error)
}

// RecursiveChunker 按分隔符优先级递归切分, 长度以 rune 计
type RecursiveChunker struct {
	chunkSize  int
	overlap    int
	separators []string
}

type Option func(*RecursiveChunker)

func WithChunkSize(n int) Option {
	return func(c *RecursiveChunker) {
		if n > 0 {
			c.chunkSize = n
		}
	}
}

func WithOverlap(n int) Option {
	return func(c *RecursiveChunker) {
		if n >= 0 {
			c.overlap = n
		}
	}
}

func WithSeparators(seps []string) Option {
	return func(c *RecursiveChunker) {
		if len(seps) > 0 {
			c.separators = seps
		}
	}
}

func NewRecursiveChunker(opts ...Option) *RecursiveChunker {
	c := &RecursiveChunker{
		chunkSize:  400,
		overlap:    100,
		separators: defaultSeparators,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.overlap >= c.chunkSize {
		c.overlap = c.chunkSize / 4
	}
	return c
}

// Split 切分文本.
// 空文本返回空切片; 不超过 chunkSize 的文本原样作为唯一切片.
// 每个切片长度不超过 chunkSize, 相邻切片之间保留 overlap 个 rune 的重叠.
// 每个切片两端的空白会被裁剪, 去重叠拼接只在切点不落在空白上时精确还原原文,
// 否则还原结果与原文相差被裁剪的空白.
func (c *RecursiveChunker) Split(_ context.Context, text string) ([]Chunk, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, nil
	}

	runes := []rune(trimmed)
	if len(runes) <= c.chunkSize {
		return []Chunk{{Index: 0, Content: trimmed}}, nil
	}

	var chunks []Chunk
	start := 0
	for start < len(runes) {
		end := start + c.chunkSize
		if end >= len(runes) {
			end = len(runes)
		} else {
			end = c.findBreak(runes, start, end)
		}

		piece := strings.TrimSpace(string(runes[start:end]))
		if piece != "" {
			chunks = append(chunks, Chunk{Index: len(chunks), Content: piece})
		}

		if end >= len(runes) {
			break
		}
		next := end - c.overlap
		if next <= start {
			next = start + 1
		}
		start = next
	}
	return chunks, nil
}

// findBreak 在 [start, limit] 内从后向前按分隔符优先级寻找切点.
// 找不到任何分隔符时在 limit 处硬切.
func (c *RecursiveChunker) findBreak(runes []rune, start, limit int) int {
	window := string(runes[start:limit])
	for _, sep := range c.separators {
		if sep == "" {
			break
		}
		idx := strings.LastIndex(window, sep)
		if idx <= 0 {
			continue
		}
		// 切点包含分隔符本身, 句号等标点留在前一个切片末尾
		return start + utf8.RuneCountInString(window[:idx]) + utf8.RuneCountInString(sep)
	}
	return limit
}
