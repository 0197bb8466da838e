package chunking

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/cloudwego/eino-ext/components/document/transformer/splitter/recursive"
	"github.com/cloudwego/eino/components/document"
	"github.com/cloudwego/eino/schema"
)

// NewChunkerFromConfig 按配置选择切分实现, 未知取值回落到自带的递归切分
func NewChunkerFromConfig(ctx context.Context, kind string, chunkSize, overlap int) (Chunker, error) {
	switch kind {
	case "eino":
		return NewEinoChunker(ctx, chunkSize, overlap)
	default:
		return NewRecursiveChunker(WithChunkSize(chunkSize), WithOverlap(overlap)), nil
	}
}

// EinoChunker 基于 eino recursive splitter 的切分实现, 语义与 RecursiveChunker 对齐
type EinoChunker struct {
	splitter document.Transformer
}

func NewEinoChunker(ctx context.Context, chunkSize, overlap int) (*EinoChunker, error) {
	if chunkSize <= 0 {
		chunkSize = 400
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = chunkSize / 4
	}
	sp, err := recursive.NewSplitter(ctx, &recursive.Config{
		ChunkSize:   chunkSize,
		OverlapSize: overlap,
		Separators:  defaultSeparators[:len(defaultSeparators)-1],
		LenFunc:     utf8.RuneCountInString,
		KeepType:    recursive.KeepTypeEnd,
	})
	if err != nil {
		return nil, fmt.Errorf("new recursive splitter: %w", err)
	}
	return &EinoChunker{splitter: sp}, nil
}

func (c *EinoChunker) Split(ctx context.Context, text string) ([]Chunk, error) {
	if text == "" {
		return nil, nil
	}
	docs, err := c.splitter.Transform(ctx, []*schema.Document{{Content: text}})
	if err != nil {
		return nil, err
	}
	chunks := make([]Chunk, 0, len(docs))
	for _, d := range docs {
		if d == nil || d.Content == "" {
			continue
		}
		chunks = append(chunks, Chunk{Index: len(chunks), Content: d.Content})
	}
	return chunks, nil
}
