// Package chunker provides a fixed-size text chunking builder.
package chunker

import (
	"fmt"
	"strings"

	"github.com/lexcorpus/lexindex-cli/internal/core/domain"
	"github.com/lexcorpus/lexindex-cli/internal/core/services"
)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 2000

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = 200

// Builder splits source rows into fixed-size content chunks.
type Builder struct {
	chunkSize int
	overlap   int
}

// Option configures the chunk builder.
type Option func(*Builder)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(b *Builder) {
		if size > 0 {
			b.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(b *Builder) {
		if overlap >= 0 {
			b.overlap = overlap
		}
	}
}

// New creates a chunk builder with the given options.
func New(opts ...Option) *Builder {
	b := &Builder{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(b)
	}

	// Ensure overlap doesn't exceed chunk size
	if b.overlap >= b.chunkSize {
		b.overlap = b.chunkSize / 4
	}

	return b
}

// Build splits one source row into embeddable chunks. Chunk boundaries
// fall on rune positions so multi-byte text is never cut mid-character.
// When the row names a counterpart in the other language, every chunk
// carries the paired key at the same chunk index.
func (b *Builder) Build(item domain.SourceItem) ([]domain.ContentChunk, error) {
	if err := item.Metadata.Validate(); err != nil {
		return nil, fmt.Errorf("building chunks for %s %s: %w", item.SourceType, item.ID, err)
	}

	content := strings.TrimSpace(item.Content)
	if content == "" {
		return nil, nil
	}

	runes := []rune(content)
	contentLen := len(runes)

	estimatedChunks := (contentLen / (b.chunkSize - b.overlap)) + 1
	chunks := make([]domain.ContentChunk, 0, estimatedChunks)

	index := 0
	start := 0

	for start < contentLen {
		end := start + b.chunkSize
		if end > contentLen {
			end = contentLen
		}

		chunk := domain.ContentChunk{
			Key: domain.ResourceKey{
				SourceType: item.SourceType,
				SourceID:   item.ID,
				Language:   item.Language,
				ChunkIndex: index,
			},
			Title:    item.Title,
			Content:  string(runes[start:end]),
			Metadata: item.Metadata,
		}
		if item.CounterpartID != "" {
			chunk.PairedKey = &domain.ResourceKey{
				SourceType: item.SourceType,
				SourceID:   item.CounterpartID,
				Language:   item.Language.Opposite(),
				ChunkIndex: index,
			}
		}

		chunks = append(chunks, chunk)
		index++

		start += b.chunkSize - b.overlap

		if b.chunkSize <= b.overlap {
			break
		}
	}

	for i := range chunks {
		chunks[i].ChunkTotal = len(chunks)
	}
	return chunks, nil
}

var _ services.ChunkBuilder = New().Build
