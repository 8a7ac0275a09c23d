package services

import (
	"context"
	"fmt"
	"math"
	"sync/atomic"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/lexcorpus/lexindex-cli/internal/core/domain"
	"github.com/lexcorpus/lexindex-cli/internal/core/ports/driven"
	"github.com/lexcorpus/lexindex-cli/internal/logger"
)

// Default batching parameters.
const (
	// DefaultTokenCeiling is the embedding backend's input token limit.
	DefaultTokenCeiling = 8192

	// DefaultCharsPerToken approximates characters per token for the
	// bilingual corpus. Conservative: French runs longer than English.
	DefaultCharsPerToken = 3

	// DefaultBatchSize is the maximum number of chunks per embedding call.
	DefaultBatchSize = 64

	// DefaultConcurrency bounds in-flight embedding calls. The work is
	// network-latency-bound, not CPU-bound.
	DefaultConcurrency = 4
)

// Report categories for per-item embedding errors. Oversize reuses the
// domain sentinel's text so report lines and wrapped errors read the
// same.
var (
	ReportOversize        = domain.ErrContentOversize.Error()
	ReportMalformedVector = "malformed embedding vector"
)

// BatcherConfig tunes the embedding batcher.
type BatcherConfig struct {
	// MaxChars is the per-chunk character budget. Zero derives it from
	// DefaultTokenCeiling and DefaultCharsPerToken.
	MaxChars int

	// BatchSize is the maximum chunks per API call.
	BatchSize int

	// Concurrency bounds simultaneous embedding calls.
	Concurrency int

	// Retry is the per-batch retry policy.
	Retry domain.RetryPolicy
}

func (c BatcherConfig) withDefaults() BatcherConfig {
	if c.MaxChars <= 0 {
		c.MaxChars = DefaultTokenCeiling * DefaultCharsPerToken
	}
	if c.BatchSize <= 0 {
		c.BatchSize = DefaultBatchSize
	}
	if c.Concurrency <= 0 {
		c.Concurrency = DefaultConcurrency
	}
	if c.Retry.MaxAttempts == 0 {
		c.Retry = domain.DefaultRetryPolicy
	}
	return c
}

// Batcher turns content chunks into validated embedding records through
// size-checked, concurrency-limited, retried batch calls.
type Batcher struct {
	embedder driven.EmbeddingService
	cfg      BatcherConfig
	sleep    domain.SleepFunc
}

// NewBatcher creates a batcher over an embedding service. A nil sleep
// uses the real clock for retry backoff.
func NewBatcher(embedder driven.EmbeddingService, cfg BatcherConfig, sleep domain.SleepFunc) *Batcher {
	return &Batcher{embedder: embedder, cfg: cfg.withDefaults(), sleep: sleep}
}

// MaxChars returns the effective per-chunk character budget.
func (b *Batcher) MaxChars() int {
	return b.cfg.MaxChars
}

// FilterOversize drops chunks over the character budget before any API
// call. The backend would otherwise truncate the content and degrade the
// vector without a visible error. The budget counts runes, not bytes:
// accented French content must not be charged for its UTF-8 encoding.
// Dropped chunks are recorded with their identity; a chunk exactly at
// budget passes.
func (b *Batcher) FilterOversize(chunks []domain.ContentChunk, report *domain.ItemErrorReport) []domain.ContentChunk {
	fit := make([]domain.ContentChunk, 0, len(chunks))
	for _, c := range chunks {
		if n := utf8.RuneCountInString(c.Content); n > b.cfg.MaxChars {
			report.Add(ReportOversize, c.Key.String())
			logger.Warn("Dropping oversize chunk %s (%d chars, budget %d)", c.Key, n, b.cfg.MaxChars)
			continue
		}
		fit = append(fit, c)
	}
	return fit
}

// EmbedChunks embeds the given chunks and returns records ready for the
// resource writer. Chunks must already be size-filtered. Batches run
// under the concurrency limit and complete out of submission order, so
// progress reports completion count, not batch index. A batch whose
// vectors fail validation is dropped and reported; a batch that exhausts
// its retries fails the whole call.
func (b *Batcher) EmbedChunks(
	ctx context.Context,
	chunks []domain.ContentChunk,
	report *domain.ItemErrorReport,
	progress func(done, total int),
) ([]driven.ResourceRecord, error) {
	if len(chunks) == 0 {
		return nil, nil
	}
	if b.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}

	batches := splitBatches(chunks, b.cfg.BatchSize)
	results := make([][]driven.ResourceRecord, len(batches))

	var done atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.cfg.Concurrency)

	for i, batch := range batches {
		g.Go(func() error {
			records, err := b.embedOneBatch(gctx, batch, report)
			if err != nil {
				return err
			}
			results[i] = records

			completed := done.Add(1)
			if progress != nil {
				progress(int(completed), len(batches))
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	var records []driven.ResourceRecord //nolint:prealloc // batches may be dropped
	for _, r := range results {
		records = append(records, r...)
	}
	return records, nil
}

// embedOneBatch runs one retried embedding call and validates its output.
func (b *Batcher) embedOneBatch(
	ctx context.Context,
	batch []domain.ContentChunk,
	report *domain.ItemErrorReport,
) ([]driven.ResourceRecord, error) {
	texts := make([]string, len(batch))
	for i, c := range batch {
		texts[i] = c.Content
	}

	var vectors [][]float32
	err := domain.Retry(ctx, b.cfg.Retry, b.sleep, func(ctx context.Context) error {
		var embedErr error
		vectors, embedErr = b.embedder.EmbedBatch(ctx, texts)
		return embedErr
	})
	if err != nil {
		return nil, fmt.Errorf("embed batch of %d: %w", len(batch), err)
	}

	if err := b.validateVectors(batch, vectors); err != nil {
		// Never write partial or corrupt vectors: the whole batch is
		// dropped and its items are reported.
		for _, c := range batch {
			report.Add(ReportMalformedVector, c.Key.String())
		}
		logger.Warn("Dropping batch of %d: %v", len(batch), err)
		return nil, nil
	}

	records := make([]driven.ResourceRecord, len(batch))
	for i, c := range batch {
		records[i] = driven.ResourceRecord{
			Chunk:        c,
			Vector:       vectors[i],
			ModelVersion: b.embedder.ModelName(),
		}
	}
	return records, nil
}

// validateVectors checks count, dimension and finiteness for a batch result.
func (b *Batcher) validateVectors(batch []domain.ContentChunk, vectors [][]float32) error {
	if len(vectors) != len(batch) {
		return fmt.Errorf("embedding count mismatch (got %d want %d)", len(vectors), len(batch))
	}
	want := b.embedder.Dimensions()
	for i, vec := range vectors {
		if len(vec) != want {
			return fmt.Errorf("%w: chunk %s has %d, want %d", domain.ErrVectorDimension, batch[i].Key, len(vec), want)
		}
		for _, v := range vec {
			if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
				return fmt.Errorf("%w: chunk %s", domain.ErrVectorNotFinite, batch[i].Key)
			}
		}
	}
	return nil
}

// splitBatches groups chunks into fixed-size batches.
func splitBatches(chunks []domain.ContentChunk, size int) [][]domain.ContentChunk {
	var batches [][]domain.ContentChunk
	for start := 0; start < len(chunks); start += size {
		end := start + size
		if end > len(chunks) {
			end = len(chunks)
		}
		batches = append(batches, chunks[start:end])
	}
	return batches
}
