package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexcorpus/lexindex-cli/internal/core/domain"
)

// stubEmbedder is a scriptable in-memory embedding service.
type stubEmbedder struct {
	mu        sync.Mutex
	calls     int
	failFirst int
	dims      int

	// vectorFor overrides the default unit vector per text.
	vectorFor func(text string) []float32

	// onEmbed runs once per call, before returning vectors.
	onEmbed func()
}

func newStubEmbedder() *stubEmbedder {
	return &stubEmbedder{dims: 3}
}

func (e *stubEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls++
	if e.onEmbed != nil {
		e.onEmbed()
	}
	if e.calls <= e.failFirst {
		return nil, errors.New("backend unavailable")
	}
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		if e.vectorFor != nil {
			vectors[i] = e.vectorFor(text)
			continue
		}
		vectors[i] = make([]float32, e.dims)
		vectors[i][0] = float32(len(text))
	}
	return vectors, nil
}

func (e *stubEmbedder) Dimensions() int            { return e.dims }
func (e *stubEmbedder) ModelName() string          { return "stub-embedding-1" }
func (e *stubEmbedder) Ping(context.Context) error { return nil }
func (e *stubEmbedder) Close() error               { return nil }

func (e *stubEmbedder) callCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

func testChunk(id string, index int, content string) domain.ContentChunk {
	return domain.ContentChunk{
		Key: domain.ResourceKey{
			SourceType: domain.SourceTypeAct,
			SourceID:   id,
			Language:   domain.LanguageEnglish,
			ChunkIndex: index,
		},
		Content:  content,
		Metadata: domain.Metadata{Kind: domain.MetadataKindAct, Act: &domain.ActMeta{ActID: "C-11", SectionLabel: "2"}},
	}
}

func fastSleep(context.Context, time.Duration) error { return nil }

func TestBatcher_FilterOversize(t *testing.T) {
	b := NewBatcher(newStubEmbedder(), BatcherConfig{MaxChars: 10}, fastSleep)
	report := domain.NewItemErrorReport()

	atBudget := testChunk("1", 0, strings.Repeat("x", 10))
	overBudget := testChunk("2", 0, strings.Repeat("x", 11))

	fit := b.FilterOversize([]domain.ContentChunk{atBudget, overBudget}, report)

	require.Len(t, fit, 1)
	assert.Equal(t, atBudget.Key, fit[0].Key)
	assert.Equal(t, 1, report.Count(ReportOversize))
	assert.Equal(t, 1, report.Count(domain.ErrContentOversize.Error()))
	assert.Contains(t, report.Summary(), "act:2:en:0")
}

func TestBatcher_FilterOversize_CountsRunesNotBytes(t *testing.T) {
	b := NewBatcher(newStubEmbedder(), BatcherConfig{MaxChars: 10}, fastSleep)
	report := domain.NewItemErrorReport()

	// Ten accented runes are twenty UTF-8 bytes but stay at budget.
	atBudget := testChunk("1", 0, strings.Repeat("é", 10))
	overBudget := testChunk("2", 0, strings.Repeat("é", 11))

	fit := b.FilterOversize([]domain.ContentChunk{atBudget, overBudget}, report)

	require.Len(t, fit, 1)
	assert.Equal(t, atBudget.Key, fit[0].Key)
	assert.Equal(t, 1, report.Count(ReportOversize))
}

func TestBatcher_EmbedChunks_SplitsAndPreservesOrder(t *testing.T) {
	embedder := newStubEmbedder()
	b := NewBatcher(embedder, BatcherConfig{BatchSize: 4, Concurrency: 2}, fastSleep)
	report := domain.NewItemErrorReport()

	var chunks []domain.ContentChunk
	for i := 0; i < 10; i++ {
		chunks = append(chunks, testChunk(fmt.Sprintf("%d", i), 0, fmt.Sprintf("section %d", i)))
	}

	var progressCalls int
	records, err := b.EmbedChunks(context.Background(), chunks, report, func(done, total int) {
		progressCalls++
		assert.Equal(t, 3, total)
	})

	require.NoError(t, err)
	require.Len(t, records, 10)
	// 10 chunks at batch size 4 is 3 calls
	assert.Equal(t, 3, embedder.callCount())
	assert.Equal(t, 3, progressCalls)
	for i, r := range records {
		assert.Equal(t, chunks[i].Key, r.Chunk.Key, "record %d out of order", i)
		assert.Equal(t, "stub-embedding-1", r.ModelVersion)
		assert.Len(t, r.Vector, 3)
	}
	assert.Equal(t, 0, report.Total())
}

func TestBatcher_EmbedChunks_RetriesTransientFailure(t *testing.T) {
	embedder := newStubEmbedder()
	embedder.failFirst = 2
	b := NewBatcher(embedder, BatcherConfig{
		BatchSize:   8,
		Concurrency: 1,
		Retry:       domain.RetryPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond, Multiplier: 2},
	}, fastSleep)

	records, err := b.EmbedChunks(context.Background(),
		[]domain.ContentChunk{testChunk("1", 0, "text")}, domain.NewItemErrorReport(), nil)

	require.NoError(t, err)
	assert.Len(t, records, 1)
	assert.Equal(t, 3, embedder.callCount())
}

func TestBatcher_EmbedChunks_RetryExhaustedIsFatal(t *testing.T) {
	embedder := newStubEmbedder()
	embedder.failFirst = 100
	b := NewBatcher(embedder, BatcherConfig{
		BatchSize: 8,
		Retry:     domain.RetryPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond, Multiplier: 2},
	}, fastSleep)

	_, err := b.EmbedChunks(context.Background(),
		[]domain.ContentChunk{testChunk("1", 0, "text")}, domain.NewItemErrorReport(), nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrRetryExhausted)
	assert.Equal(t, 3, embedder.callCount())
}

func TestBatcher_EmbedChunks_DropsMalformedBatch(t *testing.T) {
	embedder := newStubEmbedder()
	embedder.vectorFor = func(text string) []float32 {
		if text == "bad" {
			return []float32{1} // wrong dimension
		}
		return []float32{1, 2, 3}
	}
	b := NewBatcher(embedder, BatcherConfig{BatchSize: 1, Concurrency: 1}, fastSleep)
	report := domain.NewItemErrorReport()

	chunks := []domain.ContentChunk{
		testChunk("1", 0, "good"),
		testChunk("2", 0, "bad"),
	}
	records, err := b.EmbedChunks(context.Background(), chunks, report, nil)

	// The malformed batch is dropped and reported, the run continues.
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "act:1:en:0", records[0].Chunk.Key.String())
	assert.Equal(t, 1, report.Count(ReportMalformedVector))
}

func TestBatcher_EmbedChunks_RejectsNonFiniteVectors(t *testing.T) {
	embedder := newStubEmbedder()
	embedder.vectorFor = func(string) []float32 {
		return []float32{1, float32(math.NaN()), 3}
	}
	b := NewBatcher(embedder, BatcherConfig{BatchSize: 8}, fastSleep)
	report := domain.NewItemErrorReport()

	records, err := b.EmbedChunks(context.Background(),
		[]domain.ContentChunk{testChunk("1", 0, "text")}, report, nil)

	require.NoError(t, err)
	assert.Empty(t, records)
	assert.Equal(t, 1, report.Count(ReportMalformedVector))
}

func TestBatcher_EmbedChunks_Empty(t *testing.T) {
	b := NewBatcher(newStubEmbedder(), BatcherConfig{}, fastSleep)
	records, err := b.EmbedChunks(context.Background(), nil, domain.NewItemErrorReport(), nil)
	require.NoError(t, err)
	assert.Nil(t, records)
}

func TestSplitBatches(t *testing.T) {
	chunks := make([]domain.ContentChunk, 5)
	batches := splitBatches(chunks, 2)
	require.Len(t, batches, 3)
	assert.Len(t, batches[0], 2)
	assert.Len(t, batches[2], 1)
}
