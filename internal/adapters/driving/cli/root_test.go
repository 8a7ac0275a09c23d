package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexcorpus/lexindex-cli/internal/adapters/driven/storage/memory"
	"github.com/lexcorpus/lexindex-cli/internal/core/domain"
)

// stubEmbedder returns fixed-size vectors without any backend.
type stubEmbedder struct {
	calls int
}

func (e *stubEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	e.calls++
	vectors := make([][]float32, len(texts))
	for i := range texts {
		vectors[i] = []float32{1, 0, 0}
	}
	return vectors, nil
}

func (e *stubEmbedder) Dimensions() int            { return 3 }
func (e *stubEmbedder) ModelName() string          { return "stub-embedding-1" }
func (e *stubEmbedder) Ping(context.Context) error { return nil }
func (e *stubEmbedder) Close() error               { return nil }

// testPipeline bundles the memory adapters behind the package pipeline var.
type testPipeline struct {
	reader   *memory.SourceReader
	cache    *memory.ProgressCache
	store    *memory.ResourceStore
	terms    *memory.TermStore
	embedder *stubEmbedder
}

func setupPipeline(t *testing.T) *testPipeline {
	t.Helper()
	tp := &testPipeline{
		reader:   memory.NewSourceReader(),
		cache:    memory.NewProgressCache(),
		store:    memory.NewResourceStore(),
		terms:    memory.NewTermStore(),
		embedder: &stubEmbedder{},
	}
	old := pipeline
	pipeline = &Pipeline{
		Reader:   tp.reader,
		Cache:    tp.cache,
		Store:    tp.store,
		Terms:    tp.terms,
		Embedder: tp.embedder,
		Build: func(item domain.SourceItem) ([]domain.ContentChunk, error) {
			return []domain.ContentChunk{{
				Key: domain.ResourceKey{
					SourceType: item.SourceType,
					SourceID:   item.ID,
					Language:   item.Language,
					ChunkIndex: 0,
				},
				Title:      item.Title,
				Content:    item.Content,
				ChunkTotal: 1,
				Metadata:   item.Metadata,
			}}, nil
		},
	}
	t.Cleanup(func() { pipeline = old })
	return tp
}

// resetFlags restores flag-bound package vars between Execute calls;
// cobra keeps them across runs within one process.
func resetFlags() {
	ingestSources = nil
	ingestSession = ""
	ingestResume = domain.ResumeFullCursor.String()
	ingestSkip = false
	ingestDryRun = false
	ingestLimit = 0
	ingestPageSize = 0
	ingestBatchSize = 0
	ingestConcurrency = 0
	linkDryRun = false
	linkCorrections = nil
	verboseFlag = false
}

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	err := rootCmd.Execute()
	return buf.String(), err
}

func TestRootCmd_Use(t *testing.T) {
	assert.Equal(t, "lexindex", rootCmd.Use)
}

func TestVersionCmd(t *testing.T) {
	out, err := runCommand(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "lexindex version")
}

func TestGetPipeline_Unconfigured(t *testing.T) {
	oldPipeline, oldConnect := pipeline, connect
	pipeline, connect = nil, nil
	t.Cleanup(func() { pipeline, connect = oldPipeline, oldConnect })

	_, err := getPipeline(context.Background())
	assert.Error(t, err)
}
