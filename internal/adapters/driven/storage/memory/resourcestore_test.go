package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexcorpus/lexindex-cli/internal/core/domain"
	"github.com/lexcorpus/lexindex-cli/internal/core/ports/driven"
)

func record(id string, vector []float32) driven.ResourceRecord {
	return driven.ResourceRecord{
		Chunk: domain.ContentChunk{
			Key: domain.ResourceKey{
				SourceType: domain.SourceTypeAct,
				SourceID:   id,
				Language:   domain.LanguageEnglish,
				ChunkIndex: 0,
			},
			Content:  "text",
			Metadata: domain.Metadata{Kind: domain.MetadataKindAct, Act: &domain.ActMeta{ActID: "C-1", SectionLabel: "1"}},
		},
		Vector:       vector,
		ModelVersion: "m1",
	}
}

func TestResourceStore_UpsertIdempotent(t *testing.T) {
	store := NewResourceStore()
	ctx := context.Background()

	require.NoError(t, store.UpsertBatch(ctx, []driven.ResourceRecord{record("1", []float32{1, 2})}))
	require.NoError(t, store.UpsertBatch(ctx, []driven.ResourceRecord{record("1", []float32{3, 4})}))

	assert.Equal(t, 1, store.Len())
	res, vec, ok := store.Get(record("1", nil).Chunk.Key)
	require.True(t, ok)
	// The embedding is replaced, never duplicated.
	assert.Equal(t, []float32{3, 4}, vec)
	assert.False(t, res.RefreshedAt.Before(res.CreatedAt))
}

func TestResourceStore_ExistingKeys(t *testing.T) {
	store := NewResourceStore()
	ctx := context.Background()
	require.NoError(t, store.UpsertBatch(ctx, []driven.ResourceRecord{record("1", nil), record("2", nil)}))

	keys := []domain.ResourceKey{
		record("1", nil).Chunk.Key,
		record("9", nil).Chunk.Key,
	}
	found, err := store.ExistingKeys(ctx, keys)
	require.NoError(t, err)
	assert.True(t, found[keys[0].String()])
	assert.False(t, found[keys[1].String()])
}

func TestResourceStore_ScanKeysPages(t *testing.T) {
	store := NewResourceStore()
	ctx := context.Background()
	for i := 1; i <= 5; i++ {
		require.NoError(t, store.UpsertBatch(ctx, []driven.ResourceRecord{record(string(rune('0'+i)), nil)}))
	}

	keys, lastID, err := store.ScanKeys(ctx, domain.SourceTypeAct, 0, 3)
	require.NoError(t, err)
	assert.Len(t, keys, 3)

	rest, _, err := store.ScanKeys(ctx, domain.SourceTypeAct, lastID, 10)
	require.NoError(t, err)
	assert.Len(t, rest, 2)
}

func TestResourceStore_DeleteBySourceType(t *testing.T) {
	store := NewResourceStore()
	ctx := context.Background()
	require.NoError(t, store.UpsertBatch(ctx, []driven.ResourceRecord{record("1", nil), record("2", nil)}))

	n, err := store.DeleteBySourceType(ctx, domain.SourceTypeAct)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.Equal(t, 0, store.Len())
}
