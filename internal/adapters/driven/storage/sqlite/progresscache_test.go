package sqlite

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexcorpus/lexindex-cli/internal/core/domain"
)

func newTestCache(t *testing.T) *ProgressCache {
	t.Helper()
	cache, err := NewProgressCache(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = cache.Close() })
	return cache
}

func actKey(id string) domain.ResourceKey {
	return domain.ResourceKey{
		SourceType: domain.SourceTypeAct,
		SourceID:   id,
		Language:   domain.LanguageEnglish,
		ChunkIndex: 0,
	}
}

func debateKey(id string) domain.ResourceKey {
	return domain.ResourceKey{
		SourceType: domain.SourceTypeDebate,
		SourceID:   id,
		Language:   domain.LanguageFrench,
		ChunkIndex: 0,
	}
}

func TestNewProgressCache_CreatesFile(t *testing.T) {
	dir := t.TempDir()
	cache, err := NewProgressCache(dir)
	require.NoError(t, err)
	defer cache.Close()

	assert.Equal(t, filepath.Join(dir, "progress.db"), cache.Path())
}

func TestProgressCache_MarkAndHas(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()
	key := actKey("42")

	has, err := cache.Has(ctx, key)
	require.NoError(t, err)
	assert.False(t, has)

	require.NoError(t, cache.Mark(ctx, key))

	has, err = cache.Has(ctx, key)
	require.NoError(t, err)
	assert.True(t, has)

	// Marking again is a refresh, not an error.
	require.NoError(t, cache.Mark(ctx, key))
	total, err := cache.Total(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}

func TestProgressCache_MarkManyAndHasMany(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	keys := make([]domain.ResourceKey, 0, 20)
	for i := 0; i < 20; i++ {
		keys = append(keys, actKey(fmt.Sprintf("%d", i)))
	}
	require.NoError(t, cache.MarkMany(ctx, keys[:10]))

	found, err := cache.HasMany(ctx, keys)
	require.NoError(t, err)
	assert.Len(t, found, 10)
	assert.True(t, found[keys[0].String()])
	assert.False(t, found[keys[15].String()])
}

func TestProgressCache_MarkManyEmpty(t *testing.T) {
	cache := newTestCache(t)
	assert.NoError(t, cache.MarkMany(context.Background(), nil))
}

func TestProgressCache_CountBySourceType(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.MarkMany(ctx, []domain.ResourceKey{
		actKey("1"), actKey("2"), debateKey("44-1-001"),
	}))

	acts, err := cache.CountBySourceType(ctx, domain.SourceTypeAct)
	require.NoError(t, err)
	assert.Equal(t, int64(2), acts)

	debates, err := cache.CountBySourceType(ctx, domain.SourceTypeDebate)
	require.NoError(t, err)
	assert.Equal(t, int64(1), debates)

	regs, err := cache.CountBySourceType(ctx, domain.SourceTypeRegulation)
	require.NoError(t, err)
	assert.Equal(t, int64(0), regs)
}

func TestProgressCache_MaxSourceID_Numeric(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	// Lexicographically "9" > "10"; the numeric path must return 10.
	require.NoError(t, cache.MarkMany(ctx, []domain.ResourceKey{
		actKey("9"), actKey("10"),
	}))

	max, err := cache.MaxSourceID(ctx, domain.SourceTypeAct, domain.IDKindNumeric)
	require.NoError(t, err)
	assert.Equal(t, "10", max)
}

func TestProgressCache_MaxSourceID_Text(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.MarkMany(ctx, []domain.ResourceKey{
		debateKey("44-1-002"), debateKey("44-1-010"), debateKey("44-1-009"),
	}))

	max, err := cache.MaxSourceID(ctx, domain.SourceTypeDebate, domain.IDKindText)
	require.NoError(t, err)
	assert.Equal(t, "44-1-010", max)
}

func TestProgressCache_MaxSourceID_Empty(t *testing.T) {
	cache := newTestCache(t)

	max, err := cache.MaxSourceID(context.Background(), domain.SourceTypeAct, domain.IDKindNumeric)
	require.NoError(t, err)
	assert.Equal(t, "", max)
}

func TestProgressCache_Clear(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.MarkMany(ctx, []domain.ResourceKey{actKey("1"), actKey("2")}))
	require.NoError(t, cache.Clear(ctx))

	total, err := cache.Total(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), total)
}

func TestProgressCache_SurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	cache, err := NewProgressCache(dir)
	require.NoError(t, err)
	require.NoError(t, cache.Mark(ctx, actKey("7")))
	require.NoError(t, cache.Close())

	reopened, err := NewProgressCache(dir)
	require.NoError(t, err)
	defer reopened.Close()

	has, err := reopened.Has(ctx, actKey("7"))
	require.NoError(t, err)
	assert.True(t, has)
}
