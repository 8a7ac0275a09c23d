package driven

import (
	"context"

	"github.com/lexcorpus/lexindex-cli/internal/core/domain"
)

// ResourceRecord is one validated (content, metadata, vector) triple
// ready for durable persistence.
type ResourceRecord struct {
	Chunk  domain.ContentChunk
	Vector []float32

	// ModelVersion records which embedding model produced Vector.
	ModelVersion string
}

// ResourceStore persists resources and their embeddings. It is the
// system of record; the progress cache only mirrors it.
type ResourceStore interface {
	// UpsertBatch durably persists a batch atomically: every resource row
	// is upserted under its natural key (conflicts refresh the timestamp
	// only), and each paired embedding row is deleted and reinserted so a
	// resource never carries a stale vector. All rows commit together or
	// none do.
	UpsertBatch(ctx context.Context, records []ResourceRecord) error

	// ExistingKeys reports which of the given keys already exist durably,
	// keyed by canonical string form. Used to skip embedding calls for
	// already-completed work.
	ExistingKeys(ctx context.Context, keys []domain.ResourceKey) (map[string]bool, error)

	// CountBySourceType returns the number of resources for a source type.
	CountBySourceType(ctx context.Context, sourceType domain.SourceType) (int64, error)

	// ScanKeys pages through resource keys for a source type in row-id
	// order. afterID is exclusive; returns the keys and the last row id
	// of the page. Used to rebuild the progress cache.
	ScanKeys(ctx context.Context, sourceType domain.SourceType, afterID int64, limit int) ([]domain.ResourceKey, int64, error)

	// DeleteBySourceType removes all resources (and, via cascade, their
	// embeddings) for a source type. Bulk-reset only.
	DeleteBySourceType(ctx context.Context, sourceType domain.SourceType) (int64, error)
}
