package driven

import (
	"context"

	"github.com/lexcorpus/lexindex-cli/internal/core/domain"
)

// ProgressCache is the fast local membership store mirroring the durable
// store. It is advisory, never authoritative: presence implies the
// resource existed durably as of the last sync; absence implies nothing.
// Deleting it at any time is safe, at the cost of a resync.
type ProgressCache interface {
	// Has reports whether a key is marked.
	Has(ctx context.Context, key domain.ResourceKey) (bool, error)

	// HasMany returns the subset of keys that are marked, keyed by their
	// canonical string form. Implementations batch lookups to respect
	// backend parameter-count ceilings.
	HasMany(ctx context.Context, keys []domain.ResourceKey) (map[string]bool, error)

	// Mark records one key.
	Mark(ctx context.Context, key domain.ResourceKey) error

	// MarkMany records keys in a single transaction.
	MarkMany(ctx context.Context, keys []domain.ResourceKey) error

	// CountBySourceType returns the number of marked keys for a source type.
	CountBySourceType(ctx context.Context, sourceType domain.SourceType) (int64, error)

	// Total returns the number of marked keys.
	Total(ctx context.Context) (int64, error)

	// MaxSourceID returns the largest marked source id for a source type,
	// or "" when none. The full-cursor resume fast path. Comparison
	// respects the id kind: numeric ids compare as integers, text ids
	// lexicographically. Text ids are never coerced through the numeric
	// path.
	MaxSourceID(ctx context.Context, sourceType domain.SourceType, kind domain.IDKind) (string, error)

	// Clear removes every entry.
	Clear(ctx context.Context) error

	// Close releases the underlying store.
	Close() error
}
