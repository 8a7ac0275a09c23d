package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/lexcorpus/lexindex-cli/internal/core/domain"
	"github.com/lexcorpus/lexindex-cli/internal/core/ports/driven"
)

// Ensure ResourceStore implements the interface.
var _ driven.ResourceStore = (*ResourceStore)(nil)

// storedResource keeps a resource and its single embedding together.
type storedResource struct {
	resource domain.Resource
	vector   []float32
}

// ResourceStore is an in-memory resource + embedding store with the same
// idempotent-upsert semantics as the durable adapter.
type ResourceStore struct {
	mu     sync.RWMutex
	nextID int64
	byKey  map[string]*storedResource
}

// NewResourceStore creates an empty in-memory resource store.
func NewResourceStore() *ResourceStore {
	return &ResourceStore{byKey: make(map[string]*storedResource)}
}

// UpsertBatch persists all records or none. Conflicting keys refresh the
// timestamp and replace the embedding; no duplicate resource is created.
func (s *ResourceStore) UpsertBatch(_ context.Context, records []driven.ResourceRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	for _, r := range records {
		key := r.Chunk.Key.String()
		if existing, ok := s.byKey[key]; ok {
			existing.resource.RefreshedAt = now
			existing.vector = r.Vector
			continue
		}
		s.nextID++
		s.byKey[key] = &storedResource{
			resource: domain.Resource{
				ID:                    s.nextID,
				Key:                   r.Chunk.Key,
				PairedKey:             r.Chunk.PairedKey,
				Title:                 r.Chunk.Title,
				Content:               r.Chunk.Content,
				Metadata:              r.Chunk.Metadata,
				EmbeddingModelVersion: r.ModelVersion,
				CreatedAt:             now,
				RefreshedAt:           now,
			},
			vector: r.Vector,
		}
	}
	return nil
}

// ExistingKeys reports which keys are present.
func (s *ResourceStore) ExistingKeys(_ context.Context, keys []domain.ResourceKey) (map[string]bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	found := make(map[string]bool)
	for _, k := range keys {
		if _, ok := s.byKey[k.String()]; ok {
			found[k.String()] = true
		}
	}
	return found, nil
}

// CountBySourceType counts resources for a source type.
func (s *ResourceStore) CountBySourceType(_ context.Context, sourceType domain.SourceType) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, sr := range s.byKey {
		if sr.resource.Key.SourceType == sourceType {
			n++
		}
	}
	return n, nil
}

// ScanKeys pages resource keys in row-id order.
func (s *ResourceStore) ScanKeys(_ context.Context, sourceType domain.SourceType, afterID int64, limit int) ([]domain.ResourceKey, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matching []*storedResource
	for _, sr := range s.byKey {
		if sr.resource.Key.SourceType == sourceType && sr.resource.ID > afterID {
			matching = append(matching, sr)
		}
	}
	sort.Slice(matching, func(i, j int) bool { return matching[i].resource.ID < matching[j].resource.ID })
	if limit > 0 && len(matching) > limit {
		matching = matching[:limit]
	}

	keys := make([]domain.ResourceKey, len(matching))
	lastID := afterID
	for i, sr := range matching {
		keys[i] = sr.resource.Key
		lastID = sr.resource.ID
	}
	return keys, lastID, nil
}

// DeleteBySourceType removes all resources for a source type.
func (s *ResourceStore) DeleteBySourceType(_ context.Context, sourceType domain.SourceType) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for key, sr := range s.byKey {
		if sr.resource.Key.SourceType == sourceType {
			delete(s.byKey, key)
			n++
		}
	}
	return n, nil
}

// Get returns a stored resource and its vector, for test assertions.
func (s *ResourceStore) Get(key domain.ResourceKey) (domain.Resource, []float32, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sr, ok := s.byKey[key.String()]
	if !ok {
		return domain.Resource{}, nil, false
	}
	return sr.resource, sr.vector, true
}

// Len returns the number of stored resources.
func (s *ResourceStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byKey)
}
