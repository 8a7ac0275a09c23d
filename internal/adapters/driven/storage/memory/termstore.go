package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/lexcorpus/lexindex-cli/internal/core/domain"
	"github.com/lexcorpus/lexindex-cli/internal/core/ports/driven"
)

// Ensure TermStore implements the interface.
var _ driven.TermStore = (*TermStore)(nil)

// TermStore is an in-memory defined-term store.
type TermStore struct {
	mu    sync.RWMutex
	terms map[int64]*domain.DefinedTerm
	order []int64
}

// NewTermStore creates an empty in-memory term store.
func NewTermStore() *TermStore {
	return &TermStore{terms: make(map[int64]*domain.DefinedTerm)}
}

// Add loads terms. Normalized text is derived when absent.
func (s *TermStore) Add(terms ...domain.DefinedTerm) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range terms {
		if t.NormalizedTerm == "" {
			t.NormalizedTerm = domain.NormalizeTerm(t.RawTerm)
		}
		copied := t
		s.terms[t.ID] = &copied
		s.order = append(s.order, t.ID)
	}
}

// ListTerms returns every term in insertion order.
func (s *TermStore) ListTerms(_ context.Context) ([]domain.DefinedTerm, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.DefinedTerm, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.terms[id])
	}
	return out, nil
}

// SetPair links two terms to each other. Existing links are never
// overwritten.
func (s *TermStore) SetPair(_ context.Context, aID, bID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.terms[aID]
	if !ok {
		return fmt.Errorf("term %d: %w", aID, domain.ErrNotFound)
	}
	b, ok := s.terms[bID]
	if !ok {
		return fmt.Errorf("term %d: %w", bID, domain.ErrNotFound)
	}
	if a.PairedTermID != nil || b.PairedTermID != nil {
		return domain.ErrTermAlreadyLinked
	}
	a.PairedTermID = &b.ID
	b.PairedTermID = &a.ID
	return nil
}

// Get returns one term by id, for test assertions.
func (s *TermStore) Get(id int64) (domain.DefinedTerm, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.terms[id]
	if !ok {
		return domain.DefinedTerm{}, false
	}
	return *t, true
}
