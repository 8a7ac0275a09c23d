package driven

import (
	"context"

	"github.com/lexcorpus/lexindex-cli/internal/core/domain"
)

// TermStore reads defined terms and records cross-language links.
type TermStore interface {
	// ListTerms returns every defined term in the corpus.
	ListTerms(ctx context.Context) ([]domain.DefinedTerm, error)

	// SetPair links two terms to each other in one transaction. Fails
	// with domain.ErrTermAlreadyLinked if either side already has a link;
	// links are written at most once and never overwritten.
	SetPair(ctx context.Context, aID, bID int64) error
}
