package postgres

import (
	"context"
	"fmt"

	"github.com/lexcorpus/lexindex-cli/internal/core/domain"
	"github.com/lexcorpus/lexindex-cli/internal/core/ports/driven"
)

// termStore implements driven.TermStore.
type termStore struct {
	store *Store
}

var _ driven.TermStore = (*termStore)(nil)

// ListTerms returns every defined term in the corpus, id ascending.
func (s *termStore) ListTerms(ctx context.Context) ([]domain.DefinedTerm, error) {
	rows, err := s.store.pool.Query(ctx, `
		SELECT id, language, raw_term, normalized_term,
		       COALESCE(paired_term_text, ''), paired_term_id,
		       document_id, COALESCE(section_label, '')
		FROM defined_terms
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying terms: %w", err)
	}
	defer rows.Close()

	var terms []domain.DefinedTerm //nolint:prealloc // size unknown from query
	for rows.Next() {
		var t domain.DefinedTerm
		var language string
		if err := rows.Scan(&t.ID, &language, &t.RawTerm, &t.NormalizedTerm,
			&t.PairedTermText, &t.PairedTermID, &t.DocumentID, &t.SectionLabel); err != nil {
			return nil, fmt.Errorf("scanning term: %w", err)
		}
		t.Language = domain.Language(language)
		terms = append(terms, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating terms: %w", err)
	}
	return terms, nil
}

// SetPair links two terms to each other in one transaction. The update
// predicates on paired_term_id IS NULL so an existing link is never
// overwritten; touching a linked row fails the whole transaction.
func (s *termStore) SetPair(ctx context.Context, aID, bID int64) error {
	tx, err := s.store.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	for _, pair := range [][2]int64{{aID, bID}, {bID, aID}} {
		tag, err := tx.Exec(ctx, `
			UPDATE defined_terms SET paired_term_id = $1
			WHERE id = $2 AND paired_term_id IS NULL
		`, pair[1], pair[0])
		if err != nil {
			return fmt.Errorf("linking term %d: %w", pair[0], err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("term %d: %w", pair[0], domain.ErrTermAlreadyLinked)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}
