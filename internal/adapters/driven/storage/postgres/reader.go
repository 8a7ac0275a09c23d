package postgres

import (
	"context"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"

	"github.com/lexcorpus/lexindex-cli/internal/core/domain"
	"github.com/lexcorpus/lexindex-cli/internal/core/ports/driven"
)

// sourceReader implements driven.SourceReader over the source tables.
// Pagination is keyset-based: WHERE id > cursor against the primary key
// index costs one seek per page regardless of scan depth, where offset
// pagination would cost O(n) per page.
type sourceReader struct {
	store *Store
}

var _ driven.SourceReader = (*sourceReader)(nil)

// NextPage returns the next page of source rows after the cursor.
func (r *sourceReader) NextPage(ctx context.Context, q driven.PageQuery) (driven.Page, error) {
	page := driven.Page{NextCursor: q.Cursor}

	if q.Filter != "" && q.SourceType != domain.SourceTypeDebate {
		return page, fmt.Errorf("%w: %s rows have no session filter", domain.ErrInvalidInput, q.SourceType)
	}

	var rows pgx.Rows
	var err error
	switch q.SourceType {
	case domain.SourceTypeAct:
		rows, err = r.actPage(ctx, q)
	case domain.SourceTypeRegulation:
		rows, err = r.regulationPage(ctx, q)
	case domain.SourceTypeDebate:
		rows, err = r.debatePage(ctx, q)
	default:
		return page, fmt.Errorf("%w: %q", domain.ErrUnsupportedSourceType, q.SourceType)
	}
	if err != nil {
		return page, fmt.Errorf("querying %s page: %w", q.SourceType, err)
	}
	defer rows.Close()

	items, err := scanItems(rows, q.SourceType)
	if err != nil {
		return page, err
	}
	page.Items = items
	if len(items) > 0 {
		page.NextCursor = items[len(items)-1].ID
	}
	return page, nil
}

// numericCursor converts a cursor for a numeric-id table. Empty means
// "before the first row".
func numericCursor(cursor string) (int64, error) {
	if cursor == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(cursor, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not numeric", domain.ErrInvalidCursor, cursor)
	}
	return n, nil
}

func (r *sourceReader) actPage(ctx context.Context, q driven.PageQuery) (pgx.Rows, error) {
	after, err := numericCursor(q.Cursor)
	if err != nil {
		return nil, err
	}
	return r.store.pool.Query(ctx, `
		SELECT id::text, language, act_id, act_title, section_label,
		       COALESCE(marginal_note, ''), COALESCE(counterpart_id::text, ''), content
		FROM act_sections
		WHERE id > $1
		ORDER BY id
		LIMIT $2
	`, after, q.Limit)
}

func (r *sourceReader) regulationPage(ctx context.Context, q driven.PageQuery) (pgx.Rows, error) {
	after, err := numericCursor(q.Cursor)
	if err != nil {
		return nil, err
	}
	return r.store.pool.Query(ctx, `
		SELECT id::text, language, instrument_id, section_label,
		       COALESCE(enabling_act, ''), COALESCE(counterpart_id::text, ''), content
		FROM regulation_sections
		WHERE id > $1
		ORDER BY id
		LIMIT $2
	`, after, q.Limit)
}

// debatePage pages the debate table. Ids are session-sitting codes that
// order lexicographically; the cursor is compared as text, never cast.
func (r *sourceReader) debatePage(ctx context.Context, q driven.PageQuery) (pgx.Rows, error) {
	if q.Filter != "" {
		return r.store.pool.Query(ctx, `
			SELECT id, language, session, COALESCE(sitting, ''),
			       COALESCE(speaker, ''), COALESCE(subject, ''), content
			FROM debate_statements
			WHERE id > $1 AND session = $2
			ORDER BY id
			LIMIT $3
		`, q.Cursor, q.Filter, q.Limit)
	}
	return r.store.pool.Query(ctx, `
		SELECT id, language, session, COALESCE(sitting, ''),
		       COALESCE(speaker, ''), COALESCE(subject, ''), content
		FROM debate_statements
		WHERE id > $1
		ORDER BY id
		LIMIT $2
	`, q.Cursor, q.Limit)
}

// Count returns the number of source rows for a type and filter.
func (r *sourceReader) Count(ctx context.Context, sourceType domain.SourceType, filter string) (int64, error) {
	var count int64
	var err error
	switch sourceType {
	case domain.SourceTypeAct:
		err = r.store.pool.QueryRow(ctx, "SELECT COUNT(*) FROM act_sections").Scan(&count)
	case domain.SourceTypeRegulation:
		err = r.store.pool.QueryRow(ctx, "SELECT COUNT(*) FROM regulation_sections").Scan(&count)
	case domain.SourceTypeDebate:
		if filter != "" {
			err = r.store.pool.QueryRow(ctx,
				"SELECT COUNT(*) FROM debate_statements WHERE session = $1", filter).Scan(&count)
		} else {
			err = r.store.pool.QueryRow(ctx, "SELECT COUNT(*) FROM debate_statements").Scan(&count)
		}
	default:
		return 0, fmt.Errorf("%w: %q", domain.ErrUnsupportedSourceType, sourceType)
	}
	if err != nil {
		return 0, fmt.Errorf("counting %s rows: %w", sourceType, err)
	}
	return count, nil
}

// scanItems builds source items with the metadata variant matching the
// source type.
func scanItems(rows pgx.Rows, sourceType domain.SourceType) ([]domain.SourceItem, error) {
	var items []domain.SourceItem //nolint:prealloc // size unknown from query
	for rows.Next() {
		var item domain.SourceItem
		var err error
		switch sourceType {
		case domain.SourceTypeAct:
			item, err = scanActItem(rows)
		case domain.SourceTypeRegulation:
			item, err = scanRegulationItem(rows)
		case domain.SourceTypeDebate:
			item, err = scanDebateItem(rows)
		}
		if err != nil {
			return nil, fmt.Errorf("scanning %s row: %w", sourceType, err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating %s rows: %w", sourceType, err)
	}
	return items, nil
}

func scanActItem(rows pgx.Rows) (domain.SourceItem, error) {
	var item domain.SourceItem
	var language string
	meta := &domain.ActMeta{}
	if err := rows.Scan(&item.ID, &language, &meta.ActID, &meta.ActTitle,
		&meta.SectionLabel, &meta.MarginalNote, &item.CounterpartID, &item.Content); err != nil {
		return item, err
	}
	item.SourceType = domain.SourceTypeAct
	item.Language = domain.Language(language)
	item.Title = meta.ActTitle + " s. " + meta.SectionLabel
	item.Metadata = domain.Metadata{Kind: domain.MetadataKindAct, Act: meta}
	return item, nil
}

func scanRegulationItem(rows pgx.Rows) (domain.SourceItem, error) {
	var item domain.SourceItem
	var language string
	meta := &domain.RegulationMeta{}
	if err := rows.Scan(&item.ID, &language, &meta.InstrumentID,
		&meta.SectionLabel, &meta.EnablingAct, &item.CounterpartID, &item.Content); err != nil {
		return item, err
	}
	item.SourceType = domain.SourceTypeRegulation
	item.Language = domain.Language(language)
	item.Title = meta.InstrumentID + " s. " + meta.SectionLabel
	item.Metadata = domain.Metadata{Kind: domain.MetadataKindRegulation, Regulation: meta}
	return item, nil
}

func scanDebateItem(rows pgx.Rows) (domain.SourceItem, error) {
	var item domain.SourceItem
	var language string
	meta := &domain.DebateMeta{}
	if err := rows.Scan(&item.ID, &language, &meta.Session, &meta.Sitting,
		&meta.Speaker, &meta.Subject, &item.Content); err != nil {
		return item, err
	}
	item.SourceType = domain.SourceTypeDebate
	item.Language = domain.Language(language)
	item.Title = meta.Session + " " + meta.Subject
	item.Metadata = domain.Metadata{Kind: domain.MetadataKindDebate, Debate: meta}
	return item, nil
}
