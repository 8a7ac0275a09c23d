package driven

import (
	"context"

	"github.com/lexcorpus/lexindex-cli/internal/core/domain"
)

// PageQuery asks for one page of source rows.
type PageQuery struct {
	// SourceType selects the source table.
	SourceType domain.SourceType

	// Filter is an optional orthogonal scope (e.g. a parliamentary
	// session for debates). Empty means no filter.
	Filter string

	// Cursor is the last-seen id, exclusive. Empty starts from the
	// beginning. Comparison respects the table's id kind.
	Cursor string

	// Limit is the maximum number of rows to return.
	Limit int
}

// Page is one result page plus the cursor to request the next one.
type Page struct {
	Items []domain.SourceItem

	// NextCursor is the id of the last row in Items; passing it back in
	// the next query continues the scan. Unchanged from the request
	// cursor when Items is empty.
	NextCursor string
}

// SourceReader reads source tables with keyset pagination: rows are
// ordered by primary key ascending and selected with an id > cursor
// predicate, so each page costs one index seek regardless of scan depth.
type SourceReader interface {
	// NextPage returns the next page after the query's cursor.
	NextPage(ctx context.Context, q PageQuery) (Page, error)

	// Count returns the number of source rows for a type and filter.
	Count(ctx context.Context, sourceType domain.SourceType, filter string) (int64, error)
}
