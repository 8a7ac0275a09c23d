package memory

import (
	"context"
	"sort"
	"strconv"
	"sync"

	"github.com/lexcorpus/lexindex-cli/internal/core/domain"
	"github.com/lexcorpus/lexindex-cli/internal/core/ports/driven"
)

// Ensure SourceReader implements the interface.
var _ driven.SourceReader = (*SourceReader)(nil)

// SourceReader serves pre-loaded source items with keyset pagination.
type SourceReader struct {
	mu    sync.RWMutex
	items map[domain.SourceType][]domain.SourceItem
}

// NewSourceReader creates an empty in-memory source reader.
func NewSourceReader() *SourceReader {
	return &SourceReader{items: make(map[domain.SourceType][]domain.SourceItem)}
}

// Add loads source items, kept sorted by id with kind-aware comparison.
func (r *SourceReader) Add(items ...domain.SourceItem) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, item := range items {
		r.items[item.SourceType] = append(r.items[item.SourceType], item)
	}
	for st, rows := range r.items {
		kind := st.IDKind()
		sort.Slice(rows, func(i, j int) bool { return idLess(rows[i].ID, rows[j].ID, kind) })
	}
}

// NextPage returns the next page after the cursor, id ascending.
func (r *SourceReader) NextPage(_ context.Context, q driven.PageQuery) (driven.Page, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kind := q.SourceType.IDKind()
	page := driven.Page{NextCursor: q.Cursor}
	for _, item := range r.items[q.SourceType] {
		if q.Cursor != "" && !idLess(q.Cursor, item.ID, kind) {
			continue
		}
		if q.Filter != "" && !matchesFilter(item, q.Filter) {
			continue
		}
		page.Items = append(page.Items, item)
		page.NextCursor = item.ID
		if len(page.Items) >= q.Limit {
			break
		}
	}
	return page, nil
}

// Count returns the number of rows for a type and filter.
func (r *SourceReader) Count(_ context.Context, sourceType domain.SourceType, filter string) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var n int64
	for _, item := range r.items[sourceType] {
		if filter == "" || matchesFilter(item, filter) {
			n++
		}
	}
	return n, nil
}

// matchesFilter applies the orthogonal session filter for debate rows.
func matchesFilter(item domain.SourceItem, filter string) bool {
	if item.Metadata.Debate != nil {
		return item.Metadata.Debate.Session == filter
	}
	return false
}

// idLess orders ids by kind: numeric ids as integers, text ids
// lexicographically.
func idLess(a, b string, kind domain.IDKind) bool {
	if kind == domain.IDKindNumeric {
		an, aerr := strconv.ParseInt(a, 10, 64)
		bn, berr := strconv.ParseInt(b, 10, 64)
		if aerr == nil && berr == nil {
			return an < bn
		}
	}
	return a < b
}
