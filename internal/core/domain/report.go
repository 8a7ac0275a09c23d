package domain

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// MaxReportExamples caps how many item identities are kept per error group.
const MaxReportExamples = 5

// ItemErrorReport accumulates per-item data-quality errors during a run.
// Errors are grouped by category with a capped list of example identities,
// summarised at run end. Per-item errors never force a non-zero exit.
type ItemErrorReport struct {
	mu     sync.Mutex
	groups map[string]*errorGroup
}

type errorGroup struct {
	count    int
	examples []string
}

// NewItemErrorReport creates an empty report.
func NewItemErrorReport() *ItemErrorReport {
	return &ItemErrorReport{groups: make(map[string]*errorGroup)}
}

// Add records one per-item error under a category, with the item's identity.
func (r *ItemErrorReport) Add(category, itemID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	g, ok := r.groups[category]
	if !ok {
		g = &errorGroup{}
		r.groups[category] = g
	}
	g.count++
	if len(g.examples) < MaxReportExamples {
		g.examples = append(g.examples, itemID)
	}
}

// Count returns the number of errors recorded under a category.
func (r *ItemErrorReport) Count(category string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if g, ok := r.groups[category]; ok {
		return g.count
	}
	return 0
}

// Total returns the number of errors recorded across all categories.
func (r *ItemErrorReport) Total() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	total := 0
	for _, g := range r.groups {
		total += g.count
	}
	return total
}

// Summary renders the grouped report, one category per block, categories
// sorted for stable output. Returns "" when no errors were recorded.
func (r *ItemErrorReport) Summary() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.groups) == 0 {
		return ""
	}

	categories := make([]string, 0, len(r.groups))
	for c := range r.groups {
		categories = append(categories, c)
	}
	sort.Strings(categories)

	var b strings.Builder
	for _, c := range categories {
		g := r.groups[c]
		fmt.Fprintf(&b, "%s: %d item(s)\n", c, g.count)
		for _, ex := range g.examples {
			fmt.Fprintf(&b, "  - %s\n", ex)
		}
		if g.count > len(g.examples) {
			fmt.Fprintf(&b, "  ... and %d more\n", g.count-len(g.examples))
		}
	}
	return b.String()
}
