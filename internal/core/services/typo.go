package services

import (
	"sort"

	"github.com/lexcorpus/lexindex-cli/internal/core/domain"
)

// Typo diagnostic bounds.
const (
	// typoMinTermLen excludes very short terms, where a one-edit
	// neighbour is almost always a different word.
	typoMinTermLen = 5
)

// TypoSuspect flags a probable data typo: an unmatched term whose
// expected counterpart is within a small edit distance of a term actually
// present in the target document. Diagnostic only, never auto-linked.
type TypoSuspect struct {
	TermID       int64
	DocumentID   string
	Expected     string
	Found        string
	FoundTermID  int64
	EditDistance int
}

// levenshtein computes the minimum number of single-character inserts,
// deletes and substitutions between two strings, over runes.
func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	cur := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		cur[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			cur[j] = minInt(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[len(rb)]
}

// typoThreshold scales the acceptable edit distance with term length.
// Terms under typoMinTermLen are excluded entirely.
func typoThreshold(length int) int {
	switch {
	case length < typoMinTermLen:
		return 0
	case length <= 8:
		return 1
	case length <= 16:
		return 2
	default:
		return 3
	}
}

// findTypoSuspects scans every still-unmatched hinted term and compares
// its expected counterpart text against every term present in the target
// document. Pairs within the length-scaled threshold are flagged for
// manual review.
func findTypoSuspects(unmatched []*domain.DefinedTerm, byDoc map[docLangKey][]*domain.DefinedTerm) []TypoSuspect {
	var suspects []TypoSuspect
	for _, term := range unmatched {
		expected := domain.NormalizeTerm(term.PairedTermText)
		threshold := typoThreshold(len([]rune(expected)))
		if threshold == 0 {
			continue
		}

		targetDoc := domain.TranslateDocumentID(term.DocumentID)
		for _, cand := range byDoc[docLangKey{lang: term.Language.Opposite(), doc: targetDoc}] {
			d := levenshtein(expected, cand.NormalizedTerm)
			if d > 0 && d <= threshold {
				suspects = append(suspects, TypoSuspect{
					TermID:       term.ID,
					DocumentID:   term.DocumentID,
					Expected:     expected,
					Found:        cand.NormalizedTerm,
					FoundTermID:  cand.ID,
					EditDistance: d,
				})
			}
		}
	}
	sort.Slice(suspects, func(i, j int) bool { return suspects[i].TermID < suspects[j].TermID })
	return suspects
}

func minInt(vals ...int) int {
	m := vals[0]
	for _, v := range vals[1:] {
		if v < m {
			m = v
		}
	}
	return m
}
