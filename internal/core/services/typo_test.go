package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexcorpus/lexindex-cli/internal/adapters/driven/storage/memory"
)

func TestLevenshtein(t *testing.T) {
	cases := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"", "abc", 3},
		{"abc", "", 3},
		{"kitten", "kitten", 0},
		{"kitten", "sitting", 3},
		{"licence", "license", 1},
		// Rune-wise, not byte-wise
		{"intérêt", "interet", 2},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, levenshtein(tc.a, tc.b), "%q vs %q", tc.a, tc.b)
	}
}

func TestTypoThreshold(t *testing.T) {
	assert.Equal(t, 0, typoThreshold(4))
	assert.Equal(t, 1, typoThreshold(5))
	assert.Equal(t, 1, typoThreshold(8))
	assert.Equal(t, 2, typoThreshold(9))
	assert.Equal(t, 2, typoThreshold(16))
	assert.Equal(t, 3, typoThreshold(17))
}

func TestTermLinker_TypoSuspects(t *testing.T) {
	// The hint "radiodiffuseR" never matches, but the target document
	// holds "radiodiffuseur" one edit away, and two distinct sections
	// prevent a pass-2 rescue of the typo.
	store := memory.NewTermStore()
	store.Add(
		enTerm(1, "C-42", "2", "broadcaster", "radiodiffuser"),
		frTerm(2, "C-42", "5", "radiodiffuseur", ""),
		frTerm(3, "C-42", "9", "radiodiffuseur", ""),
	)

	stats, err := NewTermLinker(store).Run(context.Background(), LinkerConfig{})

	require.NoError(t, err)
	assert.Equal(t, 0, stats.Links())
	require.Len(t, stats.TypoSuspects, 2)
	for _, suspect := range stats.TypoSuspects {
		assert.Equal(t, int64(1), suspect.TermID)
		assert.Equal(t, "radiodiffuser", suspect.Expected)
		assert.Equal(t, "radiodiffuseur", suspect.Found)
		assert.Equal(t, 1, suspect.EditDistance)
	}
}

func TestTermLinker_NoTypoSuspectForShortTerms(t *testing.T) {
	// "chat" is under the minimum length; a one-edit neighbour is
	// almost always a different word, so no suspect is raised.
	store := memory.NewTermStore()
	store.Add(
		enTerm(1, "C-42", "2", "cat", "chat"),
		frTerm(2, "C-42", "5", "chut", ""),
		frTerm(3, "C-42", "9", "chut", ""),
	)

	stats, err := NewTermLinker(store).Run(context.Background(), LinkerConfig{})

	require.NoError(t, err)
	assert.Empty(t, stats.TypoSuspects)
}

func TestTermLinker_NoTypoSuspectBeyondThreshold(t *testing.T) {
	store := memory.NewTermStore()
	store.Add(
		enTerm(1, "C-42", "2", "licence", "permis"),
		frTerm(2, "C-42", "5", "autorisation", ""),
	)

	stats, err := NewTermLinker(store).Run(context.Background(), LinkerConfig{})

	require.NoError(t, err)
	assert.Empty(t, stats.TypoSuspects)
}
