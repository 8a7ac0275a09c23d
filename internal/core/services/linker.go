package services

import (
	"context"
	"fmt"

	"github.com/lexcorpus/lexindex-cli/internal/core/domain"
	"github.com/lexcorpus/lexindex-cli/internal/core/ports/driven"
	"github.com/lexcorpus/lexindex-cli/internal/logger"
)

// LinkerConfig describes one term-linking run.
type LinkerConfig struct {
	// DryRun computes links without writing them.
	DryRun bool

	// Corrections substitutes known-bad counterpart hints before
	// matching, keyed by the raw hint text. An input transform, not
	// fuzzy acceptance: corrected hints still need an exact match.
	Corrections map[string]string
}

// LinkStats summarises one linking run.
type LinkStats struct {
	TermsLoaded     int
	AlreadyLinked   int
	Pass1Links      int
	Pass2Links      int
	Pass3Links      int
	MarkerExcluded  int
	Ambiguous       int
	Unmatched       int
	InvalidLanguage int

	// TypoSuspects flags probable data typos among the unmatched.
	TypoSuspects []TypoSuspect

	// Report collects per-item data-quality errors.
	Report *domain.ItemErrorReport
}

// Links returns the total number of links committed across all passes.
func (s *LinkStats) Links() int {
	return s.Pass1Links + s.Pass2Links + s.Pass3Links
}

// sectionKey indexes the full corpus for pass 1 exact matching.
type sectionKey struct {
	lang    domain.Language
	doc     string
	section string
	norm    string
}

// docNormKey indexes normalized text occurrences per document.
type docNormKey struct {
	lang domain.Language
	doc  string
	norm string
}

// docLangKey groups terms by document and language.
type docLangKey struct {
	lang domain.Language
	doc  string
}

// groupKey groups untagged terms for pass 3 co-occurrence.
type groupKey struct {
	doc     string
	section string
}

// TermLinker links English/French legal term definitions in three
// ordered passes. A term matched in an earlier pass is excluded from
// later ones; a term still unmatched at the end keeps a null link for
// the run, never a guess.
type TermLinker struct {
	store driven.TermStore
}

// NewTermLinker creates a linker over a term store.
func NewTermLinker(store driven.TermStore) *TermLinker {
	return &TermLinker{store: store}
}

// linkerState carries the read-only indexes and per-run match bookkeeping.
// All indexes are built once before matching and never mutated during it.
type linkerState struct {
	terms     []*domain.DefinedTerm
	bySection map[sectionKey][]*domain.DefinedTerm
	byDocNorm map[docNormKey][]*domain.DefinedTerm
	byDoc     map[docLangKey][]*domain.DefinedTerm
	matched   map[int64]bool
	excluded  map[int64]bool
}

// Run executes the three matching passes plus typo diagnostics.
func (l *TermLinker) Run(ctx context.Context, cfg LinkerConfig) (*LinkStats, error) {
	stats := &LinkStats{Report: domain.NewItemErrorReport()}

	all, err := l.store.ListTerms(ctx)
	if err != nil {
		return nil, fmt.Errorf("list terms: %w", err)
	}
	stats.TermsLoaded = len(all)

	st := buildState(all, stats)

	if err := l.pass1(ctx, cfg, st, stats); err != nil {
		return stats, err
	}
	if err := l.pass2(ctx, cfg, st, stats); err != nil {
		return stats, err
	}
	if err := l.pass3(ctx, cfg, st, stats); err != nil {
		return stats, err
	}

	unmatchedHinted := st.unmatchedWithHints()
	stats.Unmatched = st.unmatchedCount()
	stats.TypoSuspects = findTypoSuspects(unmatchedHinted, st.byDoc)

	logger.Info("Linking done: %d pass1, %d pass2, %d pass3, %d ambiguous, %d unmatched",
		stats.Pass1Links, stats.Pass2Links, stats.Pass3Links, stats.Ambiguous, stats.Unmatched)
	return stats, nil
}

// buildState indexes the corpus. Terms with invalid language codes are
// non-retryable per-item errors, excluded from every pass and from the
// candidate indexes.
func buildState(all []domain.DefinedTerm, stats *LinkStats) *linkerState {
	st := &linkerState{
		bySection: make(map[sectionKey][]*domain.DefinedTerm),
		byDocNorm: make(map[docNormKey][]*domain.DefinedTerm),
		byDoc:     make(map[docLangKey][]*domain.DefinedTerm),
		matched:   make(map[int64]bool),
		excluded:  make(map[int64]bool),
	}

	for i := range all {
		term := &all[i]
		if !term.Language.Valid() {
			stats.InvalidLanguage++
			stats.Report.Add(domain.ErrInvalidLanguage.Error(), fmt.Sprintf("term %d (%s)", term.ID, term.RawTerm))
			continue
		}
		if term.Linked() {
			stats.AlreadyLinked++
			st.matched[term.ID] = true
		}
		st.terms = append(st.terms, term)

		sk := sectionKey{lang: term.Language, doc: term.DocumentID, section: term.SectionLabel, norm: term.NormalizedTerm}
		st.bySection[sk] = append(st.bySection[sk], term)
		dk := docNormKey{lang: term.Language, doc: term.DocumentID, norm: term.NormalizedTerm}
		st.byDocNorm[dk] = append(st.byDocNorm[dk], term)
		lk := docLangKey{lang: term.Language, doc: term.DocumentID}
		st.byDoc[lk] = append(st.byDoc[lk], term)
	}
	return st
}

// hintFor applies the curated correction table to a term's counterpart hint.
func hintFor(term *domain.DefinedTerm, cfg LinkerConfig) string {
	if corrected, ok := cfg.Corrections[term.PairedTermText]; ok {
		return corrected
	}
	return term.PairedTermText
}

// pass1 matches hinted terms against the exact (language, document,
// section, normalized text) index. The whole hint is tried first; split
// alternatives only as a fallback when the hint carries an alternation
// marker. First hit wins.
func (l *TermLinker) pass1(ctx context.Context, cfg LinkerConfig, st *linkerState, stats *LinkStats) error {
	for _, term := range st.terms {
		if st.matched[term.ID] || term.PairedTermText == "" {
			continue
		}
		if domain.IsLanguageOnlyMarker(term.PairedTermText) {
			// "No translation exists by design" is not a failure.
			st.excluded[term.ID] = true
			stats.MarkerExcluded++
			continue
		}

		hint := hintFor(term, cfg)
		targetLang := term.Language.Opposite()
		targetDoc := domain.TranslateDocumentID(term.DocumentID)

		for _, candidate := range domain.SplitAlternatives(hint) {
			norm := domain.NormalizeTerm(candidate)
			hit := st.firstUnmatched(st.bySection[sectionKey{
				lang:    targetLang,
				doc:     targetDoc,
				section: term.SectionLabel,
				norm:    norm,
			}])
			if hit == nil {
				continue
			}
			if err := l.link(ctx, cfg, st, term, hit); err != nil {
				return err
			}
			stats.Pass1Links++
			break
		}
	}
	return nil
}

// pass2 retries hinted terms ignoring the section constraint, commonly
// needed because section labels differ across languages. It links only
// under double uniqueness: the source term's normalized text occurs
// exactly once in its own document AND the candidate's normalized text
// occurs exactly once in the target document. Without both checks a term
// defined differently in several sections could link to an arbitrary
// wrong occurrence.
func (l *TermLinker) pass2(ctx context.Context, cfg LinkerConfig, st *linkerState, stats *LinkStats) error {
	for _, term := range st.terms {
		if st.matched[term.ID] || st.excluded[term.ID] || term.PairedTermText == "" {
			continue
		}

		// Uniqueness counts run over the whole corpus including
		// already-linked terms.
		own := st.byDocNorm[docNormKey{lang: term.Language, doc: term.DocumentID, norm: term.NormalizedTerm}]
		if len(own) != 1 {
			continue
		}

		hint := hintFor(term, cfg)
		targetLang := term.Language.Opposite()
		targetDoc := domain.TranslateDocumentID(term.DocumentID)

		for _, candidate := range domain.SplitAlternatives(hint) {
			norm := domain.NormalizeTerm(candidate)
			occurrences := st.byDocNorm[docNormKey{lang: targetLang, doc: targetDoc, norm: norm}]
			if len(occurrences) != 1 {
				continue
			}
			hit := occurrences[0]
			if st.matched[hit.ID] {
				continue
			}
			if err := l.link(ctx, cfg, st, term, hit); err != nil {
				return err
			}
			stats.Pass2Links++
			break
		}
	}
	return nil
}

// pass3 handles terms carrying no counterpart hint at all. Unmatched
// untagged terms are grouped by (document, section); a group with
// exactly one English and exactly one French term links pairwise.
// Anything denser is ambiguous and left alone, never guessed.
func (l *TermLinker) pass3(ctx context.Context, cfg LinkerConfig, st *linkerState, stats *LinkStats) error {
	groups := make(map[groupKey][]*domain.DefinedTerm)
	for _, term := range st.terms {
		if st.matched[term.ID] || st.excluded[term.ID] || term.PairedTermText != "" {
			continue
		}
		gk := groupKey{doc: term.DocumentID, section: term.SectionLabel}
		groups[gk] = append(groups[gk], term)
	}

	for _, group := range groups {
		var english, french []*domain.DefinedTerm
		for _, term := range group {
			if term.Language == domain.LanguageEnglish {
				english = append(english, term)
			} else {
				french = append(french, term)
			}
		}
		if len(english) == 1 && len(french) == 1 {
			if err := l.link(ctx, cfg, st, english[0], french[0]); err != nil {
				return err
			}
			stats.Pass3Links++
			continue
		}
		if len(english) > 1 || len(french) > 1 {
			stats.Ambiguous += len(group)
		}
	}
	return nil
}

// link commits one symmetric pair and marks both sides matched.
func (l *TermLinker) link(ctx context.Context, cfg LinkerConfig, st *linkerState, a, b *domain.DefinedTerm) error {
	if a.Language == b.Language {
		return fmt.Errorf("%w: terms %d and %d share language %s", domain.ErrInvalidInput, a.ID, b.ID, a.Language)
	}
	if !cfg.DryRun {
		if err := l.store.SetPair(ctx, a.ID, b.ID); err != nil {
			return fmt.Errorf("set pair %d<->%d: %w", a.ID, b.ID, err)
		}
	}
	a.PairedTermID = &b.ID
	b.PairedTermID = &a.ID
	st.matched[a.ID] = true
	st.matched[b.ID] = true
	logger.Debug("Linked %d (%s %q) <-> %d (%s %q)", a.ID, a.Language, a.RawTerm, b.ID, b.Language, b.RawTerm)
	return nil
}

// firstUnmatched returns the first candidate not yet matched this run.
func (st *linkerState) firstUnmatched(candidates []*domain.DefinedTerm) *domain.DefinedTerm {
	for _, c := range candidates {
		if !st.matched[c.ID] {
			return c
		}
	}
	return nil
}

// unmatchedWithHints returns hinted, non-excluded terms still unmatched.
func (st *linkerState) unmatchedWithHints() []*domain.DefinedTerm {
	var out []*domain.DefinedTerm
	for _, term := range st.terms {
		if !st.matched[term.ID] && !st.excluded[term.ID] && term.PairedTermText != "" {
			out = append(out, term)
		}
	}
	return out
}

// unmatchedCount counts terms left without a link, excluding marker terms.
func (st *linkerState) unmatchedCount() int {
	n := 0
	for _, term := range st.terms {
		if !st.matched[term.ID] && !st.excluded[term.ID] {
			n++
		}
	}
	return n
}
