package domain

import "strings"

// DefinedTerm is a legally scoped term definition. Terms come in
// English/French pairs; PairedTermID is the only field this system
// mutates, written at most once and never overwritten.
type DefinedTerm struct {
	// ID is the store-assigned row id.
	ID int64

	// Language is the language of the definition.
	Language Language

	// RawTerm is the term text as it appears in the document.
	RawTerm string

	// NormalizedTerm is the matching form of RawTerm.
	NormalizedTerm string

	// PairedTermText is the counterpart hint printed alongside the
	// definition (e.g. the italicised French term after an English
	// definition). Empty when the document carries no hint.
	PairedTermText string

	// PairedTermID references the counterpart term in the opposite
	// language, nil until linked.
	PairedTermID *int64

	// DocumentID identifies the act or regulation containing the term.
	DocumentID string

	// SectionLabel is the section the definition appears in, when known.
	SectionLabel string
}

// Linked reports whether the term already has a counterpart.
func (t *DefinedTerm) Linked() bool {
	return t.PairedTermID != nil
}

// Regulation instrument id prefixes differ across languages while the
// rest of the id is shared. Acts keep one id for both languages.
var regulationPrefixPairs = [][2]string{
	{"SOR/", "DORS/"},
	{"SI/", "TR/"},
}

// TranslateDocumentID returns the counterpart document id in the other
// language. Acts share one id; regulations translate by prefix
// substitution. Unrecognised ids are returned unchanged.
func TranslateDocumentID(docID string) string {
	for _, pair := range regulationPrefixPairs {
		if strings.HasPrefix(docID, pair[0]) {
			return pair[1] + strings.TrimPrefix(docID, pair[0])
		}
		if strings.HasPrefix(docID, pair[1]) {
			return pair[0] + strings.TrimPrefix(docID, pair[1])
		}
	}
	return docID
}

// languageOnlyMarkers are fixed phrases meaning "no translation exists by
// design". Terms carrying one as their counterpart hint are excluded from
// matching entirely; they are not failures.
var languageOnlyMarkers = []string{
	"english version only",
	"french version only",
	"version anglaise seulement",
	"version française seulement",
}

// IsLanguageOnlyMarker reports whether a counterpart hint is a
// language-only marker rather than an actual term.
func IsLanguageOnlyMarker(hint string) bool {
	h := strings.ToLower(strings.TrimSpace(hint))
	h = strings.Trim(h, "[]()")
	for _, m := range languageOnlyMarkers {
		if h == m {
			return true
		}
	}
	return false
}

// NormalizeTerm reduces a term to its matching form: lowercased, quote
// and guillemet stripped, whitespace collapsed, trailing punctuation
// removed.
func NormalizeTerm(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer("«", "", "»", "", "“", "", "”", "", `"`, "", "’", "'").Replace(s)
	s = strings.Join(strings.Fields(s), " ")
	return strings.TrimRight(s, ".,;:")
}

// SplitAlternatives expands a counterpart hint that lists several
// candidate terms. The whole hint always comes first; split alternatives
// are appended only when the hint contains an alternation marker
// (" or "/" ou ") or a comma-separated list.
func SplitAlternatives(hint string) []string {
	hint = strings.TrimSpace(hint)
	if hint == "" {
		return nil
	}
	candidates := []string{hint}

	var parts []string
	switch {
	case strings.Contains(hint, " or "):
		parts = strings.Split(hint, " or ")
	case strings.Contains(hint, " ou "):
		parts = strings.Split(hint, " ou ")
	case strings.Contains(hint, ","):
		parts = strings.Split(hint, ",")
	}
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" && p != hint {
			candidates = append(candidates, p)
		}
	}
	return candidates
}
