package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Language identifies the language of a resource or term.
type Language string

const (
	// LanguageEnglish is the English half of the corpus.
	LanguageEnglish Language = "en"
	// LanguageFrench is the French half of the corpus.
	LanguageFrench Language = "fr"
)

// Valid reports whether the language code is one of the two supported values.
func (l Language) Valid() bool {
	return l == LanguageEnglish || l == LanguageFrench
}

// Opposite returns the other language of the bilingual pair.
func (l Language) Opposite() Language {
	if l == LanguageEnglish {
		return LanguageFrench
	}
	return LanguageEnglish
}

// IDKind describes how source ids for a table order and compare.
type IDKind int

const (
	// IDKindNumeric ids are integers; cursors compare numerically and the
	// progress cache can supply a "max seen id" fast path.
	IDKindNumeric IDKind = iota

	// IDKindText ids are lexicographically ordered strings (session codes).
	// They must never be coerced into the numeric fast path.
	IDKindText
)

// SourceType selects one of the heterogeneous source tables.
type SourceType string

const (
	// SourceTypeAct covers statute sections.
	SourceTypeAct SourceType = "act"
	// SourceTypeRegulation covers regulation sections.
	SourceTypeRegulation SourceType = "regulation"
	// SourceTypeDebate covers parliamentary debate statements.
	SourceTypeDebate SourceType = "debate"
)

// AllSourceTypes lists every ingestable source type in processing order.
var AllSourceTypes = []SourceType{SourceTypeAct, SourceTypeRegulation, SourceTypeDebate}

// Valid reports whether the source type is known.
func (s SourceType) Valid() bool {
	switch s {
	case SourceTypeAct, SourceTypeRegulation, SourceTypeDebate:
		return true
	}
	return false
}

// IDKind returns how ids of this source table order.
// Acts and regulations use integer row ids; debates use
// parliament-session-sitting codes that order lexicographically.
func (s SourceType) IDKind() IDKind {
	if s == SourceTypeDebate {
		return IDKindText
	}
	return IDKindNumeric
}

// ParseSourceType converts a CLI selector into a SourceType.
func ParseSourceType(s string) (SourceType, error) {
	st := SourceType(strings.ToLower(strings.TrimSpace(s)))
	if !st.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedSourceType, s)
	}
	return st, nil
}

// ResourceKey is the composite natural key of one embeddable chunk.
// It is globally unique and doubles as the idempotency key: re-ingesting
// the same key never creates a second resource row.
type ResourceKey struct {
	SourceType SourceType
	SourceID   string
	Language   Language
	ChunkIndex int
}

// String renders the canonical "type:id:lang:index" form used as the
// progress cache key and in logs.
func (k ResourceKey) String() string {
	return string(k.SourceType) + ":" + k.SourceID + ":" + string(k.Language) + ":" + strconv.Itoa(k.ChunkIndex)
}

// Paired returns the key of the same content in the opposite language.
func (k ResourceKey) Paired() ResourceKey {
	k.Language = k.Language.Opposite()
	return k
}

// ParseResourceKey parses the canonical string form produced by String.
// Source ids may not contain ':'.
func ParseResourceKey(s string) (ResourceKey, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 4 {
		return ResourceKey{}, fmt.Errorf("%w: %q", ErrInvalidKey, s)
	}
	st := SourceType(parts[0])
	if !st.Valid() {
		return ResourceKey{}, fmt.Errorf("%w: %q", ErrInvalidKey, s)
	}
	lang := Language(parts[2])
	if !lang.Valid() {
		return ResourceKey{}, fmt.Errorf("%w: %q", ErrInvalidKey, s)
	}
	idx, err := strconv.Atoi(parts[3])
	if err != nil || idx < 0 {
		return ResourceKey{}, fmt.Errorf("%w: %q", ErrInvalidKey, s)
	}
	return ResourceKey{SourceType: st, SourceID: parts[1], Language: lang, ChunkIndex: idx}, nil
}

// MetadataKind tags which variant of Metadata is populated.
type MetadataKind string

const (
	// MetadataKindAct tags statute section metadata.
	MetadataKindAct MetadataKind = "act"
	// MetadataKindRegulation tags regulation section metadata.
	MetadataKindRegulation MetadataKind = "regulation"
	// MetadataKindDebate tags debate statement metadata.
	MetadataKindDebate MetadataKind = "debate"
)

// ActMeta describes one statute section.
type ActMeta struct {
	ActID        string `json:"act_id"`
	ActTitle     string `json:"act_title,omitempty"`
	SectionLabel string `json:"section_label"`
	MarginalNote string `json:"marginal_note,omitempty"`
}

// RegulationMeta describes one regulation section.
type RegulationMeta struct {
	InstrumentID string `json:"instrument_id"`
	SectionLabel string `json:"section_label"`
	EnablingAct  string `json:"enabling_act,omitempty"`
}

// DebateMeta describes one parliamentary statement.
type DebateMeta struct {
	Session string `json:"session"`
	Sitting string `json:"sitting,omitempty"`
	Speaker string `json:"speaker,omitempty"`
	Subject string `json:"subject,omitempty"`
}

// Metadata is a closed tagged variant: Kind selects exactly one of the
// typed fields, with Extra carrying opaque passthrough values that need
// no type-specific handling.
type Metadata struct {
	Kind       MetadataKind      `json:"kind"`
	Act        *ActMeta          `json:"act,omitempty"`
	Regulation *RegulationMeta   `json:"regulation,omitempty"`
	Debate     *DebateMeta       `json:"debate,omitempty"`
	Extra      map[string]string `json:"extra,omitempty"`
}

// Validate checks that the tagged variant carries exactly the field its
// kind announces.
func (m Metadata) Validate() error {
	switch m.Kind {
	case MetadataKindAct:
		if m.Act == nil || m.Regulation != nil || m.Debate != nil {
			return fmt.Errorf("%w: act metadata variant mismatch", ErrInvalidInput)
		}
	case MetadataKindRegulation:
		if m.Regulation == nil || m.Act != nil || m.Debate != nil {
			return fmt.Errorf("%w: regulation metadata variant mismatch", ErrInvalidInput)
		}
	case MetadataKindDebate:
		if m.Debate == nil || m.Act != nil || m.Regulation != nil {
			return fmt.Errorf("%w: debate metadata variant mismatch", ErrInvalidInput)
		}
	default:
		return fmt.Errorf("%w: unknown metadata kind %q", ErrInvalidInput, m.Kind)
	}
	return nil
}

// ContentChunk is one unit of text submitted for embedding, with its
// position within the parent source item.
type ContentChunk struct {
	// Key is the chunk's natural identity.
	Key ResourceKey

	// PairedKey is the key of the same content in the other language,
	// nil when no counterpart exists.
	PairedKey *ResourceKey

	// Title is a short human-readable label for the chunk.
	Title string

	// Content is the normalised text to embed and index.
	Content string

	// ChunkTotal is the number of chunks the parent item was split into.
	ChunkTotal int

	// Metadata carries the source-type-specific fields.
	Metadata Metadata
}

// Resource is one durable searchable unit persisted in the store.
type Resource struct {
	// ID is the store-assigned row id.
	ID int64

	// Key is the natural identity, unique across the store.
	Key ResourceKey

	// PairedKey links to the same content in the opposite language.
	PairedKey *ResourceKey

	// Title is a short human-readable label.
	Title string

	// Content is the normalised text.
	Content string

	// Metadata carries the source-type-specific fields.
	Metadata Metadata

	// EmbeddingModelVersion records which model produced the vector.
	EmbeddingModelVersion string

	// CreatedAt is when the resource was first ingested.
	CreatedAt time.Time

	// RefreshedAt is bumped on every re-ingest of an existing key.
	RefreshedAt time.Time
}

// SourceItem is one row read from a source table, before chunking.
// The content builder collaborator turns it into ContentChunks.
type SourceItem struct {
	// ID is the row id, rendered as a string regardless of id kind.
	ID string

	// SourceType identifies the table the row came from.
	SourceType SourceType

	// Language is the row's language.
	Language Language

	// Title is a short label carried through to the chunks.
	Title string

	// Content is the raw text content.
	Content string

	// CounterpartID is the row id of the same section in the other
	// language, when the source table records one. Empty otherwise.
	CounterpartID string

	// Metadata carries the source-type-specific fields.
	Metadata Metadata
}
