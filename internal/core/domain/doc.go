// Package domain defines the core business entities for Lexindex.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - ResourceKey: The natural key of one embeddable chunk
//   - ContentChunk: A unit of text ready for embedding
//   - Resource: A durable searchable unit with its metadata
//   - DefinedTerm: A legal term definition with a cross-language link
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
