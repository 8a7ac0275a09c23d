package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidKey indicates a resource key that cannot be parsed.
	ErrInvalidKey = errors.New("invalid resource key")

	// ErrInvalidLanguage indicates an unknown language code on a record.
	// This is a per-item data-quality error, never fatal to a run.
	ErrInvalidLanguage = errors.New("invalid language code")

	// ErrInvalidCursor indicates a resume cursor that does not match the
	// id kind of the source table it is applied to.
	ErrInvalidCursor = errors.New("invalid cursor")

	// ErrUnsupportedSourceType indicates an unknown source table selector.
	ErrUnsupportedSourceType = errors.New("unsupported source type")

	// ErrFilteredCursorResume indicates a filtered run was asked to trust
	// the global cursor. Id ranges for different filter values overlap, so
	// resuming a filtered run from a global maximum can skip rows.
	ErrFilteredCursorResume = errors.New("filtered runs must resume via cache check, not the global cursor")

	// ErrContentOversize indicates a chunk exceeds the embedding character
	// budget. Oversize chunks are dropped, never silently truncated.
	ErrContentOversize = errors.New("content exceeds embedding size budget")

	// ErrVectorDimension indicates an embedding with the wrong dimensionality.
	ErrVectorDimension = errors.New("unexpected embedding dimension")

	// ErrVectorNotFinite indicates an embedding containing NaN or Inf values.
	ErrVectorNotFinite = errors.New("embedding contains non-finite values")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrTermAlreadyLinked indicates an attempt to overwrite an existing
	// term pairing. Links are written at most once.
	ErrTermAlreadyLinked = errors.New("term already linked")

	// ErrRetryExhausted indicates an operation failed after all retry attempts.
	ErrRetryExhausted = errors.New("retry attempts exhausted")
)
