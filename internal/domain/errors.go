package domain

import "errors"

var (
	// ErrEmptyQuestion signals an empty or whitespace-only question.
	ErrEmptyQuestion = errors.New("question cannot be empty")
	// ErrMissingField signals a match record field required by the summary template is absent.
	ErrMissingField = errors.New("missing required field")
	// ErrDimensionMismatch signals a vector whose width differs from the index dimension.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
	// ErrIndexNotFound signals a missing index artifact.
	ErrIndexNotFound = errors.New("index not found")
	// ErrIndexMisaligned signals that the vector index and the metadata table disagree on row order.
	ErrIndexMisaligned = errors.New("index and metadata misaligned")
	// ErrEmbeddingProviderError signals an upstream embedding API failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
)
