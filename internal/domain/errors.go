package domain

import "errors"

var (
	// ErrValidation signals rejected input (file too large, unsupported type, missing field).
	ErrValidation = errors.New("validation failed")
	// ErrExtraction signals a text extraction failure.
	ErrExtraction = errors.New("text extraction failed")
	// ErrEmbedding signals an embedding provider failure.
	ErrEmbedding = errors.New("embedding provider error")
	// ErrCompletion signals a completion provider failure.
	ErrCompletion = errors.New("completion provider error")
	// ErrStorage signals an index persistence failure.
	ErrStorage = errors.New("storage error")
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
)
