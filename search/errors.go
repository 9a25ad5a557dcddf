package search

import "errors"

var (
	// ErrNilIndex is returned when a Searcher is created without an index.
	ErrNilIndex = errors.New("search: index is nil")
	// ErrUnknownKind is returned for unsupported index kinds.
	ErrUnknownKind = errors.New("search: unknown index kind")
	// ErrInvalidRadius is returned for negative or NaN radius limits.
	ErrInvalidRadius = errors.New("search: radius must be non-negative")
)
