package knn

import "errors"

var (
	// ErrInvalidCapacity is returned by New when k < 1.
	ErrInvalidCapacity = errors.New("knn: capacity must be at least 1")
	// ErrInvalidDistance is returned by Consider for negative, NaN or infinite distances.
	ErrInvalidDistance = errors.New("knn: distance must be finite and non-negative")
	// ErrUseAfterExtract is returned when a set is used after Extract.
	ErrUseAfterExtract = errors.New("knn: set used after extract")
)
