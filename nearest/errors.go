package nearest

import "errors"

var (
	// ErrNilDB is returned when a table has no database handle.
	ErrNilDB = errors.New("nearest: db is nil")
	// ErrDatasetRequired is returned for plans without a dataset_id equality.
	ErrDatasetRequired = errors.New("nearest: dataset_id constraint required")
	// ErrInvalidMatch is returned for MATCH arguments that do not decode to a point.
	ErrInvalidMatch = errors.New("nearest: invalid MATCH argument")
)
