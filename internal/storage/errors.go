package storage

import "errors"

// Sentinel errors for the storage package. Using sentinels instead of ad-hoc
// fmt.Errorf allows callers to match with errors.Is for reliable error handling.
var (
	// ErrNameRequired is returned when a result dump is attempted without a name.
	ErrNameRequired = errors.New("result dump name is required")

	// ErrEmptyResultsFile is returned when a results file has no content.
	ErrEmptyResultsFile = errors.New("empty results file")
)
