package repository

import "errors"

// Storage-level sentinel errors. The service layer maps these onto its own
// error taxonomy; handlers never see them directly.
var (
	// ErrNotFound is returned when a requested row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicate is returned when an insert hits a uniqueness constraint,
	// e.g. a second like for the same ordered pet pair.
	ErrDuplicate = errors.New("duplicate row")
)
