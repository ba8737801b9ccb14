package app

import "errors"

// ErrNotFound and related errors describe store and lookup failures.
var (
	ErrNotFound        = errors.New("not found")
	ErrVersionConflict = errors.New("version conflict")
	ErrMissingData     = errors.New("missing journal data")
)
