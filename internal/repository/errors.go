package repository

import "errors"

// ErrNotFound is returned when a requested record is not found in the repository.
// Callers treat it as "nothing stored yet" rather than a failure.
var ErrNotFound = errors.New("record not found")

// ErrInvalidTable is returned when attempting to clear a table that is not whitelisted.
var ErrInvalidTable = errors.New("invalid table name")
