package services

import (
	"github.com/abrezinsky/courtboard/internal/errors"
	"github.com/abrezinsky/courtboard/internal/match"
)

// Service errors
var (
	ErrConfirmationRequired = errors.ConfirmationRequired("this operation must be confirmed")
	ErrCourtNotFound        = errors.NotFound("court not found")
	ErrInvalidSide          = errors.Validation("side must be A, B, left or right")
	ErrNoTablesSpecified    = errors.Validation("no tables specified")
	ErrBaseURLNotConfigured = errors.Validation("base_url not configured")

	ErrTiedSet      = match.ErrTiedSet
	ErrEmptyName    = match.ErrEmptyName
	ErrNameTooLong  = match.ErrNameTooLong
	ErrUnknownField = match.ErrUnknownField
)

// InvalidTableError represents an invalid table name error
type InvalidTableError struct {
	Table string
}

func (e *InvalidTableError) Error() string {
	return "invalid table name: " + e.Table
}
