package services_test

import (
	"strings"
	"testing"

	apperrors "github.com/abrezinsky/courtboard/internal/errors"
	"github.com/abrezinsky/courtboard/internal/services"
)

func TestInvalidTableError_Error(t *testing.T) {
	err := &services.InvalidTableError{Table: "bad_table"}

	result := err.Error()

	if !strings.Contains(result, "bad_table") {
		t.Errorf("expected error to contain 'bad_table', got %q", result)
	}
	if !strings.Contains(result, "invalid table") {
		t.Errorf("expected error to mention 'invalid table', got %q", result)
	}
}

func TestPredefinedErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		kind     apperrors.Kind
		contains string
	}{
		{"ErrConfirmationRequired", services.ErrConfirmationRequired, apperrors.ErrConfirmation, "confirm"},
		{"ErrCourtNotFound", services.ErrCourtNotFound, apperrors.ErrNotFound, "court"},
		{"ErrInvalidSide", services.ErrInvalidSide, apperrors.ErrValidation, "side"},
		{"ErrNoTablesSpecified", services.ErrNoTablesSpecified, apperrors.ErrValidation, "tables"},
		{"ErrBaseURLNotConfigured", services.ErrBaseURLNotConfigured, apperrors.ErrValidation, "base_url"},
		{"ErrTiedSet", services.ErrTiedSet, apperrors.ErrValidation, "tied"},
		{"ErrNothingPublished", services.ErrNothingPublished, apperrors.ErrNotFound, "not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			if !strings.Contains(strings.ToLower(msg), tt.contains) {
				t.Errorf("expected error message to contain %q, got %q", tt.contains, msg)
			}
			if !apperrors.IsKind(tt.err, tt.kind) {
				t.Errorf("expected kind %d", tt.kind)
			}
		})
	}
}
