package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Configuration errors - fail fast, no retry
	ErrConfig               = errors.New("invalid configuration")
	ErrUnknownModelKind     = fmt.Errorf("%w: unknown model kind", ErrConfig)
	ErrStratifyColumnAbsent = fmt.Errorf("%w: stratify column absent", ErrConfig)
	ErrUnknownTestKind      = fmt.Errorf("%w: unknown test kind", ErrConfig)

	// Data errors - the affected task halts, other tasks may continue
	ErrData             = errors.New("data error")
	ErrSchemaMismatch   = fmt.Errorf("%w: feature schema mismatch", ErrData)
	ErrColumnNotFound   = fmt.Errorf("%w: column not found", ErrData)
	ErrEmptyFrame       = fmt.Errorf("%w: empty frame", ErrData)
	ErrInsufficientData = fmt.Errorf("%w: insufficient data for analysis", ErrData)
	ErrAllMissing       = fmt.Errorf("%w: column is entirely missing", ErrData)

	// Model errors
	ErrNotFitted = errors.New("model not fitted")
)

// Error constructors with context

func NewConfigError(field string, reason string) error {
	return fmt.Errorf("%w: %s: %s", ErrConfig, field, reason)
}

func NewSchemaMismatchError(want, got int) error {
	return fmt.Errorf("%w: trained on %d columns, got %d", ErrSchemaMismatch, want, got)
}

func NewColumnNotFoundError(name string) error {
	return fmt.Errorf("%w: %q", ErrColumnNotFound, name)
}

// Error checking helpers

func IsConfigError(err error) bool {
	return errors.Is(err, ErrConfig)
}

func IsDataError(err error) bool {
	return errors.Is(err, ErrData)
}
