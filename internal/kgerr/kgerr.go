// Package kgerr defines the error kinds reported by the knowledge engine.
// Callers match kinds with errors.Is against the exported sentinels.
package kgerr

import (
	"errors"
	"fmt"
)

// Error kinds.
var (
	ErrInvalidSymbol        = errors.New("invalid symbol")
	ErrDimensionMismatch    = errors.New("dimension mismatch")
	ErrEmptyBundle          = errors.New("empty bundle")
	ErrInitializationFailed = errors.New("initialization failed")
	ErrIndexUnavailable     = errors.New("index unavailable")
	ErrPersistenceFailure   = errors.New("persistence failure")
	ErrSymbolNotFound       = errors.New("symbol not found")
)

// Error attaches the failing operation and an optional cause to an error kind.
type Error struct {
	Op   string
	Kind error
	Err  error
}

// New returns an *Error for op with the given kind and cause (which may be nil).
func New(op string, kind, cause error) *Error {
	return &Error{Op: op, Kind: kind, Err: cause}
}

func (e *Error) Error() string {
	switch {
	case e.Op == "" && e.Err == nil:
		return e.Kind.Error()
	case e.Err == nil:
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	case e.Op == "":
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	default:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	}
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Dimension builds a DimensionMismatch error naming both widths.
func Dimension(op string, want, got int) *Error {
	return New(op, ErrDimensionMismatch, fmt.Errorf("expected %d, got %d", want, got))
}

// Kind returns the sentinel kind carried by err, or nil when err carries none.
func Kind(err error) error {
	for _, k := range []error{
		ErrInvalidSymbol,
		ErrDimensionMismatch,
		ErrEmptyBundle,
		ErrInitializationFailed,
		ErrIndexUnavailable,
		ErrPersistenceFailure,
		ErrSymbolNotFound,
	} {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}

// IsInvalidInput reports whether err was caused by caller-supplied data rather
// than engine state.
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidSymbol) ||
		errors.Is(err, ErrDimensionMismatch) ||
		errors.Is(err, ErrEmptyBundle)
}
