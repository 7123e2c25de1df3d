package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure so callers can decide between retry and abort
type Kind string

const (
	KindLaunch            Kind = "LAUNCH"
	KindNotInitialized    Kind = "NOT_INITIALIZED"
	KindInvalidInput      Kind = "INVALID_INPUT"
	KindExtractionTimeout Kind = "EXTRACTION_TIMEOUT"
	KindExtraction        Kind = "EXTRACTION"
	KindCellFormat        Kind = "CELL_FORMAT"
	KindMissingColumn     Kind = "MISSING_COLUMN"
	KindTypeConversion    Kind = "TYPE_CONVERSION"
)

// Retryable reports whether a failure of this kind counts as a failed attempt
// rather than a reason to abort the whole run
func (k Kind) Retryable() bool {
	switch k {
	case KindExtractionTimeout, KindExtraction, KindCellFormat, KindMissingColumn, KindTypeConversion:
		return true
	}
	return false
}

// Error is a classified error with an optional underlying cause
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error of the given kind
func New(kind Kind, message string) *Error {
	return &Error{
		Kind:    kind,
		Message: message,
	}
}

// Newf creates a new Error with a formatted message
func Newf(kind Kind, format string, args ...interface{}) *Error {
	return New(kind, fmt.Sprintf(format, args...))
}

// Wrap classifies err as kind. A nil err stays nil.
func Wrap(kind Kind, err error, message string) error {
	if err == nil {
		return nil
	}
	return &Error{
		Kind:    kind,
		Message: message,
		Cause:   err,
	}
}

// Wrapf wraps an error with a formatted message
func Wrapf(kind Kind, err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return Wrap(kind, err, fmt.Sprintf(format, args...))
}

// KindOf returns the kind of the outermost classified error in err's chain
func KindOf(err error) (Kind, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind, true
	}
	return "", false
}

// Is reports whether err carries the given kind
func Is(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
