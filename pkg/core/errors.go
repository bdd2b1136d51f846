package core

import (
	"errors"
	"fmt"
)

// Common errors.
var (
	// ErrNotConnected is returned when an operation needs a live session
	// and the connection manager cannot provide one.
	ErrNotConnected = errors.New("database not connected")

	// ErrNoDocuments is the sentinel engines return for single-document
	// reads that match nothing. The typed layer translates it into either
	// a nil result or a NotFoundError.
	ErrNoDocuments = errors.New("no documents in result")
)

// ValidationError reports input that was rejected by the repository's
// validator. It is raised before any storage call, so a failed write
// never leaves partial state behind.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %v", e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// NotFoundError reports an expected-presence read that matched nothing.
// It carries the originating filter for diagnostics.
type NotFoundError struct {
	Collection string
	Filter     Filter
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("document not found in %q (filter: %v)", e.Collection, e.Filter)
}

func (e *NotFoundError) Unwrap() error { return ErrNoDocuments }

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsNotFound reports whether err is (or wraps) a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
