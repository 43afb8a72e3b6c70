// Package modsum ties together the GUID, summary, indexer, serialize,
// merge and liveness packages behind the error taxonomy and structured
// logging shared across the cross-module dead-symbol eliminator.
package modsum

import (
	"errors"
	"fmt"

	"github.com/hupe1980/modsum/guid"
)

// Input errors: recovered as a process exit with a diagnostic.
var (
	ErrNoInputs     = errors.New("no input files given")
	ErrInputMissing = errors.New("input file missing")
)

// FormatError is a fatal error raised while decoding a .modsum file:
// wrong magic, truncated block, unknown record code, out-of-order
// records, or a kind value out of range.
//
// The error string always begins with "Invalid module summary" per the
// fixed diagnostic the format requires.
type FormatError struct {
	Reason string
	cause  error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("Invalid module summary: %s", e.Reason)
}

func (e *FormatError) Unwrap() error { return e.cause }

// NewFormatError builds a FormatError with an optional wrapped cause.
func NewFormatError(reason string, cause error) *FormatError {
	return &FormatError{Reason: reason, cause: cause}
}

// MergeError is a fatal error raised when two modules define the same
// GUID with conflicting definitions.
type MergeError struct {
	GUID  guid.GUID
	Name  string
	cause error
}

func (e *MergeError) Error() string {
	return fmt.Sprintf("duplicate symbol %q (%s) defined by more than one module", e.Name, e.GUID)
}

func (e *MergeError) Unwrap() error { return e.cause }

// InternalError is a fatal abort raised when an algorithmic invariant is
// violated: a reachable Call references a GUID absent from the merged
// index, or a key-path component refers to a method outside a class or
// protocol context.
type InternalError struct {
	Reason string
	cause  error
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("internal invariant violated: %s", e.Reason)
}

func (e *InternalError) Unwrap() error { return e.cause }

// NewInternalError builds an InternalError with an optional wrapped cause.
func NewInternalError(reason string, cause error) *InternalError {
	return &InternalError{Reason: reason, cause: cause}
}

// IsFormatError reports whether err is or wraps a FormatError.
func IsFormatError(err error) bool {
	var fe *FormatError
	return errors.As(err, &fe)
}

// IsMergeError reports whether err is or wraps a MergeError.
func IsMergeError(err error) bool {
	var me *MergeError
	return errors.As(err, &me)
}

// IsInternalError reports whether err is or wraps an InternalError.
func IsInternalError(err error) bool {
	var ie *InternalError
	return errors.As(err, &ie)
}
