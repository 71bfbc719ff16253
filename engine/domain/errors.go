package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors. Every typed error below unwraps to one of these.
var (
	ErrConnectivity        = errors.New("store unreachable or credentials rejected")
	ErrUnknownType         = errors.New("unknown type")
	ErrUnknownValue        = errors.New("unknown value")
	ErrIncompleteSelection = errors.New("incomplete selection")
	ErrStoreUnavailable    = errors.New("store unavailable")
	ErrInvalidName         = errors.New("invalid name")
	ErrNotConnected        = errors.New("not connected")
	ErrBusy                = errors.New("sync already in progress")
)

// ConnectivityError reports a failed connect attempt.
type ConnectivityError struct {
	URI string
	Err error
}

func (e *ConnectivityError) Error() string {
	return fmt.Sprintf("connect %s: %v", e.URI, e.Err)
}

func (e *ConnectivityError) Unwrap() []error { return []error{ErrConnectivity, e.Err} }

// UnknownTypeError reports use of a type that was never registered.
type UnknownTypeError struct {
	Kind Kind
	Type string
}

func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("%s: %s type %q", ErrUnknownType, e.Kind, e.Type)
}

func (e *UnknownTypeError) Unwrap() error { return ErrUnknownType }

// UnknownValueError reports selection of a value not present under its type.
type UnknownValueError struct {
	Kind  Kind
	Type  string
	Value string
}

func (e *UnknownValueError) Error() string {
	return fmt.Sprintf("%s: %q under %s type %q", ErrUnknownValue, e.Value, e.Kind, e.Type)
}

func (e *UnknownValueError) Unwrap() error { return ErrUnknownValue }

// IncompleteSelectionError names the first slot that cannot be expanded.
type IncompleteSelectionError struct {
	Slot    Slot
	Missing string // "type" or "values"
}

func (e *IncompleteSelectionError) Error() string {
	return fmt.Sprintf("%s: %s has no %s", ErrIncompleteSelection, e.Slot, e.Missing)
}

func (e *IncompleteSelectionError) Unwrap() error { return ErrIncompleteSelection }

// StoreError wraps a failed store operation.
type StoreError struct {
	Op   string
	Type string
	Err  error
}

func (e *StoreError) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("store %s %q: %v", e.Op, e.Type, e.Err)
	}
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() []error { return []error{ErrStoreUnavailable, e.Err} }

// NewStoreError returns nil when err is nil and passes an existing
// StoreError through unchanged.
func NewStoreError(op, typ string, err error) error {
	if err == nil {
		return nil
	}
	var se *StoreError
	if errors.As(err, &se) {
		return err
	}
	return &StoreError{Op: op, Type: typ, Err: err}
}

// ValidationError wraps a sentinel with context.
type ValidationError struct {
	Field   string
	Value   string
	Wrapped error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s: %s (value=%q)", e.Wrapped, e.Field, e.Value)
}

func (e *ValidationError) Unwrap() error { return e.Wrapped }

// NewValidationError creates a ValidationError.
func NewValidationError(field, value string, wrapped error) *ValidationError {
	return &ValidationError{Field: field, Value: value, Wrapped: wrapped}
}
