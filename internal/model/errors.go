package model

import (
	"errors"
	"fmt"
)

var (
	ErrNotReady     = errors.New("service not ready")
	ErrInvalidQuery = errors.New("invalid query")
	ErrFetch        = errors.New("upstream fetch failed")
)

// ValidationError reports a malformed upstream item.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
}

// NewValidationError creates a new validation error
func NewValidationError(field, message string) ValidationError {
	return ValidationError{Field: field, Message: message}
}

// FetchError wraps any failure of the upstream fetch: transport, status,
// timeout or payload. The refresh loop does not distinguish the subtypes.
type FetchError struct {
	Op  string
	Err error
}

func (e *FetchError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("fetch %s failed", e.Op)
	}
	return fmt.Sprintf("fetch %s: %v", e.Op, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

func (e *FetchError) Is(target error) bool { return target == ErrFetch }

// NewFetchError wraps err as a FetchError. A FetchError passed in is returned as is.
func NewFetchError(op string, err error) error {
	var fe *FetchError
	if errors.As(err, &fe) {
		return err
	}
	return &FetchError{Op: op, Err: err}
}

// IsFetchError checks if an error is a FetchError (including wrapped errors)
func IsFetchError(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe)
}

// NotReadyError is returned by reads issued before the first successful refresh.
type NotReadyError struct {
	Reason string
}

func (e NotReadyError) Error() string {
	if e.Reason == "" {
		return ErrNotReady.Error()
	}
	return fmt.Sprintf("%s: %s", ErrNotReady.Error(), e.Reason)
}

func (e NotReadyError) Is(target error) bool { return target == ErrNotReady }

// NewNotReadyError constructs NotReadyError
func NewNotReadyError(reason string) NotReadyError {
	return NotReadyError{Reason: reason}
}

// IsNotReadyError checks if err is NotReadyError
func IsNotReadyError(err error) bool {
	var ne NotReadyError
	return errors.As(err, &ne)
}

// InvalidQueryError reports a search parameter outside its allowed range.
type InvalidQueryError struct {
	Field   string
	Message string
}

func (e InvalidQueryError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func (e InvalidQueryError) Is(target error) bool { return target == ErrInvalidQuery }

// NewInvalidQueryError constructs InvalidQueryError
func NewInvalidQueryError(field, message string) InvalidQueryError {
	return InvalidQueryError{Field: field, Message: message}
}

// IsInvalidQueryError checks if err is InvalidQueryError
func IsInvalidQueryError(err error) bool {
	var qe InvalidQueryError
	return errors.As(err, &qe)
}
