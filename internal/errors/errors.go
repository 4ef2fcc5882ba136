package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors used to classify failures across the codebase.
// Services mark errors with one of these via the builder's Mark method and
// the HTTP layer maps them to status codes.
var (
	ErrValidation       = errors.New("validation_error")
	ErrNotFound         = errors.New("not_found")
	ErrAlreadyExists    = errors.New("already_exists")
	ErrInvalidOperation = errors.New("invalid_operation")
	ErrPermissionDenied = errors.New("permission_denied")
	ErrDatabase         = errors.New("database_error")
	ErrInternal         = errors.New("internal_error")
)

// InternalError is the concrete error type produced by the builder. It keeps
// the raw cause for logs, a caller-safe hint, and optional structured details
// that are safe to report back to the API caller.
type InternalError struct {
	cause             error
	mark              error
	hint              string
	reportableDetails map[string]interface{}
}

func (e *InternalError) Error() string {
	if e.cause == nil {
		return "unknown error"
	}
	return e.cause.Error()
}

func (e *InternalError) Unwrap() error {
	return e.cause
}

// Is reports whether the error carries the given sentinel mark.
func (e *InternalError) Is(target error) bool {
	if e.mark != nil && errors.Is(e.mark, target) {
		return true
	}
	return errors.Is(e.cause, target)
}

// Hint returns the caller-safe hint, if any.
func (e *InternalError) Hint() string {
	return e.hint
}

// ReportableDetails returns the structured details safe to expose to callers.
func (e *InternalError) ReportableDetails() map[string]interface{} {
	return e.reportableDetails
}

// Mark returns the sentinel this error was marked with, or ErrInternal.
func (e *InternalError) Mark() error {
	if e.mark == nil {
		return ErrInternal
	}
	return e.mark
}

// ErrorBuilder builds an InternalError fluently. The terminal call is Mark,
// which classifies the error and returns it as a plain error.
type ErrorBuilder struct {
	err *InternalError
}

// NewError starts a builder from a message.
func NewError(message string) *ErrorBuilder {
	return &ErrorBuilder{err: &InternalError{cause: errors.New(message)}}
}

// NewErrorf starts a builder from a formatted message.
func NewErrorf(format string, args ...interface{}) *ErrorBuilder {
	return &ErrorBuilder{err: &InternalError{cause: fmt.Errorf(format, args...)}}
}

// WithError starts a builder wrapping an existing error.
func WithError(err error) *ErrorBuilder {
	if err == nil {
		err = errors.New("unknown error")
	}
	return &ErrorBuilder{err: &InternalError{cause: err}}
}

// WithHint attaches a caller-safe hint.
func (b *ErrorBuilder) WithHint(hint string) *ErrorBuilder {
	b.err.hint = hint
	return b
}

// WithHintf attaches a formatted caller-safe hint.
func (b *ErrorBuilder) WithHintf(format string, args ...interface{}) *ErrorBuilder {
	b.err.hint = fmt.Sprintf(format, args...)
	return b
}

// WithReportableDetails attaches structured details safe to return to callers.
func (b *ErrorBuilder) WithReportableDetails(details map[string]interface{}) *ErrorBuilder {
	b.err.reportableDetails = details
	return b
}

// Mark classifies the error with a sentinel and finalizes the builder.
func (b *ErrorBuilder) Mark(sentinel error) error {
	b.err.mark = sentinel
	return b.err
}

func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

func IsInvalidOperation(err error) bool {
	return errors.Is(err, ErrInvalidOperation)
}

func IsPermissionDenied(err error) bool {
	return errors.Is(err, ErrPermissionDenied)
}

func IsDatabase(err error) bool {
	return errors.Is(err, ErrDatabase)
}
