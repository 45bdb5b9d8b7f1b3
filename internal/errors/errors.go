// Package errors provides structured error types for the walbench harness.
// All errors include a category, code, message, and retryable flag for
// consistent error handling across components.
package errors

import (
	"errors"
	"fmt"

	sqlite3 "github.com/mattn/go-sqlite3"
)

// ErrorCategory classifies errors by harness component.
type ErrorCategory string

const (
	ErrCategorySession  ErrorCategory = "SESSION"
	ErrCategoryWorkload ErrorCategory = "WORKLOAD"
	ErrCategoryReport   ErrorCategory = "REPORT"
	ErrCategoryStorage  ErrorCategory = "STORAGE"
	ErrCategoryInternal ErrorCategory = "INTERNAL"
)

// Error codes for each category.
const (
	// Session codes
	CodeSessionOpenFailed = "SESSION_OPEN_FAILED"
	CodeSchemaInitFailed  = "SCHEMA_INIT_FAILED"
	CodeSessionClosed     = "SESSION_CLOSED"

	// Workload codes
	CodeWriteBusy = "WRITE_BUSY"
	CodeWriteIO   = "WRITE_IO"

	// Report codes
	CodeEncodeFailed = "ENCODE_FAILED"
	CodeWriteFailed  = "WRITE_FAILED"

	// Storage codes
	CodeArchiveFailed = "ARCHIVE_FAILED"

	// Internal codes
	CodeUnexpected = "UNEXPECTED"
)

// BenchError is the structured error type used throughout the harness.
type BenchError struct {
	Category  ErrorCategory
	Code      string
	Message   string
	Cause     error
	Retryable bool
}

// Error returns a formatted error string.
func (e *BenchError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s:%s] %s: %v", e.Category, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Category, e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *BenchError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target matches this error's category and code.
func (e *BenchError) Is(target error) bool {
	var t *BenchError
	if errors.As(target, &t) {
		return e.Category == t.Category && e.Code == t.Code
	}
	return false
}

// New creates a new BenchError.
func New(category ErrorCategory, code, message string) *BenchError {
	return &BenchError{
		Category:  category,
		Code:      code,
		Message:   message,
		Retryable: isRetryable(category, code),
	}
}

// Wrap creates a new BenchError wrapping an existing error.
func Wrap(category ErrorCategory, code, message string, cause error) *BenchError {
	return &BenchError{
		Category:  category,
		Code:      code,
		Message:   message,
		Cause:     cause,
		Retryable: isRetryable(category, code),
	}
}

// IsRetryable checks whether an error (or its chain) is retryable.
func IsRetryable(err error) bool {
	var be *BenchError
	if errors.As(err, &be) {
		return be.Retryable
	}
	return false
}

// GetCategory extracts the error category from an error chain.
// Returns empty string if the error is not a BenchError.
func GetCategory(err error) ErrorCategory {
	var be *BenchError
	if errors.As(err, &be) {
		return be.Category
	}
	return ""
}

// GetCode extracts the error code from an error chain.
// Returns empty string if the error is not a BenchError.
func GetCode(err error) string {
	var be *BenchError
	if errors.As(err, &be) {
		return be.Code
	}
	return ""
}

// IsBusy reports whether err represents a write rejected because the engine's
// writer lock was held elsewhere. Both SQLITE_BUSY and SQLITE_LOCKED count:
// BUSY means another connection holds the lock, LOCKED means a shared-cache
// conflict on the same connection. Busy is the expected, measured outcome
// under contention, not a harness failure.
func IsBusy(err error) bool {
	var be *BenchError
	if errors.As(err, &be) && be.Category == ErrCategoryWorkload && be.Code == CodeWriteBusy {
		return true
	}
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.Code == sqlite3.ErrBusy || se.Code == sqlite3.ErrLocked
	}
	return false
}

// isRetryable determines if an error code is retryable.
func isRetryable(category ErrorCategory, code string) bool {
	switch {
	case category == ErrCategoryWorkload && code == CodeWriteBusy:
		return true
	case category == ErrCategoryStorage && code == CodeArchiveFailed:
		return true
	default:
		return false
	}
}

// Convenience constructors for common errors.

func NewSessionError(code, message string, cause error) *BenchError {
	return Wrap(ErrCategorySession, code, message, cause)
}

// ClassifyWriteError turns a raw driver error into a WORKLOAD error,
// distinguishing Busy rejections from unexpected I/O failures.
func ClassifyWriteError(err error) *BenchError {
	if IsBusy(err) {
		return Wrap(ErrCategoryWorkload, CodeWriteBusy, "write rejected: database busy", err)
	}
	return Wrap(ErrCategoryWorkload, CodeWriteIO, "write failed", err)
}

func NewReportError(code, message string, cause error) *BenchError {
	return Wrap(ErrCategoryReport, code, message, cause)
}

func NewStorageError(message string, cause error) *BenchError {
	return Wrap(ErrCategoryStorage, CodeArchiveFailed, message, cause)
}

func NewInternalError(message string, cause error) *BenchError {
	return Wrap(ErrCategoryInternal, CodeUnexpected, message, cause)
}
