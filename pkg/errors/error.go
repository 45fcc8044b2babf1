// Package errors provides structured error handling with typed error codes.
//
// Error codes are organized into categories:
//   - General errors (1-99): Unknown and general errors
//   - Validation errors (100-199): Malformed configuration, bars, orders and parameters
//   - Data/Resource errors (200-299): Data not found, query failures, unknown series
//   - Indicator errors (300-399): Registration, look-ahead and dependency errors
//   - Strategy errors (400-499): Strategy loading, configuration, and runtime errors
//   - Trading errors (500-599): Order rejections and position management errors
//   - Backtest errors (600-699): Backtesting engine setup and output errors
//   - Callback errors (800-899): Callback execution failures
//
// Validation, registration, look-ahead and cycle errors are fatal: they abort a run and
// carry the offending bar index and call site when known. Per-order failures such as
// insufficient funds or NaN price levels are recorded by the broker and the run continues.
//
// Usage:
//
//	// Create a new error
//	err := errors.New(errors.ErrCodeInvalidParameter, "invalid parameter value")
//
//	// Attach the bar being processed
//	err := errors.New(errors.ErrCodeIndicatorOutOfBounds, "read beyond bar").WithBar(42)
//
//	// Check error code
//	if errors.HasCode(err, errors.ErrCodeInsufficientFunds) { ... }
package errors

import (
	"errors"
	"fmt"
)

// NoBar marks an error that is not associated with a specific bar.
const NoBar = -1

// Error represents a structured error with an error code and message.
type Error struct {
	Code    ErrorCode
	Message string
	Cause   error
	// Bar is the index of the bar being processed when the error occurred, or NoBar.
	Bar int
	// CallSite identifies the user code location that triggered the error, if known.
	CallSite string
}

// New creates a new Error with the given code and message.
func New(code ErrorCode, message string) *Error {
	return &Error{
		Code:     code,
		Message:  message,
		Cause:    nil,
		Bar:      NoBar,
		CallSite: "",
	}
}

// Newf creates a new Error with the given code and formatted message.
func Newf(code ErrorCode, format string, args ...any) *Error {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap wraps an existing error with a new Error containing the given code and message.
func Wrap(code ErrorCode, message string, cause error) *Error {
	err := New(code, message)
	err.Cause = cause

	return err
}

// Wrapf wraps an existing error with a new Error containing the given code and formatted message.
func Wrapf(code ErrorCode, cause error, format string, args ...any) *Error {
	return Wrap(code, fmt.Sprintf(format, args...), cause)
}

// WithBar returns a copy of the error tagged with the given bar index.
func (e *Error) WithBar(bar int) *Error {
	c := *e
	c.Bar = bar

	return &c
}

// WithCallSite returns a copy of the error tagged with the given call site.
func (e *Error) WithCallSite(site string) *Error {
	c := *e
	c.CallSite = site

	return &c
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("[%d] %s", e.Code, e.Message)
	if e.Bar != NoBar {
		msg = fmt.Sprintf("%s (bar %d)", msg, e.Bar)
	}

	if e.CallSite != "" {
		msg = fmt.Sprintf("%s at %s", msg, e.CallSite)
	}

	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}

	return msg
}

// Unwrap returns the underlying error cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether any error in err's chain matches target.
// This is a convenience wrapper around the standard errors.Is function.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
// This is a convenience wrapper around the standard errors.As function.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// GetCode extracts the ErrorCode from an error if it's an *Error type.
// Returns ErrCodeUnknown if the error is not an *Error type.
func GetCode(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}

	return ErrCodeUnknown
}

// HasCode checks if an error has a specific ErrorCode.
func HasCode(err error, code ErrorCode) bool {
	return GetCode(err) == code
}

// GetBar returns the bar index attached to the outermost *Error, or NoBar.
func GetBar(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.Bar
	}

	return NoBar
}

// IsValidation reports whether the error belongs to the validation family (100-199).
func IsValidation(err error) bool {
	code := GetCode(err)

	return code >= 100 && code < 200
}

// IsFatal reports whether the error must abort a backtest run.
// Per-order failures (insufficient funds, NaN price levels, unknown order ids) are not fatal.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}

	switch GetCode(err) {
	case ErrCodeInsufficientFunds, ErrCodeNaNInput, ErrCodeOrderNotFound, ErrCodeOrderFailed:
		return false
	default:
		return true
	}
}
