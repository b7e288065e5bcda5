package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorType represents different types of errors that can occur while driving the portal
type ErrorType string

const (
	ErrorTypeNavigation  ErrorType = "navigation"
	ErrorTypeInteraction ErrorType = "interaction"
	ErrorTypeSession     ErrorType = "session"
	ErrorTypePagination  ErrorType = "pagination"
	ErrorTypeCheckpoint  ErrorType = "checkpoint"
	ErrorTypeConfig      ErrorType = "config"
	ErrorTypeUnknown     ErrorType = "unknown"
)

// Error represents a portal automation error with type information
type Error struct {
	Type    ErrorType
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s error", e.Type)
	if e.Op != "" {
		msg += " in " + e.Op
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error of the same type and message, so sentinels work with errors.Is
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Type == e.Type && t.Message == e.Message && (t.Op == "" || t.Op == e.Op)
}

// New creates an error of the given type
func New(errorType ErrorType, op, message string) *Error {
	return &Error{Type: errorType, Op: op, Message: message}
}

// Wrap annotates err with a type and operation. A nil err yields nil.
func Wrap(err error, errorType ErrorType, op string) error {
	if err == nil {
		return nil
	}
	return &Error{Type: errorType, Op: op, Err: err}
}

// TypeOf returns the type of the outermost *Error in the chain, or ErrorTypeUnknown
func TypeOf(err error) ErrorType {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Type
	}
	return ErrorTypeUnknown
}

// IsType reports whether any *Error in the chain has the given type
func IsType(err error, errorType ErrorType) bool {
	for err != nil {
		var e *Error
		if !stderrors.As(err, &e) {
			return false
		}
		if e.Type == errorType {
			return true
		}
		err = e.Err
	}
	return false
}

// IsRetryable checks if an error type should be retried
func IsRetryable(errorType ErrorType) bool {
	switch errorType {
	case ErrorTypeNavigation, ErrorTypeInteraction:
		return true
	case ErrorTypeSession, ErrorTypePagination, ErrorTypeCheckpoint, ErrorTypeConfig:
		return false
	default:
		return false
	}
}

// IsRetryableError checks the type carried by err
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}
	return IsRetryable(TypeOf(err))
}
