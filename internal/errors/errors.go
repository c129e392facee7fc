package errors

import (
	stderrors "errors"
	"fmt"
)

type ErrorType string

const (
	ErrorTypeNotFound           ErrorType = "NOT_FOUND"
	ErrorTypeNothingToCommit    ErrorType = "NOTHING_TO_COMMIT"
	ErrorTypeUncommittedChanges ErrorType = "UNCOMMITTED_CHANGES"
	ErrorTypeUnstagedChanges    ErrorType = "UNSTAGED_CHANGES"
	ErrorTypeInvalidInput       ErrorType = "INVALID_INPUT"
	ErrorTypeInternal           ErrorType = "INTERNAL"
)

type Error struct {
	Type    ErrorType `json:"type"`
	Message string    `json:"message"`
	Details any       `json:"details,omitempty"`
}

func (e *Error) Error() string {
	return e.Message
}

// Is matches any *Error of the same Type, so the sentinels below work with
// errors.Is regardless of message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Type == e.Type
}

var (
	ErrNotFound           = &Error{Type: ErrorTypeNotFound, Message: "not found"}
	ErrNothingToCommit    = &Error{Type: ErrorTypeNothingToCommit, Message: "nothing to commit"}
	ErrUncommittedChanges = &Error{Type: ErrorTypeUncommittedChanges, Message: "uncommitted changes"}
	ErrUnstagedChanges    = &Error{Type: ErrorTypeUnstagedChanges, Message: "unstaged changes"}
	ErrInvalidInput       = &Error{Type: ErrorTypeInvalidInput, Message: "invalid input"}
	ErrInternal           = &Error{Type: ErrorTypeInternal, Message: "internal error"}
)

func NotFound(format string, args ...any) *Error {
	return &Error{
		Type:    ErrorTypeNotFound,
		Message: fmt.Sprintf(format, args...),
	}
}

func NothingToCommit(message string) *Error {
	return &Error{
		Type:    ErrorTypeNothingToCommit,
		Message: message,
	}
}

func UncommittedChanges(message string) *Error {
	return &Error{
		Type:    ErrorTypeUncommittedChanges,
		Message: message,
	}
}

func UnstagedChanges(message string) *Error {
	return &Error{
		Type:    ErrorTypeUnstagedChanges,
		Message: message,
	}
}

func InvalidInput(message string, details any) *Error {
	return &Error{
		Type:    ErrorTypeInvalidInput,
		Message: message,
		Details: details,
	}
}

func Internal(message string, details any) *Error {
	return &Error{
		Type:    ErrorTypeInternal,
		Message: message,
		Details: details,
	}
}

// TypeOf returns the category of the first *Error in err's chain, or "" if
// there is none.
func TypeOf(err error) ErrorType {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Type
	}
	return ""
}

func IsType(err error, t ErrorType) bool {
	return TypeOf(err) == t
}
