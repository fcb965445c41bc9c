package domain

import (
	"errors"
	"fmt"
)

// Error kinds, matched with errors.Is.
var (
	ErrInvalidMatch    = errors.New("invalid match")
	ErrIndexOutOfRange = errors.New("index out of range")
	ErrPlayerNotFound  = errors.New("player not found")
	ErrInvalidPlayer   = errors.New("invalid player")
	ErrInvalidDocument = errors.New("invalid document")
	ErrStorage         = errors.New("storage error")
	ErrUnsupported     = errors.New("unsupported operation")
)

// Error carries the failing operation alongside its kind.
type Error struct {
	Op      string
	Kind    error
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *Error) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

func (e *Error) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	return e.Err != nil && errors.Is(e.Err, target)
}

func NewError(op string, kind error, format string, args ...any) *Error {
	return &Error{Op: op, Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func WrapError(op string, kind error, message string, err error) *Error {
	return &Error{Op: op, Kind: kind, Message: message, Err: err}
}

// StorageError wraps a persistence failure so callers can report it as such
// while keeping the original cause reachable.
func StorageError(op string, err error) error {
	if err == nil {
		return nil
	}
	return WrapError(op, ErrStorage, "storage failure", err)
}
