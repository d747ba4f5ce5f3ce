package schema

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a remote failure.
type Kind string

const (
	// KindConflict is returned when the entity already exists.
	KindConflict Kind = "conflict"
	// KindNotFound is returned when the entity does not exist.
	KindNotFound Kind = "not_found"
	// KindValidation is returned when the remote service rejects a definition,
	// including an index over an attribute that is not yet available.
	KindValidation Kind = "validation"
	// KindService covers network failures, timeouts and unexpected remote errors.
	KindService Kind = "service"
)

// Error is the failure surface of every Client call.
type Error struct {
	Kind    Kind
	Status  int    // HTTP status, 0 for transport failures
	Type    string // remote machine-readable error type
	Message string // remote human-readable message
	Op      string
	Err     error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(string(e.Kind))
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	} else if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	if e.Status != 0 {
		fmt.Fprintf(&b, " (status %d", e.Status)
		if e.Type != "" {
			b.WriteString(", ")
			b.WriteString(e.Type)
		}
		b.WriteString(")")
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates an Error of the given kind.
func NewError(kind Kind, op, message string) *Error {
	return &Error{Kind: kind, Op: op, Message: message}
}

// KindOf classifies any error. Context cancellation, deadlines and errors
// that are not an *Error are service failures.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindService
}

// IsConflict reports whether err is a Conflict.
func IsConflict(err error) bool {
	return err != nil && KindOf(err) == KindConflict
}

// IsNotFound reports whether err is a NotFound.
func IsNotFound(err error) bool {
	return err != nil && KindOf(err) == KindNotFound
}

// IsCanceled returns true if the error is due to context cancellation or deadline exceeded.
func IsCanceled(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// Message returns the remote message of err, or err.Error() when there is none.
func Message(err error) string {
	var se *Error
	if errors.As(err, &se) && se.Message != "" {
		return se.Message
	}
	return err.Error()
}
