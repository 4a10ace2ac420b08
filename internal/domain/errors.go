package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Callers match them with errors.Is.
var (
	// ErrInvalidArgument marks caller errors: malformed input, bad enum
	// values, non-positive quantities, dates out of order.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrNotFound is an invalid argument naming a project, task or worker
	// that does not exist.
	ErrNotFound = fmt.Errorf("%w: not found", ErrInvalidArgument)

	// ErrConflict marks well-formed requests the current state forbids.
	ErrConflict = errors.New("conflict")
	// ErrUnavailable is the conflict raised when no worker can take a task.
	ErrUnavailable = fmt.Errorf("%w: no worker available", ErrConflict)
	// ErrFinalized is the conflict raised on any mutation of a finalized project.
	ErrFinalized = fmt.Errorf("%w: project finalized", ErrConflict)

	// ErrInvariant marks attempts that would break a state invariant, such
	// as finalizing a project with unfinished tasks.
	ErrInvariant = errors.New("state invariant violated")
)

// Error carries one of the kinds above plus a message for humans.
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Msg == "" {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%s: %s", e.Kind.Error(), e.Msg)
}

func (e *Error) Unwrap() error { return e.Kind }

func invalidf(format string, args ...any) error {
	return &Error{Kind: ErrInvalidArgument, Msg: fmt.Sprintf(format, args...)}
}

func conflictf(format string, args ...any) error {
	return &Error{Kind: ErrConflict, Msg: fmt.Sprintf(format, args...)}
}

// Errorf builds an Error of the given kind.
func Errorf(kind error, format string, args ...any) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}
