// Package errs defines the error classes of the assessment core.
// Handlers map these to HTTP statuses at the transport edge; the core
// itself stays transport-agnostic.
package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound: a referenced quiz, question, option, attempt, answer
	// or student does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidState: the operation is not permitted in the entity's
	// current lifecycle state (e.g. submitting to a completed attempt).
	ErrInvalidState = errors.New("invalid state")
	// ErrInvalidArgument: structural mismatch, such as an option that
	// does not belong to the referenced question.
	ErrInvalidArgument = errors.New("invalid argument")
)

func NotFoundf(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrNotFound)...)
}

func InvalidStatef(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrInvalidState)...)
}

func InvalidArgumentf(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrInvalidArgument)...)
}

func IsNotFound(err error) bool        { return errors.Is(err, ErrNotFound) }
func IsInvalidState(err error) bool    { return errors.Is(err, ErrInvalidState) }
func IsInvalidArgument(err error) bool { return errors.Is(err, ErrInvalidArgument) }
