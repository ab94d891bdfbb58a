package compiler

import (
	"errors"
	"fmt"
)

var (
	// ErrArgumentLengthExceeded is returned when the command does not fit
	// the argument length limit and script transport is disabled.
	ErrArgumentLengthExceeded = errors.New("command exceeds argument length limit")

	// ErrInvalidRoot is returned when the compiled node does not terminate
	// a pipeline.
	ErrInvalidRoot = errors.New("graph root must be an output, global or merge node")
)

// ArgumentLengthExceededError reports the command length against the limit
type ArgumentLengthExceededError struct {
	Length int
	Limit  int
}

func (e *ArgumentLengthExceededError) Error() string {
	return fmt.Sprintf("%s: %d > %d bytes", ErrArgumentLengthExceeded, e.Length, e.Limit)
}

func (e *ArgumentLengthExceededError) Unwrap() error { return ErrArgumentLengthExceeded }
