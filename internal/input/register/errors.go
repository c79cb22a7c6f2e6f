package register

import (
	"errors"
	"fmt"
)

// ErrRegister is the sentinel every register Error unwraps to.
var ErrRegister = errors.New("register error")

// Error reports a failed register access.
type Error struct {
	Register rune
	Reason   string
	Err      error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("register %q: %s: %v", e.Register, e.Reason, e.Err)
	}
	return fmt.Sprintf("register %q: %s", e.Register, e.Reason)
}

func (e *Error) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrRegister, e.Err}
	}
	return []error{ErrRegister}
}
