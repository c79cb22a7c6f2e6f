package handler

import (
	"fmt"

	"github.com/dshills/vintage/internal/input/mode"
)

// ResultStatus is the outcome of an execution command.
type ResultStatus uint8

const (
	// StatusOK means the command changed the buffer, the selection or the mode.
	StatusOK ResultStatus = iota
	// StatusNoOp means the command ran but there was nothing to do, such as
	// a motion without a match.
	StatusNoOp
	// StatusError means the command could not run.
	StatusError
)

func (s ResultStatus) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusNoOp:
		return "no-op"
	case StatusError:
		return "error"
	}
	return fmt.Sprintf("status(%d)", uint8(s))
}

// Result is what a handler reports back to the dispatcher.
type Result struct {
	Status ResultStatus
	Error  error

	// Message is shown to the user, for example "recording @q".
	Message string

	// ModeChange is the mode to enter once the command returns. Empty
	// leaves the mode alone.
	ModeChange mode.Mode
}

// IsOK reports whether the command succeeded.
func (r Result) IsOK() bool { return r.Status == StatusOK }

// IsError reports whether the command failed.
func (r Result) IsError() bool { return r.Status == StatusError }

// Success reports a command that did its work.
func Success() Result { return Result{Status: StatusOK} }

// NoOp reports a command with nothing to do.
func NoOp() Result { return Result{Status: StatusNoOp} }

// NoOpWithMessage reports a command with nothing to do and tells the user
// why.
func NoOpWithMessage(msg string) Result {
	return Result{Status: StatusNoOp, Message: msg}
}

// Error reports a failed command.
func Error(err error) Result { return Result{Status: StatusError, Error: err} }

// Errorf reports a failed command with a formatted error.
func Errorf(format string, args ...any) Result {
	return Error(fmt.Errorf(format, args...))
}

// WithMessage attaches a user message.
func (r Result) WithMessage(msg string) Result {
	r.Message = msg
	return r
}

// WithModeChange asks the dispatcher to switch to m after the command.
func (r Result) WithModeChange(m mode.Mode) Result {
	r.ModeChange = m
	return r
}
