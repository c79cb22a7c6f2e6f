// Package handler provides the handler interface and result types for
// execution command dispatch.
package handler

import (
	"github.com/dshills/vintage/internal/catalog"
)

// Command is a named execution command with its arguments.
type Command struct {
	Name string
	Args catalog.Args
}

// Handler executes a command.
type Handler interface {
	// Handle executes the command and returns a result.
	Handle(cmd Command) Result

	// Priority returns the handler priority (higher = checked first).
	Priority() int
}

// Func is a function adapter for the Handler interface.
type Func struct {
	fn   func(cmd Command) Result
	prio int
}

// NewFunc creates a Handler from a function.
func NewFunc(fn func(cmd Command) Result) *Func {
	return &Func{fn: fn}
}

// NewFuncWithPriority creates a Handler from a function with a priority.
func NewFuncWithPriority(fn func(cmd Command) Result, priority int) *Func {
	return &Func{fn: fn, prio: priority}
}

// Handle implements Handler.
func (f *Func) Handle(cmd Command) Result {
	if f.fn == nil {
		return Errorf("handler function is nil")
	}
	return f.fn(cmd)
}

// Priority implements Handler.
func (f *Func) Priority() int {
	return f.prio
}
