package session

import (
	"errors"
	"fmt"
)

// ErrContract is wrapped by every contract violation.
//
// A contract violation means the caller (the key sequence pipeline or a
// motion/action implementation) broke an invariant of the command state.
// Callers abort the whole in-progress sequence when they see one.
var ErrContract = errors.New("contract violation")

// ErrUnknownField indicates an untyped access to a field that does not exist.
var ErrUnknownField = errors.New("unknown session field")

// ContractError describes a contract violation.
type ContractError struct {
	// Op is the operation that detected the violation (e.g. "set_command").
	Op string
	// Field is the offending field, if any.
	Field string
	// Reason describes the violation.
	Reason string
}

// Error implements the error interface.
func (e *ContractError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s: %s", e.Op, e.Field, e.Reason)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Reason)
}

// Unwrap returns ErrContract.
func (e *ContractError) Unwrap() error {
	return ErrContract
}

// Violation builds a ContractError.
func Violation(op, field, reason string) error {
	return &ContractError{Op: op, Field: field, Reason: reason}
}

// IsContractViolation reports whether err is a contract violation.
func IsContractViolation(err error) bool {
	return errors.Is(err, ErrContract)
}
