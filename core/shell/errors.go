package shell

import (
	"errors"
	"fmt"

	"github.com/rushshell/rush/core/arith"
	"github.com/rushshell/rush/core/expand"
	"github.com/rushshell/rush/core/flow"
)

// Kind classifies an engine error for reporting and exit-code selection.
type Kind int

const (
	// KindSyntax is a malformed construct: unbalanced quotes, parens or
	// keywords.
	KindSyntax Kind = iota
	// KindExecution is a spawn or I/O failure.
	KindExecution
	// KindDivisionByZero is arithmetic x/0 or x%0.
	KindDivisionByZero
	// KindTypeMismatch is an arithmetic operand error.
	KindTypeMismatch
	// KindInvalidOperator is an unsupported test operator.
	KindInvalidOperator
	// KindConfig is a configuration file problem.
	KindConfig
)

// Error is the engine's error type. Statement execution converts these to a
// stderr report and a non-zero exit code; the caller loop always survives.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Msg != "" {
		return e.Msg + ": " + e.Err.Error()
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ExitCode maps the error kind to the shell exit-code convention: syntax
// problems are 2, everything else 1.
func (e *Error) ExitCode() int {
	switch e.Kind {
	case KindSyntax, KindInvalidOperator:
		return 2
	default:
		return 1
	}
}

func errorf(kind Kind, format string, a ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, a...)}
}

// wrapError lifts errors from the leaf packages into classified engine
// errors.
func wrapError(err error) *Error {
	var engineErr *Error
	if errors.As(err, &engineErr) {
		return engineErr
	}

	var arithSyntax *arith.SyntaxError
	var flowSyntax *flow.SyntaxError
	switch {
	case errors.Is(err, arith.ErrDivisionByZero):
		return &Error{Kind: KindDivisionByZero, Err: err}
	case errors.As(err, &arithSyntax), errors.As(err, &flowSyntax):
		return &Error{Kind: KindSyntax, Err: err}
	case errors.Is(err, expand.ErrUnterminatedSubstitution),
		errors.Is(err, expand.ErrUnterminatedQuote):
		return &Error{Kind: KindSyntax, Err: err}
	default:
		return &Error{Kind: KindExecution, Err: err}
	}
}
