package shell

import "io"

// ExecutionContext carries the I/O streams and nesting state for one
// execution scope. Pipelines and redirections derive new contexts instead of
// mutating shell-global streams, and the depth counters travel with the
// context rather than living in package state.
type ExecutionContext struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// SourceDepth counts nested `source` invocations, capped at
	// MaxSourceDepth.
	SourceDepth int

	// SubstDepth counts enclosing command substitutions, capped at
	// expand.MaxSubstDepth. Carried here so a substitution that re-enters
	// the executor keeps climbing toward the cap.
	SubstDepth int
}

// MaxSourceDepth bounds recursive sourcing, mirroring bash's
// FUNCNEST-style guard against scripts that source themselves.
const MaxSourceDepth = 100

// clone returns a copy the caller may rewire without affecting the parent
// scope.
func (ctx *ExecutionContext) clone() *ExecutionContext {
	out := *ctx
	return &out
}
