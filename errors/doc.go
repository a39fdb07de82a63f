// Package errors provides structured error types for the druta compiler.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type carries the node path inside the syntax tree, the node kind
// that triggered the failure, and the cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseTransform, errors.KindInvalidTarget).
//		Path("toplevel", "defun:test", "stat[2]").
//		Node("call").
//		Detail("cannot assign to a call result").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.UnknownNode(errors.PhaseParse, path, "yield")
//	err := errors.InvalidTarget(path, "call")
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
