// Package engine implements the synchronous-to-continuation rewrite.
//
// The engine walks one compile unit depth-first, left to right. Every call
// is hoisted into its own instruction followed by a capture of the
// runtime's return value into a fresh temp; expressions that consumed a
// split are themselves materialised into temps so the source evaluation
// order survives. Each Transform call allocates one context holding the
// async signal, scope table, temp counter and frame stack, so concurrent
// compiles never share state.
//
// # Regions
//
// Branches, loop parts and function bodies are walked in their own frame
// (see ir.Frames). An if statement hoists its condition's instructions into
// the enclosing frame and keeps each branch's instructions nested; a for
// statement hoists its initializer and keeps condition, step and body
// nested.
//
// # Rewritten source
//
// The rewritten tree is derived from the instruction lists, so rendered
// source and executable code always agree on statement order.
package engine
