// Package ast defines the syntax tree consumed by the transformer.
//
// The tree mirrors the tagged-array shape produced by UglifyJS-style
// front-ends: every node is a kind tag followed by ordered operands.
// In Go the tags become a closed set of concrete node types behind the
// Node interface, so the walker dispatches with an exhaustive type switch.
//
// # Documents
//
// Trees are exchanged as JSON or YAML documents of nested arrays:
//
//	["toplevel", [
//	    ["defun", "test", ["a"], [
//	        ["var", [["x", ["call", ["name", "asyncEcho"], [["name", "$$callBack"], ["num", 10]]]]]],
//	        ["stat", ["assign", true, ["name", "a"], ["name", "x"]]]
//	    ]]
//	]]
//
// Decode reads such a document. Decoding is strict: an unknown tag or a
// malformed operand list fails with a path to the offending node.
package ast
