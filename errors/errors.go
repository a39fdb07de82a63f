package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseParse     Phase = "parse"     // tree document decoding
	PhaseTransform Phase = "transform" // sync-to-continuation rewrite
	PhaseSerialize Phase = "serialize" // instruction tree to executable code
	PhaseRender    Phase = "render"    // syntax node to source text
	PhaseConfig    Phase = "config"    // configuration loading
	PhaseCache     Phase = "cache"     // compile cache access
	PhaseRuntime   Phase = "runtime"   // runtime hand-off
)

// Kind categorizes the error
type Kind string

const (
	KindInvalidNode    Kind = "invalid_node"
	KindUnknownNode    Kind = "unknown_node"
	KindInvalidTarget  Kind = "invalid_target"
	KindUnsupported    Kind = "unsupported"
	KindInvalidInput   Kind = "invalid_input"
	KindInvalidData    Kind = "invalid_data"
	KindNotFound       Kind = "not_found"
	KindNotInitialized Kind = "not_initialized"
	KindEncode         Kind = "encode"
	KindDecode         Kind = "decode"
)

// Error is the structured error type used throughout the compiler
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	Node   string
	Detail string
	Path   []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "/"))
	}

	if e.Node != "" {
		b.WriteString(": node ")
		b.WriteString(e.Node)
	}

	if e.Detail != "" {
		if e.Node != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the tree path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// Node sets the offending node kind
func (b *Builder) Node(kind string) *Builder {
	b.err.Node = kind
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// UnknownNode creates an error for a node kind outside the handled set
func UnknownNode(phase Phase, path []string, kind string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnknownNode,
		Path:   path,
		Node:   kind,
		Detail: "unrecognized node kind",
	}
}

// InvalidNode creates an error for a node with malformed operands
func InvalidNode(phase Phase, path []string, kind, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidNode,
		Path:   path,
		Node:   kind,
		Detail: detail,
	}
}

// InvalidTarget creates an error for an assignment target the rewriter cannot rewrite
func InvalidTarget(path []string, kind string) *Error {
	return &Error{
		Phase:  PhaseTransform,
		Kind:   KindInvalidTarget,
		Path:   path,
		Node:   kind,
		Detail: "assignment target must be a name, dot or sub expression",
	}
}

// Unsupported creates an unsupported operation error
func Unsupported(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupported,
		Detail: what,
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// InvalidData creates an invalid data error
func InvalidData(phase Phase, path []string, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidData,
		Path:   path,
		Detail: detail,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}

// ParseFailed creates a decoding error for a tree document
func ParseFailed(what string, cause error) *Error {
	return &Error{
		Phase:  PhaseParse,
		Kind:   KindDecode,
		Detail: fmt.Sprintf("parse %s", what),
		Cause:  cause,
	}
}

// NotInitialized creates a not-initialized error for a missing collaborator
func NotInitialized(phase Phase, component string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotInitialized,
		Detail: fmt.Sprintf("%s not initialized", component),
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}
