package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseCompile  Phase = "compile"  // bytecode validation
	PhaseLink     Phase = "link"     // import resolution and instantiation
	PhaseValidate Phase = "validate" // ABI contract checks
	PhaseSchema   Phase = "schema"   // SCHEMA global extraction and parsing
	PhaseRuntime  Phase = "runtime"  // guest invocation
	PhaseHost     Phase = "host"     // host import execution
	PhaseMemory   Phase = "memory"   // guest memory access
	PhaseConfig   Phase = "config"   // caller-supplied configuration
)

// Kind categorizes the error
type Kind string

const (
	KindMalformed        Kind = "malformed"
	KindInstantiation    Kind = "instantiation"
	KindMissingExport    Kind = "missing_export"
	KindSchema           Kind = "schema"
	KindSchemaMismatch   Kind = "schema_mismatch"
	KindInvalidSignature Kind = "invalid_signature"
	KindRuntimeTrap      Kind = "runtime_trap"
	KindRenderImport     Kind = "render_import"
	KindOutOfBounds      Kind = "out_of_bounds"
	KindUnterminated     Kind = "unterminated"
	KindInvalidUTF8      Kind = "invalid_utf8"
	KindInvalidInput     Kind = "invalid_input"
	KindNotInitialized   Kind = "not_initialized"
)

// Error is the structured error type used throughout the host.
type Error struct {
	Value    any
	Cause    error
	Phase    Phase
	Kind     Kind
	Export   string
	Detail   string
	Expected []string
	Actual   []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Export != "" {
		b.WriteString(" ")
		b.WriteString(fmt.Sprintf("%q", e.Export))
	}

	if e.Detail != "" {
		b.WriteString(": ")
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

// Is reports whether target matches this error.
// An empty Phase on target matches any phase.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.Phase == "" || t.Phase == e.Phase
}

// Sentinels for errors.Is matching by kind.
var (
	ErrMalformed        = &Error{Kind: KindMalformed}
	ErrInstantiation    = &Error{Kind: KindInstantiation}
	ErrMissingExport    = &Error{Kind: KindMissingExport}
	ErrSchema           = &Error{Kind: KindSchema}
	ErrSchemaMismatch   = &Error{Kind: KindSchemaMismatch}
	ErrInvalidSignature = &Error{Kind: KindInvalidSignature}
	ErrRuntimeTrap      = &Error{Kind: KindRuntimeTrap}
	ErrRenderImport     = &Error{Kind: KindRenderImport}
	ErrInvalidInput     = &Error{Kind: KindInvalidInput}
)

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

// Export sets the export name the error refers to
func (b *Builder) Export(name string) *Builder {
	b.err.Export = name
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

// Load-time constructors

// Malformed creates an error for bytecode that fails structural validation
func Malformed(cause error) *Error {
	return &Error{
		Phase:  PhaseCompile,
		Kind:   KindMalformed,
		Detail: "failed to create module",
		Cause:  cause,
	}
}

// Instantiation creates an error for unresolved imports or a disallowed start function
func Instantiation(detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseLink,
		Kind:   KindInstantiation,
		Detail: detail,
		Cause:  cause,
	}
}

// MissingExport creates an error naming a required export the module lacks
func MissingExport(name, what string) *Error {
	return &Error{
		Phase:  PhaseValidate,
		Kind:   KindMissingExport,
		Export: name,
		Detail: fmt.Sprintf("module must export %s %q", what, name),
	}
}

// Schema creates an error for an unusable SCHEMA global
func Schema(detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseSchema,
		Kind:   KindSchema,
		Export: "SCHEMA",
		Detail: detail,
		Cause:  cause,
	}
}

// SchemaMismatch creates an error reporting both type sequences verbatim
func SchemaMismatch(callback string, expected, actual []string) *Error {
	return &Error{
		Phase:  PhaseValidate,
		Kind:   KindSchemaMismatch,
		Export: callback,
		Detail: fmt.Sprintf("%s parameters don't match schema. Expected: [%s], Got: [%s]",
			callback, strings.Join(expected, ", "), strings.Join(actual, ", ")),
		Expected: expected,
		Actual:   actual,
	}
}

// InvalidSignature creates an error for a callback declaring results
func InvalidSignature(callback string, results []string) *Error {
	return &Error{
		Phase:  PhaseValidate,
		Kind:   KindInvalidSignature,
		Export: callback,
		Detail: fmt.Sprintf("%s must not return any values, got [%s]", callback, strings.Join(results, ", ")),
		Actual: results,
	}
}

// Post-load constructors

// RuntimeTrap wraps an engine-level failure during a callback invocation
func RuntimeTrap(callback string, frame uint64, cause error) *Error {
	return &Error{
		Phase:  PhaseRuntime,
		Kind:   KindRuntimeTrap,
		Export: callback,
		Detail: fmt.Sprintf("guest failed on frame %d", frame),
		Value:  frame,
		Cause:  cause,
	}
}

// RenderImport creates an error for a malformed render call
func RenderImport(ptr uint32, cause error) *Error {
	return &Error{
		Phase:  PhaseHost,
		Kind:   KindRenderImport,
		Detail: fmt.Sprintf("render(0x%x)", ptr),
		Value:  ptr,
		Cause:  cause,
	}
}

// Guest memory constructors

// OutOfBounds creates an out of bounds memory access error
func OutOfBounds(offset, size uint32) *Error {
	return &Error{
		Phase:  PhaseMemory,
		Kind:   KindOutOfBounds,
		Detail: fmt.Sprintf("offset %d out of bounds (memory size %d)", offset, size),
		Value:  offset,
	}
}

// Unterminated creates an error for a string lacking a null terminator
func Unterminated(offset uint32) *Error {
	return &Error{
		Phase:  PhaseMemory,
		Kind:   KindUnterminated,
		Detail: fmt.Sprintf("no null terminator after offset %d", offset),
		Value:  offset,
	}
}

// InvalidUTF8 creates an invalid UTF-8 error
func InvalidUTF8(offset uint32, data []byte) *Error {
	preview := data
	if len(preview) > 32 {
		preview = preview[:32]
	}
	return &Error{
		Phase:  PhaseMemory,
		Kind:   KindInvalidUTF8,
		Detail: fmt.Sprintf("invalid UTF-8 sequence at offset %d: %x", offset, preview),
		Value:  offset,
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

// NotInitialized creates a not-initialized error for a missing session or module
func NotInitialized(phase Phase, component string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotInitialized,
		Detail: fmt.Sprintf("%s not initialized", component),
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
