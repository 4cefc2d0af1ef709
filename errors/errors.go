package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseRead     Phase = "read"     // bytes to class tree
	PhaseRewrite  Phase = "rewrite"  // transformer application
	PhaseEncode   Phase = "encode"   // class tree to bytes
	PhaseRedefine Phase = "redefine" // batch redefinition
)

// Kind categorizes the error
type Kind string

const (
	KindInvalidDescriptor Kind = "invalid_descriptor"
	KindUnreadableClass   Kind = "unreadable_class"
	KindInvalidData       Kind = "invalid_data"
	KindUnsupported       Kind = "unsupported"
)

// Error is the structured error type used throughout the library
type Error struct {
	Cause      error
	Phase      Phase
	Kind       Kind
	ClassName  string
	MethodName string
	MethodDesc string
	Detail     string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.ClassName != "" {
		b.WriteString(" at ")
		b.WriteString(e.ClassName)
		if e.MethodName != "" {
			b.WriteByte('.')
			b.WriteString(e.MethodName)
			b.WriteString(e.MethodDesc)
		}
	} else if e.MethodName != "" {
		b.WriteString(" at ")
		b.WriteString(e.MethodName)
		b.WriteString(e.MethodDesc)
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

// Unwrap returns the underlying cause for errors.Is/As chains
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error. A target *Error matches when
// its non-empty Phase and Kind fields equal this error's, which allows
// sentinel-style comparisons:
//
//	errors.Is(err, &errors.Error{Kind: errors.KindInvalidDescriptor})
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Phase != "" && t.Phase != e.Phase {
		return false
	}
	if t.Kind != "" && t.Kind != e.Kind {
		return false
	}
	return true
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

// Class sets the affected class name
func (b *Builder) Class(name string) *Builder {
	b.err.ClassName = name
	return b
}

// Method sets the affected method name and descriptor
func (b *Builder) Method(name, desc string) *Builder {
	b.err.MethodName = name
	b.err.MethodDesc = desc
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

// InvalidDescriptor creates an error for a malformed method descriptor.
// Fatal to the emptying of one method only; callers skip the method.
func InvalidDescriptor(desc, detail string) *Error {
	return &Error{
		Phase:      PhaseRewrite,
		Kind:       KindInvalidDescriptor,
		MethodDesc: desc,
		Detail:     detail,
	}
}

// UnreadableClass creates an error for class bytes that are unavailable or
// unparsable. Fatal to one class only; the pre-load path reports no change
// and the sweep excludes the class from its batch.
func UnreadableClass(name string, cause error) *Error {
	return &Error{
		Phase:     PhaseRead,
		Kind:      KindUnreadableClass,
		ClassName: name,
		Cause:     cause,
	}
}

// InvalidData creates an error for structurally invalid classpack data
func InvalidData(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidData,
		Detail: detail,
	}
}

// IsInvalidDescriptor reports whether err is an invalid-descriptor error
func IsInvalidDescriptor(err error) bool {
	var e *Error
	return stderrors.As(err, &e) && e.Kind == KindInvalidDescriptor
}

// IsUnreadableClass reports whether err is an unreadable-class error
func IsUnreadableClass(err error) bool {
	var e *Error
	return stderrors.As(err, &e) && e.Kind == KindUnreadableClass
}
