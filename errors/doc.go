// Package errors provides structured error types for the antiagent library.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error
// category). The Error type carries the affected class and method names and a
// cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseRewrite, errors.KindInvalidDescriptor).
//		Class("com/example/Foo").
//		Method("bar", "(X)V").
//		Detail("unterminated object type").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.InvalidDescriptor("(X)V", "unterminated object type")
//	err := errors.UnreadableClass("com/example/Foo", cause)
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
