// Package transform provides the rewrite pipeline applied to class method
// bodies: the Transformer unit of rewrite logic, the Process driver that
// walks a method's instructions, filter gating, and the Builder that
// composes them.
//
// # Transformers
//
// A Transformer inspects one instruction at a time and may mutate the
// method's instruction list through a Cursor. Returning true stops further
// processing of that method; the stop is local to the method, never to the
// class.
//
//	type upperCaser struct{}
//
//	func (upperCaser) Transform(m *classfile.Method, code *transform.Cursor, insn classfile.Instruction) bool {
//		// inspect insn, mutate code
//		return false
//	}
//
// Transformers must be stateless per invocation: one value may be shared
// across many classes and methods concurrently within a transform cycle.
//
// # Filtering
//
// Builder composes a delegate with optional class and method predicates:
//
//	t := transform.NewBuilder().
//		WithClassFilter(func(id *classfile.Identity, cls *classfile.Class) bool { ... }).
//		WithMethodFilter(func(m *classfile.Method) bool { ... }).
//		Delegate(transform.Cleaner).
//		Build()
//
// With at least one predicate set, Build yields a *Filtered; callers gate on
// it with a single type assertion. With none set, Build yields a plain
// forwarding transformer with no filtering overhead.
//
// # Cleaner
//
// Cleaner is the method-level "clear everything" transformer: it empties the
// method body and injects a type-correct default return, regardless of which
// instruction it was invoked on.
package transform
