package transform

import (
	"github.com/vladymyr/antiagent/classfile"
)

// ClassPredicate gates whether a transformer applies to a class. The class
// tree may be nil when the caller has not materialized it yet (the
// already-loaded sweep validates cheaply before reading bytes); predicates
// must treat a nil tree as "unknown, possibly true" rather than crash.
type ClassPredicate func(id *classfile.Identity, cls *classfile.Class) bool

// MethodPredicate gates whether a transformer applies to a method.
type MethodPredicate func(m *classfile.Method) bool

// Filtered decorates a Transformer with class and method admissibility
// predicates, evaluated by the caller before Process is invoked. A missing
// predicate means "no constraint".
//
// Predicates are assumed pure and stateless: the sweep path evaluates the
// class predicate twice per class (once without the tree, once with it) and
// does not re-validate afterwards.
type Filtered struct {
	delegate Transformer
	classOK  ClassPredicate
	methodOK MethodPredicate
}

// ValidateClass reports whether the transformer applies to the class.
func (f *Filtered) ValidateClass(id *classfile.Identity, cls *classfile.Class) bool {
	if f.classOK == nil {
		return true
	}
	return f.classOK(id, cls)
}

// ValidateMethod reports whether the transformer applies to the method.
func (f *Filtered) ValidateMethod(m *classfile.Method) bool {
	if f.methodOK == nil {
		return true
	}
	return f.methodOK(m)
}

// Transform forwards to the delegate.
func (f *Filtered) Transform(m *classfile.Method, code *Cursor, insn classfile.Instruction) bool {
	return f.delegate.Transform(m, code, insn)
}
