package transform_test

import (
	"reflect"
	"testing"

	"github.com/vladymyr/antiagent/classfile"
	"github.com/vladymyr/antiagent/transform"
)

func TestBuilderWithoutPredicates(t *testing.T) {
	built := transform.NewBuilder().Delegate(transform.Cleaner).Build()

	if _, ok := built.(*transform.Filtered); ok {
		t.Fatal("builder without predicates produced a filtered transformer")
	}

	// Indistinguishable in effect from the raw delegate.
	m := methodWithBody("(I)I")
	want := methodWithBody("(I)I")
	transform.Process(built, m)
	transform.Process(transform.Cleaner, want)
	if !reflect.DeepEqual(m.Code, want.Code) {
		t.Errorf("built transformer differs from delegate: %v != %v", m.Code, want.Code)
	}
}

func TestBuilderWithPredicates(t *testing.T) {
	built := transform.NewBuilder().
		WithClassFilter(func(id *classfile.Identity, cls *classfile.Class) bool {
			return id != nil && id.Name == "com/example/Yes"
		}).
		Delegate(transform.Cleaner).
		Build()

	ft, ok := built.(*transform.Filtered)
	if !ok {
		t.Fatal("builder with a class predicate did not produce a filtered transformer")
	}

	yes := &classfile.Identity{Name: "com/example/Yes"}
	no := &classfile.Identity{Name: "com/example/No"}
	if !ft.ValidateClass(yes, nil) {
		t.Error("matching identity rejected")
	}
	if ft.ValidateClass(no, nil) {
		t.Error("non-matching identity accepted")
	}
	// No method predicate configured: every method passes.
	if !ft.ValidateMethod(&classfile.Method{Name: "anything", Desc: "()V"}) {
		t.Error("missing method predicate must accept every method")
	}
}

func TestFilteredMissingClassPredicate(t *testing.T) {
	built := transform.NewBuilder().
		WithMethodFilter(func(m *classfile.Method) bool { return m.Name == "transform" }).
		Delegate(transform.Cleaner).
		Build()

	ft, ok := built.(*transform.Filtered)
	if !ok {
		t.Fatal("expected filtered transformer")
	}

	// No class predicate configured: every class passes, including a nil tree.
	if !ft.ValidateClass(nil, nil) {
		t.Error("missing class predicate must accept every class")
	}
	if !ft.ValidateClass(&classfile.Identity{Name: "x"}, &classfile.Class{Name: "x"}) {
		t.Error("missing class predicate must accept every class")
	}

	if !ft.ValidateMethod(&classfile.Method{Name: "transform"}) {
		t.Error("matching method rejected")
	}
	if ft.ValidateMethod(&classfile.Method{Name: "other"}) {
		t.Error("non-matching method accepted")
	}
}

func TestFilteredForwardsToDelegate(t *testing.T) {
	ct := &countingTransformer{stopAt: classfile.OpReturn}
	built := transform.NewBuilder().
		WithMethodFilter(func(m *classfile.Method) bool { return true }).
		Delegate(ct).
		Build()

	m := methodWithBody("()V")
	transform.Process(built, m)
	if ct.seen == 0 {
		t.Error("delegate never invoked through filtered transformer")
	}
}
