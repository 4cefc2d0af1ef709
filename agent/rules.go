package agent

import (
	"github.com/vladymyr/antiagent/classfile"
	"github.com/vladymyr/antiagent/transform"
)

// TargetMethod identifies the single abstract method of a functional
// interface whose implementations should be neutralized. All names use
// internal form ("java/lang/instrument/ClassFileTransformer").
type TargetMethod struct {
	Interface string
	Name      string
	Desc      string
}

// FactoryDesc returns the erased type descriptor a lambda factory call site
// producing this interface declares: a no-arg method type yielding the
// interface.
func (t TargetMethod) FactoryDesc() string {
	return "()L" + t.Interface + ";"
}

// HookTarget is the load-hook method other instrumentation agents implement.
var HookTarget = TargetMethod{
	Interface: "java/lang/instrument/ClassFileTransformer",
	Name:      "transform",
	Desc:      "(Ljava/lang/ClassLoader;Ljava/lang/String;Ljava/lang/Class;Ljava/security/ProtectionDomain;[B)[B",
}

// NewHookCleaner builds the transformer that empties implementations of
// target's method, whether supplied as a named override or as a
// runtime-synthesized lambda. self names the one class exempt from the
// runtime-assignability check, normally the embedding agent itself.
//
// The class predicate both decides admissibility and performs the
// lambda-specific part of the rewrite: synthesized implementation methods
// extracted from matching call sites are emptied during validation, because
// their own names and descriptors would never pass the method filter.
func NewHookCleaner(target TargetMethod, self string) transform.Transformer {
	return transform.NewBuilder().
		WithClassFilter(hookClassFilter(target, self)).
		WithMethodFilter(func(m *classfile.Method) bool {
			return m.Name == target.Name && m.Desc == target.Desc
		}).
		Delegate(transform.Cleaner).
		Build()
}

// hookClassFilter returns the admissibility predicate for target. A class is
// admitted when any of the following holds:
//
//  1. it contains a dynamic call site matching the lambda factory shape for
//     target (in which case the synthesized methods are emptied here);
//  2. it syntactically declares target's interface among its direct
//     interfaces;
//  3. its runtime identity is assignable to target's interface and it is
//     neither self nor the interface itself.
func hookClassFilter(target TargetMethod, self string) transform.ClassPredicate {
	factoryDesc := target.FactoryDesc()

	return func(id *classfile.Identity, cls *classfile.Class) bool {
		needsUpdate := false

		if cls != nil {
			pending := collectLambdaTargets(cls, target, factoryDesc)
			if len(pending) > 0 {
				for _, m := range cls.Methods {
					if _, ok := pending[m.Name]; !ok {
						continue
					}
					// The synthesized method never matches the method
					// filter, so it is emptied here. A descriptor that
					// cannot be classified skips that one method; the
					// class is still rewritten.
					_ = transform.EmptyMethod(m)
					needsUpdate = true
				}
			}
		}

		return needsUpdate ||
			// Sub-interfaces are not searched: a class implementing one is
			// itself loaded and processed on its own.
			cls != nil && cls.HasInterface(target.Interface) ||
			id.AssignableTo(target.Interface) && id.Name != self && id.Name != target.Interface
	}
}

// collectLambdaTargets scans every method's instructions for dynamic call
// sites whose declared symbolic type and name match the lambda factory shape
// for target, and returns the set of synthesized implementation method names
// referenced by their bootstrap constants. Call sites whose bootstrap
// constants are absent, short, or of the wrong kind are skipped; they cannot
// be the factory shape expected.
func collectLambdaTargets(cls *classfile.Class, target TargetMethod, factoryDesc string) map[string]struct{} {
	var pending map[string]struct{}
	for _, m := range cls.Methods {
		for _, insn := range m.Code {
			if insn.Opcode != classfile.OpInvokeDynamic {
				continue
			}
			indy, ok := insn.Imm.(classfile.InvokeDynamicImm)
			if !ok {
				continue
			}
			if indy.Desc != factoryDesc || indy.Name != target.Name {
				continue
			}
			if len(indy.Args) < 2 {
				continue
			}

			erased, ok := indy.Args[0].(classfile.MethodType)
			if !ok {
				continue
			}
			handle, ok := indy.Args[1].(classfile.Handle)
			if !ok {
				continue
			}

			// A static-dispatch handle whose descriptor and erased site type
			// both equal the target's rules out bridge and adapter sites
			// that merely resemble the shape. Resolution is per-class, so
			// cross-class name collisions are a non-issue.
			if handle.Kind == classfile.HandleInvokeStatic &&
				erased.Desc == target.Desc &&
				handle.Desc == target.Desc {
				if pending == nil {
					pending = make(map[string]struct{})
				}
				pending[handle.Name] = struct{}{}
			}
		}
	}
	return pending
}

// NewExactCleaner builds a transformer that empties exactly one method,
// keyed on a fixed name and descriptor inside a fixed class.
func NewExactCleaner(class, method, desc string) transform.Transformer {
	return transform.NewBuilder().
		WithClassFilter(func(id *classfile.Identity, _ *classfile.Class) bool {
			return id != nil && id.Name == class
		}).
		WithMethodFilter(func(m *classfile.Method) bool {
			return m.Name == method && m.Desc == desc
		}).
		Delegate(transform.Cleaner).
		Build()
}

// NewDumpStackCleaner empties java/lang/Thread.dumpStack(), a common
// reverse-engineering entry point.
func NewDumpStackCleaner() transform.Transformer {
	return NewExactCleaner("java/lang/Thread", "dumpStack", "()V")
}
