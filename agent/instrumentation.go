package agent

import (
	"github.com/vladymyr/antiagent/classfile"
)

// Resolver reads the current class tree of a named class. It stands in for
// the host's byte source plus the external class reader; transient classes
// with no resolvable byte source return an error.
type Resolver interface {
	ReadClass(name string) (*classfile.Class, error)
}

// Definition pairs a loaded class's runtime identity with its replacement
// bytes for batch redefinition.
type Definition struct {
	Class classfile.Identity
	Data  []byte
}

// Instrumentation is the host redefinition facility. The engine never
// submits an empty batch to RedefineClasses.
type Instrumentation interface {
	// RedefineSupported reports whether the host allows redefinition of
	// already-loaded classes at all.
	RedefineSupported() bool

	// LoadedClasses enumerates the runtime identities of every currently
	// loaded class.
	LoadedClasses() []classfile.Identity

	// IsModifiable reports whether the class may be redefined.
	IsModifiable(id classfile.Identity) bool

	// RedefineClasses replaces the code of already-loaded classes with the
	// supplied bytes, without reloading them.
	RedefineClasses(defs []Definition) error
}
