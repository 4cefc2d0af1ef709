package classfile

// Class is one structured unit of compiled code: a name, its direct interface
// relationships, and its methods. A Class is owned exclusively by the engine
// for the duration of one transform cycle; the name is immutable identity,
// the contents are mutable during the cycle.
type Class struct {
	Name       string
	SuperName  string
	SourceFile string
	Interfaces []string // direct interfaces only, internal names
	Methods    []*Method
	Access     uint16
	Version    uint16 // class file major version
}

// HasInterface reports whether the class syntactically declares name among
// its direct interfaces. Transitively inherited interfaces are not searched;
// classes implementing a sub-interface are loaded and processed on their own.
func (c *Class) HasInterface(name string) bool {
	for _, iface := range c.Interfaces {
		if iface == name {
			return true
		}
	}
	return false
}

// FindMethod returns the first method with the given name and descriptor,
// or nil if none exists.
func (c *Class) FindMethod(name, desc string) *Method {
	for _, m := range c.Methods {
		if m.Name == name && m.Desc == desc {
			return m
		}
	}
	return nil
}

// Method is a named, descriptor-typed, ordered sequence of instructions
// belonging to exactly one Class. The instruction sequence may be fully
// replaced during rewrite.
type Method struct {
	Name      string
	Desc      string
	Code      []Instruction
	TryCatch  []TryCatchBlock
	LocalVars []LocalVariable
	Throws    []string // declared thrown exception class names
	Access    uint16
	MaxStack  uint16
	MaxLocals uint16
}

// TryCatchBlock is one exception-handler range of a method body. Offsets are
// instruction indices into Method.Code.
type TryCatchBlock struct {
	Type    string // caught exception class, "" for finally
	Start   uint32
	End     uint32
	Handler uint32
}

// LocalVariable is debug metadata for one local variable slot.
type LocalVariable struct {
	Name  string
	Desc  string
	Start uint32
	End   uint32
	Index uint16
}

// Instruction represents one step of a method body. The Opcode selects the
// immediate type carried in Imm; plain instructions carry nil.
type Instruction struct {
	Imm    interface{}
	Opcode byte
}

// IsDynamicCallSite reports whether this is an invokedynamic instruction
// carrying call-site metadata.
func (i Instruction) IsDynamicCallSite() bool {
	if i.Opcode != OpInvokeDynamic {
		return false
	}
	_, ok := i.Imm.(InvokeDynamicImm)
	return ok
}

// MemberImm holds the symbolic member reference for field access and direct
// method invocation instructions.
type MemberImm struct {
	Owner string
	Name  string
	Desc  string
}

// InvokeDynamicImm holds the metadata of a dynamic call site: the call-site
// name, the erased symbolic type descriptor the site produces, the bootstrap
// method handle, and the bootstrap constants. By convention Args[0] is a
// MethodType and Args[1] is a Handle when the site was emitted by the lambda
// metafactory; neither is guaranteed.
type InvokeDynamicImm struct {
	Name      string
	Desc      string
	Bootstrap Handle
	Args      []interface{}
}

// VarImm holds the local variable index for load and store instructions.
type VarImm struct {
	Index uint16
}

// IntImm holds the operand of bipush and sipush.
type IntImm struct {
	Value int32
}

// LdcImm holds the constant loaded by ldc. Const is one of int32, int64,
// float32, float64, string, MethodType, or Handle.
type LdcImm struct {
	Const interface{}
}

// TypeImm holds the class reference of new, anewarray, checkcast and
// instanceof.
type TypeImm struct {
	Name string
}

// BranchImm holds the jump target, as an instruction index into Method.Code.
type BranchImm struct {
	Target uint32
}

// IincImm holds the local index and increment of iinc.
type IincImm struct {
	Index uint16
	Delta int16
}

// Handle is a symbolic method-handle reference: the invocation kind, the
// owning class, the member name, and the member descriptor.
type Handle struct {
	Owner string
	Name  string
	Desc  string
	Kind  byte
}

// MethodType is a symbolic method-type constant.
type MethodType struct {
	Desc string
}

// Identity describes the runtime view of a loaded class as reported by the
// host: the class name and the nominal set of supertypes it is assignable
// to. The set is computed once at ingestion so that admissibility checks are
// plain lookups rather than reflective queries.
type Identity struct {
	Name       string
	Assignable []string
}

// AssignableTo reports whether the runtime class is assignable to the named
// type. A class is always assignable to itself.
func (id *Identity) AssignableTo(name string) bool {
	if id == nil {
		return false
	}
	if id.Name == name {
		return true
	}
	for _, a := range id.Assignable {
		if a == name {
			return true
		}
	}
	return false
}

// Codec converts between raw bytes and the structured class tree. Frame and
// stack-map recomputation is the codec's responsibility, not the engine's.
type Codec interface {
	Decode(data []byte) (*Class, error)
	Encode(cls *Class) ([]byte, error)
}
