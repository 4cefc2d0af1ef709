package transform

import (
	"github.com/vladymyr/antiagent/classfile"

	"github.com/vladymyr/antiagent/errors"
)

// Transformer is the unit of rewrite logic. Transform is invoked once per
// instruction of a method; it may mutate the instruction list through code
// and returns true to stop further processing of this method for this
// transformer.
//
// Implementations must not hold per-class mutable state: one Transformer
// value may be applied to many classes and methods concurrently within a
// transform cycle.
type Transformer interface {
	Transform(m *classfile.Method, code *Cursor, insn classfile.Instruction) bool
}

// Func adapts a plain function to the Transformer interface.
type Func func(m *classfile.Method, code *Cursor, insn classfile.Instruction) bool

// Transform invokes the function.
func (f Func) Transform(m *classfile.Method, code *Cursor, insn classfile.Instruction) bool {
	return f(m, code, insn)
}

// Cleaner empties the whole method body on the first instruction it sees and
// signals stop. It ignores the current instruction entirely, so it is correct
// regardless of which instruction it was invoked on. A method whose
// descriptor cannot be classified is left untouched.
var Cleaner Transformer = cleaner{}

type cleaner struct{}

func (cleaner) Transform(m *classfile.Method, _ *Cursor, _ classfile.Instruction) bool {
	// Invalid descriptors are a per-method skip, not a failure of the walk.
	_ = EmptyMethod(m)
	return true
}

// Process walks a snapshot of the method's instructions in original order,
// invoking t.Transform once per instruction. The walk stops as soon as a
// call returns true, evaluated strictly after each call, so the instruction
// that triggered the stop is itself still processed. The snapshot is taken
// before any mutation, so transformers that clear or replace the list do not
// corrupt the iteration.
func Process(t Transformer, m *classfile.Method) {
	snapshot := make([]classfile.Instruction, len(m.Code))
	copy(snapshot, m.Code)

	code := Code(m)
	for _, insn := range snapshot {
		if t.Transform(m, code, insn) {
			break
		}
	}
}

// EmptyMethod clears all instructions, exception-handler ranges, and
// local-variable metadata of m, then appends a synthesized return sequence
// derived solely from the descriptor's return type: a single type-correct
// default-value push (nothing for void) followed by the matching return.
//
// A descriptor that cannot be classified yields an invalid-descriptor error
// and leaves the method untouched.
func EmptyMethod(m *classfile.Method) error {
	seq, err := returnSequence(m.Desc)
	if err != nil {
		return err
	}

	m.Code = seq
	m.TryCatch = nil
	m.LocalVars = nil
	m.Throws = nil
	return nil
}

// returnSequence synthesizes the minimal body returning a default value for
// the descriptor's return type.
func returnSequence(desc string) ([]classfile.Instruction, error) {
	sort, err := classfile.ReturnSort(desc)
	if err != nil {
		return nil, err
	}

	switch sort {
	case classfile.SortVoid:
		return []classfile.Instruction{
			{Opcode: classfile.OpReturn},
		}, nil
	case classfile.SortBoolean, classfile.SortChar, classfile.SortByte,
		classfile.SortShort, classfile.SortInt:
		return []classfile.Instruction{
			{Opcode: classfile.OpIConst0},
			{Opcode: classfile.OpIReturn},
		}, nil
	case classfile.SortFloat:
		return []classfile.Instruction{
			{Opcode: classfile.OpFConst0},
			{Opcode: classfile.OpFReturn},
		}, nil
	case classfile.SortLong:
		return []classfile.Instruction{
			{Opcode: classfile.OpLConst0},
			{Opcode: classfile.OpLReturn},
		}, nil
	case classfile.SortDouble:
		return []classfile.Instruction{
			{Opcode: classfile.OpDConst0},
			{Opcode: classfile.OpDReturn},
		}, nil
	case classfile.SortArray, classfile.SortObject:
		return []classfile.Instruction{
			{Opcode: classfile.OpAConstNull},
			{Opcode: classfile.OpAReturn},
		}, nil
	default:
		return nil, errors.InvalidDescriptor(desc, "no return sequence for "+sort.String()+" sort")
	}
}
