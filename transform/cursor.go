package transform

import (
	"github.com/vladymyr/antiagent/classfile"
)

// Cursor exposes a method's instruction sequence as an indexable, mutable
// ordered list. All mutations write through to the underlying method, so a
// transformer that clears or replaces the list affects the method directly.
type Cursor struct {
	m *classfile.Method
}

// Code returns a cursor over the method's instruction list.
func Code(m *classfile.Method) *Cursor {
	return &Cursor{m: m}
}

// Len returns the number of instructions.
func (c *Cursor) Len() int {
	return len(c.m.Code)
}

// At returns the instruction at index i.
func (c *Cursor) At(i int) classfile.Instruction {
	return c.m.Code[i]
}

// Set replaces the instruction at index i.
func (c *Cursor) Set(i int, insn classfile.Instruction) {
	c.m.Code[i] = insn
}

// Insert inserts instructions before index i.
func (c *Cursor) Insert(i int, insns ...classfile.Instruction) {
	code := c.m.Code
	c.m.Code = append(code[:i:i], append(insns, code[i:]...)...)
}

// Remove deletes the instruction at index i.
func (c *Cursor) Remove(i int) {
	c.m.Code = append(c.m.Code[:i], c.m.Code[i+1:]...)
}

// Append adds instructions at the end of the list.
func (c *Cursor) Append(insns ...classfile.Instruction) {
	c.m.Code = append(c.m.Code, insns...)
}

// Truncate drops all instructions from index i on.
func (c *Cursor) Truncate(i int) {
	c.m.Code = c.m.Code[:i]
}

// Clear empties the instruction list.
func (c *Cursor) Clear() {
	c.m.Code = c.m.Code[:0]
}
