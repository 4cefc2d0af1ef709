package classfile

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/klauspost/compress/zstd"

	"github.com/vladymyr/antiagent/errors"
)

// Classpack container layout: 4-byte magic, 1-byte format version, 1-byte
// flags, then the (optionally compressed) CBOR body.
var classpackMagic = [4]byte{'C', 'P', 'A', 'K'}

const (
	classpackVersion byte = 1

	flagZstd byte = 0x01
)

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("classfile: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// ClasspackCodec is the default Codec implementation. It serializes the class
// tree as canonical CBOR inside a small versioned container, with optional
// zstd compression of the body.
type ClasspackCodec struct {
	// DisableCompression stores the body uncompressed. Mainly useful for
	// debugging pack contents with a plain CBOR decoder.
	DisableCompression bool
}

// NewClasspackCodec returns a codec with compression enabled.
func NewClasspackCodec() *ClasspackCodec {
	return &ClasspackCodec{}
}

// Encode serializes the class tree to classpack bytes.
func (c *ClasspackCodec) Encode(cls *Class) ([]byte, error) {
	if cls == nil {
		return nil, errors.InvalidData(errors.PhaseEncode, "nil class")
	}
	wire, err := classToWire(cls)
	if err != nil {
		return nil, err
	}
	body, err := cborEncMode.Marshal(wire)
	if err != nil {
		return nil, errors.New(errors.PhaseEncode, errors.KindInvalidData).
			Class(cls.Name).
			Cause(err).
			Build()
	}

	var flags byte
	if !c.DisableCompression {
		flags |= flagZstd
		body = zstdCompress(nil, body)
	}

	out := make([]byte, 0, len(classpackMagic)+2+len(body))
	out = append(out, classpackMagic[:]...)
	out = append(out, classpackVersion, flags)
	return append(out, body...), nil
}

// Decode parses classpack bytes into a class tree.
func (c *ClasspackCodec) Decode(data []byte) (*Class, error) {
	if len(data) < len(classpackMagic)+2 {
		return nil, errors.UnreadableClass("", errors.InvalidData(errors.PhaseRead, "truncated classpack header"))
	}
	if [4]byte(data[:4]) != classpackMagic {
		return nil, errors.UnreadableClass("", errors.InvalidData(errors.PhaseRead, "bad classpack magic"))
	}
	if data[4] != classpackVersion {
		return nil, errors.UnreadableClass("", errors.InvalidData(errors.PhaseRead,
			fmt.Sprintf("unsupported classpack version %d", data[4])))
	}
	flags := data[5]
	body := data[6:]

	if flags&flagZstd != 0 {
		var err error
		body, err = zstdDecompress(nil, body)
		if err != nil {
			return nil, errors.UnreadableClass("", err)
		}
	}

	var wire classWire
	if err := cbor.Unmarshal(body, &wire); err != nil {
		return nil, errors.UnreadableClass("", err)
	}
	return classFromWire(&wire)
}

func zstdCompress(dst, data []byte) []byte {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic(err) // theoretically not possible
	}
	defer encoder.Close()
	return encoder.EncodeAll(data, dst)
}

func zstdDecompress(dst, data []byte) ([]byte, error) {
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	defer decoder.Close()
	return decoder.DecodeAll(data, dst)
}

// Wire representation. Instruction immediates are a flattened union: exactly
// one immediate field is set, selected by the opcode.

type classWire struct {
	Name       string       `cbor:"1,keyasint"`
	Super      string       `cbor:"2,keyasint,omitempty"`
	Source     string       `cbor:"3,keyasint,omitempty"`
	Interfaces []string     `cbor:"4,keyasint,omitempty"`
	Methods    []methodWire `cbor:"5,keyasint,omitempty"`
	Access     uint16       `cbor:"6,keyasint,omitempty"`
	Version    uint16       `cbor:"7,keyasint,omitempty"`
}

type methodWire struct {
	Name      string         `cbor:"1,keyasint"`
	Desc      string         `cbor:"2,keyasint"`
	Access    uint16         `cbor:"3,keyasint,omitempty"`
	MaxStack  uint16         `cbor:"4,keyasint,omitempty"`
	MaxLocals uint16         `cbor:"5,keyasint,omitempty"`
	Code      []insnWire     `cbor:"6,keyasint,omitempty"`
	TryCatch  []tryCatchWire `cbor:"7,keyasint,omitempty"`
	LocalVars []localVarWire `cbor:"8,keyasint,omitempty"`
	Throws    []string       `cbor:"9,keyasint,omitempty"`
}

type tryCatchWire struct {
	Type    string `cbor:"1,keyasint,omitempty"`
	Start   uint32 `cbor:"2,keyasint"`
	End     uint32 `cbor:"3,keyasint"`
	Handler uint32 `cbor:"4,keyasint"`
}

type localVarWire struct {
	Name  string `cbor:"1,keyasint"`
	Desc  string `cbor:"2,keyasint"`
	Start uint32 `cbor:"3,keyasint"`
	End   uint32 `cbor:"4,keyasint"`
	Index uint16 `cbor:"5,keyasint"`
}

type insnWire struct {
	Op      byte        `cbor:"1,keyasint"`
	Member  *memberWire `cbor:"2,keyasint,omitempty"`
	Dynamic *indyWire   `cbor:"3,keyasint,omitempty"`
	Var     *uint16     `cbor:"4,keyasint,omitempty"`
	Int     *int32      `cbor:"5,keyasint,omitempty"`
	Ldc     *constWire  `cbor:"6,keyasint,omitempty"`
	Type    *string     `cbor:"7,keyasint,omitempty"`
	Branch  *uint32     `cbor:"8,keyasint,omitempty"`
	Iinc    *iincWire   `cbor:"9,keyasint,omitempty"`
}

type memberWire struct {
	Owner string `cbor:"1,keyasint"`
	Name  string `cbor:"2,keyasint"`
	Desc  string `cbor:"3,keyasint"`
}

type indyWire struct {
	Name      string      `cbor:"1,keyasint"`
	Desc      string      `cbor:"2,keyasint"`
	Bootstrap handleWire  `cbor:"3,keyasint"`
	Args      []constWire `cbor:"4,keyasint,omitempty"`
}

type handleWire struct {
	Owner string `cbor:"1,keyasint"`
	Name  string `cbor:"2,keyasint"`
	Desc  string `cbor:"3,keyasint"`
	Kind  byte   `cbor:"4,keyasint"`
}

// Bootstrap/ldc constant kinds.
const (
	constInt byte = iota + 1
	constLong
	constFloat
	constDouble
	constString
	constMethodType
	constHandle
)

type constWire struct {
	Kind   byte        `cbor:"1,keyasint"`
	Int    int64       `cbor:"2,keyasint,omitempty"`
	Float  float64     `cbor:"3,keyasint,omitempty"`
	Str    string      `cbor:"4,keyasint,omitempty"`
	Handle *handleWire `cbor:"5,keyasint,omitempty"`
}

func classToWire(cls *Class) (*classWire, error) {
	w := &classWire{
		Name:       cls.Name,
		Super:      cls.SuperName,
		Source:     cls.SourceFile,
		Interfaces: cls.Interfaces,
		Access:     cls.Access,
		Version:    cls.Version,
	}
	for _, m := range cls.Methods {
		mw := methodWire{
			Name:      m.Name,
			Desc:      m.Desc,
			Access:    m.Access,
			MaxStack:  m.MaxStack,
			MaxLocals: m.MaxLocals,
			Throws:    m.Throws,
		}
		for _, tc := range m.TryCatch {
			mw.TryCatch = append(mw.TryCatch, tryCatchWire(tc))
		}
		for _, lv := range m.LocalVars {
			mw.LocalVars = append(mw.LocalVars, localVarWire(lv))
		}
		for _, insn := range m.Code {
			iw, err := insnToWire(cls.Name, insn)
			if err != nil {
				return nil, err
			}
			mw.Code = append(mw.Code, iw)
		}
		w.Methods = append(w.Methods, mw)
	}
	return w, nil
}

func insnToWire(className string, insn Instruction) (insnWire, error) {
	w := insnWire{Op: insn.Opcode}
	switch imm := insn.Imm.(type) {
	case nil:
		// plain op
	case MemberImm:
		mw := memberWire(imm)
		w.Member = &mw
	case InvokeDynamicImm:
		dw := &indyWire{
			Name:      imm.Name,
			Desc:      imm.Desc,
			Bootstrap: handleWire(imm.Bootstrap),
		}
		for _, arg := range imm.Args {
			cw, err := constToWire(className, arg)
			if err != nil {
				return insnWire{}, err
			}
			dw.Args = append(dw.Args, cw)
		}
		w.Dynamic = dw
	case VarImm:
		v := imm.Index
		w.Var = &v
	case IntImm:
		v := imm.Value
		w.Int = &v
	case LdcImm:
		cw, err := constToWire(className, imm.Const)
		if err != nil {
			return insnWire{}, err
		}
		w.Ldc = &cw
	case TypeImm:
		v := imm.Name
		w.Type = &v
	case BranchImm:
		v := imm.Target
		w.Branch = &v
	case IincImm:
		iw := iincWire(imm)
		w.Iinc = &iw
	default:
		return insnWire{}, errors.New(errors.PhaseEncode, errors.KindUnsupported).
			Class(className).
			Detail("unsupported immediate %T for opcode 0x%02x", insn.Imm, insn.Opcode).
			Build()
	}
	return w, nil
}

type iincWire struct {
	Index uint16 `cbor:"1,keyasint"`
	Delta int16  `cbor:"2,keyasint"`
}

func constToWire(className string, c interface{}) (constWire, error) {
	switch v := c.(type) {
	case int32:
		return constWire{Kind: constInt, Int: int64(v)}, nil
	case int64:
		return constWire{Kind: constLong, Int: v}, nil
	case float32:
		return constWire{Kind: constFloat, Float: float64(v)}, nil
	case float64:
		return constWire{Kind: constDouble, Float: v}, nil
	case string:
		return constWire{Kind: constString, Str: v}, nil
	case MethodType:
		return constWire{Kind: constMethodType, Str: v.Desc}, nil
	case Handle:
		hw := handleWire(v)
		return constWire{Kind: constHandle, Handle: &hw}, nil
	default:
		return constWire{}, errors.New(errors.PhaseEncode, errors.KindUnsupported).
			Class(className).
			Detail("unsupported constant %T", c).
			Build()
	}
}

func classFromWire(w *classWire) (*Class, error) {
	cls := &Class{
		Name:       w.Name,
		SuperName:  w.Super,
		SourceFile: w.Source,
		Interfaces: w.Interfaces,
		Access:     w.Access,
		Version:    w.Version,
	}
	for i := range w.Methods {
		mw := &w.Methods[i]
		m := &Method{
			Name:      mw.Name,
			Desc:      mw.Desc,
			Access:    mw.Access,
			MaxStack:  mw.MaxStack,
			MaxLocals: mw.MaxLocals,
			Throws:    mw.Throws,
		}
		for _, tc := range mw.TryCatch {
			m.TryCatch = append(m.TryCatch, TryCatchBlock(tc))
		}
		for _, lv := range mw.LocalVars {
			m.LocalVars = append(m.LocalVars, LocalVariable(lv))
		}
		for _, iw := range mw.Code {
			insn, err := insnFromWire(w.Name, iw)
			if err != nil {
				return nil, err
			}
			m.Code = append(m.Code, insn)
		}
		cls.Methods = append(cls.Methods, m)
	}
	return cls, nil
}

func insnFromWire(className string, w insnWire) (Instruction, error) {
	insn := Instruction{Opcode: w.Op}
	switch {
	case w.Member != nil:
		insn.Imm = MemberImm(*w.Member)
	case w.Dynamic != nil:
		imm := InvokeDynamicImm{
			Name:      w.Dynamic.Name,
			Desc:      w.Dynamic.Desc,
			Bootstrap: Handle(w.Dynamic.Bootstrap),
		}
		for _, arg := range w.Dynamic.Args {
			c, err := constFromWire(className, arg)
			if err != nil {
				return Instruction{}, err
			}
			imm.Args = append(imm.Args, c)
		}
		insn.Imm = imm
	case w.Var != nil:
		insn.Imm = VarImm{Index: *w.Var}
	case w.Int != nil:
		insn.Imm = IntImm{Value: *w.Int}
	case w.Ldc != nil:
		c, err := constFromWire(className, *w.Ldc)
		if err != nil {
			return Instruction{}, err
		}
		insn.Imm = LdcImm{Const: c}
	case w.Type != nil:
		insn.Imm = TypeImm{Name: *w.Type}
	case w.Branch != nil:
		insn.Imm = BranchImm{Target: *w.Branch}
	case w.Iinc != nil:
		insn.Imm = IincImm(*w.Iinc)
	}
	return insn, nil
}

func constFromWire(className string, w constWire) (interface{}, error) {
	switch w.Kind {
	case constInt:
		return int32(w.Int), nil
	case constLong:
		return w.Int, nil
	case constFloat:
		return float32(w.Float), nil
	case constDouble:
		return w.Float, nil
	case constString:
		return w.Str, nil
	case constMethodType:
		return MethodType{Desc: w.Str}, nil
	case constHandle:
		if w.Handle == nil {
			return nil, errors.UnreadableClass(className,
				errors.InvalidData(errors.PhaseRead, "handle constant without handle body"))
		}
		return Handle(*w.Handle), nil
	default:
		return nil, errors.UnreadableClass(className,
			errors.InvalidData(errors.PhaseRead, fmt.Sprintf("unknown constant kind %d", w.Kind)))
	}
}
