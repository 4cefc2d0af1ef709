package classfile_test

import (
	"reflect"
	"testing"

	"github.com/vladymyr/antiagent/classfile"
	"github.com/vladymyr/antiagent/errors"
)

func sampleClass() *classfile.Class {
	return &classfile.Class{
		Name:       "com/example/Agent",
		SuperName:  "java/lang/Object",
		SourceFile: "Agent.java",
		Interfaces: []string{"java/lang/instrument/ClassFileTransformer"},
		Access:     classfile.AccPublic | classfile.AccSuper,
		Version:    52,
		Methods: []*classfile.Method{
			{
				Name:      "<init>",
				Desc:      "()V",
				Access:    classfile.AccPublic,
				MaxStack:  1,
				MaxLocals: 1,
				Code: []classfile.Instruction{
					{Opcode: classfile.OpALoad, Imm: classfile.VarImm{Index: 0}},
					{Opcode: classfile.OpInvokeSpecial, Imm: classfile.MemberImm{
						Owner: "java/lang/Object", Name: "<init>", Desc: "()V",
					}},
					{Opcode: classfile.OpReturn},
				},
			},
			{
				Name:      "install",
				Desc:      "()Ljava/lang/instrument/ClassFileTransformer;",
				Access:    classfile.AccPublic | classfile.AccStatic,
				MaxStack:  1,
				MaxLocals: 0,
				Throws:    []string{"java/io/IOException"},
				Code: []classfile.Instruction{
					{Opcode: classfile.OpInvokeDynamic, Imm: classfile.InvokeDynamicImm{
						Name: "transform",
						Desc: "()Ljava/lang/instrument/ClassFileTransformer;",
						Bootstrap: classfile.Handle{
							Kind:  classfile.HandleInvokeStatic,
							Owner: "java/lang/invoke/LambdaMetafactory",
							Name:  "metafactory",
							Desc:  "(Ljava/lang/invoke/MethodHandles$Lookup;Ljava/lang/String;Ljava/lang/invoke/MethodType;Ljava/lang/invoke/MethodType;Ljava/lang/invoke/MethodHandle;Ljava/lang/invoke/MethodType;)Ljava/lang/invoke/CallSite;",
						},
						Args: []interface{}{
							classfile.MethodType{Desc: "(Ljava/lang/ClassLoader;Ljava/lang/String;Ljava/lang/Class;Ljava/security/ProtectionDomain;[B)[B"},
							classfile.Handle{
								Kind:  classfile.HandleInvokeStatic,
								Owner: "com/example/Agent",
								Name:  "lambda$install$0",
								Desc:  "(Ljava/lang/ClassLoader;Ljava/lang/String;Ljava/lang/Class;Ljava/security/ProtectionDomain;[B)[B",
							},
							classfile.MethodType{Desc: "(Ljava/lang/ClassLoader;Ljava/lang/String;Ljava/lang/Class;Ljava/security/ProtectionDomain;[B)[B"},
						},
					}},
					{Opcode: classfile.OpAReturn},
				},
			},
			{
				Name:      "count",
				Desc:      "(Ljava/lang/String;)I",
				Access:    classfile.AccPrivate,
				MaxStack:  2,
				MaxLocals: 3,
				TryCatch: []classfile.TryCatchBlock{
					{Type: "java/lang/Exception", Start: 0, End: 4, Handler: 5},
				},
				LocalVars: []classfile.LocalVariable{
					{Name: "s", Desc: "Ljava/lang/String;", Start: 0, End: 6, Index: 1},
				},
				Code: []classfile.Instruction{
					{Opcode: classfile.OpLdc, Imm: classfile.LdcImm{Const: "prefix"}},
					{Opcode: classfile.OpSIPush, Imm: classfile.IntImm{Value: 512}},
					{Opcode: classfile.OpIInc, Imm: classfile.IincImm{Index: 2, Delta: -1}},
					{Opcode: classfile.OpIfEq, Imm: classfile.BranchImm{Target: 6}},
					{Opcode: classfile.OpCheckCast, Imm: classfile.TypeImm{Name: "java/lang/String"}},
					{Opcode: classfile.OpIConst0},
					{Opcode: classfile.OpIReturn},
				},
			},
		},
	}
}

func TestClasspackRoundTrip(t *testing.T) {
	codec := classfile.NewClasspackCodec()
	cls := sampleClass()

	data, err := codec.Encode(cls)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("encode produced no bytes")
	}

	decoded, err := codec.Decode(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !reflect.DeepEqual(cls, decoded) {
		t.Errorf("round trip mismatch:\n got %#v\nwant %#v", decoded, cls)
	}
}

func TestClasspackRoundTripUncompressed(t *testing.T) {
	codec := &classfile.ClasspackCodec{DisableCompression: true}
	cls := sampleClass()

	data, err := codec.Encode(cls)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	decoded, err := codec.Decode(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !reflect.DeepEqual(cls, decoded) {
		t.Error("uncompressed round trip mismatch")
	}

	// A compressing codec must still read an uncompressed pack.
	decoded, err = classfile.NewClasspackCodec().Decode(data)
	if err != nil {
		t.Fatalf("decode with default codec: %v", err)
	}
	if !reflect.DeepEqual(cls, decoded) {
		t.Error("cross-codec round trip mismatch")
	}
}

func TestClasspackDecodeErrors(t *testing.T) {
	codec := classfile.NewClasspackCodec()

	good, err := codec.Encode(sampleClass())
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	badMagic := append([]byte{'X', 'X', 'X', 'X'}, good[4:]...)
	badVersion := append([]byte{}, good...)
	badVersion[4] = 99
	corruptBody := append([]byte{}, good...)
	for i := 6; i < len(corruptBody); i++ {
		corruptBody[i] ^= 0xFF
	}

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"truncated header", good[:3]},
		{"bad magic", badMagic},
		{"bad version", badVersion},
		{"corrupt body", corruptBody},
	}

	for _, tt := range tests {
		_, err := codec.Decode(tt.data)
		if err == nil {
			t.Errorf("%s: expected error, got none", tt.name)
			continue
		}
		if !errors.IsUnreadableClass(err) {
			t.Errorf("%s: error is not unreadable_class: %v", tt.name, err)
		}
	}
}

func TestEncodeNilClass(t *testing.T) {
	if _, err := classfile.NewClasspackCodec().Encode(nil); err == nil {
		t.Fatal("expected error encoding nil class")
	}
}
