package agent_test

import (
	"testing"

	"github.com/vladymyr/antiagent/agent"
	"github.com/vladymyr/antiagent/classfile"
	"github.com/vladymyr/antiagent/transform"
)

const selfName = "com/example/shield/Shield"

// lambdaAgentClass models a hostile agent that installs its hook as a lambda:
// no syntactic reference to the hook interface exists anywhere in the class.
func lambdaAgentClass(mutate func(imm *classfile.InvokeDynamicImm)) *classfile.Class {
	imm := classfile.InvokeDynamicImm{
		Name: agent.HookTarget.Name,
		Desc: agent.HookTarget.FactoryDesc(),
		Bootstrap: classfile.Handle{
			Kind:  classfile.HandleInvokeStatic,
			Owner: "java/lang/invoke/LambdaMetafactory",
			Name:  "metafactory",
			Desc:  "(Ljava/lang/invoke/MethodHandles$Lookup;Ljava/lang/String;Ljava/lang/invoke/MethodType;Ljava/lang/invoke/MethodType;Ljava/lang/invoke/MethodHandle;Ljava/lang/invoke/MethodType;)Ljava/lang/invoke/CallSite;",
		},
		Args: []interface{}{
			classfile.MethodType{Desc: agent.HookTarget.Desc},
			classfile.Handle{
				Kind:  classfile.HandleInvokeStatic,
				Owner: "com/example/Hostile",
				Name:  "lambda$impl$0",
				Desc:  agent.HookTarget.Desc,
			},
			classfile.MethodType{Desc: agent.HookTarget.Desc},
		},
	}
	if mutate != nil {
		mutate(&imm)
	}

	return &classfile.Class{
		Name:      "com/example/Hostile",
		SuperName: "java/lang/Object",
		Methods: []*classfile.Method{
			{
				Name: "install",
				Desc: "()V",
				Code: []classfile.Instruction{
					{Opcode: classfile.OpInvokeDynamic, Imm: imm},
					{Opcode: classfile.OpPop},
					{Opcode: classfile.OpReturn},
				},
			},
			{
				Name:   "lambda$impl$0",
				Desc:   agent.HookTarget.Desc,
				Access: classfile.AccPrivate | classfile.AccStatic | classfile.AccSynthetic,
				Code: []classfile.Instruction{
					{Opcode: classfile.OpALoad, Imm: classfile.VarImm{Index: 4}},
					{Opcode: classfile.OpAReturn},
				},
			},
		},
	}
}

func hookFiltered(t *testing.T) *transform.Filtered {
	t.Helper()
	ft, ok := agent.NewHookCleaner(agent.HookTarget, selfName).(*transform.Filtered)
	if !ok {
		t.Fatal("hook cleaner is not a filtered transformer")
	}
	return ft
}

func TestHookCleanerDetectsLambdaImplementation(t *testing.T) {
	ft := hookFiltered(t)
	cls := lambdaAgentClass(nil)
	id := &classfile.Identity{Name: cls.Name}

	if !ft.ValidateClass(id, cls) {
		t.Fatal("class with matching dynamic call site not marked for rewrite")
	}

	// Validation empties the synthesized implementation as a side effect.
	lambda := cls.FindMethod("lambda$impl$0", agent.HookTarget.Desc)
	if lambda == nil {
		t.Fatal("lambda method disappeared")
	}
	want := []byte{classfile.OpAConstNull, classfile.OpAReturn}
	if len(lambda.Code) != 2 || lambda.Code[0].Opcode != want[0] || lambda.Code[1].Opcode != want[1] {
		t.Errorf("lambda method not emptied, code: %v", lambda.Code)
	}

	// The installing method itself is untouched.
	if install := cls.FindMethod("install", "()V"); len(install.Code) != 3 {
		t.Errorf("unrelated method mutated, %d instructions", len(install.Code))
	}
}

func TestHookCleanerRejectsMalformedCallSites(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(imm *classfile.InvokeDynamicImm)
	}{
		{"short bootstrap list", func(imm *classfile.InvokeDynamicImm) {
			imm.Args = imm.Args[:1]
		}},
		{"empty bootstrap list", func(imm *classfile.InvokeDynamicImm) {
			imm.Args = nil
		}},
		{"first constant not a method type", func(imm *classfile.InvokeDynamicImm) {
			imm.Args[0] = "not a method type"
		}},
		{"second constant not a handle", func(imm *classfile.InvokeDynamicImm) {
			imm.Args[1] = classfile.MethodType{Desc: agent.HookTarget.Desc}
		}},
		{"non-static handle", func(imm *classfile.InvokeDynamicImm) {
			h := imm.Args[1].(classfile.Handle)
			h.Kind = classfile.HandleInvokeVirtual
			imm.Args[1] = h
		}},
		{"handle descriptor mismatch", func(imm *classfile.InvokeDynamicImm) {
			h := imm.Args[1].(classfile.Handle)
			h.Desc = "()V"
			imm.Args[1] = h
		}},
		{"erased type mismatch", func(imm *classfile.InvokeDynamicImm) {
			imm.Args[0] = classfile.MethodType{Desc: "()V"}
		}},
		{"call site name mismatch", func(imm *classfile.InvokeDynamicImm) {
			imm.Name = "accept"
		}},
		{"factory descriptor mismatch", func(imm *classfile.InvokeDynamicImm) {
			imm.Desc = "()Ljava/util/function/Supplier;"
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ft := hookFiltered(t)
			cls := lambdaAgentClass(tt.mutate)
			id := &classfile.Identity{Name: cls.Name}

			if ft.ValidateClass(id, cls) {
				t.Fatal("malformed call site marked class for rewrite")
			}
			lambda := cls.FindMethod("lambda$impl$0", agent.HookTarget.Desc)
			if len(lambda.Code) != 2 || lambda.Code[0].Opcode != classfile.OpALoad {
				t.Error("lambda method mutated despite rejected call site")
			}
		})
	}
}

func TestHookCleanerSyntacticInterface(t *testing.T) {
	cls := &classfile.Class{
		Name:       "com/example/Named",
		Interfaces: []string{agent.HookTarget.Interface},
		Methods: []*classfile.Method{
			{Name: agent.HookTarget.Name, Desc: agent.HookTarget.Desc, Code: []classfile.Instruction{
				{Opcode: classfile.OpAConstNull},
				{Opcode: classfile.OpAReturn},
			}},
		},
	}
	ft := hookFiltered(t)

	if !ft.ValidateClass(&classfile.Identity{Name: cls.Name}, cls) {
		t.Error("class declaring the interface directly not marked")
	}
	if !ft.ValidateMethod(cls.Methods[0]) {
		t.Error("hook method rejected by method filter")
	}
	if ft.ValidateMethod(&classfile.Method{Name: agent.HookTarget.Name, Desc: "()V"}) {
		t.Error("descriptor mismatch accepted by method filter")
	}
}

func TestHookCleanerRuntimeAssignability(t *testing.T) {
	ft := hookFiltered(t)

	assignable := &classfile.Identity{
		Name:       "com/example/SubClass",
		Assignable: []string{agent.HookTarget.Interface, "java/lang/Object"},
	}
	if !ft.ValidateClass(assignable, nil) {
		t.Error("assignable identity with absent tree not marked")
	}

	self := &classfile.Identity{
		Name:       selfName,
		Assignable: []string{agent.HookTarget.Interface},
	}
	if ft.ValidateClass(self, nil) {
		t.Error("the agent's own class must be exempt")
	}

	iface := &classfile.Identity{Name: agent.HookTarget.Interface}
	if ft.ValidateClass(iface, nil) {
		t.Error("the interface itself must be exempt")
	}

	unrelated := &classfile.Identity{Name: "com/example/Plain", Assignable: []string{"java/lang/Object"}}
	if ft.ValidateClass(unrelated, nil) {
		t.Error("unrelated identity marked for rewrite")
	}
	if ft.ValidateClass(nil, nil) {
		t.Error("absent identity and absent tree marked for rewrite")
	}
}

func TestExactCleaner(t *testing.T) {
	ft, ok := agent.NewDumpStackCleaner().(*transform.Filtered)
	if !ok {
		t.Fatal("exact cleaner is not a filtered transformer")
	}

	thread := &classfile.Identity{Name: "java/lang/Thread"}
	if !ft.ValidateClass(thread, nil) {
		t.Error("target class rejected")
	}
	if ft.ValidateClass(&classfile.Identity{Name: "java/lang/Runtime"}, nil) {
		t.Error("non-target class accepted")
	}
	if ft.ValidateClass(nil, nil) {
		t.Error("nil identity accepted")
	}

	if !ft.ValidateMethod(&classfile.Method{Name: "dumpStack", Desc: "()V"}) {
		t.Error("target method rejected")
	}
	if ft.ValidateMethod(&classfile.Method{Name: "dumpStack", Desc: "(I)V"}) {
		t.Error("descriptor mismatch accepted")
	}
}
