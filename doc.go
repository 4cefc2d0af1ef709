// Package antiagent neutralizes JVM instrumentation agents by rewriting
// selected methods of loaded classes: hook methods are emptied and replaced
// with a type-correct default return, whether they are named overrides or
// runtime-synthesized lambda implementations.
//
// # Architecture Overview
//
// The library is organized into packages with distinct responsibilities:
//
//	antiagent/           Root package documentation
//	├── agent/           Engine orchestration, detection rules, host ports
//	├── transform/       Transformer pipeline and method-body rewriting
//	├── classfile/       Class/method/instruction model and classpack codec
//	├── errors/          Structured error types for debugging
//	└── cmd/agentctl/    Offline CLI and TUI inspector for classpack files
//
// # Quick Start
//
// Arm an engine with the canned cleaners and feed it the host's load hook:
//
//	eng := agent.New(agent.Config{
//	    Transformers: []transform.Transformer{
//	        agent.NewHookCleaner(agent.HookTarget, selfName),
//	        agent.NewDumpStackCleaner(),
//	    },
//	    Resolver: resolver,
//	})
//
//	// inside the host's transform-before-load hook:
//	out, err := eng.Transform(loader, name, identity, data)
//	if err != nil {
//	    return nil, err
//	}
//	return out, nil // nil means "no change"
//
// At startup, sweep classes that loaded before the hook was armed:
//
//	if err := eng.Sweep(inst); err != nil {
//	    log.Fatal(err)
//	}
//
// # Thread Safety
//
// Engine.Transform is safe for concurrent use from multiple loader threads;
// the transformer registries are fixed at construction. Sweep is a one-time
// single-threaded batch operation run before the hook receives traffic.
package antiagent
