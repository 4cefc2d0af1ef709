// Package agent orchestrates class rewriting across the two processing
// paths of a load-time instrumentation agent: classes not yet defined by the
// host runtime (the pre-load hook) and classes already resident (the
// one-time redefinition sweep).
//
// # Engine
//
// An Engine owns two registries of transformers, populated at construction
// and immutable afterwards:
//
//	eng := agent.New(agent.Config{
//		Transformers: []transform.Transformer{hookCleaner},
//		Redefiners:   []transform.Transformer{hookCleaner, dumpStackCleaner},
//		Codec:        classfile.NewClasspackCodec(),
//		Resolver:     resolver,
//	})
//
// The host load-hook calls Transform for each class about to be defined and
// receives either replacement bytes or nil meaning "no modification".
// Sweep enumerates already-loaded classes and submits one batch redefinition
// request for every class at least one transformer accepted. Every failure
// degrades to leaving the affected class or method unmodified; nothing
// propagates to the host hook as a fault.
//
// # Detection Rules
//
// NewHookCleaner builds the transformer that neutralizes implementations of
// a functional interface's method, including implementations supplied as
// lambdas: it pattern-matches dynamic call sites whose symbolic type and
// name match the lambda factory shape for the target, extracts the
// synthesized implementation method from the bootstrap constants, and
// empties it. NewExactCleaner targets a fixed method in a fixed class.
package agent
