package agent

import (
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/vladymyr/antiagent/classfile"
	"github.com/vladymyr/antiagent/errors"
	"github.com/vladymyr/antiagent/transform"
)

// Config configures an Engine.
type Config struct {
	// Transformers rewrite classes before they are defined by the host
	// (the pre-load path).
	Transformers []transform.Transformer

	// Redefiners rewrite classes already loaded when the engine starts
	// (the sweep path).
	Redefiners []transform.Transformer

	// Codec converts between raw bytes and the class tree. Defaults to the
	// classpack codec.
	Codec classfile.Codec

	// Resolver reads class trees by name when the hook supplies no bytes
	// and during the sweep.
	Resolver Resolver

	// Logger receives degradation events (unreadable classes, skipped
	// methods, batch sizes). Defaults to a no-op logger.
	Logger *zap.Logger
}

// Engine drives the read, filter, rewrite, write cycle for both processing
// paths. Its two transformer registries are fixed at construction; an armed
// engine supports concurrent Transform calls without locking anything but
// the advisory processed-set.
type Engine struct {
	transformers []transform.Transformer
	redefiners   []transform.Transformer
	codec        classfile.Codec
	resolver     Resolver
	log          *zap.Logger

	mu        sync.Mutex
	processed map[string]struct{}
}

// New creates an Engine from cfg. The transformer slices are copied; later
// mutation of the caller's slices does not affect the engine.
func New(cfg Config) *Engine {
	codec := cfg.Codec
	if codec == nil {
		codec = classfile.NewClasspackCodec()
	}
	log := cfg.Logger
	if log == nil {
		log = Logger()
	}
	e := &Engine{
		transformers: make([]transform.Transformer, len(cfg.Transformers)),
		redefiners:   make([]transform.Transformer, len(cfg.Redefiners)),
		codec:        codec,
		resolver:     cfg.Resolver,
		log:          log,
		processed:    make(map[string]struct{}),
	}
	copy(e.transformers, cfg.Transformers)
	copy(e.redefiners, cfg.Redefiners)
	return e
}

// Transform is the pre-load entry point, called by the host hook with the
// loader identity, the class name (possibly empty), the runtime identity
// (possibly nil), and the raw class bytes.
//
// The return value is (nil, nil) for "no modification", replacement bytes on
// rewrite, or a structured error for failures other than "no change". An
// unreadable class degrades to no modification.
func (e *Engine) Transform(loader, name string, id *classfile.Identity, data []byte) ([]byte, error) {
	if name == "" {
		return nil, nil
	}

	cls, err := e.readClass(name, data)
	if err != nil {
		// Unreadable bytes abort only this one class, reported to the host
		// as no change.
		e.log.Debug("class unreadable, left unmodified",
			zap.String("loader", loader),
			zap.String("class", name),
			zap.Error(err))
		return nil, nil
	}

	var accepted []transform.Transformer
	for _, t := range e.transformers {
		if ft, ok := t.(*transform.Filtered); ok && !ft.ValidateClass(id, cls) {
			continue
		}
		accepted = append(accepted, t)
	}
	if len(accepted) == 0 {
		return nil, nil
	}

	return e.apply(cls, accepted)
}

// Sweep runs the one-time batch pass over already-loaded classes. For every
// modifiable class, each redefiner validates cheaply against the runtime
// identity alone; only if it might match is the tree read, once, shared
// across redefiners, and validation re-run with the tree present. Classes
// whose bytes cannot be read are excluded from the batch. A single batch
// redefinition request is submitted at the end; zero candidates means no
// request at all.
//
// Sweep is single-threaded and must complete before the pre-load hook is
// armed for concurrent calls.
func (e *Engine) Sweep(inst Instrumentation) error {
	if inst == nil || !inst.RedefineSupported() {
		return nil
	}

	var defs []Definition
	for _, id := range inst.LoadedClasses() {
		if !inst.IsModifiable(id) {
			continue
		}

		var cls *classfile.Class
		readFailed := false
		read := func() {
			if cls != nil || readFailed {
				return
			}
			var err error
			cls, err = e.resolver.ReadClass(id.Name)
			if err != nil {
				// Transient classes have no resolvable byte source; they
				// are excluded from the batch, not fatal to the sweep.
				readFailed = true
				e.log.Debug("class unreadable, excluded from sweep",
					zap.String("class", id.Name),
					zap.Error(err))
			}
		}

		var accepted []transform.Transformer
		for _, t := range e.redefiners {
			if ft, ok := t.(*transform.Filtered); ok {
				if !ft.ValidateClass(&id, nil) {
					continue
				}
				read()
				if readFailed {
					break
				}
				if !ft.ValidateClass(&id, cls) {
					continue
				}
			} else {
				read()
				if readFailed {
					break
				}
			}
			accepted = append(accepted, t)
		}
		if readFailed || len(accepted) == 0 {
			continue
		}

		data, err := e.apply(cls, accepted)
		if err != nil {
			e.log.Warn("rewrite failed, class excluded from sweep",
				zap.String("class", id.Name),
				zap.Error(err))
			continue
		}
		defs = append(defs, Definition{Class: id, Data: data})
	}

	if len(defs) == 0 {
		// Nothing matched; submitting an empty batch is not allowed.
		return nil
	}

	e.log.Info("submitting batch redefinition", zap.Int("classes", len(defs)))
	return inst.RedefineClasses(defs)
}

// Processed returns the names of classes rewritten so far, sorted. The set
// is advisory bookkeeping for diagnostics; it is never read back for
// correctness decisions.
func (e *Engine) Processed() []string {
	e.mu.Lock()
	names := make([]string, 0, len(e.processed))
	for name := range e.processed {
		names = append(names, name)
	}
	e.mu.Unlock()
	sort.Strings(names)
	return names
}

// readClass materializes the class tree once per Transform invocation,
// preferring the bytes supplied by the hook.
func (e *Engine) readClass(name string, data []byte) (*classfile.Class, error) {
	if len(data) > 0 {
		return e.codec.Decode(data)
	}
	if e.resolver == nil {
		return nil, errors.UnreadableClass(name, nil)
	}
	return e.resolver.ReadClass(name)
}

// apply drives every accepted transformer over every method of cls, in
// registration order, then re-encodes the tree. Filtered transformers skip
// methods their predicate rejects.
func (e *Engine) apply(cls *classfile.Class, accepted []transform.Transformer) ([]byte, error) {
	for _, m := range cls.Methods {
		for _, t := range accepted {
			if ft, ok := t.(*transform.Filtered); ok && !ft.ValidateMethod(m) {
				continue
			}
			transform.Process(t, m)
		}
	}

	data, err := e.codec.Encode(cls)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	e.processed[cls.Name] = struct{}{}
	e.mu.Unlock()
	return data, nil
}
