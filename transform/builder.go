package transform

// Builder composes a delegate Transformer with optional class and method
// predicates. Build yields a *Filtered when at least one predicate was set,
// otherwise a plain transformer that forwards to the delegate with no
// filtering overhead.
type Builder struct {
	classOK  ClassPredicate
	methodOK MethodPredicate
	delegate Transformer
	filtered bool
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// WithClassFilter sets the class admissibility predicate.
func (b *Builder) WithClassFilter(p ClassPredicate) *Builder {
	b.classOK = p
	b.filtered = true
	return b
}

// WithMethodFilter sets the method admissibility predicate.
func (b *Builder) WithMethodFilter(p MethodPredicate) *Builder {
	b.methodOK = p
	b.filtered = true
	return b
}

// Delegate sets the transformer the built value forwards to.
func (b *Builder) Delegate(t Transformer) *Builder {
	b.delegate = t
	return b
}

// Build returns the composed transformer.
func (b *Builder) Build() Transformer {
	if b.filtered {
		return &Filtered{
			delegate: b.delegate,
			classOK:  b.classOK,
			methodOK: b.methodOK,
		}
	}
	return b.delegate
}
