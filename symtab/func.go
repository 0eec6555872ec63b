package symtab

import "tally/types"

// Impl is the body of a Func. Arguments have already been converted to
// the declared parameter types.
type Impl func(args []types.Value) (types.Value, error)

// Func is a Function backed by a Go closure
type Func struct {
	name    string
	returns *types.Type
	sig     Signature
	impure  bool
	impl    Impl
}

// NewFunc creates a pure function
func NewFunc(name string, returns *types.Type, sig Signature, impl Impl) *Func {
	return &Func{name: name, returns: returns, sig: sig, impl: impl}
}

// NewImpureFunc creates a function that must never be folded
func NewImpureFunc(name string, returns *types.Type, sig Signature, impl Impl) *Func {
	f := NewFunc(name, returns, sig, impl)
	f.impure = true
	return f
}

func (f *Func) Name() string            { return f.name }
func (f *Func) ReturnType() *types.Type { return f.returns }
func (f *Func) Signature() Signature    { return f.sig }
func (f *Func) Pure() bool              { return !f.impure }

func (f *Func) Call(args []types.Value) (types.Value, error) {
	return f.impl(args)
}

// NullSafe wraps impl so that any null argument yields null without
// calling it
func NullSafe(impl Impl) Impl {
	return func(args []types.Value) (types.Value, error) {
		for _, a := range args {
			if a == nil {
				return nil, nil
			}
		}
		return impl(args)
	}
}
