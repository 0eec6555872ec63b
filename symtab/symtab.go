// Package symtab defines the environment expressions run against: typed
// variables and host functions. The host owns the table; compilation and
// every backend consult it by reference.
package symtab

import (
	"fmt"
	"strings"

	"tally/types"
)

// SymbolTable is the host environment.
//
// Implementations are not required to be safe for concurrent use; running
// two expressions against one table needs external serialization.
type SymbolTable interface {
	// Lookup returns the declared type of a variable
	Lookup(name string) (*types.Type, bool)
	// Get returns the current value of a declared variable
	Get(name string) (types.Value, error)
	// Set stores v. An undeclared variable is declared with type t; a
	// declared one keeps its type and v must be assignable to it.
	Set(name string, t *types.Type, v types.Value) error
	// Function resolves a host function by name
	Function(name string) (Function, bool)
}

// Function is a host-callable function
type Function interface {
	Name() string
	ReturnType() *types.Type
	Signature() Signature
	// Pure reports whether the result depends only on the arguments, so
	// calls with constant arguments may be folded at compile time
	Pure() bool
	Call(args []types.Value) (types.Value, error)
}

// Signature lists the parameter types of a function. When Variadic is set
// the last parameter may repeat for any number of trailing arguments,
// including zero.
type Signature struct {
	Params   []*types.Type
	Variadic bool
}

// Sig builds a fixed-arity signature
func Sig(params ...*types.Type) Signature {
	return Signature{Params: params}
}

// VarSig builds a signature whose last parameter repeats
func VarSig(params ...*types.Type) Signature {
	return Signature{Params: params, Variadic: true}
}

// ParamType returns the declared type for argument i, or nil if the
// signature has no such position
func (s Signature) ParamType(i int) *types.Type {
	switch {
	case i < len(s.Params):
		return s.Params[i]
	case s.Variadic && len(s.Params) > 0:
		return s.Params[len(s.Params)-1]
	}
	return nil
}

// Accepts reports whether arguments of the given static types may be
// passed positionally
func (s Signature) Accepts(args []*types.Type) bool {
	min := len(s.Params)
	if s.Variadic && min > 0 {
		min--
	}
	if len(args) < min || (!s.Variadic && len(args) > len(s.Params)) {
		return false
	}
	for i, a := range args {
		p := s.ParamType(i)
		if p == nil || !types.Assignable(p, a) {
			return false
		}
	}
	return true
}

// Equal compares parameter lists and the repeat flag
func (s Signature) Equal(o Signature) bool {
	if s.Variadic != o.Variadic || len(s.Params) != len(o.Params) {
		return false
	}
	for i := range s.Params {
		if s.Params[i] != o.Params[i] {
			return false
		}
	}
	return true
}

// String renders the signature as "(Decimal, Integer...)"
func (s Signature) String() string {
	parts := make([]string, len(s.Params))
	for i, p := range s.Params {
		parts[i] = p.String()
	}
	if s.Variadic && len(parts) > 0 {
		parts[len(parts)-1] += "..."
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// Invoke converts args to the declared parameter types, calls fn and
// converts the result to its declared return type
func Invoke(fn Function, args []types.Value) (types.Value, error) {
	sig := fn.Signature()
	converted := make([]types.Value, len(args))
	for i, a := range args {
		p := sig.ParamType(i)
		if p == nil {
			return nil, fmt.Errorf("%s: too many arguments (%d)", fn.Name(), len(args))
		}
		c, err := types.Coerce(a, p)
		if err != nil {
			return nil, fmt.Errorf("%s: argument %d: %w", fn.Name(), i+1, err)
		}
		converted[i] = c
	}
	result, err := fn.Call(converted)
	if err != nil {
		return nil, err
	}
	out, err := types.Coerce(result, fn.ReturnType())
	if err != nil {
		return nil, fmt.Errorf("%s: result: %w", fn.Name(), err)
	}
	return out, nil
}
