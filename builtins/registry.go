// Package builtins is the standard function library hosts can install into
// a symbol table.
package builtins

import (
	"math/rand"
	"sort"
	"time"

	"tally/symtab"
	"tally/types"
)

// Options controls the non-deterministic functions
type Options struct {
	Now  func() time.Time
	Rand *rand.Rand
}

// Registry holds all registered builtin functions
type Registry struct {
	funcs map[string]symtab.Function
	opts  Options
}

// NewRegistry creates a registry with the standard functions
func NewRegistry() *Registry {
	return NewRegistryWith(Options{})
}

// NewRegistryWith creates a registry whose now() and random() use opts
func NewRegistryWith(opts Options) *Registry {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	r := &Registry{
		funcs: make(map[string]symtab.Function),
		opts:  opts,
	}

	decArr, _ := types.Decimal.ArrayOf()

	// Math
	r.Register(symtab.NewFunc("abs", types.Decimal, symtab.Sig(types.Decimal), symtab.NullSafe(builtinAbs)))
	r.Register(symtab.NewFunc("round", types.Decimal, symtab.Sig(types.Decimal, types.Integer), symtab.NullSafe(builtinRound)))
	r.Register(symtab.NewFunc("floor", types.Integer, symtab.Sig(types.Decimal), symtab.NullSafe(builtinFloor)))
	r.Register(symtab.NewFunc("ceil", types.Integer, symtab.Sig(types.Decimal), symtab.NullSafe(builtinCeil)))
	r.Register(symtab.NewFunc("min", types.Decimal, symtab.VarSig(types.Decimal, types.Decimal), symtab.NullSafe(builtinMin)))
	r.Register(symtab.NewFunc("max", types.Decimal, symtab.VarSig(types.Decimal, types.Decimal), symtab.NullSafe(builtinMax)))
	r.Register(symtab.NewFunc("sum", types.Decimal, symtab.Sig(decArr), symtab.NullSafe(builtinSum)))
	r.Register(symtab.NewFunc("count", types.Integer, symtab.Sig(decArr), symtab.NullSafe(builtinCount)))
	r.Register(symtab.NewFunc("coalesce", types.Decimal, symtab.VarSig(types.Decimal, types.Decimal), builtinCoalesce))
	r.Register(symtab.NewFunc("str", types.String, symtab.Sig(types.Decimal), symtab.NullSafe(builtinStr)))
	r.Register(symtab.NewImpureFunc("random", types.Decimal, symtab.Sig(), r.builtinRandom))

	// Strings
	r.Register(symtab.NewFunc("len", types.Integer, symtab.Sig(types.String), symtab.NullSafe(builtinLen)))
	r.Register(symtab.NewFunc("concat", types.String, symtab.VarSig(types.String), builtinConcat))
	r.Register(symtab.NewFunc("upper", types.String, symtab.Sig(types.String), symtab.NullSafe(builtinUpper)))
	r.Register(symtab.NewFunc("lower", types.String, symtab.Sig(types.String), symtab.NullSafe(builtinLower)))
	r.Register(symtab.NewFunc("trim", types.String, symtab.Sig(types.String), symtab.NullSafe(builtinTrim)))
	r.Register(symtab.NewFunc("substr", types.String, symtab.Sig(types.String, types.Integer, types.Integer), symtab.NullSafe(builtinSubstr)))
	r.Register(symtab.NewFunc("hash", types.String, symtab.VarSig(types.String, types.String), symtab.NullSafe(builtinHash)))

	// Dates
	r.Register(symtab.NewFunc("date", types.Date, symtab.Sig(types.Integer, types.Integer, types.Integer), symtab.NullSafe(builtinDate)))
	r.Register(symtab.NewFunc("year", types.Integer, symtab.Sig(types.Date), symtab.NullSafe(builtinYear)))
	r.Register(symtab.NewFunc("month", types.Integer, symtab.Sig(types.Date), symtab.NullSafe(builtinMonth)))
	r.Register(symtab.NewFunc("day", types.Integer, symtab.Sig(types.Date), symtab.NullSafe(builtinDay)))
	r.Register(symtab.NewFunc("days_between", types.Integer, symtab.Sig(types.Date, types.Date), symtab.NullSafe(builtinDaysBetween)))
	r.Register(symtab.NewImpureFunc("now", types.Date, symtab.Sig(), r.builtinNow))

	return r
}

// Register adds or replaces a function
func (r *Registry) Register(fn symtab.Function) {
	r.funcs[fn.Name()] = fn
}

// Get retrieves a function by name
func (r *Registry) Get(name string) (symtab.Function, bool) {
	fn, ok := r.funcs[name]
	return fn, ok
}

// Names returns all registered names, sorted
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.funcs))
	for name := range r.funcs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Install defines every registered function in t
func (r *Registry) Install(t *symtab.Table) {
	for _, name := range r.Names() {
		t.Define(r.funcs[name])
	}
}

// Register installs the standard functions into t
func Register(t *symtab.Table) {
	NewRegistry().Install(t)
}
