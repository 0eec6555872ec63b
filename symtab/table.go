package symtab

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/segmentio/fasthash/fnv1a"

	"tally/types"
)

// Fingerprinter is implemented by tables that can summarize their declared
// shape (variable types and function signatures, not values or function
// bodies). Two tables with the same fingerprint check every expression
// identically, but may fold pure calls to different results.
type Fingerprinter interface {
	Fingerprint() uint64
}

// Variable is a declared variable and its current value
type Variable struct {
	Name  string
	Type  *types.Type
	Value types.Value
}

// Table is a map-backed SymbolTable
type Table struct {
	vars  map[string]*Variable
	funcs map[string]Function
}

// NewTable creates an empty table
func NewTable() *Table {
	return &Table{
		vars:  make(map[string]*Variable),
		funcs: make(map[string]Function),
	}
}

// Declare adds a variable of type t with initial value v, replacing any
// previous declaration of the same name
func (t *Table) Declare(name string, typ *types.Type, v types.Value) error {
	if typ == nil {
		return fmt.Errorf("variable %s: missing type", name)
	}
	c, err := types.Coerce(v, typ)
	if err != nil {
		return fmt.Errorf("variable %s: %w", name, err)
	}
	t.vars[name] = &Variable{Name: name, Type: typ, Value: c}
	return nil
}

// Define registers a function. Function names are a single namespace; a
// second definition of a name replaces the first.
func (t *Table) Define(fn Function) {
	t.funcs[fn.Name()] = fn
}

// Lookup implements SymbolTable
func (t *Table) Lookup(name string) (*types.Type, bool) {
	v, ok := t.vars[name]
	if !ok {
		return nil, false
	}
	return v.Type, true
}

// Get implements SymbolTable
func (t *Table) Get(name string) (types.Value, error) {
	v, ok := t.vars[name]
	if !ok {
		return nil, fmt.Errorf("unknown variable %s", name)
	}
	return v.Value, nil
}

// Set implements SymbolTable
func (t *Table) Set(name string, typ *types.Type, v types.Value) error {
	existing, ok := t.vars[name]
	if !ok {
		return t.Declare(name, typ, v)
	}
	c, err := types.Coerce(v, existing.Type)
	if err != nil {
		return fmt.Errorf("variable %s of type %s: %w", name, existing.Type, err)
	}
	existing.Value = c
	return nil
}

// Function implements SymbolTable
func (t *Table) Function(name string) (Function, bool) {
	fn, ok := t.funcs[name]
	return fn, ok
}

// Variables returns a snapshot of all variables sorted by name
func (t *Table) Variables() []Variable {
	out := make([]Variable, 0, len(t.vars))
	for _, v := range t.vars {
		out = append(out, *v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Functions returns the registered function names, sorted
func (t *Table) Functions() []string {
	out := make([]string, 0, len(t.funcs))
	for name := range t.funcs {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Clone copies the variables; functions are shared
func (t *Table) Clone() *Table {
	c := NewTable()
	for name, v := range t.vars {
		cp := *v
		c.vars[name] = &cp
	}
	for name, fn := range t.funcs {
		c.funcs[name] = fn
	}
	return c
}

// Fingerprint hashes the declared names, types and signatures
func (t *Table) Fingerprint() uint64 {
	var sb strings.Builder
	for _, v := range t.Variables() {
		sb.WriteString("v:")
		sb.WriteString(v.Name)
		sb.WriteByte(':')
		sb.WriteString(v.Type.String())
		sb.WriteByte(';')
	}
	for _, name := range t.Functions() {
		fn := t.funcs[name]
		sb.WriteString("f:")
		sb.WriteString(name)
		sb.WriteString(fn.Signature().String())
		sb.WriteString(fn.ReturnType().String())
		sb.WriteString(strconv.FormatBool(fn.Pure()))
		sb.WriteByte(';')
	}
	return fnv1a.HashString64(sb.String())
}
