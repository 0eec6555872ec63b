package types

import (
	"fmt"
	"strings"
)

// Kind is the base kind of a Type
type Kind int

const (
	KIND_INTEGER Kind = iota
	KIND_STRING
	KIND_DECIMAL
	KIND_BOOLEAN
	KIND_DATE

	numKinds
)

// MaxDimensions is the deepest array nesting the registry holds
const MaxDimensions = 8

// String returns the name used in type signatures and fixtures
func (k Kind) String() string {
	switch k {
	case KIND_INTEGER:
		return "Integer"
	case KIND_STRING:
		return "String"
	case KIND_DECIMAL:
		return "Decimal"
	case KIND_BOOLEAN:
		return "Boolean"
	case KIND_DATE:
		return "Date"
	default:
		return "Unknown"
	}
}

// Type is a base kind plus an array dimensionality.
//
// Types are canonical: every (kind, dims) pair has exactly one *Type, held in
// a fixed arena that is filled before any code runs and never written again.
// Pointer comparison is therefore type equality, and no locking is needed to
// read the arena from concurrent compilations.
type Type struct {
	kind Kind
	dims int
}

var registry = buildRegistry()

func buildRegistry() *[numKinds][MaxDimensions + 1]Type {
	var r [numKinds][MaxDimensions + 1]Type
	for k := Kind(0); k < numKinds; k++ {
		for d := 0; d <= MaxDimensions; d++ {
			r[k][d] = Type{kind: k, dims: d}
		}
	}
	return &r
}

// Scalar types
var (
	Integer = &registry[KIND_INTEGER][0]
	String  = &registry[KIND_STRING][0]
	Decimal = &registry[KIND_DECIMAL][0]
	Boolean = &registry[KIND_BOOLEAN][0]
	Date    = &registry[KIND_DATE][0]
)

// Of returns the canonical type for kind with the given dimensionality
func Of(kind Kind, dims int) (*Type, error) {
	if kind < 0 || kind >= numKinds {
		return nil, fmt.Errorf("unknown type kind %d", int(kind))
	}
	if dims < 0 || dims > MaxDimensions {
		return nil, fmt.Errorf("array dimensionality %d outside [0, %d]", dims, MaxDimensions)
	}
	return &registry[kind][dims], nil
}

// Kind returns the base kind
func (t *Type) Kind() Kind {
	return t.kind
}

// Dims returns the array dimensionality (0 for scalars)
func (t *Type) Dims() int {
	return t.dims
}

// IsArray reports whether t has at least one dimension
func (t *Type) IsArray() bool {
	return t != nil && t.dims > 0
}

// IsNumeric reports whether t is a scalar Integer or Decimal
func (t *Type) IsNumeric() bool {
	return t != nil && t.dims == 0 && (t.kind == KIND_INTEGER || t.kind == KIND_DECIMAL)
}

// Elem returns the component type of an array, or nil for a scalar
func (t *Type) Elem() *Type {
	if !t.IsArray() {
		return nil
	}
	return &registry[t.kind][t.dims-1]
}

// ArrayOf returns the type of an array whose elements are t
func (t *Type) ArrayOf() (*Type, error) {
	return Of(t.kind, t.dims+1)
}

// WithKind returns the type with the same dimensionality and a different kind
func (t *Type) WithKind(k Kind) *Type {
	return &registry[k][t.dims]
}

// String renders the type as "Decimal" or "Integer[][]". A nil type is the
// type of the null literal.
func (t *Type) String() string {
	if t == nil {
		return "null"
	}
	return t.kind.String() + strings.Repeat("[]", t.dims)
}

// ParseType parses the String form of a type
func ParseType(s string) (*Type, error) {
	s = strings.TrimSpace(s)
	dims := 0
	for strings.HasSuffix(s, "[]") {
		dims++
		s = strings.TrimSpace(strings.TrimSuffix(s, "[]"))
	}
	for k := Kind(0); k < numKinds; k++ {
		if strings.EqualFold(k.String(), s) {
			return Of(k, dims)
		}
	}
	return nil, fmt.Errorf("unknown type %q", s)
}

// Assignable reports whether a value of type src may be stored where dst is
// expected. Integer widens into Decimal at any matching dimensionality, and
// null (nil src) is assignable to everything.
func Assignable(dst, src *Type) bool {
	if src == nil {
		return true
	}
	if dst == nil {
		return false
	}
	if dst == src {
		return true
	}
	return dst.dims == src.dims && dst.kind == KIND_DECIMAL && src.kind == KIND_INTEGER
}

// Common returns the type both a and b convert to, if any
func Common(a, b *Type) (*Type, bool) {
	switch {
	case a == nil && b == nil:
		return nil, false
	case a == nil:
		return b, true
	case b == nil:
		return a, true
	case a == b:
		return a, true
	case Assignable(a, b):
		return a, true
	case Assignable(b, a):
		return b, true
	}
	return nil, false
}

// Comparable reports whether values of a and b can be ordered or tested for
// equality. Only scalars are comparable; Integer and Decimal mix freely.
func Comparable(a, b *Type) bool {
	if a == nil || b == nil {
		return !a.IsArray() && !b.IsArray()
	}
	if a.IsArray() || b.IsArray() {
		return false
	}
	if a.IsNumeric() && b.IsNumeric() {
		return true
	}
	return a == b
}
