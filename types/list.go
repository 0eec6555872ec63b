package types

import (
	"fmt"
	"strings"
)

// ArrayValue represents a typed array. Elements are never modified after
// construction; a nil element is null.
type ArrayValue struct {
	typ      *Type
	elements []Value
}

// NewArray creates an array of type t. Every element must be null or have
// type t.Elem(); use Coerce first to widen Integer elements into Decimal.
func NewArray(t *Type, elements []Value) (ArrayValue, error) {
	if !t.IsArray() {
		return ArrayValue{}, fmt.Errorf("%s is not an array type", t)
	}
	elem := t.Elem()
	for i, e := range elements {
		if e != nil && e.Type() != elem {
			return ArrayValue{}, fmt.Errorf("element %d has type %s, want %s", i, e.Type(), elem)
		}
	}
	return ArrayValue{typ: t, elements: elements}, nil
}

// Type returns the array type
func (a ArrayValue) Type() *Type {
	return a.typ
}

// Len returns the number of elements
func (a ArrayValue) Len() int {
	return len(a.elements)
}

// Get returns the element at the 0-based index i
func (a ArrayValue) Get(i int) Value {
	return a.elements[i]
}

// Elements returns the backing slice for iteration. It must not be modified.
func (a ArrayValue) Elements() []Value {
	return a.elements
}

// String returns the literal representation
func (a ArrayValue) String() string {
	parts := make([]string, len(a.elements))
	for i, e := range a.elements {
		parts[i] = Format(e)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// Equal compares type and elements
func (a ArrayValue) Equal(other Value) bool {
	o, ok := other.(ArrayValue)
	if !ok || a.typ != o.typ || len(a.elements) != len(o.elements) {
		return false
	}
	for i := range a.elements {
		if !Same(a.elements[i], o.elements[i]) {
			return false
		}
	}
	return true
}

// Index returns coll[idx]. A null array or null index yields null; an index
// outside [0, len) is ErrIndexOutOfRange.
func Index(coll, idx Value) (Value, error) {
	if coll == nil || idx == nil {
		return nil, nil
	}
	arr, ok := coll.(ArrayValue)
	if !ok {
		return nil, fmt.Errorf("%w: cannot index %s", ErrType, coll.Type())
	}
	i, ok := idx.(IntValue)
	if !ok {
		return nil, fmt.Errorf("%w: index must be Integer, got %s", ErrType, idx.Type())
	}
	if i.Val < 0 || i.Val >= int64(arr.Len()) {
		return nil, fmt.Errorf("%w: index %d, length %d", ErrIndexOutOfRange, i.Val, arr.Len())
	}
	return arr.Get(int(i.Val)), nil
}
