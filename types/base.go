package types

// Value is the interface all runtime values implement.
//
// A nil Value is null. Null flows through every operator (see arith.go and
// compare.go) and is also the "indeterminate" result of an ordering
// comparison against null.
type Value interface {
	Type() *Type
	String() string   // literal representation
	Equal(Value) bool // same type and same value
}

// Same reports whether a and b are both null or Equal
func Same(a, b Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(b)
}

// TypeOf returns the type of v, or nil for null
func TypeOf(v Value) *Type {
	if v == nil {
		return nil
	}
	return v.Type()
}

// Format returns the literal representation of v, rendering null as "null"
func Format(v Value) string {
	if v == nil {
		return "null"
	}
	return v.String()
}
