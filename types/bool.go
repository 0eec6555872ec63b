package types

// BoolValue represents a Boolean
type BoolValue struct {
	Val bool
}

// True and False are the two Boolean values
var (
	True  = BoolValue{Val: true}
	False = BoolValue{Val: false}
)

// NewBool creates a new BoolValue
func NewBool(val bool) BoolValue {
	return BoolValue{Val: val}
}

// Type returns the Boolean type
func (b BoolValue) Type() *Type {
	return Boolean
}

// String returns the literal representation
func (b BoolValue) String() string {
	if b.Val {
		return "true"
	}
	return "false"
}

// Equal checks deep equality
func (b BoolValue) Equal(other Value) bool {
	o, ok := other.(BoolValue)
	return ok && b.Val == o.Val
}
