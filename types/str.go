package types

import (
	"strings"
)

// StrValue represents a String
type StrValue struct {
	Val string
}

// NewStr creates a new string value
func NewStr(s string) StrValue {
	return StrValue{Val: s}
}

// Type returns the String type
func (s StrValue) Type() *Type {
	return String
}

// String returns the single-quoted literal representation
func (s StrValue) String() string {
	return Quote(s.Val)
}

// Equal compares byte for byte
func (s StrValue) Equal(other Value) bool {
	o, ok := other.(StrValue)
	return ok && s.Val == o.Val
}

// Quote renders s as a single-quoted literal the lexer reads back unchanged
func Quote(s string) string {
	var result strings.Builder
	result.WriteByte('\'')
	for _, r := range s {
		switch r {
		case '\'':
			result.WriteString(`\'`)
		case '\\':
			result.WriteString(`\\`)
		case '\n':
			result.WriteString(`\n`)
		case '\t':
			result.WriteString(`\t`)
		case '\r':
			result.WriteString(`\r`)
		default:
			result.WriteRune(r)
		}
	}
	result.WriteByte('\'')
	return result.String()
}
