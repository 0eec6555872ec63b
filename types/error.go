package types

import (
	"errors"
	"fmt"
)

// ErrorKind classifies an Error
type ErrorKind int

const (
	ERR_LEX ErrorKind = iota
	ERR_PARSE
	ERR_UNKNOWN_VARIABLE
	ERR_UNKNOWN_FUNCTION
	ERR_ILLEGAL_TYPE
	ERR_TRANSLATION
	ERR_RUNTIME
)

// String returns the name of the error kind
func (k ErrorKind) String() string {
	switch k {
	case ERR_LEX:
		return "LexError"
	case ERR_PARSE:
		return "ParseError"
	case ERR_UNKNOWN_VARIABLE:
		return "UnknownVariable"
	case ERR_UNKNOWN_FUNCTION:
		return "UnknownFunction"
	case ERR_ILLEGAL_TYPE:
		return "IllegalTypeError"
	case ERR_TRANSLATION:
		return "TranslationError"
	case ERR_RUNTIME:
		return "RuntimeError"
	default:
		return "UnknownError"
	}
}

// IsSemantic reports whether k is one of the checker's error kinds
func (k ErrorKind) IsSemantic() bool {
	return k == ERR_UNKNOWN_VARIABLE || k == ERR_UNKNOWN_FUNCTION || k == ERR_ILLEGAL_TYPE
}

// IsCompile reports whether k aborts compilation
func (k ErrorKind) IsCompile() bool {
	return k == ERR_LEX || k == ERR_PARSE || k.IsSemantic()
}

// Error is the error value produced by every stage. Line and Column are
// 1-based and point at the offending source construct.
type Error struct {
	Kind   ErrorKind
	Msg    string
	Line   int
	Column int
	Cause  error
}

// Errorf creates an Error with a formatted message
func Errorf(kind ErrorKind, line, column int, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Line: line, Column: column}
}

// WrapError creates an Error of the given kind around cause
func WrapError(kind ErrorKind, line, column int, cause error) *Error {
	return &Error{Kind: kind, Msg: cause.Error(), Line: line, Column: column, Cause: cause}
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s at line %d, column %d: %s", e.Kind, e.Line, e.Column, e.Msg)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// KindOf returns the kind of the outermost *Error in err's chain
func KindOf(err error) (ErrorKind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

// IsCompileError reports whether err aborted compilation
func IsCompileError(err error) bool {
	k, ok := KindOf(err)
	return ok && k.IsCompile()
}

// Runtime failures raised by the value operations. Backends wrap them in an
// ERR_RUNTIME Error carrying the position of the node that failed.
var (
	ErrType            = errors.New("type mismatch")
	ErrOverflow        = errors.New("integer overflow")
	ErrDivisionByZero  = errors.New("division by zero")
	ErrIndexOutOfRange = errors.New("index out of range")
	ErrDecimal         = errors.New("decimal arithmetic error")
)
