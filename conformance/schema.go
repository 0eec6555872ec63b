// Package conformance runs golden expression fixtures against every
// backend. A fixture names an expression, the variables it starts from,
// and either the value it returns and the variables it leaves behind or the
// kind of error it fails with.
package conformance

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"tally/types"
)

// Fixture is one golden case
type Fixture struct {
	Name               string      `yaml:"name"`
	Expression         string      `yaml:"expression"`
	ReturnValue        *TypedValue `yaml:"returnValue,omitempty"`
	FailsWithException *Exception  `yaml:"failsWithException,omitempty"`
	VariableListBefore []Variable  `yaml:"variableListBefore,omitempty"`
	VariableListAfter  []Variable  `yaml:"variableListAfter,omitempty"`
	Skip               string      `yaml:"skip,omitempty"`
	File               string      `yaml:"-"`
}

// TypedValue is a value and the name of its type. Value is a scalar, a
// sequence for array types, or null.
type TypedValue struct {
	Type  string    `yaml:"type"`
	Value yaml.Node `yaml:"value"`
}

// Variable is a symbol table entry
type Variable struct {
	Name  string    `yaml:"name"`
	Type  string    `yaml:"type"`
	Value yaml.Node `yaml:"value"`
}

// Decode converts the value to its declared type
func (tv TypedValue) Decode() (*types.Type, types.Value, error) {
	return decodeTyped(tv.Type, &tv.Value)
}

// Decode converts the value to its declared type
func (v Variable) Decode() (*types.Type, types.Value, error) {
	t, val, err := decodeTyped(v.Type, &v.Value)
	if err != nil {
		return nil, nil, fmt.Errorf("variable %s: %w", v.Name, err)
	}
	return t, val, nil
}

func decodeTyped(name string, n *yaml.Node) (*types.Type, types.Value, error) {
	t, err := types.ParseType(name)
	if err != nil {
		return nil, nil, err
	}
	v, err := DecodeValue(t, n)
	return t, v, err
}

// DecodeValue converts a YAML node to a value of type t. A missing node and
// the YAML null are null.
func DecodeValue(t *types.Type, n *yaml.Node) (types.Value, error) {
	if n == nil || n.Kind == 0 || (n.Kind == yaml.ScalarNode && n.Tag == "!!null") {
		return nil, nil
	}
	if n.Kind == yaml.DocumentNode && len(n.Content) == 1 {
		return DecodeValue(t, n.Content[0])
	}
	if t.IsArray() {
		if n.Kind != yaml.SequenceNode {
			return nil, fmt.Errorf("line %d: %s value must be a sequence", n.Line, t)
		}
		elems := make([]types.Value, len(n.Content))
		for i, c := range n.Content {
			v, err := DecodeValue(t.Elem(), c)
			if err != nil {
				return nil, err
			}
			elems[i] = v
		}
		return types.NewArray(t, elems)
	}
	if n.Kind != yaml.ScalarNode {
		return nil, fmt.Errorf("line %d: %s value must be a scalar", n.Line, t)
	}
	v, err := types.ParseScalar(t, n.Value)
	if err != nil {
		return nil, fmt.Errorf("line %d: %w", n.Line, err)
	}
	return v, nil
}

// Exception is the expected failure of a fixture. In YAML it is either
// true (any error), "CompileError" (any lex, parse or semantic error) or
// the name of one error kind such as "RuntimeError".
type Exception struct {
	Any     bool
	Compile bool
	Kind    types.ErrorKind
}

var errorKinds = map[string]types.ErrorKind{}

func init() {
	for k := types.ERR_LEX; k <= types.ERR_RUNTIME; k++ {
		errorKinds[k.String()] = k
	}
}

func (e *Exception) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: failsWithException must be a boolean or an error kind", n.Line)
	}
	if n.Tag == "!!bool" {
		var b bool
		if err := n.Decode(&b); err != nil {
			return err
		}
		if !b {
			return fmt.Errorf("line %d: failsWithException: false is not an expectation, leave it out", n.Line)
		}
		*e = Exception{Any: true}
		return nil
	}
	if n.Value == "CompileError" {
		*e = Exception{Compile: true}
		return nil
	}
	k, ok := errorKinds[n.Value]
	if !ok {
		return fmt.Errorf("line %d: unknown error kind %q", n.Line, n.Value)
	}
	*e = Exception{Kind: k}
	return nil
}

// Matches reports whether kind satisfies the expectation
func (e *Exception) Matches(kind types.ErrorKind) bool {
	switch {
	case e.Any:
		return true
	case e.Compile:
		return kind.IsCompile()
	}
	return e.Kind == kind
}

func (e *Exception) String() string {
	switch {
	case e.Any:
		return "any error"
	case e.Compile:
		return "CompileError"
	}
	return e.Kind.String()
}
