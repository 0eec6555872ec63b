package main

import (
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"tally/conformance"
	"tally/types"
)

// parseVar parses "name:Type=value". Without "=value" the variable is
// null. Scalar values are taken literally; array values are YAML
// sequences such as [1, 2, null].
func parseVar(arg string) (string, *types.Type, types.Value, error) {
	decl, raw, hasValue := strings.Cut(arg, "=")
	name, typeName, ok := strings.Cut(decl, ":")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return "", nil, nil, errors.Errorf("variable %q: want name:Type=value", arg)
	}
	t, err := types.ParseType(typeName)
	if err != nil {
		return "", nil, nil, errors.Wrapf(err, "variable %s", name)
	}
	if !hasValue {
		return name, t, nil, nil
	}

	if !t.IsArray() {
		if raw == "null" {
			return name, t, nil, nil
		}
		v, err := types.ParseScalar(t, raw)
		if err != nil {
			return "", nil, nil, errors.Wrapf(err, "variable %s", name)
		}
		return name, t, v, nil
	}

	var n yaml.Node
	if err := yaml.Unmarshal([]byte(raw), &n); err != nil {
		return "", nil, nil, errors.Wrapf(err, "variable %s", name)
	}
	v, err := conformance.DecodeValue(t, &n)
	if err != nil {
		return "", nil, nil, errors.Wrapf(err, "variable %s", name)
	}
	return name, t, v, nil
}
