package script

import (
	_ "embed"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dop251/goja"

	"tally/symtab"
	"tally/types"
)

// Prelude is the runtime shim every emitted script runs against
//
//go:embed prelude.js
var Prelude string

var preludeProgram = goja.MustCompile("prelude.js", Prelude, true)

// Host runs emitted scripts in a goja runtime. It installs the exact
// arithmetic primitives ($int, $dec), ordering for strings and dates ($str,
// $date), array construction and indexing ($arr) and the environment
// ($env) backed by a symbol table.
//
// A Host is not safe for concurrent use.
type Host struct {
	rt *goja.Runtime
	st symtab.SymbolTable

	// failure state of the current run
	err  error
	line int
	col  int
}

// NewHost creates a runtime with the primitives and the prelude installed
func NewHost() *Host {
	h := &Host{rt: goja.New()}
	h.install()
	if _, err := h.rt.RunProgram(preludeProgram); err != nil {
		panic(fmt.Sprintf("script: prelude: %v", err))
	}
	return h
}

// Run executes s against st and returns the value of its last statement.
// Failures of host operations are ERR_RUNTIME at the source position the
// script reported before the operation.
func (h *Host) Run(s *Script, st symtab.SymbolTable) (types.Value, error) {
	h.st, h.err, h.line, h.col = st, nil, 0, 0
	defer func() { h.st = nil }()

	compiled, err := h.rt.RunString(s.Source)
	if err != nil {
		return nil, types.WrapError(types.ERR_TRANSLATION, 0, 0, err)
	}
	fn, ok := goja.AssertFunction(compiled)
	if !ok {
		return nil, types.Errorf(types.ERR_TRANSLATION, 0, 0, "script is not a function")
	}
	consts := make([]interface{}, len(s.Constants))
	for i, c := range s.Constants {
		consts[i] = h.toJS(c)
	}
	res, err := fn(goja.Undefined(), h.rt.NewArray(consts...))
	if err != nil {
		return nil, h.failure(err)
	}
	v, err := h.fromJS(res)
	if err != nil {
		return nil, types.WrapError(types.ERR_RUNTIME, h.line, h.col, err)
	}
	return v, nil
}

func (h *Host) failure(err error) error {
	cause := h.err
	if cause == nil {
		cause = err
	}
	var te *types.Error
	if errors.As(cause, &te) {
		return cause
	}
	return types.WrapError(types.ERR_RUNTIME, h.line, h.col, cause)
}

// throw aborts the running script with err
func (h *Host) throw(err error) {
	h.err = err
	panic(h.rt.NewGoError(err))
}

// ============================================================================
// VALUE CONVERSION
// ============================================================================

func (h *Host) toJS(v types.Value) goja.Value {
	switch x := v.(type) {
	case nil:
		return goja.Null()
	case types.StrValue:
		return h.rt.ToValue(x.Val)
	case types.BoolValue:
		return h.rt.ToValue(x.Val)
	}
	return h.rt.ToValue(v)
}

func (h *Host) fromJS(v goja.Value) (types.Value, error) {
	if v == nil || goja.IsNull(v) || goja.IsUndefined(v) {
		return nil, nil
	}
	switch x := v.Export().(type) {
	case string:
		return types.NewStr(x), nil
	case bool:
		return types.NewBool(x), nil
	case types.Value:
		return x, nil
	}
	return nil, fmt.Errorf("%w: script value %s has no type", types.ErrType, v)
}

func (h *Host) arg(call goja.FunctionCall, i int) types.Value {
	v, err := h.fromJS(call.Argument(i))
	if err != nil {
		h.throw(err)
	}
	return v
}

func (h *Host) intArg(call goja.FunctionCall, i int) int64 {
	x, ok := h.arg(call, i).(types.IntValue)
	if !ok {
		h.throw(fmt.Errorf("%w: argument %d is not an Integer", types.ErrType, i))
	}
	return x.Val
}

func (h *Host) decArg(call goja.FunctionCall, i int) types.DecimalValue {
	x, ok := h.arg(call, i).(types.DecimalValue)
	if !ok {
		h.throw(fmt.Errorf("%w: argument %d is not a Decimal", types.ErrType, i))
	}
	return x
}

func (h *Host) typeArg(call goja.FunctionCall, i int) *types.Type {
	t, err := types.ParseType(call.Argument(i).String())
	if err != nil {
		h.throw(err)
	}
	return t
}

// listArg converts a JS array of values
func (h *Host) listArg(call goja.FunctionCall, i int) []types.Value {
	obj := call.Argument(i).ToObject(h.rt)
	n := int(obj.Get("length").ToInteger())
	out := make([]types.Value, n)
	for j := 0; j < n; j++ {
		v, err := h.fromJS(obj.Get(strconv.Itoa(j)))
		if err != nil {
			h.throw(err)
		}
		out[j] = v
	}
	return out
}

func (h *Host) position(call goja.FunctionCall, i int) {
	h.line = int(call.Argument(i).ToInteger())
	h.col = int(call.Argument(i + 1).ToInteger())
}

// ============================================================================
// PRIMITIVES
// ============================================================================

type native = func(goja.FunctionCall) goja.Value

func (h *Host) object(name string, fns map[string]native) {
	obj := h.rt.NewObject()
	for k, fn := range fns {
		if err := obj.Set(k, fn); err != nil {
			panic(fmt.Sprintf("script: %s.%s: %v", name, k, err))
		}
	}
	if err := h.rt.Set(name, obj); err != nil {
		panic(fmt.Sprintf("script: %s: %v", name, err))
	}
}

func (h *Host) result(v types.Value, err error) goja.Value {
	if err != nil {
		h.throw(err)
	}
	return h.toJS(v)
}

func (h *Host) intOp(f func(a, b int64) (int64, error)) native {
	return func(call goja.FunctionCall) goja.Value {
		r, err := f(h.intArg(call, 0), h.intArg(call, 1))
		return h.result(types.NewInt(r), err)
	}
}

func (h *Host) decOp(f func(x, y types.DecimalValue) (types.DecimalValue, error)) native {
	return func(call goja.FunctionCall) goja.Value {
		r, err := f(h.decArg(call, 0), h.decArg(call, 1))
		return h.result(r, err)
	}
}

func (h *Host) order(call goja.FunctionCall) goja.Value {
	c, err := types.Order(h.arg(call, 0), h.arg(call, 1))
	if err != nil {
		h.throw(err)
	}
	return h.rt.ToValue(c)
}

func (h *Host) install() {
	h.object("$int", map[string]native{
		"add": h.intOp(types.IntAdd),
		"sub": h.intOp(types.IntSub),
		"mul": h.intOp(types.IntMul),
		"rem": h.intOp(types.IntRem),
		"neg": func(call goja.FunctionCall) goja.Value {
			r, err := types.IntNeg(h.intArg(call, 0))
			return h.result(types.NewInt(r), err)
		},
		"cmp": h.order,
	})

	h.object("$dec", map[string]native{
		"add": h.decOp(types.DecAdd),
		"sub": h.decOp(types.DecSub),
		"mul": h.decOp(types.DecMul),
		"div": h.decOp(types.DecQuo),
		"rem": h.decOp(types.DecRem),
		"pow": h.decOp(types.DecPow),
		"neg": func(call goja.FunctionCall) goja.Value {
			return h.toJS(types.DecNeg(h.decArg(call, 0)))
		},
		"cmp": h.order,
		"fromInt": func(call goja.FunctionCall) goja.Value {
			return h.toJS(types.DecimalFromInt(h.intArg(call, 0)))
		},
	})

	h.object("$str", map[string]native{
		"cmp": func(call goja.FunctionCall) goja.Value {
			return h.rt.ToValue(strings.Compare(call.Argument(0).String(), call.Argument(1).String()))
		},
	})

	h.object("$date", map[string]native{
		"cmp": h.order,
	})

	h.object("$arr", map[string]native{
		"make": func(call goja.FunctionCall) goja.Value {
			return h.result(types.NewArray(h.typeArg(call, 0), h.listArg(call, 1)))
		},
		"get": func(call goja.FunctionCall) goja.Value {
			return h.result(types.Index(h.arg(call, 0), h.arg(call, 1)))
		},
	})

	h.object("$env", map[string]native{
		"at": func(call goja.FunctionCall) goja.Value {
			h.position(call, 0)
			return goja.Undefined()
		},
		"get": func(call goja.FunctionCall) goja.Value {
			h.position(call, 1)
			return h.result(h.st.Get(call.Argument(0).String()))
		},
		"set": func(call goja.FunctionCall) goja.Value {
			h.position(call, 3)
			v := h.arg(call, 2)
			if err := h.st.Set(call.Argument(0).String(), h.typeArg(call, 1), v); err != nil {
				h.throw(err)
			}
			return call.Argument(2)
		},
		"call": func(call goja.FunctionCall) goja.Value {
			h.position(call, 2)
			name := call.Argument(0).String()
			fn, ok := h.st.Function(name)
			if !ok {
				h.throw(fmt.Errorf("unknown function %s", name))
			}
			return h.result(symtab.Invoke(fn, h.listArg(call, 1)))
		},
		"coerce": func(call goja.FunctionCall) goja.Value {
			return h.result(types.Coerce(h.arg(call, 0), h.typeArg(call, 1)))
		},
	})
}
