package vm

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"tally/builtins"
	"tally/check"
	"tally/parser"
	"tally/symtab"
	"tally/types"
)

// newTable builds the environment shared by the tests
func newTable(t *testing.T) *symtab.Table {
	t.Helper()
	tab := symtab.NewTable()
	builtins.Register(tab)
	intArr, _ := types.Integer.ArrayOf()
	ints, err := types.NewArray(intArr, []types.Value{types.NewInt(10), nil, types.NewInt(30)})
	if err != nil {
		t.Fatal(err)
	}
	decls := []struct {
		name string
		typ  *types.Type
		val  types.Value
	}{
		{"a", types.Integer, types.NewInt(2)},
		{"d", types.Decimal, types.MustDecimal("2")},
		{"s", types.String, types.NewStr("aap")},
		{"n", types.Integer, nil},
		{"b", types.Boolean, nil},
		{"ints", intArr, ints},
	}
	for _, d := range decls {
		if err := tab.Declare(d.name, d.typ, d.val); err != nil {
			t.Fatal(err)
		}
	}
	return tab
}

// compile parses and checks input against tab and lowers it to a unit
func compile(t *testing.T, tab *symtab.Table, input string) *Unit {
	t.Helper()
	prog, err := parser.Parse(input)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if _, err := check.Check(prog, tab); err != nil {
		t.Fatalf("Check error: %v", err)
	}
	unit, err := Compile(prog)
	if err != nil {
		t.Fatalf("Compile error: %v", err)
	}
	return unit
}

func imm(v int64) byte {
	op, ok := ImmediateOp(v)
	if !ok {
		panic(fmt.Sprintf("%d is not an immediate", v))
	}
	return byte(op)
}

func TestCompileCode(t *testing.T) {
	tests := []struct {
		input string
		code  []byte
	}{
		{"1", []byte{imm(1), byte(OP_RETURN)}},
		{"null", []byte{byte(OP_NULL), byte(OP_RETURN)}},
		{"a + 1", []byte{byte(OP_GET_VAR), 0, 0, imm(1), byte(OP_IADD), byte(OP_RETURN)}},
		{"1 + d", []byte{imm(1), byte(OP_TO_DEC), byte(OP_GET_VAR), 0, 0, byte(OP_DADD), byte(OP_RETURN)}},
		{"a / a", []byte{
			byte(OP_GET_VAR), 0, 0, byte(OP_TO_DEC),
			byte(OP_GET_VAR), 0, 0, byte(OP_TO_DEC),
			byte(OP_DDIV), byte(OP_RETURN),
		}},
		{"-a", []byte{byte(OP_GET_VAR), 0, 0, byte(OP_INEG), byte(OP_RETURN)}},
		{"a; 2", []byte{byte(OP_GET_VAR), 0, 0, byte(OP_POP), imm(2), byte(OP_RETURN)}},
		{"b && true", []byte{
			byte(OP_GET_VAR), 0, 0,
			byte(OP_AND_JUMP), 0, 4,
			byte(OP_PUSH), 0, 0,
			byte(OP_AND),
			byte(OP_RETURN),
		}},
		{"b ? 1 : 2", []byte{
			byte(OP_GET_VAR), 0, 0,
			byte(OP_JUMP_IF_FALSE), 0, 4,
			imm(1),
			byte(OP_JUMP), 0, 1,
			imm(2),
			byte(OP_RETURN),
		}},
		{"len(s)", []byte{byte(OP_GET_VAR), 0, 0, byte(OP_CALL), 0, 0, 1, byte(OP_RETURN)}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			unit := compile(t, newTable(t), tt.input)
			if !bytes.Equal(unit.Code, tt.code) {
				t.Errorf("Expected code\n%v\ngot\n%v\n%s", tt.code, unit.Code, unit.Disassemble())
			}
		})
	}
}

func TestCompileConstantPool(t *testing.T) {
	// 1000 and 1000.0 are different constants; the second 1000 and the
	// second 'aap' are shared
	tab := newTable(t)
	prog, _ := parser.Parse("x = 1000 + 1000; y = 1000.0 * 2.5; s == 'aap' || 'aap' == s")
	if _, err := check.Check(prog, tab); err != nil {
		t.Fatalf("Check error: %v", err)
	}
	unit, err := Compile(prog)
	if err != nil {
		t.Fatalf("Compile error: %v", err)
	}
	if len(unit.Constants) != 4 {
		t.Errorf("Expected 4 constants, got %d: %v", len(unit.Constants), unit.Constants)
	}
	if strings.Join(unit.VarNames, ",") != "x,y,s" {
		t.Errorf("Expected variables x,y,s, got %v", unit.VarNames)
	}
}

func TestCompute(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"3*3+a", "11"},
		{"3*3+d", "11"},
		{"2 == 3 ? 'aap' : 'geen aap'", "'geen aap'"},
		{"a = 3;\n3-3;", "0"},
		{"1 / 3", "0.3333333333333333333333333333333333"},
		{"-17 % 5", "-2"},
		{"1000 * 1000", "1000000"},
		{"n + 1", "null"},
		{"b || true", "true"},
		{"b && false", "false"},
		{"b || false", "null"},
		{"null ? 1 : 2", "2"},
		{"true ? 1 : 2.5", "1"},
		{"[1, null, 3]", "[1, null, 3]"},
		{"[a, 2.5][0]", "2"},
		{"ints[0] + ints[2]", "40"},
		{"max(a, 2.5, 1)", "2.5"},
		{"x = 1.5; x * 2", "3"},
		{"a = z = 7", "7"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			tab := newTable(t)
			v, err := compile(t, tab, tt.input).Compute(tab)
			if err != nil {
				t.Fatalf("Compute error: %v", err)
			}
			if got := types.Format(v); got != tt.expected {
				t.Errorf("Expected %s, got %s", tt.expected, got)
			}
		})
	}
}

func TestComputeIsRepeatable(t *testing.T) {
	tab := newTable(t)
	unit := compile(t, tab, "a = a + 1")
	for want := int64(3); want <= 5; want++ {
		v, err := unit.Compute(tab)
		if err != nil {
			t.Fatalf("Compute error: %v", err)
		}
		if !types.Same(v, types.NewInt(want)) {
			t.Errorf("Expected %d, got %s", want, types.Format(v))
		}
	}
}

func TestComputeRuntimeErrors(t *testing.T) {
	tests := []struct {
		input  string
		line   int
		column int
		cause  error
	}{
		{"1 % 0", 1, 3, types.ErrDivisionByZero},
		{"1 / 0", 1, 3, types.ErrDivisionByZero},
		{"9223372036854775807 + 1", 1, 21, types.ErrOverflow},
		{"a = 1;\n  ints[a + 5]", 2, 10, types.ErrIndexOutOfRange},
		{"ints[-1]", 1, 6, types.ErrIndexOutOfRange},
		{"substr(s, 9, 1)", 1, 1, types.ErrIndexOutOfRange},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			tab := newTable(t)
			_, err := compile(t, tab, tt.input).Compute(tab)
			if err == nil {
				t.Fatal("Expected error")
			}
			var e *types.Error
			if !errors.As(err, &e) {
				t.Fatalf("Expected *types.Error, got %T", err)
			}
			if e.Kind != types.ERR_RUNTIME {
				t.Errorf("Expected RuntimeError, got %s", e.Kind)
			}
			if e.Line != tt.line || e.Column != tt.column {
				t.Errorf("Expected position %d:%d, got %d:%d", tt.line, tt.column, e.Line, e.Column)
			}
			if !errors.Is(err, tt.cause) {
				t.Errorf("Expected cause %v, got %v", tt.cause, err)
			}
		})
	}
}

func TestStackLimit(t *testing.T) {
	elems := make([]string, 1100)
	for i := range elems {
		elems[i] = "a"
	}
	input := "[" + strings.Join(elems, ", ") + "]"
	tab := newTable(t)
	unit := compile(t, tab, input)

	_, err := unit.Compute(tab)
	if !errors.Is(err, ErrStackOverflow) {
		t.Fatalf("Expected stack overflow, got %v", err)
	}
	if kind, _ := types.KindOf(err); kind != types.ERR_RUNTIME {
		t.Errorf("Expected RuntimeError, got %s", kind)
	}

	m := NewVM()
	m.MaxStack = 2048
	v, err := m.Run(unit, tab)
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if arr, ok := v.(types.ArrayValue); !ok || arr.Len() != 1100 {
		t.Errorf("Expected array of 1100, got %s", types.Format(v))
	}
}

func TestTranslationErrors(t *testing.T) {
	translation := func(t *testing.T, err error) {
		t.Helper()
		if kind, ok := types.KindOf(err); !ok || kind != types.ERR_TRANSLATION {
			t.Fatalf("Expected TranslationError, got %v", err)
		}
	}

	t.Run("unchecked tree", func(t *testing.T) {
		prog, err := parser.Parse("a + 1")
		if err != nil {
			t.Fatal(err)
		}
		_, err = Compile(prog)
		translation(t, err)
	})

	t.Run("unknown operator", func(t *testing.T) {
		left := parser.NewLiteral(parser.Position{Line: 1, Column: 1}, types.True)
		right := parser.NewLiteral(parser.Position{Line: 1, Column: 6}, types.False)
		bin := &parser.BinaryExpr{Pos: parser.Position{Line: 1, Column: 3}, Left: left, Operator: parser.TOKEN_EXTENSION_BASE, Right: right}
		bin.SetType(types.Boolean)
		prog := &parser.Program{Statements: []parser.Expr{bin}}
		prog.SetType(types.Boolean)
		_, err := Compile(prog)
		translation(t, err)
		var e *types.Error
		if errors.As(err, &e) && e.Column != 3 {
			t.Errorf("Expected column 3, got %d", e.Column)
		}
	})

	t.Run("jump too far", func(t *testing.T) {
		elems := make([]string, 30000)
		for i := range elems {
			elems[i] = "a"
		}
		input := "b ? [" + strings.Join(elems, ", ") + "][0] : 1"
		tab := newTable(t)
		prog, err := parser.Parse(input)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := check.Check(prog, tab); err != nil {
			t.Fatal(err)
		}
		_, err = Compile(prog)
		translation(t, err)
	})

	t.Run("constant pool overflow", func(t *testing.T) {
		var parts []string
		for chunk := 0; chunk < 2; chunk++ {
			elems := make([]string, 40000)
			for i := range elems {
				elems[i] = fmt.Sprint(1000 + chunk*40000 + i)
			}
			parts = append(parts, "["+strings.Join(elems, ", ")+"][0]")
		}
		tab := newTable(t)
		prog, err := parser.Parse(strings.Join(parts, " + "))
		if err != nil {
			t.Fatal(err)
		}
		if _, err := check.Check(prog, tab); err != nil {
			t.Fatal(err)
		}
		_, err = Compile(prog)
		translation(t, err)
	})
}

func TestDisassemble(t *testing.T) {
	unit := compile(t, newTable(t), "x = 1 + 2.5;\nb ? x : 0")
	out := unit.Disassemble()
	for _, want := range []string{"IMM", "TO_DEC", "PUSH", "(2.5)", "DADD", "SET_VAR", "(x) Decimal", "JUMP_IF_FALSE", "RETURN"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in disassembly:\n%s", want, out)
		}
	}
	if !strings.Contains(out, "   2:") {
		t.Errorf("Expected line 2 positions in disassembly:\n%s", out)
	}
}

func TestOpCodeNames(t *testing.T) {
	for op := OpCode(0); op < OP_MAKE_ARRAY+1; op++ {
		if IsImmediateInt(op) {
			continue
		}
		if _, ok := OpCodeNames[op]; !ok {
			t.Errorf("opcode %d has no name", op)
		}
	}
	if OP_MAKE_ARRAY < OP_IMM_BASE+OP_IMM_RANGE {
		t.Error("opcodes overlap the immediate range")
	}
	if GetImmediateValue(OpCode(imm(-16))) != -16 || GetImmediateValue(OpCode(imm(127))) != 127 {
		t.Error("immediate range round trip failed")
	}
}
