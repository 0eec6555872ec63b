package vm

import (
	"errors"
	"testing"

	"tally/check"
	"tally/eval"
	"tally/parser"
	"tally/simplify"
	"tally/symtab"
	"tally/types"
)

type outcome struct {
	value     types.Value
	err       error
	variables map[string]string
}

func snapshot(tab *symtab.Table) map[string]string {
	out := map[string]string{}
	for _, v := range tab.Variables() {
		out[v.Name] = v.Type.String() + " " + types.Format(v.Value)
	}
	return out
}

func checked(t *testing.T, tab *symtab.Table, input string, fold bool) *parser.Program {
	t.Helper()
	prog, err := parser.Parse(input)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if _, err := check.Check(prog, tab); err != nil {
		t.Fatalf("Check error: %v", err)
	}
	if fold {
		if prog, err = simplify.Simplify(prog, tab); err != nil {
			t.Fatalf("Simplify error: %v", err)
		}
	}
	return prog
}

// treeEvalExpr evaluates an expression through the tree-walking interpreter
func treeEvalExpr(t *testing.T, input string) outcome {
	t.Helper()
	tab := newTable(t)
	v, err := eval.Evaluate(checked(t, tab, input, false), tab)
	return outcome{v, err, snapshot(tab)}
}

// vmEvalExpr compiles and runs an expression through the bytecode VM
func vmEvalExpr(t *testing.T, input string, fold bool) outcome {
	t.Helper()
	tab := newTable(t)
	unit, err := Compile(checked(t, tab, input, fold))
	if err != nil {
		t.Fatalf("Compile error: %v", err)
	}
	v, err := unit.Compute(tab)
	return outcome{v, err, snapshot(tab)}
}

// comparePaths runs an expression through both the tree-walker and the bytecode
// VM, with and without folding, and asserts they produce the same result,
// the same error position and the same variables afterwards
func comparePaths(t *testing.T, input string) {
	t.Helper()
	tree := treeEvalExpr(t, input)
	for _, fold := range []bool{false, true} {
		got := vmEvalExpr(t, input, fold)
		if (tree.err == nil) != (got.err == nil) {
			t.Fatalf("fold=%v: tree-walker error %v, VM error %v", fold, tree.err, got.err)
		}
		if tree.err != nil {
			var want, have *types.Error
			if !errors.As(tree.err, &want) || !errors.As(got.err, &have) {
				t.Fatalf("fold=%v: expected *types.Error from both, got %T and %T", fold, tree.err, got.err)
			}
			if want.Kind != have.Kind || want.Line != have.Line || want.Column != have.Column {
				t.Errorf("fold=%v: tree-walker %s at %d:%d, VM %s at %d:%d", fold,
					want.Kind, want.Line, want.Column, have.Kind, have.Line, have.Column)
			}
		} else if !valuesEqual(tree.value, got.value) {
			t.Errorf("fold=%v: MISMATCH: tree-walker=%s (%s), VM=%s (%s)", fold,
				types.Format(tree.value), types.TypeOf(tree.value), types.Format(got.value), types.TypeOf(got.value))
		}
		for name, want := range tree.variables {
			if got.variables[name] != want {
				t.Errorf("fold=%v: variable %s: tree-walker %q, VM %q", fold, name, want, got.variables[name])
			}
		}
		if len(got.variables) != len(tree.variables) {
			t.Errorf("fold=%v: tree-walker has %d variables, VM %d", fold, len(tree.variables), len(got.variables))
		}
	}
}

// valuesEqual compares two values strictly: Integer 1 and Decimal 1 are
// not equal
func valuesEqual(a, b types.Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Type() == b.Type() && a.Equal(b)
}

// --- Parity Tests ---

func TestParity_Literals(t *testing.T) {
	cases := []string{
		"0", "1", "42", "-1", "-16", "-17", "127", "128", "1000",
		"9223372036854775807",
		"0.0", "1.5", "-2.5", "1.50",
		"''", "'aap'", `"it's"`, `'a\tb'`,
		"true", "false", "null",
		"#2024-02-29#",
	}
	for _, c := range cases {
		t.Run(c, func(t *testing.T) { comparePaths(t, c) })
	}
}

func TestParity_Arithmetic(t *testing.T) {
	cases := []string{
		"1 + 2", "10 - 3", "4 * 5", "20 / 4", "17 % 5", "2 ^ 3",
		"-5", "-0", "--5", "-a", "-d",
		"1 + 2 * 3", "(1 + 2) * 3", "2 ^ 3 + 1", "-2 ^ 2", "-(2 ^ 2)", "-d ^ 2", "2 ^ -2 ^ 2",
		"1.5 + 2.5", "3.0 - 1.5", "7.0 / 2.0", "5.5 % 2",
		"1 + 2.0", "a * d", "a / 3", "d ^ a", "2 ^ -1", "0 ^ 0",
		"-7 % 3", "7 % -3",
		"3*3+a", "3*3+d",
		"n + 1", "n * d", "1 - null", "null / 2", "-n",
		"9223372036854775807 + 1", "-9223372036854775807 - 2",
		"1 % 0", "1 / 0", "5.5 % 0", "0 ^ -1",
	}
	for _, c := range cases {
		t.Run(c, func(t *testing.T) { comparePaths(t, c) })
	}
}

func TestParity_Comparisons(t *testing.T) {
	cases := []string{
		"1 == 1", "1 != 1", "2 == 2.0", "1 < 2.5", "a >= d", "a <= 1",
		"'aap' < 'noot'", "s == 'aap'", "false < true",
		"#2024-01-01# < #2024-01-02#",
		"null == null", "n == 1", "n != null", "n < 1", "b == true",
	}
	for _, c := range cases {
		t.Run(c, func(t *testing.T) { comparePaths(t, c) })
	}
}

func TestParity_Logic(t *testing.T) {
	cases := []string{
		"true && false", "true || false", "!true", "!b",
		"b && true", "b && false", "true && b", "false && b",
		"b || true", "b || false", "true || b", "false || b",
		"null && null", "null || true",
		"not false and true", "a > 1 && s == 'aap' || b",
		"b || (a = 5) > 1",
		"false && (a = 5) > 1",
		"true || (x = 1) > 0; a",
	}
	for _, c := range cases {
		t.Run(c, func(t *testing.T) { comparePaths(t, c) })
	}
}

func TestParity_Ternary(t *testing.T) {
	cases := []string{
		"2 == 3 ? 'aap' : 'geen aap'",
		"true ? 1 : 2.5", "false ? 1 : 2.5", "b ? 1 : 2", "null ? 1 : 2",
		"a > 1 ? a < 5 ? 1 : 2 : 3",
		"a > 1 ? null : 3", "b ? d : a",
		"a == 2 ? (x = 1) : (y = 2)",
	}
	for _, c := range cases {
		t.Run(c, func(t *testing.T) { comparePaths(t, c) })
	}
}

func TestParity_Assignment(t *testing.T) {
	cases := []string{
		"a = 3;\n3-3;",
		"x = 1.5; x * 2",
		"d = 4; d",
		"a = z = 7",
		"fresh = 1 + 0.5; fresh",
		"n = null; n",
		"a = 10; x = 1; y = x / 0",
		"a = a + 1; a = a * a; a",
	}
	for _, c := range cases {
		t.Run(c, func(t *testing.T) { comparePaths(t, c) })
	}
}

func TestParity_ArraysAndCalls(t *testing.T) {
	cases := []string{
		"[1, null, 3]", "[1, 2.5]", "[1, 2.5][0]", "[[1, 2], [3]][0][1]",
		"[a, d]", "ints[0] + ints[2]", "ints[1]", "ints[n]", "ints[3]", "ints[-1]",
		"a = 1;\n  ints[a + 5]",
		"max(a, 2.5, 1)", "sum(ints)", "upper(s)", "len(s) + a",
		"round(1 / 3, 4) + floor(2.7)", "concat('a', null, upper('b'))",
		"coalesce(n, d)", "substr(s, 1, 2)", "substr(s, 9, 1)",
		"year(#2024-03-01#) + a", "days_between(#2024-01-01#, #2024-03-01#)",
		"hash('aap', 'sha256')",
	}
	for _, c := range cases {
		t.Run(c, func(t *testing.T) { comparePaths(t, c) })
	}
}
