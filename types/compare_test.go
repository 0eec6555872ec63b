package types

import (
	"errors"
	"testing"
	"time"
)

func TestCompare(t *testing.T) {
	d1 := NewDate(time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC))
	d2 := NewDate(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))
	tests := []struct {
		name string
		op   CompareOp
		a, b Value
		want Value
	}{
		{"null eq null", CMP_EQ, nil, nil, True},
		{"null eq value", CMP_EQ, nil, NewInt(1), False},
		{"value ne null", CMP_NE, NewStr("x"), nil, True},
		{"null ne null", CMP_NE, nil, nil, False},
		{"lt with null", CMP_LT, nil, NewInt(1), nil},
		{"ge with null", CMP_GE, NewInt(1), nil, nil},
		{"int lt", CMP_LT, NewInt(1), NewInt(2), True},
		{"mixed eq", CMP_EQ, NewInt(1), dec("1.0"), True},
		{"mixed gt", CMP_GT, dec("1.01"), NewInt(1), True},
		{"string le", CMP_LE, NewStr("abc"), NewStr("abd"), True},
		{"bool order", CMP_LT, False, True, True},
		{"date order", CMP_LT, d1, d2, True},
		{"date eq", CMP_EQ, d1, d1, True},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Compare(tt.op, tt.a, tt.b)
			if err != nil {
				t.Fatalf("Compare: %v", err)
			}
			if !Same(got, tt.want) {
				t.Errorf("%s %s %s = %s, want %s", Format(tt.a), tt.op, Format(tt.b), Format(got), Format(tt.want))
			}
		})
	}
	if _, err := Compare(CMP_LT, NewStr("a"), NewInt(1)); !errors.Is(err, ErrType) {
		t.Errorf("ordering String and Integer: got %v", err)
	}
}

func TestKleeneLogic(t *testing.T) {
	values := []Value{True, False, nil}
	// want[i][j] for values[i] op values[j]
	and := [3][3]Value{
		{True, False, nil},
		{False, False, False},
		{nil, False, nil},
	}
	or := [3][3]Value{
		{True, True, True},
		{True, False, nil},
		{True, nil, nil},
	}
	for i, a := range values {
		for j, b := range values {
			got, err := And(a, b)
			if err != nil || !Same(got, and[i][j]) {
				t.Errorf("%s && %s = %s, %v; want %s", Format(a), Format(b), Format(got), err, Format(and[i][j]))
			}
			got, err = Or(a, b)
			if err != nil || !Same(got, or[i][j]) {
				t.Errorf("%s || %s = %s, %v; want %s", Format(a), Format(b), Format(got), err, Format(or[i][j]))
			}
		}
	}
	if v, _ := Not(nil); v != nil {
		t.Errorf("!null = %s", Format(v))
	}
	if v, _ := Not(True); !Same(v, False) {
		t.Errorf("!true = %s", Format(v))
	}
	if _, err := And(NewInt(1), True); !errors.Is(err, ErrType) {
		t.Errorf("non-Boolean operand: got %v", err)
	}
}

func TestCoerce(t *testing.T) {
	intArr, _ := Integer.ArrayOf()
	decArr, _ := Decimal.ArrayOf()
	arr, err := NewArray(intArr, []Value{NewInt(1), nil, NewInt(3)})
	if err != nil {
		t.Fatalf("NewArray: %v", err)
	}
	got, err := Coerce(arr, decArr)
	if err != nil {
		t.Fatalf("Coerce: %v", err)
	}
	if got.Type() != decArr {
		t.Errorf("coerced type = %s, want %s", got.Type(), decArr)
	}
	if got.String() != "[1, null, 3]" {
		t.Errorf("coerced value = %s", got)
	}
	if _, ok := got.(ArrayValue).Get(0).(DecimalValue); !ok {
		t.Errorf("element 0 is %T, want DecimalValue", got.(ArrayValue).Get(0))
	}
	if _, err := Coerce(dec("1.5"), Integer); !errors.Is(err, ErrType) {
		t.Errorf("Decimal to Integer: got %v", err)
	}
	if v, err := Coerce(nil, Date); v != nil || err != nil {
		t.Errorf("Coerce(null) = %v, %v", v, err)
	}
}

func TestIndex(t *testing.T) {
	strArr, _ := String.ArrayOf()
	arr, _ := NewArray(strArr, []Value{NewStr("a"), NewStr("b")})
	v, err := Index(arr, NewInt(1))
	if err != nil || !Same(v, NewStr("b")) {
		t.Errorf("arr[1] = %v, %v", v, err)
	}
	if v, err := Index(nil, NewInt(0)); v != nil || err != nil {
		t.Errorf("null[0] = %v, %v", v, err)
	}
	if v, err := Index(arr, nil); v != nil || err != nil {
		t.Errorf("arr[null] = %v, %v", v, err)
	}
	if _, err := Index(arr, NewInt(2)); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("arr[2]: got %v", err)
	}
	if _, err := Index(arr, NewInt(-1)); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("arr[-1]: got %v", err)
	}
}

func TestStringLiterals(t *testing.T) {
	tests := []struct {
		v    Value
		want string
	}{
		{NewStr("it's"), `'it\'s'`},
		{NewStr("a\nb"), `'a\nb'`},
		{NewBool(true), "true"},
		{NewInt(-3), "-3"},
		{nil, "null"},
		{NewDate(time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)), "#2024-01-31#"},
		{NewDate(time.Date(2024, 1, 31, 8, 30, 0, 0, time.UTC)), "#2024-01-31T08:30:00Z#"},
	}
	for _, tt := range tests {
		if got := Format(tt.v); got != tt.want {
			t.Errorf("Format = %s, want %s", got, tt.want)
		}
	}
}

func TestParseScalar(t *testing.T) {
	tests := []struct {
		typ  *Type
		text string
		want string
	}{
		{Integer, "-42", "-42"},
		{Decimal, "1.50", "1.5"},
		{String, "it's", "'it\\'s'"},
		{Boolean, "true", "true"},
		{Date, "2024-01-31", "#2024-01-31#"},
	}
	for _, tt := range tests {
		t.Run(tt.typ.String()+"/"+tt.text, func(t *testing.T) {
			v, err := ParseScalar(tt.typ, tt.text)
			if err != nil {
				t.Fatal(err)
			}
			if v.Type() != tt.typ || v.String() != tt.want {
				t.Errorf("ParseScalar = %s %s, want %s %s", v.Type(), v, tt.typ, tt.want)
			}
		})
	}

	intArr, _ := Integer.ArrayOf()
	for _, bad := range []struct {
		typ  *Type
		text string
	}{{Integer, "1.5"}, {Boolean, "yes please"}, {Date, "31/01/2024"}, {intArr, "[1]"}} {
		if _, err := ParseScalar(bad.typ, bad.text); err == nil {
			t.Errorf("ParseScalar(%s, %q) succeeded", bad.typ, bad.text)
		}
	}
}
