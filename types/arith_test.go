package types

import (
	"errors"
	"math"
	"testing"
)

func dec(s string) DecimalValue {
	return MustDecimal(s)
}

func TestArith(t *testing.T) {
	tests := []struct {
		name string
		op   ArithOp
		a, b Value
		want string
	}{
		{"int add", ARITH_ADD, NewInt(2), NewInt(3), "5"},
		{"int sub", ARITH_SUB, NewInt(2), NewInt(3), "-1"},
		{"int mul", ARITH_MUL, NewInt(-4), NewInt(3), "-12"},
		{"int rem", ARITH_REM, NewInt(7), NewInt(3), "1"},
		{"rem sign follows dividend", ARITH_REM, NewInt(-7), NewInt(3), "-1"},
		{"rem negative divisor", ARITH_REM, NewInt(7), NewInt(-3), "1"},
		{"int div is decimal", ARITH_DIV, NewInt(10), NewInt(4), "2.5"},
		{"exact div", ARITH_DIV, NewInt(10), NewInt(2), "5"},
		{"third", ARITH_DIV, NewInt(1), NewInt(3), "0.3333333333333333333333333333333333"},
		{"half even", ARITH_DIV, NewInt(2), NewInt(3), "0.6666666666666666666666666666666667"},
		{"mixed add", ARITH_ADD, dec("1.50"), NewInt(1), "2.5"},
		{"decimal mul", ARITH_MUL, dec("0.1"), dec("0.2"), "0.02"},
		{"decimal rem", ARITH_REM, dec("7.5"), NewInt(2), "1.5"},
		{"pow", ARITH_POW, NewInt(2), NewInt(10), "1024"},
		{"large sum stays exact", ARITH_ADD, dec("0.1"), dec("0.2"), "0.3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Arith(tt.op, tt.a, tt.b)
			if err != nil {
				t.Fatalf("Arith(%s %s %s): %v", tt.a, tt.op, tt.b, err)
			}
			if got.String() != tt.want {
				t.Errorf("Arith(%s %s %s) = %s, want %s", tt.a, tt.op, tt.b, got, tt.want)
			}
		})
	}
}

func TestArithResultTypes(t *testing.T) {
	v, _ := Arith(ARITH_ADD, NewInt(1), NewInt(1))
	if v.Type() != Integer {
		t.Errorf("Integer + Integer has type %s", v.Type())
	}
	v, _ = Arith(ARITH_DIV, NewInt(4), NewInt(2))
	if v.Type() != Decimal {
		t.Errorf("Integer / Integer has type %s", v.Type())
	}
}

func TestArithNull(t *testing.T) {
	for _, op := range []ArithOp{ARITH_ADD, ARITH_SUB, ARITH_MUL, ARITH_DIV, ARITH_REM, ARITH_POW} {
		if v, err := Arith(op, nil, NewInt(1)); v != nil || err != nil {
			t.Errorf("null %s 1 = %v, %v; want null", op, v, err)
		}
		if v, err := Arith(op, dec("1"), nil); v != nil || err != nil {
			t.Errorf("1 %s null = %v, %v; want null", op, v, err)
		}
	}
	if v, err := Negate(nil); v != nil || err != nil {
		t.Errorf("-null = %v, %v", v, err)
	}
}

func TestArithErrors(t *testing.T) {
	tests := []struct {
		name string
		op   ArithOp
		a, b Value
		want error
	}{
		{"add overflow", ARITH_ADD, NewInt(math.MaxInt64), NewInt(1), ErrOverflow},
		{"sub overflow", ARITH_SUB, NewInt(math.MinInt64), NewInt(1), ErrOverflow},
		{"mul overflow", ARITH_MUL, NewInt(math.MaxInt64), NewInt(2), ErrOverflow},
		{"mul min by -1", ARITH_MUL, NewInt(math.MinInt64), NewInt(-1), ErrOverflow},
		{"int rem zero", ARITH_REM, NewInt(1), NewInt(0), ErrDivisionByZero},
		{"div zero", ARITH_DIV, NewInt(1), NewInt(0), ErrDivisionByZero},
		{"decimal rem zero", ARITH_REM, dec("1.5"), dec("0"), ErrDivisionByZero},
		{"string operand", ARITH_ADD, NewStr("a"), NewInt(1), ErrType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Arith(tt.op, tt.a, tt.b)
			if !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}
	if _, err := Negate(NewInt(math.MinInt64)); !errors.Is(err, ErrOverflow) {
		t.Errorf("-MinInt64: got %v", err)
	}
}

func TestDecimalNormalization(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"1.50", "1.5"},
		{"100", "100"},
		{"-0.0", "0"},
		{"0.000", "0"},
		{"12345678901234567890.123456789012345678", "12345678901234567890.12345678901235"},
	}
	for _, tt := range tests {
		if got := dec(tt.in).String(); got != tt.want {
			t.Errorf("ParseDecimal(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
	if !dec("2.50").Equal(dec("2.5")) {
		t.Error("2.50 should equal 2.5")
	}
	i, err := dec("-7.9").Int64()
	if err != nil || i != -7 {
		t.Errorf("Int64(-7.9) = %d, %v; want -7", i, err)
	}
}
