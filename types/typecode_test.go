package types

import "testing"

func TestTypeInterning(t *testing.T) {
	a, err := Of(KIND_INTEGER, 2)
	if err != nil {
		t.Fatalf("Of: %v", err)
	}
	b, err := ParseType("Integer[][]")
	if err != nil {
		t.Fatalf("ParseType: %v", err)
	}
	if a != b {
		t.Errorf("Integer[][] not interned: %p != %p", a, b)
	}
	if a.Elem().Elem() != Integer {
		t.Errorf("Elem chain should reach Integer, got %s", a.Elem().Elem())
	}
	arr, _ := Integer.ArrayOf()
	if arr != a.Elem() {
		t.Errorf("ArrayOf(Integer) = %s, want %s", arr, a.Elem())
	}
	if _, err := Of(KIND_DATE, MaxDimensions+1); err == nil {
		t.Errorf("Of should reject dimensionality above %d", MaxDimensions)
	}
}

func TestTypeString(t *testing.T) {
	tests := []struct {
		typ  *Type
		want string
	}{
		{Integer, "Integer"},
		{String, "String"},
		{Decimal, "Decimal"},
		{Boolean, "Boolean"},
		{Date, "Date"},
		{nil, "null"},
		{Decimal.WithKind(KIND_STRING), "String"},
	}
	for _, tt := range tests {
		if got := tt.typ.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
		if tt.typ == nil {
			continue
		}
		back, err := ParseType(tt.want)
		if err != nil || back != tt.typ {
			t.Errorf("ParseType(%q) = %v, %v", tt.want, back, err)
		}
	}
	if _, err := ParseType("Float"); err == nil {
		t.Error("ParseType should reject unknown names")
	}
}

func TestAssignable(t *testing.T) {
	intArr, _ := Integer.ArrayOf()
	decArr, _ := Decimal.ArrayOf()
	tests := []struct {
		name     string
		dst, src *Type
		want     bool
	}{
		{"same", String, String, true},
		{"widen", Decimal, Integer, true},
		{"narrow", Integer, Decimal, false},
		{"null", Date, nil, true},
		{"array widen", decArr, intArr, true},
		{"dims mismatch", decArr, Integer, false},
		{"unrelated", Boolean, String, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Assignable(tt.dst, tt.src); got != tt.want {
				t.Errorf("Assignable(%s, %s) = %v, want %v", tt.dst, tt.src, got, tt.want)
			}
		})
	}
}

func TestCommonAndComparable(t *testing.T) {
	if c, ok := Common(Integer, Decimal); !ok || c != Decimal {
		t.Errorf("Common(Integer, Decimal) = %v, %v", c, ok)
	}
	if c, ok := Common(nil, String); !ok || c != String {
		t.Errorf("Common(null, String) = %v, %v", c, ok)
	}
	if _, ok := Common(String, Boolean); ok {
		t.Error("String and Boolean have no common type")
	}
	if !Comparable(Integer, Decimal) {
		t.Error("Integer and Decimal should be comparable")
	}
	if Comparable(String, Date) {
		t.Error("String and Date should not be comparable")
	}
	arr, _ := String.ArrayOf()
	if Comparable(arr, arr) {
		t.Error("arrays should not be comparable")
	}
}
