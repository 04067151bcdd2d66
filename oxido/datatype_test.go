package oxido

import "testing"

func TestParseDataType(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"int", "int"},
		{"bool", "bool"},
		{"str", "str"},
		{"vec<int>", "vec<int>"},
		{" vec < vec<str> > ", "vec<vec<str>>"},
	}
	for _, tc := range tests {
		got, err := ParseDataType(tc.input)
		if err != nil {
			t.Fatalf("parse %q: %v", tc.input, err)
		}
		if got.String() != tc.want {
			t.Fatalf("parse %q: got %s want %s", tc.input, got, tc.want)
		}
	}
}

func TestParseDataTypeErrors(t *testing.T) {
	for _, input := range []string{"", "float", "vec", "vec<>", "vec<int", "int>", "vec<int>>"} {
		if _, err := ParseDataType(input); err == nil {
			t.Fatalf("expected error for %q", input)
		}
	}
}

func TestDataTypeEquality(t *testing.T) {
	if !VectorOf(VectorOf(IntType)).Equal(VectorOf(VectorOf(IntType))) {
		t.Fatalf("nested vector types should be equal")
	}
	if VectorOf(IntType).Equal(VectorOf(StrType)) {
		t.Fatalf("vec<int> should not equal vec<str>")
	}
	if IntType.Equal(VectorOf(IntType)) {
		t.Fatalf("int should not equal vec<int>")
	}
	elem, ok := VectorOf(BoolType).Element()
	if !ok || !elem.Equal(BoolType) {
		t.Fatalf("element of vec<bool>: got %s %t", elem, ok)
	}
	if _, ok := StrType.Element(); ok {
		t.Fatalf("str has no element type")
	}
}

func TestDataRuntimeTypes(t *testing.T) {
	v := NewVector(VectorOf(IntType), []Data{NewVector(IntType, []Data{NewInt(1)})})
	if got := v.Type().String(); got != "vec<vec<int>>" {
		t.Fatalf("type: got %s", got)
	}
	if got := NewStr("hi").Describe(); got != "str `\"hi\"`" {
		t.Fatalf("describe: got %s", got)
	}
	if !NewVector(IntType, nil).Equal(NewVector(IntType, nil)) {
		t.Fatalf("empty vectors of the same type should be equal")
	}
	if NewVector(IntType, nil).Equal(NewVector(StrType, nil)) {
		t.Fatalf("empty vectors of different types should differ")
	}

	base := NewVector(IntType, []Data{NewInt(1)})
	grown := base.withElement(1, NewInt(2))
	if base.Len() != 1 || grown.Len() != 2 {
		t.Fatalf("withElement must copy: base=%d grown=%d", base.Len(), grown.Len())
	}
}
