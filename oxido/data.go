package oxido

import (
	"fmt"
	"strconv"
	"strings"
)

// DataKind enumerates the runtime value variants.
type DataKind int

const (
	KindInt DataKind = iota
	KindBool
	KindStr
	KindVector
)

func (k DataKind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindBool:
		return "bool"
	case KindStr:
		return "str"
	case KindVector:
		return "vec"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Data is a runtime value. Vectors are immutable once built; index
// assignment produces a new vector so that copies never alias.
type Data struct {
	kind DataKind
	data any
}

type vector struct {
	elem  DataType
	elems []Data
}

// Variable is one entry of the flat variable namespace.
type Variable struct {
	Type DataType
	Data Data
}

// Param is a typed function parameter.
type Param struct {
	Name string
	Type DataType
	span Span
}

// Function is a user-declared function stored in the function table.
type Function struct {
	Name       string
	Params     []Param
	ReturnType *DataType
	Body       []Statement
	source     Source
}

// Builtin is a standard-library callable. Void builtins produce no value
// and cannot be used in expression position.
type Builtin struct {
	Name string
	Fn   BuiltinFunc
	Void bool
}

type BuiltinFunc func(call *Call, args []Data) (Data, error)

func NewInt(v int64) Data {
	return Data{kind: KindInt, data: v}
}

func NewBool(v bool) Data {
	return Data{kind: KindBool, data: v}
}

func NewStr(v string) Data {
	return Data{kind: KindStr, data: v}
}

// NewVector builds a vector value. The caller guarantees that every element
// has type elem.
func NewVector(elem DataType, elems []Data) Data {
	out := make([]Data, len(elems))
	copy(out, elems)
	return Data{kind: KindVector, data: &vector{elem: elem, elems: out}}
}

func (d Data) Kind() DataKind {
	return d.kind
}

func (d Data) Int() int64 {
	if v, ok := d.data.(int64); ok {
		return v
	}
	return 0
}

func (d Data) Bool() bool {
	if v, ok := d.data.(bool); ok {
		return v
	}
	return false
}

func (d Data) Str() string {
	if v, ok := d.data.(string); ok {
		return v
	}
	return ""
}

func (d Data) vec() *vector {
	if v, ok := d.data.(*vector); ok {
		return v
	}
	return &vector{}
}

// Len reports the number of elements of a vector value.
func (d Data) Len() int {
	return len(d.vec().elems)
}

// Elements returns a copy of a vector's elements.
func (d Data) Elements() []Data {
	elems := d.vec().elems
	out := make([]Data, len(elems))
	copy(out, elems)
	return out
}

func (d Data) at(i int) Data {
	return d.vec().elems[i]
}

// withElement returns a copy of the vector with index i overwritten, or
// with value appended when i equals the length.
func (d Data) withElement(i int, value Data) Data {
	v := d.vec()
	elems := make([]Data, len(v.elems), len(v.elems)+1)
	copy(elems, v.elems)
	if i == len(elems) {
		elems = append(elems, value)
	} else {
		elems[i] = value
	}
	return Data{kind: KindVector, data: &vector{elem: v.elem, elems: elems}}
}

// Type returns the runtime datatype of the value.
func (d Data) Type() DataType {
	switch d.kind {
	case KindInt:
		return IntType
	case KindBool:
		return BoolType
	case KindStr:
		return StrType
	default:
		return VectorOf(d.vec().elem)
	}
}

// String renders the value the way print shows it. Vectors render bracketed
// and comma separated; strings inside vectors are not quoted, so the
// rendering cannot be lexed back into the same value.
func (d Data) String() string {
	switch d.kind {
	case KindInt:
		return strconv.FormatInt(d.Int(), 10)
	case KindBool:
		return strconv.FormatBool(d.Bool())
	case KindStr:
		return d.Str()
	default:
		var sb strings.Builder
		sb.WriteByte('[')
		for i, elem := range d.vec().elems {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(elem.String())
		}
		sb.WriteByte(']')
		return sb.String()
	}
}

// Describe names the value's type together with a short rendering of it.
func (d Data) Describe() string {
	rendered := d.String()
	if d.kind == KindStr {
		rendered = strconv.Quote(rendered)
	}
	if runes := []rune(rendered); len(runes) > 32 {
		rendered = string(runes[:29]) + "..."
	}
	return fmt.Sprintf("%s `%s`", d.Type(), rendered)
}

// Equal reports structural equality, including element types of vectors.
func (d Data) Equal(other Data) bool {
	if !d.Type().Equal(other.Type()) {
		return false
	}
	return compareData(d, other) == 0
}

// compareData orders two values of the same type: integers numerically,
// strings bytewise, false before true, vectors lexicographically.
func compareData(a, b Data) int {
	switch a.kind {
	case KindInt:
		switch x, y := a.Int(), b.Int(); {
		case x < y:
			return -1
		case x > y:
			return 1
		}
		return 0
	case KindBool:
		x, y := a.Bool(), b.Bool()
		switch {
		case x == y:
			return 0
		case y:
			return -1
		}
		return 1
	case KindStr:
		return strings.Compare(a.Str(), b.Str())
	default:
		xs, ys := a.vec().elems, b.vec().elems
		for i := 0; i < len(xs) && i < len(ys); i++ {
			if c := compareData(xs[i], ys[i]); c != 0 {
				return c
			}
		}
		switch {
		case len(xs) < len(ys):
			return -1
		case len(xs) > len(ys):
			return 1
		}
		return 0
	}
}
