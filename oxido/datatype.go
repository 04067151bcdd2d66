package oxido

import (
	"fmt"
	"strings"
)

// TypeKind enumerates the declarable datatypes.
type TypeKind int

const (
	TypeInt TypeKind = iota
	TypeBool
	TypeStr
	TypeVector
)

// DataType is one point of the datatype lattice. Elem is set only for
// vectors. Two types are equal when their kinds match and, for vectors, their
// element types are recursively equal.
type DataType struct {
	Kind TypeKind
	Elem *DataType
}

var (
	IntType  = DataType{Kind: TypeInt}
	BoolType = DataType{Kind: TypeBool}
	StrType  = DataType{Kind: TypeStr}
)

// VectorOf returns the vector type with the given element type.
func VectorOf(elem DataType) DataType {
	e := elem
	return DataType{Kind: TypeVector, Elem: &e}
}

// Equal reports structural type equality.
func (t DataType) Equal(other DataType) bool {
	if t.Kind != other.Kind {
		return false
	}
	if t.Kind != TypeVector {
		return true
	}
	if t.Elem == nil || other.Elem == nil {
		return t.Elem == other.Elem
	}
	return t.Elem.Equal(*other.Elem)
}

// Element returns the element type of a vector type.
func (t DataType) Element() (DataType, bool) {
	if t.Kind != TypeVector || t.Elem == nil {
		return DataType{}, false
	}
	return *t.Elem, true
}

func (t DataType) String() string {
	switch t.Kind {
	case TypeInt:
		return "int"
	case TypeBool:
		return "bool"
	case TypeStr:
		return "str"
	case TypeVector:
		if t.Elem == nil {
			return "vec<?>"
		}
		return "vec<" + t.Elem.String() + ">"
	default:
		return fmt.Sprintf("type(%d)", int(t.Kind))
	}
}

// ParseDataType parses the textual form of a type such as `vec<vec<int>>`.
func ParseDataType(text string) (DataType, error) {
	dt, rest, err := parseDataTypePrefix(strings.TrimSpace(text))
	if err != nil {
		return DataType{}, err
	}
	if strings.TrimSpace(rest) != "" {
		return DataType{}, fmt.Errorf("unexpected %q after type", rest)
	}
	return dt, nil
}

// parseDataTypePrefix consumes one type from the start of text and returns
// the unconsumed remainder, which begins right after the type's last byte.
func parseDataTypePrefix(text string) (DataType, string, error) {
	end := 0
	for end < len(text) && isASCIILetter(text[end]) {
		end++
	}
	name, rest := text[:end], text[end:]
	switch name {
	case "int":
		return IntType, rest, nil
	case "bool":
		return BoolType, rest, nil
	case "str":
		return StrType, rest, nil
	case "vec":
		rest = trimTypeSpace(rest)
		if !strings.HasPrefix(rest, "<") {
			return DataType{}, rest, fmt.Errorf("expected `<` after vec")
		}
		elem, after, err := parseDataTypePrefix(trimTypeSpace(rest[1:]))
		if err != nil {
			return DataType{}, after, err
		}
		after = trimTypeSpace(after)
		if !strings.HasPrefix(after, ">") {
			return DataType{}, after, fmt.Errorf("expected `>` to close vec<%s", elem)
		}
		return VectorOf(elem), after[1:], nil
	case "":
		return DataType{}, rest, fmt.Errorf("expected type name")
	default:
		return DataType{}, rest, fmt.Errorf("unknown type `%s`", name)
	}
}

func trimTypeSpace(s string) string {
	return strings.TrimLeft(s, " \t\r\n")
}

func isASCIILetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}
