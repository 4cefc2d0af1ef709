package classfile

import (
	"strings"

	"github.com/vladymyr/antiagent/errors"
)

// Sort classifies a descriptor type.
type Sort int

const (
	SortVoid Sort = iota
	SortBoolean
	SortChar
	SortByte
	SortShort
	SortInt
	SortFloat
	SortLong
	SortDouble
	SortArray
	SortObject
	SortMethod
)

// String returns the lowercase name of the sort.
func (s Sort) String() string {
	switch s {
	case SortVoid:
		return "void"
	case SortBoolean:
		return "boolean"
	case SortChar:
		return "char"
	case SortByte:
		return "byte"
	case SortShort:
		return "short"
	case SortInt:
		return "int"
	case SortFloat:
		return "float"
	case SortLong:
		return "long"
	case SortDouble:
		return "double"
	case SortArray:
		return "array"
	case SortObject:
		return "object"
	case SortMethod:
		return "method"
	default:
		return "unknown"
	}
}

// ReturnSort classifies the return type of a method descriptor such as
// "(ILjava/lang/String;)V". A descriptor without a parameter list, with an
// unterminated object type, or with a nested method type yields an
// invalid-descriptor error.
func ReturnSort(desc string) (Sort, error) {
	idx := strings.IndexByte(desc, ')')
	if idx < 0 || !strings.HasPrefix(desc, "(") {
		return 0, errors.InvalidDescriptor(desc, "missing parameter list")
	}
	ret := desc[idx+1:]
	if ret == "" {
		return 0, errors.InvalidDescriptor(desc, "missing return type")
	}

	switch ret[0] {
	case 'V':
		return SortVoid, nil
	case 'Z':
		return SortBoolean, nil
	case 'C':
		return SortChar, nil
	case 'B':
		return SortByte, nil
	case 'S':
		return SortShort, nil
	case 'I':
		return SortInt, nil
	case 'F':
		return SortFloat, nil
	case 'J':
		return SortLong, nil
	case 'D':
		return SortDouble, nil
	case '[':
		if len(ret) < 2 {
			return 0, errors.InvalidDescriptor(desc, "array of nothing")
		}
		return SortArray, nil
	case 'L':
		if !strings.HasSuffix(ret, ";") {
			return 0, errors.InvalidDescriptor(desc, "unterminated object type")
		}
		return SortObject, nil
	case '(':
		return SortMethod, errors.InvalidDescriptor(desc, "method type as return type")
	default:
		return 0, errors.InvalidDescriptor(desc, "unknown type character "+ret[:1])
	}
}
