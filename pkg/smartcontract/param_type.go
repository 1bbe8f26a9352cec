/*
Package smartcontract contains the contract ABI model: parameter types
parsed into a closed variant set, function/event/constructor descriptors
with their selectors and topics, and the standard ABI byte codec.
*/
package smartcontract

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind is the tag of a ParamType variant.
type Kind byte

// The closed set of supported parameter kinds. Anything else in an ABI is
// rejected when the ABI is parsed, not when a call is dispatched.
const (
	// UintKind is an unsigned integer of ParamType.Bits width.
	UintKind Kind = iota
	// BoolKind is a boolean.
	BoolKind
	// AddressKind is a 20-byte account address.
	AddressKind
	// StringKind is a dynamic UTF-8 string.
	StringKind
	// BytesKind is a dynamic byte string.
	BytesKind
	// FixedBytesKind is a byte string of ParamType.Size length.
	FixedBytesKind
	// TupleKind is an ordered composite of ParamType.Elems.
	TupleKind
)

// ParamType is a parsed ABI parameter type. Exactly one of the parameter
// fields is meaningful depending on Kind: Bits for UintKind, Size for
// FixedBytesKind, Elems for TupleKind.
type ParamType struct {
	Kind  Kind
	Bits  int
	Size  int
	Elems []ParamType
}

// Singleton types for the kinds that carry no parameters.
var (
	BoolType    = ParamType{Kind: BoolKind}
	AddressType = ParamType{Kind: AddressKind}
	StringType  = ParamType{Kind: StringKind}
	BytesType   = ParamType{Kind: BytesKind}
)

// UintType returns the unsigned integer type of the given width. The width
// must be a multiple of 8 between 8 and 256.
func UintType(bits int) ParamType {
	return ParamType{Kind: UintKind, Bits: bits}
}

// FixedBytesType returns the fixed-length byte string type of the given
// size (1 to 32).
func FixedBytesType(size int) ParamType {
	return ParamType{Kind: FixedBytesKind, Size: size}
}

// TupleType returns the composite type with the given components.
func TupleType(elems ...ParamType) ParamType {
	return ParamType{Kind: TupleKind, Elems: elems}
}

// String returns the canonical ABI name of the type, the form used in
// function signatures.
func (pt ParamType) String() string {
	switch pt.Kind {
	case UintKind:
		return "uint" + strconv.Itoa(pt.Bits)
	case BoolKind:
		return "bool"
	case AddressKind:
		return "address"
	case StringKind:
		return "string"
	case BytesKind:
		return "bytes"
	case FixedBytesKind:
		return "bytes" + strconv.Itoa(pt.Size)
	case TupleKind:
		elems := make([]string, len(pt.Elems))
		for i := range pt.Elems {
			elems[i] = pt.Elems[i].String()
		}
		return "(" + strings.Join(elems, ",") + ")"
	default:
		panic(fmt.Sprintf("bad ParamType kind %d", pt.Kind))
	}
}

// IsDynamic returns true for types whose encoding has no fixed length and
// is therefore reached through an offset word.
func (pt ParamType) IsDynamic() bool {
	switch pt.Kind {
	case StringKind, BytesKind:
		return true
	case TupleKind:
		for i := range pt.Elems {
			if pt.Elems[i].IsDynamic() {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// headSize returns the number of bytes the type occupies in the head part
// of an encoding. Dynamic types occupy a single offset word there.
func (pt ParamType) headSize() int {
	if pt.IsDynamic() {
		return wordSize
	}
	if pt.Kind == TupleKind {
		var size int
		for i := range pt.Elems {
			size += pt.Elems[i].headSize()
		}
		return size
	}
	return wordSize
}

// ParseParamType converts an ABI type name into a ParamType. Tuples can't
// be parsed from their name alone (the ABI lists their components
// separately), the ABI parser assembles them itself. Any type outside of
// the supported set is an error.
func ParseParamType(typ string) (ParamType, error) {
	switch typ {
	case "bool":
		return BoolType, nil
	case "address":
		return AddressType, nil
	case "string":
		return StringType, nil
	case "bytes":
		return BytesType, nil
	case "uint":
		return UintType(256), nil
	}
	if n, ok := strings.CutPrefix(typ, "uint"); ok {
		bits, err := strconv.Atoi(n)
		if err != nil || bits < 8 || bits > 256 || bits%8 != 0 {
			return ParamType{}, fmt.Errorf("bad uint width: %s", typ)
		}
		return UintType(bits), nil
	}
	if n, ok := strings.CutPrefix(typ, "bytes"); ok {
		size, err := strconv.Atoi(n)
		if err != nil || size < 1 || size > 32 {
			return ParamType{}, fmt.Errorf("bad fixed bytes size: %s", typ)
		}
		return FixedBytesType(size), nil
	}
	return ParamType{}, fmt.Errorf("unsupported parameter type: %s", typ)
}
