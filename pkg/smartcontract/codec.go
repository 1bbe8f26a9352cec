package smartcontract

import (
	"encoding/binary"
	"fmt"
	"math/big"

	"github.com/holiman/uint256"

	"github.com/mexyusef/fmus-fintech/pkg/util"
)

// wordSize is the ABI encoding unit, every head slot is one word.
const wordSize = 32

// Codec is the ABI byte encoding capability consumed by the contract
// dispatch engine. StdCodec is the default implementation, the interface
// exists so tests and alternative encodings can stand in for it.
type Codec interface {
	// EncodeCall produces complete call data for the method: its 4-byte
	// selector followed by the encoded arguments.
	EncodeCall(m *Method, args []any) ([]byte, error)
	// EncodeValues encodes the given values per the given types.
	EncodeValues(types []ParamType, values []any) ([]byte, error)
	// DecodeValues decodes the given data per the given types.
	DecodeValues(types []ParamType, data []byte) ([]any, error)
}

// StdCodec implements the standard head/tail contract ABI encoding for the
// supported parameter types.
type StdCodec struct{}

// EncodeCall implements the Codec interface.
func (c StdCodec) EncodeCall(m *Method, args []any) ([]byte, error) {
	enc, err := c.EncodeValues(paramTypes(m.Inputs), args)
	if err != nil {
		return nil, fmt.Errorf("encoding call to %s: %w", m.Name, err)
	}
	return append(m.Selector(), enc...), nil
}

// EncodeValues implements the Codec interface.
func (c StdCodec) EncodeValues(types []ParamType, values []any) ([]byte, error) {
	if len(values) != len(types) {
		return nil, fmt.Errorf("expected %d values, got %d", len(types), len(values))
	}
	return c.encodeTuple(types, values)
}

// DecodeValues implements the Codec interface.
func (c StdCodec) DecodeValues(types []ParamType, data []byte) ([]any, error) {
	return c.decodeTuple(types, data)
}

func paramTypes(params []Parameter) []ParamType {
	types := make([]ParamType, len(params))
	for i := range params {
		types[i] = params[i].Type
	}
	return types
}

// encodeTuple encodes the values as the head (inline statics and offset
// words) followed by the tail (dynamic payloads the offsets point into).
func (c StdCodec) encodeTuple(types []ParamType, values []any) ([]byte, error) {
	var headSize int
	for i := range types {
		headSize += types[i].headSize()
	}
	var (
		head = make([]byte, 0, headSize)
		tail []byte
	)
	for i := range types {
		if types[i].IsDynamic() {
			head = append(head, encodeLength(headSize+len(tail))...)
			enc, err := c.encodeDynamic(types[i], values[i])
			if err != nil {
				return nil, err
			}
			tail = append(tail, enc...)
			continue
		}
		enc, err := c.encodeStatic(types[i], values[i])
		if err != nil {
			return nil, err
		}
		head = append(head, enc...)
	}
	return append(head, tail...), nil
}

func (c StdCodec) encodeStatic(t ParamType, v any) ([]byte, error) {
	switch t.Kind {
	case UintKind:
		n, err := toUint256(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", t, err)
		}
		if t.Bits < 256 && n.BitLen() > t.Bits {
			return nil, fmt.Errorf("%s: value %s out of range", t, n)
		}
		word := n.Bytes32()
		return word[:], nil
	case BoolKind:
		b, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("bool: unexpected value of type %T", v)
		}
		word := make([]byte, wordSize)
		if b {
			word[wordSize-1] = 1
		}
		return word, nil
	case AddressKind:
		addr, err := toAddress(v)
		if err != nil {
			return nil, err
		}
		word := make([]byte, wordSize)
		copy(word[wordSize-len(addr):], addr.Bytes())
		return word, nil
	case FixedBytesKind:
		b, ok := v.([]byte)
		if !ok {
			return nil, fmt.Errorf("%s: unexpected value of type %T", t, v)
		}
		if len(b) != t.Size {
			return nil, fmt.Errorf("%s: expected %d bytes, got %d", t, t.Size, len(b))
		}
		word := make([]byte, wordSize)
		copy(word, b)
		return word, nil
	case TupleKind:
		elems, ok := v.([]any)
		if !ok {
			return nil, fmt.Errorf("%s: unexpected value of type %T", t, v)
		}
		if len(elems) != len(t.Elems) {
			return nil, fmt.Errorf("%s: expected %d components, got %d", t, len(t.Elems), len(elems))
		}
		return c.encodeTuple(t.Elems, elems)
	default:
		return nil, fmt.Errorf("can't encode %s statically", t)
	}
}

func (c StdCodec) encodeDynamic(t ParamType, v any) ([]byte, error) {
	switch t.Kind {
	case StringKind:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("string: unexpected value of type %T", v)
		}
		return encodeByteString([]byte(s)), nil
	case BytesKind:
		b, ok := v.([]byte)
		if !ok {
			return nil, fmt.Errorf("bytes: unexpected value of type %T", v)
		}
		return encodeByteString(b), nil
	case TupleKind:
		elems, ok := v.([]any)
		if !ok {
			return nil, fmt.Errorf("%s: unexpected value of type %T", t, v)
		}
		if len(elems) != len(t.Elems) {
			return nil, fmt.Errorf("%s: expected %d components, got %d", t, len(t.Elems), len(elems))
		}
		return c.encodeTuple(t.Elems, elems)
	default:
		return nil, fmt.Errorf("can't encode %s dynamically", t)
	}
}

// encodeByteString is the length word followed by the data padded up to a
// whole number of words.
func encodeByteString(b []byte) []byte {
	padded := (len(b) + wordSize - 1) / wordSize * wordSize
	enc := make([]byte, wordSize+padded)
	copy(enc, encodeLength(len(b)))
	copy(enc[wordSize:], b)
	return enc
}

func encodeLength(n int) []byte {
	word := make([]byte, wordSize)
	binary.BigEndian.PutUint64(word[wordSize-8:], uint64(n))
	return word
}

func toUint256(v any) (*uint256.Int, error) {
	switch n := v.(type) {
	case *uint256.Int:
		if n == nil {
			return nil, fmt.Errorf("nil value")
		}
		return n, nil
	case uint256.Int:
		return &n, nil
	case uint64:
		return uint256.NewInt(n), nil
	case uint:
		return uint256.NewInt(uint64(n)), nil
	case int:
		if n < 0 {
			return nil, fmt.Errorf("negative value %d", n)
		}
		return uint256.NewInt(uint64(n)), nil
	case int64:
		if n < 0 {
			return nil, fmt.Errorf("negative value %d", n)
		}
		return uint256.NewInt(uint64(n)), nil
	case *big.Int:
		res, overflow := uint256.FromBig(n)
		if overflow {
			return nil, fmt.Errorf("value %s doesn't fit into 256 bits", n)
		}
		return res, nil
	default:
		return nil, fmt.Errorf("unexpected value of type %T", v)
	}
}

func toAddress(v any) (util.Address, error) {
	switch a := v.(type) {
	case util.Address:
		return a, nil
	case *util.Address:
		if a == nil {
			return util.Address{}, fmt.Errorf("address: nil value")
		}
		return *a, nil
	case string:
		return util.AddressFromString(a)
	default:
		return util.Address{}, fmt.Errorf("address: unexpected value of type %T", v)
	}
}

// decodeTuple walks the head, decoding static values in place and following
// offset words into the tail for dynamic ones. Offsets are relative to the
// start of the tuple encoding, which is why nested tuples recurse with a
// reslice.
func (c StdCodec) decodeTuple(types []ParamType, data []byte) ([]any, error) {
	vals := make([]any, len(types))
	var offset int
	for i := range types {
		if types[i].IsDynamic() {
			word, err := readWord(data, offset)
			if err != nil {
				return nil, fmt.Errorf("decoding %s: %w", types[i], err)
			}
			at, err := decodeLength(word)
			if err != nil {
				return nil, fmt.Errorf("decoding %s: bad offset: %w", types[i], err)
			}
			if at > len(data) {
				return nil, fmt.Errorf("decoding %s: offset %d beyond data end", types[i], at)
			}
			v, err := c.decodeDynamic(types[i], data[at:])
			if err != nil {
				return nil, err
			}
			vals[i] = v
			offset += wordSize
			continue
		}
		v, err := c.decodeStatic(types[i], data, offset)
		if err != nil {
			return nil, err
		}
		vals[i] = v
		offset += types[i].headSize()
	}
	return vals, nil
}

func (c StdCodec) decodeStatic(t ParamType, data []byte, offset int) (any, error) {
	if t.Kind == TupleKind {
		if offset > len(data) {
			return nil, fmt.Errorf("decoding %s: truncated data", t)
		}
		return c.decodeTuple(t.Elems, data[offset:])
	}
	word, err := readWord(data, offset)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", t, err)
	}
	switch t.Kind {
	case UintKind:
		n := new(uint256.Int).SetBytes(word)
		if t.Bits < 256 && n.BitLen() > t.Bits {
			return nil, fmt.Errorf("decoding %s: value %s out of range", t, n)
		}
		return n, nil
	case BoolKind:
		for _, b := range word[:wordSize-1] {
			if b != 0 {
				return nil, fmt.Errorf("decoding bool: dirty word")
			}
		}
		switch word[wordSize-1] {
		case 0:
			return false, nil
		case 1:
			return true, nil
		default:
			return nil, fmt.Errorf("decoding bool: bad value %d", word[wordSize-1])
		}
	case AddressKind:
		return util.AddressFromBytes(word[wordSize-20:])
	case FixedBytesKind:
		b := make([]byte, t.Size)
		copy(b, word)
		return b, nil
	default:
		return nil, fmt.Errorf("can't decode %s statically", t)
	}
}

// decodeDynamic decodes a dynamic value from data starting at its encoding
// (data is already resliced to the offset the head pointed at).
func (c StdCodec) decodeDynamic(t ParamType, data []byte) (any, error) {
	switch t.Kind {
	case StringKind, BytesKind:
		word, err := readWord(data, 0)
		if err != nil {
			return nil, fmt.Errorf("decoding %s: %w", t, err)
		}
		size, err := decodeLength(word)
		if err != nil {
			return nil, fmt.Errorf("decoding %s: bad length: %w", t, err)
		}
		if wordSize+size > len(data) {
			return nil, fmt.Errorf("decoding %s: length %d beyond data end", t, size)
		}
		b := make([]byte, size)
		copy(b, data[wordSize:])
		if t.Kind == StringKind {
			return string(b), nil
		}
		return b, nil
	case TupleKind:
		return c.decodeTuple(t.Elems, data)
	default:
		return nil, fmt.Errorf("can't decode %s dynamically", t)
	}
}

func readWord(data []byte, offset int) ([]byte, error) {
	if offset < 0 || offset+wordSize > len(data) {
		return nil, fmt.Errorf("truncated data at offset %d", offset)
	}
	return data[offset : offset+wordSize], nil
}

// decodeLength converts a word holding a length or an offset into an int,
// rejecting values that can't possibly index into real data.
func decodeLength(word []byte) (int, error) {
	for _, b := range word[:wordSize-8] {
		if b != 0 {
			return 0, fmt.Errorf("value too large")
		}
	}
	n := binary.BigEndian.Uint64(word[wordSize-8:])
	if n > 1<<31 {
		return 0, fmt.Errorf("value too large")
	}
	return int(n), nil
}
