package evmrpc

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
)

// Uint64 is a JSON-RPC quantity: an integer encoded on the wire as a
// 0x-prefixed hexadecimal string with no leading zeroes.
type Uint64 uint64

// MarshalJSON implements the json marshaller interface.
func (u Uint64) MarshalJSON() ([]byte, error) {
	return []byte(`"0x` + strconv.FormatUint(uint64(u), 16) + `"`), nil
}

// UnmarshalJSON implements the json unmarshaller interface.
func (u *Uint64) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if !strings.HasPrefix(s, "0x") {
		return fmt.Errorf("quantity %q lacks 0x prefix", s)
	}
	v, err := strconv.ParseUint(s[2:], 16, 64)
	if err != nil {
		return fmt.Errorf("invalid quantity %q: %w", s, err)
	}
	*u = Uint64(v)
	return nil
}

// Bytes is binary data encoded on the wire as a 0x-prefixed hexadecimal
// string. Unlike quantities it keeps its leading zeroes.
type Bytes []byte

// MarshalJSON implements the json marshaller interface.
func (b Bytes) MarshalJSON() ([]byte, error) {
	return []byte(`"0x` + hex.EncodeToString(b) + `"`), nil
}

// UnmarshalJSON implements the json unmarshaller interface.
func (b *Bytes) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if !strings.HasPrefix(s, "0x") {
		return fmt.Errorf("data %q lacks 0x prefix", s)
	}
	raw, err := hex.DecodeString(s[2:])
	if err != nil {
		return fmt.Errorf("invalid data %q: %w", s, err)
	}
	*b = raw
	return nil
}

// String implements the stringer interface.
func (b Bytes) String() string {
	return "0x" + hex.EncodeToString(b)
}
