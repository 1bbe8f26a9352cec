package util

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"strings"
)

// HashSize is the size of a transaction or block hash in bytes.
const HashSize = 32

// Hash is a 32 byte long digest used for transaction hashes, block hashes
// and event topics.
type Hash [HashSize]uint8

// HashFromString attempts to decode the given 0x-prefixed hex string into
// a Hash.
func HashFromString(s string) (Hash, error) {
	var h Hash
	if !strings.HasPrefix(s, "0x") {
		return h, fmt.Errorf("hash %q lacks 0x prefix", s)
	}
	if len(s) != 2+HashSize*2 {
		return h, fmt.Errorf("expected hash string size of %d got %d", 2+HashSize*2, len(s))
	}
	b, err := hex.DecodeString(strings.ToLower(s[2:]))
	if err != nil {
		return h, fmt.Errorf("hash %q is not valid hex: %w", s, err)
	}
	return HashFromBytes(b)
}

// HashFromBytes attempts to decode the given bytes into a Hash.
func HashFromBytes(b []byte) (h Hash, err error) {
	if len(b) != HashSize {
		return h, fmt.Errorf("expected byte size of %d got %d", HashSize, len(b))
	}
	copy(h[:], b)
	return
}

// Bytes returns the byte slice representation of h.
func (h Hash) Bytes() []byte {
	return h[:]
}

// IsZero returns true if h is the zero hash.
func (h Hash) IsZero() bool {
	return h == Hash{}
}

// Equals returns true if both Hash values are the same.
func (h Hash) Equals(other Hash) bool {
	return h == other
}

// String implements the stringer interface.
func (h Hash) String() string {
	return "0x" + hex.EncodeToString(h[:])
}

// MarshalJSON implements the json marshaller interface.
func (h Hash) MarshalJSON() ([]byte, error) {
	return []byte(`"` + h.String() + `"`), nil
}

// UnmarshalJSON implements the json unmarshaller interface.
func (h *Hash) UnmarshalJSON(data []byte) (err error) {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	js := strings.Trim(string(data), `"`)
	*h, err = HashFromString(js)
	return err
}
