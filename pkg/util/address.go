package util

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/sha3"
)

// AddressSize is the size of an EVM account address in bytes.
const AddressSize = 20

// Address is a 20 byte long EVM account identifier.
type Address [AddressSize]uint8

// AddressFromString attempts to decode the given 0x-prefixed hex string into
// an Address.
func AddressFromString(s string) (Address, error) {
	var a Address
	if !strings.HasPrefix(s, "0x") {
		return a, fmt.Errorf("address %q lacks 0x prefix", s)
	}
	if len(s) != 2+AddressSize*2 {
		return a, fmt.Errorf("expected address string size of %d got %d", 2+AddressSize*2, len(s))
	}
	b, err := hex.DecodeString(s[2:])
	if err != nil {
		return a, fmt.Errorf("address %q is not valid hex: %w", s, err)
	}
	return AddressFromBytes(b)
}

// AddressFromBytes attempts to decode the given bytes into an Address.
func AddressFromBytes(b []byte) (a Address, err error) {
	if len(b) != AddressSize {
		return a, fmt.Errorf("expected byte size of %d got %d", AddressSize, len(b))
	}
	copy(a[:], b)
	return
}

// Bytes returns the byte slice representation of a.
func (a Address) Bytes() []byte {
	return a[:]
}

// IsZero returns true if a is the zero address.
func (a Address) IsZero() bool {
	return a == Address{}
}

// Equals returns true if both Address values are the same.
func (a Address) Equals(other Address) bool {
	return a == other
}

// String implements the stringer interface and returns the EIP-55
// checksummed 0x-prefixed representation of a.
func (a Address) String() string {
	return "0x" + checksumHex(a)
}

// checksumHex produces the mixed-case hex form of a per EIP-55: a hex digit
// is uppercased when the corresponding nibble of Keccak256(lowercase hex
// representation) is >= 8.
func checksumHex(a Address) string {
	lower := hex.EncodeToString(a[:])
	k := sha3.NewLegacyKeccak256()
	k.Write([]byte(lower))
	sum := k.Sum(nil)

	out := []byte(lower)
	for i, c := range out {
		if c < 'a' || c > 'f' {
			continue
		}
		nibble := sum[i/2]
		if i%2 == 0 {
			nibble >>= 4
		} else {
			nibble &= 0x0f
		}
		if nibble >= 8 {
			out[i] = c - ('a' - 'A')
		}
	}
	return string(out)
}

// MarshalJSON implements the json marshaller interface.
func (a Address) MarshalJSON() ([]byte, error) {
	return []byte(`"` + a.String() + `"`), nil
}

// UnmarshalJSON implements the json unmarshaller interface. Both checksummed
// and all-lowercase forms are accepted.
func (a *Address) UnmarshalJSON(data []byte) (err error) {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	js := strings.Trim(string(data), `"`)
	*a, err = AddressFromString(strings.ToLower(js))
	return err
}

// MarshalYAML implements the YAML marshaller interface.
func (a Address) MarshalYAML() (any, error) {
	return a.String(), nil
}

// UnmarshalYAML implements the YAML unmarshaller interface.
func (a *Address) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	addr, err := AddressFromString(strings.ToLower(s))
	if err != nil {
		return err
	}
	*a = addr
	return nil
}
