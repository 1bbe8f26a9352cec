package transaction

import (
	"math/bits"

	"github.com/holiman/uint256"
)

// Minimal RLP encoder covering the subset needed to serialize EVM
// transactions: unsigned integers, byte strings and flat lists. Decoding is
// never needed here, incoming transactions arrive as JSON.

// rlpUint encodes an unsigned integer as a minimal big-endian byte string.
func rlpUint(v uint64) []byte {
	if v == 0 {
		return []byte{0x80}
	}
	n := (bits.Len64(v) + 7) / 8
	b := make([]byte, n)
	for i := n - 1; i >= 0; i-- {
		b[i] = byte(v)
		v >>= 8
	}
	return rlpBytes(b)
}

// rlpBig encodes a 256-bit integer as a minimal big-endian byte string. A
// nil value encodes as zero.
func rlpBig(v *uint256.Int) []byte {
	if v == nil || v.IsZero() {
		return []byte{0x80}
	}
	return rlpBytes(v.Bytes())
}

// rlpBytes encodes a byte string with the appropriate length header.
func rlpBytes(b []byte) []byte {
	if len(b) == 1 && b[0] < 0x80 {
		return b
	}
	return append(rlpHeader(0x80, len(b)), b...)
}

// rlpList encodes the concatenation of already-encoded items as a list.
func rlpList(items ...[]byte) []byte {
	var payload []byte
	for _, it := range items {
		payload = append(payload, it...)
	}
	return append(rlpHeader(0xc0, len(payload)), payload...)
}

// rlpHeader produces the length header for a string (base 0x80) or list
// (base 0xc0) payload of the given size.
func rlpHeader(base byte, size int) []byte {
	if size < 56 {
		return []byte{base + byte(size)}
	}
	n := (bits.Len64(uint64(size)) + 7) / 8
	hdr := make([]byte, n+1)
	hdr[0] = base + 55 + byte(n)
	for i := n; i > 0; i-- {
		hdr[i] = byte(size)
		size >>= 8
	}
	return hdr
}
