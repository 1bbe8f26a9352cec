/*
Package hash contains Keccak-256 helpers used for transaction hashes,
function selectors and event topics.
*/
package hash

import (
	"golang.org/x/crypto/sha3"

	"github.com/mexyusef/fmus-fintech/pkg/util"
)

// Keccak256 hashes the concatenation of the given byte slices with the legacy
// (pre-NIST) Keccak-256 function used throughout EVM chains.
func Keccak256(data ...[]byte) []byte {
	h := sha3.NewLegacyKeccak256()
	for _, b := range data {
		h.Write(b)
	}
	return h.Sum(nil)
}

// Keccak256Hash is like Keccak256, but returns the digest as util.Hash.
func Keccak256Hash(data ...[]byte) util.Hash {
	var u util.Hash
	copy(u[:], Keccak256(data...))
	return u
}
