package transaction

import (
	"github.com/holiman/uint256"

	"github.com/mexyusef/fmus-fintech/pkg/util"
)

// Signer is the signing capability a Transaction needs to transition from
// the unsigned to the signed state. Implementations must be deterministic
// for identical digests and must not retain or mutate key material passed
// to them during construction. The wallet package provides the standard
// secp256k1 implementation.
type Signer interface {
	// SignHash signs a 32-byte payload digest and returns the two signature
	// scalars and the recovery parity bit.
	SignHash(digest util.Hash) (r, s *uint256.Int, v byte, err error)
}
