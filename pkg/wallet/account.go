/*
Package wallet realizes the signing capability: secp256k1 accounts with
address derivation and recoverable hash signing. Key derivation schemes
(mnemonics, hierarchical paths) are out of scope, an account is a single
raw key.
*/
package wallet

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"github.com/holiman/uint256"

	"github.com/mexyusef/fmus-fintech/pkg/crypto/hash"
	"github.com/mexyusef/fmus-fintech/pkg/util"
)

// Account is a single secp256k1 keypair with its derived address. It
// implements transaction.Signer.
type Account struct {
	privateKey *secp256k1.PrivateKey
	address    util.Address
}

// New creates an account with a fresh random key.
func New() (*Account, error) {
	key, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return nil, fmt.Errorf("failed to generate private key: %w", err)
	}
	return fromKey(key), nil
}

// FromHex creates an account from a 32-byte private key in hex, with or
// without the 0x prefix.
func FromHex(s string) (*Account, error) {
	if !util.IsPrivateKey(s) {
		return nil, fmt.Errorf("invalid private key: expected 32 bytes in hex")
	}
	b, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	key := secp256k1.PrivKeyFromBytes(b)
	if key.Key.IsZero() {
		return nil, fmt.Errorf("invalid private key: zero or out of group order")
	}
	return fromKey(key), nil
}

func fromKey(key *secp256k1.PrivateKey) *Account {
	// The address is the trailing 20 bytes of the keccak digest of the
	// uncompressed public key without its format prefix.
	pub := key.PubKey().SerializeUncompressed()
	var addr util.Address
	copy(addr[:], hash.Keccak256(pub[1:])[12:])
	return &Account{privateKey: key, address: addr}
}

// Address returns the account address.
func (a *Account) Address() util.Address {
	return a.address
}

// PublicKey returns the uncompressed serialized public key.
func (a *Account) PublicKey() []byte {
	return a.privateKey.PubKey().SerializeUncompressed()
}

// SignHash implements the transaction.Signer interface. It produces a
// deterministic recoverable signature over the given digest, v is the bare
// recovery parity (0 or 1), envelope-specific adjustments are up to the
// transaction encoding.
func (a *Account) SignHash(digest util.Hash) (r, s *uint256.Int, v byte, err error) {
	sig := ecdsa.SignCompact(a.privateKey, digest.Bytes(), false)
	if len(sig) != 65 {
		return nil, nil, 0, fmt.Errorf("unexpected signature length %d", len(sig))
	}
	// SignCompact puts the recovery code first as 27 + parity for
	// uncompressed keys.
	v = sig[0] - 27
	r = new(uint256.Int).SetBytes(sig[1:33])
	s = new(uint256.Int).SetBytes(sig[33:65])
	return r, s, v, nil
}
