/*
Package transaction defines EVM transactions, their builder and the signing
state machine that gates serialization and hashing.
*/
package transaction

import (
	"errors"
	"fmt"

	"github.com/holiman/uint256"

	"github.com/mexyusef/fmus-fintech/pkg/crypto/hash"
	"github.com/mexyusef/fmus-fintech/pkg/util"
)

// ErrUnsigned is returned when Serialize or Hash is called on a transaction
// that has not been signed yet.
var ErrUnsigned = errors.New("transaction is not signed")

// signature holds the three components produced by signing. A transaction
// is serializable and has a retrievable hash if and only if all of them are
// populated.
type signature struct {
	V byte
	R *uint256.Int
	S *uint256.Int
}

// Transaction is a single EVM transaction. It is created by Builder.Build,
// transitions from unsigned to signed exactly once via Sign (re-signing
// overwrites) and must never be mutated after it has been broadcast.
type Transaction struct {
	// To is the recipient. A nil recipient means contract creation.
	To *util.Address
	// Value is the transferred amount in base units (wei).
	Value *uint256.Int
	// Data is the call payload or, for deployments, the contract bytecode.
	Data []byte
	// Nonce is the sender's sequence number.
	Nonce uint64
	// ChainID is the replay-protection domain of the transaction.
	ChainID uint64
	// Fee is the fee scheme decided at build time.
	Fee FeeScheme

	sig  *signature
	raw  []byte
	hash util.Hash
}

// Type returns the transaction envelope type tag.
func (t *Transaction) Type() byte {
	return t.Fee.Type()
}

// Signed returns true if the transaction carries a complete signature.
func (t *Transaction) Signed() bool {
	return t.sig != nil && t.sig.R != nil && t.sig.S != nil
}

// Sign transitions the transaction into the signed state using the given
// signing capability. The broadcast encoding and the transaction hash are
// computed once here and are stable afterwards. Signing an already signed
// transaction overwrites the previous signature.
func (t *Transaction) Sign(signer Signer) error {
	digest := hash.Keccak256Hash(t.signingPayload())
	r, s, v, err := signer.SignHash(digest)
	if err != nil {
		return fmt.Errorf("sign transaction: %w", err)
	}
	if r == nil || s == nil {
		return fmt.Errorf("sign transaction: signer returned incomplete signature")
	}
	t.sig = &signature{V: v, R: r, S: s}
	t.raw = t.encodeSigned()
	t.hash = hash.Keccak256Hash(t.raw)
	return nil
}

// Serialize returns the broadcast encoding of the transaction. It fails
// with ErrUnsigned before Sign has succeeded and is deterministic after.
func (t *Transaction) Serialize() ([]byte, error) {
	if !t.Signed() {
		return nil, fmt.Errorf("serialize transaction: %w", ErrUnsigned)
	}
	out := make([]byte, len(t.raw))
	copy(out, t.raw)
	return out, nil
}

// Hash returns the transaction hash. It fails with ErrUnsigned before Sign
// has succeeded; afterwards it returns the value cached at signing time.
func (t *Transaction) Hash() (util.Hash, error) {
	if !t.Signed() {
		return util.Hash{}, fmt.Errorf("transaction hash: %w", ErrUnsigned)
	}
	return t.hash, nil
}

// recipientBytes returns the RLP field for the recipient, which is an empty
// byte string for contract creation.
func (t *Transaction) recipientBytes() []byte {
	if t.To == nil {
		return rlpBytes(nil)
	}
	return rlpBytes(t.To.Bytes())
}

// signingPayload is the byte sequence whose Keccak-256 digest is signed.
// Legacy transactions use the EIP-155 form with the chain ID folded into
// the payload, typed transactions prefix their envelope tag.
func (t *Transaction) signingPayload() []byte {
	switch fee := t.Fee.(type) {
	case LegacyFee:
		return rlpList(
			rlpUint(t.Nonce),
			rlpBig(fee.GasPrice),
			rlpUint(fee.Gas),
			t.recipientBytes(),
			rlpBig(t.Value),
			rlpBytes(t.Data),
			rlpUint(t.ChainID),
			rlpUint(0),
			rlpUint(0),
		)
	case DynamicFee:
		return append([]byte{DynamicFeeType}, rlpList(
			rlpUint(t.ChainID),
			rlpUint(t.Nonce),
			rlpBig(fee.MaxPriorityFeePerGas),
			rlpBig(fee.MaxFeePerGas),
			rlpUint(fee.Gas),
			t.recipientBytes(),
			rlpBig(t.Value),
			rlpBytes(t.Data),
			rlpList(),
		)...)
	default:
		panic(fmt.Sprintf("unknown fee scheme %T", t.Fee))
	}
}

// encodeSigned produces the broadcast encoding, valid only when the
// signature is populated.
func (t *Transaction) encodeSigned() []byte {
	switch fee := t.Fee.(type) {
	case LegacyFee:
		// EIP-155 recovery value: parity + chainID*2 + 35.
		v := uint64(t.sig.V) + t.ChainID*2 + 35
		return rlpList(
			rlpUint(t.Nonce),
			rlpBig(fee.GasPrice),
			rlpUint(fee.Gas),
			t.recipientBytes(),
			rlpBig(t.Value),
			rlpBytes(t.Data),
			rlpUint(v),
			rlpBig(t.sig.R),
			rlpBig(t.sig.S),
		)
	case DynamicFee:
		return append([]byte{DynamicFeeType}, rlpList(
			rlpUint(t.ChainID),
			rlpUint(t.Nonce),
			rlpBig(fee.MaxPriorityFeePerGas),
			rlpBig(fee.MaxFeePerGas),
			rlpUint(fee.Gas),
			t.recipientBytes(),
			rlpBig(t.Value),
			rlpBytes(t.Data),
			rlpList(),
			rlpUint(uint64(t.sig.V)),
			rlpBig(t.sig.R),
			rlpBig(t.sig.S),
		)...)
	default:
		panic(fmt.Sprintf("unknown fee scheme %T", t.Fee))
	}
}
