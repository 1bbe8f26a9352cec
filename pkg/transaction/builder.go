package transaction

import (
	"errors"
	"fmt"

	"github.com/holiman/uint256"

	"github.com/mexyusef/fmus-fintech/pkg/util"
)

// Build-time validation errors. Setters never validate cross-field
// consistency, Build is the single validation gate.
var (
	// ErrMissingRecipient is returned when a non-deployment transaction is
	// built without a recipient.
	ErrMissingRecipient = errors.New("missing required field: recipient (to)")
	// ErrMissingFee is returned when no fee scheme has been selected or the
	// selected scheme lacks its price fields.
	ErrMissingFee = errors.New("missing required field: fee")
	// ErrMissingGasLimit is returned when no gas limit has been set.
	ErrMissingGasLimit = errors.New("missing required field: gas limit")
	// ErrFeeConflict is returned when both the legacy gas price and the
	// dynamic fee pair were set. The fee scheme is a single, final decision;
	// there is no "last setter wins" fallback.
	ErrFeeConflict = errors.New("conflicting fee schemes: both gas price and dynamic fee are set")
)

// Builder accumulates transaction fields through a fluent interface and
// produces an immutable Transaction via Build. All setters return the same
// builder instance. A Builder is not safe for concurrent use and is meant
// to be discarded after Build.
type Builder struct {
	chainID  uint64
	to       *util.Address
	value    *uint256.Int
	data     []byte
	deploy   bool
	nonce    uint64
	gas      uint64
	gasSet   bool
	gasPrice *uint256.Int
	maxFee   *uint256.Int
	maxTip   *uint256.Int
}

// NewBuilder creates a Builder for the given replay-protection chain ID.
func NewBuilder(chainID uint64) *Builder {
	return &Builder{chainID: chainID}
}

// ChainID returns the chain ID the builder was primed with.
func (b *Builder) ChainID() uint64 {
	return b.chainID
}

// To sets the recipient address.
func (b *Builder) To(addr util.Address) *Builder {
	b.to = &addr
	return b
}

// Value sets the transferred amount in base units.
func (b *Builder) Value(v *uint256.Int) *Builder {
	b.value = v
	return b
}

// Data sets the call payload.
func (b *Builder) Data(d []byte) *Builder {
	b.data = d
	return b
}

// Deployment marks the transaction as a contract creation carrying the
// given bytecode. Deployment transactions have no recipient.
func (b *Builder) Deployment(bytecode []byte) *Builder {
	b.deploy = true
	b.to = nil
	b.data = bytecode
	return b
}

// Nonce sets the sender sequence number.
func (b *Builder) Nonce(n uint64) *Builder {
	b.nonce = n
	return b
}

// GasLimit sets the execution gas limit.
func (b *Builder) GasLimit(g uint64) *Builder {
	b.gas = g
	b.gasSet = true
	return b
}

// GasPrice selects the legacy fee scheme with the given price.
func (b *Builder) GasPrice(p *uint256.Int) *Builder {
	b.gasPrice = p
	return b
}

// DynamicFee selects the EIP-1559 fee scheme with the given fee cap and
// priority fee.
func (b *Builder) DynamicFee(maxFeePerGas, maxPriorityFeePerGas *uint256.Int) *Builder {
	b.maxFee = maxFeePerGas
	b.maxTip = maxPriorityFeePerGas
	return b
}

// Fee applies a complete fee scheme, typically one produced by the
// manager's fee estimation.
func (b *Builder) Fee(scheme FeeScheme) *Builder {
	switch f := scheme.(type) {
	case LegacyFee:
		b.GasPrice(f.GasPrice)
	case DynamicFee:
		b.DynamicFee(f.MaxFeePerGas, f.MaxPriorityFeePerGas)
	}
	if g := scheme.GasLimit(); g != 0 {
		b.GasLimit(g)
	}
	return b
}

// Build validates the accumulated fields and produces the transaction. It
// fails fast with a descriptive error naming the missing field rather than
// filling required fields with implicit defaults.
func (b *Builder) Build() (*Transaction, error) {
	if !b.deploy && b.to == nil {
		return nil, fmt.Errorf("build transaction: %w", ErrMissingRecipient)
	}
	fee, err := b.feeScheme()
	if err != nil {
		return nil, fmt.Errorf("build transaction: %w", err)
	}
	value := b.value
	if value == nil {
		value = uint256.NewInt(0)
	}
	return &Transaction{
		To:      b.to,
		Value:   value,
		Data:    b.data,
		Nonce:   b.nonce,
		ChainID: b.chainID,
		Fee:     fee,
	}, nil
}

// feeScheme resolves the single fee scheme decision from the fee setters
// called on the builder.
func (b *Builder) feeScheme() (FeeScheme, error) {
	legacy := b.gasPrice != nil
	dynamic := b.maxFee != nil || b.maxTip != nil

	switch {
	case legacy && dynamic:
		return nil, ErrFeeConflict
	case !legacy && !dynamic:
		return nil, fmt.Errorf("%w: gas price or dynamic fee must be set", ErrMissingFee)
	case !b.gasSet:
		return nil, ErrMissingGasLimit
	case dynamic:
		if b.maxFee == nil {
			return nil, fmt.Errorf("%w: max fee per gas is not set", ErrMissingFee)
		}
		if b.maxTip == nil {
			return nil, fmt.Errorf("%w: max priority fee per gas is not set", ErrMissingFee)
		}
		return DynamicFee{MaxFeePerGas: b.maxFee, MaxPriorityFeePerGas: b.maxTip, Gas: b.gas}, nil
	default:
		return LegacyFee{GasPrice: b.gasPrice, Gas: b.gas}, nil
	}
}
