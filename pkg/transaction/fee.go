package transaction

import (
	"github.com/holiman/uint256"
)

// Transaction envelope types. The type tag is decided by the fee scheme the
// transaction was built with.
const (
	// LegacyType is the pre-typed-envelope transaction format priced with a
	// single gas price.
	LegacyType byte = 0x00
	// DynamicFeeType is the EIP-1559 envelope priced with a base/priority
	// fee pair.
	DynamicFeeType byte = 0x02
)

// FeeScheme describes how a transaction pays for its execution. It is a
// closed set: either a single gas price (LegacyFee) or a fee cap/priority
// fee pair (DynamicFee). The scheme is decided once at build time and fixes
// the transaction's envelope type.
type FeeScheme interface {
	// Type returns the transaction envelope type tag this scheme implies.
	Type() byte
	// GasLimit returns the execution gas limit carried by the scheme.
	GasLimit() uint64

	feeScheme()
}

// LegacyFee prices a transaction with a single gas price.
type LegacyFee struct {
	GasPrice *uint256.Int
	Gas      uint64
}

// Type implements the FeeScheme interface.
func (LegacyFee) Type() byte { return LegacyType }

// GasLimit implements the FeeScheme interface.
func (f LegacyFee) GasLimit() uint64 { return f.Gas }

func (LegacyFee) feeScheme() {}

// DynamicFee prices a transaction with an EIP-1559 fee cap and priority fee.
type DynamicFee struct {
	MaxFeePerGas         *uint256.Int
	MaxPriorityFeePerGas *uint256.Int
	Gas                  uint64
}

// Type implements the FeeScheme interface.
func (DynamicFee) Type() byte { return DynamicFeeType }

// GasLimit implements the FeeScheme interface.
func (f DynamicFee) GasLimit() uint64 { return f.Gas }

func (DynamicFee) feeScheme() {}
