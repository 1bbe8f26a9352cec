package util

import (
	"fmt"
	"math/big"

	"github.com/holiman/uint256"
)

// NativeDecimals is the number of decimals of the native EVM currency.
const NativeDecimals = 18

// ToBaseUnits converts a human-readable amount into integer base units for a
// token with the given number of decimals, i.e. round(amount * 10^decimals).
// Rounding is half away from zero. Negative, NaN or infinite amounts and
// results beyond 256 bits are rejected.
func ToBaseUnits(amount float64, decimals uint8) (*uint256.Int, error) {
	if !IsValidAmount(amount) {
		return nil, fmt.Errorf("invalid amount: %v", amount)
	}
	f := new(big.Float).SetPrec(256).SetFloat64(amount)
	exp := new(big.Float).SetPrec(256).SetInt(pow10(decimals))
	f.Mul(f, exp)

	// Round half away from zero: big.Float.Int truncates, so add 0.5 first.
	f.Add(f, big.NewFloat(0.5))
	i, _ := f.Int(nil)

	u, overflow := uint256.FromBig(i)
	if overflow {
		return nil, fmt.Errorf("amount %v with %d decimals overflows 256 bits", amount, decimals)
	}
	return u, nil
}

// FromBaseUnits converts integer base units into a human-readable amount for
// a token with the given number of decimals. Precision is limited by
// float64, which is fine for display purposes; keep arithmetic in base
// units.
func FromBaseUnits(units *uint256.Int, decimals uint8) float64 {
	if units == nil {
		return 0
	}
	f := new(big.Float).SetPrec(256).SetInt(units.ToBig())
	exp := new(big.Float).SetPrec(256).SetInt(pow10(decimals))
	f.Quo(f, exp)
	out, _ := f.Float64()
	return out
}

func pow10(decimals uint8) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
}
