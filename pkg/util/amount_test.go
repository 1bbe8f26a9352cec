package util

import (
	"math"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToBaseUnits(t *testing.T) {
	testCases := []struct {
		amount   float64
		decimals uint8
		expected string
	}{
		{1, 18, "1000000000000000000"},
		{1.5, 18, "1500000000000000000"},
		{0.000000000000000001, 18, "1"},
		{0, 18, "0"},
		{2, 6, "2000000"},
		{0.1, 6, "100000"},
		{123.456, 0, "123"},
	}
	for _, tc := range testCases {
		u, err := ToBaseUnits(tc.amount, tc.decimals)
		require.NoError(t, err)
		assert.Equal(t, tc.expected, u.Dec(), "amount %v decimals %d", tc.amount, tc.decimals)
	}
}

func TestToBaseUnitsInvalid(t *testing.T) {
	for _, amount := range []float64{-1, math.NaN(), math.Inf(1), math.Inf(-1)} {
		_, err := ToBaseUnits(amount, 18)
		assert.Error(t, err, "amount %v", amount)
	}
	// 1e60 * 10^18 doesn't fit into 256 bits.
	_, err := ToBaseUnits(1e60, 18)
	assert.Error(t, err)
}

func TestFromBaseUnits(t *testing.T) {
	u, err := uint256.FromDecimal("1500000000000000000")
	require.NoError(t, err)
	assert.InDelta(t, 1.5, FromBaseUnits(u, 18), 1e-12)

	assert.Zero(t, FromBaseUnits(nil, 18))
	assert.Zero(t, FromBaseUnits(uint256.NewInt(0), 18))
	assert.InDelta(t, 42, FromBaseUnits(uint256.NewInt(42), 0), 1e-12)
}

func TestBaseUnitsRoundTrip(t *testing.T) {
	for _, amount := range []float64{0.1, 1.0 / 3, 12345.6789, 1e-9} {
		u, err := ToBaseUnits(amount, 18)
		require.NoError(t, err)
		assert.InDelta(t, amount, FromBaseUnits(u, 18), 1e-12)
	}
}
