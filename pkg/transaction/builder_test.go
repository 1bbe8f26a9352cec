package transaction

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mexyusef/fmus-fintech/pkg/util"
)

func testRecipient(t *testing.T) util.Address {
	addr, err := util.AddressFromString("0x3535353535353535353535353535353535353535")
	require.NoError(t, err)
	return addr
}

func TestBuildLegacy(t *testing.T) {
	to := testRecipient(t)
	tx, err := NewBuilder(1).
		To(to).
		Value(uint256.NewInt(1000)).
		Nonce(9).
		GasLimit(21000).
		GasPrice(uint256.NewInt(20000000000)).
		Build()
	require.NoError(t, err)

	assert.Equal(t, LegacyType, tx.Type())
	assert.Equal(t, uint64(1), tx.ChainID)
	assert.Equal(t, uint64(9), tx.Nonce)
	require.NotNil(t, tx.To)
	assert.Equal(t, to, *tx.To)
	fee, ok := tx.Fee.(LegacyFee)
	require.True(t, ok)
	assert.Equal(t, uint64(21000), fee.Gas)
	assert.False(t, tx.Signed())
}

func TestBuildDynamic(t *testing.T) {
	tx, err := NewBuilder(11155111).
		To(testRecipient(t)).
		GasLimit(30000).
		DynamicFee(uint256.NewInt(30000000000), uint256.NewInt(1000000000)).
		Build()
	require.NoError(t, err)
	assert.Equal(t, DynamicFeeType, tx.Type())

	fee, ok := tx.Fee.(DynamicFee)
	require.True(t, ok)
	assert.Equal(t, uint64(30000), fee.Gas)
	// Value defaults to zero, not nil.
	require.NotNil(t, tx.Value)
	assert.True(t, tx.Value.IsZero())
}

func TestBuildDeployment(t *testing.T) {
	code := []byte{0x60, 0x80, 0x60, 0x40}
	tx, err := NewBuilder(1).
		Deployment(code).
		GasLimit(1000000).
		GasPrice(uint256.NewInt(1)).
		Build()
	require.NoError(t, err)
	assert.Nil(t, tx.To)
	assert.Equal(t, code, tx.Data)
}

func TestBuildMissingRecipient(t *testing.T) {
	_, err := NewBuilder(1).
		GasLimit(21000).
		GasPrice(uint256.NewInt(1)).
		Build()
	assert.ErrorIs(t, err, ErrMissingRecipient)
}

func TestBuildMissingFee(t *testing.T) {
	_, err := NewBuilder(1).
		To(testRecipient(t)).
		GasLimit(21000).
		Build()
	assert.ErrorIs(t, err, ErrMissingFee)
}

func TestBuildMissingGasLimit(t *testing.T) {
	_, err := NewBuilder(1).
		To(testRecipient(t)).
		GasPrice(uint256.NewInt(1)).
		Build()
	assert.ErrorIs(t, err, ErrMissingGasLimit)
}

func TestBuildFeeConflict(t *testing.T) {
	// The fee scheme is decided once, setting both is an error rather than
	// a last-setter-wins race.
	_, err := NewBuilder(1).
		To(testRecipient(t)).
		GasLimit(21000).
		GasPrice(uint256.NewInt(1)).
		DynamicFee(uint256.NewInt(2), uint256.NewInt(1)).
		Build()
	assert.ErrorIs(t, err, ErrFeeConflict)
}

func TestBuildIncompleteDynamicFee(t *testing.T) {
	_, err := NewBuilder(1).
		To(testRecipient(t)).
		GasLimit(21000).
		DynamicFee(uint256.NewInt(2), nil).
		Build()
	assert.ErrorIs(t, err, ErrMissingFee)
}

func TestBuilderFeeScheme(t *testing.T) {
	// Applying a complete scheme sets both the price and the gas limit.
	tx, err := NewBuilder(1).
		To(testRecipient(t)).
		Fee(LegacyFee{GasPrice: uint256.NewInt(5), Gas: 21000}).
		Build()
	require.NoError(t, err)
	fee, ok := tx.Fee.(LegacyFee)
	require.True(t, ok)
	assert.Equal(t, uint64(21000), fee.Gas)
	assert.Equal(t, uint64(5), fee.GasPrice.Uint64())
}
