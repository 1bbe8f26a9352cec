package util

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The EIP-55 test vectors.
var checksummed = []string{
	"0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed",
	"0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359",
	"0xdbF03B407c01E7cD3CBea99509d93f8DDDC8C6FB",
	"0xD1220A0cf47c7B9Be7A2E6BA89F429762e7b9aDb",
}

func TestAddressFromString(t *testing.T) {
	for _, s := range checksummed {
		a, err := AddressFromString(strings.ToLower(s))
		require.NoError(t, err)
		assert.Equal(t, s, a.String())

		a, err = AddressFromString(s)
		require.NoError(t, err)
		assert.Equal(t, s, a.String())
	}

	_, err := AddressFromString("5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed")
	assert.Error(t, err)
	_, err = AddressFromString("0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAe")
	assert.Error(t, err)
	_, err = AddressFromString("0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAzz")
	assert.Error(t, err)
}

func TestAddressFromBytes(t *testing.T) {
	b := make([]byte, AddressSize)
	b[0] = 0xde
	b[19] = 0xad
	a, err := AddressFromBytes(b)
	require.NoError(t, err)
	assert.Equal(t, b, a.Bytes())

	_, err = AddressFromBytes(b[:19])
	assert.Error(t, err)
}

func TestAddressZeroAndEquals(t *testing.T) {
	var zero Address
	assert.True(t, zero.IsZero())

	a, err := AddressFromString(checksummed[0])
	require.NoError(t, err)
	assert.False(t, a.IsZero())
	assert.True(t, a.Equals(a))
	assert.False(t, a.Equals(zero))
}

func TestAddressJSON(t *testing.T) {
	a, err := AddressFromString(checksummed[1])
	require.NoError(t, err)

	data, err := json.Marshal(a)
	require.NoError(t, err)
	assert.Equal(t, `"`+checksummed[1]+`"`, string(data))

	var back Address
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, a, back)

	// Lowercase input is accepted too.
	require.NoError(t, json.Unmarshal([]byte(`"`+strings.ToLower(checksummed[1])+`"`), &back))
	assert.Equal(t, a, back)
}

func TestHashFromString(t *testing.T) {
	const s = "0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef"
	h, err := HashFromString(s)
	require.NoError(t, err)
	assert.Equal(t, s, h.String())

	_, err = HashFromString(s[:10])
	assert.Error(t, err)
	_, err = HashFromString(strings.TrimPrefix(s, "0x"))
	assert.Error(t, err)
}

func TestHashJSON(t *testing.T) {
	const s = "0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef"
	h, err := HashFromString(s)
	require.NoError(t, err)

	data, err := json.Marshal(h)
	require.NoError(t, err)
	assert.Equal(t, `"`+s+`"`, string(data))

	var back Hash
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, h, back)
}
