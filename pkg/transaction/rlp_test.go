package transaction

import (
	"bytes"
	"encoding/hex"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
)

func TestRlpUint(t *testing.T) {
	testCases := []struct {
		v        uint64
		expected string
	}{
		{0, "80"},
		{1, "01"},
		{0x7f, "7f"},
		{0x80, "8180"},
		{0x400, "820400"},
		{0xffffffff, "84ffffffff"},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.expected, hex.EncodeToString(rlpUint(tc.v)), "value %d", tc.v)
	}
}

func TestRlpBig(t *testing.T) {
	assert.Equal(t, "80", hex.EncodeToString(rlpBig(nil)))
	assert.Equal(t, "80", hex.EncodeToString(rlpBig(uint256.NewInt(0))))
	assert.Equal(t, "01", hex.EncodeToString(rlpBig(uint256.NewInt(1))))
	assert.Equal(t, "880de0b6b3a7640000",
		hex.EncodeToString(rlpBig(uint256.NewInt(1000000000000000000))))
}

func TestRlpBytes(t *testing.T) {
	// The canonical RLP examples.
	assert.Equal(t, "80", hex.EncodeToString(rlpBytes(nil)))
	assert.Equal(t, "00", hex.EncodeToString(rlpBytes([]byte{0})))
	assert.Equal(t, "83646f67", hex.EncodeToString(rlpBytes([]byte("dog"))))

	long := []byte("Lorem ipsum dolor sit amet, consectetur adipisicing elit")
	assert.Equal(t, "b838", hex.EncodeToString(rlpBytes(long)[:2]))
	assert.True(t, bytes.HasSuffix(rlpBytes(long), long))
}

func TestRlpList(t *testing.T) {
	assert.Equal(t, "c0", hex.EncodeToString(rlpList()))
	// ["cat", "dog"]
	got := rlpList(rlpBytes([]byte("cat")), rlpBytes([]byte("dog")))
	assert.Equal(t, "c88363617483646f67", hex.EncodeToString(got))
}
