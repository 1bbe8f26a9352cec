package smartcontract

import (
	"encoding/hex"
	"strings"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mexyusef/fmus-fintech/pkg/util"
)

func mustAddress(t *testing.T, s string) util.Address {
	a, err := util.AddressFromString(s)
	require.NoError(t, err)
	return a
}

func TestEncodeCall(t *testing.T) {
	abi, err := ParseABI([]byte(tokenABI))
	require.NoError(t, err)
	codec := StdCodec{}

	balanceOf, _ := abi.GetMethod("balanceOf")
	data, err := codec.EncodeCall(balanceOf, []any{
		mustAddress(t, "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed"),
	})
	require.NoError(t, err)
	assert.Equal(t,
		"70a08231"+
			"0000000000000000000000005aaeb6053f3e94c9b9a09f33669435e7ef1beaed",
		hex.EncodeToString(data))

	transfer, _ := abi.GetMethod("transfer")
	data, err = codec.EncodeCall(transfer, []any{
		mustAddress(t, "0x3535353535353535353535353535353535353535"),
		uint256.NewInt(1),
	})
	require.NoError(t, err)
	assert.Equal(t,
		"a9059cbb"+
			"0000000000000000000000003535353535353535353535353535353535353535"+
			"0000000000000000000000000000000000000000000000000000000000000001",
		hex.EncodeToString(data))

	// Argument count and type mismatches are encoding errors.
	_, err = codec.EncodeCall(transfer, []any{uint256.NewInt(1)})
	assert.Error(t, err)
	_, err = codec.EncodeCall(transfer, []any{"not an address", uint256.NewInt(1)})
	assert.Error(t, err)
}

func TestEncodeValuesStatic(t *testing.T) {
	codec := StdCodec{}

	enc, err := codec.EncodeValues(
		[]ParamType{UintType(8), BoolType},
		[]any{uint64(255), true},
	)
	require.NoError(t, err)
	assert.Equal(t,
		"00000000000000000000000000000000000000000000000000000000000000ff"+
			"0000000000000000000000000000000000000000000000000000000000000001",
		hex.EncodeToString(enc))

	// 256 doesn't fit into uint8.
	_, err = codec.EncodeValues([]ParamType{UintType(8)}, []any{uint64(256)})
	assert.Error(t, err)

	// Fixed bytes must have the exact length.
	_, err = codec.EncodeValues([]ParamType{FixedBytesType(4)}, []any{[]byte{1, 2, 3}})
	assert.Error(t, err)
	enc, err = codec.EncodeValues([]ParamType{FixedBytesType(4)}, []any{[]byte{0xde, 0xad, 0xbe, 0xef}})
	require.NoError(t, err)
	assert.Equal(t, "deadbeef"+strings.Repeat("00", 28), hex.EncodeToString(enc))
}

func TestEncodeValuesDynamic(t *testing.T) {
	codec := StdCodec{}

	enc, err := codec.EncodeValues([]ParamType{StringType}, []any{"dog"})
	require.NoError(t, err)
	assert.Equal(t,
		"0000000000000000000000000000000000000000000000000000000000000020"+
			"0000000000000000000000000000000000000000000000000000000000000003"+
			"646f67"+strings.Repeat("00", 29),
		hex.EncodeToString(enc))

	// A static value before a dynamic one: the offset counts the whole head.
	enc, err = codec.EncodeValues(
		[]ParamType{UintType(256), BytesType},
		[]any{uint64(7), []byte{0xaa}},
	)
	require.NoError(t, err)
	assert.Equal(t,
		"0000000000000000000000000000000000000000000000000000000000000007"+
			"0000000000000000000000000000000000000000000000000000000000000040"+
			"0000000000000000000000000000000000000000000000000000000000000001"+
			"aa"+strings.Repeat("00", 31),
		hex.EncodeToString(enc))
}

func TestDecodeValues(t *testing.T) {
	codec := StdCodec{}

	// A canned name() response.
	data, err := hex.DecodeString(
		"0000000000000000000000000000000000000000000000000000000000000020" +
			"0000000000000000000000000000000000000000000000000000000000000004" +
			"5553444300000000000000000000000000000000000000000000000000000000")
	require.NoError(t, err)
	vals, err := codec.DecodeValues([]ParamType{StringType}, data)
	require.NoError(t, err)
	require.Len(t, vals, 1)
	assert.Equal(t, "USDC", vals[0])

	// A canned balanceOf() response.
	data, err = hex.DecodeString("00000000000000000000000000000000000000000000000000000000000f4240")
	require.NoError(t, err)
	vals, err = codec.DecodeValues([]ParamType{UintType(256)}, data)
	require.NoError(t, err)
	assert.Equal(t, uint256.NewInt(1000000), vals[0])

	// Mixed static outputs.
	data, err = hex.DecodeString(
		"0000000000000000000000000000000000000000000000000000000000000001" +
			"0000000000000000000000005aaeb6053f3e94c9b9a09f33669435e7ef1beaed")
	require.NoError(t, err)
	vals, err = codec.DecodeValues([]ParamType{BoolType, AddressType}, data)
	require.NoError(t, err)
	assert.Equal(t, true, vals[0])
	assert.Equal(t, mustAddress(t, "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed"), vals[1])
}

func TestDecodeValuesErrors(t *testing.T) {
	codec := StdCodec{}

	// Truncated head.
	_, err := codec.DecodeValues([]ParamType{UintType(256)}, make([]byte, 16))
	assert.Error(t, err)

	// Offset beyond data end.
	data, _ := hex.DecodeString("00000000000000000000000000000000000000000000000000000000000000ff")
	_, err = codec.DecodeValues([]ParamType{StringType}, data)
	assert.Error(t, err)

	// Length beyond data end.
	data, _ = hex.DecodeString(
		"0000000000000000000000000000000000000000000000000000000000000020" +
			"00000000000000000000000000000000000000000000000000000000000000ff")
	_, err = codec.DecodeValues([]ParamType{BytesType}, data)
	assert.Error(t, err)

	// A bool word must be all zeroes but the last bit.
	data, _ = hex.DecodeString("0000000000000000000000000000000000000000000000000000000000000002")
	_, err = codec.DecodeValues([]ParamType{BoolType}, data)
	assert.Error(t, err)

	// A uint8 word with high bytes set.
	data, _ = hex.DecodeString("0000000000000000000000000000000000000000000000000000000000000100")
	_, err = codec.DecodeValues([]ParamType{UintType(8)}, data)
	assert.Error(t, err)
}

func TestTupleRoundTrip(t *testing.T) {
	codec := StdCodec{}
	typ := TupleType(UintType(256), StringType, BoolType)

	enc, err := codec.EncodeValues([]ParamType{typ}, []any{
		[]any{uint256.NewInt(42), "hello", true},
	})
	require.NoError(t, err)

	vals, err := codec.DecodeValues([]ParamType{typ}, enc)
	require.NoError(t, err)
	require.Len(t, vals, 1)
	tuple, ok := vals[0].([]any)
	require.True(t, ok)
	assert.Equal(t, uint256.NewInt(42), tuple[0])
	assert.Equal(t, "hello", tuple[1])
	assert.Equal(t, true, tuple[2])
}
