package contract

import (
	"context"
	"encoding/hex"
	"errors"
	"testing"
	"time"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mexyusef/fmus-fintech/pkg/evmrpc"
	"github.com/mexyusef/fmus-fintech/pkg/evmrpc/result"
	"github.com/mexyusef/fmus-fintech/pkg/transaction"
	"github.com/mexyusef/fmus-fintech/pkg/util"
)

const testABI = `[
	{"type":"function","name":"balanceOf","stateMutability":"view",
	 "inputs":[{"name":"owner","type":"address"}],
	 "outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"ping","stateMutability":"view",
	 "inputs":[],"outputs":[]},
	{"type":"function","name":"transfer","stateMutability":"nonpayable",
	 "inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],
	 "outputs":[{"name":"","type":"bool"}]},
	{"type":"event","name":"Transfer",
	 "inputs":[{"name":"from","type":"address","indexed":true},
	           {"name":"to","type":"address","indexed":true},
	           {"name":"value","type":"uint256"}]},
	{"type":"event","name":"URI",
	 "inputs":[{"name":"value","type":"string","indexed":true},
	           {"name":"id","type":"uint256","indexed":true}]},
	{"type":"constructor",
	 "inputs":[{"name":"supply","type":"uint256"}]}
]`

type fakeCaller struct {
	call func(evmrpc.CallArgs) ([]byte, error)
	logs func(evmrpc.LogFilter) ([]result.Log, error)
}

func (f *fakeCaller) CallContract(args evmrpc.CallArgs) ([]byte, error) {
	if f.call == nil {
		return nil, errors.New("unexpected CallContract")
	}
	return f.call(args)
}

func (f *fakeCaller) Logs(filter evmrpc.LogFilter) ([]result.Log, error) {
	if f.logs == nil {
		return nil, errors.New("unexpected Logs")
	}
	return f.logs(filter)
}

// fakeWriter implements Actor with canned answers, recording broadcast
// transactions and fee suggestion calls.
type fakeWriter struct {
	chainID      uint64
	nonce        uint64
	fee          transaction.FeeScheme
	receipt      *result.Receipt
	waitErr      error
	broadcasts   []*transaction.Transaction
	suggestCalls int
	suggestArgs  evmrpc.CallArgs
}

func newFakeWriter() *fakeWriter {
	return &fakeWriter{
		chainID: 1,
		nonce:   7,
		fee:     transaction.LegacyFee{GasPrice: uint256.NewInt(5), Gas: 21000},
	}
}

func (f *fakeWriter) CreateTransaction() (*transaction.Builder, error) {
	return transaction.NewBuilder(f.chainID), nil
}

func (f *fakeWriter) Nonce(util.Address) (uint64, error) {
	return f.nonce, nil
}

func (f *fakeWriter) SuggestFee(args evmrpc.CallArgs) (transaction.FeeScheme, error) {
	f.suggestCalls++
	f.suggestArgs = args
	return f.fee, nil
}

func (f *fakeWriter) Broadcast(tx *transaction.Transaction) (util.Hash, error) {
	f.broadcasts = append(f.broadcasts, tx)
	return tx.Hash()
}

func (f *fakeWriter) WaitForReceipt(_ context.Context, h util.Hash, _, _ time.Duration) (*result.Receipt, error) {
	if f.waitErr != nil {
		return nil, f.waitErr
	}
	if f.receipt != nil {
		return f.receipt, nil
	}
	return &result.Receipt{TransactionHash: h, Status: 1}, nil
}

type stubSigner struct{}

func (stubSigner) SignHash(util.Hash) (*uint256.Int, *uint256.Int, byte, error) {
	return uint256.NewInt(1), uint256.NewInt(2), 0, nil
}

func mustAddr(t *testing.T, s string) util.Address {
	a, err := util.AddressFromString(s)
	require.NoError(t, err)
	return a
}

func testContract(t *testing.T, caller Caller, opts ...Option) *Contract {
	c, err := New(mustAddr(t, "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed"), []byte(testABI), caller, opts...)
	require.NoError(t, err)
	return c
}

func writableContract(t *testing.T, caller Caller, opts ...Option) (*Contract, *fakeWriter) {
	w := newFakeWriter()
	sender := mustAddr(t, "0x9d8a62f656a8d1615c1294fd71e9cfb3e4855a4f")
	opts = append(opts, WithActor(w, stubSigner{}, sender))
	return testContract(t, caller, opts...), w
}

func uintWord(n uint64) []byte {
	w := uint256.NewInt(n).Bytes32()
	return w[:]
}

func TestResolveGroups(t *testing.T) {
	c := testContract(t, &fakeCaller{})

	f, err := c.Read("balanceOf")
	require.NoError(t, err)
	assert.True(t, f.Constant())
	assert.Equal(t, "balanceOf", f.Name())

	// Resolution is cached.
	f2, err := c.Read("balanceOf")
	require.NoError(t, err)
	assert.Same(t, f, f2)

	w, err := c.Write("transfer")
	require.NoError(t, err)
	assert.False(t, w.Constant())

	// A name present in the ABI but in the other group is still not found,
	// the error says where it lives.
	_, err = c.Write("balanceOf")
	require.ErrorIs(t, err, ErrNoSuchFunction)
	assert.Contains(t, err.Error(), "read group")

	_, err = c.Read("transfer")
	require.ErrorIs(t, err, ErrNoSuchFunction)
	assert.Contains(t, err.Error(), "write group")

	_, err = c.Read("mint")
	require.ErrorIs(t, err, ErrNoSuchFunction)
}

func TestReadDispatch(t *testing.T) {
	owner := mustAddr(t, "0x9d8a62f656a8d1615c1294fd71e9cfb3e4855a4f")
	caller := &fakeCaller{call: func(args evmrpc.CallArgs) ([]byte, error) {
		require.NotNil(t, args.To)
		data := []byte(args.Data)
		require.Len(t, data, 4+32)
		assert.Equal(t, "70a08231", hex.EncodeToString(data[:4]))
		assert.Equal(t, owner.Bytes(), data[4+12:])
		return uintWord(1000), nil
	}}
	c := testContract(t, caller)

	f, err := c.Read("balanceOf")
	require.NoError(t, err)
	v, err := f.Call(owner)
	require.NoError(t, err)
	// The read path returns the decoded value, never a hash.
	balance, ok := v.(*uint256.Int)
	require.True(t, ok)
	assert.Equal(t, "1000", balance.Dec())
}

func TestReadNoOutputs(t *testing.T) {
	caller := &fakeCaller{call: func(evmrpc.CallArgs) ([]byte, error) {
		return nil, nil
	}}
	c := testContract(t, caller)

	f, err := c.Read("ping")
	require.NoError(t, err)
	v, err := f.Call()
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestReadRejectsTxOptions(t *testing.T) {
	c := testContract(t, &fakeCaller{})

	f, err := c.Read("ping")
	require.NoError(t, err)
	_, err = f.Call(WithGasLimit(100000))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "transaction options")
}

func TestWriteDispatch(t *testing.T) {
	c, w := writableContract(t, &fakeCaller{})
	to := mustAddr(t, "0x3535353535353535353535353535353535353535")

	f, err := c.Write("transfer")
	require.NoError(t, err)
	v, err := f.Call(to, uint256.NewInt(500))
	require.NoError(t, err)
	// The write path returns the transaction hash, never a decoded value.
	h, ok := v.(util.Hash)
	require.True(t, ok)
	assert.False(t, h.IsZero())

	require.Len(t, w.broadcasts, 1)
	tx := w.broadcasts[0]
	require.NotNil(t, tx.To)
	assert.Equal(t, c.Address, *tx.To)
	assert.EqualValues(t, 7, tx.Nonce)
	assert.True(t, tx.Signed())
	assert.Equal(t, "a9059cbb", hex.EncodeToString(tx.Data[:4]))

	// The suggested fee was applied.
	assert.Equal(t, 1, w.suggestCalls)
	legacy, ok := tx.Fee.(transaction.LegacyFee)
	require.True(t, ok)
	assert.Equal(t, "5", legacy.GasPrice.Dec())
	assert.EqualValues(t, 21000, legacy.GasLimit())
	// The estimate was made with the actual call data.
	assert.Equal(t, evmrpc.Bytes(tx.Data), w.suggestArgs.Data)
}

func TestWriteReadOnly(t *testing.T) {
	c := testContract(t, &fakeCaller{})

	f, err := c.Write("transfer")
	require.NoError(t, err)
	_, err = f.Call(mustAddr(t, "0x3535353535353535353535353535353535353535"), 1)
	require.ErrorIs(t, err, ErrReadOnly)
}

func TestNamedArguments(t *testing.T) {
	c, w := writableContract(t, &fakeCaller{})
	to := mustAddr(t, "0x3535353535353535353535353535353535353535")

	f, err := c.Write("transfer")
	require.NoError(t, err)

	// Named arguments bind regardless of order.
	_, err = f.Call(Named{Name: "amount", Value: uint256.NewInt(500)}, Named{Name: "to", Value: to})
	require.NoError(t, err)

	// Positional and named can mix.
	_, err = f.Call(to, Named{Name: "amount", Value: uint256.NewInt(500)})
	require.NoError(t, err)
	require.Len(t, w.broadcasts, 2)
	assert.Equal(t, w.broadcasts[0].Data, w.broadcasts[1].Data)
}

func TestBindingErrors(t *testing.T) {
	c, _ := writableContract(t, &fakeCaller{})
	to := mustAddr(t, "0x3535353535353535353535353535353535353535")

	f, err := c.Write("transfer")
	require.NoError(t, err)

	_, err = f.Call(to, 1, 2)
	require.ErrorIs(t, err, ErrTooManyArguments)

	_, err = f.Call(to)
	require.ErrorIs(t, err, ErrMissingArgument)
	assert.Contains(t, err.Error(), "amount")

	_, err = f.Call(to, Named{Name: "to", Value: to}, Named{Name: "amount", Value: 1})
	require.ErrorIs(t, err, ErrArgumentConflict)

	_, err = f.Call(to, Named{Name: "amnt", Value: 1})
	require.ErrorIs(t, err, ErrUnknownArgument)
}

func TestTxOptions(t *testing.T) {
	c, w := writableContract(t, &fakeCaller{})
	to := mustAddr(t, "0x3535353535353535353535353535353535353535")

	f, err := c.Write("transfer")
	require.NoError(t, err)
	_, err = f.Call(to, uint256.NewInt(1),
		WithValue(uint256.NewInt(10)),
		WithNonce(42),
		WithDynamicFee(uint256.NewInt(30), uint256.NewInt(3)),
		WithGasLimit(60000))
	require.NoError(t, err)

	require.Len(t, w.broadcasts, 1)
	tx := w.broadcasts[0]
	assert.Equal(t, "10", tx.Value.Dec())
	assert.EqualValues(t, 42, tx.Nonce)
	dyn, ok := tx.Fee.(transaction.DynamicFee)
	require.True(t, ok)
	assert.Equal(t, "30", dyn.MaxFeePerGas.Dec())
	assert.EqualValues(t, 60000, dyn.GasLimit())
	// Everything was given explicitly, the node was never asked.
	assert.Equal(t, 0, w.suggestCalls)
}

func TestTxOptionsExplicitPriceEstimatedGas(t *testing.T) {
	c, w := writableContract(t, &fakeCaller{})
	to := mustAddr(t, "0x3535353535353535353535353535353535353535")

	f, err := c.Write("transfer")
	require.NoError(t, err)
	_, err = f.Call(to, uint256.NewInt(1), WithGasPrice(uint256.NewInt(9)))
	require.NoError(t, err)

	require.Len(t, w.broadcasts, 1)
	tx := w.broadcasts[0]
	legacy, ok := tx.Fee.(transaction.LegacyFee)
	require.True(t, ok)
	assert.Equal(t, "9", legacy.GasPrice.Dec())
	// The explicit price keeps the node-estimated gas limit.
	assert.EqualValues(t, 21000, legacy.GasLimit())
	assert.Equal(t, 1, w.suggestCalls)
}
