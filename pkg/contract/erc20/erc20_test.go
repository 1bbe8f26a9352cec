package erc20

import (
	"context"
	"encoding/hex"
	"errors"
	"testing"
	"time"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mexyusef/fmus-fintech/pkg/contract"
	"github.com/mexyusef/fmus-fintech/pkg/evmrpc"
	"github.com/mexyusef/fmus-fintech/pkg/evmrpc/result"
	"github.com/mexyusef/fmus-fintech/pkg/smartcontract"
	"github.com/mexyusef/fmus-fintech/pkg/transaction"
	"github.com/mexyusef/fmus-fintech/pkg/util"
)

// fakeCaller answers eth_call by selector with pre-encoded results and
// counts calls per selector.
type fakeCaller struct {
	results map[string][]byte
	calls   map[string]int
	logF    func(evmrpc.LogFilter) ([]result.Log, error)
}

func newFakeCaller() *fakeCaller {
	return &fakeCaller{
		results: make(map[string][]byte),
		calls:   make(map[string]int),
	}
}

func (f *fakeCaller) on(t *testing.T, tok *Token, name string, values ...any) {
	m, ok := tok.ABI.GetMethod(name)
	require.True(t, ok)
	enc, err := smartcontract.StdCodec{}.EncodeValues(typesOf(m.Outputs), values)
	require.NoError(t, err)
	f.results[hex.EncodeToString(m.Selector())] = enc
}

func typesOf(params []smartcontract.Parameter) []smartcontract.ParamType {
	types := make([]smartcontract.ParamType, len(params))
	for i := range params {
		types[i] = params[i].Type
	}
	return types
}

func (f *fakeCaller) CallContract(args evmrpc.CallArgs) ([]byte, error) {
	sel := hex.EncodeToString(args.Data[:4])
	f.calls[sel]++
	res, ok := f.results[sel]
	if !ok {
		return nil, errors.New("unexpected call")
	}
	return res, nil
}

func (f *fakeCaller) Logs(filter evmrpc.LogFilter) ([]result.Log, error) {
	if f.logF == nil {
		return nil, errors.New("unexpected Logs")
	}
	return f.logF(filter)
}

type fakeWriter struct {
	broadcasts []*transaction.Transaction
}

func (f *fakeWriter) CreateTransaction() (*transaction.Builder, error) {
	return transaction.NewBuilder(1), nil
}

func (f *fakeWriter) Nonce(util.Address) (uint64, error) {
	return 3, nil
}

func (f *fakeWriter) SuggestFee(evmrpc.CallArgs) (transaction.FeeScheme, error) {
	return transaction.LegacyFee{GasPrice: uint256.NewInt(5), Gas: 60000}, nil
}

func (f *fakeWriter) Broadcast(tx *transaction.Transaction) (util.Hash, error) {
	f.broadcasts = append(f.broadcasts, tx)
	return tx.Hash()
}

func (f *fakeWriter) WaitForReceipt(_ context.Context, h util.Hash, _, _ time.Duration) (*result.Receipt, error) {
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

func testToken(t *testing.T) (*Token, *fakeCaller, *fakeWriter) {
	caller := newFakeCaller()
	w := &fakeWriter{}
	sender := mustAddr(t, "0x9d8a62f656a8d1615c1294fd71e9cfb3e4855a4f")
	tok, err := New(mustAddr(t, "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed"), caller,
		contract.WithActor(w, stubSigner{}, sender))
	require.NoError(t, err)
	return tok, caller, w
}

func TestMetadata(t *testing.T) {
	tok, caller, _ := testToken(t)
	caller.on(t, tok, "name", "Test Token")
	caller.on(t, tok, "symbol", "TST")
	caller.on(t, tok, "decimals", uint64(6))

	name, err := tok.Name()
	require.NoError(t, err)
	assert.Equal(t, "Test Token", name)

	symbol, err := tok.Symbol()
	require.NoError(t, err)
	assert.Equal(t, "TST", symbol)

	decimals, err := tok.Decimals()
	require.NoError(t, err)
	assert.EqualValues(t, 6, decimals)
}

func TestDecimalsCached(t *testing.T) {
	tok, caller, _ := testToken(t)
	caller.on(t, tok, "decimals", uint64(18))
	m, _ := tok.ABI.GetMethod("decimals")
	sel := hex.EncodeToString(m.Selector())

	for i := 0; i < 3; i++ {
		decimals, err := tok.Decimals()
		require.NoError(t, err)
		assert.EqualValues(t, 18, decimals)
	}
	assert.Equal(t, 1, caller.calls[sel])
}

func TestBalanceOf(t *testing.T) {
	tok, caller, _ := testToken(t)
	caller.on(t, tok, "balanceOf", uint256.NewInt(1_500_000))
	caller.on(t, tok, "decimals", uint64(6))
	owner := mustAddr(t, "0x3535353535353535353535353535353535353535")

	balance, err := tok.BalanceOf(owner)
	require.NoError(t, err)
	assert.Equal(t, "1500000", balance.Dec())

	formatted, err := tok.FormattedBalanceOf(owner)
	require.NoError(t, err)
	assert.InDelta(t, 1.5, formatted, 1e-12)
}

func TestTotalSupplyAndAllowance(t *testing.T) {
	tok, caller, _ := testToken(t)
	caller.on(t, tok, "totalSupply", uint256.NewInt(21_000_000))
	caller.on(t, tok, "allowance", uint256.NewInt(777))
	owner := mustAddr(t, "0x3535353535353535353535353535353535353535")
	spender := mustAddr(t, "0x9d8a62f656a8d1615c1294fd71e9cfb3e4855a4f")

	supply, err := tok.TotalSupply()
	require.NoError(t, err)
	assert.Equal(t, "21000000", supply.Dec())

	allowance, err := tok.Allowance(owner, spender)
	require.NoError(t, err)
	assert.Equal(t, "777", allowance.Dec())
}

func TestTransfer(t *testing.T) {
	tok, _, w := testToken(t)
	to := mustAddr(t, "0x3535353535353535353535353535353535353535")

	h, err := tok.Transfer(to, uint256.NewInt(500), contract.WithNonce(42))
	require.NoError(t, err)
	assert.False(t, h.IsZero())

	require.Len(t, w.broadcasts, 1)
	tx := w.broadcasts[0]
	assert.Equal(t, "a9059cbb", hex.EncodeToString(tx.Data[:4]))
	assert.EqualValues(t, 42, tx.Nonce)
}

func TestTransferFloat(t *testing.T) {
	tok, caller, w := testToken(t)
	caller.on(t, tok, "decimals", uint64(6))
	to := mustAddr(t, "0x3535353535353535353535353535353535353535")

	_, err := tok.TransferFloat(to, 1.5)
	require.NoError(t, err)

	require.Len(t, w.broadcasts, 1)
	tx := w.broadcasts[0]
	// 1.5 tokens at 6 decimals is 1500000 base units, encoded in the second
	// argument word.
	amount := new(uint256.Int).SetBytes(tx.Data[4+32:])
	assert.Equal(t, "1500000", amount.Dec())
}

func TestApproveAndTransferFrom(t *testing.T) {
	tok, _, w := testToken(t)
	owner := mustAddr(t, "0x3535353535353535353535353535353535353535")
	spender := mustAddr(t, "0x9d8a62f656a8d1615c1294fd71e9cfb3e4855a4f")

	_, err := tok.Approve(spender, uint256.NewInt(100))
	require.NoError(t, err)

	_, err = tok.TransferFrom(owner, spender, uint256.NewInt(50))
	require.NoError(t, err)

	require.Len(t, w.broadcasts, 2)
	assert.Equal(t, "095ea7b3", hex.EncodeToString(w.broadcasts[0].Data[:4]))
	assert.Equal(t, "23b872dd", hex.EncodeToString(w.broadcasts[1].Data[:4]))
}

func TestTransfers(t *testing.T) {
	tok, caller, _ := testToken(t)
	from := mustAddr(t, "0x3535353535353535353535353535353535353535")
	to := mustAddr(t, "0x9d8a62f656a8d1615c1294fd71e9cfb3e4855a4f")
	ev, ok := tok.ABI.GetEvent("Transfer")
	require.True(t, ok)

	var fromTopic, toTopic util.Hash
	copy(fromTopic[12:], from.Bytes())
	copy(toTopic[12:], to.Bytes())
	value := uint256.NewInt(123).Bytes32()

	caller.logF = func(filter evmrpc.LogFilter) ([]result.Log, error) {
		require.NotNil(t, filter.Address)
		assert.Equal(t, tok.Address, *filter.Address)
		return []result.Log{{
			Address:     tok.Address,
			Topics:      []util.Hash{ev.Topic(), fromTopic, toTopic},
			Data:        value[:],
			BlockNumber: 7,
		}}, nil
	}

	recs, err := tok.Transfers(0, 10)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "Transfer", recs[0].Name)
	assert.Equal(t, from, recs[0].Args["from"])
	v, ok := recs[0].Args["value"].(*uint256.Int)
	require.True(t, ok)
	assert.Equal(t, "123", v.Dec())
}
