/*
Package erc20 wraps the standard fungible token interface in typed
convenience methods so callers don't deal with ABI names and raw base
units directly.
*/
package erc20

import (
	"fmt"
	"sync"

	"github.com/holiman/uint256"

	"github.com/mexyusef/fmus-fintech/pkg/contract"
	"github.com/mexyusef/fmus-fintech/pkg/util"
)

// abiJSON is the standard fungible token interface: the six mandatory
// functions, the three metadata ones and the two events.
const abiJSON = `[
	{"type":"function","name":"name","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]},
	{"type":"function","name":"symbol","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]},
	{"type":"function","name":"decimals","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint8"}]},
	{"type":"function","name":"totalSupply","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"balanceOf","stateMutability":"view","inputs":[{"name":"owner","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"allowance","stateMutability":"view","inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"transfer","stateMutability":"nonpayable","inputs":[{"name":"to","type":"address"},{"name":"value","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
	{"type":"function","name":"approve","stateMutability":"nonpayable","inputs":[{"name":"spender","type":"address"},{"name":"value","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
	{"type":"function","name":"transferFrom","stateMutability":"nonpayable","inputs":[{"name":"from","type":"address"},{"name":"to","type":"address"},{"name":"value","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
	{"type":"event","name":"Transfer","inputs":[{"name":"from","type":"address","indexed":true},{"name":"to","type":"address","indexed":true},{"name":"value","type":"uint256"}]},
	{"type":"event","name":"Approval","inputs":[{"name":"owner","type":"address","indexed":true},{"name":"spender","type":"address","indexed":true},{"name":"value","type":"uint256"}]}
]`

// Token is a fungible token contract at a fixed address. It's a thin typed
// layer over Contract. Token is safe for concurrent use.
type Token struct {
	*contract.Contract

	mu       sync.Mutex
	decimals *uint8
}

// New creates a Token at the given address. Options are the same as for
// plain contracts, in particular WithActor is needed for transfers.
func New(address util.Address, caller contract.Caller, opts ...contract.Option) (*Token, error) {
	c, err := contract.New(address, []byte(abiJSON), caller, opts...)
	if err != nil {
		return nil, err
	}
	return &Token{Contract: c}, nil
}

func (t *Token) readString(name string) (string, error) {
	f, err := t.Read(name)
	if err != nil {
		return "", err
	}
	v, err := f.Call()
	if err != nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%s: unexpected result of type %T", name, v)
	}
	return s, nil
}

func (t *Token) readUint(name string, args ...any) (*uint256.Int, error) {
	f, err := t.Read(name)
	if err != nil {
		return nil, err
	}
	v, err := f.Call(args...)
	if err != nil {
		return nil, err
	}
	n, ok := v.(*uint256.Int)
	if !ok {
		return nil, fmt.Errorf("%s: unexpected result of type %T", name, v)
	}
	return n, nil
}

func (t *Token) write(name string, args ...any) (util.Hash, error) {
	f, err := t.Write(name)
	if err != nil {
		return util.Hash{}, err
	}
	v, err := f.Call(args...)
	if err != nil {
		return util.Hash{}, err
	}
	h, ok := v.(util.Hash)
	if !ok {
		return util.Hash{}, fmt.Errorf("%s: unexpected result of type %T", name, v)
	}
	return h, nil
}

// Name returns the token name.
func (t *Token) Name() (string, error) {
	return t.readString("name")
}

// Symbol returns the token ticker symbol.
func (t *Token) Symbol() (string, error) {
	return t.readString("symbol")
}

// Decimals returns the number of decimals the token amounts use. The value
// is queried once and cached, token decimals never change.
func (t *Token) Decimals() (uint8, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.decimals != nil {
		return *t.decimals, nil
	}
	n, err := t.readUint("decimals")
	if err != nil {
		return 0, err
	}
	d := uint8(n.Uint64())
	t.decimals = &d
	return d, nil
}

// TotalSupply returns the total token supply in base units.
func (t *Token) TotalSupply() (*uint256.Int, error) {
	return t.readUint("totalSupply")
}

// BalanceOf returns the token balance of the given account in base units.
func (t *Token) BalanceOf(owner util.Address) (*uint256.Int, error) {
	return t.readUint("balanceOf", owner)
}

// FormattedBalanceOf returns the token balance of the given account as a
// human-readable amount scaled by the token's decimals.
func (t *Token) FormattedBalanceOf(owner util.Address) (float64, error) {
	balance, err := t.BalanceOf(owner)
	if err != nil {
		return 0, err
	}
	decimals, err := t.Decimals()
	if err != nil {
		return 0, err
	}
	return util.FromBaseUnits(balance, decimals), nil
}

// Allowance returns how much of the owner's tokens the spender may
// transfer, in base units.
func (t *Token) Allowance(owner, spender util.Address) (*uint256.Int, error) {
	return t.readUint("allowance", owner, spender)
}

// Transfer sends the given amount of base units to the given account and
// returns the transaction hash.
func (t *Token) Transfer(to util.Address, amount *uint256.Int, opts ...contract.TxOption) (util.Hash, error) {
	args := []any{to, amount}
	for _, o := range opts {
		args = append(args, o)
	}
	return t.write("transfer", args...)
}

// TransferFloat is Transfer with the amount given as a human-readable
// number, converted to base units per the token's decimals.
func (t *Token) TransferFloat(to util.Address, amount float64, opts ...contract.TxOption) (util.Hash, error) {
	decimals, err := t.Decimals()
	if err != nil {
		return util.Hash{}, err
	}
	units, err := util.ToBaseUnits(amount, decimals)
	if err != nil {
		return util.Hash{}, err
	}
	return t.Transfer(to, units, opts...)
}

// Approve lets the spender transfer up to the given amount of base units
// from the sender's balance and returns the transaction hash.
func (t *Token) Approve(spender util.Address, amount *uint256.Int, opts ...contract.TxOption) (util.Hash, error) {
	args := []any{spender, amount}
	for _, o := range opts {
		args = append(args, o)
	}
	return t.write("approve", args...)
}

// TransferFrom moves the given amount of base units between the given
// accounts using a previously approved allowance and returns the
// transaction hash.
func (t *Token) TransferFrom(from, to util.Address, amount *uint256.Int, opts ...contract.TxOption) (util.Hash, error) {
	args := []any{from, to, amount}
	for _, o := range opts {
		args = append(args, o)
	}
	return t.write("transferFrom", args...)
}

// Transfers returns all decoded Transfer events emitted by the token
// between fromBlock and toBlock inclusive.
func (t *Token) Transfers(fromBlock, toBlock uint64) ([]contract.EventRecord, error) {
	return t.GetEvents("Transfer", fromBlock, toBlock)
}

// WatchTransfers opens a standing subscription for Transfer events. It
// requires a push-capable provider, see Contract.WatchEvent.
func (t *Token) WatchTransfers(ch chan<- *contract.EventRecord) (string, error) {
	return t.WatchEvent("Transfer", ch)
}

// UnwatchTransfers cancels a watcher opened by WatchTransfers.
func (t *Token) UnwatchTransfers(id string) error {
	return t.UnwatchEvent(id)
}
