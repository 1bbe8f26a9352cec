/*
Package ethereum is the top-level facade tying the RPC client, the
transaction manager, accounts and contracts together into a single
per-network handle.
*/
package ethereum

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"github.com/mexyusef/fmus-fintech/pkg/contract"
	"github.com/mexyusef/fmus-fintech/pkg/contract/erc20"
	"github.com/mexyusef/fmus-fintech/pkg/evmrpc"
	"github.com/mexyusef/fmus-fintech/pkg/evmrpc/result"
	"github.com/mexyusef/fmus-fintech/pkg/manager"
	"github.com/mexyusef/fmus-fintech/pkg/rpcclient"
	"github.com/mexyusef/fmus-fintech/pkg/transaction"
	"github.com/mexyusef/fmus-fintech/pkg/util"
	"github.com/mexyusef/fmus-fintech/pkg/wallet"
)

// ErrNotConnected is returned by operations requiring a node connection
// before Connect has succeeded (or after Disconnect).
var ErrNotConnected = errors.New("not connected")

// Network is a handle to one EVM network. It's created disconnected,
// Connect dials the node and verifies the chain. All methods are safe for
// concurrent use once connected.
type Network struct {
	endpoint   string
	wsEndpoint string
	name       string
	log        *zap.Logger
	opts       rpcclient.Options

	client  *rpcclient.Client
	ws      *rpcclient.WSClient
	mgr     *manager.Manager
	chainID uint64
}

// Option configures a Network handle.
type Option func(*Network)

// WithWebSocket adds a websocket endpoint used for push subscriptions
// (event watching). Without it contracts on this network can't watch
// events, only query them.
func WithWebSocket(endpoint string) Option {
	return func(n *Network) { n.wsEndpoint = endpoint }
}

// WithName declares which well-known network the endpoint is expected to
// serve, Connect fails when the node reports a different chain ID.
func WithName(name string) Option {
	return func(n *Network) { n.name = name }
}

// WithLogger sets the logger passed down to the client and the manager.
func WithLogger(log *zap.Logger) Option {
	return func(n *Network) { n.log = log }
}

// WithClientOptions sets the RPC client options (timeouts, connection
// limits).
func WithClientOptions(opts rpcclient.Options) Option {
	return func(n *Network) { n.opts = opts }
}

// NewNetwork creates a disconnected Network handle for the given HTTP(S)
// RPC endpoint.
func NewNetwork(endpoint string, opts ...Option) *Network {
	n := &Network{
		endpoint: endpoint,
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Connect dials the node, verifies the chain ID against the declared
// network name (if any) and readies the transaction manager. It has to be
// called before any other method.
func (n *Network) Connect(ctx context.Context) error {
	opts := n.opts
	if opts.Logger == nil {
		opts.Logger = n.log
	}
	client, err := rpcclient.New(ctx, n.endpoint, opts)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", n.endpoint, err)
	}
	chainID, err := client.ChainID()
	if err != nil {
		client.Close()
		return fmt.Errorf("failed to connect to %s: %w", n.endpoint, err)
	}
	if n.name != "" {
		if want, ok := ChainIDOf(n.name); ok && want != chainID {
			client.Close()
			return fmt.Errorf("%s reports chain ID %d, %s has %d", n.endpoint, chainID, n.name, want)
		}
	}
	if n.wsEndpoint != "" {
		ws, err := rpcclient.NewWS(ctx, n.wsEndpoint, rpcclient.WSOptions{Options: opts})
		if err != nil {
			client.Close()
			return fmt.Errorf("failed to connect to %s: %w", n.wsEndpoint, err)
		}
		n.ws = ws
	}
	n.client = client
	n.chainID = chainID
	n.mgr = manager.New(client, n.log)
	n.log.Info("connected",
		zap.String("endpoint", n.endpoint),
		zap.Uint64("chainID", chainID))
	return nil
}

// Disconnect closes the node connections. The handle can be reconnected
// with another Connect call.
func (n *Network) Disconnect() {
	if n.client != nil {
		n.client.Close()
		n.client = nil
	}
	if n.ws != nil {
		n.ws.Close()
		n.ws = nil
	}
	n.mgr = nil
}

// IsConnected reports whether the node is reachable and answering.
func (n *Network) IsConnected() bool {
	return n.client != nil && n.client.IsConnected()
}

// ChainID returns the chain ID reported by the node at Connect time.
func (n *Network) ChainID() uint64 {
	return n.chainID
}

// Client returns the underlying RPC client for direct queries.
func (n *Network) Client() *rpcclient.Client {
	return n.client
}

// Manager returns the transaction lifecycle manager.
func (n *Network) Manager() *manager.Manager {
	return n.mgr
}

// BlockNumber returns the current block height.
func (n *Network) BlockNumber() (uint64, error) {
	if n.client == nil {
		return 0, ErrNotConnected
	}
	return n.client.BlockNumber()
}

// Balance returns the native balance of the given account in base units.
func (n *Network) Balance(addr util.Address) (*uint256.Int, error) {
	if n.client == nil {
		return nil, ErrNotConnected
	}
	return n.client.Balance(addr)
}

// FormattedBalance returns the native balance of the given account as a
// human-readable amount.
func (n *Network) FormattedBalance(addr util.Address) (float64, error) {
	balance, err := n.Balance(addr)
	if err != nil {
		return 0, err
	}
	return util.FromBaseUnits(balance, util.NativeDecimals), nil
}

// SendUnits transfers the given amount of base units from the account to
// the recipient and returns the transaction hash. The fee is taken from
// node suggestions, the nonce from the account's transaction count.
func (n *Network) SendUnits(from *wallet.Account, to util.Address, amount *uint256.Int) (util.Hash, error) {
	if n.mgr == nil {
		return util.Hash{}, ErrNotConnected
	}
	b, err := n.mgr.CreateTransaction()
	if err != nil {
		return util.Hash{}, err
	}
	nonce, err := n.mgr.Nonce(from.Address())
	if err != nil {
		return util.Hash{}, fmt.Errorf("failed to get nonce: %w", err)
	}
	sender := from.Address()
	fee, err := n.mgr.SuggestFee(evmrpc.CallArgs{
		From:  &sender,
		To:    &to,
		Value: amount,
	})
	if err != nil {
		return util.Hash{}, err
	}
	tx, err := b.To(to).Value(amount).Nonce(nonce).Fee(fee).Build()
	if err != nil {
		return util.Hash{}, err
	}
	if err := tx.Sign(from); err != nil {
		return util.Hash{}, err
	}
	return n.mgr.Broadcast(tx)
}

// Send is SendUnits with the amount given as a human-readable number of
// native tokens.
func (n *Network) Send(from *wallet.Account, to util.Address, amount float64) (util.Hash, error) {
	units, err := util.ToBaseUnits(amount, util.NativeDecimals)
	if err != nil {
		return util.Hash{}, err
	}
	return n.SendUnits(from, to, units)
}

// WaitForReceipt blocks until the given transaction is mined or the
// timeout expires, see manager.Manager.WaitForReceipt.
func (n *Network) WaitForReceipt(ctx context.Context, h util.Hash, timeout time.Duration) (*result.Receipt, error) {
	if n.mgr == nil {
		return nil, ErrNotConnected
	}
	return n.mgr.WaitForReceipt(ctx, h, timeout, 0)
}

// Status returns the advisory lifecycle state of the given transaction.
func (n *Network) Status(h util.Hash) transaction.Status {
	if n.mgr == nil {
		return transaction.Unknown
	}
	return n.mgr.Status(h)
}

// Contract binds the given address and ABI to this network. A non-nil
// account enables the state-changing dispatch group, subscriptions are
// available when the network has a websocket endpoint.
func (n *Network) Contract(address util.Address, abiJSON []byte, account *wallet.Account, opts ...contract.Option) (*contract.Contract, error) {
	if n.client == nil {
		return nil, ErrNotConnected
	}
	opts = append(n.contractOpts(account), opts...)
	return contract.New(address, abiJSON, n.client, opts...)
}

// Token binds the standard fungible token interface at the given address
// to this network.
func (n *Network) Token(address util.Address, account *wallet.Account, opts ...contract.Option) (*erc20.Token, error) {
	if n.client == nil {
		return nil, ErrNotConnected
	}
	opts = append(n.contractOpts(account), opts...)
	return erc20.New(address, n.client, opts...)
}

func (n *Network) contractOpts(account *wallet.Account) []contract.Option {
	opts := []contract.Option{contract.WithLogger(n.log)}
	if account != nil {
		opts = append(opts, contract.WithActor(n.mgr, account, account.Address()))
	}
	if n.ws != nil {
		opts = append(opts, contract.WithSubscriber(n.ws))
	}
	return opts
}
