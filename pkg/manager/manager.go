/*
Package manager provides the high-level transaction lifecycle service on top
of the RPC client: builder priming, nonce and fee queries, broadcasting,
receipt polling and status tracking.
*/
package manager

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"github.com/mexyusef/fmus-fintech/pkg/evmrpc"
	"github.com/mexyusef/fmus-fintech/pkg/evmrpc/result"
	"github.com/mexyusef/fmus-fintech/pkg/transaction"
	"github.com/mexyusef/fmus-fintech/pkg/util"
)

// RPCActor is the subset of RPC client methods the manager needs to drive
// the transaction lifecycle. rpcclient.Client and rpcclient.WSClient both
// implement it.
type RPCActor interface {
	ChainID() (uint64, error)
	TransactionCount(addr util.Address) (uint64, error)
	GasPrice() (*uint256.Int, error)
	MaxPriorityFeePerGas() (*uint256.Int, error)
	EstimateGas(args evmrpc.CallArgs) (uint64, error)
	SendRawTransaction(raw []byte) (util.Hash, error)
	TransactionReceipt(h util.Hash) (*result.Receipt, error)
}

const (
	// DefaultPollInterval is the receipt polling period used when the
	// caller passes a non-positive one.
	DefaultPollInterval = 2 * time.Second
	// DefaultWaitTimeout is the receipt waiting deadline used when the
	// caller passes a non-positive one.
	DefaultWaitTimeout = 2 * time.Minute
	// pollRetryCount is the number of consecutive transport failures
	// tolerated while polling for a receipt before giving up.
	pollRetryCount = 3
	// receiptCacheSize is the number of confirmed receipts kept around so
	// repeated status queries for the same transaction don't hit the node.
	receiptCacheSize = 128
)

// ErrWaitTimeout is returned when a transaction is not mined within the
// waiting deadline. The transaction may still be mined later, timing out
// does not cancel it.
var ErrWaitTimeout = errors.New("transaction confirmation timed out")

// ErrTxNotSigned is returned for attempts to broadcast an unsigned
// transaction.
var ErrTxNotSigned = errors.New("refusing to broadcast unsigned transaction")

// Manager tracks transactions from creation to confirmation. It keeps the
// set of broadcast-but-unmined transactions and a small cache of confirmed
// receipts. Manager is safe for concurrent use.
//
// The manager doesn't serialize nonce allocation, concurrent senders using
// the same account have to coordinate nonces themselves.
type Manager struct {
	client RPCActor
	log    *zap.Logger

	mu      sync.RWMutex
	pending map[util.Hash]*transaction.Transaction

	receipts *lru.Cache
}

// New creates a Manager using the given RPC client. A nil logger is
// replaced with a no-op one.
func New(client RPCActor, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	cache, _ := lru.New(receiptCacheSize)
	return &Manager{
		client:   client,
		log:      log,
		pending:  make(map[util.Hash]*transaction.Transaction),
		receipts: cache,
	}
}

// CreateTransaction returns a transaction builder primed with the chain ID
// of the network the client is attached to.
func (m *Manager) CreateTransaction() (*transaction.Builder, error) {
	chainID, err := m.client.ChainID()
	if err != nil {
		return nil, fmt.Errorf("failed to get chain ID: %w", err)
	}
	return transaction.NewBuilder(chainID), nil
}

// Nonce returns the next nonce for the given account.
func (m *Manager) Nonce(addr util.Address) (uint64, error) {
	return m.client.TransactionCount(addr)
}

// SuggestFee queries the node for current fee conditions and returns a
// complete fee scheme for the given call, including a gas limit from node
// simulation. Nodes supporting EIP-1559 produce a DynamicFee with the fee
// cap set to twice the suggested tip plus the base-ish gas price; nodes
// that don't know eth_maxPriorityFeePerGas fall back to a LegacyFee.
func (m *Manager) SuggestFee(args evmrpc.CallArgs) (transaction.FeeScheme, error) {
	gas, err := m.client.EstimateGas(args)
	if err != nil {
		return nil, fmt.Errorf("failed to estimate gas: %w", err)
	}
	gasPrice, err := m.client.GasPrice()
	if err != nil {
		return nil, fmt.Errorf("failed to get gas price: %w", err)
	}
	tip, err := m.client.MaxPriorityFeePerGas()
	if err != nil {
		m.log.Debug("node lacks EIP-1559 fee data, using legacy fee",
			zap.Error(err))
		return transaction.LegacyFee{GasPrice: gasPrice, Gas: gas}, nil
	}
	maxFee := new(uint256.Int).Add(gasPrice, new(uint256.Int).Mul(tip, uint256.NewInt(2)))
	return transaction.DynamicFee{
		MaxFeePerGas:         maxFee,
		MaxPriorityFeePerGas: tip,
		Gas:                  gas,
	}, nil
}

// EstimateFee returns the gas the given transaction would need according to
// node simulation. The transaction itself is not modified, the caller
// decides whether to rebuild with the estimate.
func (m *Manager) EstimateFee(from util.Address, tx *transaction.Transaction) (uint64, error) {
	args := evmrpc.CallArgs{
		From:  &from,
		To:    tx.To,
		Value: tx.Value,
		Data:  evmrpc.Bytes(tx.Data),
	}
	return m.client.EstimateGas(args)
}

// Broadcast submits a signed transaction to the network and starts tracking
// it as pending. Unsigned transactions are rejected before touching the
// network. The returned hash is the node-acknowledged transaction hash.
func (m *Manager) Broadcast(tx *transaction.Transaction) (util.Hash, error) {
	if !tx.Signed() {
		return util.Hash{}, ErrTxNotSigned
	}
	raw, err := tx.Serialize()
	if err != nil {
		return util.Hash{}, err
	}
	h, err := m.client.SendRawTransaction(raw)
	if err != nil {
		return util.Hash{}, fmt.Errorf("failed to broadcast transaction: %w", err)
	}
	m.mu.Lock()
	m.pending[h] = tx
	m.mu.Unlock()
	m.log.Info("transaction broadcast",
		zap.Stringer("hash", h))
	return h, nil
}

// Pending returns the tracked transaction with the given hash, if it was
// broadcast through this manager and hasn't been confirmed yet.
func (m *Manager) Pending(h util.Hash) (*transaction.Transaction, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	tx, ok := m.pending[h]
	return tx, ok
}

// Receipt returns the receipt of the given transaction or nil if it's not
// mined yet. Mined receipts are cached, a transaction tracked as pending is
// dropped from the pending set once its receipt appears.
func (m *Manager) Receipt(h util.Hash) (*result.Receipt, error) {
	if cached, ok := m.receipts.Get(h); ok {
		return cached.(*result.Receipt), nil
	}
	r, err := m.client.TransactionReceipt(h)
	if err != nil {
		return nil, err
	}
	if r != nil {
		m.receipts.Add(h, r)
		m.mu.Lock()
		delete(m.pending, h)
		m.mu.Unlock()
	}
	return r, nil
}

// Status returns the advisory lifecycle state of the given transaction. It
// never returns an error, transport failures map to Unknown.
func (m *Manager) Status(h util.Hash) transaction.Status {
	r, err := m.Receipt(h)
	if err != nil {
		return transaction.Unknown
	}
	if r == nil {
		return transaction.Pending
	}
	if r.Succeeded() {
		return transaction.Confirmed
	}
	return transaction.Failed
}

// WaitForReceipt polls the node until the given transaction is mined, the
// timeout expires or the context is cancelled. The first poll happens
// immediately, subsequent ones every pollInterval. Up to pollRetryCount
// consecutive transport failures are tolerated, persistent ones abort the
// wait. Timing out does not cancel the transaction.
func (m *Manager) WaitForReceipt(ctx context.Context, h util.Hash, timeout, pollInterval time.Duration) (*result.Receipt, error) {
	if timeout <= 0 {
		timeout = DefaultWaitTimeout
	}
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	var (
		deadline = time.Now().Add(timeout)
		timer    = time.NewTimer(0) // Poll immediately on the first pass.
		failures int
	)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
		r, err := m.Receipt(h)
		if err != nil {
			failures++
			if failures > pollRetryCount {
				return nil, fmt.Errorf("failed to poll for receipt of %s: %w", h, err)
			}
			m.log.Debug("receipt poll failed, retrying",
				zap.Stringer("hash", h),
				zap.Int("failures", failures),
				zap.Error(err))
		} else {
			failures = 0
			if r != nil {
				return r, nil
			}
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("%w: %s not mined within %s", ErrWaitTimeout, h, timeout)
		}
		timer.Reset(pollInterval)
	}
}
