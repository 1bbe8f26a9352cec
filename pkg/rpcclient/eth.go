package rpcclient

import (
	"fmt"

	"github.com/holiman/uint256"

	"github.com/mexyusef/fmus-fintech/pkg/evmrpc"
	"github.com/mexyusef/fmus-fintech/pkg/evmrpc/result"
	"github.com/mexyusef/fmus-fintech/pkg/util"
)

// BlockLatest is the block parameter referring to the most recent block the
// node knows about. It's the only block reference this client uses.
const BlockLatest = "latest"

// ChainID returns the chain ID of the network the node is attached to via
// eth_chainId.
func (c *Client) ChainID() (uint64, error) {
	var resp evmrpc.Uint64
	if err := c.performRequest("eth_chainId", nil, &resp); err != nil {
		return 0, err
	}
	return uint64(resp), nil
}

// BlockNumber returns the height of the most recent block via
// eth_blockNumber.
func (c *Client) BlockNumber() (uint64, error) {
	var resp evmrpc.Uint64
	if err := c.performRequest("eth_blockNumber", nil, &resp); err != nil {
		return 0, err
	}
	return uint64(resp), nil
}

// Balance returns the native token balance of the given account in base
// units (wei) at the latest block via eth_getBalance.
func (c *Client) Balance(addr util.Address) (*uint256.Int, error) {
	var resp uint256.Int
	if err := c.performRequest("eth_getBalance", []any{addr, BlockLatest}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// TransactionCount returns the number of transactions sent from the given
// account via eth_getTransactionCount. That's the nonce the next transaction
// from this account must carry.
func (c *Client) TransactionCount(addr util.Address) (uint64, error) {
	var resp evmrpc.Uint64
	if err := c.performRequest("eth_getTransactionCount", []any{addr, BlockLatest}, &resp); err != nil {
		return 0, err
	}
	return uint64(resp), nil
}

// GasPrice returns the current gas price in wei via eth_gasPrice.
func (c *Client) GasPrice() (*uint256.Int, error) {
	var resp uint256.Int
	if err := c.performRequest("eth_gasPrice", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// MaxPriorityFeePerGas returns the node's suggested priority fee (tip) in
// wei via eth_maxPriorityFeePerGas. Nodes predating EIP-1559 answer this
// with a "method not found" error.
func (c *Client) MaxPriorityFeePerGas() (*uint256.Int, error) {
	var resp uint256.Int
	if err := c.performRequest("eth_maxPriorityFeePerGas", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// EstimateGas returns an estimate of the gas needed to execute the given
// call via eth_estimateGas. The estimate comes from node simulation and may
// exceed the amount actually used.
func (c *Client) EstimateGas(args evmrpc.CallArgs) (uint64, error) {
	var resp evmrpc.Uint64
	if err := c.performRequest("eth_estimateGas", []any{args}, &resp); err != nil {
		return 0, err
	}
	return uint64(resp), nil
}

// CallContract executes a read-only message call against the latest block
// state via eth_call and returns the raw returned data.
func (c *Client) CallContract(args evmrpc.CallArgs) ([]byte, error) {
	var resp evmrpc.Bytes
	if err := c.performRequest("eth_call", []any{args, BlockLatest}, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// SendRawTransaction submits a signed serialized transaction to the node's
// mempool via eth_sendRawTransaction and returns the transaction hash the
// node acknowledged.
func (c *Client) SendRawTransaction(raw []byte) (util.Hash, error) {
	var resp util.Hash
	if err := c.performRequest("eth_sendRawTransaction", []any{evmrpc.Bytes(raw)}, &resp); err != nil {
		return util.Hash{}, err
	}
	return resp, nil
}

// TransactionReceipt returns the receipt of a mined transaction via
// eth_getTransactionReceipt. It returns a nil receipt and a nil error when
// the transaction is not yet mined (or not known to the node at all), so
// the caller must check the receipt before use.
func (c *Client) TransactionReceipt(h util.Hash) (*result.Receipt, error) {
	var resp *result.Receipt
	if err := c.performRequest("eth_getTransactionReceipt", []any{h}, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// Logs returns the logs matching the given filter via eth_getLogs.
func (c *Client) Logs(filter evmrpc.LogFilter) ([]result.Log, error) {
	var resp []result.Log
	if err := c.performRequest("eth_getLogs", []any{filter}, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// Code returns the contract code stored at the given account via
// eth_getCode. An empty slice means there is no contract deployed there.
func (c *Client) Code(addr util.Address) ([]byte, error) {
	var resp evmrpc.Bytes
	if err := c.performRequest("eth_getCode", []any{addr, BlockLatest}, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// GetVersion returns the client software version string of the node via
// web3_clientVersion.
func (c *Client) GetVersion() (string, error) {
	var resp string
	if err := c.performRequest("web3_clientVersion", nil, &resp); err != nil {
		return "", fmt.Errorf("failed to get version: %w", err)
	}
	return resp, nil
}
