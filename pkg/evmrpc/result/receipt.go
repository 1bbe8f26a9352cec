/*
Package result contains wire-format representations of JSON-RPC responses
returned by EVM nodes.
*/
package result

import (
	"github.com/mexyusef/fmus-fintech/pkg/evmrpc"
	"github.com/mexyusef/fmus-fintech/pkg/util"
)

// Receipt is the post-confirmation record of a transaction returned by
// eth_getTransactionReceipt. It's created only by querying the network and
// is never modified afterwards.
type Receipt struct {
	TransactionHash util.Hash     `json:"transactionHash"`
	BlockNumber     evmrpc.Uint64 `json:"blockNumber"`
	BlockHash       util.Hash     `json:"blockHash"`
	Status          evmrpc.Uint64 `json:"status"`
	GasUsed         evmrpc.Uint64 `json:"gasUsed"`
	ContractAddress *util.Address `json:"contractAddress,omitempty"`
	Logs            []Log         `json:"logs"`
}

// Succeeded returns true if the transaction executed without reverting.
func (r *Receipt) Succeeded() bool {
	return r.Status == 1
}

// Log is a single event log entry emitted during transaction execution.
type Log struct {
	Address         util.Address  `json:"address"`
	Topics          []util.Hash   `json:"topics"`
	Data            evmrpc.Bytes  `json:"data"`
	BlockNumber     evmrpc.Uint64 `json:"blockNumber"`
	TransactionHash util.Hash     `json:"transactionHash"`
	LogIndex        evmrpc.Uint64 `json:"logIndex"`
	Removed         bool          `json:"removed,omitempty"`
}
