package result

import (
	"github.com/mexyusef/fmus-fintech/pkg/evmrpc"
	"github.com/mexyusef/fmus-fintech/pkg/util"
)

// Header is the block header subset delivered by newHeads subscriptions and
// eth_getBlockByNumber. Only the fields the client needs are mapped.
type Header struct {
	Number     evmrpc.Uint64 `json:"number"`
	Hash       util.Hash     `json:"hash"`
	ParentHash util.Hash     `json:"parentHash"`
	Timestamp  evmrpc.Uint64 `json:"timestamp"`
}
