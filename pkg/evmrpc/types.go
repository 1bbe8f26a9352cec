/*
Package evmrpc contains a set of types used for JSON-RPC communication with
EVM nodes. It defines basic request/response types, the wire error type, log
filters and the hex-quantity encodings the eth_* namespace uses.
*/
package evmrpc

import (
	"encoding/json"

	"github.com/holiman/uint256"

	"github.com/mexyusef/fmus-fintech/pkg/util"
)

// JSONRPCVersion is the only JSON-RPC protocol version supported.
const JSONRPCVersion = "2.0"

type (
	// Request represents a JSON-RPC request sent to an EVM node. Params can
	// be anything that marshals to JSON, eth_* methods expect them to be a
	// positional array.
	Request struct {
		// JSONRPC is the protocol version, only valid when it contains
		// JSONRPCVersion.
		JSONRPC string `json:"jsonrpc"`
		// Method is the method being called.
		Method string `json:"method"`
		// Params is a set of method-specific parameters passed to the call.
		Params []any `json:"params"`
		// ID is a numeric identifier associated with this request.
		ID uint64 `json:"id"`
	}

	// Header is a generic JSON-RPC 2.0 response header (ID and JSON-RPC
	// version).
	Header struct {
		ID      json.RawMessage `json:"id"`
		JSONRPC string          `json:"jsonrpc"`
	}

	// HeaderAndError adds an Error (that can be empty) to the Header, it's
	// used to construct type-specific responses.
	HeaderAndError struct {
		Header
		Error *Error `json:"error,omitempty"`
	}

	// Response represents a standard raw JSON-RPC 2.0 response:
	// http://www.jsonrpc.org/specification#response_object.
	Response struct {
		HeaderAndError
		Result json.RawMessage `json:"result,omitempty"`
	}

	// Notification is a type used to represent the wire format of
	// subscription events. They look like requests but they don't have IDs;
	// the only method an EVM node pushes is eth_subscription.
	Notification struct {
		JSONRPC string             `json:"jsonrpc"`
		Method  string             `json:"method"`
		Params  NotificationParams `json:"params"`
	}

	// NotificationParams carries the subscription ID the notification
	// belongs to and its raw payload.
	NotificationParams struct {
		Subscription string          `json:"subscription"`
		Result       json.RawMessage `json:"result"`
	}

	// CallArgs is the argument structure of eth_call, eth_estimateGas and
	// related methods. A nil To means contract creation.
	CallArgs struct {
		From     *util.Address `json:"from,omitempty"`
		To       *util.Address `json:"to,omitempty"`
		Gas      Uint64        `json:"gas,omitempty"`
		GasPrice *uint256.Int  `json:"gasPrice,omitempty"`
		Value    *uint256.Int  `json:"value,omitempty"`
		Data     Bytes         `json:"data,omitempty"`
	}

	// LogFilter is the argument structure of eth_getLogs and of "logs"
	// subscriptions. Block bounds are ignored by subscriptions. Topics
	// follow the eth_getLogs position-based semantics: the filter matches a
	// log when for every position the log's topic is contained in the
	// position's set (an empty set matches anything).
	LogFilter struct {
		FromBlock *Uint64       `json:"fromBlock,omitempty"`
		ToBlock   *Uint64       `json:"toBlock,omitempty"`
		Address   *util.Address `json:"address,omitempty"`
		Topics    [][]util.Hash `json:"topics,omitempty"`
	}
)
