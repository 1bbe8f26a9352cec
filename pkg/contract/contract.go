/*
Package contract implements the contract-call dispatch engine. A Contract
binds an address and a parsed ABI to network capabilities and exposes every
ABI function as a callable routed by mutability: constant functions go
through the read path and return decoded values, state-changing ones go
through build-sign-broadcast and return a transaction hash. It also decodes,
queries and watches event logs.
*/
package contract

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mexyusef/fmus-fintech/pkg/evmrpc"
	"github.com/mexyusef/fmus-fintech/pkg/evmrpc/result"
	"github.com/mexyusef/fmus-fintech/pkg/smartcontract"
	"github.com/mexyusef/fmus-fintech/pkg/transaction"
	"github.com/mexyusef/fmus-fintech/pkg/util"
)

// Caller is the read path capability: state queries and bounded log
// queries. rpcclient.Client implements it.
type Caller interface {
	CallContract(args evmrpc.CallArgs) ([]byte, error)
	Logs(filter evmrpc.LogFilter) ([]result.Log, error)
}

// Actor is the write path capability: everything needed to turn call data
// into a broadcast transaction. manager.Manager implements it.
type Actor interface {
	CreateTransaction() (*transaction.Builder, error)
	Nonce(addr util.Address) (uint64, error)
	SuggestFee(args evmrpc.CallArgs) (transaction.FeeScheme, error)
	Broadcast(tx *transaction.Transaction) (util.Hash, error)
	WaitForReceipt(ctx context.Context, h util.Hash, timeout, pollInterval time.Duration) (*result.Receipt, error)
}

// Subscriber is the optional push capability backing event watching.
// rpcclient.WSClient implements it; providers without it can still query
// events, they just can't watch.
type Subscriber interface {
	SubscribeLogs(filter evmrpc.LogFilter, ch chan<- *result.Log) (string, error)
	Unsubscribe(id string) error
}

// Lookup and capability errors.
var (
	// ErrNoSuchFunction is returned when a function name can't be resolved
	// within the requested mutability group.
	ErrNoSuchFunction = errors.New("no such function")
	// ErrNoSuchEvent is returned when an event name is absent from the ABI.
	ErrNoSuchEvent = errors.New("no such event")
	// ErrReadOnly is returned for state-changing dispatch on a contract
	// configured without an actor and signer.
	ErrReadOnly = errors.New("contract is read-only: no actor configured")
	// ErrNotSupported is returned by WatchEvent when the provider lacks the
	// subscription capability.
	ErrNotSupported = errors.New("provider doesn't support subscriptions")
)

// Contract binds an address and ABI metadata to a provider. All methods are
// safe for concurrent use.
type Contract struct {
	// Address the contract is deployed at. Zero until Deploy succeeds for
	// contracts created for deployment.
	Address util.Address
	// ABI is the parsed contract interface.
	ABI *smartcontract.ABI

	caller   Caller
	actor    Actor
	signer   transaction.Signer
	sender   util.Address
	sub      Subscriber
	codec    smartcontract.Codec
	log      *zap.Logger
	bytecode []byte

	mu       sync.Mutex
	read     map[string]*Function
	write    map[string]*Function
	watchers map[string]*watcher
}

// Option configures optional Contract capabilities.
type Option func(*Contract)

// WithActor enables the write path: transactions are built through the
// given actor, signed with the given signer and carry nonces of the sender
// account.
func WithActor(a Actor, signer transaction.Signer, sender util.Address) Option {
	return func(c *Contract) {
		c.actor = a
		c.signer = signer
		c.sender = sender
	}
}

// WithSubscriber enables event watching through the given push-capable
// provider.
func WithSubscriber(s Subscriber) Option {
	return func(c *Contract) {
		c.sub = s
	}
}

// WithCodec replaces the standard ABI codec.
func WithCodec(codec smartcontract.Codec) Option {
	return func(c *Contract) {
		c.codec = codec
	}
}

// WithLogger sets the logger used for event watcher diagnostics.
func WithLogger(log *zap.Logger) Option {
	return func(c *Contract) {
		c.log = log
	}
}

// WithBytecode attaches deployable bytecode, it's required for Deploy.
func WithBytecode(code []byte) Option {
	return func(c *Contract) {
		c.bytecode = code
	}
}

// New creates a Contract at the given address from ABI JSON. The caller
// capability is mandatory, everything else comes through options.
func New(address util.Address, abiJSON []byte, caller Caller, opts ...Option) (*Contract, error) {
	abi, err := smartcontract.ParseABI(abiJSON)
	if err != nil {
		return nil, err
	}
	return NewFromABI(address, abi, caller, opts...), nil
}

// NewFromABI is like New, but reuses an already parsed ABI.
func NewFromABI(address util.Address, abi *smartcontract.ABI, caller Caller, opts ...Option) *Contract {
	c := &Contract{
		Address:  address,
		ABI:      abi,
		caller:   caller,
		codec:    smartcontract.StdCodec{},
		log:      zap.NewNop(),
		read:     make(map[string]*Function),
		write:    make(map[string]*Function),
		watchers: make(map[string]*watcher),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Read resolves a constant function by name. Resolution is cached, repeated
// lookups return the same Function. A name that exists in the ABI but
// belongs to the state-changing group is still not found here, the error
// says which group it lives in.
func (c *Contract) Read(name string) (*Function, error) {
	return c.resolve(name, true)
}

// Write resolves a state-changing function by name, with the same caching
// and group semantics as Read.
func (c *Contract) Write(name string) (*Function, error) {
	return c.resolve(name, false)
}

func (c *Contract) resolve(name string, constant bool) (*Function, error) {
	group := c.write
	if constant {
		group = c.read
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if f, ok := group[name]; ok {
		return f, nil
	}
	m, ok := c.ABI.GetMethod(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s has no function %q", ErrNoSuchFunction, c.Address, name)
	}
	if m.Constant != constant {
		other := "read"
		if !m.Constant {
			other = "write"
		}
		return nil, fmt.Errorf("%w: %q is in the %s group", ErrNoSuchFunction, name, other)
	}
	f := &Function{contract: c, method: m}
	group[name] = f
	return f, nil
}
