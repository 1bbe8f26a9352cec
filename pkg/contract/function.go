package contract

import (
	"errors"
	"fmt"
	"strings"

	"github.com/holiman/uint256"

	"github.com/mexyusef/fmus-fintech/pkg/evmrpc"
	"github.com/mexyusef/fmus-fintech/pkg/smartcontract"
	"github.com/mexyusef/fmus-fintech/pkg/util"
)

// Argument binding errors.
var (
	// ErrTooManyArguments is returned when more positional arguments are
	// passed than the function has parameters.
	ErrTooManyArguments = errors.New("too many arguments")
	// ErrMissingArgument is returned when binding leaves parameters
	// unfilled, the error names them.
	ErrMissingArgument = errors.New("missing argument")
	// ErrArgumentConflict is returned when the same parameter is supplied
	// both positionally and by name.
	ErrArgumentConflict = errors.New("argument supplied twice")
	// ErrUnknownArgument is returned for a named argument matching no
	// parameter.
	ErrUnknownArgument = errors.New("unknown argument")
)

// Named is an argument bound to a parameter by its ABI name instead of its
// position.
type Named struct {
	Name  string
	Value any
}

// TxOption adjusts the transaction produced by a state-changing dispatch.
// Options are passed within the regular argument list, constant functions
// reject them since a read has no transaction to adjust.
type TxOption func(*txOpts)

type txOpts struct {
	value    *uint256.Int
	gas      uint64
	gasPrice *uint256.Int
	maxFee   *uint256.Int
	maxTip   *uint256.Int
	nonce    *uint64
}

// WithValue attaches native value (in base units) to the call.
func WithValue(v *uint256.Int) TxOption {
	return func(o *txOpts) { o.value = v }
}

// WithGasLimit overrides the estimated gas limit.
func WithGasLimit(gas uint64) TxOption {
	return func(o *txOpts) { o.gas = gas }
}

// WithGasPrice selects the legacy fee scheme with the given price instead
// of the suggested fee.
func WithGasPrice(p *uint256.Int) TxOption {
	return func(o *txOpts) { o.gasPrice = p }
}

// WithDynamicFee selects the EIP-1559 fee scheme with the given fee cap and
// priority fee instead of the suggested fee.
func WithDynamicFee(maxFeePerGas, maxPriorityFeePerGas *uint256.Int) TxOption {
	return func(o *txOpts) {
		o.maxFee = maxFeePerGas
		o.maxTip = maxPriorityFeePerGas
	}
}

// WithNonce overrides the network-queried nonce.
func WithNonce(n uint64) TxOption {
	return func(o *txOpts) { o.nonce = &n }
}

// Function is a single callable bound to one ABI entry of its contract. It
// is obtained via Contract.Read or Contract.Write, the group it was
// resolved from fixes the dispatch path.
type Function struct {
	contract *Contract
	method   *smartcontract.Method
}

// Name returns the ABI name of the function.
func (f *Function) Name() string {
	return f.method.Name
}

// Constant reports whether the function dispatches as a state query.
func (f *Function) Constant() bool {
	return f.method.Constant
}

// Call dispatches the function. Arguments can be positional values, Named
// values and (for state-changing functions) TxOptions, mixed freely.
//
// For a constant function the return value is the decoded output: nil for
// no outputs, the bare value for one output, []any for several. A hash is
// never returned here.
//
// For a state-changing function the return value is the util.Hash of the
// broadcast transaction, never a decoded output: the chain doesn't expose
// return values of state-changing calls synchronously, success or failure
// has to be learned from the receipt.
func (f *Function) Call(args ...any) (any, error) {
	bound, opts, err := f.bind(args)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", f.method.Name, err)
	}
	if f.method.Constant {
		if len(opts) > 0 {
			return nil, fmt.Errorf("%s: transaction options on a constant function", f.method.Name)
		}
		return f.call(bound)
	}
	return f.transact(bound, opts)
}

// bind resolves the argument list against the function's parameters.
// Positional arguments fill parameters in declaration order, named ones
// bind by ABI name, in two passes so their relative order doesn't matter.
func (f *Function) bind(args []any) ([]any, []TxOption, error) {
	var (
		positional []any
		named      []Named
		opts       []TxOption
	)
	for _, a := range args {
		switch v := a.(type) {
		case Named:
			named = append(named, v)
		case TxOption:
			opts = append(opts, v)
		default:
			positional = append(positional, a)
		}
	}

	params := f.method.Inputs
	if len(positional) > len(params) {
		return nil, nil, fmt.Errorf("%w: %d positional for %d parameters",
			ErrTooManyArguments, len(positional), len(params))
	}
	bound := make([]any, len(params))
	set := make([]bool, len(params))
	for i, v := range positional {
		bound[i] = v
		set[i] = true
	}
	for _, n := range named {
		idx := -1
		for i := range params {
			if params[i].Name == n.Name {
				idx = i
				break
			}
		}
		if idx < 0 {
			return nil, nil, fmt.Errorf("%w: %q", ErrUnknownArgument, n.Name)
		}
		if set[idx] {
			return nil, nil, fmt.Errorf("%w: %q", ErrArgumentConflict, n.Name)
		}
		bound[idx] = n.Value
		set[idx] = true
	}
	var missing []string
	for i := range params {
		if !set[i] {
			missing = append(missing, params[i].Name)
		}
	}
	if len(missing) > 0 {
		return nil, nil, fmt.Errorf("%w: %s", ErrMissingArgument, strings.Join(missing, ", "))
	}
	return bound, opts, nil
}

// call is the read path: encode, state-query, decode.
func (f *Function) call(bound []any) (any, error) {
	c := f.contract
	data, err := c.codec.EncodeCall(f.method, bound)
	if err != nil {
		return nil, err
	}
	ret, err := c.caller.CallContract(evmrpc.CallArgs{
		To:   &c.Address,
		Data: data,
	})
	if err != nil {
		return nil, fmt.Errorf("calling %s: %w", f.method.Name, err)
	}
	vals, err := c.codec.DecodeValues(paramTypesOf(f.method.Outputs), ret)
	if err != nil {
		return nil, fmt.Errorf("decoding %s result: %w", f.method.Name, err)
	}
	switch len(vals) {
	case 0:
		return nil, nil
	case 1:
		return vals[0], nil
	default:
		return vals, nil
	}
}

// transact is the write path: encode, build-sign-broadcast, return the
// hash.
func (f *Function) transact(bound []any, opts []TxOption) (any, error) {
	c := f.contract
	if c.actor == nil || c.signer == nil {
		return nil, fmt.Errorf("%s: %w", f.method.Name, ErrReadOnly)
	}
	data, err := c.codec.EncodeCall(f.method, bound)
	if err != nil {
		return nil, err
	}
	var o txOpts
	for _, opt := range opts {
		opt(&o)
	}
	h, err := c.sendCall(c.Address, data, &o)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", f.method.Name, err)
	}
	return h, nil
}

// sendCall builds, signs and broadcasts a transaction carrying the given
// call data, it's shared between function dispatch and deployment (which
// passes a zero recipient).
func (c *Contract) sendCall(to util.Address, data []byte, o *txOpts) (util.Hash, error) {
	b, err := c.actor.CreateTransaction()
	if err != nil {
		return util.Hash{}, err
	}
	deploy := to.IsZero()
	if deploy {
		b.Deployment(data)
	} else {
		b.To(to).Data(data)
	}
	if o.value != nil {
		b.Value(o.value)
	}
	if o.nonce != nil {
		b.Nonce(*o.nonce)
	} else {
		nonce, err := c.actor.Nonce(c.sender)
		if err != nil {
			return util.Hash{}, fmt.Errorf("failed to get nonce: %w", err)
		}
		b.Nonce(nonce)
	}

	args := evmrpc.CallArgs{
		From:  &c.sender,
		Value: o.value,
		Data:  evmrpc.Bytes(data),
	}
	if !deploy {
		args.To = &to
	}
	switch {
	case o.gasPrice != nil:
		b.GasPrice(o.gasPrice)
	case o.maxFee != nil:
		b.DynamicFee(o.maxFee, o.maxTip)
	default:
		fee, err := c.actor.SuggestFee(args)
		if err != nil {
			return util.Hash{}, err
		}
		b.Fee(fee)
	}
	if o.gas != 0 {
		b.GasLimit(o.gas)
	} else if o.gasPrice != nil || o.maxFee != nil {
		// An explicit fee price still needs a gas limit, take the one the
		// node simulation suggests.
		fee, err := c.actor.SuggestFee(args)
		if err != nil {
			return util.Hash{}, err
		}
		b.GasLimit(fee.GasLimit())
	}

	tx, err := b.Build()
	if err != nil {
		return util.Hash{}, err
	}
	if err := tx.Sign(c.signer); err != nil {
		return util.Hash{}, err
	}
	return c.actor.Broadcast(tx)
}
