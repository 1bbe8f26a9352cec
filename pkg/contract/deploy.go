package contract

import (
	"context"
	"errors"
	"fmt"

	"github.com/mexyusef/fmus-fintech/pkg/smartcontract"
	"github.com/mexyusef/fmus-fintech/pkg/util"
)

// Deployment errors.
var (
	// ErrNoBytecode is returned by Deploy on a contract created without
	// bytecode.
	ErrNoBytecode = errors.New("no bytecode to deploy")
	// ErrDeployFailed is returned when the deployment transaction was mined
	// but reverted or produced no contract address.
	ErrDeployFailed = errors.New("deployment failed")
)

// Deploy broadcasts a contract-creation transaction carrying the bytecode
// with encoded constructor arguments appended and waits for it to be mined.
// On success the contract's Address is set to the created address (when it
// was zero) and returned. Constructor arguments follow the same binding
// rules as function calls, including TxOptions.
func (c *Contract) Deploy(ctx context.Context, args ...any) (util.Address, error) {
	if len(c.bytecode) == 0 {
		return util.Address{}, ErrNoBytecode
	}
	if c.actor == nil || c.signer == nil {
		return util.Address{}, ErrReadOnly
	}

	ctorMethod := c.ABI.Constructor
	if ctorMethod == nil {
		ctorMethod = &smartcontract.Method{Name: "constructor"}
	}
	f := &Function{contract: c, method: ctorMethod}
	bound, opts, err := f.bind(args)
	if err != nil {
		return util.Address{}, fmt.Errorf("constructor: %w", err)
	}
	enc, err := c.codec.EncodeValues(paramTypesOf(ctorMethod.Inputs), bound)
	if err != nil {
		return util.Address{}, fmt.Errorf("encoding constructor arguments: %w", err)
	}

	var o txOpts
	for _, opt := range opts {
		opt(&o)
	}
	data := make([]byte, 0, len(c.bytecode)+len(enc))
	data = append(data, c.bytecode...)
	data = append(data, enc...)
	h, err := c.sendCall(util.Address{}, data, &o)
	if err != nil {
		return util.Address{}, fmt.Errorf("deploying: %w", err)
	}

	r, err := c.actor.WaitForReceipt(ctx, h, 0, 0)
	if err != nil {
		return util.Address{}, fmt.Errorf("deploying: %w", err)
	}
	if !r.Succeeded() {
		return util.Address{}, fmt.Errorf("%w: transaction %s reverted", ErrDeployFailed, h)
	}
	if r.ContractAddress == nil {
		return util.Address{}, fmt.Errorf("%w: receipt of %s carries no contract address", ErrDeployFailed, h)
	}
	if c.Address.IsZero() {
		c.Address = *r.ContractAddress
	}
	return *r.ContractAddress, nil
}

func paramTypesOf(params []smartcontract.Parameter) []smartcontract.ParamType {
	types := make([]smartcontract.ParamType, len(params))
	for i := range params {
		types[i] = params[i].Type
	}
	return types
}
