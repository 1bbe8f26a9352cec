/*
Package options contains a set of common CLI options and helper functions to
use them.
*/
package options

import (
	"context"
	"errors"
	"time"

	"github.com/urfave/cli"

	"github.com/mexyusef/fmus-fintech/cli/input"
	"github.com/mexyusef/fmus-fintech/pkg/rpcclient"
	"github.com/mexyusef/fmus-fintech/pkg/wallet"
)

// DefaultTimeout is the default timeout used for RPC requests.
const DefaultTimeout = 10 * time.Second

// RPCEndpointFlag is a long flag name for an RPC endpoint. It can be used to
// check for flag presence in the context.
const RPCEndpointFlag = "rpc-endpoint"

// RPC is a set of flags used for RPC connections (endpoint and timeout).
var RPC = []cli.Flag{
	cli.StringFlag{
		Name:  RPCEndpointFlag + ", r",
		Usage: "RPC node address",
	},
	cli.DurationFlag{
		Name:  "timeout, s",
		Value: DefaultTimeout,
		Usage: "Timeout for the operation",
	},
}

// Key is a flag for commands that sign transactions.
var Key = cli.StringFlag{
	Name:  "key, k",
	Usage: "private key in hex (prompted for interactively when not given)",
}

var errNoEndpoint = errors.New("no RPC endpoint specified, use option '--" + RPCEndpointFlag + "' or '-r'")

// GetTimeoutContext returns a context deadlined by the timeout flag.
func GetTimeoutContext(ctx *cli.Context) (context.Context, func()) {
	dur := ctx.Duration("timeout")
	if dur == 0 {
		dur = DefaultTimeout
	}
	return context.WithTimeout(context.Background(), dur)
}

// GetRPCClient returns an RPC client instance for the given Context.
func GetRPCClient(gctx context.Context, ctx *cli.Context) (*rpcclient.Client, cli.ExitCoder) {
	endpoint := ctx.String(RPCEndpointFlag)
	if len(endpoint) == 0 {
		return nil, cli.NewExitError(errNoEndpoint, 1)
	}
	c, err := rpcclient.New(gctx, endpoint, rpcclient.Options{})
	if err != nil {
		return nil, cli.NewExitError(err, 1)
	}
	return c, nil
}

// GetAccount returns the signing account from the key flag, prompting for
// the key when the flag is absent.
func GetAccount(ctx *cli.Context) (*wallet.Account, cli.ExitCoder) {
	key := ctx.String("key")
	if key == "" {
		var err error
		key, err = input.ReadSecret(ctx.App.Writer, "Private key: ")
		if err != nil {
			return nil, cli.NewExitError(err, 1)
		}
	}
	acc, err := wallet.FromHex(key)
	if err != nil {
		return nil, cli.NewExitError(err, 1)
	}
	return acc, nil
}
