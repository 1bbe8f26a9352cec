// Package wallet implements account-related CLI commands.
package wallet

import (
	"fmt"

	"github.com/urfave/cli"

	"github.com/mexyusef/fmus-fintech/cli/options"
	"github.com/mexyusef/fmus-fintech/pkg/ethereum"
	"github.com/mexyusef/fmus-fintech/pkg/manager"
	"github.com/mexyusef/fmus-fintech/pkg/util"
	"github.com/mexyusef/fmus-fintech/pkg/wallet"
)

// NewCommands returns the 'wallet' command.
func NewCommands() []cli.Command {
	sendFlags := append([]cli.Flag{
		options.Key,
		cli.StringFlag{
			Name:  "to",
			Usage: "recipient address",
		},
		cli.Float64Flag{
			Name:  "amount",
			Usage: "amount of native tokens to send",
		},
		cli.BoolFlag{
			Name:  "await",
			Usage: "wait for the transaction to be mined",
		},
	}, options.RPC...)
	balanceFlags := append([]cli.Flag{
		cli.StringFlag{
			Name:  "address, a",
			Usage: "account address",
		},
	}, options.RPC...)
	return []cli.Command{{
		Name:  "wallet",
		Usage: "account operations",
		Subcommands: []cli.Command{
			{
				Name:   "new",
				Usage:  "generate a new account",
				Action: newAccount,
			},
			{
				Name:   "balance",
				Usage:  "print the native balance of an account",
				Action: balance,
				Flags:  balanceFlags,
			},
			{
				Name:   "send",
				Usage:  "send native tokens",
				Action: send,
				Flags:  sendFlags,
			},
		},
	}}
}

func newAccount(ctx *cli.Context) error {
	acc, err := wallet.New()
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	fmt.Fprintf(ctx.App.Writer, "Address: %s\n", acc.Address())
	return nil
}

func balance(ctx *cli.Context) error {
	addr, err := util.AddressFromString(ctx.String("address"))
	if err != nil {
		return cli.NewExitError(fmt.Errorf("invalid address: %w", err), 1)
	}

	gctx, cancel := options.GetTimeoutContext(ctx)
	defer cancel()

	c, exitErr := options.GetRPCClient(gctx, ctx)
	if exitErr != nil {
		return exitErr
	}
	defer c.Close()

	units, err := c.Balance(addr)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	fmt.Fprintf(ctx.App.Writer, "Balance: %v (%s wei)\n",
		util.FromBaseUnits(units, util.NativeDecimals), units)
	return nil
}

func send(ctx *cli.Context) error {
	to, err := util.AddressFromString(ctx.String("to"))
	if err != nil {
		return cli.NewExitError(fmt.Errorf("invalid recipient: %w", err), 1)
	}
	amount := ctx.Float64("amount")
	if !util.IsValidAmount(amount) || amount == 0 {
		return cli.NewExitError("invalid amount", 1)
	}
	acc, exitErr := options.GetAccount(ctx)
	if exitErr != nil {
		return exitErr
	}

	gctx, cancel := options.GetTimeoutContext(ctx)
	defer cancel()

	net := ethereum.NewNetwork(ctx.String(options.RPCEndpointFlag))
	if err := net.Connect(gctx); err != nil {
		return cli.NewExitError(err, 1)
	}
	defer net.Disconnect()

	h, err := net.Send(acc, to, amount)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	fmt.Fprintf(ctx.App.Writer, "Transaction: %s\n", h)

	if ctx.Bool("await") {
		r, err := net.WaitForReceipt(gctx, h, manager.DefaultWaitTimeout)
		if err != nil {
			return cli.NewExitError(err, 1)
		}
		fmt.Fprintf(ctx.App.Writer, "Mined in block %d, success: %t\n",
			uint64(r.BlockNumber), r.Succeeded())
	}
	return nil
}
