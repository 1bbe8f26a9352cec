// Package token implements fungible token CLI commands.
package token

import (
	"fmt"

	"github.com/urfave/cli"

	"github.com/mexyusef/fmus-fintech/cli/options"
	"github.com/mexyusef/fmus-fintech/pkg/contract"
	"github.com/mexyusef/fmus-fintech/pkg/contract/erc20"
	"github.com/mexyusef/fmus-fintech/pkg/manager"
	"github.com/mexyusef/fmus-fintech/pkg/util"
)

// NewCommands returns the 'token' command.
func NewCommands() []cli.Command {
	tokenFlag := cli.StringFlag{
		Name:  "token, t",
		Usage: "token contract address",
	}
	infoFlags := append([]cli.Flag{tokenFlag}, options.RPC...)
	balanceFlags := append([]cli.Flag{
		tokenFlag,
		cli.StringFlag{
			Name:  "address, a",
			Usage: "account address",
		},
	}, options.RPC...)
	transferFlags := append([]cli.Flag{
		tokenFlag,
		options.Key,
		cli.StringFlag{
			Name:  "to",
			Usage: "recipient address",
		},
		cli.Float64Flag{
			Name:  "amount",
			Usage: "amount of tokens to transfer",
		},
	}, options.RPC...)
	return []cli.Command{{
		Name:  "token",
		Usage: "fungible token operations",
		Subcommands: []cli.Command{
			{
				Name:   "info",
				Usage:  "print token name, symbol, decimals and supply",
				Action: info,
				Flags:  infoFlags,
			},
			{
				Name:   "balance",
				Usage:  "print the token balance of an account",
				Action: balance,
				Flags:  balanceFlags,
			},
			{
				Name:   "transfer",
				Usage:  "transfer tokens",
				Action: transfer,
				Flags:  transferFlags,
			},
		},
	}}
}

func getToken(ctx *cli.Context, opts ...contract.Option) (*erc20.Token, func(), cli.ExitCoder) {
	addr, err := util.AddressFromString(ctx.String("token"))
	if err != nil {
		return nil, nil, cli.NewExitError(fmt.Errorf("invalid token address: %w", err), 1)
	}
	gctx, cancel := options.GetTimeoutContext(ctx)
	c, exitErr := options.GetRPCClient(gctx, ctx)
	if exitErr != nil {
		cancel()
		return nil, nil, exitErr
	}
	t, err := erc20.New(addr, c, opts...)
	if err != nil {
		c.Close()
		cancel()
		return nil, nil, cli.NewExitError(err, 1)
	}
	done := func() {
		c.Close()
		cancel()
	}
	return t, done, nil
}

func info(ctx *cli.Context) error {
	t, done, exitErr := getToken(ctx)
	if exitErr != nil {
		return exitErr
	}
	defer done()

	name, err := t.Name()
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	symbol, err := t.Symbol()
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	decimals, err := t.Decimals()
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	supply, err := t.TotalSupply()
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	fmt.Fprintf(ctx.App.Writer, "Name:\t%s\nSymbol:\t%s\nDecimals:\t%d\nSupply:\t%s\n",
		name, symbol, decimals, supply)
	return nil
}

func balance(ctx *cli.Context) error {
	addr, err := util.AddressFromString(ctx.String("address"))
	if err != nil {
		return cli.NewExitError(fmt.Errorf("invalid address: %w", err), 1)
	}
	t, done, exitErr := getToken(ctx)
	if exitErr != nil {
		return exitErr
	}
	defer done()

	amount, err := t.FormattedBalanceOf(addr)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	symbol, err := t.Symbol()
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	fmt.Fprintf(ctx.App.Writer, "Balance: %v %s\n", amount, symbol)
	return nil
}

func transfer(ctx *cli.Context) error {
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
	c, exitErr := options.GetRPCClient(gctx, ctx)
	if exitErr != nil {
		return exitErr
	}
	defer c.Close()

	mgr := manager.New(c, nil)
	addr, err := util.AddressFromString(ctx.String("token"))
	if err != nil {
		return cli.NewExitError(fmt.Errorf("invalid token address: %w", err), 1)
	}
	t, err := erc20.New(addr, c, contract.WithActor(mgr, acc, acc.Address()))
	if err != nil {
		return cli.NewExitError(err, 1)
	}

	h, err := t.TransferFloat(to, amount)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	fmt.Fprintf(ctx.App.Writer, "Transaction: %s\n", h)
	return nil
}
