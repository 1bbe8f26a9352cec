// Package query implements commands inspecting chain and transaction state.
package query

import (
	"bytes"
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/urfave/cli"

	"github.com/mexyusef/fmus-fintech/cli/options"
	"github.com/mexyusef/fmus-fintech/pkg/evmrpc/result"
	"github.com/mexyusef/fmus-fintech/pkg/manager"
	"github.com/mexyusef/fmus-fintech/pkg/transaction"
	"github.com/mexyusef/fmus-fintech/pkg/util"
)

// NewCommands returns the 'query' command.
func NewCommands() []cli.Command {
	return []cli.Command{{
		Name:  "query",
		Usage: "query chain and transaction state",
		Subcommands: []cli.Command{
			{
				Name:   "tx",
				Usage:  "query transaction status by hash",
				Action: queryTx,
				Flags:  options.RPC,
			},
			{
				Name:   "height",
				Usage:  "print the current block height",
				Action: queryHeight,
				Flags:  options.RPC,
			},
		},
	}}
}

func queryTx(ctx *cli.Context) error {
	args := ctx.Args()
	if len(args) == 0 {
		return cli.NewExitError("transaction hash is missing", 1)
	}
	txHash, err := util.HashFromString(args[0])
	if err != nil {
		return cli.NewExitError(fmt.Sprintf("invalid tx hash: %s", args[0]), 1)
	}

	gctx, cancel := options.GetTimeoutContext(ctx)
	defer cancel()

	c, exitErr := options.GetRPCClient(gctx, ctx)
	if exitErr != nil {
		return exitErr
	}
	defer c.Close()

	mgr := manager.New(c, nil)
	receipt, err := mgr.Receipt(txHash)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	dumpReceipt(ctx, txHash, receipt)
	return nil
}

func dumpReceipt(ctx *cli.Context, txHash util.Hash, r *result.Receipt) {
	buf := bytes.NewBuffer(nil)

	// Ignore the errors below because `Write` to buffer doesn't return error.
	tw := tabwriter.NewWriter(buf, 0, 4, 4, '\t', 0)
	_, _ = tw.Write([]byte("Hash:\t" + txHash.String() + "\n"))
	if r == nil {
		_, _ = tw.Write([]byte("Status:\t" + transaction.Pending.String() + "\n"))
	} else {
		status := transaction.Failed
		if r.Succeeded() {
			status = transaction.Confirmed
		}
		_, _ = tw.Write([]byte("Status:\t" + status.String() + "\n"))
		_, _ = tw.Write([]byte("Block:\t" + strconv.FormatUint(uint64(r.BlockNumber), 10) + "\n"))
		_, _ = tw.Write([]byte("GasUsed:\t" + strconv.FormatUint(uint64(r.GasUsed), 10) + "\n"))
		if r.ContractAddress != nil {
			_, _ = tw.Write([]byte("Contract:\t" + r.ContractAddress.String() + "\n"))
		}
		_, _ = tw.Write([]byte("Logs:\t" + strconv.Itoa(len(r.Logs)) + "\n"))
	}
	_ = tw.Flush()
	fmt.Fprint(ctx.App.Writer, buf.String())
}

func queryHeight(ctx *cli.Context) error {
	gctx, cancel := options.GetTimeoutContext(ctx)
	defer cancel()

	c, exitErr := options.GetRPCClient(gctx, ctx)
	if exitErr != nil {
		return exitErr
	}
	defer c.Close()

	height, err := c.BlockNumber()
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	fmt.Fprintf(ctx.App.Writer, "Block height: %d\n", height)
	return nil
}
