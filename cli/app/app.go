// Package app assembles the CLI application from its command packages.
package app

import (
	"fmt"
	"os"
	"runtime"

	"github.com/urfave/cli"

	"github.com/mexyusef/fmus-fintech/cli/query"
	"github.com/mexyusef/fmus-fintech/cli/token"
	"github.com/mexyusef/fmus-fintech/cli/wallet"
)

// Version is the CLI version, set at build time.
var Version = "dev"

func versionPrinter(c *cli.Context) {
	_, _ = fmt.Fprintf(c.App.Writer, "fmus-fintech\nVersion: %s\nGoVersion: %s\n",
		Version,
		runtime.Version(),
	)
}

// New creates a [cli.App] instance with all commands included.
func New() *cli.App {
	cli.VersionPrinter = versionPrinter
	ctl := cli.NewApp()
	ctl.Name = "fmus"
	ctl.Version = Version
	ctl.Usage = "EVM chain client"
	ctl.ErrWriter = os.Stdout

	ctl.Commands = append(ctl.Commands, query.NewCommands()...)
	ctl.Commands = append(ctl.Commands, wallet.NewCommands()...)
	ctl.Commands = append(ctl.Commands, token.NewCommands()...)
	return ctl
}
