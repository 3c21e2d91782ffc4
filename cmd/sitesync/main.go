package main

import (
	"log/slog"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/sitesync/cmd/sitesync/commands"
	ferrors "git.home.luguber.info/inful/sitesync/internal/foundation/errors"
)

func main() {
	cli := &commands.CLI{}
	parser := kong.Parse(cli,
		kong.Name("sitesync"),
		kong.Description("Keeps a project website in sync with its repository's documentation and releases."),
		kong.UsageOnError(),
	)
	if err := parser.Run(&commands.Global{}, cli); err != nil {
		ferrors.NewCLIErrorAdapter(cli.Verbose, slog.Default()).HandleError(err)
	}
}
