package main

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/next2gas/cmd/next2gas/commands"
	ferrors "git.home.luguber.info/inful/next2gas/internal/foundation/errors"
	"git.home.luguber.info/inful/next2gas/internal/version"
)

func main() {
	var cli commands.CLI
	ctx := kong.Parse(&cli,
		kong.Name("next2gas"),
		kong.Description("Bundle a Next.js static export into a Google Apps Script web app."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
	)

	global := &commands.Global{Logger: slog.Default()}
	err := ctx.Run(global, &cli)
	os.Exit(ferrors.NewCLIErrorAdapter(cli.Verbose, slog.Default()).Report(err))
}
