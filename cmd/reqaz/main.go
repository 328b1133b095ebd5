// Command reqaz serves a directory of sources with HTML rewriting, or
// generates rewritten copies of configured entries.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
	"go.uber.org/automaxprocs/maxprocs"

	"git.home.luguber.info/inful/reqaz/cmd/reqaz/commands"
	"git.home.luguber.info/inful/reqaz/internal/foundation/errors"
)

func main() {
	var cli commands.CLI
	parser := kong.Parse(&cli,
		kong.Name("reqaz"),
		kong.Description("Resolve, rewrite and serve web sources."),
		kong.UsageOnError(),
	)

	logger := slog.Default()
	// Error ignored: Set only fails on an invalid GOMAXPROCS value, and the
	// runtime default is kept in that case.
	_, _ = maxprocs.Set(maxprocs.Logger(func(format string, args ...any) {
		logger.Debug(fmt.Sprintf(format, args...))
	}))

	err := parser.Run(&commands.Global{Logger: logger, Out: os.Stdout}, &cli)
	errors.NewCLIErrorAdapter(cli.Verbose, logger).HandleError(err)
}
