// Command optpricer prices European and barrier options from the command line.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"optpricer/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	app := &cli.App{}
	err := cli.NewRootCmd(app).ExecuteContext(ctx)
	if cerr := app.Close(); cerr != nil {
		app.Logger.Warn().Err(cerr).Msg("Failed to close quote store")
	}
	stop()

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(cli.ExitCode(err))
	}
}
