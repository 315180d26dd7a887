// Command manifestcheck reports whether an npm package's published
// package.json matches the manifest its registry advertises.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/matzehuels/manifestcheck/internal/cli"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := cli.New(os.Stderr, cli.LogInfo).RootCommand().ExecuteContext(ctx)
	if err != nil && ctx.Err() != nil {
		return cli.ExitInterrupted
	}
	if !cli.Quiet(err) {
		cli.PrintError(os.Stderr, err)
	}
	return cli.ExitCode(err)
}
