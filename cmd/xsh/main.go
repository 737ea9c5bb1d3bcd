package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/grovetools/xsh/cli"
	"github.com/grovetools/xsh/cmd"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	rootCmd := cmd.NewRootCmd()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		verbose, _ := rootCmd.PersistentFlags().GetBool("verbose")
		cli.NewErrorHandler(verbose).Handle(err)
		stop()
		os.Exit(cli.ExitCode(err))
	}
}
