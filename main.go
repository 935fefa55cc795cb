package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/ManishPrakkash/SmartCodeAnalyser/pkg/cli"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.NewRootCommand(Version).ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
