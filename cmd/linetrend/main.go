// Package main provides the entry point for the linetrend CLI tool.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/Sumatoshi-tech/linetrend/cmd/linetrend/commands"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)

	err := commands.NewRootCommand().ExecuteContext(ctx)

	stop()

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
