// Package main provides the booktable command line tool.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/listenupapp/booktable/cmd/booktable/commands"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	os.Exit(commands.ExecuteContext(ctx, os.Args[1:]))
}
