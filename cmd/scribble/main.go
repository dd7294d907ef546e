// Command scribble turns a folder of notes into tagged content, tasks and
// digests.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/behole/scribble/internal/adapters/driving/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cli.SetBootstrap(build)
	if err := cli.Execute(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
