// Command ccdarank ranks C-CDA documents by clinical richness.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/custodia-labs/ccdarank/internal/adapters/driving/cli"
	"github.com/custodia-labs/ccdarank/internal/app"
	"github.com/custodia-labs/ccdarank/internal/logger"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	cli.SetVersion(version)
	err := cli.Execute(ctx, app.New())

	stop()
	_ = logger.Sync()
	// cobra has already printed the error.
	if err != nil {
		os.Exit(1)
	}
}
