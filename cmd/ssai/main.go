// Command ssai ingests sales catalogs and support documents and serves
// product search and support chat over them.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/custodia-labs/sales-support-ai/internal/adapters/driven/ai"
	"github.com/custodia-labs/sales-support-ai/internal/adapters/driven/config/file"
	"github.com/custodia-labs/sales-support-ai/internal/adapters/driving/cli"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := file.LoadEnv(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "Error: loading .env: %v\n", err)
		os.Exit(1)
	}

	cli.SetVersion(version)
	cli.SetValidator(ai.NewConfigValidator())
	cli.SetBootstrap(bootstrap, openConfig)

	if err := cli.Execute(ctx); err != nil {
		os.Exit(1)
	}
}
