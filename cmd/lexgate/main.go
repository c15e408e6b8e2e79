// Command lexgate ingests Swiss legal texts and serves grounded retrieval.
package main

import (
	"context"
	"os"

	"github.com/custodia-labs/lexgate/internal/adapters/driving/cli"
	"github.com/custodia-labs/lexgate/internal/app"
	"github.com/custodia-labs/lexgate/internal/logger"
)

// version is set via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	var application *app.App
	defer func() {
		if application == nil {
			return
		}
		if err := application.Close(); err != nil {
			logger.Warn("shutdown: %v", err)
		}
	}()

	cli.SetVersion(version)
	cli.SetInitializer(func(ctx context.Context, path string) error {
		a, err := app.New(ctx, path)
		if err != nil {
			return err
		}
		application = a
		cli.SetServices(a.Services)
		return nil
	})

	if err := cli.Execute(); err != nil {
		return 1
	}
	return 0
}
