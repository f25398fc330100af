package main

import (
	"context"
	"log/slog"
	"os"

	cli "github.com/urfave/cli/v3"
)

func main() {
	cmd := &cli.Command{
		Name:                  "relayctl",
		Usage:                 "Manage triggers and watch trigger events",
		EnableShellCompletion: true,
		Commands: []*cli.Command{
			NewListCommand(),
			NewSetupCommand(),
			NewEnableCommand(),
			NewDisableCommand(),
			NewDeleteCommand(),
			NewWatchCommand(),
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("Command failed", "error", err)
		os.Exit(1)
	}
}
