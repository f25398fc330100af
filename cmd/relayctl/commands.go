package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	cli "github.com/urfave/cli/v3"

	"github.com/relaykit/relaykit-go/pkg/api"
	sdkcmd "github.com/relaykit/relaykit-go/pkg/cmd"
	"github.com/relaykit/relaykit-go/pkg/config"
	"github.com/relaykit/relaykit-go/pkg/events"
	"github.com/relaykit/relaykit-go/pkg/log"
	"github.com/relaykit/relaykit-go/pkg/otelhelper"
	"github.com/relaykit/relaykit-go/pkg/triggers"
)

func commonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to a YAML config file (environment overrides it)",
			Value:   "",
			Sources: cli.EnvVars("RELAYKIT_CONFIG"),
		},
		&cli.StringFlag{
			Name:    "log-level",
			Usage:   "Log level (debug, info, warn, error)",
			Value:   "info",
			Sources: cli.EnvVars("RELAYKIT_LOG_LEVEL"),
		},
	}
}

func newClient(ctx context.Context, cmd *cli.Command) (*triggers.Client, error) {
	log.Setup(cmd.String("log-level"))

	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return nil, err
	}

	logger := log.WithModule("relayctl")

	// Spans are exported only when a collector endpoint is configured;
	// otherwise the facade's tracer stays a no-op.
	if os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT") != "" {
		if _, err := otelhelper.NewTracer(ctx, "relayctl"); err != nil {
			return nil, fmt.Errorf("failed to initialize tracing: %w", err)
		}
	}

	apiClient := api.NewClient(cfg.BaseURL, cfg.APIKey, logger)

	tr, err := sdkcmd.NewTransport(ctx, cfg, "relayctl", logger)
	if err != nil {
		return nil, err
	}

	return triggers.NewClient(apiClient, tr, logger), nil
}

func NewListCommand() *cli.Command {
	return &cli.Command{
		Name:    "list",
		Aliases: []string{"ls"},
		Usage:   "List available trigger types",
		Flags: append(commonFlags(),
			&cli.StringSliceFlag{Name: "app-name", Usage: "Filter by app name (repeatable)"},
			&cli.StringSliceFlag{Name: "trigger-id", Usage: "Filter by trigger ID (repeatable)"},
			&cli.StringSliceFlag{Name: "connected-account-id", Usage: "Filter by connected account ID (repeatable)"},
			&cli.StringSliceFlag{Name: "integration-id", Usage: "Filter by integration ID (repeatable)"},
			&cli.BoolFlag{Name: "enabled-only", Usage: "Show only enabled trigger types"},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			client, err := newClient(ctx, cmd)
			if err != nil {
				return err
			}
			defer func() {
				_ = client.Close()
			}()

			descriptors, err := client.List(ctx, triggers.ListRequest{
				AppNames:            cmd.StringSlice("app-name"),
				TriggerIDs:          cmd.StringSlice("trigger-id"),
				ConnectedAccountIDs: cmd.StringSlice("connected-account-id"),
				IntegrationIDs:      cmd.StringSlice("integration-id"),
				ShowEnabledOnly:     cmd.Bool("enabled-only"),
			})
			if err != nil {
				return err
			}

			for _, descriptor := range descriptors {
				state := "disabled"
				if descriptor.Enabled {
					state = "enabled"
				}

				_, _ = fmt.Fprintf(os.Stdout, "%s\t%s\t%s\t%s\n",
					descriptor.Name, descriptor.AppName, state, descriptor.Description)
			}

			return nil
		},
	}
}

func NewSetupCommand() *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Enable a trigger type for a connected account",
		Flags: append(commonFlags(),
			&cli.StringFlag{Name: "connected-account-id", Usage: "Connected account to enable the trigger for", Required: true},
			&cli.StringFlag{Name: "trigger-name", Usage: "Trigger type name", Required: true},
			&cli.StringFlag{Name: "trigger-config", Usage: "Trigger configuration as a JSON object", Value: "{}"},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			var triggerConfig map[string]any
			if err := json.Unmarshal([]byte(cmd.String("trigger-config")), &triggerConfig); err != nil {
				return fmt.Errorf("failed to parse --trigger-config: %w", err)
			}

			client, err := newClient(ctx, cmd)
			if err != nil {
				return err
			}
			defer func() {
				_ = client.Close()
			}()

			result, err := client.Setup(ctx, triggers.SetupRequest{
				ConnectedAccountID: cmd.String("connected-account-id"),
				TriggerName:        cmd.String("trigger-name"),
				Config:             triggerConfig,
			})
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(os.Stdout, "%s\t%s\n", result.Status, result.TriggerID)

			return nil
		},
	}
}

func NewEnableCommand() *cli.Command {
	return newToggleCommand("enable", "Enable a trigger instance", true)
}

func NewDisableCommand() *cli.Command {
	return newToggleCommand("disable", "Disable a trigger instance", false)
}

func newToggleCommand(name, usage string, enabled bool) *cli.Command {
	return &cli.Command{
		Name:      name,
		Usage:     usage,
		ArgsUsage: "<trigger-instance-id>",
		Flags:     commonFlags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			client, err := newClient(ctx, cmd)
			if err != nil {
				return err
			}
			defer func() {
				_ = client.Close()
			}()

			var ok bool
			if enabled {
				ok, err = client.Enable(ctx, cmd.Args().First())
			} else {
				ok, err = client.Disable(ctx, cmd.Args().First())
			}

			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(os.Stdout, "%t\n", ok)

			return nil
		},
	}
}

func NewDeleteCommand() *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Aliases:   []string{"rm"},
		Usage:     "Delete a trigger instance",
		ArgsUsage: "<trigger-instance-id>",
		Flags:     commonFlags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			client, err := newClient(ctx, cmd)
			if err != nil {
				return err
			}
			defer func() {
				_ = client.Close()
			}()

			status, err := client.Delete(ctx, cmd.Args().First())
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintln(os.Stdout, status)

			return nil
		},
	}
}

func NewWatchCommand() *cli.Command {
	return &cli.Command{
		Name:    "watch",
		Aliases: []string{"w"},
		Usage:   "Stream matching trigger events to stdout until interrupted",
		Flags: append(commonFlags(),
			&cli.StringFlag{Name: "app-name", Usage: "Only events from this app"},
			&cli.StringFlag{Name: "trigger-id", Usage: "Only events from this trigger instance"},
			&cli.StringFlag{Name: "connection-id", Usage: "Only events from this connection"},
			&cli.StringFlag{Name: "trigger-name", Usage: "Only events from this trigger type"},
			&cli.StringFlag{Name: "entity-id", Usage: "Only events for this entity"},
			&cli.StringFlag{Name: "integration-id", Usage: "Only events from this integration"},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			client, err := newClient(ctx, cmd)
			if err != nil {
				return err
			}
			defer func() {
				_ = client.Close()
			}()

			filter := triggers.Criteria{
				AppName:       cmd.String("app-name"),
				TriggerID:     cmd.String("trigger-id"),
				ConnectionID:  cmd.String("connection-id"),
				TriggerName:   cmd.String("trigger-name"),
				EntityID:      cmd.String("entity-id"),
				IntegrationID: cmd.String("integration-id"),
			}

			err = client.Subscribe(ctx, func(event *events.TriggerEvent) {
				encoded, err := json.Marshal(event)
				if err != nil {
					return
				}

				_, _ = fmt.Fprintln(os.Stdout, string(encoded))
			}, filter)
			if err != nil {
				return err
			}

			stop := make(chan os.Signal, 1)
			signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
			<-stop

			return client.Unsubscribe(context.WithoutCancel(ctx))
		},
	}
}
