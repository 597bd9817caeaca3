// Package main provides the operion-odata command line.
package main

import (
	"context"
	"os"

	"github.com/dukex/operion-odata/pkg/log"
	"github.com/dukex/operion-odata/pkg/otelhelper"
	cli "github.com/urfave/cli/v3"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

const serviceName = "operion-odata"

func main() {
	if err := NewApp().Run(context.Background(), os.Args); err != nil {
		log.WithModule("cli").Error("Command failed", "error", err)
		os.Exit(1)
	}
}

// NewApp builds the root command.
func NewApp() *cli.Command {
	var tracerProvider *sdktrace.TracerProvider

	return &cli.Command{
		Name:                  serviceName,
		Usage:                 "Build and run OData requests as Operion nodes",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
			&cli.BoolFlag{
				Name:    "otel-enabled",
				Usage:   "Export traces with OTLP over HTTP (configured by OTEL_EXPORTER_OTLP_* variables)",
				Sources: cli.EnvVars("OTEL_ENABLED"),
			},
			&cli.StringFlag{
				Name:    "plugins-path",
				Usage:   "Path to the directory containing node plugins",
				Sources: cli.EnvVars("PLUGINS_PATH"),
			},
			&cli.StringFlag{
				Name:    "token-cache-redis",
				Usage:   "Redis URL used to share OAuth2 tokens between processes (redis://host:6379/0)",
				Sources: cli.EnvVars("TOKEN_CACHE_REDIS_URL"),
			},
		},
		Before: func(ctx context.Context, command *cli.Command) (context.Context, error) {
			log.SetupWriter(command.Root().ErrWriter, command.String("log-level"), "text")

			if !command.Bool("otel-enabled") {
				return ctx, nil
			}

			tp, err := otelhelper.NewTracerProvider(ctx, serviceName)
			if err != nil {
				return ctx, err
			}

			tracerProvider = tp

			return ctx, nil
		},
		After: func(ctx context.Context, command *cli.Command) error {
			if tracerProvider == nil {
				return nil
			}

			return tracerProvider.Shutdown(ctx)
		},
		Commands: []*cli.Command{
			NewResolveCommand(),
			NewExecuteCommand(),
			NewNodesCommand(),
			NewServeCommand(),
		},
	}
}
