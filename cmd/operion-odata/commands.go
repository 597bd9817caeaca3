package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/dukex/operion-odata/pkg/channels/kafka"
	"github.com/dukex/operion-odata/pkg/cmd"
	"github.com/dukex/operion-odata/pkg/credentials"
	"github.com/dukex/operion-odata/pkg/eventbus"
	"github.com/dukex/operion-odata/pkg/events"
	"github.com/dukex/operion-odata/pkg/log"
	"github.com/dukex/operion-odata/pkg/models"
	nodeodata "github.com/dukex/operion-odata/pkg/nodes/odata"
	"github.com/dukex/operion-odata/pkg/odata"
	"github.com/dukex/operion-odata/pkg/registry"
	"github.com/dukex/operion-odata/pkg/services"
	"github.com/dukex/operion-odata/pkg/web"
	cli "github.com/urfave/cli/v3"
)

const defaultPort = 9092

func NewResolveCommand() *cli.Command {
	return &cli.Command{
		Name:  "resolve",
		Usage: "Print the URL a request would be sent to, without sending it",
		Flags: requestFlags(),
		Action: func(ctx context.Context, command *cli.Command) error {
			definition, err := loadNode(command)
			if err != nil {
				return err
			}

			node, err := nodeodata.NewODataNode(definition.ID, definition.Config)
			if err != nil {
				return err
			}

			desc, err := node.Describe(&models.ExecutionContext{})
			if err != nil {
				return err
			}

			url, err := odata.ResolveURL(desc)
			if err != nil {
				return err
			}

			_, err = fmt.Fprintln(command.Root().Writer, url)

			return err
		},
	}
}

func NewExecuteCommand() *cli.Command {
	flags := append(requestFlags(),
		&cli.StringFlag{
			Name:  "authentication",
			Usage: "Authentication (none, basicAuth, headerAuth, oAuth2)",
		},
		&cli.StringSliceFlag{
			Name:  "credential",
			Usage: "Credential parameter as key=value; values accept env:NAME and file:/path",
		},
		&cli.StringSliceFlag{
			Name:  "var",
			Usage: "Workflow variable as key=value, available to templates as .variables.key",
		},
		&cli.IntFlag{
			Name:  "timeout",
			Usage: "Request timeout in seconds",
		},
		&cli.BoolFlag{
			Name:  "continue-on-fail",
			Usage: "Print the failure record instead of exiting with an error",
		},
		&cli.StringFlag{
			Name:    "event-bus",
			Usage:   "Publish request events to an event bus (gochannel, kafka)",
			Sources: cli.EnvVars("EVENT_BUS_TYPE"),
		},
		&cli.StringFlag{
			Name:    "kafka-brokers",
			Usage:   "Comma separated Kafka brokers",
			Sources: cli.EnvVars("KAFKA_BROKERS"),
		},
	)

	return &cli.Command{
		Name:    "execute",
		Aliases: []string{"exec"},
		Usage:   "Run the OData node once and print its output",
		Flags:   flags,
		Action: func(ctx context.Context, command *cli.Command) error {
			logger := log.WithModule("execute")

			definition, err := loadNode(command)
			if err != nil {
				return err
			}

			config := definition.Config

			if command.IsSet("authentication") {
				config["authentication"] = command.String("authentication")
			}

			if creds := command.StringSlice("credential"); len(creds) > 0 {
				params, err := parseAssignments(creds)
				if err != nil {
					return err
				}

				config["credentials"] = params
			}

			if command.IsSet("timeout") {
				config["timeout"] = command.Int("timeout")
			}

			if command.IsSet("continue-on-fail") {
				config["continue_on_fail"] = command.Bool("continue-on-fail")
			}

			variables, err := parseAssignments(command.StringSlice("var"))
			if err != nil {
				return err
			}

			reg, tokens, err := newNodeRegistry(ctx, command, logger)
			if err != nil {
				return err
			}

			defer closeTokenCache(ctx, tokens, logger)

			var publisher eventbus.EventPublisher

			if provider := command.String("event-bus"); provider != "" {
				bus, err := cmd.NewEventBus(provider, kafkaBrokers(command), logger)
				if err != nil {
					return err
				}

				defer func() {
					if err := bus.Close(); err != nil {
						logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
					}
				}()

				if err := logEvents(ctx, bus); err != nil {
					return err
				}

				publisher = bus
			}

			response, err := services.NewExecution(reg, publisher, logger).Execute(ctx, &services.ExecuteRequest{
				NodeType:  definition.Type,
				NodeID:    definition.ID,
				Config:    config,
				Variables: variables,
			})
			if err != nil {
				return err
			}

			return printOutputs(command.Root().Writer, response.Outputs)
		},
	}
}

// logEvents subscribes to the bus and logs every OData request event.
func logEvents(ctx context.Context, bus eventbus.EventBus) error {
	logger := log.WithModule("events")

	handler := func(ctx context.Context, event any) error {
		switch e := event.(type) {
		case *events.ODataRequestCompleted:
			logger.InfoContext(ctx, "OData request completed", "url", e.URL, "status_code", e.StatusCode, "items", e.ItemCount)
		case *events.ODataRequestFailed:
			logger.WarnContext(ctx, "OData request failed", "url", e.URL, "error", e.Error)
		}

		return nil
	}

	for _, eventType := range []events.EventType{events.ODataRequestCompletedEvent, events.ODataRequestFailedEvent} {
		if err := bus.Handle(eventType, handler); err != nil {
			return err
		}
	}

	return bus.Subscribe(ctx)
}

// printOutputs writes the items of the success port, or the error record.
func printOutputs(w io.Writer, outputs map[string]models.NodeResult) error {
	var value any

	if result, ok := outputs[nodeodata.OutputPortSuccess]; ok {
		value = result.Data["items"]
	} else if result, ok := outputs[nodeodata.OutputPortError]; ok {
		value = result.Data
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	return encoder.Encode(value)
}

func NewNodesCommand() *cli.Command {
	return &cli.Command{
		Name:    "nodes",
		Aliases: []string{"ls"},
		Usage:   "List registered node types",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "schema",
				Usage: "Print the JSON schema of every node type",
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			reg, err := cmd.NewRegistry(ctx, log.WithModule("nodes"), command.String("plugins-path"))
			if err != nil {
				return err
			}

			w := command.Root().Writer

			for _, factory := range reg.GetAvailableNodes() {
				if command.Bool("schema") {
					schema, err := json.MarshalIndent(factory.Schema(), "", "  ")
					if err != nil {
						return err
					}

					if _, err := fmt.Fprintf(w, "%s\n%s\n", factory.ID(), schema); err != nil {
						return err
					}

					continue
				}

				if _, err := fmt.Fprintf(w, "%s\t%s\t%s\n", factory.ID(), factory.Name(), factory.Description()); err != nil {
					return err
				}
			}

			return nil
		},
	}
}

func NewServeCommand() *cli.Command {
	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start the HTTP API",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the API server on",
				Value:   defaultPort,
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus type (gochannel, kafka)",
				Value:   "gochannel",
				Sources: cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.StringFlag{
				Name:    "kafka-brokers",
				Usage:   "Comma separated Kafka brokers",
				Sources: cli.EnvVars("KAFKA_BROKERS"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			logger := log.WithModule("api")

			logger.InfoContext(ctx, "Initializing Operion OData API")

			reg, tokens, err := newNodeRegistry(ctx, command, logger)
			if err != nil {
				return err
			}

			defer closeTokenCache(ctx, tokens, logger)

			eventBus, err := cmd.NewEventBus(command.String("event-bus"), kafkaBrokers(command), logger)
			if err != nil {
				return err
			}

			defer func() {
				if err := eventBus.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			app := web.NewApp(logger, reg, eventBus)

			return app.Listen(":" + strconv.Itoa(command.Int("port")))
		},
	}
}

// newNodeRegistry builds the registry with one OAuth2 token cache shared by its OData nodes.
func newNodeRegistry(ctx context.Context, command *cli.Command, logger *slog.Logger) (*registry.Registry, *credentials.TokenCache, error) {
	tokens, err := cmd.NewTokenCache(ctx, command.String("token-cache-redis"))
	if err != nil {
		return nil, nil, err
	}

	reg, err := cmd.NewRegistry(ctx, logger, command.String("plugins-path"), nodeodata.WithTokenCache(tokens))
	if err != nil {
		closeTokenCache(ctx, tokens, logger)

		return nil, nil, err
	}

	return reg, tokens, nil
}

func closeTokenCache(ctx context.Context, tokens *credentials.TokenCache, logger *slog.Logger) {
	if err := tokens.Close(); err != nil {
		logger.ErrorContext(ctx, "Failed to close token cache", "error", err)
	}
}

func kafkaBrokers(command *cli.Command) []string {
	return kafka.ParseBrokers(command.String("kafka-brokers"))
}
