package web

import (
	"log/slog"

	"github.com/dukex/operion-odata/pkg/eventbus"
	"github.com/dukex/operion-odata/pkg/registry"
	"github.com/dukex/operion-odata/pkg/services"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
)

// NewApp builds the fiber application. eventBus may be nil.
func NewApp(log *slog.Logger, reg *registry.Registry, eventBus eventbus.EventBus) *fiber.App {
	var publisher eventbus.EventPublisher
	if eventBus != nil {
		publisher = eventBus
	}

	handlers := NewAPIHandlers(
		services.NewExecution(reg, publisher, log),
		validator.New(validator.WithRequiredStructEnabled()),
		reg,
	)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Operion OData")
	})

	app.Get("/health", handlers.HealthCheck)

	n := app.Group("/nodes")
	n.Get("/", handlers.GetNodes)
	n.Get("/:id/schema", handlers.GetNodeSchema)
	n.Post("/:id/execute", handlers.ExecuteNode)

	app.Post("/odata/resolve", handlers.ResolveRequest)

	return app
}
