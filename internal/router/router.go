// Package router wires handlers and middleware into a fiber app.
package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/intrigue/searchforms/internal/config"
	"github.com/intrigue/searchforms/internal/handlers"
	"github.com/intrigue/searchforms/internal/logging"
	"github.com/intrigue/searchforms/internal/metrics"
	"github.com/intrigue/searchforms/internal/middleware"
	"github.com/intrigue/searchforms/internal/services"
)

// Deps are the services the routes are served from.
type Deps struct {
	Forms   *services.FormService
	Search  *services.SearchService
	Metrics *metrics.Metrics
}

// Setup configures all routes and middlewares
func Setup(app *fiber.App, logger *logging.Logger, deps Deps, cfg config.Config) *handlers.Handler {
	h := handlers.New(logger, deps.Forms, deps.Search)

	// Global middlewares
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:  "*",
		AllowMethods:  "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:  "Origin,Content-Type,Accept,Authorization,X-API-Key,X-Request-ID",
		ExposeHeaders: "X-Request-ID,Location",
	}))
	app.Use(logging.FiberMiddleware(logger, logging.DefaultMiddlewareConfig()))

	// Health and metrics (no auth required)
	app.Get("/health", h.Health)
	if deps.Metrics != nil {
		app.Get("/metrics", deps.Metrics.Handler())
	}

	v1 := app.Group("/v1", middleware.APIKeyAuth(logger, cfg.Auth))

	// Search form routes
	v1.Get("/forms", h.ListForms)
	v1.Post("/forms", h.CreateForm)
	v1.Get("/forms/:id", h.GetForm)
	v1.Put("/forms/:id", h.SaveForm)
	v1.Delete("/forms/:id", h.DeleteForm)
	v1.Post("/forms/:id/search", h.SearchForm)

	// Test search routes
	v1.Post("/search", h.Search)
	v1.Post("/translate", h.Translate)
	v1.Get("/attributes", h.Attributes)

	// Visualization routes
	v1.Get("/visualizations", h.ListVisualizations)
	v1.Get("/visualizations/:id", h.GetVisualization)
	v1.Post("/visualizations/:id/load", h.LoadVisualization)

	// Schema routes
	v1.Get("/schema/graphql", h.GraphQLSchema)
	v1.Get("/schema/form", h.FormSchema)

	// 404 handler
	app.Use(h.NotFound)

	return h
}

// New creates a new Fiber app with configuration
func New(logger *logging.Logger, deps Deps, cfg config.Config) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "Search Forms",
		DisableStartupMessage: true,
		ErrorHandler:          middleware.ErrorHandler(logger),
		BodyLimit:             1 << 20,
	})

	Setup(app, logger, deps, cfg)

	return app
}
