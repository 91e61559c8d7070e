package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/tikets-io/tikets/internal/api/http/handlers"
	"github.com/tikets-io/tikets/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health          *handlers.HealthHandler
	Tickets         *handlers.TicketsHandler
	Auth            *handlers.AuthHandler
	Metrics         *handlers.MetricsHandler
	AdminMiddleware *auth.AdminMiddleware
	UploadsDir      string
	UploadsPrefix   string
}

// RegisterRoutes wires HTTP routes. Ticket submission, lookup and message
// append are public so clients can track their case by id; listing, state
// changes and metrics require the admin token.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	app.Post("/login", cfg.Auth.Login)

	app.Post("/tickets", cfg.Tickets.CreateTicket)
	app.Get("/tickets/:id", cfg.Tickets.GetTicket)
	app.Post("/tickets/:id/messages", cfg.Tickets.AppendMessage)

	app.Get("/tickets", cfg.AdminMiddleware.Handle, cfg.Tickets.ListTickets)
	app.Put("/tickets/:id/state", cfg.AdminMiddleware.Handle, cfg.Tickets.ChangeState)
	app.Get("/metrics", cfg.AdminMiddleware.Handle, cfg.Metrics.Snapshot)

	app.Static(cfg.UploadsPrefix, cfg.UploadsDir)
}
