package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	swagger "github.com/gofiber/swagger"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/edgewl2/sp-store-users-management/api/http/handlers"
	"github.com/edgewl2/sp-store-users-management/api/http/middleware"
	"github.com/edgewl2/sp-store-users-management/api/http/presenter"
)

// Handlers groups every HTTP handler served by the app.
type Handlers struct {
	Users     *handlers.UserHandler
	Roles     *handlers.RoleHandler
	Addresses *handlers.AddressHandler
	Phones    *handlers.PhoneHandler
	Health    *handlers.HealthHandler
}

// NewApp builds the Fiber app with the shared middleware stack. registry may
// be nil, in which case no metrics are collected or exposed.
func NewApp(log *zap.Logger, registry *prometheus.Registry) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "users-service",
		ErrorHandler:          presenter.ErrorHandler(log),
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	if registry != nil {
		app.Use(middleware.NewMetrics(registry).Handler())
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
	}
	app.Use(middleware.Logger(log))
	return app
}

// Register wires all HTTP routes onto given Fiber app. Routes registered
// before the authenticated groups stay public. roleAdminMW guards every
// change to roles and role assignments.
func Register(app *fiber.App, h Handlers, authMW, roleAdminMW fiber.Handler) {
	app.Get("/swagger/*", swagger.HandlerDefault)

	api := app.Group("/api")
	v1 := api.Group("/v1")

	// Health and readiness endpoints for probes/monitoring
	v1.Get("/health", h.Health.Health)
	v1.Get("/ready", h.Health.Ready)

	// Registration is public
	v1.Post("/users", h.Users.Create)

	users := v1.Group("/users", authMW)
	users.Get("/", h.Users.List)
	users.Get("/username/:username", h.Users.GetByUsername)
	users.Get("/email/:email", h.Users.GetByEmail)
	users.Get("/:id", h.Users.GetByID)
	users.Put("/:id", h.Users.Update)
	users.Delete("/:id", h.Users.Delete)
	users.Put("/:id/password", h.Users.ChangePassword)

	users.Get("/:id/roles", h.Users.ListRoles)
	users.Post("/:id/roles/:roleId", roleAdminMW, h.Users.AssignRole)
	users.Delete("/:id/roles/:roleId", roleAdminMW, h.Users.RemoveRole)

	users.Get("/:id/addresses", h.Addresses.List)
	users.Post("/:id/addresses", h.Addresses.Create)
	users.Get("/:id/addresses/:addressId", h.Addresses.Get)
	users.Put("/:id/addresses/:addressId", h.Addresses.Update)
	users.Delete("/:id/addresses/:addressId", h.Addresses.Delete)

	users.Get("/:id/phones", h.Phones.List)
	users.Post("/:id/phones", h.Phones.Create)
	users.Get("/:id/phones/:phoneId", h.Phones.Get)
	users.Put("/:id/phones/:phoneId", h.Phones.Update)
	users.Delete("/:id/phones/:phoneId", h.Phones.Delete)

	roles := v1.Group("/roles", authMW)
	roles.Get("/", h.Roles.List)
	roles.Post("/", roleAdminMW, h.Roles.Create)
	roles.Get("/:id", h.Roles.GetByID)
	roles.Put("/:id", roleAdminMW, h.Roles.Update)
	roles.Delete("/:id", roleAdminMW, h.Roles.Delete)
}
