package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/identity-service/internal/api/http/handlers"
	"github.com/spec-kit/identity-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health *handlers.HealthHandler
	Users  *handlers.UsersHandler
	Admin  *handlers.AdminHandler
	Filter *auth.AccessFilter
	Policy *auth.Policy
}

// RegisterRoutes wires HTTP routes. The access filter runs app-wide; its
// bypass prefixes keep the auth and health endpoints open, and the policy
// guards gate everything else per operation.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Use(cfg.Filter.Handle)

	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Users.Register)
	authGroup.Post("/login", cfg.Users.Login)
	authGroup.Post("/logout", cfg.Users.Logout)
	authGroup.Post("/password/reset/request", cfg.Users.RequestPasswordReset)
	authGroup.Post("/password/reset/confirm", cfg.Users.ConfirmPasswordReset)

	app.Get("/me", auth.Require(cfg.Policy, auth.OpProfileRead), cfg.Users.Me)
	app.Post("/password/change", auth.Require(cfg.Policy, auth.OpPasswordChange), cfg.Users.ChangePassword)

	admin := app.Group("/admin", auth.Require(cfg.Policy, auth.OpUsersManage))
	admin.Get("/users", cfg.Admin.ListUsers)
	admin.Post("/users/:id/roles", cfg.Admin.GrantRole)
	admin.Delete("/users/:id/roles", cfg.Admin.RevokeRole)
}
