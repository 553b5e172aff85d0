package http

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/spec-kit/user-service/internal/api/http/handlers"
	"github.com/spec-kit/user-service/internal/auth"
	"github.com/spec-kit/user-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Roles          *handlers.RolesHandler
	AuthMiddleware fiber.Handler
	Metrics        http.Handler
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(cfg.Metrics))
	}

	api := app.Group("/api")

	users := api.Group("/users")
	users.Post("/", cfg.Users.Create)
	users.Post("/confirm", cfg.Users.Confirm)
	users.Post("/password/recovery", cfg.Users.RequestRecovery)
	users.Post("/password/reset", cfg.Users.ResetPassword)

	manageUsers := auth.RequirePermission(domain.PermissionManageUsers)
	users.Get("/", cfg.AuthMiddleware, manageUsers, cfg.Users.List)
	users.Get("/activities", cfg.AuthMiddleware, manageUsers, cfg.Users.Activities)
	users.Put("/:id/role", cfg.AuthMiddleware, manageUsers, cfg.Users.AssignRole)

	self := auth.RequireAuthenticated()
	users.Get("/:id", cfg.AuthMiddleware, self, cfg.Users.Get)
	users.Get("/:id/activities", cfg.AuthMiddleware, self, cfg.Users.Activities)
	users.Put("/:id/profile", cfg.AuthMiddleware, self, cfg.Users.UpdateProfile)
	users.Put("/:id/password", cfg.AuthMiddleware, self, cfg.Users.ChangePassword)

	roles := api.Group("/roles", cfg.AuthMiddleware)
	roles.Get("/", self, cfg.Roles.Catalog)
	manageRoles := auth.RequirePermission(domain.PermissionManageRoles)
	roles.Get("/permissions", manageRoles, cfg.Roles.Permissions)
	roles.Get("/permissions/by-role", manageRoles, cfg.Roles.WithPermissions)
	roles.Get("/:id", self, cfg.Roles.Get)
	roles.Put("/:role/permissions", manageRoles, cfg.Roles.ReplacePermissions)
	roles.Post("/:role/permissions", manageRoles, cfg.Roles.AddPermission)
	roles.Delete("/:role/permissions/:permission", manageRoles, cfg.Roles.RemovePermission)
}
