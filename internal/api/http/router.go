package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/spec-kit/asset-registry/internal/api/http/handlers"
	"github.com/spec-kit/asset-registry/internal/auth"
	"github.com/spec-kit/asset-registry/internal/domain"
	"github.com/spec-kit/asset-registry/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health  *handlers.HealthHandler
	Auth    *handlers.AuthHandler
	Users   *handlers.UsersHandler
	Items   *handlers.ItemsHandler
	Gate    *auth.AuthenticationGate
	Metrics *observability.Metrics
}

// Route binds an endpoint to its authorization policy. A nil Policy marks
// a public endpoint.
type Route struct {
	Method  string
	Path    string
	Policy  *auth.Policy
	Handler fiber.Handler
}

var (
	anyStaff       = auth.AnyRole(domain.RoleStaff, domain.RoleAdmin, domain.RoleSuperAdmin)
	adminOrAbove   = auth.AnyRole(domain.RoleAdmin, domain.RoleSuperAdmin)
	superAdminOnly = auth.AnyRole(domain.RoleSuperAdmin)
)

func policy(p auth.Policy) *auth.Policy { return &p }

// Routes is the complete endpoint table.
func Routes(cfg RouteConfig) []Route {
	return []Route{
		{fiber.MethodPost, "/auth/register", nil, cfg.Auth.Register},
		{fiber.MethodPost, "/auth/login", nil, cfg.Auth.Login},

		{fiber.MethodGet, "/users", policy(adminOrAbove), cfg.Users.List},
		{fiber.MethodGet, "/users/:id", policy(adminOrAbove), cfg.Users.Get},
		{fiber.MethodPost, "/users", policy(superAdminOnly), cfg.Users.Create},
		{fiber.MethodPut, "/users/:id", policy(superAdminOnly), cfg.Users.UpdateCredentials},
		{fiber.MethodPut, "/users/:id/role", policy(superAdminOnly.ExceptSelf()), cfg.Users.UpdateRole},
		{fiber.MethodDelete, "/users/:id", policy(superAdminOnly.ExceptSelf()), cfg.Users.Delete},

		{fiber.MethodGet, "/items", policy(adminOrAbove), cfg.Items.List},
		{fiber.MethodGet, "/items/:id", policy(anyStaff), cfg.Items.Get},
		{fiber.MethodGet, "/items/:id/qr", policy(anyStaff), cfg.Items.QRCode},
		{fiber.MethodPost, "/items", policy(anyStaff), cfg.Items.Create},
		{fiber.MethodPut, "/items/:id", policy(anyStaff), cfg.Items.Update},
		{fiber.MethodDelete, "/items/:id", policy(adminOrAbove), cfg.Items.Delete},
	}
}

// RegisterRoutes wires HTTP routes. Health and metrics routes are mounted ahead
// of the authentication gate; every other route runs behind it.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(cfg.Metrics.Handler()))
	}

	app.Use(cfg.Gate.Handle)

	for _, r := range Routes(cfg) {
		chain := []fiber.Handler{r.Handler}
		if r.Policy != nil {
			chain = []fiber.Handler{auth.Guard(*r.Policy), r.Handler}
		}
		app.Add(r.Method, r.Path, chain...)
	}
}
