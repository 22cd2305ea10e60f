package rest

import (
	"log/slog"
	"net/http"

	"github.com/frahmantamala/role-permission-api/internal/activitylog"
	"github.com/frahmantamala/role-permission-api/internal/auth"
	"github.com/frahmantamala/role-permission-api/internal/permission"
	"github.com/frahmantamala/role-permission-api/internal/role"
	"github.com/frahmantamala/role-permission-api/internal/transport/middleware"
	"github.com/frahmantamala/role-permission-api/internal/transport/swagger"
	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"
)

const APIPrefix = "/api/v1"

// Handlers groups everything the router mounts. Nil handlers leave their routes unregistered.
type Handlers struct {
	Auth        *auth.Handler
	Permission  *permission.Handler
	Role        *role.Handler
	ActivityLog *activitylog.Handler
	Health      *HealthHandler
	// OpenAPI is served as /openapi.yml when set.
	OpenAPI []byte
}

func RegisterAllRoutes(router chi.Router, h Handlers, allowedOrigins []string, logger *slog.Logger) {
	// Apply global middleware
	router.Use(middleware.CORS(allowedOrigins))
	router.Use(middleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(middleware.LoggingMiddleware(logger))
	router.Use(middleware.RecoveryMiddleware(logger))

	if h.OpenAPI != nil {
		router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/yaml")
			_, _ = w.Write(h.OpenAPI)
		})
		router.Handle("/swagger/*", swagger.Handler("/openapi.yml"))
	}

	router.Route(APIPrefix, func(r chi.Router) {
		if h.Health != nil {
			r.Get("/health", h.Health.HealthCheck)
			r.Get("/ping", h.Health.Ping)
		}

		r.Group(func(pr chi.Router) {
			pr.Use(h.Auth.AuthMiddleware)

			if h.Permission != nil {
				pr.Route("/permissions", func(sr chi.Router) {
					sr.Post("/", h.Permission.CreatePermissions)
					sr.Get("/", h.Permission.GetAllPermissions)
					sr.Delete("/", h.Permission.DeletePermissions)
					sr.Get("/{id}", h.Permission.GetPermissionByID)
					sr.Put("/{id}", h.Permission.UpdatePermission)
					sr.Delete("/{id}", h.Permission.DeletePermission)
				})
			}

			if h.Role != nil {
				pr.Route("/roles", func(sr chi.Router) {
					sr.Post("/", h.Role.CreateRoles)
					sr.Get("/", h.Role.GetAllRoles)
					sr.Get("/with-permissions", h.Role.GetRolesWithPermissions)
					sr.Get("/{id}", h.Role.GetRoleByID)
					sr.Put("/{id}", h.Role.UpdateRole)
					sr.Delete("/{id}", h.Role.DeleteRole)
					sr.Get("/{id}/permissions", h.Role.GetRoleWithPermissions)
					sr.Post("/{id}/permissions", h.Role.AssignPermissions)
					sr.Put("/{id}/permissions", h.Role.UpdateRoleWithPermissions)
					sr.Delete("/{role_id}/permissions", h.Role.DetachPermissions)
				})
			}

			if h.ActivityLog != nil {
				pr.Route("/activity-logs", func(sr chi.Router) {
					sr.Get("/", h.ActivityLog.GetAllLogs)
					sr.Get("/log-name/{log_name}", h.ActivityLog.GetLogsByLogName)
					sr.Get("/date-range", h.ActivityLog.GetLogsByDateRange)
				})
			}
		})
	})
}
