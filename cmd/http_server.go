package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/frahmantamala/role-permission-api/api"
	"github.com/frahmantamala/role-permission-api/internal"
	"github.com/frahmantamala/role-permission-api/internal/activitylog"
	activityPostgres "github.com/frahmantamala/role-permission-api/internal/activitylog/postgres"
	"github.com/frahmantamala/role-permission-api/internal/auth"
	"github.com/frahmantamala/role-permission-api/internal/core/events"
	"github.com/frahmantamala/role-permission-api/internal/permission"
	permissionPostgres "github.com/frahmantamala/role-permission-api/internal/permission/postgres"
	"github.com/frahmantamala/role-permission-api/internal/role"
	rolePostgres "github.com/frahmantamala/role-permission-api/internal/role/postgres"
	"github.com/frahmantamala/role-permission-api/internal/transport"
	"github.com/frahmantamala/role-permission-api/internal/transport/rest"
	"github.com/frahmantamala/role-permission-api/pkg/logger"

	"github.com/go-chi/chi"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config   *internal.Config
	DB       *sqlx.DB
	Gorm     *gorm.DB
	Router   *chi.Mux
	Activity *activitylog.Service
	Logger   *slog.Logger
}

// Services are the domain services shared by the server and the seed command.
type Services struct {
	Permission *permission.Service
	Role       *role.Service
	Activity   *activitylog.Service
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("Starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:              addr,
		Handler:           deps.Router,
		ReadHeaderTimeout: deps.Config.Server.ReadHeaderTimeout,
		ReadTimeout:       deps.Config.Server.ReadTimeout,
		WriteTimeout:      deps.Config.Server.WriteTimeout,
		IdleTimeout:       deps.Config.Server.IdleTimeout,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("Received signal, shutting down...", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("Server shutdown error", "error", err)
		}
		deps.Activity.Flush()
		if err := deps.DB.Close(); err != nil {
			deps.Logger.Error("Database close error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			deps.Logger.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}

	deps.Logger.Info("Server stopped")
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	lg := logger.Init(config.Observability.Logging.Level, config.Observability.Logging.Format)

	doc, err := api.Load(context.Background())
	if err != nil {
		return nil, err
	}
	lg.Debug("openapi document loaded", "title", doc.Info.Title, "paths", doc.Paths.Len())

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	gdb, err := initGorm(db, config.Observability.Logging.Level == "debug")
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	services := newServices(config, gdb, lg)
	base := transport.NewBaseHandler(lg)
	tokens := auth.NewJWTTokenGenerator(config.Security.JWTSecret, config.Security.JWTIssuer, config.Security.AccessTokenDuration)

	router := chi.NewRouter()
	rest.RegisterAllRoutes(router, rest.Handlers{
		Auth:        auth.NewHandler(base, tokens),
		Permission:  permission.NewHandler(base, services.Permission, services.Activity),
		Role:        role.NewHandler(base, services.Role, services.Activity),
		ActivityLog: activitylog.NewHandler(base, services.Activity),
		Health:      rest.NewHealthHandler(base, db),
		OpenAPI:     api.Document,
	}, config.Server.Origins(), lg)

	return &Dependencies{
		Config:   config,
		DB:       db,
		Gorm:     gdb,
		Router:   router,
		Activity: services.Activity,
		Logger:   lg,
	}, nil
}

func newServices(config *internal.Config, gdb *gorm.DB, lg *slog.Logger) *Services {
	bus := events.NewEventBus(lg)
	permissionRepo := permissionPostgres.NewPermissionRepository(gdb)
	guard := config.RBAC.GuardName()

	return &Services{
		Permission: permission.NewService(permissionRepo, guard, lg),
		Role:       role.NewService(rolePostgres.NewRoleRepository(gdb), permissionRepo, guard, lg),
		Activity:   activitylog.NewService(activityPostgres.NewActivityLogRepository(gdb), bus, config.Audit.Async, lg),
	}
}
