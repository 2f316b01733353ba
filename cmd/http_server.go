package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/frahmantamala/assignment-tracker/api"
	"github.com/frahmantamala/assignment-tracker/internal"
	"github.com/frahmantamala/assignment-tracker/internal/assignment"
	assignmentStore "github.com/frahmantamala/assignment-tracker/internal/assignment/sqlstore"
	"github.com/frahmantamala/assignment-tracker/internal/core/events"
	"github.com/frahmantamala/assignment-tracker/internal/core/idgen"
	"github.com/frahmantamala/assignment-tracker/internal/employee"
	employeeStore "github.com/frahmantamala/assignment-tracker/internal/employee/sqlstore"
	"github.com/frahmantamala/assignment-tracker/internal/location"
	locationStore "github.com/frahmantamala/assignment-tracker/internal/location/sqlstore"
	"github.com/frahmantamala/assignment-tracker/internal/metrics"
	"github.com/frahmantamala/assignment-tracker/internal/report"
	"github.com/frahmantamala/assignment-tracker/internal/storage"
	"github.com/frahmantamala/assignment-tracker/internal/transport"
	"github.com/frahmantamala/assignment-tracker/internal/transport/rest"
	"github.com/frahmantamala/assignment-tracker/pkg/logger"
	"github.com/go-chi/chi"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var httpServerCmd = &cobra.Command{
	Use:     "server",
	Aliases: []string{"serve"},
	Short:   "Start HTTP server",
	Long:    `Start the HTTP server to handle API requests`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return startHTTPServer(cmd.Context())
	},
}

type Dependencies struct {
	Config   *internal.Config
	DB       *gorm.DB
	Router   *chi.Mux
	EventBus *events.EventBus
	Metrics  *metrics.Metrics
	Logger   *slog.Logger

	Locations   *location.Service
	Employees   *employee.Service
	Assignments *assignment.Service
	Reports     *report.Service
}

func startHTTPServer(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	deps, err := initializeDependencies(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}
	defer func() {
		if err := storage.Close(deps.DB); err != nil {
			deps.Logger.Error("Database close error", "error", err)
		}
	}()

	if _, err := api.Load(ctx); err != nil {
		return err
	}

	setupRoutes(deps)

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("Starting HTTP server", "address", addr, "driver", deps.Config.Database.Driver)

	server := &http.Server{
		Addr:              addr,
		Handler:           deps.Router,
		ReadHeaderTimeout: deps.Config.Server.ReadHeaderTimeout,
		ReadTimeout:       deps.Config.Server.ReadTimeout,
		WriteTimeout:      deps.Config.Server.WriteTimeout,
		IdleTimeout:       deps.Config.Server.IdleTimeout,
	}

	// Signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("Received signal, shutting down...", "signal", sig)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			deps.Logger.Error("Server shutdown error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
	}

	deps.Logger.Info("Server stopped")
	return nil
}

func setupRoutes(deps *Dependencies) {
	base := transport.NewBaseHandler(deps.Logger)

	opts := rest.Options{AllowedOrigins: deps.Config.Server.Origins()}
	if deps.Config.Observability.Metrics.Enabled {
		opts.Metrics = deps.Metrics
		opts.MetricsPath = deps.Config.Observability.Metrics.Path
	}

	rest.RegisterAllRoutes(deps.Router, deps.DB, rest.Handlers{
		Locations:   location.NewHandler(base, deps.Locations),
		Employees:   employee.NewHandler(base, deps.Employees),
		Assignments: assignment.NewHandler(base, deps.Assignments),
		Reports:     report.NewHandler(base, deps.Reports),
	}, opts, deps.Logger)
}

func initializeDependencies(ctx context.Context) (*Dependencies, error) {
	config, err := loadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	log := logger.LoggerWrapper()

	db, err := openStore(ctx, config.Database, log)
	if err != nil {
		return nil, err
	}

	deps, err := buildServices(config, db, log)
	if err != nil {
		_ = storage.Close(db)
		return nil, err
	}
	deps.Router = chi.NewRouter()
	return deps, nil
}

// buildServices wires repositories, services and event subscribers on an
// open store.
func buildServices(config *internal.Config, db *gorm.DB, log *slog.Logger) (*Dependencies, error) {
	sx, err := storage.SQLX(db)
	if err != nil {
		return nil, fmt.Errorf("failed to open report connection: %w", err)
	}

	ids := idgen.New(config.Identifiers.Strategy)
	bus := events.NewEventBus(log)
	assignment.NewEventHandler(log).RegisterEventHandlers(bus)

	m := metrics.New()
	m.RegisterEventHandlers(bus)

	return &Dependencies{
		Config:      config,
		DB:          db,
		EventBus:    bus,
		Metrics:     m,
		Logger:      log,
		Locations:   location.NewService(locationStore.NewLocationRepository(db), ids, log),
		Employees:   employee.NewService(employeeStore.NewEmployeeRepository(db), ids, log),
		Assignments: assignment.NewService(assignmentStore.NewAssignmentRepository(db), ids, bus, log),
		Reports:     report.NewService(sx, log),
	}, nil
}
