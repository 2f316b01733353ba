package rest

import (
	"log/slog"
	"net/http"

	"github.com/frahmantamala/assignment-tracker/api"
	"github.com/frahmantamala/assignment-tracker/internal"
	"github.com/frahmantamala/assignment-tracker/internal/assignment"
	"github.com/frahmantamala/assignment-tracker/internal/employee"
	"github.com/frahmantamala/assignment-tracker/internal/location"
	"github.com/frahmantamala/assignment-tracker/internal/metrics"
	"github.com/frahmantamala/assignment-tracker/internal/report"
	"github.com/frahmantamala/assignment-tracker/internal/transport"
	"github.com/frahmantamala/assignment-tracker/internal/transport/middleware"
	"github.com/frahmantamala/assignment-tracker/internal/transport/swagger"
	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"
	"gorm.io/gorm"
)

type Handlers struct {
	Locations   *location.Handler
	Employees   *employee.Handler
	Assignments *assignment.Handler
	Reports     *report.Handler
}

type Options struct {
	AllowedOrigins []string
	// Metrics is nil when metrics are disabled.
	Metrics     *metrics.Metrics
	MetricsPath string
}

func RegisterAllRoutes(router *chi.Mux, db *gorm.DB, handlers Handlers, opts Options, logger *slog.Logger) {
	healthHandler := NewHealthHandler(db)
	base := transport.NewBaseHandler(logger)

	// Registered before the middleware so chi does not chain it a second time.
	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		base.WriteError(w, http.StatusNotFound, internal.ErrCodeRouteNotFound, "no route for "+r.URL.Path)
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		base.WriteError(w, http.StatusMethodNotAllowed, internal.ErrCodeMethodNotAllowed, r.Method+" is not allowed on "+r.URL.Path)
	})

	// Apply global middleware
	router.Use(middleware.CORS(opts.AllowedOrigins))
	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.LoggingMiddleware(logger))
	if opts.Metrics != nil {
		router.Use(opts.Metrics.Middleware)
	}

	// Serve OpenAPI spec at root (outside API prefix)
	router.Get(swagger.SpecPath, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/yaml")
		w.Write(api.Spec)
	})
	router.Handle("/swagger/*", swagger.Handler())

	if opts.Metrics != nil {
		path := opts.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		router.Handle(path, opts.Metrics.Handler())
	}

	// Mount API under /api/v1 to match the OpenAPI server url
	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		if handlers.Locations != nil {
			r.Route("/locations", handlers.Locations.Routes)
		}

		r.Route("/employees", func(er chi.Router) {
			if handlers.Employees != nil {
				handlers.Employees.Routes(er)
			}
			if handlers.Assignments != nil {
				handlers.Assignments.EmployeeRoutes(er)
			}
		})

		if handlers.Assignments != nil {
			r.Route("/assignments", handlers.Assignments.Routes)
		}

		if handlers.Reports != nil {
			r.Route("/reports", handlers.Reports.Routes)
		}
	})
}
