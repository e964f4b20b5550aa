package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/taskflow-api/internal/api"
	apiMiddleware "github.com/phrazzld/taskflow-api/internal/api/middleware"
	"github.com/phrazzld/taskflow-api/internal/platform/metrics"
	"github.com/phrazzld/taskflow-api/internal/service"
	"github.com/phrazzld/taskflow-api/internal/service/auth"
)

const healthCheckTimeout = 2 * time.Second

// routerDeps are the collaborators the HTTP surface needs. db is optional;
// without it /health does not check the database.
type routerDeps struct {
	lifecycle             service.TaskLifecycleService
	jwtService            auth.JWTService
	logger                *slog.Logger
	enableGenericEndpoint bool
	db                    *sql.DB
}

// newRouter builds the chi router with middleware and all routes.
func newRouter(deps routerDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(apiMiddleware.TraceMiddleware(deps.logger))
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	taskHandler := api.NewTaskHandler(deps.lifecycle, api.TaskHandlerOptions{
		EnableGenericStatusEndpoint: deps.enableGenericEndpoint,
	}, deps.logger)
	authMiddleware := apiMiddleware.NewAuthMiddleware(deps.jwtService)

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)
			taskHandler.Mount(r)
		})
	})

	r.Get("/health", healthHandler(deps.db, deps.logger))
	r.Handle("/metrics", metrics.Handler())

	return r
}

func healthHandler(db *sql.DB, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
			defer cancel()
			if err := db.PingContext(ctx); err != nil {
				logger.Error("health check failed", slog.String("error", err.Error()))
				http.Error(w, "database unavailable", http.StatusServiceUnavailable)
				return
			}
		}

		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			logger.Error("failed to write health check response", slog.String("error", err.Error()))
		}
	}
}
