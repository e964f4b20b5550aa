package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/phrazzld/taskflow-api/internal/config"
	"github.com/phrazzld/taskflow-api/internal/events"
	"github.com/phrazzld/taskflow-api/internal/platform/postgres"
	"github.com/phrazzld/taskflow-api/internal/service"
	"github.com/phrazzld/taskflow-api/internal/service/auth"
	"github.com/phrazzld/taskflow-api/internal/store"
)

// application holds the shared dependencies and owns their shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	taskStore  store.TaskStore
	auditStore store.AuditStore

	jwtService       auth.JWTService
	auditDispatcher  *events.AuditDispatcher
	lifecycleService service.TaskLifecycleService
}

// newApplication wires stores, the audit pipeline and the lifecycle service
// on top of an open database connection.
func newApplication(cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	var err error
	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}

	app.taskStore = postgres.NewPostgresTaskStore(db, logger)
	app.auditStore = postgres.NewPostgresAuditStore(db, logger)

	emitter := events.NewInMemoryAuditEmitter(logger)
	emitter.RegisterHandler(events.NewStoreHandler(app.auditStore))
	emitter.RegisterHandler(events.NewLogHandler(logger))

	app.auditDispatcher = events.NewAuditDispatcher(emitter, events.AuditDispatcherConfig{
		QueueSize:       cfg.Task.AuditQueueSize,
		WorkerCount:     cfg.Task.AuditWorkers,
		DeliveryTimeout: cfg.Task.WriteTimeout,
	}, logger)
	if err := app.auditDispatcher.Start(); err != nil {
		return nil, fmt.Errorf("failed to start audit dispatcher: %w", err)
	}

	guard, err := service.NewTransitionGuard(app.taskStore, app.auditDispatcher, cfg.Task.WriteTimeout, logger)
	if err != nil {
		app.stopDispatcher(context.Background())
		return nil, fmt.Errorf("failed to create transition guard: %w", err)
	}

	app.lifecycleService, err = service.NewTaskLifecycleService(app.taskStore, app.auditStore, guard, service.LifecycleConfig{
		WriteTimeout: cfg.Task.WriteTimeout,
		BatchWorkers: cfg.Task.BatchWorkers,
		BatchMaxSize: cfg.Task.BatchMaxSize,
	}, logger)
	if err != nil {
		app.stopDispatcher(context.Background())
		return nil, fmt.Errorf("failed to create task lifecycle service: %w", err)
	}

	logger.Info("application initialized",
		slog.Int("batch_workers", cfg.Task.BatchWorkers),
		slog.Int("audit_workers", cfg.Task.AuditWorkers),
		slog.Bool("generic_status_endpoint", cfg.Task.EnableGenericStatusEndpoint))
	return app, nil
}

// Run serves HTTP until ctx is canceled, then shuts down.
func (app *application) Run(ctx context.Context) error {
	router := newRouter(routerDeps{
		lifecycle:             app.lifecycleService,
		jwtService:            app.jwtService,
		logger:                app.logger,
		enableGenericEndpoint: app.config.Task.EnableGenericStatusEndpoint,
		db:                    app.db,
	})

	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

func (app *application) stopDispatcher(ctx context.Context) {
	if app.auditDispatcher == nil {
		return
	}
	if err := app.auditDispatcher.Stop(ctx); err != nil {
		app.logger.Error("audit dispatcher did not drain", slog.String("error", err.Error()))
	}
}

// cleanup releases resources in dependency order: no new batch work, then
// drain pending audit events, then close the database.
func (app *application) cleanup(ctx context.Context) {
	if app.lifecycleService != nil {
		app.lifecycleService.Close()
	}

	app.stopDispatcher(ctx)

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database connection", slog.String("error", err.Error()))
		}
	}

	app.logger.Info("application shutdown completed")
}
