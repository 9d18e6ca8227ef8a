package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/bulkgpt/processor/internal/batch"
	"github.com/bulkgpt/processor/internal/config"
	"github.com/bulkgpt/processor/internal/generation"
	"github.com/bulkgpt/processor/internal/platform/gemini"
	"github.com/bulkgpt/processor/internal/platform/postgres"
	"github.com/bulkgpt/processor/internal/store"
	"github.com/bulkgpt/processor/internal/task"
)

// serviceName and serviceVersion identify the binary in the health
// endpoint payload.
const (
	serviceName    = "bulkgpt-processor"
	serviceVersion = "1.0.0"
)

// application holds all the shared application dependencies to simplify
// management and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	batchStore  store.BatchStore
	resultStore store.ResultStore

	generator    generation.Generator
	processor    batch.Processor
	orchestrator *batch.Orchestrator

	taskRunner *task.TaskRunner
}

// newApplication creates a new application instance with all dependencies
// initialized. It accepts core dependencies like configuration, logger,
// and database connection that must be established before application
// initialization.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	app.batchStore = postgres.NewPostgresBatchStore(db, logger)
	app.resultStore = postgres.NewPostgresResultStore(db, logger)

	var err error
	app.generator, err = gemini.NewGeminiGenerator(
		ctx,
		logger.With("component", "llm_generator"),
		cfg.LLM,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize LLM generator: %w", err)
	}
	logger.Info("LLM generator initialized", "model", cfg.LLM.ModelName)

	app.processor, err = batch.NewRowProcessor(app.generator, app.resultStore, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create row processor: %w", err)
	}

	app.orchestrator, err = batch.NewOrchestrator(
		app.processor,
		app.batchStore,
		batch.OrchestratorConfig{
			MaxConcurrentRows: cfg.Processing.MaxConcurrentRows,
			DispatchDelay:     time.Duration(cfg.Processing.DispatchDelayMs) * time.Millisecond,
			RowTimeout:        time.Duration(cfg.Processing.RowTimeoutSeconds) * time.Second,
			BatchTimeout:      time.Duration(cfg.Processing.BatchTimeoutSeconds) * time.Second,
		},
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create orchestrator: %w", err)
	}

	app.taskRunner = task.NewTaskRunner(task.TaskRunnerConfig{
		WorkerCount: cfg.Processing.WorkerCount,
		QueueSize:   cfg.Processing.QueueSize,
	}, logger)

	if err := app.taskRunner.Start(); err != nil {
		return nil, fmt.Errorf("failed to start task runner: %w", err)
	}

	logger.Info("application initialized",
		"workers", cfg.Processing.WorkerCount,
		"queue_size", cfg.Processing.QueueSize)
	return app, nil
}

// Run starts the application server, handling lifecycle and cleanup.
// It returns an error if the server fails to start or encounters problems.
func (app *application) Run(ctx context.Context) error {
	router := app.setupRouter()

	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	if app.taskRunner != nil {
		app.taskRunner.Stop()
	}

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database connection", "error", err)
		}
	}

	app.logger.Info("application shutdown completed")
}
