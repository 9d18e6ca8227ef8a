package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/bulkgpt/processor/internal/api"
	apiMiddleware "github.com/bulkgpt/processor/internal/api/middleware"
	"github.com/bulkgpt/processor/internal/api/shared"
)

// setupRouter creates and configures the application router with all
// routes and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.TraceMiddleware)

	batchHandler := api.NewBatchHandler(
		app.batchStore,
		app.resultStore,
		app.orchestrator,
		app.taskRunner,
	)

	r.Route("/api", func(r chi.Router) {
		r.Post("/batches", batchHandler.SubmitBatch)
		r.Get("/batches/{id}", batchHandler.GetBatch)
		r.Get("/batches/{id}/summary", batchHandler.GetBatchSummary)
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		shared.RespondWithJSON(w, r, http.StatusOK, map[string]string{
			"status":  "healthy",
			"service": serviceName,
			"version": serviceVersion,
		})
	})

	return r
}
