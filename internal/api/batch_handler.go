package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/bulkgpt/processor/internal/api/shared"
	"github.com/bulkgpt/processor/internal/batch"
	"github.com/bulkgpt/processor/internal/domain"
	"github.com/bulkgpt/processor/internal/platform/logger"
	"github.com/bulkgpt/processor/internal/prompt"
	"github.com/bulkgpt/processor/internal/store"
	"github.com/bulkgpt/processor/internal/task"
)

// TaskSubmitter enqueues background tasks for asynchronous execution.
type TaskSubmitter interface {
	Submit(ctx context.Context, t task.Task) error
}

// BatchHandler handles batch-related HTTP requests
type BatchHandler struct {
	batches      store.BatchStore
	results      store.ResultStore
	orchestrator *batch.Orchestrator
	submitter    TaskSubmitter
}

// NewBatchHandler creates a new BatchHandler
func NewBatchHandler(
	batches store.BatchStore,
	results store.ResultStore,
	orchestrator *batch.Orchestrator,
	submitter TaskSubmitter,
) *BatchHandler {
	return &BatchHandler{
		batches:      batches,
		results:      results,
		orchestrator: orchestrator,
		submitter:    submitter,
	}
}

// SubmitBatch handles POST /api/batches requests. It records the batch
// in the pending state, enqueues a background task that will process
// every row, and returns 202 Accepted immediately.
func (h *BatchHandler) SubmitBatch(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	var req SubmitBatchRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := shared.ValidateRequest(&req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	newBatch, err := domain.NewBatch(req.BatchID)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid batch: "+err.Error())
		return
	}

	if err := h.batches.Create(r.Context(), newBatch); err != nil {
		if store.IsDuplicateError(err) {
			shared.RespondWithError(w, r, http.StatusConflict,
				"A batch with this ID already exists")
			return
		}
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
			"Failed to create batch", err)
		return
	}

	rows := make([]domain.Row, len(req.Rows))
	for i, row := range req.Rows {
		rows[i] = domain.Row(row)
	}

	batchTask, err := batch.NewBatchTask(batch.Request{
		BatchID: req.BatchID,
		Rows:    rows,
		Spec: prompt.Spec{
			Template:     req.Prompt,
			Context:      req.Context,
			OutputSchema: req.OutputSchema,
		},
	}, h.orchestrator, log)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
			"Failed to prepare batch task", err)
		return
	}

	if err := h.submitter.Submit(r.Context(), batchTask); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusTooManyRequests,
			"Processing queue is full, try again later", err)
		return
	}

	log.Info("batch accepted",
		"batch_id", req.BatchID,
		"total_rows", len(req.Rows),
		"task_id", batchTask.ID())

	shared.RespondWithJSON(w, r, http.StatusAccepted, SubmitBatchResponse{
		BatchID:   newBatch.ID,
		Status:    string(newBatch.Status),
		TotalRows: len(req.Rows),
		CreatedAt: newBatch.CreatedAt,
	})
}

// GetBatch handles GET /api/batches/{id} requests
func (h *BatchHandler) GetBatch(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Batch ID is required")
		return
	}

	b, err := h.batches.GetByID(r.Context(), id)
	if err != nil {
		if store.IsNotFoundError(err) {
			shared.RespondWithError(w, r, http.StatusNotFound, "Batch not found")
			return
		}
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
			"Failed to retrieve batch", err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, batchToDTOResponse(b))
}

// GetBatchSummary handles GET /api/batches/{id}/summary requests. The
// aggregate is rebuilt from the stored records, so it reflects whatever
// rows have been persisted so far even while the batch is still
// running: a non-terminal batch is served with its current lifecycle
// status rather than rejected, and the timing figures span from batch
// creation to the last record update, so they include any queue wait
// before processing started.
func (h *BatchHandler) GetBatchSummary(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Batch ID is required")
		return
	}

	b, err := h.batches.GetByID(r.Context(), id)
	if err != nil {
		if store.IsNotFoundError(err) {
			shared.RespondWithError(w, r, http.StatusNotFound, "Batch not found")
			return
		}
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
			"Failed to retrieve batch", err)
		return
	}

	records, err := h.results.FindByBatchID(r.Context(), id)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
			"Failed to retrieve batch results", err)
		return
	}

	successful := 0
	failed := 0
	results := make([]RowResultResponse, len(records))
	for i, record := range records {
		if record.Status == domain.ResultStatusSuccess {
			successful++
		} else {
			failed++
		}
		results[i] = resultToDTOResponse(record)
	}

	processingTime := b.UpdatedAt.Sub(b.CreatedAt)
	if processingTime < 0 {
		processingTime = 0
	}

	var avgPerRow float64
	if len(records) > 0 {
		avgPerRow = roundSeconds(processingTime/time.Duration(len(records)), 3)
	}

	shared.RespondWithJSON(w, r, http.StatusOK, BatchSummaryResponse{
		BatchID:               b.ID,
		TotalRows:             len(records),
		Successful:            successful,
		Failed:                failed,
		ProcessingTimeSeconds: roundSeconds(processingTime, 2),
		AvgTimePerRow:         avgPerRow,
		Status:                string(b.Status),
		Results:               results,
	})
}
