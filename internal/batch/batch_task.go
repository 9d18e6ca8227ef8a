package batch

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/bulkgpt/processor/internal/task"
)

// Status constants for BatchTask
// These match the TaskStatus values defined in the task package.
const (
	statusPending    = "pending"
	statusProcessing = "processing"
	statusCompleted  = "completed"
	statusFailed     = "failed"
)

// BatchTask implements the task.Task interface for running one batch
// through the orchestrator in the background.
type BatchTask struct {
	id           uuid.UUID
	request      Request
	orchestrator *Orchestrator
	logger       *slog.Logger
	status       string
}

// NewBatchTask creates a new batch processing task
func NewBatchTask(
	request Request,
	orchestrator *Orchestrator,
	logger *slog.Logger,
) (*BatchTask, error) {
	if orchestrator == nil {
		return nil, fmt.Errorf("orchestrator cannot be nil")
	}
	if logger == nil {
		return nil, ErrNilLogger
	}
	if request.BatchID == "" {
		return nil, ErrEmptyBatchID
	}

	return &BatchTask{
		id:           uuid.New(),
		request:      request,
		orchestrator: orchestrator,
		logger:       logger.With("task_type", task.TaskTypeBatchProcessing, "batch_id", request.BatchID),
		status:       statusPending,
	}, nil
}

// ID returns the task's unique identifier
func (t *BatchTask) ID() uuid.UUID {
	return t.id
}

// Type returns the task type identifier
func (t *BatchTask) Type() string {
	return task.TaskTypeBatchProcessing
}

// Status returns the current task status
func (t *BatchTask) Status() task.TaskStatus {
	return task.TaskStatus(t.status)
}

// BatchID returns the identifier of the batch this task will process.
func (t *BatchTask) BatchID() string {
	return t.request.BatchID
}

// Execute runs the batch through the orchestrator. The orchestrator
// owns all row- and batch-level failure handling; an error here means
// the run could not be dispatched at all.
func (t *BatchTask) Execute(ctx context.Context) error {
	t.status = statusProcessing
	t.logger.Info("starting batch processing task")

	if err := ctx.Err(); err != nil {
		t.status = statusFailed
		t.logger.Error("task cancelled by context", "error", err)
		return fmt.Errorf("task cancelled by context: %w", err)
	}

	summary, err := t.orchestrator.Run(ctx, t.request)
	if err != nil {
		t.status = statusFailed
		t.logger.Error("batch run failed to dispatch", "error", err)
		return fmt.Errorf("batch run failed to dispatch: %w", err)
	}

	t.status = statusCompleted
	t.logger.Info("batch processing task completed",
		"successful", summary.Successful,
		"failed", summary.Failed,
		"status", string(summary.Status))
	return nil
}
