package batch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bulkgpt/processor/internal/domain"
	"github.com/bulkgpt/processor/internal/generation"
	"github.com/bulkgpt/processor/internal/prompt"
	"github.com/bulkgpt/processor/internal/redact"
	"github.com/bulkgpt/processor/internal/store"
)

// Common errors
var (
	ErrNilGenerator   = errors.New("generator cannot be nil")
	ErrNilResultStore = errors.New("result store cannot be nil")
	ErrNilBatchStore  = errors.New("batch store cannot be nil")
	ErrNilLogger      = errors.New("logger cannot be nil")
)

// RowInput carries everything needed to process one row to completion.
type RowInput struct {
	// BatchID is the identifier of the batch the row belongs to.
	BatchID string

	// Row is the original column to value mapping.
	Row domain.Row

	// Index is the row's ordinal position in the batch input sequence.
	Index int

	// Spec is the shared templating input for the batch.
	Spec prompt.Spec
}

// Processor processes a single row to a terminal result. Implementations
// must be safe for concurrent use: the orchestrator invokes Process from
// many goroutines at once.
type Processor interface {
	Process(ctx context.Context, in RowInput) domain.RowResult
}

// RowProcessor implements Processor against the real generation service
// and result store. One external call and one persistence write per row,
// no retries at either.
type RowProcessor struct {
	generator generation.Generator
	results   store.ResultStore
	logger    *slog.Logger
}

// NewRowProcessor creates a RowProcessor. All dependencies are required.
func NewRowProcessor(
	generator generation.Generator,
	results store.ResultStore,
	logger *slog.Logger,
) (*RowProcessor, error) {
	if generator == nil {
		return nil, ErrNilGenerator
	}
	if results == nil {
		return nil, ErrNilResultStore
	}
	if logger == nil {
		return nil, ErrNilLogger
	}

	return &RowProcessor{
		generator: generator,
		results:   results,
		logger:    logger,
	}, nil
}

// Process runs one row to completion, isolated from all other rows.
// It always returns a terminal result: any failure inside the row
// boundary, including a panic, becomes an error-status result for this
// row alone and never propagates to the caller.
func (p *RowProcessor) Process(ctx context.Context, in RowInput) (result domain.RowResult) {
	rowID := domain.ResolveRowID(in.BatchID, in.Row, in.Index)
	logger := p.logger.With(
		slog.String("batch_id", in.BatchID),
		slog.String("row_id", rowID),
		slog.Int("row_index", in.Index),
	)

	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("unexpected failure while processing row", "panic", rec)
			result = domain.RowResult{
				ID:       rowID,
				RowIndex: in.Index,
				Status:   domain.ResultStatusError,
				Error:    fmt.Sprintf("unexpected failure: %v", rec),
			}
			p.persist(ctx, logger, in, result)
		}
	}()

	compiled := prompt.Compile(in.Row, in.Spec)

	output, err := p.generator.GenerateText(ctx, compiled)
	if err != nil {
		logger.Error("generation failed for row", "error", redact.Error(err))
		result = domain.RowResult{
			ID:       rowID,
			RowIndex: in.Index,
			Status:   domain.ResultStatusError,
			Error:    redact.Error(err),
		}
	} else {
		result = domain.RowResult{
			ID:       rowID,
			RowIndex: in.Index,
			Output:   output,
			Status:   domain.ResultStatusSuccess,
		}
	}

	p.persist(ctx, logger, in, result)
	return result
}

// persist writes the result record. Persistence failure is logged and
// swallowed: it changes neither the row's classified status nor the
// in-memory result returned to the orchestrator.
func (p *RowProcessor) persist(ctx context.Context, logger *slog.Logger, in RowInput, result domain.RowResult) {
	record := &domain.ResultRecord{
		ID:           result.ID,
		BatchID:      in.BatchID,
		RowIndex:     in.Index,
		Input:        serializeRow(in.Row),
		Output:       result.Output,
		Status:       result.Status,
		ErrorMessage: result.Error,
		CreatedAt:    time.Now().UTC(),
		UpdatedAt:    time.Now().UTC(),
	}

	if err := p.results.Upsert(ctx, record); err != nil {
		logger.Warn("could not persist row result",
			"error", redact.Error(err),
			"status", string(result.Status))
	}
}

// serializeRow renders the original row input for the result record.
// A row that somehow fails to marshal is stored as an empty object
// rather than failing the write.
func serializeRow(row domain.Row) string {
	data, err := json.Marshal(row)
	if err != nil {
		return "{}"
	}
	return string(data)
}
