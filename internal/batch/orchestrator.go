package batch

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/bulkgpt/processor/internal/domain"
	"github.com/bulkgpt/processor/internal/prompt"
	"github.com/bulkgpt/processor/internal/redact"
	"github.com/bulkgpt/processor/internal/store"
)

// progressLogInterval is how many completed rows pass between progress
// log entries on large batches.
const progressLogInterval = 100

// ErrEmptyBatchID is returned when a run is requested without a batch identifier.
var ErrEmptyBatchID = errors.New("batch ID cannot be empty")

// Request describes one batch to drive from submission to terminal state.
type Request struct {
	// BatchID is the caller-supplied unique identifier.
	BatchID string

	// Rows is the ordered input sequence.
	Rows []domain.Row

	// Spec carries the prompt template, context, and output schema hint.
	Spec prompt.Spec
}

// OrchestratorConfig holds the fan-out and timeout settings for batch runs.
type OrchestratorConfig struct {
	// MaxConcurrentRows bounds how many rows are processed at once.
	MaxConcurrentRows int

	// DispatchDelay is an optional fixed pause between successive row
	// dispatches, a rate-limiting courtesy to the generation service.
	// Zero disables it.
	DispatchDelay time.Duration

	// RowTimeout bounds one row: one generation call and one store write.
	RowTimeout time.Duration

	// BatchTimeout bounds the whole run, sized to cover a fully
	// sequential fallback.
	BatchTimeout time.Duration
}

// DefaultOrchestratorConfig returns an OrchestratorConfig with the
// standing defaults: modest parallelism, no dispatch delay, one hour
// per row, one day per batch.
func DefaultOrchestratorConfig() OrchestratorConfig {
	return OrchestratorConfig{
		MaxConcurrentRows: 4,
		DispatchDelay:     0,
		RowTimeout:        time.Hour,
		BatchTimeout:      24 * time.Hour,
	}
}

// Orchestrator drives a batch from submission to terminal state: it
// fans out one Processor invocation per row, collects the outcomes in
// input order, aggregates the statistics, and transitions the batch's
// lifecycle state in the store.
//
// Its failure philosophy is isolate and record, never abort: a failing
// row degrades the batch's counters, never its ability to finish. Store
// writes for lifecycle transitions are best effort.
type Orchestrator struct {
	processor Processor
	batches   store.BatchStore
	config    OrchestratorConfig
	logger    *slog.Logger
}

// NewOrchestrator creates an Orchestrator. All dependencies are
// required; invalid config values fall back to defaults.
func NewOrchestrator(
	processor Processor,
	batches store.BatchStore,
	config OrchestratorConfig,
	logger *slog.Logger,
) (*Orchestrator, error) {
	if processor == nil {
		return nil, errors.New("processor cannot be nil")
	}
	if batches == nil {
		return nil, ErrNilBatchStore
	}
	if logger == nil {
		return nil, ErrNilLogger
	}

	defaults := DefaultOrchestratorConfig()
	if config.MaxConcurrentRows <= 0 {
		config.MaxConcurrentRows = defaults.MaxConcurrentRows
	}
	if config.RowTimeout <= 0 {
		config.RowTimeout = defaults.RowTimeout
	}
	if config.BatchTimeout <= 0 {
		config.BatchTimeout = defaults.BatchTimeout
	}

	return &Orchestrator{
		processor: processor,
		batches:   batches,
		config:    config,
		logger:    logger,
	}, nil
}

// Run processes the batch to its terminal state and returns the
// summary. The returned error is reserved for dispatch-level failures
// (an unusable request); row failures are reported through the summary
// counters, never as an error.
func (o *Orchestrator) Run(ctx context.Context, req Request) (*domain.BatchSummary, error) {
	if req.BatchID == "" {
		return nil, ErrEmptyBatchID
	}

	logger := o.logger.With(slog.String("batch_id", req.BatchID))
	logger.Info("starting batch processing", slog.Int("total_rows", len(req.Rows)))

	ctx, cancel := context.WithTimeout(ctx, o.config.BatchTimeout)
	defer cancel()

	// Mark the batch as processing. Best effort: a failed write is
	// logged and processing proceeds regardless.
	if err := o.batches.UpdateStatus(ctx, req.BatchID, domain.BatchStatusProcessing); err != nil {
		logger.Warn("could not mark batch as processing", "error", redact.Error(err))
	}

	start := time.Now()
	results := make([]domain.RowResult, len(req.Rows))

	var completed atomic.Int64

	g := new(errgroup.Group)
	g.SetLimit(o.config.MaxConcurrentRows)

	for i, row := range req.Rows {
		if o.config.DispatchDelay > 0 && i > 0 {
			time.Sleep(o.config.DispatchDelay)
		}

		i, row := i, row
		g.Go(func() error {
			rowCtx, rowCancel := context.WithTimeout(ctx, o.config.RowTimeout)
			defer rowCancel()

			// Process never returns an error: failures are captured in
			// the row result so no row can abort the group.
			results[i] = o.processor.Process(rowCtx, RowInput{
				BatchID: req.BatchID,
				Row:     row,
				Index:   i,
				Spec:    req.Spec,
			})

			if n := completed.Add(1); n%progressLogInterval == 0 {
				elapsed := time.Since(start)
				rate := float64(n) / elapsed.Seconds()
				remaining := 0.0
				if rate > 0 {
					remaining = float64(len(req.Rows)-int(n)) / rate
				}
				logger.Info("batch progress",
					slog.Int64("processed", n),
					slog.Int("total", len(req.Rows)),
					slog.Float64("rows_per_second", rate),
					slog.Float64("estimated_seconds_remaining", remaining))
			}
			return nil
		})
	}

	// Wait blocks until every row has reached a terminal state. The
	// group never carries an error; the call exists for the fan-in.
	_ = g.Wait()

	elapsed := time.Since(start)

	successful := 0
	failed := 0
	for _, r := range results {
		if r.Status == domain.ResultStatusSuccess {
			successful++
		} else {
			failed++
		}
	}

	var avgPerRow time.Duration
	if len(req.Rows) > 0 {
		avgPerRow = elapsed / time.Duration(len(req.Rows))
	}

	status := domain.TerminalBatchStatus(failed)

	// Final lifecycle write is best effort too: the caller still gets
	// the full summary even if the store is unreachable.
	if err := o.batches.Finalize(ctx, req.BatchID, status, successful); err != nil {
		logger.Warn("could not finalize batch", "error", redact.Error(err))
	}

	logger.Info("batch complete",
		slog.Int("successful", successful),
		slog.Int("failed", failed),
		slog.String("status", string(status)),
		slog.Duration("elapsed", elapsed))

	return &domain.BatchSummary{
		BatchID:        req.BatchID,
		TotalRows:      len(req.Rows),
		Successful:     successful,
		Failed:         failed,
		ProcessingTime: elapsed,
		AvgTimePerRow:  avgPerRow,
		Status:         status,
		Results:        results,
	}, nil
}
