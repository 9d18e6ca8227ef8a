package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bulkgpt/processor/internal/domain"
	"github.com/bulkgpt/processor/internal/platform/logger"
	"github.com/bulkgpt/processor/internal/store"
)

// PostgresBatchStore implements the store.BatchStore interface
// using a PostgreSQL database as the storage backend.
type PostgresBatchStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresBatchStore creates a new PostgreSQL implementation of the
// BatchStore interface. It accepts a database connection or transaction
// that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresBatchStore(db store.DBTX, logger *slog.Logger) *PostgresBatchStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresBatchStore{
		db:     db,
		logger: logger.With(slog.String("component", "batch_store")),
	}
}

// Ensure PostgresBatchStore implements store.BatchStore interface
var _ store.BatchStore = (*PostgresBatchStore)(nil)

// Create implements store.BatchStore.Create
// It saves a new batch to the database, handling domain validation.
// Returns store.ErrBatchExists if the caller-supplied ID is taken.
func (s *PostgresBatchStore) Create(ctx context.Context, batch *domain.Batch) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := batch.Validate(); err != nil {
		log.Warn("batch validation failed during create",
			slog.String("error", err.Error()),
			slog.String("batch_id", batch.ID))
		return err
	}

	query := `
		INSERT INTO batches (id, status, processed_rows, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		batch.ID,
		batch.Status,
		batch.ProcessedRows,
		batch.CreatedAt,
		batch.UpdatedAt,
	)

	if err != nil {
		if IsUniqueViolation(err) {
			log.Warn("duplicate batch ID during create",
				slog.String("batch_id", batch.ID))
			return fmt.Errorf("%w: %s", store.ErrBatchExists, batch.ID)
		}

		log.Error("failed to create batch",
			slog.String("error", err.Error()),
			slog.String("batch_id", batch.ID))
		return MapError(err)
	}

	log.Info("batch created",
		slog.String("batch_id", batch.ID),
		slog.String("status", string(batch.Status)))
	return nil
}

// GetByID implements store.BatchStore.GetByID
// Returns store.ErrBatchNotFound if the batch does not exist.
func (s *PostgresBatchStore) GetByID(ctx context.Context, id string) (*domain.Batch, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, status, processed_rows, created_at, updated_at
		FROM batches
		WHERE id = $1
	`

	var batch domain.Batch
	var status string

	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&batch.ID,
		&status,
		&batch.ProcessedRows,
		&batch.CreatedAt,
		&batch.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("batch not found", slog.String("batch_id", id))
			return nil, store.ErrBatchNotFound
		}

		log.Error("failed to get batch",
			slog.String("error", err.Error()),
			slog.String("batch_id", id))
		return nil, MapError(err)
	}

	batch.Status = domain.BatchStatus(status)
	return &batch, nil
}

// UpdateStatus implements store.BatchStore.UpdateStatus
// Returns store.ErrBatchNotFound if the batch does not exist.
func (s *PostgresBatchStore) UpdateStatus(ctx context.Context, id string, status domain.BatchStatus) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE batches
		SET status = $1, updated_at = $2
		WHERE id = $3
	`

	result, err := s.db.ExecContext(ctx, query, status, time.Now().UTC(), id)
	if err != nil {
		log.Error("failed to update batch status",
			slog.String("error", err.Error()),
			slog.String("batch_id", id),
			slog.String("status", string(status)))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "batch"); err != nil {
		return fmt.Errorf("%w: %s", store.ErrBatchNotFound, id)
	}

	log.Debug("batch status updated",
		slog.String("batch_id", id),
		slog.String("status", string(status)))
	return nil
}

// Finalize implements store.BatchStore.Finalize
// It records the terminal status and successful-row count in one
// keyed update. Returns store.ErrBatchNotFound if the batch does not exist.
func (s *PostgresBatchStore) Finalize(ctx context.Context, id string, status domain.BatchStatus, processedRows int) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE batches
		SET status = $1, processed_rows = $2, updated_at = $3
		WHERE id = $4
	`

	result, err := s.db.ExecContext(ctx, query, status, processedRows, time.Now().UTC(), id)
	if err != nil {
		log.Error("failed to finalize batch",
			slog.String("error", err.Error()),
			slog.String("batch_id", id),
			slog.String("status", string(status)))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "batch"); err != nil {
		return fmt.Errorf("%w: %s", store.ErrBatchNotFound, id)
	}

	log.Info("batch finalized",
		slog.String("batch_id", id),
		slog.String("status", string(status)),
		slog.Int("processed_rows", processedRows))
	return nil
}

// WithTx implements store.BatchStore.WithTx
// It returns a new BatchStore that uses the provided transaction.
func (s *PostgresBatchStore) WithTx(tx *sql.Tx) store.BatchStore {
	return &PostgresBatchStore{
		db:     tx,
		logger: s.logger,
	}
}
