package store

import (
	"context"
	"database/sql"

	"github.com/bulkgpt/processor/internal/domain"
)

// BatchStore defines the interface for batch lifecycle persistence.
// Version: 1.0
type BatchStore interface {
	// Create saves a new batch to the store.
	// It handles domain validation internally.
	// Returns ErrBatchExists if a batch with the same ID already exists.
	Create(ctx context.Context, batch *domain.Batch) error

	// GetByID retrieves a batch by its caller-supplied ID.
	// Returns ErrBatchNotFound if the batch does not exist.
	GetByID(ctx context.Context, id string) (*domain.Batch, error)

	// UpdateStatus updates the status of an existing batch and bumps
	// its updated_at timestamp.
	// Returns ErrBatchNotFound if the batch does not exist.
	UpdateStatus(ctx context.Context, id string, status domain.BatchStatus) error

	// Finalize records the terminal status and the successful-row
	// count for a batch in a single keyed update.
	// Returns ErrBatchNotFound if the batch does not exist.
	Finalize(ctx context.Context, id string, status domain.BatchStatus, processedRows int) error

	// WithTx returns a new BatchStore instance that uses the provided transaction.
	// The transaction should be created and managed by the caller.
	WithTx(tx *sql.Tx) BatchStore
}
