package store

import (
	"context"
	"database/sql"

	"github.com/bulkgpt/processor/internal/domain"
)

// ResultStore defines the interface for per-row result persistence.
// Writes are keyed by row identifier: each row owns a disjoint key, so
// no cross-row locking or transactions are required.
// Version: 1.0
type ResultStore interface {
	// Upsert inserts or updates the result record for a row, keyed by
	// the row identifier. Reprocessing the same identifier updates the
	// existing record rather than creating a duplicate.
	Upsert(ctx context.Context, record *domain.ResultRecord) error

	// GetByID retrieves a single result record by row identifier.
	// Returns ErrResultNotFound if the record does not exist.
	GetByID(ctx context.Context, id string) (*domain.ResultRecord, error)

	// FindByBatchID retrieves all result records for a batch, ordered
	// by row index.
	FindByBatchID(ctx context.Context, batchID string) ([]*domain.ResultRecord, error)

	// WithTx returns a new ResultStore instance that uses the provided transaction.
	// The transaction should be created and managed by the caller.
	WithTx(tx *sql.Tx) ResultStore
}
