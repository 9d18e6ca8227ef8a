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

// PostgresResultStore implements the store.ResultStore interface
// using a PostgreSQL database as the storage backend.
type PostgresResultStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresResultStore creates a new PostgreSQL implementation of the
// ResultStore interface. If logger is nil, a default logger will be used.
func NewPostgresResultStore(db store.DBTX, logger *slog.Logger) *PostgresResultStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresResultStore{
		db:     db,
		logger: logger.With(slog.String("component", "result_store")),
	}
}

// Ensure PostgresResultStore implements store.ResultStore interface
var _ store.ResultStore = (*PostgresResultStore)(nil)

// Upsert implements store.ResultStore.Upsert
// The write is keyed by row identifier: reprocessing the same row
// updates the existing record instead of creating a duplicate.
func (s *PostgresResultStore) Upsert(ctx context.Context, record *domain.ResultRecord) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	now := time.Now().UTC()

	query := `
		INSERT INTO batch_results (id, batch_id, row_index, input, output, status, error_message, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE
		SET output = EXCLUDED.output,
		    status = EXCLUDED.status,
		    error_message = EXCLUDED.error_message,
		    updated_at = EXCLUDED.updated_at
	`

	_, err := s.db.ExecContext(
		ctx,
		query,
		record.ID,
		record.BatchID,
		record.RowIndex,
		record.Input,
		record.Output,
		record.Status,
		nullableString(record.ErrorMessage),
		now,
		now,
	)

	if err != nil {
		// A foreign key violation means the parent batch row is gone.
		if IsForeignKeyViolation(err) {
			log.Warn("result record references missing batch",
				slog.String("result_id", record.ID),
				slog.String("batch_id", record.BatchID))
			return fmt.Errorf("%w: %s", store.ErrBatchNotFound, record.BatchID)
		}

		log.Error("failed to upsert result record",
			slog.String("error", err.Error()),
			slog.String("result_id", record.ID),
			slog.String("batch_id", record.BatchID))
		return MapError(err)
	}

	log.Debug("result record upserted",
		slog.String("result_id", record.ID),
		slog.String("batch_id", record.BatchID),
		slog.String("status", string(record.Status)))
	return nil
}

// GetByID implements store.ResultStore.GetByID
// Returns store.ErrResultNotFound if the record does not exist.
func (s *PostgresResultStore) GetByID(ctx context.Context, id string) (*domain.ResultRecord, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, batch_id, row_index, input, output, status, error_message, created_at, updated_at
		FROM batch_results
		WHERE id = $1
	`

	record, err := scanResultRecord(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("result record not found", slog.String("result_id", id))
			return nil, store.ErrResultNotFound
		}

		log.Error("failed to get result record",
			slog.String("error", err.Error()),
			slog.String("result_id", id))
		return nil, MapError(err)
	}

	return record, nil
}

// FindByBatchID implements store.ResultStore.FindByBatchID
// Records are returned ordered by row index so callers see results in
// the original input order.
func (s *PostgresResultStore) FindByBatchID(ctx context.Context, batchID string) ([]*domain.ResultRecord, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, batch_id, row_index, input, output, status, error_message, created_at, updated_at
		FROM batch_results
		WHERE batch_id = $1
		ORDER BY row_index ASC
	`

	rows, err := s.db.QueryContext(ctx, query, batchID)
	if err != nil {
		log.Error("failed to query result records",
			slog.String("error", err.Error()),
			slog.String("batch_id", batchID))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var records []*domain.ResultRecord
	for rows.Next() {
		record, err := scanResultRecord(rows)
		if err != nil {
			log.Error("failed to scan result record row",
				slog.String("error", err.Error()),
				slog.String("batch_id", batchID))
			return nil, MapError(err)
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}

	return records, nil
}

// WithTx implements store.ResultStore.WithTx
func (s *PostgresResultStore) WithTx(tx *sql.Tx) store.ResultStore {
	return &PostgresResultStore{
		db:     tx,
		logger: s.logger,
	}
}

// rowScanner abstracts *sql.Row and *sql.Rows for shared scanning.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanResultRecord(row rowScanner) (*domain.ResultRecord, error) {
	var record domain.ResultRecord
	var status string
	var errorMessage sql.NullString

	err := row.Scan(
		&record.ID,
		&record.BatchID,
		&record.RowIndex,
		&record.Input,
		&record.Output,
		&status,
		&errorMessage,
		&record.CreatedAt,
		&record.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	record.Status = domain.ResultStatus(status)
	record.ErrorMessage = errorMessage.String
	return &record, nil
}

// nullableString converts an empty string to a SQL NULL so error_message
// stays NULL for successful rows.
func nullableString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
