package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/bulkgpt/processor/internal/domain"
	"github.com/bulkgpt/processor/internal/store"
)

// failingDBTX returns a fixed error from every write.
type failingDBTX struct {
	err error
}

func (f *failingDBTX) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return nil, f.err
}

func (f *failingDBTX) PrepareContext(ctx context.Context, query string) (*sql.Stmt, error) {
	return nil, f.err
}

func (f *failingDBTX) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return nil, f.err
}

func (f *failingDBTX) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return nil
}

func testRecord() *domain.ResultRecord {
	return &domain.ResultRecord{
		ID:        "b1-row-0",
		BatchID:   "b1",
		RowIndex:  0,
		Input:     `{"value":"v0"}`,
		Output:    "out",
		Status:    domain.ResultStatusSuccess,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
}

func TestUpsertMapsForeignKeyViolationToBatchNotFound(t *testing.T) {
	t.Parallel()

	db := &failingDBTX{err: &pgconn.PgError{Code: foreignKeyViolationCode, ConstraintName: "batch_results_batch_id_fkey"}}
	s := NewPostgresResultStore(db, nil)

	err := s.Upsert(context.Background(), testRecord())
	assert.ErrorIs(t, err, store.ErrBatchNotFound)
}

func TestUpsertMapsOtherErrors(t *testing.T) {
	t.Parallel()

	db := &failingDBTX{err: &pgconn.PgError{Code: checkViolationCode, ConstraintName: "batch_results_status_check"}}
	s := NewPostgresResultStore(db, nil)

	err := s.Upsert(context.Background(), testRecord())
	assert.ErrorIs(t, err, store.ErrInvalidEntity)
}
