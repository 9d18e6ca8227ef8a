package batch

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"sync"

	"github.com/bulkgpt/processor/internal/domain"
	"github.com/bulkgpt/processor/internal/store"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// mockGenerator returns canned output or errors, optionally per prompt.
type mockGenerator struct {
	mu      sync.Mutex
	fn      func(ctx context.Context, prompt string) (string, error)
	prompts []string
}

func (m *mockGenerator) GenerateText(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()
	return m.fn(ctx, prompt)
}

func (m *mockGenerator) seenPrompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.prompts))
	copy(out, m.prompts)
	return out
}

// mockResultStore records upserts in memory, keyed by row id.
type mockResultStore struct {
	mu        sync.Mutex
	records   map[string]*domain.ResultRecord
	upsertErr error
	upserts   int
}

func newMockResultStore() *mockResultStore {
	return &mockResultStore{records: make(map[string]*domain.ResultRecord)}
}

func (m *mockResultStore) Upsert(ctx context.Context, record *domain.ResultRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.upserts++
	if m.upsertErr != nil {
		return m.upsertErr
	}
	clone := *record
	m.records[record.ID] = &clone
	return nil
}

func (m *mockResultStore) GetByID(ctx context.Context, id string) (*domain.ResultRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.records[id]; ok {
		clone := *r
		return &clone, nil
	}
	return nil, store.ErrResultNotFound
}

func (m *mockResultStore) FindByBatchID(ctx context.Context, batchID string) ([]*domain.ResultRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.ResultRecord
	for _, r := range m.records {
		if r.BatchID == batchID {
			clone := *r
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (m *mockResultStore) WithTx(tx *sql.Tx) store.ResultStore { return m }

func (m *mockResultStore) record(id string) *domain.ResultRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.records[id]
}

func (m *mockResultStore) upsertCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.upserts
}

// mockBatchStore tracks lifecycle transitions in memory.
type mockBatchStore struct {
	mu            sync.Mutex
	statuses      []domain.BatchStatus
	processedRows int
	updateErr     error
	finalizeErr   error
}

func newMockBatchStore() *mockBatchStore {
	return &mockBatchStore{}
}

func (m *mockBatchStore) Create(ctx context.Context, batch *domain.Batch) error { return nil }

func (m *mockBatchStore) GetByID(ctx context.Context, id string) (*domain.Batch, error) {
	return nil, store.ErrBatchNotFound
}

func (m *mockBatchStore) UpdateStatus(ctx context.Context, id string, status domain.BatchStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return m.updateErr
	}
	m.statuses = append(m.statuses, status)
	return nil
}

func (m *mockBatchStore) Finalize(ctx context.Context, id string, status domain.BatchStatus, processedRows int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.finalizeErr != nil {
		return m.finalizeErr
	}
	m.statuses = append(m.statuses, status)
	m.processedRows = processedRows
	return nil
}

func (m *mockBatchStore) WithTx(tx *sql.Tx) store.BatchStore { return m }

func (m *mockBatchStore) recordedStatuses() []domain.BatchStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.BatchStatus, len(m.statuses))
	copy(out, m.statuses)
	return out
}

// mockProcessor lets orchestrator tests control per-row outcomes
// without the real generation/persistence plumbing.
type mockProcessor struct {
	fn func(ctx context.Context, in RowInput) domain.RowResult
}

func (m *mockProcessor) Process(ctx context.Context, in RowInput) domain.RowResult {
	return m.fn(ctx, in)
}
