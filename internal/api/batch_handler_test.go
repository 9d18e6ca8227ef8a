package api

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bulkgpt/processor/internal/batch"
	"github.com/bulkgpt/processor/internal/domain"
	"github.com/bulkgpt/processor/internal/store"
	"github.com/bulkgpt/processor/internal/task"
)

// mockBatchStore is an in-memory store.BatchStore for handler tests.
type mockBatchStore struct {
	mu        sync.Mutex
	batches   map[string]*domain.Batch
	createErr error
	getErr    error
}

func newMockBatchStore() *mockBatchStore {
	return &mockBatchStore{batches: make(map[string]*domain.Batch)}
}

func (m *mockBatchStore) Create(ctx context.Context, b *domain.Batch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	if _, exists := m.batches[b.ID]; exists {
		return store.ErrBatchExists
	}
	copied := *b
	m.batches[b.ID] = &copied
	return nil
}

func (m *mockBatchStore) GetByID(ctx context.Context, id string) (*domain.Batch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	b, ok := m.batches[id]
	if !ok {
		return nil, store.ErrBatchNotFound
	}
	copied := *b
	return &copied, nil
}

func (m *mockBatchStore) UpdateStatus(ctx context.Context, id string, status domain.BatchStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.batches[id]
	if !ok {
		return store.ErrBatchNotFound
	}
	b.Status = status
	b.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *mockBatchStore) Finalize(ctx context.Context, id string, status domain.BatchStatus, processedRows int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.batches[id]
	if !ok {
		return store.ErrBatchNotFound
	}
	b.Status = status
	b.ProcessedRows = processedRows
	b.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *mockBatchStore) WithTx(tx *sql.Tx) store.BatchStore { return m }

// mockResultStore is an in-memory store.ResultStore for handler tests.
type mockResultStore struct {
	mu      sync.Mutex
	records map[string]*domain.ResultRecord
	findErr error
}

func newMockResultStore() *mockResultStore {
	return &mockResultStore{records: make(map[string]*domain.ResultRecord)}
}

func (m *mockResultStore) Upsert(ctx context.Context, record *domain.ResultRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *record
	m.records[record.ID] = &copied
	return nil
}

func (m *mockResultStore) GetByID(ctx context.Context, id string) (*domain.ResultRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[id]
	if !ok {
		return nil, store.ErrResultNotFound
	}
	copied := *r
	return &copied, nil
}

func (m *mockResultStore) FindByBatchID(ctx context.Context, batchID string) ([]*domain.ResultRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return nil, m.findErr
	}
	var out []*domain.ResultRecord
	for _, r := range m.records {
		if r.BatchID == batchID {
			copied := *r
			out = append(out, &copied)
		}
	}
	// Order by row index, matching the real store's query.
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if out[j].RowIndex < out[i].RowIndex {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	return out, nil
}

func (m *mockResultStore) WithTx(tx *sql.Tx) store.ResultStore { return m }

// mockSubmitter captures submitted tasks.
type mockSubmitter struct {
	mu        sync.Mutex
	tasks     []task.Task
	submitErr error
}

func (m *mockSubmitter) Submit(ctx context.Context, t task.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.submitErr != nil {
		return m.submitErr
	}
	m.tasks = append(m.tasks, t)
	return nil
}

func (m *mockSubmitter) submitted() []task.Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]task.Task(nil), m.tasks...)
}

// noopProcessor satisfies batch.Processor for wiring a real orchestrator.
type noopProcessor struct{}

func (noopProcessor) Process(ctx context.Context, in batch.RowInput) domain.RowResult {
	return domain.RowResult{
		ID:       domain.ResolveRowID(in.BatchID, in.Row, in.Index),
		RowIndex: in.Index,
		Status:   domain.ResultStatusSuccess,
	}
}

type handlerFixture struct {
	batches   *mockBatchStore
	results   *mockResultStore
	submitter *mockSubmitter
	router    chi.Router
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()

	batches := newMockBatchStore()
	results := newMockResultStore()
	submitter := &mockSubmitter{}

	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	orchestrator, err := batch.NewOrchestrator(noopProcessor{}, batches, batch.OrchestratorConfig{}, logger)
	require.NoError(t, err)

	handler := NewBatchHandler(batches, results, orchestrator, submitter)

	router := chi.NewRouter()
	router.Post("/api/batches", handler.SubmitBatch)
	router.Get("/api/batches/{id}", handler.GetBatch)
	router.Get("/api/batches/{id}/summary", handler.GetBatchSummary)

	return &handlerFixture{
		batches:   batches,
		results:   results,
		submitter: submitter,
		router:    router,
	}
}

func (f *handlerFixture) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func validSubmitRequest() SubmitBatchRequest {
	return SubmitBatchRequest{
		BatchID: "batch-001",
		Rows: []map[string]string{
			{"company": "Acme"},
			{"company": "Globex"},
		},
		Prompt:       "Describe {{company}}",
		Context:      "B2B research",
		OutputSchema: []string{"name", "description"},
	}
}

func TestSubmitBatchAccepted(t *testing.T) {
	t.Parallel()

	f := newHandlerFixture(t)
	rec := f.do(t, http.MethodPost, "/api/batches", validSubmitRequest())

	require.Equal(t, http.StatusAccepted, rec.Code)

	var resp SubmitBatchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "batch-001", resp.BatchID)
	assert.Equal(t, string(domain.BatchStatusPending), resp.Status)
	assert.Equal(t, 2, resp.TotalRows)
	assert.False(t, resp.CreatedAt.IsZero())

	// The batch record exists in the pending state.
	stored, err := f.batches.GetByID(context.Background(), "batch-001")
	require.NoError(t, err)
	assert.Equal(t, domain.BatchStatusPending, stored.Status)

	// Exactly one background task was enqueued for it.
	tasks := f.submitter.submitted()
	require.Len(t, tasks, 1)
	assert.Equal(t, task.TaskTypeBatchProcessing, tasks[0].Type())
}

func TestSubmitBatchInvalidJSON(t *testing.T) {
	t.Parallel()

	f := newHandlerFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/api/batches", bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, f.submitter.submitted())
}

func TestSubmitBatchValidation(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		mutate func(*SubmitBatchRequest)
	}{
		{"missing batch ID", func(r *SubmitBatchRequest) { r.BatchID = "" }},
		{"missing rows", func(r *SubmitBatchRequest) { r.Rows = nil }},
		{"empty rows", func(r *SubmitBatchRequest) { r.Rows = []map[string]string{} }},
		{"missing prompt", func(r *SubmitBatchRequest) { r.Prompt = "" }},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			f := newHandlerFixture(t)
			req := validSubmitRequest()
			tc.mutate(&req)

			rec := f.do(t, http.MethodPost, "/api/batches", req)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Empty(t, f.submitter.submitted())
		})
	}
}

func TestSubmitBatchDuplicateID(t *testing.T) {
	t.Parallel()

	f := newHandlerFixture(t)

	first := f.do(t, http.MethodPost, "/api/batches", validSubmitRequest())
	require.Equal(t, http.StatusAccepted, first.Code)

	second := f.do(t, http.MethodPost, "/api/batches", validSubmitRequest())
	assert.Equal(t, http.StatusConflict, second.Code)
	assert.Len(t, f.submitter.submitted(), 1)
}

func TestSubmitBatchQueueFull(t *testing.T) {
	t.Parallel()

	f := newHandlerFixture(t)
	f.submitter.submitErr = errors.New("task queue is full, try again later")

	rec := f.do(t, http.MethodPost, "/api/batches", validSubmitRequest())
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestSubmitBatchStoreFailure(t *testing.T) {
	t.Parallel()

	f := newHandlerFixture(t)
	f.batches.createErr = errors.New("connection refused")

	rec := f.do(t, http.MethodPost, "/api/batches", validSubmitRequest())
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Empty(t, f.submitter.submitted())
}

func TestGetBatch(t *testing.T) {
	t.Parallel()

	f := newHandlerFixture(t)

	b, err := domain.NewBatch("batch-get")
	require.NoError(t, err)
	require.NoError(t, f.batches.Create(context.Background(), b))
	require.NoError(t, f.batches.Finalize(context.Background(), "batch-get", domain.BatchStatusCompleted, 7))

	rec := f.do(t, http.MethodGet, "/api/batches/batch-get", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp BatchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "batch-get", resp.ID)
	assert.Equal(t, string(domain.BatchStatusCompleted), resp.Status)
	assert.Equal(t, 7, resp.ProcessedRows)
}

func TestGetBatchNotFound(t *testing.T) {
	t.Parallel()

	f := newHandlerFixture(t)
	rec := f.do(t, http.MethodGet, "/api/batches/no-such-batch", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetBatchSummary(t *testing.T) {
	t.Parallel()

	f := newHandlerFixture(t)

	created := time.Now().UTC().Add(-10 * time.Second)
	f.batches.batches["batch-sum"] = &domain.Batch{
		ID:            "batch-sum",
		Status:        domain.BatchStatusCompletedWithErrors,
		ProcessedRows: 2,
		CreatedAt:     created,
		UpdatedAt:     created.Add(10 * time.Second),
	}

	records := []*domain.ResultRecord{
		{ID: "batch-sum-row-0", BatchID: "batch-sum", RowIndex: 0, Output: "ok", Status: domain.ResultStatusSuccess},
		{ID: "batch-sum-row-1", BatchID: "batch-sum", RowIndex: 1, Status: domain.ResultStatusError, ErrorMessage: "generation failed"},
		{ID: "batch-sum-row-2", BatchID: "batch-sum", RowIndex: 2, Output: "ok", Status: domain.ResultStatusSuccess},
	}
	for _, r := range records {
		require.NoError(t, f.results.Upsert(context.Background(), r))
	}

	rec := f.do(t, http.MethodGet, "/api/batches/batch-sum/summary", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// The payload uses the documented wire keys.
	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	assert.Contains(t, raw, "processing_time_seconds")
	assert.Contains(t, raw, "avg_time_per_row")

	var resp BatchSummaryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "batch-sum", resp.BatchID)
	assert.Equal(t, 3, resp.TotalRows)
	assert.Equal(t, 2, resp.Successful)
	assert.Equal(t, 1, resp.Failed)
	assert.Equal(t, string(domain.BatchStatusCompletedWithErrors), resp.Status)
	assert.InDelta(t, 10.0, resp.ProcessingTimeSeconds, 0.01)
	assert.InDelta(t, 10.0/3.0, resp.AvgTimePerRow, 0.001)

	// Results come back ordered by row index with per-row detail intact.
	require.Len(t, resp.Results, 3)
	assert.Equal(t, "batch-sum-row-0", resp.Results[0].ID)
	assert.Equal(t, "batch-sum-row-1", resp.Results[1].ID)
	assert.Equal(t, "generation failed", resp.Results[1].Error)
	assert.Equal(t, "batch-sum-row-2", resp.Results[2].ID)
}

func TestGetBatchSummaryNotFound(t *testing.T) {
	t.Parallel()

	f := newHandlerFixture(t)
	rec := f.do(t, http.MethodGet, "/api/batches/missing/summary", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetBatchSummaryEmptyResults(t *testing.T) {
	t.Parallel()

	f := newHandlerFixture(t)

	b, err := domain.NewBatch("batch-empty")
	require.NoError(t, err)
	require.NoError(t, f.batches.Create(context.Background(), b))

	rec := f.do(t, http.MethodGet, "/api/batches/batch-empty/summary", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp BatchSummaryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 0, resp.TotalRows)
	assert.Zero(t, resp.AvgTimePerRow)
}

func TestGetBatchSummaryInFlight(t *testing.T) {
	t.Parallel()

	f := newHandlerFixture(t)

	b, err := domain.NewBatch("batch-live")
	require.NoError(t, err)
	require.NoError(t, f.batches.Create(context.Background(), b))
	require.NoError(t, f.batches.UpdateStatus(context.Background(), "batch-live", domain.BatchStatusProcessing))

	require.NoError(t, f.results.Upsert(context.Background(), &domain.ResultRecord{
		ID: "batch-live-row-0", BatchID: "batch-live", RowIndex: 0,
		Output: "partial", Status: domain.ResultStatusSuccess,
	}))

	rec := f.do(t, http.MethodGet, "/api/batches/batch-live/summary", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// A batch still being processed reports its current lifecycle status
	// and whatever rows have been persisted so far.
	var resp BatchSummaryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, string(domain.BatchStatusProcessing), resp.Status)
	assert.Equal(t, 1, resp.TotalRows)
	assert.Equal(t, 1, resp.Successful)
}
