package domain

import (
	"fmt"
	"time"
)

// RowIDColumn is the reserved column name carrying an explicit row
// identifier. It is excluded from placeholder substitution.
const RowIDColumn = "id"

// Row is one unit of input data: a mapping of column names to values.
// Column order is irrelevant for templating; the row's position in the
// batch input sequence is what identifies it when no explicit id
// column is present.
type Row map[string]string

// ResultStatus represents the terminal outcome of processing one row
type ResultStatus string

// Possible row result status values
const (
	ResultStatusSuccess ResultStatus = "success"
	ResultStatusError   ResultStatus = "error"
)

// RowResult is the outcome of processing a single row. Exactly one
// RowResult with a terminal status is produced for every row that
// enters processing, independent of other rows' outcomes.
type RowResult struct {
	ID       string       `json:"id"`
	RowIndex int          `json:"-"`
	Output   string       `json:"output"`
	Status   ResultStatus `json:"status"`
	Error    string       `json:"error,omitempty"`
}

// ResultRecord is the persisted form of a RowResult, carrying the
// batch linkage and the serialized original input alongside the
// outcome. The store upserts it keyed by the row identifier.
type ResultRecord struct {
	ID           string       `json:"id"`
	BatchID      string       `json:"batch_id"`
	RowIndex     int          `json:"row_index"`
	Input        string       `json:"input"`
	Output       string       `json:"output"`
	Status       ResultStatus `json:"status"`
	ErrorMessage string       `json:"error_message,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// ResolveRowID derives the identifier for a row: an explicit non-empty
// id column wins, otherwise the identifier is synthesized from the
// batch id and the row's ordinal position. The rule is deterministic
// and collision-free within a batch.
func ResolveRowID(batchID string, row Row, index int) string {
	if id, ok := row[RowIDColumn]; ok && id != "" {
		return id
	}
	return fmt.Sprintf("%s-row-%d", batchID, index)
}
