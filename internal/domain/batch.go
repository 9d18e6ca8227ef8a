package domain

import (
	"errors"
	"time"
)

// BatchStatus represents the lifecycle state of a batch
type BatchStatus string

// Possible batch status values
const (
	BatchStatusPending             BatchStatus = "pending"
	BatchStatusProcessing          BatchStatus = "processing"
	BatchStatusCompleted           BatchStatus = "completed"
	BatchStatusCompletedWithErrors BatchStatus = "completed_with_errors"
)

// Common validation errors for Batch
var (
	ErrEmptyBatchID       = errors.New("batch ID cannot be empty")
	ErrInvalidBatchStatus = errors.New("invalid batch status")
)

// Batch represents a named collection of rows submitted together and
// tracked through its lifecycle to a terminal status. The ID is
// caller-supplied; the orchestrator only ever transitions status and
// counters, it never deletes a batch.
type Batch struct {
	ID            string      `json:"id"`
	Status        BatchStatus `json:"status"`
	ProcessedRows int         `json:"processed_rows"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// NewBatch creates a new Batch in the pending state with the given
// caller-supplied identifier. Returns an error if validation fails.
func NewBatch(id string) (*Batch, error) {
	batch := &Batch{
		ID:        id,
		Status:    BatchStatusPending,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}

	if err := batch.Validate(); err != nil {
		return nil, err
	}

	return batch, nil
}

// Validate checks if the Batch has valid data.
func (b *Batch) Validate() error {
	if b.ID == "" {
		return ErrEmptyBatchID
	}

	if !isValidBatchStatus(b.Status) {
		return ErrInvalidBatchStatus
	}

	return nil
}

// IsTerminal reports whether the batch has reached a state it will
// not transition out of.
func (b *Batch) IsTerminal() bool {
	return b.Status == BatchStatusCompleted || b.Status == BatchStatusCompletedWithErrors
}

// isValidBatchStatus checks if the given status is a valid BatchStatus.
func isValidBatchStatus(status BatchStatus) bool {
	switch status {
	case BatchStatusPending, BatchStatusProcessing,
		BatchStatusCompleted, BatchStatusCompletedWithErrors:
		return true
	default:
		return false
	}
}

// TerminalBatchStatus returns the terminal status for a batch given the
// number of rows that ended in error: completed iff every row
// succeeded, completed_with_errors otherwise.
func TerminalBatchStatus(errorCount int) BatchStatus {
	if errorCount == 0 {
		return BatchStatusCompleted
	}
	return BatchStatusCompletedWithErrors
}
