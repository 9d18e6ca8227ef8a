package domain

import (
	"testing"
)

func TestNewBatch(t *testing.T) {
	t.Parallel()

	batch, err := NewBatch("b1")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if batch.ID != "b1" {
		t.Errorf("Expected ID b1, got %s", batch.ID)
	}

	if batch.Status != BatchStatusPending {
		t.Errorf("Expected status %s, got %s", BatchStatusPending, batch.Status)
	}

	if batch.CreatedAt.IsZero() {
		t.Error("Expected non-zero CreatedAt time")
	}

	// Empty ID is rejected
	_, err = NewBatch("")
	if err != ErrEmptyBatchID {
		t.Errorf("Expected error %v, got %v", ErrEmptyBatchID, err)
	}
}

func TestBatchValidate(t *testing.T) {
	t.Parallel()

	valid := Batch{ID: "b1", Status: BatchStatusProcessing}
	if err := valid.Validate(); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}

	invalid := Batch{ID: "b1", Status: BatchStatus("running")}
	if err := invalid.Validate(); err != ErrInvalidBatchStatus {
		t.Errorf("Expected error %v, got %v", ErrInvalidBatchStatus, err)
	}
}

func TestBatchIsTerminal(t *testing.T) {
	t.Parallel()

	cases := []struct {
		status   BatchStatus
		terminal bool
	}{
		{BatchStatusPending, false},
		{BatchStatusProcessing, false},
		{BatchStatusCompleted, true},
		{BatchStatusCompletedWithErrors, true},
	}

	for _, tc := range cases {
		b := Batch{ID: "b1", Status: tc.status}
		if got := b.IsTerminal(); got != tc.terminal {
			t.Errorf("IsTerminal() for %s: expected %v, got %v", tc.status, tc.terminal, got)
		}
	}
}

func TestTerminalBatchStatus(t *testing.T) {
	t.Parallel()

	if got := TerminalBatchStatus(0); got != BatchStatusCompleted {
		t.Errorf("Expected %s for zero errors, got %s", BatchStatusCompleted, got)
	}

	if got := TerminalBatchStatus(3); got != BatchStatusCompletedWithErrors {
		t.Errorf("Expected %s for non-zero errors, got %s", BatchStatusCompletedWithErrors, got)
	}
}
