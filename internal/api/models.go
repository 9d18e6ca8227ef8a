package api

import (
	"math"
	"time"

	"github.com/bulkgpt/processor/internal/domain"
)

// SubmitBatchRequest represents the request body for submitting a new batch
type SubmitBatchRequest struct {
	BatchID      string              `json:"batch_id"      validate:"required,min=1,max=255"`
	Rows         []map[string]string `json:"rows"          validate:"required,min=1"`
	Prompt       string              `json:"prompt"        validate:"required,min=1"`
	Context      string              `json:"context"`
	OutputSchema []string            `json:"output_schema"`
}

// SubmitBatchResponse represents the response data for an accepted batch
type SubmitBatchResponse struct {
	BatchID   string    `json:"batch_id"`
	Status    string    `json:"status"`
	TotalRows int       `json:"total_rows"`
	CreatedAt time.Time `json:"created_at"`
}

// BatchResponse represents the response data for a batch lifecycle record
type BatchResponse struct {
	ID            string    `json:"id"`
	Status        string    `json:"status"`
	ProcessedRows int       `json:"processed_rows"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// RowResultResponse represents one row's outcome within a batch summary
type RowResultResponse struct {
	ID       string `json:"id"`
	RowIndex int    `json:"row_index"`
	Output   string `json:"output,omitempty"`
	Status   string `json:"status"`
	Error    string `json:"error,omitempty"`
}

// BatchSummaryResponse represents the aggregate view of a batch
type BatchSummaryResponse struct {
	BatchID               string              `json:"batch_id"`
	TotalRows             int                 `json:"total_rows"`
	Successful            int                 `json:"successful"`
	Failed                int                 `json:"failed"`
	ProcessingTimeSeconds float64             `json:"processing_time_seconds"`
	AvgTimePerRow         float64             `json:"avg_time_per_row"`
	Status                string              `json:"status"`
	Results               []RowResultResponse `json:"results"`
}

// batchToDTOResponse converts a domain.Batch to a BatchResponse
func batchToDTOResponse(batch *domain.Batch) BatchResponse {
	return BatchResponse{
		ID:            batch.ID,
		Status:        string(batch.Status),
		ProcessedRows: batch.ProcessedRows,
		CreatedAt:     batch.CreatedAt,
		UpdatedAt:     batch.UpdatedAt,
	}
}

// resultToDTOResponse converts a domain.ResultRecord to a RowResultResponse
func resultToDTOResponse(record *domain.ResultRecord) RowResultResponse {
	return RowResultResponse{
		ID:       record.ID,
		RowIndex: record.RowIndex,
		Output:   record.Output,
		Status:   string(record.Status),
		Error:    record.ErrorMessage,
	}
}

// roundSeconds converts a duration to seconds rounded to the given
// number of decimal places.
func roundSeconds(d time.Duration, places int) float64 {
	shift := math.Pow(10, float64(places))
	return math.Round(d.Seconds()*shift) / shift
}
