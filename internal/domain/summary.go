package domain

import "time"

// BatchSummary is the aggregate returned to the caller once every row
// has reached a terminal state. Results preserve the original input
// order regardless of completion order.
type BatchSummary struct {
	BatchID        string        `json:"batch_id"`
	TotalRows      int           `json:"total_rows"`
	Successful     int           `json:"successful"`
	Failed         int           `json:"failed"`
	ProcessingTime time.Duration `json:"-"`
	AvgTimePerRow  time.Duration `json:"-"`
	Status         BatchStatus   `json:"status"`
	Results        []RowResult   `json:"results"`
}
