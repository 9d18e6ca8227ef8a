// Package api contains the HTTP handlers and request/response models
// for the batch processing endpoints. Handlers translate between wire
// DTOs and domain types, map store errors to status codes, and hand
// long-running work to the background task runner.
package api
