// Package domain contains the core entities of the bulk processing
// service: batches, rows, row results and their lifecycle rules.
// Entities here have no dependencies on storage, transport, or the
// generation service.
package domain
