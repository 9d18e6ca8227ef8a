// Package postgres provides PostgreSQL implementations of the store
// interfaces using database/sql with the pgx stdlib driver. All writes
// are keyed single-row operations: batches by batch id, results by row
// id, so concurrent workers never contend on shared rows.
package postgres
