// Package store defines interfaces for data persistence operations.
// These interfaces abstract the underlying data storage mechanism from
// the processing core, allowing the orchestration logic to remain
// independent of specific database technologies.
package store
