// Package task provides in-process background task execution: an
// in-memory queue drained by a fixed pool of worker goroutines. The
// ingress layer submits batch-processing tasks here so HTTP requests
// return immediately while batches run to completion in the background.
package task
