// Package batch contains the batch orchestration and per-row
// processing engine: the row processor (one generation call, one store
// write, strict failure isolation), the orchestrator (bounded fan-out,
// input-order fan-in, aggregate statistics, lifecycle transitions), and
// the background task wrapper that connects the engine to the ingress
// layer.
package batch
