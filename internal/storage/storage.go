// Package storage persists per-case mapping results: the optional NDJSON
// dump a caller may request alongside an evaluation run, written and read
// back atomically.
package storage

import "github.com/clinterm/onco-map/internal/eval"

// ResultStore is the interface for persisting per-case evaluation results.
type ResultStore interface {
	// WriteResults writes every result for a named run. Returns the path
	// the dump was written to.
	WriteResults(name string, results []eval.EvalResult) (string, error)

	// ReadResults reads back a previously written dump.
	ReadResults(name string) ([]eval.EvalResult, error)

	// Init creates the required directory structure.
	Init() error
}
