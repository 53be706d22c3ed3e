// Package aggregates owns the transaction boundary for registry and report
// writes.
//
// Services hand ExecuteWrite a closure that composes table-level repos from
// internal/data/repos; the runner opens the transaction, MapError assigns an
// aggregate error code and Hooks record the outcome.
package aggregates
