// Package results persists ranked runs in SQLite and exports them as CSV and
// JSON artifacts. The output directory is guarded by a file lock so two runs
// cannot write concurrently.
package results
