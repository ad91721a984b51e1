// Package history persists an append-only log of organized files in SQLite.
//
// Every successful placement is recorded with its source name, destination,
// folder, category, confidence and the run that produced it. Rows are never
// updated or deleted.
package history
