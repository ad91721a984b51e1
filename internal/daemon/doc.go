// Package daemon coordinates the long-running sift watcher.
//
// It wires the ingestion pipeline to an fsnotify monitor on the organization
// root and optionally runs a batch pass over files already present, all
// under a flock-based lock so only one watcher serves a state directory.
//
// Keep orchestration logic here: classification and placement live in the
// ingest package while the daemon focuses on startup, shutdown, and the
// filesystem subscription.
package daemon
