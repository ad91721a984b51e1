// Package daemonrun assembles the classifier, folder resolver, history log
// and ingestion pipeline for one organization root, and runs the watcher
// as a signal-driven process.
package daemonrun
