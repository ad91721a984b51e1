// Package services defines shared utilities consumed by the ingestion pipeline
// and its collaborators.
//
// Key responsibilities:
//   - context helpers that carry the run correlation ID, the file path, and the
//     pipeline stage so loggers can tag every line consistently
//   - sentinel error markers and Wrap, which attach stage/operation detail to a
//     failure while keeping both the marker and the cause reachable through
//     errors.Is
//
// Keep this package free of pipeline logic; it exists so leaf packages can
// classify failures without importing the pipeline.
package services
