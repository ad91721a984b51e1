// Package ingest drives detected files from the organization root into their
// category folders.
//
// Each file moves through Detected, StabilityCheck, Classifying, Resolving
// and Moving before ending Done or Failed; files that are ignored, still
// being written, vanish, or are already in flight end Discarded without an
// outcome callback. The in-flight set guarantees one classification and one
// move per path no matter how many events arrive for it. Once a file is
// claimed its processing is detached from the caller's cancellation so a
// stop request never leaves a half-moved file behind.
//
// Watch mode feeds HandleEvent or Submit from a filesystem monitor. Batch
// mode (Organize) walks the root once with no stability delay.
package ingest
