// Package config loads, normalizes, and validates sift configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// SIFT_ROOT and SIFT_MODEL. The Config type centralizes every knob the watcher
// and CLI need so the organization root, model location, and placement
// thresholds are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
