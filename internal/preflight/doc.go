// Package preflight provides readiness checks for the filesystem paths and
// model file sift depends on.
//
// The watcher and the CLI "sift preflight" command both run RunAll before
// touching any file: a missing root or unloadable model must stop the run
// rather than let every file fail one by one.
package preflight
