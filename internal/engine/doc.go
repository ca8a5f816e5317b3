// Package engine drives file and stdin scans for the CLI. It walks the
// target tree, applies globs, ignore files and the incremental cache, hands
// each file's content to a ContentScanner and aggregates the results. This
// package is internal; external consumers should use pkg/core.
package engine
