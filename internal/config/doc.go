// Package config loads FerretWatch configuration from local and global YAML
// files with precedence rules and resolves it into typed Settings. It is
// internal; the CLI maps flags on top and pkg/core reads Settings at the
// start of every scan.
package config
