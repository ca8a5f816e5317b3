package engine

import (
	"path"
	"strings"
)

var defaultExcludeDirs = map[string]bool{
	"node_modules":     true,
	"bower_components": true,
	"vendor":           true,
	"target":           true,
	"dist":             true,
	"build":            true,
	"out":              true,
	".venv":            true,
	"venv":             true,
	"__pycache__":      true,
	".pytest_cache":    true,
	".next":            true,
	".terraform":       true,
	"coverage":         true,
	"bin":              true,
	"obj":              true,
}

// suffixes of generated, minified or binary artifacts
var defaultExcludeFileSuffixes = []string{
	".min.js", ".min.css", ".map",
	".png", ".jpg", ".jpeg", ".gif", ".webp", ".svg", ".ico",
	".woff", ".woff2", ".ttf", ".eot",
	".pdf", ".zip", ".gz", ".tar", ".tgz", ".7z",
	".jar", ".class", ".exe", ".dll", ".so", ".dylib",
	".wasm", ".pyc",
	".pb.go", ".gen.go",
}

// lockfiles and OS cruft
var defaultExcludeFileNames = map[string]bool{
	"yarn.lock":         true,
	"package-lock.json": true,
	"pnpm-lock.yaml":    true,
	"composer.lock":     true,
	"poetry.lock":       true,
	"go.sum":            true,
	".ds_store":         true,
}

// files FerretWatch writes itself; always skipped
var stateFileNames = map[string]bool{
	".ferretwatchcache.json":      true,
	".ferretwatch_last_scan.json": true,
	".ferretwatch_audit.jsonl":    true,
	"ferretwatch.baseline.json":   true,
}

func isStateFile(rel string) bool { return stateFileNames[path.Base(rel)] }

func isDefaultDirExcluded(name string) bool {
	return defaultExcludeDirs[name] || strings.HasPrefix(name, ".git")
}

// isDefaultFileExcluded expects a lower-cased, slash-separated path.
func isDefaultFileExcluded(lowerRel string) bool {
	if strings.HasSuffix(lowerRel, ".lock") || strings.Contains(lowerRel, ".gen.") {
		return true
	}
	for _, s := range defaultExcludeFileSuffixes {
		if strings.HasSuffix(lowerRel, s) {
			return true
		}
	}
	return defaultExcludeFileNames[path.Base(lowerRel)]
}
