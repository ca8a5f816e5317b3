package engine

import (
	"bytes"
	"context"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/ferretwatch/ferretwatch/internal/ignore"
)

// IgnoreFileDirective in a file's content skips the whole file.
const IgnoreFileDirective = "ferretwatch:ignore-file"

// roots resolves cfg.Paths against cfg.Root.
func roots(cfg Config) []string {
	if len(cfg.Paths) == 0 {
		return []string{cfg.Root}
	}
	out := make([]string, 0, len(cfg.Paths))
	for _, p := range cfg.Paths {
		if !filepath.IsAbs(p) {
			p = filepath.Join(cfg.Root, p)
		}
		out = append(out, p)
	}
	return out
}

// visit walks every root and calls fn with the slash-separated path relative
// to cfg.Root for each file that passes the directory, glob, ignore and size
// filters. Content-based filters are left to the caller.
func visit(ctx context.Context, cfg Config, ign *ignore.Matcher, fn func(abs, rel string) error) error {
	for _, root := range roots(cfg) {
		err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil
			}
			if ctx != nil && ctx.Err() != nil {
				return ctx.Err()
			}
			if d.IsDir() {
				if p != root && cfg.DefaultExcludes && isDefaultDirExcluded(d.Name()) {
					return filepath.SkipDir
				}
				return nil
			}
			if !d.Type().IsRegular() {
				return nil
			}
			rel, err := filepath.Rel(cfg.Root, p)
			if err != nil {
				rel = p
			}
			rel = filepath.ToSlash(rel)
			if isStateFile(rel) || !allowedByGlobs(rel, cfg) || ign.Match(rel) {
				return nil
			}
			if cfg.DefaultExcludes && isDefaultFileExcluded(strings.ToLower(rel)) {
				return nil
			}
			if info, _ := d.Info(); info != nil && cfg.MaxBytes > 0 && info.Size() > cfg.MaxBytes {
				return nil
			}
			return fn(p, rel)
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// Walk traverses the targets and invokes handle for each eligible text file.
// An error from handle stops the walk and is returned.
func Walk(ctx context.Context, cfg Config, ign *ignore.Matcher, handle func(path string, data []byte) error) error {
	return visit(ctx, cfg, ign, func(abs, rel string) error {
		b, err := os.ReadFile(abs)
		if err != nil {
			return nil
		}
		if bytes.Contains(b, []byte(IgnoreFileDirective)) {
			return nil
		}
		if looksBinary(b) || looksNonTextMIME(rel, b) {
			return nil
		}
		return handle(rel, b)
	})
}

// CountTargets estimates the number of files Run will visit without reading
// them.
func CountTargets(cfg Config) (int, error) {
	n := 0
	err := visit(context.Background(), cfg, loadIgnore(cfg.Root), func(_, _ string) error {
		n++
		return nil
	})
	return n, err
}

func looksBinary(b []byte) bool {
	const sniff = 800
	return bytes.IndexByte(b[:min(len(b), sniff)], 0) >= 0
}

// looksNonTextMIME uses the file extension and a tiny content sniff to skip
// clearly non-text content (e.g., images) in addition to NUL-byte detection.
func looksNonTextMIME(path string, b []byte) bool {
	if ct := mime.TypeByExtension(filepath.Ext(path)); ct != "" {
		if strings.HasPrefix(ct, "image/") || strings.HasPrefix(ct, "video/") || strings.HasPrefix(ct, "audio/") {
			return true
		}
		if strings.Contains(ct, "zip") || strings.Contains(ct, "tar") || strings.Contains(ct, "gzip") {
			return true
		}
	}
	switch {
	case bytes.HasPrefix(b, []byte("\x89PNG\r\n\x1a\n")):
		return true
	case bytes.HasPrefix(b, []byte("PK\x03\x04")):
		return true
	case bytes.HasPrefix(b, []byte("%PDF-")):
		return true
	}
	return false
}
