package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	doublestar "github.com/bmatcuk/doublestar/v4"

	"github.com/ferretwatch/ferretwatch/internal/cache"
	"github.com/ferretwatch/ferretwatch/internal/ignore"
	"github.com/ferretwatch/ferretwatch/internal/log"
	"github.com/ferretwatch/ferretwatch/internal/scanner"
	"github.com/ferretwatch/ferretwatch/internal/types"
)

// ContentScanner scans one document. Implementations must be safe for
// concurrent use.
type ContentScanner interface {
	ScanContent(ctx context.Context, source, content string) ([]types.Finding, scanner.Stats)
}

// Config controls scope, performance and filters of a file scan.
type Config struct {
	Root string
	// Paths narrows the scan to files or directories under Root. Empty
	// means Root itself.
	Paths           []string
	IncludeGlobs    string
	ExcludeGlobs    string
	MaxBytes        int64
	DefaultExcludes bool
	NoCache         bool
	Threads         int
	Progress        func()
}

// Result contains findings and scan statistics.
type Result struct {
	Findings     []types.Finding
	FilesScanned int
	// FilesUnchanged counts files skipped because the cache saw the same
	// content produce no findings last time.
	FilesUnchanged int
	Duration       time.Duration
	Stats          scanner.Stats
}

type fileResult struct {
	path     string
	hash     string
	findings []types.Finding
	stats    scanner.Stats
}

// Run scans every eligible file. A cancelled ctx stops the walk and returns
// what was scanned so far with Stats.Aborted set; it is not an error.
func Run(ctx context.Context, cfg Config, cs ContentScanner) (Result, error) {
	var result Result
	if cs == nil {
		return result, errors.New("engine: nil scanner")
	}
	started := time.Now()

	var db cache.DB
	if !cfg.NoCache {
		db, _ = cache.Load(cfg.Root)
	} else {
		db.Entries = map[string]string{}
	}
	ign := loadIgnore(cfg.Root)

	threads := cfg.Threads
	if threads <= 0 {
		threads = runtime.GOMAXPROCS(0)
	}

	type job struct {
		path string
		data []byte
	}
	jobs := make(chan job, threads*2)
	var (
		mu  sync.Mutex
		out []fileResult
		wg  sync.WaitGroup
	)
	for i := 0; i < threads; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				fr := scanFile(ctx, cs, j.path, j.data)
				mu.Lock()
				out = append(out, fr)
				mu.Unlock()
				if cfg.Progress != nil {
					cfg.Progress()
				}
			}
		}()
	}

	walkErr := Walk(ctx, cfg, ign, func(p string, data []byte) error {
		h := cache.Hash(data)
		if !cfg.NoCache && db.Unchanged(p, h) {
			mu.Lock()
			result.FilesUnchanged++
			mu.Unlock()
			if cfg.Progress != nil {
				cfg.Progress()
			}
			return nil
		}
		select {
		case jobs <- job{path: p, data: data}:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})
	close(jobs)
	wg.Wait()

	// files finish in any order; report them in path order
	sort.Slice(out, func(i, j int) bool { return out[i].path < out[j].path })
	updated := map[string]string{}
	for _, fr := range out {
		result.FilesScanned++
		result.Findings = append(result.Findings, fr.findings...)
		result.Stats.Add(fr.stats)
		if len(fr.findings) == 0 && !fr.stats.Aborted && len(fr.stats.Degraded) == 0 {
			updated[fr.path] = fr.hash
		} else {
			delete(db.Entries, fr.path)
		}
	}
	scanner.Rank(result.Findings)
	result.Duration = time.Since(started)

	if walkErr != nil {
		if !errors.Is(walkErr, context.Canceled) && !errors.Is(walkErr, context.DeadlineExceeded) {
			return result, walkErr
		}
		result.Stats.Aborted = true
	}
	if ctx.Err() != nil {
		result.Stats.Aborted = true
	}

	if !cfg.NoCache {
		if db.Entries == nil {
			db.Entries = map[string]string{}
		}
		for k, v := range updated {
			db.Entries[k] = v
		}
		if err := cache.Save(cfg.Root, db); err != nil {
			log.Warnf("(engine) cache not saved: %v", err)
		}
	}
	return result, nil
}

func scanFile(ctx context.Context, cs ContentScanner, path string, data []byte) fileResult {
	content := string(data)
	fs, st := cs.ScanContent(ctx, path, content)
	for i := range fs {
		fs[i].Source = path
		fs[i].Line = LineOf(content, fs[i].Position)
	}
	return fileResult{path: path, hash: cache.Hash(data), findings: fs, stats: st}
}

// ScanReader scans a single stream, such as stdin. Input beyond maxBytes is
// not read and the result is marked partial via a warning log.
func ScanReader(ctx context.Context, r io.Reader, source string, maxBytes int64, cs ContentScanner) (Result, error) {
	var result Result
	if cs == nil {
		return result, errors.New("engine: nil scanner")
	}
	started := time.Now()
	if maxBytes <= 0 {
		maxBytes = 1 << 20
	}
	data, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return result, fmt.Errorf("read %s: %w", source, err)
	}
	if int64(len(data)) > maxBytes {
		log.Warnf("(engine) %s exceeds %d bytes; scanning the first %d", source, maxBytes, maxBytes)
		data = data[:maxBytes]
	}
	fr := scanFile(ctx, cs, source, data)
	result.Findings = fr.findings
	result.Stats = fr.stats
	result.FilesScanned = 1
	result.Duration = time.Since(started)
	return result, nil
}

// LineOf returns the 1-based line containing byte offset pos.
func LineOf(content string, pos int) int {
	if pos > len(content) {
		pos = len(content)
	}
	if pos < 0 {
		pos = 0
	}
	return strings.Count(content[:pos], "\n") + 1
}

func loadIgnore(root string) *ignore.Matcher {
	ign, err := ignore.Load(filepath.Join(root, ignore.FileName))
	if err != nil {
		return nil
	}
	return ign
}

// allowedByGlobs returns true if the given path is allowed by the include/exclude
// glob configuration. Include globs are comma-separated and, if provided, act as
// a positive filter. Exclude globs are subtracted last.
func allowedByGlobs(relPath string, cfg Config) bool {
	rp := strings.ReplaceAll(relPath, "\\", "/")
	includes := parseGlobsList(cfg.IncludeGlobs)
	excludes := parseGlobsList(cfg.ExcludeGlobs)
	if len(includes) > 0 && !matchAnyGlob(rp, includes) {
		return false
	}
	if len(excludes) > 0 && matchAnyGlob(rp, excludes) {
		return false
	}
	return true
}

func parseGlobsList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p, trimGlobPrefix(p))
		}
	}
	return out
}

func matchAnyGlob(pathToMatch string, globs []string) bool {
	for _, g := range globs {
		if ok, _ := doublestar.Match(g, pathToMatch); ok {
			return true
		}
		if ok, _ := doublestar.Match(g, filepath.Base(pathToMatch)); ok {
			return true
		}
	}
	return false
}

func trimGlobPrefix(g string) string {
	s := strings.TrimPrefix(g, "./")
	for strings.HasPrefix(s, "**/") {
		s = strings.TrimPrefix(s, "**/")
	}
	return s
}
