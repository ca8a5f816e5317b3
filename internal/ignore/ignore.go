// Package ignore reads .ferretwatchignore files: gitignore-style patterns,
// one per line, matched with doublestar globs.
package ignore

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// FileName is the ignore file looked up at the scan root.
const FileName = ".ferretwatchignore"

type rule struct {
	globs  []string
	negate bool
}

// Matcher reports whether a slash-separated relative path is ignored. The
// last matching pattern wins, so "!pattern" re-includes a path.
type Matcher struct {
	rules []rule
}

// Load parses the ignore file at path.
func Load(path string) (*Matcher, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads patterns from r. Blank lines and lines starting with # are
// skipped.
func Parse(r io.Reader) (*Matcher, error) {
	m := &Matcher{}
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		var rl rule
		if strings.HasPrefix(line, "!") {
			rl.negate = true
			line = line[1:]
		}
		rl.globs = compile(line)
		if len(rl.globs) > 0 {
			m.rules = append(m.rules, rl)
		}
	}
	return m, sc.Err()
}

func compile(p string) []string {
	dirOnly := strings.HasSuffix(p, "/")
	p = strings.TrimSuffix(p, "/")
	anchored := strings.Contains(p, "/")
	p = strings.TrimPrefix(p, "/")
	if p == "" || !doublestar.ValidatePattern(p) {
		return nil
	}
	if !anchored {
		p = "**/" + p
	}
	// a matched directory takes everything below it
	if dirOnly {
		return []string{p + "/**"}
	}
	return []string{p, p + "/**"}
}

// Match reports whether path is ignored. A nil Matcher ignores nothing.
func (m *Matcher) Match(path string) bool {
	if m == nil {
		return false
	}
	path = strings.TrimPrefix(filepath.ToSlash(path), "./")
	ignored := false
	for _, r := range m.rules {
		for _, g := range r.globs {
			if ok, _ := doublestar.Match(g, path); ok {
				ignored = !r.negate
				break
			}
		}
	}
	return ignored
}

// Len returns the number of patterns.
func (m *Matcher) Len() int {
	if m == nil {
		return 0
	}
	return len(m.rules)
}
