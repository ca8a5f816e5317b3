package ignore

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Append adds pattern to the ignore file in root, creating the file if
// needed. Patterns already present are left alone. It reports whether the
// file changed.
func Append(root, pattern string) (bool, error) {
	pattern = strings.TrimSpace(pattern)
	if compile(strings.TrimPrefix(pattern, "!")) == nil {
		return false, fmt.Errorf("invalid ignore pattern %q", pattern)
	}
	path := filepath.Join(root, FileName)
	endsWithNewline := true
	if f, err := os.Open(path); err == nil {
		sc := bufio.NewScanner(f)
		for sc.Scan() {
			if strings.TrimSpace(sc.Text()) == pattern {
				_ = f.Close()
				return false, nil
			}
		}
		_ = f.Close()
		if b, err := os.ReadFile(path); err == nil && len(b) > 0 {
			endsWithNewline = b[len(b)-1] == '\n'
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return false, err
	}
	defer f.Close()
	if !endsWithNewline {
		pattern = "\n" + pattern
	}
	if _, err := f.WriteString(pattern + "\n"); err != nil {
		return false, err
	}
	return true, nil
}
