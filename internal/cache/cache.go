// Package cache persists what the last file scan saw: a content hash per file
// so unchanged files can be skipped, and the findings of the last run.
package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cespare/xxhash/v2"
)

const dbName = "ferretwatchcache.json"

// DB maps a path relative to the scan root to the xxhash of its content.
type DB struct {
	Entries map[string]string `json:"entries"`
}

// Hash returns the content key used by DB entries.
func Hash(b []byte) string {
	return fmt.Sprintf("%016x", xxhash.Sum64(b))
}

// Unchanged reports whether path was last seen with the same hash.
func (db DB) Unchanged(path, hash string) bool {
	prev, ok := db.Entries[path]
	return ok && prev == hash
}

// stateDir prefers .git so cache files are not committed by accident.
func stateDir(root string) (dir, prefix string) {
	gitDir := filepath.Join(root, ".git")
	if st, err := os.Stat(gitDir); err == nil && st.IsDir() {
		return gitDir, ""
	}
	return root, "."
}

func defaultPath(root string) string {
	dir, prefix := stateDir(root)
	return filepath.Join(dir, prefix+dbName)
}

// Load reads the cache for root. A missing or corrupt file yields an empty DB
// along with the error.
func Load(root string) (DB, error) {
	var db DB
	f, err := os.ReadFile(defaultPath(root))
	if err != nil {
		return DB{Entries: map[string]string{}}, err
	}
	if err := json.Unmarshal(f, &db); err != nil {
		return DB{Entries: map[string]string{}}, err
	}
	if db.Entries == nil {
		db.Entries = map[string]string{}
	}
	return db, nil
}

func Save(root string, db DB) error {
	if db.Entries == nil {
		return errors.New("empty cache")
	}
	b, err := json.MarshalIndent(db, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(defaultPath(root), b, 0o644)
}
