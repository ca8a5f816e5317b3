package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ferretwatch/ferretwatch/internal/ignore"
)

func TestCountTargets_InlineIgnoreAndMaxBytes(t *testing.T) {
	dir := t.TempDir()
	small := filepath.Join(dir, "a.txt")
	big := filepath.Join(dir, "big.bin")
	tooBig := filepath.Join(dir, "huge.txt")
	ignFile := filepath.Join(dir, ignore.FileName)
	if err := os.WriteFile(small, []byte("ok"), 0644); err != nil {
		t.Fatal(err)
	}
	// exactly at the threshold
	if err := os.WriteFile(big, make([]byte, 1024*1024), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(tooBig, make([]byte, 1024*1024+1), 0644); err != nil {
		t.Fatal(err)
	}
	ignored := filepath.Join(dir, "ignored.txt")
	if err := os.WriteFile(ignored, []byte("secret"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(ignFile, []byte("ignored.txt\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := Config{Root: dir, MaxBytes: 1 << 20}
	n, err := CountTargets(cfg)
	if err != nil {
		t.Fatal(err)
	}
	// a.txt, big.bin and the ignore file itself; huge.txt is over the limit
	// and ignored.txt is excluded by the ignore file.
	if n != 3 {
		t.Fatalf("expected 3 targets, got %d", n)
	}
}

func TestWalk_SkipsBinaryAndDirective(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"text.txt":               "plain",
		"nul.dat":                "abc\x00def",
		"image.png":              "\x89PNG\r\n\x1a\nrest",
		"skip.env":               "# " + IgnoreFileDirective + "\nAPI_KEY=abc",
		"node_modules/x":         "dependency",
		".ferretwatchcache.json": "{}",
	}
	for name, body := range files {
		p := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(body), 0644); err != nil {
			t.Fatal(err)
		}
	}
	var got []string
	cfg := Config{Root: dir, MaxBytes: 1 << 20, DefaultExcludes: true}
	if err := Walk(nil, cfg, nil, func(p string, _ []byte) error {
		got = append(got, p)
		return nil
	}); err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0] != "text.txt" {
		t.Fatalf("expected only text.txt, got %v", got)
	}
}

func TestWalk_Paths(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"src/a.go", "src/b.go", "docs/c.md"} {
		p := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	var got []string
	cfg := Config{Root: dir, Paths: []string{"src", "docs/c.md"}, MaxBytes: 1 << 20}
	if err := Walk(nil, cfg, nil, func(p string, _ []byte) error {
		got = append(got, p)
		return nil
	}); err != nil {
		t.Fatal(err)
	}
	want := []string{"src/a.go", "src/b.go", "docs/c.md"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}
