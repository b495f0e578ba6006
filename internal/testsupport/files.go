package testsupport

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteFile fills the target path with the requested number of bytes using a
// simple repeating pattern. A size <= 0 writes a single byte.
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()

	if size <= 0 {
		size = 1
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, pattern(int(size)), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// WriteCatalog creates local files under root. Keys are slash-separated
// Artist/Book/file paths; values are sizes.
func WriteCatalog(t testing.TB, root string, files map[string]int) {
	t.Helper()

	for rel, size := range files {
		WriteFile(t, filepath.Join(root, filepath.FromSlash(rel)), int64(size))
	}
}
