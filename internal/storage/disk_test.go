package storage

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFileSizes(t *testing.T) {
	dir := t.TempDir()
	f1 := filepath.Join(dir, "f1")
	if err := os.WriteFile(f1, []byte("hello"), 0644); err != nil {
		t.Fatal(err)
	}
	f2 := filepath.Join(dir, "f2")
	if err := os.WriteFile(f2, []byte("abc"), 0644); err != nil {
		t.Fatal(err)
	}

	got, err := fileSizes(f1, f2)
	if err != nil {
		t.Fatal(err)
	}
	if got != 8 {
		t.Errorf("got %d bytes, want 8", got)
	}

	// Missing files and directories contribute nothing.
	got, err = fileSizes(f1, filepath.Join(dir, "missing"), dir)
	if err != nil {
		t.Fatal(err)
	}
	if got != 5 {
		t.Errorf("with missing: got %d bytes, want 5", got)
	}
}

func TestSQLiteStorage_DiskUsage(t *testing.T) {
	store, err := OpenDataDir(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	n, err := store.DiskUsage()
	if err != nil {
		t.Fatal(err)
	}
	if n <= 0 {
		t.Errorf("expected a non-empty database, got %d bytes", n)
	}
}
