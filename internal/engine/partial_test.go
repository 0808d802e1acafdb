package engine

import (
	"os"
	"path/filepath"
	"testing"
)

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestInProgress(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "book.epub")

	if InProgress(target) {
		t.Error("InProgress() = true with no markers")
	}

	touch(t, target+".part")
	if !InProgress(target) {
		t.Error("InProgress() = false with .part marker present")
	}
	os.Remove(target + ".part")

	touch(t, target+".crdownload")
	if !InProgress(target) {
		t.Error("InProgress() = false with .crdownload marker present")
	}

	// The real file alone is not a marker.
	os.Remove(target + ".crdownload")
	touch(t, target)
	if InProgress(target) {
		t.Error("InProgress() = true with only the finished file")
	}
}

func TestSweepPartials(t *testing.T) {
	dir := t.TempDir()

	touch(t, filepath.Join(dir, "a.epub.part"))
	touch(t, filepath.Join(dir, "b.pdf.crdownload"))
	touch(t, filepath.Join(dir, "finished.epub"))
	if err := os.Mkdir(filepath.Join(dir, "sub.part"), 0o755); err != nil {
		t.Fatal(err)
	}

	removed, err := SweepPartials(dir)
	if err != nil {
		t.Fatalf("SweepPartials() error = %v", err)
	}
	if removed != 2 {
		t.Errorf("SweepPartials() removed %d, want 2", removed)
	}

	if _, err := os.Stat(filepath.Join(dir, "finished.epub")); err != nil {
		t.Error("finished file was removed")
	}
	if _, err := os.Stat(filepath.Join(dir, "sub.part")); err != nil {
		t.Error("directory with marker suffix was removed")
	}
	if _, err := os.Stat(filepath.Join(dir, "a.epub.part")); !os.IsNotExist(err) {
		t.Error(".part file survived the sweep")
	}
}

func TestSweepPartialsMissingDir(t *testing.T) {
	removed, err := SweepPartials(filepath.Join(t.TempDir(), "nope"))
	if err != nil {
		t.Fatalf("SweepPartials() error = %v", err)
	}
	if removed != 0 {
		t.Errorf("SweepPartials() removed %d, want 0", removed)
	}
}
