package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Marker suffixes used by browsers and other download tools for
// files still being written.
var partialSuffixes = []string{".part", ".crdownload"}

// InProgress reports whether a download targeting path appears to be
// underway, judged by a sibling marker file. The transfer routine
// itself never creates these markers; the check only observes other
// tools writing into the same directory.
func InProgress(path string) bool {
	for _, suffix := range partialSuffixes {
		if _, err := os.Stat(path + suffix); err == nil {
			return true
		}
	}
	return false
}

// SweepPartials removes leftover marker files from dir and returns
// how many were deleted. A missing directory is not an error.
func SweepPartials(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading download directory: %w", err)
	}

	removed := 0
	for _, de := range entries {
		if de.IsDir() {
			continue
		}
		name := de.Name()
		matched := false
		for _, suffix := range partialSuffixes {
			if strings.HasSuffix(name, suffix) {
				matched = true
				break
			}
		}
		if !matched {
			continue
		}
		if err := os.Remove(filepath.Join(dir, name)); err != nil {
			return removed, fmt.Errorf("removing %s: %w", name, err)
		}
		removed++
	}
	return removed, nil
}
