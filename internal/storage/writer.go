// Package storage provides file I/O for downloaded books.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// FileWriter writes a download sequentially to disk, creating parent
// directories as needed.
type FileWriter struct {
	file    *os.File
	path    string
	written int64
	mu      sync.Mutex
	closed  bool
}

// NewFileWriter creates a writer for the given path, truncating any
// existing file.
func NewFileWriter(path string) (*FileWriter, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening file %s: %w", path, err)
	}

	return &FileWriter{file: file, path: path}, nil
}

// Write appends data to the file.
func (w *FileWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return 0, fmt.Errorf("writer is closed")
	}

	n, err := w.file.Write(p)
	w.written += int64(n)
	return n, err
}

// Sync flushes the file to disk.
func (w *FileWriter) Sync() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return fmt.Errorf("writer is closed")
	}

	return w.file.Sync()
}

// Close closes the file. Closing twice is harmless.
func (w *FileWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}

	w.closed = true
	return w.file.Close()
}

// Path returns the file path.
func (w *FileWriter) Path() string {
	return w.path
}

// Written returns the number of bytes written so far.
func (w *FileWriter) Written() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.written
}

// FileExists checks if a file exists at the given path.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// FileSize returns the size of the file at the given path.
func FileSize(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// RemoveFile removes the file at the given path.
func RemoveFile(path string) error {
	return os.Remove(path)
}

// SanitizeFilename replaces path separators in a candidate filename
// so a scraped title cannot escape the download directory.
func SanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, string(os.PathSeparator), "_")
	return name
}
