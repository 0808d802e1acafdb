// Package cache persists search results on disk so repeated queries
// skip the network. Entries are keyed by the exact query string and
// expire after a fixed TTL.
package cache

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/zeebo/blake3"

	"github.com/kilimcininkoroglu/sahaf/internal/scrape"
)

// DefaultTTL is how long a cached result set stays fresh.
const DefaultTTL = 24 * time.Hour

// Entry is the on-disk record for one query.
type Entry struct {
	Query     string        `json:"query"`
	Books     []scrape.Book `json:"books"`
	Timestamp time.Time     `json:"timestamp"`
}

// Cache stores one JSON file per query under a directory. The zero
// value is not usable; construct with New or Default.
type Cache struct {
	dir string
	ttl time.Duration

	// now is swapped in tests to control expiry.
	now func() time.Time
}

// New returns a cache rooted at dir with the given TTL. The
// directory is created on first write, not here.
func New(dir string, ttl time.Duration) *Cache {
	return &Cache{dir: dir, ttl: ttl, now: time.Now}
}

// Default returns a cache under the user cache directory.
func Default() (*Cache, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return nil, fmt.Errorf("locating cache directory: %w", err)
	}
	return New(filepath.Join(base, "sahaf"), DefaultTTL), nil
}

// path maps a query to its entry file. Hashing keeps arbitrary query
// text out of filenames.
func (c *Cache) path(query string) string {
	sum := blake3.Sum256([]byte(query))
	return filepath.Join(c.dir, hex.EncodeToString(sum[:])+".json")
}

// Get returns the cached books for query, or ok=false when the entry
// is missing, expired, corrupt, or recorded for a different query.
// Unreadable entries are treated as misses, never as errors.
func (c *Cache) Get(query string) ([]scrape.Book, bool) {
	data, err := os.ReadFile(c.path(query))
	if err != nil {
		return nil, false
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, false
	}
	if entry.Query != query {
		return nil, false
	}
	if c.now().Sub(entry.Timestamp) > c.ttl {
		return nil, false
	}
	return entry.Books, true
}

// Put records books for query, overwriting any previous entry.
func (c *Cache) Put(query string, books []scrape.Book) error {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}

	entry := Entry{Query: query, Books: books, Timestamp: c.now()}
	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding cache entry: %w", err)
	}
	if err := os.WriteFile(c.path(query), data, 0o644); err != nil {
		return fmt.Errorf("writing cache entry: %w", err)
	}
	return nil
}

// Sweep deletes expired and corrupt entries and returns how many
// files were removed. Fresh entries are untouched.
func (c *Cache) Sweep() (int, error) {
	entries, err := os.ReadDir(c.dir)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading cache directory: %w", err)
	}

	removed := 0
	for _, de := range entries {
		if de.IsDir() || !strings.HasSuffix(de.Name(), ".json") {
			continue
		}
		full := filepath.Join(c.dir, de.Name())
		if c.fresh(full) {
			continue
		}
		if err := os.Remove(full); err != nil {
			return removed, fmt.Errorf("removing %s: %w", de.Name(), err)
		}
		removed++
	}
	return removed, nil
}

func (c *Cache) fresh(path string) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return false
	}
	return c.now().Sub(entry.Timestamp) <= c.ttl
}
