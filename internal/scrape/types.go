// Package scrape extracts book metadata and download links from
// Anna's Archive HTML pages.
package scrape

import (
	"strings"

	"github.com/kilimcininkoroglu/sahaf/internal/storage"
)

// Book is a single search result. Title and URL are always set; the
// remaining fields are best-effort and empty when the surrounding
// markup carried no usable signal.
type Book struct {
	Title    string `json:"title"`
	Author   string `json:"author,omitempty"`
	Year     string `json:"year,omitempty"`
	Language string `json:"language,omitempty"`
	Format   string `json:"format,omitempty"`
	Size     string `json:"size,omitempty"`
	URL      string `json:"url"`
}

// DownloadFilename builds a filesystem-safe name for saving the book.
// The title is truncated to its first 50 runes so pathological titles
// stay within filesystem limits; the format defaults to pdf when the
// listing carried none.
func (b Book) DownloadFilename() string {
	title := b.Title
	if r := []rune(title); len(r) > 50 {
		title = string(r[:50])
	}

	name := title
	if b.Author != "" {
		name += " - " + b.Author
	}

	ext := "pdf"
	if b.Format != "" {
		ext = strings.ToLower(b.Format)
	}

	return storage.SanitizeFilename(name + "." + ext)
}

// Source classifies where a download link points.
type Source string

const (
	SourceLibGen  Source = "LibGen"
	SourceAnnas   Source = "Anna's Archive"
	SourceMirror  Source = "Mirror"
	SourceUnknown Source = "Unknown"
)

// DetectSource classifies a link by URL substring. LibGen is checked
// before the site's own domain, which is checked before generic
// mirrors; the first match wins.
func DetectSource(href string) Source {
	switch {
	case strings.Contains(href, "libgen"):
		return SourceLibGen
	case strings.Contains(href, "annas"):
		return SourceAnnas
	case strings.Contains(href, "mirror"):
		return SourceMirror
	default:
		return SourceUnknown
	}
}

// DownloadLink is one download option scraped from a book's detail
// page. URL may be relative or absolute depending on the mirror.
type DownloadLink struct {
	Text   string `json:"text"`
	URL    string `json:"url"`
	Source Source `json:"source"`
}

// IsReliable reports whether the link is a LibGen link that also
// names LibGen in its display text. Non-interactive mode prefers
// these when auto-selecting.
func (l DownloadLink) IsReliable() bool {
	return l.Source == SourceLibGen && strings.Contains(strings.ToLower(l.Text), "libgen")
}
