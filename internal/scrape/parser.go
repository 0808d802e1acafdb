package scrape

import (
	"io"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Ranked selectors for result anchors. The site's markup shifts
// between deployments, so the parser tries each in order and commits
// to the first one that matches anything at all.
var resultSelectors = []string{
	"a.js-vim-focus.custom-a",
	"a[href*='md5']",
	".book-title a",
	"a[href*='book']",
}

// Class-name fragments that mark a result's metadata container.
var containerSignals = []string{"flex", "book-item", "border", "pt-3"}

// Selectors for the page section that groups external download
// options, tried in order.
var downloadSectionSelectors = []string{
	"#external-downloads",
	".external-downloads",
	"[data-section='downloads']",
}

// Selectors for individual download anchors. Unlike the result
// selectors these accumulate across every pattern, since mirrors are
// scattered through the page.
var downloadLinkSelectors = []string{
	"a[href*='libgen']",
	"a[href*='download']",
	"a[href*='mirror']",
	"a[href*='get.php']",
	".download-link",
}

// ParseSearchResults extracts up to maxResults books from a search
// page. Anchor hrefs are resolved against origin. Malformed or
// unrecognized HTML yields an empty slice, never an error.
func ParseSearchResults(r io.Reader, origin *url.URL, maxResults int) ([]Book, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, nil
	}

	var books []Book
	for _, selector := range resultSelectors {
		matches := doc.Find(selector)
		if matches.Length() == 0 {
			continue
		}

		// The first selector with any match decides the result, even
		// when every matched anchor is dropped for an empty title.
		matches.EachWithBreak(func(_ int, item *goquery.Selection) bool {
			if len(books) >= maxResults {
				return false
			}
			if book, ok := extractBook(item, origin); ok {
				books = append(books, book)
			}
			return true
		})
		break
	}
	return books, nil
}

// extractBook builds a Book from a title anchor. Entries without
// title text or an href are dropped.
func extractBook(item *goquery.Selection, origin *url.URL) (Book, bool) {
	title := strings.TrimSpace(item.Text())
	if title == "" {
		return Book{}, false
	}

	href, ok := item.Attr("href")
	if !ok || href == "" {
		return Book{}, false
	}
	ref, err := url.Parse(href)
	if err != nil {
		return Book{}, false
	}

	book := Book{
		Title: title,
		URL:   origin.ResolveReference(ref).String(),
	}

	// Metadata lives in an ancestor container; without one the
	// title and URL are still worth keeping.
	if container := findContainer(item); container != nil {
		text := container.Text()
		book.Author, _ = ExtractAuthor(text, title)
		book.Year, _ = ExtractYear(text)
		book.Language, _ = ExtractLanguage(text)
		book.Format, _ = ExtractFormat(text)
		book.Size, _ = ExtractSize(text)
	}
	return book, true
}

// findContainer walks up to five ancestor levels looking for an
// element whose class attribute carries one of the known container
// signals. This is coupled to one site's markup; keeping it behind a
// single function makes it the only thing to touch when the site's
// structure changes.
func findContainer(item *goquery.Selection) *goquery.Selection {
	node := item.Parent()
	for depth := 0; depth < 5 && node.Length() > 0; depth++ {
		class, _ := node.Attr("class")
		for _, signal := range containerSignals {
			if strings.Contains(class, signal) {
				return node
			}
		}
		node = node.Parent()
	}
	return nil
}

// ParseDownloadLinks extracts download options from a book detail
// page. It first scopes the scan to the first recognized
// external-downloads section; if that scope yields no links it falls
// back to scanning the whole document, accumulating matches from
// every link pattern.
// Links are deduplicated by URL with the first occurrence winning.
func ParseDownloadLinks(r io.Reader) ([]DownloadLink, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, nil
	}

	var links []DownloadLink
	for _, selector := range downloadSectionSelectors {
		section := doc.Find(selector).First()
		if section.Length() == 0 {
			continue
		}
		// The first section that exists decides the scoped result; a
		// linkless section sends the scan straight to the document-
		// wide fallback.
		links = collectLinks(section, links)
		break
	}

	if len(links) == 0 {
		links = collectLinks(doc.Selection, links)
	}
	return links, nil
}

// collectLinks gathers anchors under root matching any download-link
// selector, skipping URLs already present in acc.
func collectLinks(root *goquery.Selection, acc []DownloadLink) []DownloadLink {
	seen := make(map[string]bool, len(acc))
	for _, l := range acc {
		seen[l.URL] = true
	}
	for _, selector := range downloadLinkSelectors {
		root.Find(selector).Each(func(_ int, item *goquery.Selection) {
			href, ok := item.Attr("href")
			if !ok || href == "" || seen[href] {
				return
			}
			seen[href] = true
			acc = append(acc, DownloadLink{
				Text:   strings.TrimSpace(item.Text()),
				URL:    href,
				Source: DetectSource(href),
			})
		})
	}
	return acc
}
