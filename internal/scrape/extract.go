package scrape

import (
	"regexp"
	"strings"
)

// The extraction heuristics below operate on the free text of a search
// result's container element. The site does not expose machine-readable
// metadata, so these are deliberately permissive pattern matches rather
// than a strict grammar.

var (
	yearRe     = regexp.MustCompile(`\b(19|20)\d{2}\b`)
	languageRe = regexp.MustCompile(`(\w+)\s+\[([a-z]{2})\]`)
	formatRe   = regexp.MustCompile(`\b(EPUB|PDF|MOBI|AZW3|TXT|DOC|DOCX)\b`)
	sizeRe     = regexp.MustCompile(`(\d+\.?\d*\s*[MKG]B)`)
	authorRe   = regexp.MustCompile(`^[A-Za-z\s,\.]+$`)
)

// ExtractYear returns the first bare four-digit year starting with 19
// or 20.
func ExtractYear(text string) (string, bool) {
	m := yearRe.FindString(text)
	return m, m != ""
}

// ExtractLanguage returns the word preceding a bracketed two-letter
// language code, e.g. "English" from "English [en]". The code itself
// is discarded.
func ExtractLanguage(text string) (string, bool) {
	m := languageRe.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// ExtractFormat returns the first whole-word match of the known ebook
// format vocabulary. The match is case-sensitive; the site renders
// formats in upper case.
func ExtractFormat(text string) (string, bool) {
	m := formatRe.FindString(text)
	return m, m != ""
}

// ExtractSize returns the first file-size token like "4.2 MB".
func ExtractSize(text string) (string, bool) {
	m := sizeRe.FindString(text)
	return m, m != ""
}

// ExtractAuthor scans the container text line by line and accepts the
// first short line that looks like a person's name: under 50
// characters, no leading bracket, no URL, only letters, whitespace,
// commas and periods. The title line and blank lines are skipped.
// Earlier qualifying lines win, so document order matters.
func ExtractAuthor(text, title string) (string, bool) {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || line == strings.TrimSpace(title) {
			continue
		}
		if len(line) >= 50 || strings.HasPrefix(line, "[") || strings.Contains(line, "http") {
			continue
		}
		if authorRe.MatchString(line) {
			return line, true
		}
	}
	return "", false
}
