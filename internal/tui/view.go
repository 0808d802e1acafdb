package tui

import (
	"fmt"
	"strings"
)

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("📚 Sahaf"))
	b.WriteString("\n\n")

	switch m.mode {
	case ModeSearch:
		b.WriteString(m.viewSearch())
	case ModeResults:
		b.WriteString(m.viewResults())
	case ModeDownloadSelection:
		b.WriteString(m.viewDownloadSelection())
	case ModeDownloading:
		b.WriteString(m.viewDownloading())
	case ModeError:
		b.WriteString(m.viewError())
	case ModeHelp:
		b.WriteString(m.viewHelp())
	}

	b.WriteString("\n\n")
	b.WriteString(m.viewFooter())

	return b.String()
}

func (m Model) viewSearch() string {
	var b strings.Builder

	b.WriteString(boxStyle.Render(highlightStyle.Render("Search: ") + m.query + "█"))
	if m.status != "" {
		b.WriteString("\n\n")
		b.WriteString(successStyle.Render(m.status))
	}

	return b.String()
}

func (m Model) viewResults() string {
	var b strings.Builder

	b.WriteString(dimStyle.Render(fmt.Sprintf("%d results for %q", len(m.books), m.query)))
	b.WriteString("\n\n")

	end := m.scroll + visibleResults
	if end > len(m.books) {
		end = len(m.books)
	}

	for i := m.scroll; i < end; i++ {
		book := m.books[i]

		marker := "  "
		titleLine := book.Title
		if i == m.cursor {
			marker = "▸ "
			titleLine = highlightStyle.Render(titleLine)
		}
		b.WriteString(marker + titleLine + "\n")

		var meta []string
		if book.Author != "" {
			meta = append(meta, book.Author)
		}
		if book.Year != "" {
			meta = append(meta, book.Year)
		}
		if book.Language != "" {
			meta = append(meta, book.Language)
		}
		if book.Format != "" {
			meta = append(meta, book.Format)
		}
		if book.Size != "" {
			meta = append(meta, book.Size)
		}
		if len(meta) > 0 {
			b.WriteString("    " + dimStyle.Render(strings.Join(meta, " · ")) + "\n")
		}
	}

	if end < len(m.books) {
		b.WriteString(dimStyle.Render(fmt.Sprintf("\n… %d more", len(m.books)-end)))
	}

	return b.String()
}

func (m Model) viewDownloadSelection() string {
	var b strings.Builder

	if m.selected != nil {
		b.WriteString(dimStyle.Render("Links for " + m.selected.Title))
		b.WriteString("\n\n")
	}

	for i, link := range m.links {
		marker := "  "
		text := link.Text
		if text == "" {
			text = link.URL
		}
		if i == m.linkCursor {
			marker = "▸ "
			text = highlightStyle.Render(text)
		}

		label := dimStyle.Render("[" + string(link.Source) + "]")
		if link.IsReliable() {
			label = reliableStyle.Render("[" + string(link.Source) + " ✓]")
		}

		b.WriteString(fmt.Sprintf("%s%s %s\n", marker, text, label))
	}

	return b.String()
}

func (m Model) viewDownloading() string {
	return m.spinner.View() + " " + m.status
}

func (m Model) viewError() string {
	return boxStyle.Render(errorStyle.Render("✗ " + m.errMsg))
}

var helpLines = []string{
	"Keys",
	"",
	"  Enter      search / select / confirm",
	"  ↓ / j      move down",
	"  ↑ / k      move up",
	"  Esc        go back",
	"  F1         toggle this help",
	"  Ctrl+C     quit",
	"",
	"Search results come from the configured site and are cached",
	"locally for a day. Download links marked with ✓ point at",
	"LibGen mirrors and are usually the most dependable choice.",
}

func (m Model) viewHelp() string {
	start := m.helpScroll
	if start > len(helpLines)-1 {
		start = len(helpLines) - 1
	}

	return strings.Join(helpLines[start:], "\n")
}

func (m Model) viewFooter() string {
	var keys []string

	switch m.mode {
	case ModeSearch:
		keys = []string{"enter:search", "f1:help", "esc:quit"}
	case ModeResults:
		keys = []string{"↑↓:move", "enter:select", "esc:back", "f1:help"}
	case ModeDownloadSelection:
		keys = []string{"↑↓:move", "enter:download", "esc:back", "f1:help"}
	case ModeDownloading:
		keys = []string{"ctrl+c:quit"}
	case ModeError:
		keys = []string{"esc/enter:back"}
	case ModeHelp:
		keys = []string{"↑↓:scroll", "esc/f1:back"}
	}

	return dimStyle.Render(strings.Join(keys, " • "))
}
