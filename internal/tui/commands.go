package tui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// searchCmd runs the current query against the search client.
func (m Model) searchCmd() tea.Cmd {
	ctx, query, maxResults := m.ctx, m.query, m.maxResults
	searcher := m.searcher

	return func() tea.Msg {
		books, err := searcher.Search(ctx, query, maxResults)
		return searchResultMsg{books: books, err: err}
	}
}

// fetchLinksCmd fetches the download links for a book page.
func (m Model) fetchLinksCmd(bookURL string) tea.Cmd {
	ctx, searcher := m.ctx, m.searcher

	return func() tea.Msg {
		links, err := searcher.BookDetails(ctx, bookURL)
		return linksResultMsg{links: links, err: err}
	}
}

// downloadCmd streams the chosen link to the download directory.
func (m Model) downloadCmd(rawURL, filename string) tea.Cmd {
	ctx, downloader, dir := m.ctx, m.downloader, m.downloadDir

	return func() tea.Msg {
		path, err := downloader.Download(ctx, rawURL, dir, filename)
		return downloadDoneMsg{path: path, err: err}
	}
}
