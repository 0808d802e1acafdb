package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// Update implements tea.Model. Every (mode, key) pair has a defined
// outcome; unhandled keys are no-ops.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.quitting = true
			return m, tea.Quit
		}

		switch m.mode {
		case ModeSearch:
			return m.updateSearch(msg)
		case ModeResults:
			return m.updateResults(msg)
		case ModeDownloadSelection:
			return m.updateDownloadSelection(msg)
		case ModeError:
			return m.updateError(msg)
		case ModeHelp:
			return m.updateHelp(msg)
		case ModeDownloading:
			// Only the global Ctrl+C is handled while an operation is
			// in flight, so a repeated Enter cannot double-dispatch.
			return m, nil
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case searchResultMsg:
		return m.applySearchResult(msg)

	case linksResultMsg:
		return m.applyLinksResult(msg)

	case downloadDoneMsg:
		return m.applyDownloadDone(msg)
	}

	return m, nil
}

func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		if strings.TrimSpace(m.query) == "" {
			return m, nil
		}
		m.mode = ModeDownloading
		m.status = "Searching..."
		return m, m.searchCmd()

	case "backspace":
		if r := []rune(m.query); len(r) > 0 {
			m.query = string(r[:len(r)-1])
		}
		return m, nil

	case "esc":
		m.quitting = true
		return m, tea.Quit

	case "f1":
		m.mode = ModeHelp
		m.helpScroll = 0
		return m, nil

	case " ":
		m.query += " "
		return m, nil
	}

	if msg.Type == tea.KeyRunes {
		m.query += string(msg.Runes)
	}
	return m, nil
}

func (m Model) updateResults(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "down", "j":
		if m.cursor < len(m.books)-1 {
			m.cursor++
			if m.cursor >= m.scroll+visibleResults {
				m.scroll++
			}
		}

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
			if m.cursor < m.scroll {
				m.scroll = m.cursor
			}
		}

	case "enter":
		if len(m.books) == 0 {
			return m, nil
		}
		book := m.books[m.cursor]
		m.selected = &book
		m.mode = ModeDownloading
		m.status = "Fetching download links..."
		return m, m.fetchLinksCmd(book.URL)

	case "esc":
		m.query = ""
		m.books = nil
		m.cursor = 0
		m.scroll = 0
		m.mode = ModeSearch

	case "f1":
		m.mode = ModeHelp
		m.helpScroll = 0
	}

	return m, nil
}

func (m Model) updateDownloadSelection(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "down", "j":
		if m.linkCursor < len(m.links)-1 {
			m.linkCursor++
		}

	case "up", "k":
		if m.linkCursor > 0 {
			m.linkCursor--
		}

	case "enter":
		if len(m.links) == 0 {
			return m, nil
		}
		link := m.links[m.linkCursor]
		filename := m.selected.DownloadFilename()
		m.mode = ModeDownloading
		m.status = fmt.Sprintf("Downloading %s...", filename)
		return m, m.downloadCmd(link.URL, filename)

	case "esc":
		m.links = nil
		m.linkCursor = 0
		m.mode = ModeResults

	case "f1":
		m.mode = ModeHelp
		m.helpScroll = 0
	}

	return m, nil
}

func (m Model) updateError(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "enter":
		m.errMsg = ""
		m.mode = ModeSearch
	}
	return m, nil
}

func (m Model) updateHelp(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "f1":
		m.mode = ModeSearch

	case "down", "j":
		m.helpScroll++

	case "up", "k":
		if m.helpScroll > 0 {
			m.helpScroll--
		}
	}
	return m, nil
}

// Asynchronous results are applied regardless of the active mode. A
// result arriving after the user backed out of the originating screen
// still lands.

func (m Model) applySearchResult(msg searchResultMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.mode = ModeError
		m.errMsg = msg.err.Error()
		return m, nil
	}
	if len(msg.books) == 0 {
		m.mode = ModeError
		m.errMsg = "No results found"
		return m, nil
	}

	m.books = msg.books
	m.cursor = 0
	m.scroll = 0
	m.status = ""
	m.mode = ModeResults
	return m, nil
}

func (m Model) applyLinksResult(msg linksResultMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.mode = ModeError
		m.errMsg = msg.err.Error()
		return m, nil
	}
	if len(msg.links) == 0 {
		m.mode = ModeError
		m.errMsg = "No download links found"
		return m, nil
	}

	m.links = msg.links
	m.linkCursor = 0
	m.status = ""
	m.mode = ModeDownloadSelection
	return m, nil
}

func (m Model) applyDownloadDone(msg downloadDoneMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.mode = ModeError
		m.errMsg = msg.err.Error()
		return m, nil
	}

	m.query = ""
	m.books = nil
	m.cursor = 0
	m.scroll = 0
	m.links = nil
	m.linkCursor = 0
	m.selected = nil
	m.status = fmt.Sprintf("Saved to %s", msg.path)
	m.mode = ModeSearch
	return m, nil
}
