// Package tui provides the modal terminal user interface using Bubbletea.
package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kilimcininkoroglu/sahaf/internal/scrape"
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			MarginBottom(1)

	successStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("42"))

	errorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("196"))

	highlightStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	reliableStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)
)

// Mode identifies which screen of the interface is active. Modes are
// mutually exclusive.
type Mode int

const (
	ModeSearch Mode = iota
	ModeResults
	ModeDownloadSelection
	ModeDownloading
	ModeError
	ModeHelp
)

// visibleResults is the number of result rows shown before the list
// starts scrolling.
const visibleResults = 10

// Searcher runs queries and fetches download links for a book page.
type Searcher interface {
	Search(ctx context.Context, query string, maxResults int) ([]scrape.Book, error)
	BookDetails(ctx context.Context, bookURL string) ([]scrape.DownloadLink, error)
}

// Downloader streams a URL to a file under destDir.
type Downloader interface {
	Download(ctx context.Context, rawURL, destDir, suggestedName string) (string, error)
}

// Model is the Bubbletea model for the search and download interface.
type Model struct {
	mode Mode

	query      string
	books      []scrape.Book
	cursor     int
	scroll     int
	links      []scrape.DownloadLink
	linkCursor int
	helpScroll int

	// selected is the book whose links are currently shown or being
	// downloaded. Nil outside those modes.
	selected *scrape.Book

	status string
	errMsg string

	searcher    Searcher
	downloader  Downloader
	maxResults  int
	downloadDir string

	ctx      context.Context
	spinner  spinner.Model
	width    int
	height   int
	quitting bool
}

// searchResultMsg carries the outcome of an asynchronous search.
type searchResultMsg struct {
	books []scrape.Book
	err   error
}

// linksResultMsg carries the outcome of a detail-page fetch.
type linksResultMsg struct {
	links []scrape.DownloadLink
	err   error
}

// downloadDoneMsg carries the outcome of a download.
type downloadDoneMsg struct {
	path string
	err  error
}

// ModelOption configures a Model.
type ModelOption func(*Model)

// WithInitialQuery pre-fills the query and dispatches a search as soon
// as the program starts.
func WithInitialQuery(query string) ModelOption {
	return func(m *Model) {
		m.query = query
		if strings.TrimSpace(query) != "" {
			m.mode = ModeDownloading
			m.status = "Searching..."
		}
	}
}

// NewModel creates the initial model in search mode.
func NewModel(ctx context.Context, searcher Searcher, downloader Downloader, maxResults int, downloadDir string, opts ...ModelOption) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))

	m := Model{
		mode:        ModeSearch,
		searcher:    searcher,
		downloader:  downloader,
		maxResults:  maxResults,
		downloadDir: downloadDir,
		ctx:         ctx,
		spinner:     s,
		width:       80,
		height:      24,
	}

	for _, opt := range opts {
		opt(&m)
	}

	return m
}

// Mode returns the active mode.
func (m Model) Mode() Mode {
	return m.mode
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.spinner.Tick, tea.EnterAltScreen}
	if m.mode == ModeDownloading {
		cmds = append(cmds, m.searchCmd())
	}
	return tea.Batch(cmds...)
}
