package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
)

// Runner owns the Bubbletea program for one interactive session.
type Runner struct {
	model   Model
	program *tea.Program
}

// NewRunner creates a runner around a fresh model. An initial query,
// when non-empty, is searched immediately on startup.
func NewRunner(ctx context.Context, searcher Searcher, downloader Downloader, maxResults int, downloadDir, initialQuery string) *Runner {
	var opts []ModelOption
	if initialQuery != "" {
		opts = append(opts, WithInitialQuery(initialQuery))
	}

	return &Runner{
		model: NewModel(ctx, searcher, downloader, maxResults, downloadDir, opts...),
	}
}

// Run starts the interface and blocks until the user exits.
func (r *Runner) Run() error {
	r.program = tea.NewProgram(r.model, tea.WithAltScreen())

	_, err := r.program.Run()
	return err
}

// Stop asks the running program to quit.
func (r *Runner) Stop() {
	if r.program != nil {
		r.program.Quit()
	}
}
