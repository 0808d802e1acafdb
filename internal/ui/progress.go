// Package ui provides terminal output helpers for the non-interactive
// path.
package ui

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/kilimcininkoroglu/sahaf/internal/engine"
)

// ProgressBar renders one download's progress as a single rewritten
// terminal line.
type ProgressBar struct {
	width   int
	noColor bool
}

// ProgressBarOption configures a ProgressBar.
type ProgressBarOption func(*ProgressBar)

// WithWidth sets the bar width in characters.
func WithWidth(width int) ProgressBarOption {
	return func(p *ProgressBar) {
		p.width = width
	}
}

// WithNoColor disables colored output.
func WithNoColor(noColor bool) ProgressBarOption {
	return func(p *ProgressBar) {
		p.noColor = noColor
	}
}

// NewProgressBar creates a ProgressBar.
func NewProgressBar(opts ...ProgressBarOption) *ProgressBar {
	p := &ProgressBar{
		width: 40,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

const (
	colorReset = "\033[0m"
	colorGreen = "\033[32m"
	colorBold  = "\033[1m"
)

// Render writes the current progress line, overwriting the previous
// one with a carriage return.
func (p *ProgressBar) Render(w io.Writer, progress engine.Progress, filename string) {
	bar := p.renderBar(progress.Percent)
	sizeStr := fmt.Sprintf("%s/%s", FormatBytes(progress.Downloaded), FormatBytes(progress.TotalSize))
	speedStr := p.formatSpeed(progress.Speed)

	fmt.Fprintf(w, "\r%s %s %s %s", filename, bar, sizeStr, speedStr)
}

// RenderComplete finishes the progress line with a summary.
func (p *ProgressBar) RenderComplete(w io.Writer, progress engine.Progress, path string) {
	fmt.Fprintf(w, "\r%s %s (%s in %s)\n",
		p.color(colorGreen, "✓"),
		p.color(colorBold, path),
		FormatBytes(progress.TotalSize),
		FormatDuration(progress.ElapsedTime))
}

// RenderError finishes the progress line with the failure.
func (p *ProgressBar) RenderError(w io.Writer, filename string, err error) {
	fmt.Fprintf(w, "\r✗ %s failed: %v\n", p.color(colorBold, filename), err)
}

func (p *ProgressBar) renderBar(percent float64) string {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}

	filled := int(float64(p.width) * percent / 100)
	empty := p.width - filled

	bar := strings.Repeat("━", filled) + strings.Repeat("─", empty)
	return p.color(colorGreen, bar) + fmt.Sprintf(" %5.1f%%", percent)
}

func (p *ProgressBar) formatSpeed(bytesPerSec int64) string {
	if bytesPerSec <= 0 {
		return "-- B/s"
	}
	return FormatBytes(bytesPerSec) + "/s"
}

func (p *ProgressBar) color(code, text string) string {
	if p.noColor {
		return text
	}
	return code + text + colorReset
}

// FormatBytes formats a byte count as a human-readable string.
func FormatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}

	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}

	units := []string{"KB", "MB", "GB", "TB", "PB"}
	return fmt.Sprintf("%.1f %s", float64(bytes)/float64(div), units[exp])
}

// FormatDuration formats a duration as mm:ss or hh:mm:ss.
func FormatDuration(d time.Duration) string {
	if d <= 0 {
		return "00:00"
	}

	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}
