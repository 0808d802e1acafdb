// Package hooks runs user-supplied commands and webhooks when a book
// download finishes or fails.
package hooks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"strings"
	"time"
)

// Event is a download lifecycle event.
type Event string

const (
	EventComplete Event = "complete"
	EventError    Event = "error"
)

// Payload describes the download an event refers to.
type Payload struct {
	Event      Event     `json:"event"`
	URL        string    `json:"url"`
	Title      string    `json:"title,omitempty"`
	Author     string    `json:"author,omitempty"`
	OutputPath string    `json:"output_path"`
	TotalSize  int64     `json:"total_size"`
	Error      string    `json:"error,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
	Duration   float64   `json:"duration_seconds,omitempty"`
}

// Hook reacts to a download event.
type Hook interface {
	Execute(ctx context.Context, payload *Payload) error
	Name() string
}

// CommandHook executes a shell command, passing event details through
// the environment.
type CommandHook struct {
	Command string
	Events  []Event
	Timeout time.Duration
}

// NewCommandHook creates a command hook for the given events.
func NewCommandHook(command string, events ...Event) *CommandHook {
	if len(events) == 0 {
		events = []Event{EventComplete, EventError}
	}
	return &CommandHook{
		Command: command,
		Events:  events,
		Timeout: 30 * time.Second,
	}
}

// Name returns the hook name.
func (h *CommandHook) Name() string {
	return fmt.Sprintf("command:%s", h.Command)
}

// Execute runs the command through the shell.
func (h *CommandHook) Execute(ctx context.Context, payload *Payload) error {
	if !eventIn(payload.Event, h.Events) {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, h.Timeout)
	defer cancel()

	var cmd *exec.Cmd
	if isWindows() {
		cmd = exec.CommandContext(ctx, "cmd", "/C", h.Command)
	} else {
		cmd = exec.CommandContext(ctx, "sh", "-c", h.Command)
	}

	cmd.Env = append(os.Environ(), h.buildEnv(payload)...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("hook command failed: %w (stderr: %s)", err, stderr.String())
	}

	return nil
}

func (h *CommandHook) buildEnv(payload *Payload) []string {
	return []string{
		fmt.Sprintf("SAHAF_EVENT=%s", payload.Event),
		fmt.Sprintf("SAHAF_URL=%s", payload.URL),
		fmt.Sprintf("SAHAF_TITLE=%s", payload.Title),
		fmt.Sprintf("SAHAF_AUTHOR=%s", payload.Author),
		fmt.Sprintf("SAHAF_OUTPUT=%s", payload.OutputPath),
		fmt.Sprintf("SAHAF_SIZE=%d", payload.TotalSize),
		fmt.Sprintf("SAHAF_ERROR=%s", payload.Error),
		fmt.Sprintf("SAHAF_DURATION=%.2f", payload.Duration),
	}
}

// WebhookHook POSTs the payload as JSON.
type WebhookHook struct {
	URL     string
	Events  []Event
	Headers map[string]string
	Timeout time.Duration
	client  *http.Client
}

// NewWebhookHook creates a webhook hook for the given events.
func NewWebhookHook(url string, events ...Event) *WebhookHook {
	if len(events) == 0 {
		events = []Event{EventComplete, EventError}
	}
	return &WebhookHook{
		URL:     url,
		Events:  events,
		Headers: make(map[string]string),
		Timeout: 10 * time.Second,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// WithHeader adds a header to the webhook request.
func (h *WebhookHook) WithHeader(key, value string) *WebhookHook {
	h.Headers[key] = value
	return h
}

// Name returns the hook name.
func (h *WebhookHook) Name() string {
	return fmt.Sprintf("webhook:%s", h.URL)
}

// Execute sends the webhook request.
func (h *WebhookHook) Execute(ctx context.Context, payload *Payload) error {
	if !eventIn(payload.Event, h.Events) {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, h.Timeout)
	defer cancel()

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Sahaf-Webhook/1.0")
	for key, value := range h.Headers {
		req.Header.Set(key, value)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("sending webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	return nil
}

// Manager fans an event out to every registered hook.
type Manager struct {
	hooks []Hook
}

// NewManager creates an empty hook manager.
func NewManager() *Manager {
	return &Manager{}
}

// Add registers a hook.
func (m *Manager) Add(hook Hook) {
	m.hooks = append(m.hooks, hook)
}

// AddCommand registers a command hook.
func (m *Manager) AddCommand(command string, events ...Event) {
	m.Add(NewCommandHook(command, events...))
}

// AddWebhook registers a webhook hook.
func (m *Manager) AddWebhook(url string, events ...Event) {
	m.Add(NewWebhookHook(url, events...))
}

// Execute runs every hook for the event, collecting failures.
func (m *Manager) Execute(ctx context.Context, payload *Payload) error {
	var failures []string

	for _, hook := range m.hooks {
		if err := hook.Execute(ctx, payload); err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", hook.Name(), err))
		}
	}

	if len(failures) > 0 {
		return fmt.Errorf("hook errors: %s", strings.Join(failures, "; "))
	}

	return nil
}

// Count returns the number of registered hooks.
func (m *Manager) Count() int {
	return len(m.hooks)
}

func eventIn(event Event, events []Event) bool {
	for _, e := range events {
		if e == event {
			return true
		}
	}
	return false
}

func isWindows() bool {
	return strings.Contains(strings.ToLower(os.Getenv("OS")), "windows")
}

// CompletePayload builds a payload for a finished download.
func CompletePayload(url, title, author, outputPath string, totalSize int64, duration time.Duration) *Payload {
	return &Payload{
		Event:      EventComplete,
		URL:        url,
		Title:      title,
		Author:     author,
		OutputPath: outputPath,
		TotalSize:  totalSize,
		Timestamp:  time.Now(),
		Duration:   duration.Seconds(),
	}
}

// ErrorPayload builds a payload for a failed download.
func ErrorPayload(url, title string, err error) *Payload {
	p := &Payload{
		Event:     EventError,
		URL:       url,
		Title:     title,
		Timestamp: time.Now(),
	}
	if err != nil {
		p.Error = err.Error()
	}
	return p
}
