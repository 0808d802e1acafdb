package hooks

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestCommandHook(t *testing.T) {
	if isWindows() {
		t.Skip("shell hook test is unix-only")
	}

	outFile := filepath.Join(t.TempDir(), "hook.out")
	hook := NewCommandHook(`echo "$SAHAF_EVENT $SAHAF_TITLE" > ` + outFile)

	payload := CompletePayload("https://m.example/b.epub", "A Title", "Jane Doe", "/tmp/b.epub", 1024, 2*time.Second)
	if err := hook.Execute(context.Background(), payload); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	data, err := os.ReadFile(outFile)
	if err != nil {
		t.Fatalf("hook output missing: %v", err)
	}
	if got := strings.TrimSpace(string(data)); got != "complete A Title" {
		t.Errorf("hook wrote %q, want %q", got, "complete A Title")
	}
}

func TestCommandHookEventFilter(t *testing.T) {
	if isWindows() {
		t.Skip("shell hook test is unix-only")
	}

	outFile := filepath.Join(t.TempDir(), "hook.out")
	hook := NewCommandHook("touch "+outFile, EventError)

	// A complete event must not fire an error-only hook.
	payload := CompletePayload("https://m.example/b.epub", "t", "a", "/tmp/b", 1, time.Second)
	if err := hook.Execute(context.Background(), payload); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if _, err := os.Stat(outFile); !os.IsNotExist(err) {
		t.Error("error-only hook fired for a complete event")
	}
}

func TestCommandHookFailure(t *testing.T) {
	if isWindows() {
		t.Skip("shell hook test is unix-only")
	}

	hook := NewCommandHook("exit 3")
	payload := ErrorPayload("https://m.example/b.epub", "t", nil)

	if err := hook.Execute(context.Background(), payload); err == nil {
		t.Fatal("Execute() error = nil, want command failure")
	}
}

func TestWebhookHook(t *testing.T) {
	var received Payload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q, want application/json", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("decoding payload: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	hook := NewWebhookHook(server.URL).WithHeader("X-Token", "abc")
	payload := CompletePayload("https://m.example/b.epub", "A Title", "Jane Doe", "/tmp/b.epub", 1024, time.Second)

	if err := hook.Execute(context.Background(), payload); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if received.Title != "A Title" || received.Event != EventComplete {
		t.Errorf("received payload = %+v", received)
	}
}

func TestWebhookHookServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer server.Close()

	hook := NewWebhookHook(server.URL)
	payload := ErrorPayload("https://m.example/b.epub", "t", nil)

	if err := hook.Execute(context.Background(), payload); err == nil {
		t.Fatal("Execute() error = nil, want status error")
	}
}

func TestManager(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	m := NewManager()
	m.AddWebhook(server.URL)
	m.AddWebhook(server.URL, EventError)

	if m.Count() != 2 {
		t.Fatalf("Count() = %d, want 2", m.Count())
	}

	payload := CompletePayload("https://m.example/b.epub", "t", "a", "/tmp/b", 1, time.Second)
	if err := m.Execute(context.Background(), payload); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if calls != 1 {
		t.Errorf("webhook calls = %d, want 1 (error-only hook filtered)", calls)
	}
}

func TestErrorPayload(t *testing.T) {
	p := ErrorPayload("https://m.example/b.epub", "t", context.DeadlineExceeded)
	if p.Event != EventError {
		t.Errorf("Event = %q, want error", p.Event)
	}
	if p.Error == "" {
		t.Error("Error field empty, want message")
	}

	if p := ErrorPayload("u", "t", nil); p.Error != "" {
		t.Errorf("Error = %q for nil error, want empty", p.Error)
	}
}
