package protocol

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"
)

func TestHTTPClient_Supports(t *testing.T) {
	client := NewHTTPClient()

	tests := []struct {
		name     string
		rawURL   string
		expected bool
	}{
		{"http scheme", "http://libgen.rs/get.php?id=1", true},
		{"https scheme", "https://annas-archive.org/md5/abc", true},
		{"HTTPS uppercase", "HTTPS://annas-archive.org/md5/abc", true},
		{"ftp scheme", "ftp://mirror.example.com/book.epub", false},
		{"no scheme", "annas-archive.org/md5/abc", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := url.Parse(tt.rawURL)
			if err != nil {
				t.Fatalf("Failed to parse URL: %v", err)
			}

			got := client.Supports(u)
			if got != tt.expected {
				t.Errorf("Supports(%q) = %v, want %v", tt.rawURL, got, tt.expected)
			}
		})
	}
}

func TestHTTPClient_Get(t *testing.T) {
	content := []byte("book bytes")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("Expected GET request, got %s", r.Method)
		}
		if ua := r.Header.Get("User-Agent"); !strings.Contains(ua, "Chrome") {
			t.Errorf("User-Agent = %q, want a browser string", ua)
		}

		w.Header().Set("Content-Type", "application/epub+zip")
		w.Header().Set("Content-Disposition", `attachment; filename="book.epub"`)
		w.Header().Set("Last-Modified", "Mon, 02 Jan 2006 15:04:05 GMT")
		w.WriteHeader(http.StatusOK)
		w.Write(content)
	}))
	defer server.Close()

	client := NewHTTPClient()
	ctx := context.Background()

	body, meta, err := client.Get(ctx, server.URL+"/book.epub")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if string(data) != string(content) {
		t.Errorf("body = %q, want %q", data, content)
	}

	if meta.ContentLength != int64(len(content)) {
		t.Errorf("ContentLength = %d, want %d", meta.ContentLength, len(content))
	}
	if meta.ContentType != "application/epub+zip" {
		t.Errorf("ContentType = %q, want application/epub+zip", meta.ContentType)
	}
	if meta.Filename != "book.epub" {
		t.Errorf("Filename = %q, want book.epub", meta.Filename)
	}
	if meta.LastModified.IsZero() {
		t.Error("LastModified is zero, want parsed header value")
	}
}

func TestHTTPClient_GetNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	client := NewHTTPClient()

	_, _, err := client.Get(context.Background(), server.URL+"/missing")
	if err == nil {
		t.Fatal("Get() error = nil, want status error")
	}
	if !strings.Contains(err.Error(), "404") {
		t.Errorf("error = %v, want mention of the HTTP status", err)
	}
}

func TestHTTPClient_GetCustomHeader(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("X-Requested-With"); got != "sahaf" {
			t.Errorf("X-Requested-With = %q, want sahaf", got)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewHTTPClient(WithHeader("X-Requested-With", "sahaf"))

	body, _, err := client.Get(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	body.Close()
}

func TestHTTPClient_GetContextCancel(t *testing.T) {
	started := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(started)
		<-r.Context().Done()
	}))
	defer server.Close()

	client := NewHTTPClient()
	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		<-started
		cancel()
	}()

	_, _, err := client.Get(ctx, server.URL)
	if err == nil {
		t.Fatal("Get() error = nil, want cancellation error")
	}
}

func TestWithTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewHTTPClient(WithTimeout(50 * time.Millisecond))

	_, _, err := client.Get(context.Background(), server.URL)
	if err == nil {
		t.Fatal("Get() error = nil, want timeout error")
	}
}

func TestWithUserAgent(t *testing.T) {
	client := NewHTTPClient(WithUserAgent("custom/1.0"))
	if client.UserAgent() != "custom/1.0" {
		t.Errorf("UserAgent() = %q, want custom/1.0", client.UserAgent())
	}
}

func TestRandomUserAgent(t *testing.T) {
	for i := 0; i < 20; i++ {
		ua := RandomUserAgent()
		found := false
		for _, known := range userAgents {
			if ua == known {
				found = true
			}
		}
		if !found {
			t.Fatalf("RandomUserAgent() = %q, not in the known set", ua)
		}
	}
}

func TestExtractFilename(t *testing.T) {
	tests := []struct {
		name        string
		disposition string
		want        string
	}{
		{"quoted", `attachment; filename="My Book.epub"`, "My Book.epub"},
		{"bare", "attachment; filename=book.pdf", "book.pdf"},
		{"RFC 5987", "attachment; filename*=UTF-8''kitap%20adi.epub", "kitap adi.epub"},
		{"no filename parameter", "inline", ""},
		{"no header", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := &http.Response{Header: http.Header{}}
			if tt.disposition != "" {
				resp.Header.Set("Content-Disposition", tt.disposition)
			}

			got := extractFilename(resp)
			if got != tt.want {
				t.Errorf("extractFilename() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseContentDisposition(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{`attachment; filename="a.epub"`, "a.epub"},
		{`attachment; filename=a.epub`, "a.epub"},
		{`attachment; filename='a.epub'`, "a.epub"},
		{`attachment; filename="book%20name.pdf"`, "book name.pdf"},
		{`inline`, ""},
		{`attachment; filename*=UTF-8''%C3%BCt%C3%BC.pdf`, "ütü.pdf"},
		{``, ""},
	}

	for _, tt := range tests {
		if got := parseContentDisposition(tt.header); got != tt.want {
			t.Errorf("parseContentDisposition(%q) = %q, want %q", tt.header, got, tt.want)
		}
	}
}
