package protocol

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/quic-go/quic-go/http3"
)

// HTTP3Client fetches files over HTTP/3 (QUIC). Only used when the
// user opts in; most mirrors still serve HTTP/1.1 or HTTP/2.
type HTTP3Client struct {
	client    *http.Client
	userAgent string
	headers   map[string]string
}

// HTTP3ClientOption configures an HTTP3Client.
type HTTP3ClientOption func(*HTTP3Client)

// WithHTTP3Timeout sets the whole-request timeout.
func WithHTTP3Timeout(timeout time.Duration) HTTP3ClientOption {
	return func(c *HTTP3Client) {
		c.client.Timeout = timeout
	}
}

// WithHTTP3UserAgent overrides the User-Agent header.
func WithHTTP3UserAgent(ua string) HTTP3ClientOption {
	return func(c *HTTP3Client) {
		c.userAgent = ua
	}
}

// WithHTTP3InsecureSkipVerify disables TLS certificate verification.
func WithHTTP3InsecureSkipVerify(skip bool) HTTP3ClientOption {
	return func(c *HTTP3Client) {
		if !skip {
			return
		}
		if t, ok := c.client.Transport.(*http3.Transport); ok {
			t.TLSClientConfig.InsecureSkipVerify = true
		}
	}
}

// NewHTTP3Client creates an HTTP/3 client with the given options.
func NewHTTP3Client(opts ...HTTP3ClientOption) *HTTP3Client {
	roundTripper := &http3.Transport{
		TLSClientConfig: &tls.Config{},
	}

	c := &HTTP3Client{
		client: &http.Client{
			Transport: roundTripper,
			Timeout:   30 * time.Second,
		},
		userAgent: RandomUserAgent(),
		headers:   make(map[string]string),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Supports checks if this client handles the URL. QUIC requires TLS,
// so only https URLs qualify.
func (c *HTTP3Client) Supports(u *url.URL) bool {
	return u.Scheme == "https"
}

// Get fetches rawURL over HTTP/3 and returns the body with metadata.
func (c *HTTP3Client) Get(ctx context.Context, rawURL string) (io.ReadCloser, *Metadata, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("creating GET request: %w", err)
	}

	c.setHeaders(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("executing GET request: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		return nil, nil, fmt.Errorf("GET request failed: %s", resp.Status)
	}

	return resp.Body, parseMetadata(rawURL, resp), nil
}

func (c *HTTP3Client) setHeaders(req *http.Request) {
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "*/*")
	req.Header.Set("Accept-Encoding", "identity")

	for key, value := range c.headers {
		req.Header.Set(key, value)
	}
}

// Close releases the QUIC transport.
func (c *HTTP3Client) Close() error {
	if t, ok := c.client.Transport.(*http3.Transport); ok {
		return t.Close()
	}
	return nil
}
