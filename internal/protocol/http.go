// Package protocol provides transport adapters for fetching pages and
// files over HTTP, HTTP/3 and FTP.
package protocol

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/proxy"
)

// Browser User-Agent strings rotated across client instances. Mirrors
// reject obvious bot agents, so every client presents as Chrome.
var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
}

// RandomUserAgent picks one of the browser User-Agent strings. Each
// client instance keeps the one it drew for its whole lifetime.
func RandomUserAgent() string {
	return userAgents[rand.Intn(len(userAgents))]
}

// Metadata describes a remote file as reported by the server.
type Metadata struct {
	URL           string
	Filename      string
	ContentLength int64
	ContentType   string
	LastModified  time.Time
}

// HTTPClient fetches pages and files over HTTP(S).
type HTTPClient struct {
	client    *http.Client
	userAgent string
	headers   map[string]string
}

// HTTPClientOption configures an HTTPClient.
type HTTPClientOption func(*HTTPClient)

// WithTimeout sets the whole-request timeout.
func WithTimeout(timeout time.Duration) HTTPClientOption {
	return func(c *HTTPClient) {
		c.client.Timeout = timeout
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) HTTPClientOption {
	return func(c *HTTPClient) {
		c.userAgent = ua
	}
}

// WithHeader adds a custom header to every request.
func WithHeader(key, value string) HTTPClientOption {
	return func(c *HTTPClient) {
		c.headers[key] = value
	}
}

// WithProxy routes requests through an HTTP or HTTPS proxy.
func WithProxy(proxyURL string) HTTPClientOption {
	return func(c *HTTPClient) {
		if proxyURL == "" {
			return
		}

		parsed, err := url.Parse(proxyURL)
		if err != nil {
			return
		}

		transport := c.getTransport()
		transport.Proxy = http.ProxyURL(parsed)
	}
}

// WithSOCKS5Proxy routes requests through a SOCKS5 proxy. The address
// may be a bare host:port or a socks5:// URL carrying credentials.
func WithSOCKS5Proxy(proxyAddr string, auth *proxy.Auth) HTTPClientOption {
	return func(c *HTTPClient) {
		if proxyAddr == "" {
			return
		}

		if strings.HasPrefix(proxyAddr, "socks5://") {
			parsed, err := url.Parse(proxyAddr)
			if err != nil {
				return
			}
			proxyAddr = parsed.Host
			if parsed.User != nil {
				password, _ := parsed.User.Password()
				auth = &proxy.Auth{
					User:     parsed.User.Username(),
					Password: password,
				}
			}
		}

		dialer, err := proxy.SOCKS5("tcp", proxyAddr, auth, proxy.Direct)
		if err != nil {
			return
		}

		transport := c.getTransport()
		transport.DialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
			return dialer.Dial(network, addr)
		}
	}
}

// WithInsecureSkipVerify disables TLS certificate verification.
func WithInsecureSkipVerify(skip bool) HTTPClientOption {
	return func(c *HTTPClient) {
		if !skip {
			return
		}
		transport := c.getTransport()
		if transport.TLSClientConfig == nil {
			transport.TLSClientConfig = &tls.Config{}
		}
		transport.TLSClientConfig.InsecureSkipVerify = true
	}
}

// getTransport returns the underlying transport, creating one if needed.
func (c *HTTPClient) getTransport() *http.Transport {
	if t, ok := c.client.Transport.(*http.Transport); ok {
		return t
	}
	t := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	}
	c.client.Transport = t
	return t
}

// NewHTTPClient creates an HTTP client with the given options. The
// User-Agent defaults to a randomly drawn browser string.
func NewHTTPClient(opts ...HTTPClientOption) *HTTPClient {
	c := &HTTPClient{
		client: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		userAgent: RandomUserAgent(),
		headers:   make(map[string]string),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// UserAgent returns the User-Agent string this client presents.
func (c *HTTPClient) UserAgent() string {
	return c.userAgent
}

// Supports checks if the URL is handled by this adapter.
func (c *HTTPClient) Supports(u *url.URL) bool {
	scheme := strings.ToLower(u.Scheme)
	return scheme == "http" || scheme == "https"
}

// Get fetches rawURL and returns the body stream with metadata. A
// non-2xx status closes the body and is reported as an error distinct
// from transport failures.
func (c *HTTPClient) Get(ctx context.Context, rawURL string) (io.ReadCloser, *Metadata, error) {
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

// setHeaders sets common headers on the request.
func (c *HTTPClient) setHeaders(req *http.Request) {
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "*/*")
	req.Header.Set("Accept-Encoding", "identity")

	for key, value := range c.headers {
		req.Header.Set(key, value)
	}
}

// parseMetadata extracts file metadata from an HTTP response.
func parseMetadata(rawURL string, resp *http.Response) *Metadata {
	meta := &Metadata{
		URL:         rawURL,
		ContentType: resp.Header.Get("Content-Type"),
	}

	if cl := resp.Header.Get("Content-Length"); cl != "" {
		if length, err := strconv.ParseInt(cl, 10, 64); err == nil {
			meta.ContentLength = length
		}
	}

	if lm := resp.Header.Get("Last-Modified"); lm != "" {
		if t, err := http.ParseTime(lm); err == nil {
			meta.LastModified = t
		}
	}

	meta.Filename = extractFilename(resp)
	return meta
}

// extractFilename resolves the server-suggested filename from the
// Content-Disposition header. Returns "" when the header is absent or
// carries no filename; choosing a fallback is the caller's concern.
func extractFilename(resp *http.Response) string {
	cd := resp.Header.Get("Content-Disposition")
	if cd == "" {
		return ""
	}
	return parseContentDisposition(cd)
}

// parseContentDisposition extracts a filename parameter from a
// Content-Disposition header. Both the plain filename= form and the
// RFC 5987 filename*= form are handled, with the starred form taking
// priority when it appears first in the header.
func parseContentDisposition(cd string) string {
	parts := strings.Split(cd, ";")
	for _, part := range parts {
		part = strings.TrimSpace(part)

		if strings.HasPrefix(strings.ToLower(part), "filename*=") {
			value := part[10:]
			if idx := strings.Index(value, "''"); idx >= 0 {
				value = value[idx+2:]
			}
			if decoded, err := url.QueryUnescape(value); err == nil {
				return decoded
			}
			return value
		}

		if strings.HasPrefix(strings.ToLower(part), "filename=") {
			value := part[9:]
			value = strings.Trim(value, `"'`)
			if decoded, err := url.QueryUnescape(value); err == nil {
				return decoded
			}
			return value
		}
	}

	return ""
}
