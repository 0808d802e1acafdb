// Package search fetches and parses search results and book detail
// pages, with a read-through disk cache for repeated queries.
package search

import (
	"context"
	"fmt"
	"net/url"

	"github.com/kilimcininkoroglu/sahaf/internal/cache"
	"github.com/kilimcininkoroglu/sahaf/internal/protocol"
	"github.com/kilimcininkoroglu/sahaf/internal/scrape"
)

// DefaultOrigin is the search site all relative links resolve against.
const DefaultOrigin = "https://annas-archive.org"

// Client performs searches and detail-page fetches.
type Client struct {
	http   *protocol.HTTPClient
	cache  *cache.Cache
	origin *url.URL
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(h *protocol.HTTPClient) ClientOption {
	return func(c *Client) {
		c.http = h
	}
}

// WithCache attaches a result cache. Without one every search hits
// the network.
func WithCache(store *cache.Cache) ClientOption {
	return func(c *Client) {
		c.cache = store
	}
}

// WithOrigin overrides the site origin. Invalid URLs keep the default.
func WithOrigin(origin string) ClientOption {
	return func(c *Client) {
		if u, err := url.Parse(origin); err == nil {
			c.origin = u
		}
	}
}

// NewClient creates a search client. The underlying HTTP client draws
// a random browser User-Agent it keeps for its lifetime.
func NewClient(opts ...ClientOption) *Client {
	origin, _ := url.Parse(DefaultOrigin)
	c := &Client{
		http:   protocol.NewHTTPClient(),
		origin: origin,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Search returns up to maxResults books for query. A fresh cache
// entry holding at least maxResults books answers without a network
// call; otherwise the live result overwrites the cache when non-empty.
// Cache write failures are swallowed, caching is best-effort.
func (c *Client) Search(ctx context.Context, query string, maxResults int) ([]scrape.Book, error) {
	if c.cache != nil {
		if books, ok := c.cache.Get(query); ok && len(books) >= maxResults {
			return books[:maxResults], nil
		}
	}

	searchURL := c.origin.String() + "/search?q=" + url.QueryEscape(query)

	body, _, err := c.http.Get(ctx, searchURL)
	if err != nil {
		return nil, fmt.Errorf("searching for %q: %w", query, err)
	}
	defer body.Close()

	books, err := scrape.ParseSearchResults(body, c.origin, maxResults)
	if err != nil {
		return nil, fmt.Errorf("parsing search results: %w", err)
	}

	if c.cache != nil && len(books) > 0 {
		_ = c.cache.Put(query, books)
	}

	return books, nil
}

// BookDetails fetches a book page and returns its download links.
// Detail pages are never cached; mirror links rot quickly.
func (c *Client) BookDetails(ctx context.Context, bookURL string) ([]scrape.DownloadLink, error) {
	body, _, err := c.http.Get(ctx, bookURL)
	if err != nil {
		return nil, fmt.Errorf("fetching book page: %w", err)
	}
	defer body.Close()

	links, err := scrape.ParseDownloadLinks(body)
	if err != nil {
		return nil, fmt.Errorf("parsing download links: %w", err)
	}

	return links, nil
}
