// Package engine streams a chosen download URL to a file on disk,
// reporting byte progress along the way.
package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/kilimcininkoroglu/sahaf/internal/protocol"
	"github.com/kilimcininkoroglu/sahaf/internal/storage"
)

// ErrNoContentLength is returned when the server does not advertise a
// file size. Unknown-length streaming is not supported; without a
// total the progress display is meaningless and truncated transfers
// are undetectable.
var ErrNoContentLength = errors.New("server did not report a content length")

// Progress is a snapshot of an in-flight transfer.
type Progress struct {
	Downloaded  int64
	TotalSize   int64
	Percent     float64
	Speed       int64 // bytes per second
	StartTime   time.Time
	ElapsedTime time.Duration
}

// ProgressCallback receives a snapshot after each chunk is written.
type ProgressCallback func(Progress)

// Config holds downloader tuning knobs.
type Config struct {
	BufferSize int
	RateLimit  *RateLimiter
	UseHTTP3   bool
}

// DefaultConfig returns the default downloader configuration.
func DefaultConfig() Config {
	return Config{
		BufferSize: 32 * 1024,
	}
}

// Downloader streams one file at a time to disk, routing by URL
// scheme to the right protocol adapter.
type Downloader struct {
	config      Config
	httpClient  *protocol.HTTPClient
	ftpClient   *protocol.FTPClient
	http3Client *protocol.HTTP3Client

	downloaded int64
	totalSize  int64
	startTime  time.Time
	progressCB ProgressCallback
}

// NewDownloader creates a Downloader. ftpClient and http3Client may
// be nil when those schemes are not in play.
func NewDownloader(config Config, httpClient *protocol.HTTPClient, ftpClient *protocol.FTPClient, http3Client *protocol.HTTP3Client) *Downloader {
	if config.BufferSize <= 0 {
		config.BufferSize = 32 * 1024
	}
	return &Downloader{
		config:      config,
		httpClient:  httpClient,
		ftpClient:   ftpClient,
		http3Client: http3Client,
	}
}

// SetProgressCallback sets the per-chunk progress callback.
func (d *Downloader) SetProgressCallback(cb ProgressCallback) {
	d.progressCB = cb
}

// Download fetches rawURL into destDir and returns the written file's
// path. suggestedName, when non-empty, names the file; otherwise the
// name is resolved from the URL, then the server's suggestion, then a
// timestamped fallback.
func (d *Downloader) Download(ctx context.Context, rawURL, destDir, suggestedName string) (string, error) {
	body, meta, err := d.fetch(ctx, rawURL)
	if err != nil {
		return "", err
	}
	defer body.Close()

	if meta.ContentLength <= 0 {
		return "", ErrNoContentLength
	}

	filename := resolveFilename(suggestedName, rawURL, meta.Filename)
	path := filepath.Join(destDir, filename)

	writer, err := storage.NewFileWriter(path)
	if err != nil {
		return "", fmt.Errorf("creating file writer: %w", err)
	}
	defer writer.Close()

	d.startTime = time.Now()
	atomic.StoreInt64(&d.downloaded, 0)
	atomic.StoreInt64(&d.totalSize, meta.ContentLength)

	reader := NewRateLimitedReader(ctx, body, d.config.RateLimit)
	buffer := make([]byte, d.config.BufferSize)

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}

		n, readErr := reader.Read(buffer)
		if n > 0 {
			if _, writeErr := writer.Write(buffer[:n]); writeErr != nil {
				return "", fmt.Errorf("writing to %s: %w", path, writeErr)
			}

			// Cap displayed progress at the advertised total; some
			// mirrors send trailing bytes past Content-Length.
			total := atomic.LoadInt64(&d.totalSize)
			next := atomic.AddInt64(&d.downloaded, int64(n))
			if next > total {
				atomic.StoreInt64(&d.downloaded, total)
			}

			if d.progressCB != nil {
				d.progressCB(d.GetProgress())
			}
		}

		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return "", fmt.Errorf("reading response: %w", readErr)
		}
	}

	if err := writer.Sync(); err != nil {
		return "", fmt.Errorf("flushing %s: %w", path, err)
	}
	return path, nil
}

// fetch routes the URL to a protocol adapter by scheme.
func (d *Downloader) fetch(ctx context.Context, rawURL string) (io.ReadCloser, *protocol.Metadata, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, nil, fmt.Errorf("parsing download URL: %w", err)
	}

	switch strings.ToLower(u.Scheme) {
	case "ftp", "ftps":
		if d.ftpClient == nil {
			return nil, nil, fmt.Errorf("ftp downloads not configured")
		}
		return d.ftpClient.Get(ctx, rawURL)
	case "https":
		if d.config.UseHTTP3 && d.http3Client != nil {
			return d.http3Client.Get(ctx, rawURL)
		}
		return d.httpClient.Get(ctx, rawURL)
	case "http":
		return d.httpClient.Get(ctx, rawURL)
	default:
		return nil, nil, fmt.Errorf("unsupported URL scheme %q", u.Scheme)
	}
}

// GetProgress returns the current transfer snapshot.
func (d *Downloader) GetProgress() Progress {
	downloaded := atomic.LoadInt64(&d.downloaded)
	total := atomic.LoadInt64(&d.totalSize)
	elapsed := time.Since(d.startTime)

	var speed int64
	if secs := elapsed.Seconds(); secs > 0 {
		speed = int64(float64(downloaded) / secs)
	}

	var percent float64
	if total > 0 {
		percent = float64(downloaded) / float64(total) * 100
	}

	return Progress{
		Downloaded:  downloaded,
		TotalSize:   total,
		Percent:     percent,
		Speed:       speed,
		StartTime:   d.startTime,
		ElapsedTime: elapsed,
	}
}

// resolveFilename picks the output filename: the caller's suggestion,
// then the URL's last path segment, then the server-suggested name,
// then a timestamped fallback. All candidates are sanitized.
func resolveFilename(suggested, rawURL, serverName string) string {
	if suggested != "" {
		return storage.SanitizeFilename(suggested)
	}
	if seg := urlFilename(rawURL); seg != "" {
		return storage.SanitizeFilename(seg)
	}
	if serverName != "" {
		return storage.SanitizeFilename(serverName)
	}
	return fmt.Sprintf("download_%d.tmp", time.Now().Unix())
}

// urlFilename extracts the last non-empty path segment, percent
// decoded. A trailing slash, a query string, or a segment carrying a
// literal "?" yields "".
func urlFilename(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}

	// A query string disqualifies the URL entirely; the
	// server-suggested name takes over.
	if u.RawQuery != "" || u.ForceQuery {
		return ""
	}

	// u.Path arrives percent-decoded, so an encoded "?" in the path
	// shows up literally here and disqualifies the segment.
	seg := u.Path
	if idx := strings.LastIndex(seg, "/"); idx >= 0 {
		seg = seg[idx+1:]
	}
	if strings.Contains(seg, "?") {
		return ""
	}
	return seg
}
