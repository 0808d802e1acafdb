package protocol

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/jlaffaye/ftp"
)

// FTPClient downloads files from ftp:// and ftps:// mirrors. Some
// LibGen mirrors still publish plain FTP links.
type FTPClient struct {
	timeout       time.Duration
	username      string
	password      string
	skipTLSVerify bool
}

// FTPClientOption configures an FTPClient.
type FTPClientOption func(*FTPClient)

// WithFTPTimeout sets the dial timeout.
func WithFTPTimeout(timeout time.Duration) FTPClientOption {
	return func(c *FTPClient) {
		c.timeout = timeout
	}
}

// WithFTPAuth sets login credentials. Credentials embedded in the URL
// take priority over these.
func WithFTPAuth(username, password string) FTPClientOption {
	return func(c *FTPClient) {
		c.username = username
		c.password = password
	}
}

// WithFTPSkipTLSVerify skips certificate verification on ftps:// URLs.
func WithFTPSkipTLSVerify(skip bool) FTPClientOption {
	return func(c *FTPClient) {
		c.skipTLSVerify = skip
	}
}

// NewFTPClient creates an FTP client. Anonymous login is the default.
func NewFTPClient(opts ...FTPClientOption) *FTPClient {
	c := &FTPClient{
		timeout:  30 * time.Second,
		username: "anonymous",
		password: "sahaf@example.com",
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Supports checks if the URL is handled by this adapter.
func (c *FTPClient) Supports(u *url.URL) bool {
	scheme := strings.ToLower(u.Scheme)
	return scheme == "ftp" || scheme == "ftps"
}

// connect dials the server, logs in and returns the connection along
// with the remote file path.
func (c *FTPClient) connect(ctx context.Context, rawURL string) (*ftp.ServerConn, string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, "", fmt.Errorf("parsing URL: %w", err)
	}

	host := parsed.Host
	if !strings.Contains(host, ":") {
		host += ":21"
	}

	dialOpts := []ftp.DialOption{
		ftp.DialWithContext(ctx),
		ftp.DialWithTimeout(c.timeout),
	}

	if strings.ToLower(parsed.Scheme) == "ftps" {
		dialOpts = append(dialOpts, ftp.DialWithExplicitTLS(&tls.Config{
			MinVersion:         tls.VersionTLS12,
			InsecureSkipVerify: c.skipTLSVerify,
			ServerName:         parsed.Hostname(),
		}))
	}

	conn, err := ftp.Dial(host, dialOpts...)
	if err != nil {
		return nil, "", fmt.Errorf("connecting to FTP server: %w", err)
	}

	username := c.username
	password := c.password
	if parsed.User != nil {
		username = parsed.User.Username()
		if p, ok := parsed.User.Password(); ok {
			password = p
		}
	}

	if err := conn.Login(username, password); err != nil {
		conn.Quit()
		return nil, "", fmt.Errorf("FTP login failed: %w", err)
	}

	filepath := parsed.Path
	if filepath == "" {
		filepath = "/"
	}

	return conn, filepath, nil
}

// Get retrieves the file behind rawURL.
func (c *FTPClient) Get(ctx context.Context, rawURL string) (io.ReadCloser, *Metadata, error) {
	conn, filepath, err := c.connect(ctx, rawURL)
	if err != nil {
		return nil, nil, err
	}

	size, err := conn.FileSize(filepath)
	if err != nil {
		conn.Quit()
		return nil, nil, fmt.Errorf("getting file size: %w", err)
	}

	resp, err := conn.Retr(filepath)
	if err != nil {
		conn.Quit()
		return nil, nil, fmt.Errorf("retrieving file: %w", err)
	}

	filename := path.Base(filepath)
	if filename == "" || filename == "." || filename == "/" {
		filename = ""
	}

	meta := &Metadata{
		URL:           rawURL,
		Filename:      filename,
		ContentLength: size,
		ContentType:   "application/octet-stream",
	}

	return &ftpReadCloser{ReadCloser: resp, conn: conn}, meta, nil
}

// ftpReadCloser closes the control connection along with the data
// stream.
type ftpReadCloser struct {
	io.ReadCloser
	conn *ftp.ServerConn
}

func (f *ftpReadCloser) Close() error {
	err := f.ReadCloser.Close()
	f.conn.Quit()
	return err
}
