// Sahaf - terminal book search and download tool
// Named after the Turkish word for a secondhand bookseller
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/kilimcininkoroglu/sahaf/internal/cache"
	"github.com/kilimcininkoroglu/sahaf/internal/config"
	"github.com/kilimcininkoroglu/sahaf/internal/engine"
	"github.com/kilimcininkoroglu/sahaf/internal/hooks"
	"github.com/kilimcininkoroglu/sahaf/internal/protocol"
	"github.com/kilimcininkoroglu/sahaf/internal/scrape"
	"github.com/kilimcininkoroglu/sahaf/internal/search"
	"github.com/kilimcininkoroglu/sahaf/internal/tui"
	"github.com/kilimcininkoroglu/sahaf/internal/ui"
	"github.com/kilimcininkoroglu/sahaf/internal/version"
)

// Exit codes
const (
	ExitSuccess      = 0
	ExitGeneralError = 1
	ExitParseError   = 2
	ExitNetworkError = 3
	ExitValidation   = 4
	ExitInterrupted  = 8
)

// CLIConfig holds CLI configuration
type CLIConfig struct {
	NumResults   int
	DownloadPath string // run-only override of the persisted path
	SetPath      string // persist a new default path and exit
	Interactive  bool
	ShowConfig   bool
	Cleanup      bool
	Timeout      time.Duration
	LimitRate    string // e.g., "10M", "500K"
	Proxy        string // HTTP/HTTPS or SOCKS5 proxy URL
	HTTP3        bool
	NoCheckCert  bool
	NoColor      bool
	OnComplete   string // command to run after a finished download
	OnError      string // command to run after a failed download
	WebhookURL   string // webhook URL for notifications
	ShowVersion  bool
	ShowHelp     bool
}

func main() {
	cliCfg := parseFlags()

	if cliCfg.ShowVersion {
		fmt.Println(version.Full())
		os.Exit(ExitSuccess)
	}
	if cliCfg.ShowHelp {
		printUsage()
		os.Exit(ExitSuccess)
	}

	if cliCfg.NumResults < 1 {
		fmt.Fprintln(os.Stderr, "Error: --num-results must be at least 1")
		os.Exit(ExitParseError)
	}

	cfgPath, err := config.DefaultPath()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Cannot determine config path: %v\n", err)
		os.Exit(ExitGeneralError)
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(ExitParseError)
	}

	if cliCfg.SetPath != "" {
		cfg.DownloadPath = cliCfg.SetPath
		if err := cfg.Save(cfgPath); err != nil {
			fmt.Fprintf(os.Stderr, "Error saving config: %v\n", err)
			os.Exit(ExitGeneralError)
		}
		fmt.Printf("Download path set to %s\n", cliCfg.SetPath)
		os.Exit(ExitSuccess)
	}

	if cliCfg.ShowConfig {
		fmt.Printf("Config file:   %s\n", cfgPath)
		fmt.Printf("Download path: %s\n", cfg.ResolveDownloadPath(""))
		os.Exit(ExitSuccess)
	}

	if cliCfg.Cleanup {
		os.Exit(runCleanup(cliCfg, cfg))
	}

	query := strings.TrimSpace(strings.Join(flag.Args(), " "))

	if query == "" || cliCfg.Interactive {
		os.Exit(runInteractive(cliCfg, cfg, query))
	}
	os.Exit(runSearch(cliCfg, cfg, query))
}

func parseFlags() CLIConfig {
	cfg := CLIConfig{}

	flag.IntVar(&cfg.NumResults, "n", 5, "Maximum number of search results")
	flag.IntVar(&cfg.NumResults, "num-results", 5, "Maximum number of search results")
	flag.StringVar(&cfg.DownloadPath, "p", "", "Download directory for this run")
	flag.StringVar(&cfg.DownloadPath, "download-path", "", "Download directory for this run")
	flag.StringVar(&cfg.SetPath, "set-path", "", "Persist a new default download directory and exit")
	flag.BoolVar(&cfg.Interactive, "i", false, "Force the interactive interface")
	flag.BoolVar(&cfg.Interactive, "interactive", false, "Force the interactive interface")
	flag.BoolVar(&cfg.ShowConfig, "config", false, "Print current settings and exit")
	flag.BoolVar(&cfg.Cleanup, "cleanup", false, "Remove leftover partial files and stale cache entries")
	flag.DurationVar(&cfg.Timeout, "T", 30*time.Second, "Connection timeout")
	flag.DurationVar(&cfg.Timeout, "timeout", 30*time.Second, "Connection timeout")
	flag.StringVar(&cfg.LimitRate, "limit-rate", "", "Limit download speed (e.g., 10M, 500K)")
	flag.StringVar(&cfg.Proxy, "proxy", "", "Proxy URL (http://host:port or socks5://host:port)")
	flag.BoolVar(&cfg.HTTP3, "http3", false, "Try HTTP/3 for https downloads")
	flag.BoolVar(&cfg.NoCheckCert, "no-check-certificate", false, "Skip TLS certificate verification")
	flag.BoolVar(&cfg.NoColor, "no-color", false, "Disable colored output")
	flag.StringVar(&cfg.OnComplete, "on-complete", "", "Command to run after a finished download")
	flag.StringVar(&cfg.OnError, "on-error", "", "Command to run after a failed download")
	flag.StringVar(&cfg.WebhookURL, "webhook", "", "Webhook URL for download notifications")
	flag.BoolVar(&cfg.ShowVersion, "V", false, "Show version")
	flag.BoolVar(&cfg.ShowVersion, "version", false, "Show version")
	flag.BoolVar(&cfg.ShowHelp, "h", false, "Show help")
	flag.BoolVar(&cfg.ShowHelp, "help", false, "Show help")

	flag.Usage = printUsage
	flag.Parse()

	return cfg
}

// downloadPipeline satisfies tui.Downloader. It resolves relative
// mirror links against the site origin and fires hooks around the
// underlying transfer.
type downloadPipeline struct {
	engine *engine.Downloader
	base   *url.URL
	hooks  *hooks.Manager
}

func (p *downloadPipeline) Download(ctx context.Context, rawURL, destDir, suggestedName string) (string, error) {
	if u, err := url.Parse(rawURL); err == nil && !u.IsAbs() && p.base != nil {
		rawURL = p.base.ResolveReference(u).String()
	}

	start := time.Now()
	path, err := p.engine.Download(ctx, rawURL, destDir, suggestedName)

	if p.hooks != nil && p.hooks.Count() > 0 {
		if err != nil {
			_ = p.hooks.Execute(ctx, hooks.ErrorPayload(rawURL, suggestedName, err))
		} else {
			prog := p.engine.GetProgress()
			_ = p.hooks.Execute(ctx, hooks.CompletePayload(rawURL, suggestedName, "", path, prog.TotalSize, time.Since(start)))
		}
	}

	return path, err
}

func buildSearchClient(cliCfg CLIConfig) *search.Client {
	opts := []search.ClientOption{
		search.WithHTTPClient(buildHTTPClient(cliCfg)),
	}

	// A broken cache directory degrades to network-only searches.
	if store, err := cache.Default(); err == nil {
		opts = append(opts, search.WithCache(store))
	}

	return search.NewClient(opts...)
}

func buildHTTPClient(cliCfg CLIConfig) *protocol.HTTPClient {
	opts := []protocol.HTTPClientOption{
		protocol.WithTimeout(cliCfg.Timeout),
	}

	if cliCfg.Proxy != "" {
		if strings.HasPrefix(cliCfg.Proxy, "socks5://") {
			opts = append(opts, protocol.WithSOCKS5Proxy(cliCfg.Proxy, nil))
		} else {
			opts = append(opts, protocol.WithProxy(cliCfg.Proxy))
		}
	}
	if cliCfg.NoCheckCert {
		opts = append(opts, protocol.WithInsecureSkipVerify(true))
	}

	return protocol.NewHTTPClient(opts...)
}

func buildPipeline(cliCfg CLIConfig) (*downloadPipeline, int) {
	dlConfig := engine.DefaultConfig()
	dlConfig.UseHTTP3 = cliCfg.HTTP3

	if cliCfg.LimitRate != "" {
		bytesPerSec, err := config.ParseBandwidth(cliCfg.LimitRate)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: Invalid rate limit: %v\n", err)
			return nil, ExitParseError
		}
		dlConfig.RateLimit = engine.NewRateLimiter(bytesPerSec)
	}

	ftpOpts := []protocol.FTPClientOption{
		protocol.WithFTPTimeout(cliCfg.Timeout),
		protocol.WithFTPSkipTLSVerify(cliCfg.NoCheckCert),
	}
	if n, err := config.LoadNetrc(); err == nil && n.Default != nil {
		ftpOpts = append(ftpOpts, protocol.WithFTPAuth(n.Default.Login, n.Default.Password))
	}

	var http3Client *protocol.HTTP3Client
	if cliCfg.HTTP3 {
		http3Client = protocol.NewHTTP3Client(
			protocol.WithHTTP3Timeout(cliCfg.Timeout),
			protocol.WithHTTP3InsecureSkipVerify(cliCfg.NoCheckCert),
		)
	}

	downloader := engine.NewDownloader(dlConfig,
		buildHTTPClient(cliCfg),
		protocol.NewFTPClient(ftpOpts...),
		http3Client)

	base, _ := url.Parse(search.DefaultOrigin)

	return &downloadPipeline{
		engine: downloader,
		base:   base,
		hooks:  setupHooks(cliCfg),
	}, ExitSuccess
}

func runInteractive(cliCfg CLIConfig, cfg *config.Config, query string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pipeline, code := buildPipeline(cliCfg)
	if pipeline == nil {
		return code
	}

	downloadDir := cfg.ResolveDownloadPath(cliCfg.DownloadPath)
	runner := tui.NewRunner(ctx, buildSearchClient(cliCfg), pipeline, cliCfg.NumResults, downloadDir, query)

	if err := runner.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitGeneralError
	}
	return ExitSuccess
}

func runSearch(cliCfg CLIConfig, cfg *config.Config, query string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := buildSearchClient(cliCfg)

	books, err := client.Search(ctx, query, cliCfg.NumResults)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Search failed: %v\n", err)
		return ExitNetworkError
	}
	if len(books) == 0 {
		fmt.Fprintln(os.Stderr, "No results found")
		return ExitGeneralError
	}

	printResults(books)

	choice, err := promptSelection(len(books))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitValidation
	}
	book := books[choice]

	links, err := client.BookDetails(ctx, book.URL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Fetching download links failed: %v\n", err)
		return ExitNetworkError
	}
	if len(links) == 0 {
		fmt.Fprintln(os.Stderr, "No download links found")
		return ExitGeneralError
	}

	link := pickLink(links)
	fmt.Printf("\nUsing %s link: %s\n", link.Source, link.URL)

	pipeline, code := buildPipeline(cliCfg)
	if pipeline == nil {
		return code
	}

	filename := book.DownloadFilename()
	progressBar := ui.NewProgressBar(ui.WithNoColor(cliCfg.NoColor))
	pipeline.engine.SetProgressCallback(func(p engine.Progress) {
		progressBar.Render(os.Stdout, p, filename)
	})

	downloadDir := cfg.ResolveDownloadPath(cliCfg.DownloadPath)
	path, err := pipeline.Download(ctx, link.URL, downloadDir, filename)
	if err != nil {
		if ctx.Err() != nil {
			progressBar.RenderError(os.Stdout, filename, fmt.Errorf("interrupted"))
			return ExitInterrupted
		}
		progressBar.RenderError(os.Stdout, filename, err)
		return ExitNetworkError
	}

	progressBar.RenderComplete(os.Stdout, pipeline.engine.GetProgress(), path)
	return ExitSuccess
}

func runCleanup(cliCfg CLIConfig, cfg *config.Config) int {
	downloadDir := cfg.ResolveDownloadPath(cliCfg.DownloadPath)

	removed, err := engine.SweepPartials(downloadDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error sweeping partial files: %v\n", err)
		return ExitGeneralError
	}
	fmt.Printf("Removed %d partial file(s) from %s\n", removed, downloadDir)

	store, err := cache.Default()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening cache: %v\n", err)
		return ExitGeneralError
	}
	expired, err := store.Sweep()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error sweeping cache: %v\n", err)
		return ExitGeneralError
	}
	fmt.Printf("Removed %d stale cache entries\n", expired)

	return ExitSuccess
}

func printResults(books []scrape.Book) {
	fmt.Println()
	for i, book := range books {
		fmt.Printf("%2d. %s\n", i+1, book.Title)

		var meta []string
		if book.Author != "" {
			meta = append(meta, book.Author)
		}
		if book.Year != "" {
			meta = append(meta, book.Year)
		}
		if book.Language != "" {
			meta = append(meta, book.Language)
		}
		if book.Format != "" {
			meta = append(meta, book.Format)
		}
		if book.Size != "" {
			meta = append(meta, book.Size)
		}
		if len(meta) > 0 {
			fmt.Printf("    %s\n", strings.Join(meta, " | "))
		}
	}
}

// promptSelection reads a 1-based choice from stdin and returns it
// 0-based.
func promptSelection(count int) (int, error) {
	fmt.Printf("\nSelect a book [1-%d]: ", count)

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return 0, fmt.Errorf("reading selection: %w", err)
	}

	choice, err := strconv.Atoi(strings.TrimSpace(line))
	if err != nil {
		return 0, fmt.Errorf("invalid selection %q", strings.TrimSpace(line))
	}
	if choice < 1 || choice > count {
		return 0, fmt.Errorf("selection %d out of range [1-%d]", choice, count)
	}

	return choice - 1, nil
}

// pickLink prefers any link whose text names libgen, falling back to
// the first link returned.
func pickLink(links []scrape.DownloadLink) scrape.DownloadLink {
	for _, link := range links {
		if strings.Contains(strings.ToLower(link.Text), "libgen") {
			return link
		}
	}
	return links[0]
}

func setupHooks(cliCfg CLIConfig) *hooks.Manager {
	manager := hooks.NewManager()

	if cliCfg.OnComplete != "" {
		manager.AddCommand(cliCfg.OnComplete, hooks.EventComplete)
	}
	if cliCfg.OnError != "" {
		manager.AddCommand(cliCfg.OnError, hooks.EventError)
	}
	if cliCfg.WebhookURL != "" {
		manager.AddWebhook(cliCfg.WebhookURL, hooks.EventComplete, hooks.EventError)
	}

	return manager
}

func printUsage() {
	fmt.Printf(`%s

Usage:
  sahaf [OPTIONS] [QUERY]

Searches Anna's Archive for books, scrapes the matching metadata and
download mirrors, and streams your pick to disk. Without a query the
interactive interface starts directly.

Options:
  -n, --num-results N    Maximum number of search results (default: 5)
  -p, --download-path D  Download directory for this run only
      --set-path DIR     Persist a new default download directory and exit
  -i, --interactive      Force the interactive interface
      --config           Print current settings and exit
      --cleanup          Remove leftover partial files and stale cache entries
  -T, --timeout DUR      Connection timeout (default: 30s)
      --limit-rate RATE  Limit download speed (e.g., 10M, 500K)
      --proxy URL        Use proxy (http://host:port or socks5://host:port)
      --http3            Try HTTP/3 for https downloads
      --no-check-certificate  Skip TLS certificate verification
      --no-color         Disable colored output
      --on-complete CMD  Run command after a finished download
      --on-error CMD     Run command after a failed download
      --webhook URL      Send webhook notification on complete/error
  -h, --help             Show this help message
  -V, --version          Show version information

Exit Codes:
  0  Success
  1  General error
  2  Parse/config error
  3  Network error
  4  Invalid selection
  8  Interrupted (Ctrl+C)

Examples:
  sahaf "the name of the rose"
  sahaf -n 10 "dune herbert"
  sahaf -p ~/books "snow crash"
  sahaf --set-path ~/books
  sahaf -i
  sahaf --limit-rate 1M --proxy socks5://127.0.0.1:9050 "1984"

For more information, visit: https://github.com/kilimcininkoroglu/sahaf
`, version.Full())
}
