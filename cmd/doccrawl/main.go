package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/adrg/xdg"
	"github.com/alecthomas/kong"
	"github.com/fwojciec/doccrawl"
	"github.com/fwojciec/doccrawl/crawl"
	"github.com/fwojciec/doccrawl/fs"
	"github.com/fwojciec/doccrawl/gemini"
	"github.com/fwojciec/doccrawl/goquery"
	"github.com/fwojciec/doccrawl/htmltomarkdown"
	doccrawlhttp "github.com/fwojciec/doccrawl/http"
	doccrawlprom "github.com/fwojciec/doccrawl/prometheus"
	"github.com/fwojciec/doccrawl/readability"
	"github.com/fwojciec/doccrawl/rod"
	doccrawlslog "github.com/fwojciec/doccrawl/slog"
	"github.com/fwojciec/doccrawl/sqlite"
	"github.com/fwojciec/doccrawl/trafilatura"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	m := NewMain()

	err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	if err != nil {
		if errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, "interrupted; run the same command again to resume")
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// Default database path, used when neither --db nor DOCCRAWL_DB is set.
	DBPath string

	// SQLite database holding the frontier.
	DB *sqlite.DB
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{
		DBPath: defaultDBPath(),
	}
}

// Close gracefully stops the program.
func (m *Main) Close() error {
	if m.DB != nil {
		return m.DB.Close()
	}
	return nil
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	deps := &Dependencies{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
	}

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("doccrawl"),
		kong.Description("Crawl documentation sites into markdown files with a resumable frontier"),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}),
		kong.Vars{"default_db": m.DBPath},
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'doccrawl --help' to see available commands")
	}
	if args[0] == "help" || args[0] == "--help" || args[0] == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	level := slog.LevelInfo
	if cli.Verbose {
		level = slog.LevelDebug
	}
	deps.Logger = slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	isCrawl := strings.HasPrefix(kongCtx.Command(), "crawl")

	// Settings are checked before the database or browser is touched.
	if isCrawl {
		props, err := cli.Crawl.Props()
		if err != nil {
			fmt.Fprintf(stderr, "error: %s\n", doccrawl.ErrorMessage(err))
			return err
		}
		deps.Props = props
	}

	m.DB = sqlite.NewDB(cli.DB)
	if err := m.DB.Open(); err != nil {
		fmt.Fprintln(stderr, "Hint: Set DOCCRAWL_DB or --db to use a different database path")
		return err
	}
	defer m.Close()

	deps.Frontier = doccrawlslog.NewLoggingFrontierStore(sqlite.NewFrontierStore(m.DB), deps.Logger)

	if isCrawl {
		cleanup, err := m.wireCrawler(deps, &cli.Crawl)
		if err != nil {
			return err
		}
		defer cleanup()
	}

	return kongCtx.Run(deps)
}

// wireCrawler builds the crawler for the crawl command. The returned
// function releases the fetcher and stops the metrics server.
func (m *Main) wireCrawler(deps *Dependencies, c *CrawlCmd) (func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	var fetcher doccrawl.Fetcher
	sitemapClient := &http.Client{Timeout: c.Timeout}
	if c.Static {
		static := doccrawlhttp.NewFetcher(doccrawlhttp.WithTimeout(c.Timeout))
		sitemapClient = static.Client()
		fetcher = static
	} else {
		rodFetcher, err := rod.NewFetcher(rod.WithFetchTimeout(c.Timeout))
		if err != nil {
			fmt.Fprintln(deps.Stderr, "Hint: Chrome or Chromium must be installed, or use --static")
			return nil, fmt.Errorf("failed to start browser: %w", err)
		}
		fetcher = rodFetcher
	}
	fetcher = doccrawlslog.NewLoggingFetcher(fetcher, deps.Logger)

	if c.MetricsAddr != "" {
		reg := prometheus.NewRegistry()
		deps.Metrics = doccrawlprom.NewMetrics(reg)
		fetcher = doccrawlprom.NewInstrumentedFetcher(fetcher, deps.Metrics)

		srv := &http.Server{Addr: c.MetricsAddr, Handler: metricsMux(reg)}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				deps.Logger.Error("metrics server", "addr", c.MetricsAddr, "err", err)
			}
		}()
		closers = append(closers, func() { _ = srv.Close() })
	}
	closers = append(closers, func() { _ = fetcher.Close() })

	var extractor doccrawl.Extractor = trafilatura.NewExtractor()
	if c.Extractor == "readability" {
		extractor = readability.NewExtractor()
	}

	crawler := &crawl.Crawler{
		Frontier:     deps.Frontier,
		Fetcher:      fetcher,
		Extractor:    extractor,
		Converter:    htmltomarkdown.NewConverter(),
		Links:        goquery.NewLinkExtractor(),
		Output:       fs.NewStore(c.Output),
		Concurrency:  c.Concurrency,
		Interval:     c.Interval,
		MaxAttempts:  c.MaxAttempts,
		SkipExisting: !c.NoSkipExisting,
		Log: func(format string, args ...any) {
			deps.Logger.Debug(fmt.Sprintf(format, args...))
		},
	}

	if c.RPS > 0 {
		crawler.RateLimiter = crawl.NewDomainLimiter(c.RPS)
	}
	if c.Sitemap {
		crawler.Sitemaps = doccrawlslog.NewLoggingSitemapService(doccrawlhttp.NewSitemapService(sitemapClient), deps.Logger)
	}
	if c.CountTokens {
		tc, err := gemini.NewTokenCounter(gemini.DefaultModel)
		if err != nil {
			cleanup()
			return nil, fmt.Errorf("failed to create token counter: %w", err)
		}
		crawler.TokenCounter = tc
	}

	deps.Crawler = crawler
	return cleanup, nil
}

func metricsMux(reg *prometheus.Registry) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", doccrawlprom.Handler(reg))
	return mux
}

// defaultDBPath returns the frontier location under the XDG data directory.
func defaultDBPath() string {
	path, err := xdg.DataFile(filepath.Join("doccrawl", "frontier.db"))
	if err != nil {
		return "frontier.db"
	}
	return path
}
