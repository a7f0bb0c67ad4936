package main

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/fwojciec/doccrawl"
	"github.com/fwojciec/doccrawl/crawl"
	doccrawlprom "github.com/fwojciec/doccrawl/prometheus"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx      context.Context
	Stdout   io.Writer
	Stderr   io.Writer
	Logger   *slog.Logger
	Frontier doccrawl.FrontierStore

	// Set for the crawl command only.
	Props   *doccrawl.CrawlProps
	Crawler *crawl.Crawler
	Metrics *doccrawlprom.Metrics
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	DB      string `name:"db" env:"DOCCRAWL_DB" default:"${default_db}" type:"path" help:"Frontier database path"`
	Verbose bool   `short:"v" help:"Enable debug logging"`

	Crawl  CrawlCmd  `cmd:"" help:"Crawl a documentation site into markdown files"`
	Status StatusCmd `cmd:"" help:"Show frontier page counts for a site"`
	Retry  RetryCmd  `cmd:"" help:"Move failed pages of a site back to pending"`
}

// CrawlCmd is the "crawl" subcommand.
type CrawlCmd struct {
	StartURL string `arg:"" optional:"" name:"start-url" help:"First page to crawl (may come from --config instead)"`

	Config       string   `type:"path" help:"YAML file with crawl settings; flags override its values"`
	Host         string   `help:"Site authority such as https://example.com (default: from start URL)"`
	Prefix       string   `help:"Path prefix every crawled page must have (default: directory of start URL)"`
	Suffix       []string `help:"Only follow paths ending in one of these (repeatable)"`
	IgnoreSuffix []string `help:"Skip paths ending in one of these (repeatable)"`
	Language     []string `help:"Language tag written to page metadata (repeatable)"`
	Project      []string `help:"Project tag written to page metadata (repeatable)"`

	Output         string        `short:"o" default:"." type:"path" help:"Output directory"`
	Concurrency    int           `short:"j" default:"0" env:"DOCCRAWL_CONCURRENCY" help:"Pages scraped at once (0 = number of CPUs)"`
	Interval       time.Duration `default:"100ms" help:"Pause between dispatch cycles"`
	Timeout        time.Duration `short:"t" default:"30s" help:"Fetch timeout per page"`
	MaxAttempts    int           `default:"3" help:"Failed cycles before a page is given up"`
	RPS            float64       `name:"rps" default:"0" help:"Requests per second per domain (0 = unlimited)"`
	Static         bool          `help:"Fetch with plain HTTP instead of headless Chrome"`
	Extractor      string        `default:"trafilatura" enum:"trafilatura,readability" help:"Main content extractor (trafilatura, readability)"`
	NoSkipExisting bool          `help:"Re-scrape pages whose output file already exists"`
	Sitemap        bool          `help:"Seed the frontier from the site's sitemaps"`
	CountTokens    bool          `help:"Count tokens of the saved markdown"`
	MetricsAddr    string        `env:"DOCCRAWL_METRICS_ADDR" help:"Serve Prometheus metrics on this address, e.g. :9090"`
}

// StatusCmd is the "status" subcommand.
type StatusCmd struct {
	Site string `arg:"" help:"Site authority or any URL on it"`
}

// RetryCmd is the "retry" subcommand.
type RetryCmd struct {
	Site string `arg:"" help:"Site authority or any URL on it"`
}
