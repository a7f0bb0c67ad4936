package main

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/fwojciec/doccrawl"
	"github.com/fwojciec/doccrawl/crawl"
	"github.com/fwojciec/doccrawl/yaml"
)

// Run executes the crawl command.
func (c *CrawlCmd) Run(deps *Dependencies) error {
	fmt.Fprintf(deps.Stdout, "Crawling %s (prefix %s)\n", deps.Props.StartURL, deps.Props.PathPrefix)

	progress := printProgress(deps.Stdout, deps.Stderr)
	if deps.Metrics != nil {
		printEvent := progress
		progress = func(event crawl.ProgressEvent) {
			deps.Metrics.Observe(event)
			printEvent(event)
		}
	}

	result, err := deps.Crawler.Run(deps.Ctx, deps.Props, progress)
	if result != nil {
		printSummary(deps.Stdout, result)
	}
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error crawling: %s\n", errorText(err))
		return err
	}
	return nil
}

// Props merges the config file, the flags and the start URL into the
// crawl settings and validates them.
func (c *CrawlCmd) Props() (*doccrawl.CrawlProps, error) {
	props := &doccrawl.CrawlProps{}
	if c.Config != "" {
		loaded, err := yaml.LoadCrawlProps(c.Config)
		if err != nil {
			return nil, err
		}
		props = loaded
	}

	if c.StartURL != "" {
		props.StartURL = c.StartURL
	}
	if c.Host != "" {
		props.Host = strings.TrimSuffix(c.Host, "/")
	}
	if c.Prefix != "" {
		props.PathPrefix = c.Prefix
	}
	if len(c.Suffix) > 0 {
		props.Suffixes = c.Suffix
	}
	if len(c.IgnoreSuffix) > 0 {
		props.IgnoreSuffixes = c.IgnoreSuffix
	}
	if len(c.Language) > 0 {
		props.Languages = c.Language
	}
	if len(c.Project) > 0 {
		props.Projects = c.Project
	}

	if u, err := url.Parse(props.StartURL); err == nil && u.Scheme != "" && u.Host != "" {
		if props.Host == "" {
			props.Host = u.Scheme + "://" + u.Host
		}
		if props.PathPrefix == "" {
			props.PathPrefix = parentPath(u.EscapedPath())
		}
	}

	if err := props.Validate(); err != nil {
		return nil, err
	}
	return props, nil
}

// parentPath returns the directory part of p, keeping the trailing slash.
func parentPath(p string) string {
	i := strings.LastIndex(p, "/")
	if i < 0 {
		return "/"
	}
	return p[:i+1]
}

// printProgress returns a progress callback writing one line per event.
// Page failures go to errw.
func printProgress(w, errw io.Writer) crawl.ProgressFunc {
	return func(event crawl.ProgressEvent) {
		switch event.Type {
		case crawl.ProgressSitemap:
			if event.Error != nil {
				fmt.Fprintf(errw, "  sitemap unavailable: %s\n", errorText(event.Error))
				return
			}
			fmt.Fprintf(w, "  Sitemap listed %d URLs, %d new\n", event.Total, event.Enqueued)
		case crawl.ProgressCycle:
			fmt.Fprintf(w, "Cycle %d: %d pages remaining\n", event.Cycle, event.Total)
		case crawl.ProgressStarted:
			fmt.Fprintf(w, "  fetching %s\n", crawl.TruncateURL(event.URL, 80))
		case crawl.ProgressCompleted:
			fmt.Fprintf(w, "  [%d/%d] %s\n", event.Completed, event.Total, crawl.TruncateURL(event.URL, 80))
		case crawl.ProgressEmpty:
			fmt.Fprintf(w, "  [%d/%d] %s (no content)\n", event.Completed, event.Total, crawl.TruncateURL(event.URL, 80))
		case crawl.ProgressSkipped:
			fmt.Fprintf(w, "  [%d/%d] %s (exists)\n", event.Completed, event.Total, crawl.TruncateURL(event.URL, 80))
		case crawl.ProgressRetrying:
			fmt.Fprintf(errw, "  retry later %s (attempt %d): %s\n", event.URL, event.Attempts, errorText(event.Error))
		case crawl.ProgressFailed:
			fmt.Fprintf(errw, "  failed %s after %d attempts: %s\n", event.URL, event.Attempts, errorText(event.Error))
		}
	}
}

func printSummary(w io.Writer, result *crawl.Result) {
	fmt.Fprint(w, result.Summary())
}

// errorText returns the message of application errors and the full text
// of any other error.
func errorText(err error) string {
	var e *doccrawl.Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
