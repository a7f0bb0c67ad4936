package main

import (
	"fmt"
	"net/url"

	"github.com/fwojciec/doccrawl"
)

// Run executes the status command.
func (c *StatusCmd) Run(deps *Dependencies) error {
	host, err := siteHost(c.Site)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", doccrawl.ErrorMessage(err))
		return err
	}

	stats, err := deps.Frontier.Stats(deps.Ctx, host)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", doccrawl.ErrorMessage(err))
		return err
	}

	if stats.Total() == 0 {
		fmt.Fprintf(deps.Stdout, "No pages recorded for %s. Use 'doccrawl crawl' to start.\n", host)
		return nil
	}

	fmt.Fprintln(deps.Stdout, host)
	fmt.Fprintf(deps.Stdout, "  pending  %d\n", stats.Pending)
	fmt.Fprintf(deps.Stdout, "  scraped  %d\n", stats.Scraped)
	fmt.Fprintf(deps.Stdout, "  failed   %d\n", stats.Failed)
	fmt.Fprintf(deps.Stdout, "  total    %d\n", stats.Total())
	return nil
}

// siteHost reduces a site authority or any URL on it to the scheme and
// authority under which the frontier records its pages.
func siteHost(site string) (string, error) {
	u, err := url.Parse(site)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", doccrawl.Errorf(doccrawl.EINVALID, "%q is not an absolute URL such as https://example.com", site)
	}
	return u.Scheme + "://" + u.Host, nil
}
