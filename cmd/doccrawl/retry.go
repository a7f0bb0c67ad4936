package main

import (
	"fmt"

	"github.com/fwojciec/doccrawl"
)

// Run executes the retry command.
func (c *RetryCmd) Run(deps *Dependencies) error {
	host, err := siteHost(c.Site)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", doccrawl.ErrorMessage(err))
		return err
	}

	n, err := deps.Frontier.ResetFailed(deps.Ctx, host)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", doccrawl.ErrorMessage(err))
		return err
	}

	if n == 0 {
		fmt.Fprintf(deps.Stdout, "No failed pages for %s\n", host)
		return nil
	}
	fmt.Fprintf(deps.Stdout, "Reset %d failed pages for %s. Run 'doccrawl crawl' again to retry them.\n", n, host)
	return nil
}
