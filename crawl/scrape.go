package crawl

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/fwojciec/doccrawl"
)

// PageResult is the outcome of scraping one page.
type PageResult struct {
	// Skipped is set when the page's output already existed.
	Skipped bool
	// Empty is set when no main content could be extracted.
	Empty    bool
	Bytes    int
	Tokens   int
	Enqueued int
}

// ScrapePage fetches a pending page, writes its Markdown and metadata,
// enqueues the in-scope links it contains and marks it scraped.
//
// Links are only offered to the frontier when seen had not recorded them
// yet. Errors returned by the frontier carry the ESTORAGE code; every other
// error is a failure of this page alone.
func (c *Crawler) ScrapePage(ctx context.Context, props *doccrawl.CrawlProps, page *doccrawl.Page, seen *SeenSet) (*PageResult, error) {
	if c.SkipExisting {
		exists, err := c.Output.Exists(page.URL)
		if err != nil {
			return nil, fmt.Errorf("checking output of %s: %w", page.URL, err)
		}
		if exists {
			if err := c.Frontier.MarkScraped(ctx, page); err != nil {
				return nil, err
			}
			return &PageResult{Skipped: true}, nil
		}
	}

	u, err := url.Parse(page.URL)
	if err != nil {
		return nil, doccrawl.Errorf(doccrawl.EINVALID, "invalid page URL %q: %v", page.URL, err)
	}

	if c.RateLimiter != nil {
		if err := c.RateLimiter.Wait(ctx, u.Host); err != nil {
			return nil, err
		}
	}

	html, err := c.fetch(ctx, page.URL)
	if err != nil {
		return nil, err
	}

	hrefs, err := c.Links.ExtractHrefs(html)
	if err != nil {
		return nil, fmt.Errorf("extracting links from %s: %w", page.URL, err)
	}

	markdown, err := c.markdown(html)
	if err != nil {
		return nil, fmt.Errorf("converting %s: %w", page.URL, err)
	}

	if err := c.Output.Write(ctx, doccrawl.NewDocument(props, page.URL, markdown)); err != nil {
		return nil, fmt.Errorf("writing %s: %w", page.URL, err)
	}

	res := &PageResult{
		Empty: strings.TrimSpace(markdown) == "",
		Bytes: len(markdown),
	}

	for _, href := range hrefs {
		link, ok := props.NormalizeLink(href, u.EscapedPath())
		if !ok || !seen.Add(link) {
			continue
		}
		inserted, err := c.Frontier.EnqueueIfNew(ctx, props.Host, link)
		if err != nil {
			return nil, err
		}
		if inserted {
			res.Enqueued++
		}
	}

	page.ContentHash = contentHash(markdown)
	if err := c.Frontier.MarkScraped(ctx, page); err != nil {
		return nil, err
	}

	if c.TokenCounter != nil && !res.Empty {
		if tokens, err := c.TokenCounter.CountTokens(ctx, markdown); err == nil {
			res.Tokens = tokens
		}
	}

	return res, nil
}

// fetch retrieves the rendered HTML of a page, retrying with backoff.
func (c *Crawler) fetch(ctx context.Context, pageURL string) (string, error) {
	delays := c.RetryDelays
	if delays == nil {
		delays = DefaultRetryDelays()
	}
	fetchFn := func(ctx context.Context, url string) (string, error) {
		return c.Fetcher.Fetch(ctx, url)
	}
	return FetchWithRetryDelays(ctx, pageURL, fetchFn, c.Log, delays)
}

// markdown extracts the main content of html as Markdown.
// Pages without identifiable main content yield an empty string.
func (c *Crawler) markdown(html string) (string, error) {
	extracted, err := c.Extractor.Extract(html)
	if err != nil || extracted == nil || strings.TrimSpace(extracted.ContentHTML) == "" {
		return "", nil
	}
	return c.Converter.Convert(extracted.ContentHTML)
}
