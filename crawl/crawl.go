// Package crawl provides breadth-first documentation crawling.
// It drives the persistent frontier cycle by cycle, dispatching every
// pending page to a bounded pool of workers that fetch, convert and write
// the page and enqueue the in-scope links it contains.
package crawl

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/fwojciec/doccrawl"
	"golang.org/x/sync/errgroup"
)

// Crawler defaults.
const (
	DefaultInterval    = 100 * time.Millisecond
	DefaultMaxAttempts = 3
)

// Crawler orchestrates the crawling of a documentation site.
//
// Sitemaps, RateLimiter, TokenCounter and Log are optional.
// The zero value of SkipExisting re-scrapes pages whose output already exists.
type Crawler struct {
	Frontier     doccrawl.FrontierStore
	Fetcher      doccrawl.Fetcher
	Extractor    doccrawl.Extractor
	Converter    doccrawl.Converter
	Links        doccrawl.LinkExtractor
	Output       doccrawl.OutputStore
	Sitemaps     doccrawl.SitemapService
	RateLimiter  doccrawl.DomainLimiter
	TokenCounter doccrawl.TokenCounter
	Log          LogFunc

	// Concurrency bounds the pages scraped at once. Defaults to runtime.NumCPU().
	Concurrency int
	// Interval is the pause between dispatch cycles. Defaults to DefaultInterval.
	Interval time.Duration
	// RetryDelays are the in-worker fetch backoff delays. Nil means DefaultRetryDelays.
	RetryDelays []time.Duration
	// MaxAttempts is the number of failed cycles after which a page is failed.
	MaxAttempts  int
	SkipExisting bool
}

// Result holds the outcome of a crawl run.
type Result struct {
	Cycles   int
	Scraped  int
	Skipped  int
	Failed   int
	Retried  int
	Enqueued int
	Bytes    int
	Tokens   int
}

// ProgressEvent reports progress during a crawl run.
type ProgressEvent struct {
	Type ProgressType
	// Cycle is the 1-based dispatch cycle the event belongs to.
	Cycle int
	// Completed counts the pages of the cycle handled so far.
	Completed int
	// Total is the number of pages pending at the start of the cycle.
	Total    int
	URL      string
	Enqueued int
	Attempts int
	Error    error
}

// ProgressType indicates the type of progress event.
type ProgressType int

const (
	// ProgressSitemap reports how many sitemap URLs were seeded.
	ProgressSitemap ProgressType = iota
	// ProgressCycle starts a dispatch cycle; Total holds the remaining pages.
	ProgressCycle
	// ProgressStarted announces a page a worker has picked up.
	ProgressStarted
	ProgressCompleted
	// ProgressEmpty is a completed page with no extractable content.
	ProgressEmpty
	ProgressSkipped
	// ProgressRetrying is a failed page that stays pending.
	ProgressRetrying
	// ProgressFailed is a page that has used up its attempts.
	ProgressFailed
	ProgressFinished
)

// ProgressFunc is a callback for reporting crawl progress.
type ProgressFunc func(event ProgressEvent)

// Run crawls the site described by props until no pending pages remain.
//
// The progress callback, if provided, is invoked serially. Storage errors
// abort the run; context cancellation returns ctx.Err() with the frontier
// left resumable.
func (c *Crawler) Run(ctx context.Context, props *doccrawl.CrawlProps, progress ProgressFunc) (*Result, error) {
	if err := props.Validate(); err != nil {
		return nil, err
	}

	r := &run{
		crawler:  c,
		props:    props,
		seen:     NewSeenSet(),
		progress: progress,
	}

	if err := c.Frontier.Seed(ctx, props.Host, props.StartURL); err != nil {
		return nil, err
	}
	r.seen.Add(props.StartURL)

	if c.Sitemaps != nil {
		if err := r.seedSitemap(ctx); err != nil {
			return &r.result, err
		}
	}

	interval := c.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}

	for {
		if err := ctx.Err(); err != nil {
			return &r.result, err
		}

		pending, err := c.Frontier.Pending(ctx, props.Host)
		if err != nil {
			return &r.result, err
		}
		if len(pending) == 0 {
			r.emit(ProgressEvent{Type: ProgressFinished, Cycle: r.result.Cycles})
			return &r.result, nil
		}

		if err := r.dispatch(ctx, pending); err != nil {
			return &r.result, err
		}

		select {
		case <-ctx.Done():
			return &r.result, ctx.Err()
		case <-time.After(interval):
		}
	}
}

// run holds the state shared by the workers of one Run call.
type run struct {
	crawler  *Crawler
	props    *doccrawl.CrawlProps
	seen     *SeenSet
	progress ProgressFunc

	mu        sync.Mutex
	result    Result
	total     int
	completed int
}

// seedSitemap enqueues the in-scope URLs listed in the site's sitemaps.
// Discovery failures are reported and the crawl continues from the start URL.
func (r *run) seedSitemap(ctx context.Context) error {
	urls, err := r.crawler.Sitemaps.DiscoverURLs(ctx, r.props.StartURL)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		r.emit(ProgressEvent{Type: ProgressSitemap, Error: err})
		return nil
	}

	var enqueued int
	for _, u := range urls {
		if !r.props.InScope(u) || !r.seen.Add(u) {
			continue
		}
		inserted, err := r.crawler.Frontier.EnqueueIfNew(ctx, r.props.Host, u)
		if err != nil {
			return err
		}
		if inserted {
			enqueued++
		}
	}

	r.result.Enqueued += enqueued
	r.emit(ProgressEvent{Type: ProgressSitemap, Total: len(urls), Enqueued: enqueued})
	return nil
}

// dispatch scrapes one batch of pending pages and waits for all of them.
func (r *run) dispatch(ctx context.Context, pending []*doccrawl.Page) error {
	concurrency := r.crawler.Concurrency
	if concurrency <= 0 {
		concurrency = runtime.NumCPU()
	}

	r.mu.Lock()
	r.result.Cycles++
	r.total = len(pending)
	r.completed = 0
	cycle := r.result.Cycles
	r.mu.Unlock()

	r.emit(ProgressEvent{Type: ProgressCycle, Cycle: cycle, Total: len(pending)})

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for _, page := range pending {
		g.Go(func() error {
			return r.process(gctx, cycle, page)
		})
	}
	return g.Wait()
}

// process scrapes a single page and records its outcome.
// Only storage errors and cancellation are returned.
func (r *run) process(ctx context.Context, cycle int, page *doccrawl.Page) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.started(cycle, page)

	res, err := r.crawler.ScrapePage(ctx, r.props, page, r.seen)
	if err == nil {
		r.succeeded(cycle, page, res)
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if doccrawl.ErrorCode(err) == doccrawl.ESTORAGE {
		return err
	}

	maxAttempts := r.crawler.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	if ferr := r.crawler.Frontier.RecordFailure(ctx, page, err, maxAttempts); ferr != nil {
		return ferr
	}
	r.failed(cycle, page, err)
	return nil
}

func (r *run) started(cycle int, page *doccrawl.Page) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.emitLocked(ProgressEvent{
		Type:      ProgressStarted,
		Cycle:     cycle,
		Completed: r.completed,
		Total:     r.total,
		URL:       page.URL,
		Attempts:  page.Attempts,
	})
}

func (r *run) succeeded(cycle int, page *doccrawl.Page, res *PageResult) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.completed++
	event := ProgressEvent{
		Type:      ProgressCompleted,
		Cycle:     cycle,
		Completed: r.completed,
		Total:     r.total,
		URL:       page.URL,
		Enqueued:  res.Enqueued,
	}
	switch {
	case res.Skipped:
		r.result.Skipped++
		event.Type = ProgressSkipped
	case res.Empty:
		r.result.Scraped++
		event.Type = ProgressEmpty
	default:
		r.result.Scraped++
	}
	r.result.Enqueued += res.Enqueued
	r.result.Bytes += res.Bytes
	r.result.Tokens += res.Tokens

	r.emitLocked(event)
}

func (r *run) failed(cycle int, page *doccrawl.Page, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.completed++
	event := ProgressEvent{
		Type:      ProgressRetrying,
		Cycle:     cycle,
		Completed: r.completed,
		Total:     r.total,
		URL:       page.URL,
		Attempts:  page.Attempts,
		Error:     err,
	}
	if page.Status == doccrawl.PageStatusFailed {
		r.result.Failed++
		event.Type = ProgressFailed
	} else {
		r.result.Retried++
	}

	r.emitLocked(event)
}

func (r *run) emit(event ProgressEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.emitLocked(event)
}

func (r *run) emitLocked(event ProgressEvent) {
	if r.progress != nil {
		r.progress(event)
	}
}
