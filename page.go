package doccrawl

import (
	"context"
	"time"
)

// PageStatus is the lifecycle state of a page in the frontier.
type PageStatus string

// Page lifecycle states. Pages start pending, become scraped once their
// content has been written, or failed once they have used up their attempts.
const (
	PageStatusPending PageStatus = "pending"
	PageStatusScraped PageStatus = "scraped"
	PageStatusFailed  PageStatus = "failed"
)

// Page is a URL recorded in the crawl frontier.
type Page struct {
	ID           string     `json:"id"`
	Host         string     `json:"host"`
	URL          string     `json:"url"`
	Status       PageStatus `json:"status"`
	Attempts     int        `json:"attempts"`
	LastError    string     `json:"lastError,omitempty"`
	ContentHash  string     `json:"contentHash,omitempty"`
	DiscoveredAt time.Time  `json:"discoveredAt"`
	ScrapedAt    time.Time  `json:"scrapedAt,omitzero"`
}

// IsScraped reports whether the page has been processed successfully.
func (p *Page) IsScraped() bool {
	return p.Status == PageStatusScraped
}

// FrontierStats counts the pages of a host by status.
type FrontierStats struct {
	Pending int `json:"pending"`
	Scraped int `json:"scraped"`
	Failed  int `json:"failed"`
}

// Total returns the number of pages known for the host.
func (s FrontierStats) Total() int {
	return s.Pending + s.Scraped + s.Failed
}

// FrontierStore is the durable record of every URL discovered for a host.
// All methods return ESTORAGE errors when the underlying storage fails.
type FrontierStore interface {
	// Seed records the starting URL of a crawl as pending.
	// Seeding a URL that is already known leaves it untouched.
	Seed(ctx context.Context, host, url string) error

	// Pending returns a snapshot of the host's pending pages in discovery order.
	Pending(ctx context.Context, host string) ([]*Page, error)

	// EnqueueIfNew records url as pending unless it is already known.
	// Reports whether a new page was inserted. Safe for concurrent use.
	EnqueueIfNew(ctx context.Context, host, url string) (bool, error)

	// MarkScraped marks the page as processed and stores its content hash.
	// Returns ENOTFOUND if the page does not exist.
	MarkScraped(ctx context.Context, page *Page) error

	// RecordFailure counts a failed attempt for the page. Once the page has
	// reached maxAttempts it becomes failed; otherwise it stays pending.
	// The page's Attempts, Status and LastError are updated in place.
	RecordFailure(ctx context.Context, page *Page, cause error, maxAttempts int) error

	// Stats returns the page counts of a host by status.
	Stats(ctx context.Context, host string) (*FrontierStats, error)

	// ResetFailed moves the host's failed pages back to pending with their
	// attempts cleared. Returns the number of pages reset.
	ResetFailed(ctx context.Context, host string) (int, error)

	// FindPageByURL returns the page recorded for url.
	// Returns ENOTFOUND if the URL is unknown.
	FindPageByURL(ctx context.Context, url string) (*Page, error)
}
