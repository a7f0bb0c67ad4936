package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	"github.com/fwojciec/doccrawl"
	"github.com/fwojciec/doccrawl/bloom"
	"github.com/google/uuid"
)

// Compile-time interface verification.
var _ doccrawl.FrontierStore = (*FrontierStore)(nil)

// Default sizing of the per-host known-URL filters.
const (
	DefaultExpectedURLs      = 100000
	DefaultFalsePositiveRate = 0.01
)

// FrontierStore implements doccrawl.FrontierStore using SQLite.
//
// The store keeps one Bloom filter per host, loaded from the pages table the
// first time the host is used and kept current as URLs are recorded. URLs the
// filter has never seen go straight to the insert. URLs it may have seen are
// first checked with a read, so links known from this or an earlier run do
// not take the write path. The unique constraint on url stays authoritative.
type FrontierStore struct {
	db  *DB
	cfg frontierConfig
	now func() time.Time

	mu    sync.Mutex
	known map[string]*bloom.Filter
}

// FrontierOption configures a FrontierStore.
type FrontierOption func(*frontierConfig)

type frontierConfig struct {
	expectedURLs uint
	fpRate       float64
}

// WithExpectedURLs sizes each host's known-URL filter for at least n URLs.
// Defaults to DefaultExpectedURLs if not specified.
func WithExpectedURLs(n uint) FrontierOption {
	return func(c *frontierConfig) {
		c.expectedURLs = n
	}
}

// NewFrontierStore creates a new FrontierStore.
func NewFrontierStore(db *DB, opts ...FrontierOption) *FrontierStore {
	cfg := &frontierConfig{
		expectedURLs: DefaultExpectedURLs,
		fpRate:       DefaultFalsePositiveRate,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return &FrontierStore{
		db:    db,
		cfg:   *cfg,
		now:   time.Now,
		known: make(map[string]*bloom.Filter),
	}
}

// filter returns the host's URL filter, loading it from the pages table
// on first use. The filter is sized for at least twice the stored URLs.
func (s *FrontierStore) filter(ctx context.Context, host string) (*bloom.Filter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if f, ok := s.known[host]; ok {
		return f, nil
	}

	var count uint
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM pages WHERE host = ?", host).Scan(&count); err != nil {
		return nil, storageError(err, "counting known URLs of %s", host)
	}
	f := bloom.NewFilter(max(s.cfg.expectedURLs, 2*count), s.cfg.fpRate)

	rows, err := s.db.QueryContext(ctx, "SELECT url FROM pages WHERE host = ?", host)
	if err != nil {
		return nil, storageError(err, "loading known URLs of %s", host)
	}
	defer rows.Close()
	for rows.Next() {
		var url string
		if err := rows.Scan(&url); err != nil {
			return nil, storageError(err, "loading known URLs of %s", host)
		}
		f.Add(url)
	}
	if err := rows.Err(); err != nil {
		return nil, storageError(err, "loading known URLs of %s", host)
	}

	s.known[host] = f
	return f, nil
}

// Seed records the starting URL of a crawl as pending.
func (s *FrontierStore) Seed(ctx context.Context, host, url string) error {
	if host == "" || url == "" {
		return doccrawl.Errorf(doccrawl.EINVALID, "seed requires host and URL")
	}
	f, err := s.filter(ctx, host)
	if err != nil {
		return err
	}
	if _, err := s.insert(ctx, host, url); err != nil {
		return storageError(err, "seeding %s", url)
	}
	f.Add(url)
	return nil
}

// Pending returns a snapshot of the host's pending pages in discovery order.
func (s *FrontierStore) Pending(ctx context.Context, host string) ([]*doccrawl.Page, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, host, url, status, attempts, last_error, content_hash, discovered_at, scraped_at
		FROM pages
		WHERE host = ? AND status = 'pending'
		ORDER BY rowid
	`, host)
	if err != nil {
		return nil, storageError(err, "querying pending pages for %s", host)
	}
	defer rows.Close()

	var pages []*doccrawl.Page
	for rows.Next() {
		page, err := scanPage(rows)
		if err != nil {
			return nil, storageError(err, "reading pending pages for %s", host)
		}
		pages = append(pages, page)
	}
	if err := rows.Err(); err != nil {
		return nil, storageError(err, "reading pending pages for %s", host)
	}

	return pages, nil
}

// EnqueueIfNew records url as pending unless it is already known.
func (s *FrontierStore) EnqueueIfNew(ctx context.Context, host, url string) (bool, error) {
	f, err := s.filter(ctx, host)
	if err != nil {
		return false, err
	}

	if f.Test(url) {
		var exists bool
		err := s.db.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM pages WHERE url = ?)", url).Scan(&exists)
		if err != nil {
			return false, storageError(err, "checking %s", url)
		}
		if exists {
			return false, nil
		}
	}

	inserted, err := s.insert(ctx, host, url)
	if err != nil {
		return false, storageError(err, "enqueueing %s", url)
	}
	f.Add(url)
	return inserted, nil
}

// MarkScraped marks the page as processed and stores its content hash.
func (s *FrontierStore) MarkScraped(ctx context.Context, page *doccrawl.Page) error {
	scrapedAt := s.now().UTC()

	result, err := s.db.ExecContext(ctx, `
		UPDATE pages
		SET status = 'scraped', content_hash = ?, last_error = '', scraped_at = ?
		WHERE id = ?
	`, page.ContentHash, formatTime(scrapedAt), page.ID)
	if err != nil {
		return storageError(err, "marking %s scraped", page.URL)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return storageError(err, "marking %s scraped", page.URL)
	}
	if n == 0 {
		return doccrawl.Errorf(doccrawl.ENOTFOUND, "page %q not found", page.URL)
	}

	page.Status = doccrawl.PageStatusScraped
	page.LastError = ""
	page.ScrapedAt = scrapedAt
	return nil
}

// RecordFailure counts a failed attempt for the page.
func (s *FrontierStore) RecordFailure(ctx context.Context, page *doccrawl.Page, cause error, maxAttempts int) error {
	var message string
	if cause != nil {
		message = cause.Error()
	}

	var attempts int
	var status string
	err := s.db.QueryRowContext(ctx, `
		UPDATE pages
		SET attempts = attempts + 1,
			last_error = ?,
			status = CASE WHEN attempts + 1 >= ? THEN 'failed' ELSE 'pending' END
		WHERE id = ?
		RETURNING attempts, status
	`, message, maxAttempts, page.ID).Scan(&attempts, &status)
	if errors.Is(err, sql.ErrNoRows) {
		return doccrawl.Errorf(doccrawl.ENOTFOUND, "page %q not found", page.URL)
	}
	if err != nil {
		return storageError(err, "recording failure of %s", page.URL)
	}

	page.Attempts = attempts
	page.Status = doccrawl.PageStatus(status)
	page.LastError = message
	return nil
}

// Stats returns the page counts of a host by status.
func (s *FrontierStore) Stats(ctx context.Context, host string) (*doccrawl.FrontierStats, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT status, COUNT(*)
		FROM pages
		WHERE host = ?
		GROUP BY status
	`, host)
	if err != nil {
		return nil, storageError(err, "counting pages for %s", host)
	}
	defer rows.Close()

	var stats doccrawl.FrontierStats
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, storageError(err, "counting pages for %s", host)
		}
		switch doccrawl.PageStatus(status) {
		case doccrawl.PageStatusPending:
			stats.Pending = count
		case doccrawl.PageStatusScraped:
			stats.Scraped = count
		case doccrawl.PageStatusFailed:
			stats.Failed = count
		}
	}
	if err := rows.Err(); err != nil {
		return nil, storageError(err, "counting pages for %s", host)
	}

	return &stats, nil
}

// ResetFailed moves the host's failed pages back to pending.
func (s *FrontierStore) ResetFailed(ctx context.Context, host string) (int, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE pages
		SET status = 'pending', attempts = 0, last_error = ''
		WHERE host = ? AND status = 'failed'
	`, host)
	if err != nil {
		return 0, storageError(err, "resetting failed pages for %s", host)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, storageError(err, "resetting failed pages for %s", host)
	}
	return int(n), nil
}

// FindPageByURL returns the page recorded for url.
func (s *FrontierStore) FindPageByURL(ctx context.Context, url string) (*doccrawl.Page, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, host, url, status, attempts, last_error, content_hash, discovered_at, scraped_at
		FROM pages
		WHERE url = ?
	`, url)

	page, err := scanPage(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, doccrawl.Errorf(doccrawl.ENOTFOUND, "page %q not found", url)
	}
	if err != nil {
		return nil, storageError(err, "finding %s", url)
	}
	return page, nil
}

// insert adds a pending page unless the URL is already recorded.
// Reports whether a row was inserted.
func (s *FrontierStore) insert(ctx context.Context, host, url string) (bool, error) {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO pages (id, host, url, status, discovered_at)
		VALUES (?, ?, ?, 'pending', ?)
		ON CONFLICT(url) DO NOTHING
	`, uuid.New().String(), host, url, formatTime(s.now()))
	if err != nil {
		return false, err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// scanner is implemented by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanPage(row scanner) (*doccrawl.Page, error) {
	var page doccrawl.Page
	var status, discoveredAt, scrapedAt string

	if err := row.Scan(&page.ID, &page.Host, &page.URL, &status, &page.Attempts,
		&page.LastError, &page.ContentHash, &discoveredAt, &scrapedAt); err != nil {
		return nil, err
	}
	page.Status = doccrawl.PageStatus(status)

	var err error
	if page.DiscoveredAt, err = parseTime(discoveredAt, "discovered_at"); err != nil {
		return nil, err
	}
	if page.ScrapedAt, err = parseTime(scrapedAt, "scraped_at"); err != nil {
		return nil, err
	}
	return &page, nil
}
