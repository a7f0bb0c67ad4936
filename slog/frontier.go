package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/doccrawl"
)

var _ doccrawl.FrontierStore = (*LoggingFrontierStore)(nil)

// LoggingFrontierStore wraps a FrontierStore with debug logging of writes.
// Reads are logged only when they fail.
type LoggingFrontierStore struct {
	next   doccrawl.FrontierStore
	logger *slog.Logger
}

// NewLoggingFrontierStore creates a new LoggingFrontierStore.
func NewLoggingFrontierStore(next doccrawl.FrontierStore, logger *slog.Logger) *LoggingFrontierStore {
	return &LoggingFrontierStore{next: next, logger: logger}
}

func (s *LoggingFrontierStore) Seed(ctx context.Context, host, url string) (err error) {
	defer func() {
		s.logger.DebugContext(ctx, "frontier seed", "host", host, "url", url, "err", err)
	}()
	return s.next.Seed(ctx, host, url)
}

func (s *LoggingFrontierStore) Pending(ctx context.Context, host string) (pages []*doccrawl.Page, err error) {
	defer func(begin time.Time) {
		s.logger.DebugContext(ctx, "frontier pending",
			"host", host,
			"count", len(pages),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.Pending(ctx, host)
}

func (s *LoggingFrontierStore) EnqueueIfNew(ctx context.Context, host, url string) (inserted bool, err error) {
	defer func() {
		if inserted || err != nil {
			s.logger.DebugContext(ctx, "frontier enqueue", "url", url, "err", err)
		}
	}()
	return s.next.EnqueueIfNew(ctx, host, url)
}

func (s *LoggingFrontierStore) MarkScraped(ctx context.Context, page *doccrawl.Page) (err error) {
	defer func() {
		s.logger.DebugContext(ctx, "frontier scraped", "url", page.URL, "hash", page.ContentHash, "err", err)
	}()
	return s.next.MarkScraped(ctx, page)
}

func (s *LoggingFrontierStore) RecordFailure(ctx context.Context, page *doccrawl.Page, cause error, maxAttempts int) (err error) {
	defer func() {
		s.logger.DebugContext(ctx, "frontier failure",
			"url", page.URL,
			"attempts", page.Attempts,
			"status", page.Status,
			"cause", cause,
			"err", err,
		)
	}()
	return s.next.RecordFailure(ctx, page, cause, maxAttempts)
}

func (s *LoggingFrontierStore) Stats(ctx context.Context, host string) (stats *doccrawl.FrontierStats, err error) {
	defer func() {
		if err != nil {
			s.logger.ErrorContext(ctx, "frontier stats", "host", host, "err", err)
		}
	}()
	return s.next.Stats(ctx, host)
}

func (s *LoggingFrontierStore) ResetFailed(ctx context.Context, host string) (n int, err error) {
	defer func() {
		s.logger.DebugContext(ctx, "frontier reset", "host", host, "count", n, "err", err)
	}()
	return s.next.ResetFailed(ctx, host)
}

func (s *LoggingFrontierStore) FindPageByURL(ctx context.Context, url string) (page *doccrawl.Page, err error) {
	defer func() {
		if err != nil && doccrawl.ErrorCode(err) != doccrawl.ENOTFOUND {
			s.logger.ErrorContext(ctx, "frontier find", "url", url, "err", err)
		}
	}()
	return s.next.FindPageByURL(ctx, url)
}
