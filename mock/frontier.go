package mock

import (
	"context"

	"github.com/fwojciec/doccrawl"
)

var _ doccrawl.FrontierStore = (*FrontierStore)(nil)

// FrontierStore is a mock implementation of doccrawl.FrontierStore.
type FrontierStore struct {
	SeedFn          func(ctx context.Context, host, url string) error
	PendingFn       func(ctx context.Context, host string) ([]*doccrawl.Page, error)
	EnqueueIfNewFn  func(ctx context.Context, host, url string) (bool, error)
	MarkScrapedFn   func(ctx context.Context, page *doccrawl.Page) error
	RecordFailureFn func(ctx context.Context, page *doccrawl.Page, cause error, maxAttempts int) error
	StatsFn         func(ctx context.Context, host string) (*doccrawl.FrontierStats, error)
	ResetFailedFn   func(ctx context.Context, host string) (int, error)
	FindPageByURLFn func(ctx context.Context, url string) (*doccrawl.Page, error)
}

func (s *FrontierStore) Seed(ctx context.Context, host, url string) error {
	return s.SeedFn(ctx, host, url)
}

func (s *FrontierStore) Pending(ctx context.Context, host string) ([]*doccrawl.Page, error) {
	return s.PendingFn(ctx, host)
}

func (s *FrontierStore) EnqueueIfNew(ctx context.Context, host, url string) (bool, error) {
	return s.EnqueueIfNewFn(ctx, host, url)
}

func (s *FrontierStore) MarkScraped(ctx context.Context, page *doccrawl.Page) error {
	return s.MarkScrapedFn(ctx, page)
}

func (s *FrontierStore) RecordFailure(ctx context.Context, page *doccrawl.Page, cause error, maxAttempts int) error {
	return s.RecordFailureFn(ctx, page, cause, maxAttempts)
}

func (s *FrontierStore) Stats(ctx context.Context, host string) (*doccrawl.FrontierStats, error) {
	return s.StatsFn(ctx, host)
}

func (s *FrontierStore) ResetFailed(ctx context.Context, host string) (int, error) {
	return s.ResetFailedFn(ctx, host)
}

func (s *FrontierStore) FindPageByURL(ctx context.Context, url string) (*doccrawl.Page, error) {
	return s.FindPageByURLFn(ctx, url)
}
