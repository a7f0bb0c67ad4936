package mock

import (
	"context"

	"github.com/fwojciec/doccrawl"
)

var _ doccrawl.OutputStore = (*OutputStore)(nil)

// OutputStore is a mock implementation of doccrawl.OutputStore.
type OutputStore struct {
	PathFn   func(url string) (string, error)
	ExistsFn func(url string) (bool, error)
	WriteFn  func(ctx context.Context, doc *doccrawl.Document) error
}

func (s *OutputStore) Path(url string) (string, error) {
	return s.PathFn(url)
}

func (s *OutputStore) Exists(url string) (bool, error) {
	return s.ExistsFn(url)
}

func (s *OutputStore) Write(ctx context.Context, doc *doccrawl.Document) error {
	return s.WriteFn(ctx, doc)
}
