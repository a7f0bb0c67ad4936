package mock

import "github.com/fwojciec/doccrawl"

var _ doccrawl.Extractor = (*Extractor)(nil)

// Extractor is a mock implementation of doccrawl.Extractor.
type Extractor struct {
	ExtractFn func(html string) (*doccrawl.ExtractResult, error)
}

func (e *Extractor) Extract(html string) (*doccrawl.ExtractResult, error) {
	return e.ExtractFn(html)
}

var _ doccrawl.LinkExtractor = (*LinkExtractor)(nil)

// LinkExtractor is a mock implementation of doccrawl.LinkExtractor.
type LinkExtractor struct {
	ExtractHrefsFn func(html string) ([]string, error)
}

func (e *LinkExtractor) ExtractHrefs(html string) ([]string, error) {
	return e.ExtractHrefsFn(html)
}
