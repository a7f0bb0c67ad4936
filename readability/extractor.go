// Package readability extracts the main content of documentation pages
// with go-readability, as an alternative to trafilatura.
package readability

import (
	"strings"

	"github.com/fwojciec/doccrawl"
	"github.com/go-shiori/go-readability"
)

// Ensure Extractor implements doccrawl.Extractor at compile time.
var _ doccrawl.Extractor = (*Extractor)(nil)

// Extractor wraps go-readability to extract main content from HTML.
type Extractor struct{}

// NewExtractor creates a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract processes raw HTML and returns the main content.
func (e *Extractor) Extract(rawHTML string) (*doccrawl.ExtractResult, error) {
	if strings.TrimSpace(rawHTML) == "" {
		return nil, doccrawl.Errorf(doccrawl.EINVALID, "empty HTML input")
	}

	article, err := readability.FromReader(strings.NewReader(rawHTML), nil)
	if err != nil {
		return nil, doccrawl.Errorf(doccrawl.EINVALID, "extracting main content: %v", err)
	}

	result := &doccrawl.ExtractResult{Title: article.Title}
	if strings.TrimSpace(article.TextContent) != "" {
		result.ContentHTML = article.Content
	}
	return result, nil
}
