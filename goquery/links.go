// Package goquery extracts links from HTML documents using goquery.
package goquery

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/doccrawl"
)

// DefaultSelector matches every anchor with an href attribute.
const DefaultSelector = "a[href]"

// Ensure LinkExtractor implements doccrawl.LinkExtractor at compile time.
var _ doccrawl.LinkExtractor = (*LinkExtractor)(nil)

// LinkExtractor lists the href values of the anchors in an HTML page.
// Hrefs are returned as written; resolving and scoping them is left to
// doccrawl.CrawlProps.NormalizeLink.
type LinkExtractor struct {
	selector string
}

// Option configures a LinkExtractor.
type Option func(*LinkExtractor)

// WithSelector restricts extraction to anchors matching the CSS selector,
// e.g. "main a[href], nav a[href]".
func WithSelector(selector string) Option {
	return func(e *LinkExtractor) {
		e.selector = selector
	}
}

// NewLinkExtractor creates a new LinkExtractor.
func NewLinkExtractor(opts ...Option) *LinkExtractor {
	e := &LinkExtractor{selector: DefaultSelector}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ExtractHrefs returns the distinct non-empty hrefs of the page in document order.
func (e *LinkExtractor) ExtractHrefs(html string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, doccrawl.Errorf(doccrawl.EINVALID, "failed to parse HTML: %v", err)
	}

	seen := make(map[string]bool)
	var hrefs []string
	doc.Find(e.selector).Each(func(_ int, sel *goquery.Selection) {
		href, exists := sel.Attr("href")
		if !exists {
			return
		}
		href = strings.TrimSpace(href)
		if href == "" || seen[href] {
			return
		}
		seen[href] = true
		hrefs = append(hrefs, href)
	})

	return hrefs, nil
}
