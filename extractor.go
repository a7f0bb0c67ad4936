package doccrawl

// ExtractResult holds the extracted content from an HTML page.
type ExtractResult struct {
	// Title is the page title extracted from metadata.
	Title string

	// ContentHTML is the main content as clean HTML.
	// It is empty when no main content could be identified.
	ContentHTML string
}

// Extractor extracts main content from HTML pages, removing boilerplate.
type Extractor interface {
	Extract(html string) (*ExtractResult, error)
}

// Converter converts HTML to Markdown.
type Converter interface {
	// Convert transforms HTML content into Markdown.
	// Empty or whitespace-only input converts to an empty string.
	Convert(html string) (string, error)
}

// LinkExtractor lists the raw href values of the anchors in an HTML page.
type LinkExtractor interface {
	// ExtractHrefs returns href attributes in document order, unresolved.
	ExtractHrefs(html string) ([]string, error)
}
