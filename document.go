package doccrawl

import "context"

// Document is the extracted content of a page, ready to be written out.
type Document struct {
	URL      string
	Markdown string
	Metadata Metadata
}

// Metadata describes the provenance of a document for the search index.
type Metadata struct {
	Languages []string `json:"languages"`
	Projects  []string `json:"projects"`
	URL       string   `json:"url"`
}

// NewDocument returns a document for url tagged with the run's languages and projects.
func NewDocument(props *CrawlProps, url, markdown string) *Document {
	languages := props.Languages
	if languages == nil {
		languages = []string{}
	}
	projects := props.Projects
	if projects == nil {
		projects = []string{}
	}
	return &Document{
		URL:      url,
		Markdown: markdown,
		Metadata: Metadata{
			Languages: languages,
			Projects:  projects,
			URL:       url,
		},
	}
}

// Validate returns an error if the document contains invalid fields.
func (d *Document) Validate() error {
	if d.URL == "" {
		return Errorf(EINVALID, "document URL required")
	}
	return nil
}

// OutputStore persists documents as files laid out by URL.
type OutputStore interface {
	// Path returns the file the document for url is written to.
	Path(url string) (string, error)

	// Exists reports whether the document for url has already been written.
	Exists(url string) (bool, error)

	// Write stores the document and its metadata sidecar,
	// creating parent directories as needed.
	Write(ctx context.Context, doc *Document) error
}
