// Package fs provides file-based storage for crawled documentation.
package fs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/fwojciec/doccrawl"
)

// MetadataSuffix is appended to a document's path to name its metadata sidecar.
const MetadataSuffix = ".metadata.json"

// OutputPath converts a page URL to a file path relative to the output directory.
// Example: https://example.com/docs/api → example.com/docs/api/index.md
//
// A last path element with an extension has it replaced by .md:
// https://example.com/docs/page.html → example.com/docs/page.md
// Dotfiles have no extension: https://example.com/docs/.nojekyll →
// example.com/docs/.nojekyll/index.md
func OutputPath(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", doccrawl.Errorf(doccrawl.EINVALID, "invalid URL %q: %v", rawURL, err)
	}
	if u.Host == "" {
		return "", doccrawl.Errorf(doccrawl.EINVALID, "URL %q has no host", rawURL)
	}
	if strings.ContainsAny(u.Host, `/\`) || u.Host == "." || u.Host == ".." {
		return "", doccrawl.Errorf(doccrawl.EINVALID, "invalid host in URL %q", rawURL)
	}

	// Cleaning a rooted path resolves every ".." inside the host directory.
	p := path.Clean("/" + u.Path)

	if ext := extension(path.Base(p)); ext != "" {
		p = strings.TrimSuffix(p, ext) + ".md"
	} else {
		p = path.Join(p, "index.md")
	}

	return filepath.Join(u.Host, filepath.FromSlash(strings.TrimPrefix(p, "/"))), nil
}

// extension returns the suffix of name starting at its last dot.
// A leading dot (".nojekyll") or a trailing one ("v1.") is not an extension.
func extension(name string) string {
	i := strings.LastIndex(name, ".")
	if i <= 0 || i == len(name)-1 {
		return ""
	}
	return name[i:]
}

// metadataFile is the JSON layout of a metadata sidecar.
type metadataFile struct {
	MetadataAttributes doccrawl.Metadata `json:"metadataAttributes"`
}

// Ensure Store implements doccrawl.OutputStore at compile time.
var _ doccrawl.OutputStore = (*Store)(nil)

// Store writes documents as markdown files with JSON metadata sidecars
// under a base directory.
type Store struct {
	baseDir string
}

// NewStore creates a new Store that writes to the given base directory.
func NewStore(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

// Path returns the file the document for url is written to.
func (s *Store) Path(url string) (string, error) {
	relPath, err := OutputPath(url)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.baseDir, relPath), nil
}

// Exists reports whether the markdown file for url exists.
func (s *Store) Exists(url string) (bool, error) {
	fullPath, err := s.Path(url)
	if err != nil {
		return false, err
	}

	_, err = os.Stat(fullPath)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// Write stores the document's markdown and its metadata sidecar.
// The sidecar is written first and each file is renamed into place,
// so an existing markdown file always has complete content and metadata.
func (s *Store) Write(ctx context.Context, doc *doccrawl.Document) error {
	if err := doc.Validate(); err != nil {
		return err
	}

	fullPath, err := s.Path(doc.URL)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return err
	}

	metadata, err := json.MarshalIndent(metadataFile{MetadataAttributes: doc.Metadata}, "", "    ")
	if err != nil {
		return fmt.Errorf("encoding metadata: %w", err)
	}
	if err := writeFile(fullPath+MetadataSuffix, metadata); err != nil {
		return err
	}

	return writeFile(fullPath, []byte(doc.Markdown))
}

// writeFile writes data to a temporary file next to name and renames it into place.
func writeFile(name string, data []byte) error {
	tmp := name + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	if err := os.Rename(tmp, name); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}
