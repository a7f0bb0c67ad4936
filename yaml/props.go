// Package yaml loads crawl configuration files.
package yaml

import (
	"bytes"
	"errors"
	"io"
	"os"

	"github.com/fwojciec/doccrawl"
	"gopkg.in/yaml.v3"
)

// LoadCrawlProps reads a CrawlProps record from the YAML file at path.
// Unknown keys are rejected. The result is not validated so that command
// line flags can still fill in or override fields.
//
// Returns ENOTFOUND if the file does not exist and EINVALID if it cannot
// be parsed.
func LoadCrawlProps(path string) (*doccrawl.CrawlProps, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, doccrawl.Errorf(doccrawl.ENOTFOUND, "config file %s not found", path)
		}
		return nil, err
	}
	return ParseCrawlProps(data)
}

// ParseCrawlProps decodes a CrawlProps record from YAML. An empty document
// yields zero-valued props.
func ParseCrawlProps(data []byte) (*doccrawl.CrawlProps, error) {
	var props doccrawl.CrawlProps

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&props); err != nil && !errors.Is(err, io.EOF) {
		return nil, doccrawl.Errorf(doccrawl.EINVALID, "parsing config: %v", err)
	}
	return &props, nil
}
