package doccrawl

import (
	"net/url"
	"path"
	"slices"
	"strings"
)

// CrawlProps is the configuration of a single crawl run.
// Host, PathPrefix and StartURL are required; the rest is optional.
type CrawlProps struct {
	// Host is the site authority including the scheme, e.g. "https://example.com".
	Host string `yaml:"host"`

	// PathPrefix is the leading path every discovered link must have.
	PathPrefix string `yaml:"path_prefix"`

	// StartURL is the first page of the crawl. It must be on Host.
	StartURL string `yaml:"start_url"`

	// Suffixes, when set, restricts discovered paths to those ending in one of them.
	Suffixes []string `yaml:"suffixes"`

	// IgnoreSuffixes drops discovered paths ending in any of them.
	IgnoreSuffixes []string `yaml:"ignore_suffixes"`

	// Languages and Projects are attached to the metadata of every saved document.
	Languages []string `yaml:"languages"`
	Projects  []string `yaml:"projects"`
}

// Validate returns an error if the configuration is incomplete or inconsistent.
func (p *CrawlProps) Validate() error {
	if p.Host == "" {
		return Errorf(EINVALID, "host required")
	}
	u, err := url.Parse(p.Host)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return Errorf(EINVALID, "host %q must be an absolute URL such as https://example.com", p.Host)
	}
	if u.Path != "" || u.RawQuery != "" || u.Fragment != "" {
		return Errorf(EINVALID, "host %q must not contain a path", p.Host)
	}
	if p.PathPrefix == "" {
		return Errorf(EINVALID, "path prefix required")
	}
	if !strings.HasPrefix(p.PathPrefix, "/") {
		return Errorf(EINVALID, "path prefix %q must start with /", p.PathPrefix)
	}
	if p.StartURL == "" {
		return Errorf(EINVALID, "start URL required")
	}
	if !strings.HasPrefix(p.StartURL, p.Host+"/") && p.StartURL != p.Host {
		return Errorf(EINVALID, "start URL %q is not on host %q", p.StartURL, p.Host)
	}
	for _, s := range slices.Concat(p.Suffixes, p.IgnoreSuffixes) {
		if s == "" {
			return Errorf(EINVALID, "suffixes must not be empty strings")
		}
	}
	return nil
}

// NormalizeLink resolves an anchor href found on the page at currentPath
// into an absolute URL on Host. currentPath is the page's escaped path, so
// percent-encoded segments stay encoded in relative links. The bool result
// is false when the href points off-site, is a pure fragment, or falls
// outside the configured scope.
func (p *CrawlProps) NormalizeLink(href, currentPath string) (string, bool) {
	if href == "" || strings.Contains(href, ":") || strings.HasPrefix(href, "#") {
		return "", false
	}
	// Protocol-relative links name another authority.
	if strings.HasPrefix(href, "//") {
		return "", false
	}
	if i := strings.Index(href, "#"); i != -1 {
		href = href[:i]
	}

	var joined string
	switch {
	case strings.HasPrefix(href, "/"):
		joined = href
	case currentPath == "":
		joined = "/" + href
	case strings.HasSuffix(currentPath, "/"):
		joined = currentPath + href
	default:
		joined = path.Dir(currentPath) + "/" + href
	}
	canonical := path.Clean(joined)

	if !p.acceptPath(canonical) {
		return "", false
	}
	return p.Host + canonical, true
}

// InScope reports whether an absolute URL is on Host and passes the
// prefix and suffix rules that NormalizeLink applies to discovered links.
// Paths are compared in their escaped form.
func (p *CrawlProps) InScope(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme+"://"+u.Host != p.Host {
		return false
	}
	escaped := u.EscapedPath()
	if escaped == "" {
		return p.acceptPath("/")
	}
	return p.acceptPath(path.Clean(escaped))
}

// acceptPath applies the prefix, allow-list and deny-list rules in order.
func (p *CrawlProps) acceptPath(pth string) bool {
	if !strings.HasPrefix(pth, p.PathPrefix) {
		return false
	}
	if len(p.Suffixes) > 0 && !hasAnySuffix(pth, p.Suffixes) {
		return false
	}
	if len(p.IgnoreSuffixes) > 0 && hasAnySuffix(pth, p.IgnoreSuffixes) {
		return false
	}
	return true
}

func hasAnySuffix(s string, suffixes []string) bool {
	for _, suffix := range suffixes {
		if strings.HasSuffix(s, suffix) {
			return true
		}
	}
	return false
}
