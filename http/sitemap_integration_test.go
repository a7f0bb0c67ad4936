//go:build integration

package http_test

import (
	"context"
	"strings"
	"testing"
	"time"

	doccrawlhttp "github.com/fwojciec/doccrawl/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSitemapService_Integration_PlaywrightDocs(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	svc := doccrawlhttp.NewSitemapService(nil)

	urls, err := svc.DiscoverURLs(ctx, "https://playwright.dev/python/docs/intro")
	require.NoError(t, err)
	require.NotEmpty(t, urls, "expected URLs from playwright.dev sitemap")
	t.Logf("Found %d URLs from playwright.dev sitemap", len(urls))

	var python int
	for _, u := range urls {
		if strings.Contains(u, "/python/docs/") {
			python++
		}
	}
	assert.Positive(t, python, "expected Python docs pages in sitemap")
}
