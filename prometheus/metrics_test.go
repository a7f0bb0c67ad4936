package prometheus_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fwojciec/doccrawl/crawl"
	"github.com/fwojciec/doccrawl/mock"
	dcprom "github.com/fwojciec/doccrawl/prometheus"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Observe(t *testing.T) {
	t.Parallel()

	t.Run("counts pages by outcome", func(t *testing.T) {
		t.Parallel()

		m := dcprom.NewMetrics(prometheus.NewRegistry())

		m.Observe(crawl.ProgressEvent{Type: crawl.ProgressCycle, Cycle: 1, Total: 5})
		m.Observe(crawl.ProgressEvent{Type: crawl.ProgressCompleted, Completed: 1, Total: 5, Enqueued: 3})
		m.Observe(crawl.ProgressEvent{Type: crawl.ProgressCompleted, Completed: 2, Total: 5, Enqueued: 1})
		m.Observe(crawl.ProgressEvent{Type: crawl.ProgressEmpty, Completed: 3, Total: 5})
		m.Observe(crawl.ProgressEvent{Type: crawl.ProgressSkipped, Completed: 4, Total: 5})
		m.Observe(crawl.ProgressEvent{Type: crawl.ProgressFailed, Completed: 5, Total: 5})

		assert.InDelta(t, 2, testutil.ToFloat64(m.Pages.WithLabelValues(dcprom.OutcomeScraped)), 0)
		assert.InDelta(t, 1, testutil.ToFloat64(m.Pages.WithLabelValues(dcprom.OutcomeEmpty)), 0)
		assert.InDelta(t, 1, testutil.ToFloat64(m.Pages.WithLabelValues(dcprom.OutcomeSkipped)), 0)
		assert.InDelta(t, 1, testutil.ToFloat64(m.Pages.WithLabelValues(dcprom.OutcomeFailed)), 0)
		assert.InDelta(t, 0, testutil.ToFloat64(m.Pages.WithLabelValues(dcprom.OutcomeRetrying)), 0)
		assert.InDelta(t, 4, testutil.ToFloat64(m.LinksEnqueued), 0)
		assert.InDelta(t, 1, testutil.ToFloat64(m.Cycles), 0)
	})

	t.Run("tracks pages left in the cycle", func(t *testing.T) {
		t.Parallel()

		m := dcprom.NewMetrics(prometheus.NewRegistry())

		m.Observe(crawl.ProgressEvent{Type: crawl.ProgressCycle, Cycle: 1, Total: 3})
		assert.InDelta(t, 3, testutil.ToFloat64(m.Pending), 0)

		m.Observe(crawl.ProgressEvent{Type: crawl.ProgressRetrying, Completed: 1, Total: 3})
		assert.InDelta(t, 2, testutil.ToFloat64(m.Pending), 0)

		m.Observe(crawl.ProgressEvent{Type: crawl.ProgressFinished})
		assert.InDelta(t, 0, testutil.ToFloat64(m.Pending), 0)
	})

	t.Run("counts sitemap seeds as enqueued links", func(t *testing.T) {
		t.Parallel()

		m := dcprom.NewMetrics(prometheus.NewRegistry())

		m.Observe(crawl.ProgressEvent{Type: crawl.ProgressSitemap, Total: 10, Enqueued: 7})

		assert.InDelta(t, 7, testutil.ToFloat64(m.LinksEnqueued), 0)
	})
}

func TestNewMetrics_DuplicateRegistrationPanics(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	dcprom.NewMetrics(reg)

	assert.Panics(t, func() { dcprom.NewMetrics(reg) })
}

func TestInstrumentedFetcher(t *testing.T) {
	t.Parallel()

	m := dcprom.NewMetrics(prometheus.NewRegistry())
	calls := 0
	inner := &mock.Fetcher{
		FetchFn: func(ctx context.Context, url string) (string, error) {
			calls++
			if calls == 2 {
				return "", errors.New("timeout")
			}
			return "<html></html>", nil
		},
		CloseFn: func() error { return nil },
	}
	fetcher := dcprom.NewInstrumentedFetcher(inner, m)

	html, err := fetcher.Fetch(context.Background(), "https://example.com/docs")
	require.NoError(t, err)
	assert.Equal(t, "<html></html>", html)

	_, err = fetcher.Fetch(context.Background(), "https://example.com/docs")
	require.Error(t, err)

	assert.Equal(t, 2, testutil.CollectAndCount(m.FetchDuration))
	require.NoError(t, fetcher.Close())
}

func TestHandler(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m := dcprom.NewMetrics(reg)
	m.Observe(crawl.ProgressEvent{Type: crawl.ProgressCycle, Cycle: 1, Total: 2})

	srv := httptest.NewServer(dcprom.Handler(reg))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "doccrawl_cycles_total 1")
	assert.Contains(t, string(body), "doccrawl_frontier_pending 2")
}
