// Package prometheus exposes crawl progress as Prometheus metrics.
package prometheus

import (
	"context"
	"net/http"
	"time"

	"github.com/fwojciec/doccrawl"
	"github.com/fwojciec/doccrawl/crawl"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "doccrawl"

// Page outcomes used as the "outcome" label of the pages counter.
const (
	OutcomeScraped  = "scraped"
	OutcomeEmpty    = "empty"
	OutcomeSkipped  = "skipped"
	OutcomeRetrying = "retried"
	OutcomeFailed   = "failed"
)

// Metrics holds the collectors for one crawl process.
type Metrics struct {
	Pages         *prometheus.CounterVec
	LinksEnqueued prometheus.Counter
	Pending       prometheus.Gauge
	Cycles        prometheus.Counter
	FetchDuration *prometheus.HistogramVec
}

// NewMetrics creates the crawl collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Pages: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "pages_total",
				Help:      "Pages processed, by outcome.",
			},
			[]string{"outcome"},
		),
		LinksEnqueued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "links_enqueued_total",
			Help:      "New URLs added to the frontier.",
		}),
		Pending: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "frontier_pending",
			Help:      "Pages of the current cycle not yet processed.",
		}),
		Cycles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cycles_total",
			Help:      "Dispatch cycles started.",
		}),
		FetchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "fetch_duration_seconds",
				Help:      "Duration of page fetches.",
				Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"result"},
		),
	}
	reg.MustRegister(m.Pages, m.LinksEnqueued, m.Pending, m.Cycles, m.FetchDuration)
	return m
}

// Observe records a crawl progress event. It can be used directly as a
// crawl.ProgressFunc or called from one.
func (m *Metrics) Observe(event crawl.ProgressEvent) {
	switch event.Type {
	case crawl.ProgressSitemap:
		m.LinksEnqueued.Add(float64(event.Enqueued))
	case crawl.ProgressCycle:
		m.Cycles.Inc()
		m.Pending.Set(float64(event.Total))
	case crawl.ProgressCompleted:
		m.page(event, OutcomeScraped)
	case crawl.ProgressEmpty:
		m.page(event, OutcomeEmpty)
	case crawl.ProgressSkipped:
		m.page(event, OutcomeSkipped)
	case crawl.ProgressRetrying:
		m.page(event, OutcomeRetrying)
	case crawl.ProgressFailed:
		m.page(event, OutcomeFailed)
	case crawl.ProgressFinished:
		m.Pending.Set(0)
	}
}

func (m *Metrics) page(event crawl.ProgressEvent, outcome string) {
	m.Pages.WithLabelValues(outcome).Inc()
	m.LinksEnqueued.Add(float64(event.Enqueued))
	m.Pending.Set(float64(event.Total - event.Completed))
}

// Handler returns an HTTP handler serving the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

var _ doccrawl.Fetcher = (*InstrumentedFetcher)(nil)

// InstrumentedFetcher wraps a Fetcher and records fetch durations.
type InstrumentedFetcher struct {
	next    doccrawl.Fetcher
	metrics *Metrics
}

// NewInstrumentedFetcher creates a new InstrumentedFetcher.
func NewInstrumentedFetcher(next doccrawl.Fetcher, metrics *Metrics) *InstrumentedFetcher {
	return &InstrumentedFetcher{next: next, metrics: metrics}
}

// Fetch delegates to the wrapped fetcher and observes its duration.
func (f *InstrumentedFetcher) Fetch(ctx context.Context, url string) (html string, err error) {
	defer func(begin time.Time) {
		result := "ok"
		if err != nil {
			result = "error"
		}
		f.metrics.FetchDuration.WithLabelValues(result).Observe(time.Since(begin).Seconds())
	}(time.Now())
	return f.next.Fetch(ctx, url)
}

// Close delegates to the wrapped fetcher.
func (f *InstrumentedFetcher) Close() error {
	return f.next.Close()
}
