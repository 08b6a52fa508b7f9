package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// FetchCollector exposes Prometheus metrics for outbound counter fetches.
type FetchCollector struct {
	registry      *prometheus.Registry
	fetchDuration *prometheus.HistogramVec
	fetchTotal    *prometheus.CounterVec
	inFlight      prometheus.Gauge
}

// NewFetchCollector constructs a collector with default histograms/counters.
func NewFetchCollector() (*FetchCollector, error) {
	registry := prometheus.NewRegistry()

	fetchDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "catime",
		Subsystem: "monitor",
		Name:      "fetch_duration_seconds",
		Help:      "Latency distribution for upstream counter fetches.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"platform"})

	fetchTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "catime",
		Subsystem: "monitor",
		Name:      "fetches_total",
		Help:      "Total number of upstream counter fetches.",
	}, []string{"platform", "outcome"})

	inFlight := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "catime",
		Subsystem: "monitor",
		Name:      "fetches_in_flight",
		Help:      "Number of fetches currently outstanding.",
	})

	for _, c := range []prometheus.Collector{fetchDuration, fetchTotal, inFlight} {
		if err := registry.Register(c); err != nil {
			return nil, err
		}
	}

	return &FetchCollector{
		registry:      registry,
		fetchDuration: fetchDuration,
		fetchTotal:    fetchTotal,
		inFlight:      inFlight,
	}, nil
}

// Handler returns an HTTP handler for exposing Prometheus metrics.
func (c *FetchCollector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// FetchStarted records dispatch of one fetch.
func (c *FetchCollector) FetchStarted() {
	c.inFlight.Inc()
}

// FetchFinished records the outcome and duration of one fetch.
func (c *FetchCollector) FetchFinished(platform string, duration time.Duration, err error) {
	c.inFlight.Dec()
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	c.fetchTotal.WithLabelValues(platform, outcome).Inc()
	c.fetchDuration.WithLabelValues(platform).Observe(duration.Seconds())
}
