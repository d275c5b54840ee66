// Package metrics exposes Prometheus counters for the refresh loop and
// the quote provider.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all Prometheus collectors for the tracker.
type Metrics struct {
	RefreshCycles        prometheus.Counter
	RefreshCycleFailures prometheus.Counter
	StocksUpdated        prometheus.Counter
	QuoteRequests        prometheus.Counter
	QuoteRequestFailures prometheus.Counter

	registry *prometheus.Registry
}

// New registers and returns the tracker's metrics on a dedicated
// registry, keeping the default registry's Go runtime collectors out of
// tests.
func New() *Metrics {
	m := &Metrics{
		RefreshCycles: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tracker_refresh_cycles_total",
			Help: "Refresh cycles started",
		}),
		RefreshCycleFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tracker_refresh_cycle_failures_total",
			Help: "Refresh cycles aborted by a store or provider failure",
		}),
		StocksUpdated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tracker_stocks_updated_total",
			Help: "Per-symbol price updates persisted by the refresh loop",
		}),
		QuoteRequests: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tracker_quote_requests_total",
			Help: "Batched quote requests issued to the provider",
		}),
		QuoteRequestFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tracker_quote_request_failures_total",
			Help: "Batched quote requests that failed",
		}),
		registry: prometheus.NewRegistry(),
	}

	m.registry.MustRegister(
		m.RefreshCycles,
		m.RefreshCycleFailures,
		m.StocksUpdated,
		m.QuoteRequests,
		m.QuoteRequestFailures,
	)
	return m
}

// Registry returns the registry backing the /metrics endpoint.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
