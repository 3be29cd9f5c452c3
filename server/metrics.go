package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Metrics are registered on their own registry so tests and several servers
// in one process do not collide on the global one.
type Metrics struct {
	Registry    *prometheus.Registry
	Requests    *prometheus.CounterVec
	Pages       prometheus.Counter
	Restarts    prometheus.Counter
	StoreErrors *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kvview_http_requests_total",
			Help: "HTTP requests by method, route and status",
		}, []string{"method", "route", "status"}),
		Pages: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kvview_list_pages_total",
			Help: "list pages served",
		}),
		Restarts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kvview_scan_cursor_restarts_total",
			Help: "scans restarted from the prefix start because the cursor was stale",
		}),
		StoreErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kvview_store_errors_total",
			Help: "store failures by operation",
		}, []string{"op"}),
	}
	m.Registry.MustRegister(
		m.Requests, m.Pages, m.Restarts, m.StoreErrors,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}
