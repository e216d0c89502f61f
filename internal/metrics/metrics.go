// Package metrics exposes Prometheus collectors for workshop activity.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "makermanager"

type Metrics struct {
	ledgerOps       *prometheus.CounterVec
	machineEvents   *prometheus.CounterVec
	scans           *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ledgerOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ledger_operations_total",
			Help:      "Material ledger operations by transaction type.",
		}, []string{"type"}),
		machineEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "machine_usage_events_total",
			Help:      "Machine usage sessions started and stopped.",
		}, []string{"event"}),
		scans: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scan_resolutions_total",
			Help:      "Scanned codes by entity type and outcome.",
		}, []string{"type", "outcome"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}

	reg.MustRegister(m.ledgerOps, m.machineEvents, m.scans, m.requestDuration)

	return m
}

func (m *Metrics) LedgerOperation(kind string) {
	if m == nil {
		return
	}

	m.ledgerOps.WithLabelValues(kind).Inc()
}

func (m *Metrics) MachineEvent(event string) {
	if m == nil {
		return
	}

	m.machineEvents.WithLabelValues(event).Inc()
}

func (m *Metrics) ScanResolved(entityType string, resolved bool) {
	if m == nil {
		return
	}

	outcome := "resolved"
	if !resolved {
		outcome = "unresolved"
	}

	m.scans.WithLabelValues(entityType, outcome).Inc()
}

// Middleware observes request latency labelled with the matched chi route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		m.requestDuration.WithLabelValues(r.Method, route, strconv.Itoa(status)).Observe(time.Since(start).Seconds())
	})
}

func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
