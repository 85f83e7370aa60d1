// Package telemetry owns the prometheus collectors. Every method is safe on
// a nil *Metrics so tests can skip wiring them.
package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "incidentdash"

type Metrics struct {
	registry *prometheus.Registry

	loads         *prometheus.CounterVec
	rowsAccepted  prometheus.Counter
	rowsDiscarded prometheus.Counter
	rowsInserted  prometheus.Counter
	charts        *prometheus.CounterVec
	projections   *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		loads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "loads_total", Help: "CSV loads by outcome.",
		}, []string{"status"}),
		rowsAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "rows_accepted_total", Help: "CSV lines that passed validation.",
		}),
		rowsDiscarded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "rows_discarded_total", Help: "CSV lines dropped as malformed.",
		}),
		rowsInserted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "rows_inserted_total", Help: "Rows inserted into the incidents table.",
		}),
		charts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "chart_renders_total", Help: "Rendered charts by mode.",
		}, []string{"mode"}),
		projections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "projections_total", Help: "Projection attempts by outcome.",
		}, []string{"status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "http_request_duration_seconds", Help: "HTTP latency by route and status.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.loads, m.rowsAccepted, m.rowsDiscarded, m.rowsInserted, m.charts, m.projections, m.httpDuration,
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveLoad(accepted, discarded, inserted int, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "failed"
	}
	m.loads.WithLabelValues(status).Inc()
	m.rowsAccepted.Add(float64(accepted))
	m.rowsDiscarded.Add(float64(discarded))
	m.rowsInserted.Add(float64(inserted))
}

func (m *Metrics) ObserveChart(mode string) {
	if m == nil {
		return
	}
	m.charts.WithLabelValues(mode).Inc()
}

func (m *Metrics) ObserveProjection(err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "failed"
	}
	m.projections.WithLabelValues(status).Inc()
}

func (m *Metrics) ObserveHTTP(method, route string, status int, dur time.Duration) {
	if m == nil {
		return
	}
	m.httpDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(dur.Seconds())
}
