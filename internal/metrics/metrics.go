// Package metrics registers the Prometheus collectors exposed on /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	Features = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "agritag_features",
		Help: "Number of features in the store",
	})
	DrawEventsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "agritag_draw_events_total",
		Help: "Drawing events handled, by kind",
	}, []string{"kind"})
	ImportsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "agritag_imports_total",
		Help: "Import attempts, by result (ok or rejected)",
	}, []string{"result"})
	PersistSavesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "agritag_persist_saves_total",
		Help: "Snapshot saves, by result (ok or error)",
	}, []string{"result"})
	ExportsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "agritag_exports_total",
		Help: "Scheduled exports, by destination and result",
	}, []string{"destination", "result"})
	RequestDurationMs = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "agritag_http_request_duration_ms",
		Help:    "HTTP request duration in milliseconds",
		Buckets: []float64{1, 5, 10, 20, 50, 100, 200, 500, 1000},
	}, []string{"method"})
)

func init() {
	prometheus.MustRegister(Features)
	prometheus.MustRegister(DrawEventsTotal)
	prometheus.MustRegister(ImportsTotal)
	prometheus.MustRegister(PersistSavesTotal)
	prometheus.MustRegister(ExportsTotal)
	prometheus.MustRegister(RequestDurationMs)
}

// Result label values.
const (
	ResultOK       = "ok"
	ResultError    = "error"
	ResultRejected = "rejected"
)

// Handler serves the default registry.
func Handler() http.Handler { return promhttp.Handler() }
