package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP метрики
	HttpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "zaphook_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	HttpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "zaphook_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// Метрики callback'ов
	CallbacksReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "zaphook_callbacks_received_total",
			Help: "Total number of received callbacks",
		},
		[]string{"outcome"}, // stored, skipped
	)

	CommandExtractions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "zaphook_command_extractions_total",
			Help: "Callbacks by command extraction source",
		},
		[]string{"source"}, // top_level, result_field, whole_string, pattern, none
	)

	ResultKinds = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "zaphook_result_kinds_total",
			Help: "Callbacks by normalized result kind",
		},
		[]string{"kind"},
	)

	StoredRecords = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "zaphook_stored_records",
			Help: "Current number of stored records",
		},
	)

	ActiveWatchers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "zaphook_websocket_watchers",
			Help: "Number of websocket clients waiting for a record",
		},
	)
)

// ObserveCallback - обновление метрик после обработки callback'а
func ObserveCallback(stored bool, source, kind string, recordsCount int) {
	outcome := "skipped"
	if stored {
		outcome = "stored"
	}
	if source == "" {
		source = "none"
	}
	CallbacksReceived.WithLabelValues(outcome).Inc()
	CommandExtractions.WithLabelValues(source).Inc()
	ResultKinds.WithLabelValues(kind).Inc()
	StoredRecords.Set(float64(recordsCount))
}
