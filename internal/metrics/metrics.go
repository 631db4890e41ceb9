// Package metrics exposes prometheus collectors for the sensor, scan and
// command paths. Everything is registered on the default registry and
// served by the web server's /metrics endpoint.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// SensorReads counts hardware-facing read outcomes per sensor kind.
	// result is one of: ok, failed, disabled, stale-cache.
	SensorReads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "jarvis_sensor_reads_total",
		Help: "Sensor read results by kind and outcome.",
	}, []string{"kind", "result"})

	// CacheHits counts reads served from the TTL cache without touching hardware.
	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "jarvis_sensor_cache_hits_total",
		Help: "Sensor reads served from the TTL cache.",
	}, []string{"kind"})

	// SensorValue tracks the last good reading per kind.
	SensorValue = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "jarvis_sensor_value",
		Help: "Most recent valid sensor reading.",
	}, []string{"kind", "unit"})

	// ScanDuration observes full sweep durations.
	ScanDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "jarvis_scan_duration_seconds",
		Help:    "Duration of environment scans.",
		Buckets: prometheus.ExponentialBuckets(0.5, 2, 8),
	})

	// Scans counts sweeps by result: completed, aborted.
	Scans = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "jarvis_scans_total",
		Help: "Environment scans by result.",
	}, []string{"result"})

	// CommandsRouted counts routing decisions by mode: online, offline.
	CommandsRouted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "jarvis_commands_routed_total",
		Help: "Utterance routing decisions by mode.",
	}, []string{"mode"})

	// BackendFallbacks counts silent online-to-offline fallbacks.
	BackendFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "jarvis_backend_fallbacks_total",
		Help: "Online requests silently served by the offline responder.",
	})
)

// Handler returns the HTTP handler serving the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
