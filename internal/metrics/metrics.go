package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// LoadsTotal counts finished playlist loads by region, outcome and source format.
	LoadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "regiontv_loads_total",
		Help: "Playlist loads by region, outcome (success, failed) and source (json, pls, none)",
	}, []string{"region", "outcome", "source"})

	// FallbacksTotal counts loads that had to fall back to the PLS playlist.
	FallbacksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "regiontv_pls_fallbacks_total",
		Help: "Loads where the JSON playlist failed and PLS was tried",
	}, []string{"region"})

	// LoadDuration observes end-to-end load time including the fallback leg.
	LoadDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "regiontv_load_duration_seconds",
		Help:    "Playlist load duration",
		Buckets: prometheus.DefBuckets,
	}, []string{"region"})

	// Channels is the channel count of the current list per region.
	Channels = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "regiontv_channels",
		Help: "Channels in the current list for a region",
	}, []string{"region"})

	// StaleResults counts load results discarded because a newer load had already been applied.
	StaleResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "regiontv_stale_results_total",
		Help: "Load results discarded as stale",
	}, []string{"region"})

	// ProbeErrors counts stream probe failures by class (recoverable, fatal).
	ProbeErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "regiontv_probe_errors_total",
		Help: "Stream probe failures by class",
	}, []string{"class"})
)
