package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	EstimationDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "censuspop_estimation_duration_seconds",
		Help:    "Duration of population estimation per city",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{"city"})
	IntersectingZones = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "censuspop_intersecting_zones",
		Help:    "Zones intersecting the query polygon per request",
		Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250, 500, 1000},
	})
	KMLParseFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "censuspop_kml_parse_failures_total",
		Help: "Total uploaded KML files rejected as malformed",
	})
	CacheHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "censuspop_cache_hits_total",
		Help: "Total census-zones cache hits",
	})
	CacheMissesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "censuspop_cache_misses_total",
		Help: "Total census-zones cache misses",
	})
	RequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "censuspop_http_requests_total",
		Help: "Total HTTP requests by route and status",
	}, []string{"route", "status"})
)

func init() {
	prometheus.MustRegister(EstimationDuration)
	prometheus.MustRegister(IntersectingZones)
	prometheus.MustRegister(KMLParseFailuresTotal)
	prometheus.MustRegister(CacheHitsTotal)
	prometheus.MustRegister(CacheMissesTotal)
	prometheus.MustRegister(RequestsTotal)
}

// ObserveEstimation records how long one city took to estimate
func ObserveEstimation(city string, d time.Duration) {
	EstimationDuration.WithLabelValues(city).Observe(d.Seconds())
}

// Handler exposes the registered metrics for scraping
func Handler() http.Handler { return promhttp.Handler() }
