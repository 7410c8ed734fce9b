package vies

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Lookup outcomes reported in the vatkit_vies_lookups_total counter.
const (
	outcomeValid       = "valid"
	outcomeInvalid     = "invalid"
	outcomeError       = "error"
	outcomeCircuitOpen = "circuit_open"
)

// Metrics tracks VIES lookups. A nil *Metrics is valid and records nothing.
type Metrics struct {
	Lookups        *prometheus.CounterVec
	LookupDuration *prometheus.HistogramVec
	Retries        *prometheus.CounterVec
	CacheRequests  *prometheus.CounterVec
}

// NewMetrics registers the VIES metrics with reg. A nil reg registers with the
// default Prometheus registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		Lookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vatkit_vies_lookups_total",
			Help: "VIES lookups by member state and outcome",
		}, []string{"country", "outcome"}),
		LookupDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "vatkit_vies_lookup_duration_seconds",
			Help:    "Duration of VIES lookups including retries",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"country"}),
		Retries: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vatkit_vies_retries_total",
			Help: "VIES request retries by member state",
		}, []string{"country"}),
		CacheRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vatkit_vies_cache_requests_total",
			Help: "Registry answer cache lookups by result",
		}, []string{"result"}),
	}
}

// ObserveLookup records a finished lookup. Call with time.Now() at the start of the lookup.
func (m *Metrics) ObserveLookup(country, outcome string, start time.Time) {
	if m == nil {
		return
	}
	m.Lookups.WithLabelValues(country, outcome).Inc()
	m.LookupDuration.WithLabelValues(country).Observe(time.Since(start).Seconds())
}

func (m *Metrics) IncRetry(country string) {
	if m == nil {
		return
	}
	m.Retries.WithLabelValues(country).Inc()
}

func (m *Metrics) ObserveCache(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheRequests.WithLabelValues(result).Inc()
}
