package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// AggregatorMetrics records provider fan-out and cache behaviour.
type AggregatorMetrics struct {
	duration      *prometheus.HistogramVec
	providerCalls *prometheus.CounterVec
	cacheLookups  *prometheus.CounterVec
}

// NewAggregatorMetrics registers the aggregation metrics on the provided registerer.
func NewAggregatorMetrics(reg prometheus.Registerer) *AggregatorMetrics {
	if reg == nil {
		return &AggregatorMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "quote_aggregation_duration_seconds",
		Help:    "Duration of quote aggregation runs in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})
	providerCalls := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "quote_provider_calls_total",
		Help: "Provider quote calls by provider and outcome.",
	}, []string{"provider", "outcome"})
	cacheLookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "quote_cache_lookups_total",
		Help: "Response cache lookups by result.",
	}, []string{"result"})
	reg.MustRegister(duration, providerCalls, cacheLookups)
	return &AggregatorMetrics{
		duration:      duration,
		providerCalls: providerCalls,
		cacheLookups:  cacheLookups,
	}
}

// ObserveAggregation records the duration of one aggregation run.
func (a *AggregatorMetrics) ObserveAggregation(outcome string, duration time.Duration) {
	if a == nil || a.duration == nil {
		return
	}
	a.duration.WithLabelValues(normalizeLabel(outcome)).Observe(duration.Seconds())
}

// IncProviderCall counts one provider call with its outcome ("ok" or "error").
func (a *AggregatorMetrics) IncProviderCall(provider, outcome string) {
	if a == nil || a.providerCalls == nil {
		return
	}
	a.providerCalls.WithLabelValues(normalizeLabel(provider), normalizeLabel(outcome)).Inc()
}

// IncCacheLookup counts one cache lookup ("hit" or "miss").
func (a *AggregatorMetrics) IncCacheLookup(result string) {
	if a == nil || a.cacheLookups == nil {
		return
	}
	a.cacheLookups.WithLabelValues(normalizeLabel(result)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
