package metrics

import (
	"slices"

	"github.com/prometheus/client_golang/prometheus"
)

// Option adjusts a Manager before its collectors are registered.
type Option func(*Manager)

// WithNamespace prefixes every metric name. Empty keeps "gradebook".
func WithNamespace(namespace string) Option {
	return func(m *Manager) {
		if namespace != "" {
			m.namespace = namespace
		}
	}
}

// WithSubsystem inserts a subsystem between namespace and metric name.
func WithSubsystem(subsystem string) Option {
	return func(m *Manager) {
		m.subsystem = subsystem
	}
}

// WithHTTPBuckets sets the request duration buckets in milliseconds.
// Buckets that are empty or not strictly increasing are ignored.
func WithHTTPBuckets(buckets []float64) Option {
	return func(m *Manager) {
		if ValidBuckets(buckets) {
			m.httpBuckets = slices.Clone(buckets)
		}
	}
}

// WithStoreBuckets sets the store latency buckets in milliseconds.
// Buckets that are empty or not strictly increasing are ignored.
func WithStoreBuckets(buckets []float64) Option {
	return func(m *Manager) {
		if ValidBuckets(buckets) {
			m.storeBuckets = slices.Clone(buckets)
		}
	}
}

// WithPrometheusRegistry registers the collectors on registry instead of the default one.
func WithPrometheusRegistry(registry prometheus.Registerer) Option {
	return func(m *Manager) {
		if registry != nil {
			m.registry = registry
		}
	}
}

// ValidBuckets reports whether buckets is non-empty and strictly increasing,
// which is what prometheus requires of histogram bounds.
func ValidBuckets(buckets []float64) bool {
	if len(buckets) == 0 {
		return false
	}
	for i := 1; i < len(buckets); i++ {
		if buckets[i] <= buckets[i-1] {
			return false
		}
	}
	return true
}
