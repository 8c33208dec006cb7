package utils

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Metrics collects discovery counters. All methods are nil-safe so the
// library can run without a registry wired in.
type Metrics struct {
	registry          *prometheus.Registry
	probesTotal       *prometheus.CounterVec
	candidatesTotal   *prometheus.CounterVec
	candidateSetSize  prometheus.Gauge
	discoverySeconds  prometheus.Histogram
	discoveryOutcomes *prometheus.CounterVec
}

func NewMetrics(runtimeMetrics bool) *Metrics {
	reg := prometheus.NewRegistry()
	if runtimeMetrics {
		_ = reg.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		_ = reg.Register(collectors.NewGoCollector())
	}

	m := &Metrics{
		registry: reg,
		probesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "streamseek_probes_total",
			Help: "HTTP probe attempts by scheme and outcome.",
		}, []string{"scheme", "outcome"}),
		candidatesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "streamseek_candidates_total",
			Help: "Candidates contributed per source.",
		}, []string{"source"}),
		candidateSetSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "streamseek_candidate_set_size",
			Help: "Size of the merged candidate set for the last run.",
		}),
		discoverySeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "streamseek_discovery_duration_seconds",
			Help:    "Wall time of a full discovery run.",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		}),
		discoveryOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "streamseek_discovery_outcomes_total",
			Help: "Terminal discovery outcomes (cache, single_path, multi_path, default).",
		}, []string{"outcome"}),
	}
	reg.MustRegister(m.probesTotal, m.candidatesTotal, m.candidateSetSize, m.discoverySeconds, m.discoveryOutcomes)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) ObserveProbe(scheme, outcome string) {
	if m == nil {
		return
	}
	m.probesTotal.WithLabelValues(scheme, outcome).Inc()
}

func (m *Metrics) AddCandidates(source string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.candidatesTotal.WithLabelValues(source).Add(float64(n))
}

func (m *Metrics) SetCandidateSetSize(n int) {
	if m == nil {
		return
	}
	m.candidateSetSize.Set(float64(n))
}

func (m *Metrics) ObserveDiscovery(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.discoveryOutcomes.WithLabelValues(outcome).Inc()
	m.discoverySeconds.Observe(d.Seconds())
}
