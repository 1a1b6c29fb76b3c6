package reqcache

import (
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// Request results.
const (
	resultHit         = "hit"
	resultMiss        = "miss"
	resultBypass      = "bypass"
	resultPassthrough = "passthrough"
)

// Write results.
const (
	writeStored  = "stored"
	writeSkipped = "skipped"
	writeFailed  = "failed"
)

// Stats is a snapshot of a cache's counters.
type Stats struct {
	Hits        uint64 `json:"hits"`
	Misses      uint64 `json:"misses"`
	Bypassed    uint64 `json:"bypassed"`
	Passthrough uint64 `json:"passthrough"`
	Stored      uint64 `json:"stored"`
	Skipped     uint64 `json:"skipped"`
	Failed      uint64 `json:"failed"`
	Purges      uint64 `json:"purges"`
}

type metrics struct {
	registry *prometheus.Registry
	requests *prometheus.CounterVec
	writes   *prometheus.CounterVec
	purges   prometheus.Counter
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "eysh_cache_requests_total",
			Help: "Cache lookups by result.",
		}, []string{"result"}),
		writes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "eysh_cache_writes_total",
			Help: "Cache writes by result.",
		}, []string{"result"}),
		purges: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "eysh_cache_purges_total",
			Help: "Reload purges and explicit clears of the cache namespace.",
		}),
	}
	m.registry.MustRegister(m.requests, m.writes, m.purges)
	return m
}

func (m *metrics) request(result string) {
	m.requests.WithLabelValues(result).Inc()
}

func (m *metrics) write(result string) {
	m.writes.WithLabelValues(result).Inc()
}

func (m *metrics) snapshot() Stats {
	var s Stats
	families, err := m.registry.Gather()
	if err != nil {
		return s
	}
	for _, mf := range families {
		for _, metric := range mf.GetMetric() {
			v := uint64(metric.GetCounter().GetValue())
			switch mf.GetName() {
			case "eysh_cache_requests_total":
				switch label(metric, "result") {
				case resultHit:
					s.Hits = v
				case resultMiss:
					s.Misses = v
				case resultBypass:
					s.Bypassed = v
				case resultPassthrough:
					s.Passthrough = v
				}
			case "eysh_cache_writes_total":
				switch label(metric, "result") {
				case writeStored:
					s.Stored = v
				case writeSkipped:
					s.Skipped = v
				case writeFailed:
					s.Failed = v
				}
			case "eysh_cache_purges_total":
				s.Purges = v
			}
		}
	}
	return s
}

func label(m *dto.Metric, name string) string {
	for _, lp := range m.GetLabel() {
		if lp.GetName() == name {
			return lp.GetValue()
		}
	}
	return ""
}
