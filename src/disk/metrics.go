package disk

import "github.com/prometheus/client_golang/prometheus"

const metricsSubsystem = "buffer_pool"

// Metrics counts buffer pool activity.
type Metrics struct {
	Hits       prometheus.Counter
	Misses     prometheus.Counter
	Evictions  prometheus.Counter
	WriteBacks prometheus.Counter
	Exhausted  prometheus.Counter
}

func NewMetrics(namespace string) *Metrics {
	counter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: metricsSubsystem,
			Name:      name,
			Help:      help,
		})
	}
	return &Metrics{
		Hits:       counter("hits_total", "Page fetches served from the pool."),
		Misses:     counter("misses_total", "Page fetches that went to disk."),
		Evictions:  counter("evictions_total", "Cached pages dropped to reuse their frame."),
		WriteBacks: counter("write_backs_total", "Dirty pages written to disk."),
		Exhausted:  counter("exhausted_total", "Requests refused because every frame was pinned."),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{m.Hits, m.Misses, m.Evictions, m.WriteBacks, m.Exhausted}
}

// Register adds all counters to reg. On failure none of them stay registered.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	collectors := m.collectors()
	for i, c := range collectors {
		if err := reg.Register(c); err != nil {
			for _, done := range collectors[:i] {
				reg.Unregister(done)
			}
			return err
		}
	}
	return nil
}

// Unregister removes all counters from reg.
func (m *Metrics) Unregister(reg prometheus.Registerer) {
	for _, c := range m.collectors() {
		reg.Unregister(c)
	}
}
