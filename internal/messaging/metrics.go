package messaging

import "github.com/prometheus/client_golang/prometheus"

// PoolMetrics records producer pool usage. A nil *PoolMetrics records nothing.
type PoolMetrics struct {
	inUse   *prometheus.GaugeVec
	borrows *prometheus.CounterVec
}

// NewPoolMetrics creates the pool metrics and registers them with reg when reg is not nil.
func NewPoolMetrics(reg prometheus.Registerer) *PoolMetrics {
	m := &PoolMetrics{
		inUse: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "provisioner",
				Subsystem: "producer_pool",
				Name:      "in_use",
				Help:      "Number of producers currently borrowed",
			},
			[]string{"pool"},
		),
		borrows: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "provisioner",
				Subsystem: "producer_pool",
				Name:      "borrows_total",
				Help:      "Total number of producer borrows",
			},
			[]string{"pool"},
		),
	}
	if reg != nil {
		reg.MustRegister(m.inUse, m.borrows)
	}
	return m
}

func (m *PoolMetrics) borrowed(pool string) {
	if m == nil {
		return
	}
	m.borrows.WithLabelValues(pool).Inc()
	m.inUse.WithLabelValues(pool).Inc()
}

func (m *PoolMetrics) released(pool string) {
	if m == nil {
		return
	}
	m.inUse.WithLabelValues(pool).Dec()
}
