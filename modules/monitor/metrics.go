package monitor

import "github.com/prometheus/client_golang/prometheus"

type metrics struct {
	cycles        *prometheus.CounterVec
	publishes     *prometheus.CounterVec
	publishErrors *prometheus.CounterVec
	slotWait      prometheus.Histogram
}

// newMetrics builds the monitor's metrics and registers them when reg is
// not nil. Tests pass nil to skip registration.
func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		cycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tbsfm",
			Subsystem: "monitor",
			Name:      "cycles_total",
			Help:      "Monitoring cycles per channel, by result.",
		}, []string{"channel", "result"}),
		publishes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tbsfm",
			Subsystem: "monitor",
			Name:      "publishes_total",
			Help:      "Successful publications per channel, by kind.",
		}, []string{"channel", "kind"}),
		publishErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tbsfm",
			Subsystem: "monitor",
			Name:      "publish_errors_total",
			Help:      "Failed publications per channel.",
		}, []string{"channel"}),
		slotWait: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "tbsfm",
			Subsystem: "monitor",
			Name:      "recognition_slot_wait_seconds",
			Help:      "Time spent waiting for the shared recognition slot.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
	}

	if reg != nil {
		reg.MustRegister(m.cycles, m.publishes, m.publishErrors, m.slotWait)
	}

	return m
}
