package services

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "cloudsync"

// Metrics records facade operations. A nil *Metrics records nothing.
type Metrics struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	buffered   prometheus.Gauge
	flushes    *prometheus.CounterVec
}

// NewMetrics creates the facade metrics and registers them with reg
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "facade",
			Name:      "operations_total",
			Help:      "Total number of facade operations by result",
		}, []string{"operation", "result"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "facade",
			Name:      "operation_duration_seconds",
			Help:      "Time from submission to completion of facade operations",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 14),
		}, []string{"operation"}),
		buffered: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "reference_data",
			Name:      "buffered_entries",
			Help:      "Reference data entries waiting for the next flush",
		}),
		flushes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "reference_data",
			Name:      "flushes_total",
			Help:      "Write-behind flushes of reference data by result",
		}, []string{"result"}),
	}
	for _, c := range []prometheus.Collector{m.operations, m.duration, m.buffered, m.flushes} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) observe(op string, start time.Time, err error) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(op, resultLabel(err)).Inc()
	m.duration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

func (m *Metrics) setBuffered(n int) {
	if m == nil {
		return
	}
	m.buffered.Set(float64(n))
}

func (m *Metrics) flushed(err error) {
	if m == nil {
		return
	}
	m.flushes.WithLabelValues(resultLabel(err)).Inc()
}

func resultLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
