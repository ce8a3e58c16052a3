package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles the service metrics on a private registry. A nil *Metrics
// is valid and records nothing.
type Metrics struct {
	ItemOpsTotal        *prometheus.CounterVec
	MonitorCyclesTotal  *prometheus.CounterVec
	MonitorCycleSeconds prometheus.Histogram
	ItemsByLevel        *prometheus.GaugeVec
	NotificationsTotal  *prometheus.CounterVec

	registry *prometheus.Registry
}

// New constructs and registers metrics.
func New() *Metrics {
	m := &Metrics{
		ItemOpsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wear_item_operations_total",
				Help: "Total item operations by operation and result",
			},
			[]string{"operation", "result"},
		),
		MonitorCyclesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wear_monitor_cycles_total",
				Help: "Total monitor cycles by result",
			},
			[]string{"result"},
		),
		MonitorCycleSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "wear_monitor_cycle_duration_seconds",
			Help:    "Monitor cycle duration in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		ItemsByLevel: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "wear_items",
				Help: "Number of items per wear level in the last monitor cycle",
			},
			[]string{"level"},
		),
		NotificationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wear_notifications_total",
				Help: "Total push notifications by result",
			},
			[]string{"result"},
		),
		registry: prometheus.NewRegistry(),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.ItemOpsTotal,
		m.MonitorCyclesTotal,
		m.MonitorCycleSeconds,
		m.ItemsByLevel,
		m.NotificationsTotal,
	)
	return m
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ItemOp counts one item operation.
func (m *Metrics) ItemOp(operation string, err error) {
	if m == nil {
		return
	}
	m.ItemOpsTotal.WithLabelValues(operation, result(err)).Inc()
}

// MonitorCycle records a finished monitor cycle and the level distribution it observed.
func (m *Metrics) MonitorCycle(elapsed time.Duration, levels map[string]int, err error) {
	if m == nil {
		return
	}
	m.MonitorCyclesTotal.WithLabelValues(result(err)).Inc()
	m.MonitorCycleSeconds.Observe(elapsed.Seconds())
	if err != nil {
		return
	}
	m.ItemsByLevel.Reset()
	for level, n := range levels {
		m.ItemsByLevel.WithLabelValues(level).Set(float64(n))
	}
}

// Notification counts one push delivery attempt.
func (m *Metrics) Notification(outcome string) {
	if m == nil {
		return
	}
	m.NotificationsTotal.WithLabelValues(outcome).Inc()
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
