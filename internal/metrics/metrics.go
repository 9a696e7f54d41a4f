package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the collectors exported on /metrics.
type Metrics struct {
	registry *prometheus.Registry

	Actions       *prometheus.CounterVec
	Noops         *prometheus.CounterVec
	BatteryLevel  prometheus.Gauge
	Notifications *prometheus.CounterVec
	Deliveries    *prometheus.CounterVec
}

// New registers every collector on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mower_state_actions_total",
			Help: "Actions dispatched into the mower state store.",
		}, []string{"action"}),
		Noops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mower_state_noops_total",
			Help: "Dispatched actions that left the state unchanged.",
		}, []string{"action", "reason"}),
		BatteryLevel: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mower_battery_level",
			Help: "Most recent battery level in percent.",
		}),
		Notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mower_notifications_total",
			Help: "Notifications appended to the state, by type.",
		}, []string{"type"}),
		Deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mower_notification_deliveries_total",
			Help: "Notification deliveries by sink and result.",
		}, []string{"sink", "result"}),
	}
	m.registry.MustRegister(m.Actions, m.Noops, m.BatteryLevel, m.Notifications, m.Deliveries)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
