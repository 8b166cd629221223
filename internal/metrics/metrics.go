// Package metrics defines the Prometheus collectors C8 exposes at /metrics,
// wiring prometheus/client_golang — a teacher go.mod dependency the original
// HTTP-only handler package never exercised.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// Listeners is a gauge, not a counter: it tracks the live connection
	// count, which goes down as often as up.
	Listeners = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "zelfm_listeners",
		Help: "Currently connected listeners.",
	})

	ListenerStallsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "zelfm_listener_stalls_total",
		Help: "Listener connections dropped for exceeding the write-deadline stall threshold.",
	})

	SubscriberLagTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "zelfm_subscriber_lag_total",
		Help: "PCM or chat bus items dropped for a slow subscriber across all buses.",
	})
)

// Register adds every collector above to reg. Called once at startup.
func Register(reg *prometheus.Registry) {
	reg.MustRegister(Listeners, ListenerStallsTotal, SubscriberLagTotal)
}
