package monitor

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics are the monitor's operational counters. The cumulative ones are
// persisted across restarts by cmd/main.
type Metrics struct {
	CyclesCompleted  prometheus.Counter
	AlertsEvaluated  prometheus.Counter
	AlertsTriggered  *prometheus.CounterVec
	PriceFetchErrors prometheus.Counter
	NotifyFailures   prometheus.Counter
	ActiveAlerts     prometheus.Gauge
}

// NewMetrics registers the monitor collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		CyclesCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cryptoalert",
			Subsystem: "monitor",
			Name:      "cycles_completed",
			Help:      "The total number of completed monitoring cycles",
		}),
		AlertsEvaluated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cryptoalert",
			Subsystem: "monitor",
			Name:      "alerts_evaluated",
			Help:      "The total number of per-alert evaluations",
		}),
		AlertsTriggered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cryptoalert",
			Subsystem: "monitor",
			Name:      "alerts_triggered",
			Help:      "The total number of triggered alerts by direction",
		}, []string{"direction"}),
		PriceFetchErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cryptoalert",
			Subsystem: "monitor",
			Name:      "price_fetch_errors",
			Help:      "The total number of failed price source calls",
		}),
		NotifyFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cryptoalert",
			Subsystem: "monitor",
			Name:      "notify_failures",
			Help:      "The total number of failed notification attempts",
		}),
		ActiveAlerts: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "cryptoalert",
			Subsystem: "monitor",
			Name:      "active_alerts",
			Help:      "The number of active alerts in the last cycle snapshot",
		}),
	}

	reg.MustRegister(
		m.CyclesCompleted,
		m.AlertsEvaluated,
		m.AlertsTriggered,
		m.PriceFetchErrors,
		m.NotifyFailures,
		m.ActiveAlerts,
	)
	return m
}
