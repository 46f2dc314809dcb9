package service

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the thread engine collectors
type Metrics struct {
	Optimistic *prometheus.CounterVec
	Rollbacks  *prometheus.CounterVec
	Stale      prometheus.Counter
	Views      prometheus.Gauge
	Evicted    prometheus.Counter
}

// NewMetrics creates and registers the collectors on reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Optimistic: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "forum",
			Subsystem: "thread",
			Name:      "optimistic_updates_total",
			Help:      "Optimistic mutations applied to thread views.",
		}, []string{"target", "action"}),
		Rollbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "forum",
			Subsystem: "thread",
			Name:      "rollbacks_total",
			Help:      "Optimistic mutations restored after a forum failure.",
		}, []string{"target"}),
		Stale: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "forum",
			Subsystem: "thread",
			Name:      "stale_views_total",
			Help:      "Views marked for refetch instead of rolled back.",
		}),
		Views: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "forum",
			Subsystem: "thread",
			Name:      "live_views",
			Help:      "Thread views held in memory.",
		}),
		Evicted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "forum",
			Subsystem: "thread",
			Name:      "evicted_views_total",
			Help:      "Thread views dropped by the janitor or the size cap.",
		}),
	}
	reg.MustRegister(m.Optimistic, m.Rollbacks, m.Stale, m.Views, m.Evicted)
	return m
}
