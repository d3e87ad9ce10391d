package obs

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the counters the pricing engine reports.
type Metrics struct {
	QuotesServed     *prometheus.CounterVec
	UpstreamDegrades *prometheus.CounterVec
	EditsCommitted   *prometheus.CounterVec
	SagaRollbacks    prometheus.Counter
	OutboxPublished  prometheus.Counter
}

// NewMetrics registers the pricing metric set on the given registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		QuotesServed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "stayrates",
			Name:      "quotes_served_total",
			Help:      "Quotes served, by outcome (priced or unavailable).",
		}, []string{"outcome"}),
		UpstreamDegrades: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "stayrates",
			Name:      "upstream_degrades_total",
			Help:      "Quote-path upstream lookups that timed out or failed.",
		}, []string{"upstream"}),
		EditsCommitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "stayrates",
			Name:      "pricing_edits_total",
			Help:      "Committed pricing edits, by change type.",
		}, []string{"change_type"}),
		SagaRollbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "stayrates",
			Name:      "pricing_saga_rollbacks_total",
			Help:      "Pricing edits rolled back after a mid-saga failure.",
		}),
		OutboxPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "stayrates",
			Name:      "outbox_events_published_total",
			Help:      "Integration events drained from the outbox to the broker.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.QuotesServed, m.UpstreamDegrades, m.EditsCommitted, m.SagaRollbacks, m.OutboxPublished)
	}
	return m
}
