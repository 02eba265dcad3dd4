// Package metrics holds the Prometheus collectors for the CRM core.
// This is part of the platform layer and contains no business logic.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics owns a private registry so constructing it twice (tests, worker +
// api in one process) never panics on duplicate registration.
type Metrics struct {
	Registry *prometheus.Registry

	leadSaves             *prometheus.CounterVec
	leadSaveDuration      *prometheus.HistogramVec
	opportunityDecisions  *prometheus.CounterVec
	opportunityFailures   prometheus.Counter
	findOrCreateConflicts *prometheus.CounterVec
}

// New creates and registers all collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		leadSaves: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crm_lead_saves_total",
				Help: "Lead saves by mode (create, edit, queued) and outcome.",
			},
			[]string{"mode", "outcome"},
		),
		leadSaveDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "crm_lead_save_duration_seconds",
				Help:    "Duration of synchronous lead saves.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"mode"},
		),
		opportunityDecisions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crm_opportunity_decisions_total",
				Help: "Opportunity upsert decisions by action.",
			},
			[]string{"action"},
		),
		opportunityFailures: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "crm_opportunity_derivation_failures_total",
				Help: "Opportunity derivations that failed after a successful lead save.",
			},
		),
		findOrCreateConflicts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crm_find_or_create_conflicts_total",
				Help: "Unique-key conflicts recovered by re-reading, by dictionary.",
			},
			[]string{"dictionary"},
		),
	}
}

// ObserveLeadSave records a lead save outcome and, when d > 0, its duration.
func (m *Metrics) ObserveLeadSave(mode, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.leadSaves.WithLabelValues(mode, outcome).Inc()
	if d > 0 {
		m.leadSaveDuration.WithLabelValues(mode).Observe(d.Seconds())
	}
}

// IncOpportunityDecision counts an engine decision.
func (m *Metrics) IncOpportunityDecision(action string) {
	if m == nil {
		return
	}
	m.opportunityDecisions.WithLabelValues(action).Inc()
}

// IncOpportunityFailure counts a swallowed derivation failure.
func (m *Metrics) IncOpportunityFailure() {
	if m == nil {
		return
	}
	m.opportunityFailures.Inc()
}

// IncFindOrCreateConflict counts a recovered insert race.
func (m *Metrics) IncFindOrCreateConflict(dictionary string) {
	if m == nil {
		return
	}
	m.findOrCreateConflicts.WithLabelValues(dictionary).Inc()
}
