package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "quiz"

// Metrics holds the Prometheus collectors of the game service.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	Transitions      *prometheus.CounterVec
	StaleTransitions *prometheus.CounterVec
	EventsPublished  *prometheus.CounterVec
	EventsFailed     *prometheus.CounterVec
	UpdateConflicts  prometheus.Counter
	ResultsLost      prometheus.Counter
	PublishDuration  prometheus.Histogram
}

// New creates the collectors on a dedicated registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		Transitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "game",
				Name:      "transitions_total",
				Help:      "Applied task transitions",
			},
			[]string{"task", "status"},
		),
		StaleTransitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "game",
				Name:      "stale_transitions_total",
				Help:      "Scheduled transitions skipped because the game had moved on",
			},
			[]string{"task", "status"},
		),
		EventsPublished: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "events",
				Name:      "published_total",
				Help:      "Participant events published to the broadcast channel",
			},
			[]string{"type"},
		),
		EventsFailed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "events",
				Name:      "failed_total",
				Help:      "Participant events that could not be built or published",
			},
			[]string{"stage"}, // build or publish
		),
		UpdateConflicts: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "game",
				Name:      "update_conflicts_total",
				Help:      "Exclusive game updates retried after a concurrent write",
			},
		),
		ResultsLost: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "game",
				Name:      "results_lost_total",
				Help:      "Final game results that could not be persisted after retries",
			},
		),
		PublishDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "events",
				Name:      "publish_duration_seconds",
				Help:      "Duration of a full game fan-out",
				Buckets:   prometheus.DefBuckets,
			},
		),
	}
}

// Handler exposes the registry for scraping.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) TransitionApplied(task, status string) {
	if m == nil {
		return
	}
	m.Transitions.WithLabelValues(task, status).Inc()
}

func (m *Metrics) TransitionSkipped(task, status string) {
	if m == nil {
		return
	}
	m.StaleTransitions.WithLabelValues(task, status).Inc()
}

func (m *Metrics) EventPublished(eventType string) {
	if m == nil {
		return
	}
	m.EventsPublished.WithLabelValues(eventType).Inc()
}

func (m *Metrics) EventFailed(stage string) {
	if m == nil {
		return
	}
	m.EventsFailed.WithLabelValues(stage).Inc()
}

func (m *Metrics) Conflict() {
	if m == nil {
		return
	}
	m.UpdateConflicts.Inc()
}

func (m *Metrics) ResultLost() {
	if m == nil {
		return
	}
	m.ResultsLost.Inc()
}

func (m *Metrics) ObservePublish(start time.Time) {
	if m == nil {
		return
	}
	m.PublishDuration.Observe(time.Since(start).Seconds())
}
