// Package metrics exposes control-plane counters to Prometheus.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	rateLimited = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "salespilot_rate_limited_total",
			Help: "Inbound messages rejected by the rate limiter, by tier reason",
		},
		[]string{"reason"},
	)

	silencedTurns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "salespilot_silenced_turns_total",
			Help: "Inbound messages that produced no reply, by cause",
		},
		[]string{"cause"},
	)

	guardedResponses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "salespilot_guarded_responses_total",
			Help: "Generated replies altered by the response guard, by reason",
		},
		[]string{"reason"},
	)

	classifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "salespilot_classifications_total",
			Help: "Conversation outcome classifications, by result",
		},
		[]string{"classification"},
	)
)

var initOnce sync.Once

// Init registers the collectors. Must be called once at startup.
func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(rateLimited, silencedTurns, guardedResponses, classifications)
	})
}

// RecordRateLimited counts a rejected inbound message.
func RecordRateLimited(reason string) {
	rateLimited.WithLabelValues(reason).Inc()
}

// RecordSilencedTurn counts an inbound message the agent did not answer.
func RecordSilencedTurn(cause string) {
	silencedTurns.WithLabelValues(cause).Inc()
}

// RecordGuardedResponse counts a reply altered by the guard.
func RecordGuardedResponse(reason string) {
	guardedResponses.WithLabelValues(reason).Inc()
}

// RecordClassification counts a classification outcome.
func RecordClassification(classification string) {
	classifications.WithLabelValues(classification).Inc()
}
