// Package metrics exposes the service's Prometheus collectors.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	transactionsCommitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "token_ledger",
			Subsystem: "engine",
			Name:      "transactions_committed_total",
			Help:      "Total number of committed ledger transactions.",
		},
		[]string{"type", "source"},
	)

	transactionsRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "token_ledger",
			Subsystem: "engine",
			Name:      "transactions_rejected_total",
			Help:      "Total number of rejected transaction requests.",
		},
		[]string{"reason"},
	)

	idempotentReplays = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "token_ledger",
			Subsystem: "engine",
			Name:      "idempotent_replays_total",
			Help:      "Total number of submits answered from an existing entry.",
		},
	)

	writeConflicts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "token_ledger",
			Subsystem: "engine",
			Name:      "write_conflicts_total",
			Help:      "Total number of same-account write conflicts retried.",
		},
	)

	notificationsPublished = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "token_ledger",
			Subsystem: "notifier",
			Name:      "events_published_total",
			Help:      "Total number of balance events published to Kafka.",
		},
	)

	notificationsDropped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "token_ledger",
			Subsystem: "notifier",
			Name:      "events_dropped_total",
			Help:      "Total number of balance events dropped after exhausting retries.",
		},
	)
)

func init() {
	Registry.MustRegister(
		transactionsCommitted,
		transactionsRejected,
		idempotentReplays,
		writeConflicts,
		notificationsPublished,
		notificationsDropped,
		collectors.NewGoCollector(),
	)
}

// Handler returns the scrape endpoint handler for the registry
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// TransactionCommitted records one committed transaction
func TransactionCommitted(txType, source string) {
	transactionsCommitted.WithLabelValues(txType, source).Inc()
}

// TransactionRejected records one rejected request by failure reason
func TransactionRejected(reason string) {
	transactionsRejected.WithLabelValues(reason).Inc()
}

// IdempotentReplay records a submit answered from an existing entry
func IdempotentReplay() {
	idempotentReplays.Inc()
}

// WriteConflict records one retried same-account conflict
func WriteConflict() {
	writeConflicts.Inc()
}

// NotificationPublished records one balance event handed to Kafka
func NotificationPublished() {
	notificationsPublished.Inc()
}

// NotificationDropped records one balance event dropped after max retries
func NotificationDropped() {
	notificationsDropped.Inc()
}
