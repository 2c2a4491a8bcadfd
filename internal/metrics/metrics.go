package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hotdesk",
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint.",
		},
		[]string{"endpoint"},
	)

	transitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hotdesk",
			Name:      "request_transitions_total",
			Help:      "Request status transitions by target status.",
		},
		[]string{"status"},
	)

	escalations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hotdesk",
			Name:      "escalations_total",
			Help:      "Fired escalation timeouts by resulting tier.",
		},
		[]string{"tier"},
	)

	ledgerTasks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hotdesk",
			Name:      "ledger_tasks_total",
			Help:      "Ledger sync task outcomes.",
		},
		[]string{"result"},
	)

	staleTransitions = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "hotdesk",
			Name:      "stale_transitions_total",
			Help:      "Transitions rejected because the request had already moved on.",
		},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, transitions, escalations, ledgerTasks, staleTransitions)
	})
}

// IncHTTP increments the counter for an endpoint label.
func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}

// IncTransition increments the transition counter for a target status.
func IncTransition(status string) {
	transitions.WithLabelValues(status).Inc()
}

// IncEscalation increments the escalation counter for a tier label.
func IncEscalation(tier string) {
	escalations.WithLabelValues(tier).Inc()
}

// IncLedgerTask records a ledger sync outcome (completed, retry, failed).
func IncLedgerTask(result string) {
	ledgerTasks.WithLabelValues(result).Inc()
}

// IncStaleTransition records a lost transition race.
func IncStaleTransition() {
	staleTransitions.Inc()
}
