package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the bot's Prometheus collectors.
	Registry = prometheus.NewRegistry()

	submissions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "allowlist",
			Subsystem: "applications",
			Name:      "submissions_total",
			Help:      "Application submissions by result.",
		},
		[]string{"result"},
	)

	decisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "allowlist",
			Subsystem: "applications",
			Name:      "decisions_total",
			Help:      "Moderator decisions by result.",
		},
		[]string{"result"},
	)

	roleGrantFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "allowlist",
			Subsystem: "roles",
			Name:      "grant_failures_total",
			Help:      "Allowlisted role assignments that failed after an approval.",
		},
	)

	interactions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "allowlist",
			Subsystem: "discord",
			Name:      "interactions_total",
			Help:      "Inbound Discord interactions by routed event kind.",
		},
		[]string{"kind"},
	)
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		submissions,
		decisions,
		roleGrantFailures,
		interactions,
	)
}

// RecordSubmission counts a submission attempt. result is "created" or an error code.
func RecordSubmission(result string) {
	submissions.WithLabelValues(result).Inc()
}

// RecordDecision counts a decision attempt. result is the outcome or an error code.
func RecordDecision(result string) {
	decisions.WithLabelValues(result).Inc()
}

// RecordRoleGrantFailure counts a failed role assignment.
func RecordRoleGrantFailure() {
	roleGrantFailures.Inc()
}

// RecordInteraction counts a routed interaction.
func RecordInteraction(kind string) {
	interactions.WithLabelValues(kind).Inc()
}

// Handler exposes Registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
