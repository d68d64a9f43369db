package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups all Prometheus instruments used by the service.
type Metrics struct {
	ChatTurns        *prometheus.CounterVec
	NLUFailures      *prometheus.CounterVec
	PendingFlows     prometheus.Gauge
	TodosCreated     prometheus.Counter
	RemindersSent    prometheus.Counter
	ReminderFailures prometheus.Counter
}

func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		ChatTurns: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chat_turns_total",
			Help:      "Chat turns processed, by resulting step.",
		}, []string{"step"}),
		NLUFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "nlu_failures_total",
			Help:      "NLU gateway failures absorbed by the engine, by stage.",
		}, []string{"stage"}),
		PendingFlows: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pending_flows",
			Help:      "In-progress todo negotiations held in the flow store.",
		}),
		TodosCreated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "todos_created_total",
			Help:      "Todos committed from chat turns or the direct API.",
		}),
		RemindersSent: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reminders_sent_total",
			Help:      "Due reminders delivered with at least one success.",
		}),
		ReminderFailures: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reminder_failures_total",
			Help:      "Reminder candidates whose delivery fully failed this run.",
		}),
	}
}

func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
