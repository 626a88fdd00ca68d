package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	lifecycleCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "live_activity",
		Subsystem: "lifecycle",
		Name:      "operations_total",
		Help:      "Lifecycle operations by kind and outcome.",
	}, []string{"operation", "outcome"})

	activeGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "live_activity",
		Subsystem: "lifecycle",
		Name:      "active_activities",
		Help:      "Number of activities currently active.",
	})

	eventsDroppedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "live_activity",
		Subsystem: "events",
		Name:      "dropped_total",
		Help:      "Events dropped because a subscriber buffer was full.",
	})

	eventsRelayedCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "live_activity",
		Subsystem: "events",
		Name:      "relayed_total",
		Help:      "Events forwarded to Kafka by topic.",
	}, []string{"topic"})
)

func init() {
	prometheus.MustRegister(lifecycleCounter, activeGauge, eventsDroppedCounter, eventsRelayedCounter)
}

// RecordOperation counts one lifecycle operation result.
func RecordOperation(operation, outcome string) {
	lifecycleCounter.WithLabelValues(operation, outcome).Inc()
}

// IncActiveActivities bumps the active-activity gauge after a start.
func IncActiveActivities() {
	activeGauge.Inc()
}

// DecActiveActivities drops the active-activity gauge after an end.
func DecActiveActivities() {
	activeGauge.Dec()
}

// RecordEventDropped counts one shed event.
func RecordEventDropped() {
	eventsDroppedCounter.Inc()
}

// RecordEventRelayed counts one event delivered to Kafka.
func RecordEventRelayed(topic string) {
	eventsRelayedCounter.WithLabelValues(topic).Inc()
}
