package lifecycle

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the lifecycle collectors
	Registry = prometheus.NewRegistry()

	transitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "groupformation",
			Subsystem: "lifecycle",
			Name:      "transitions_total",
			Help:      "Total number of successful lifecycle transitions.",
		},
		[]string{"transition"},
	)

	rejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "groupformation",
			Subsystem: "lifecycle",
			Name:      "rejections_total",
			Help:      "Total number of refused lifecycle actions.",
		},
		[]string{"transition", "reason"},
	)

	provisionFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "groupformation",
			Subsystem: "lifecycle",
			Name:      "provision_failures_total",
			Help:      "Total number of failed channel provisioning attempts.",
		},
	)

	deliveryFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "groupformation",
			Subsystem: "lifecycle",
			Name:      "delivery_failures_total",
			Help:      "Total number of notifications that could not be delivered.",
		},
	)
)

func init() {
	Registry.MustRegister(
		transitions,
		rejections,
		provisionFailures,
		deliveryFailures,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// MetricsHandler exposes the registry over HTTP
func MetricsHandler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

func observe(transition string, err error) {
	if err != nil {
		rejections.WithLabelValues(transition, reason(err)).Inc()
		return
	}
	transitions.WithLabelValues(transition).Inc()
}
