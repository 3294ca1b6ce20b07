// Package observability exposes the Prometheus instruments of the narrator.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels shared by narration and tone counters.
const (
	OutcomePlayed      = "played"
	OutcomeMuted       = "muted"
	OutcomeEmpty       = "empty"
	OutcomeUnavailable = "unavailable"
	OutcomeInvalid     = "invalid"
	OutcomeFailed      = "failed"
)

// Metrics groups all Prometheus instruments used by the service.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	Narrations    *prometheus.CounterVec
	Tones         *prometheus.CounterVec
	Cancellations *prometheus.CounterVec
	BackendErrors *prometheus.CounterVec
	BridgeClients prometheus.Gauge

	gatherer prometheus.Gatherer
}

// NewMetrics registers the instruments on reg. A nil reg uses a fresh
// private registry, which keeps tests independent of each other.
func NewMetrics(namespace string, reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)
	return &Metrics{
		Narrations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "narrations_total",
			Help:      "Narration requests by outcome.",
		}, []string{"outcome"}),
		Tones: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tones_total",
			Help:      "Tone cue requests by kind and outcome.",
		}, []string{"kind", "outcome"}),
		Cancellations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "narration_cancellations_total",
			Help:      "Narration cancellations by reason.",
		}, []string{"reason"}),
		BackendErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backend_errors_total",
			Help:      "Audio backend errors by backend and operation.",
		}, []string{"backend", "op"}),
		BridgeClients: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "bridge_clients",
			Help:      "Browser clients connected to the audio bridge.",
		}),
		gatherer: reg,
	}
}

func (m *Metrics) Narration(outcome string) {
	if m == nil {
		return
	}
	m.Narrations.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Tone(kind, outcome string) {
	if m == nil {
		return
	}
	m.Tones.WithLabelValues(kind, outcome).Inc()
}

func (m *Metrics) Cancellation(reason string) {
	if m == nil {
		return
	}
	m.Cancellations.WithLabelValues(reason).Inc()
}

func (m *Metrics) BackendError(backend, op string) {
	if m == nil {
		return
	}
	m.BackendErrors.WithLabelValues(backend, op).Inc()
}

func (m *Metrics) SetBridgeClients(n int) {
	if m == nil {
		return
	}
	m.BridgeClients.Set(float64(n))
}

// Handler serves the registry the instruments were registered on.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
